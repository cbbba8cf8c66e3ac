package server

import (
	"geosocial/internal/models"
	"geosocial/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFriends handles GET /api/friends
// @Summary List friends
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Router /friends [get]
func (s *Server) GetFriends(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	friends, err := s.friendService.GetFriends(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(friends)
}

// SendFriendRequest handles POST /api/friends/requests/:userId
// @Summary Send friend request
// @Description Creates a pending request. Repeating it, in either direction, returns the existing relation.
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param userId path int true "Target user ID"
// @Success 201 {object} models.Friendship
// @Success 200 {object} models.Friendship
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /friends/requests/{userId} [post]
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	friendship, created, err := s.friendService.RequestFriendship(c.UserContext(), userID, targetID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	if !created {
		return c.JSON(friendship)
	}
	return c.Status(fiber.StatusCreated).JSON(friendship)
}

// GetPendingRequests handles GET /api/friends/requests
// @Summary List received friend requests
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Friendship
// @Router /friends/requests [get]
func (s *Server) GetPendingRequests(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	requests, err := s.friendService.GetPendingRequests(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(requests)
}

// GetSentRequests handles GET /api/friends/requests/sent
// @Summary List sent friend requests
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Friendship
// @Router /friends/requests/sent [get]
func (s *Server) GetSentRequests(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	requests, err := s.friendService.GetSentRequests(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(requests)
}

// AcceptFriendRequest handles POST /api/friends/requests/:requestId/accept
// @Summary Accept friend request
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param requestId path int true "Request ID"
// @Success 200 {object} models.Friendship
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /friends/requests/{requestId}/accept [post]
func (s *Server) AcceptFriendRequest(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	friendship, err := s.friendService.AcceptRequest(c.UserContext(), userID, requestID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(friendship)
}

// RejectFriendRequest handles POST /api/friends/requests/:requestId/reject
// @Summary Decline or cancel friend request
// @Description The addressee declines, the requester cancels. The row is removed.
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param requestId path int true "Request ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /friends/requests/{requestId}/reject [post]
func (s *Server) RejectFriendRequest(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	if _, err := s.friendService.RejectRequest(c.UserContext(), userID, requestID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Friend request removed"})
}

// RespondToFriendRequest handles POST /api/friends/requests/from/:userId/:action
// @Summary Respond to a friend request by sender
// @Description Accept or decline the pending request the given user sent to the caller
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param userId path int true "Requester user ID"
// @Param action path string true "accept or decline"
// @Success 200 {object} object{status=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /friends/requests/from/{userId}/{action} [post]
func (s *Server) RespondToFriendRequest(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	fromID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	action := service.FriendAction(c.Params("action"))

	friendship, err := s.friendService.Respond(c.UserContext(), fromID, userID, action)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	status := models.RelationNone
	if action == service.FriendActionAccept {
		status = friendship.RelationFor(userID)
	}
	return c.JSON(fiber.Map{"status": status})
}

// GetFriendshipStatus handles GET /api/friends/status/:userId
// @Summary Relation with another user
// @Description One of none, pending_sent, pending_received, friends
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param userId path int true "Other user ID"
// @Success 200 {object} object{status=string,request_id=int}
// @Failure 404 {object} models.ErrorResponse
// @Router /friends/status/{userId} [get]
func (s *Server) GetFriendshipStatus(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	otherID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	status, friendship, err := s.friendService.StatusBetween(c.UserContext(), userID, otherID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	resp := fiber.Map{"status": status}
	if friendship != nil {
		resp["request_id"] = friendship.ID
	}
	return c.JSON(resp)
}

// RemoveFriend handles DELETE /api/friends/:userId
// @Summary Remove friend
// @Description Removes the relation with the user whatever its state
// @Tags friends
// @Security BearerAuth
// @Param userId path int true "Friend user ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /friends/{userId} [delete]
func (s *Server) RemoveFriend(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	friendID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.friendService.Remove(c.UserContext(), userID, friendID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
