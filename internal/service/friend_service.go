package service

import (
	"context"

	"geosocial/internal/cache"
	"geosocial/internal/models"
	"geosocial/internal/notifications"
	"geosocial/internal/observability"
	"geosocial/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FriendAction is a response to a pending friend request.
type FriendAction string

const (
	FriendActionAccept  FriendAction = "accept"
	FriendActionDecline FriendAction = "decline"
)

// FriendService provides friend-request and friendship business logic.
type FriendService struct {
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
	events     EventPublisher
}

// NewFriendService returns a new FriendService.
func NewFriendService(friendRepo repository.FriendRepository, userRepo repository.UserRepository, events EventPublisher) *FriendService {
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
		events:     events,
	}
}

func (s *FriendService) ensureUser(ctx context.Context, userID uint) error {
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return models.NewNotFoundError("User", userID)
	}
	return nil
}

// RequestFriendship creates a pending request from one user to another.
// When the pair already has a request or friendship in either direction, that row is returned
// unchanged and created is false.
func (s *FriendService) RequestFriendship(ctx context.Context, fromID, toID uint) (friendship *models.Friendship, created bool, err error) {
	if fromID == toID {
		return nil, false, models.NewValidationError("Cannot send friend request to yourself")
	}
	if err := s.ensureUser(ctx, toID); err != nil {
		return nil, false, err
	}

	friendship, created, err = s.friendRepo.CreatePending(ctx, fromID, toID)
	if err != nil {
		return nil, false, err
	}
	if created {
		observability.FriendshipTransitions.WithLabelValues("request").Inc()
		publishEvent(ctx, s.events, toID, notifications.EventFriendRequestReceived, map[string]interface{}{
			"request_id": friendship.ID,
			"from_id":    fromID,
		})
	}
	return friendship, created, nil
}

// Respond applies action to the request sent by fromID to toID. toID is the acting user.
// Accepting an accepted pair is a no-op. Declining only applies to pending requests:
// on an accepted pair it returns a validation error and leaves the friendship in place,
// so unfriending goes through Remove.
func (s *FriendService) Respond(ctx context.Context, fromID, toID uint, action FriendAction) (*models.Friendship, error) {
	friendship, err := s.friendRepo.GetBetween(ctx, fromID, toID)
	if err != nil {
		return nil, err
	}
	if friendship == nil || friendship.RequesterID != fromID {
		return nil, models.NewNotFoundError("Friend request", fromID)
	}

	switch action {
	case FriendActionAccept:
		return s.accept(ctx, toID, friendship)
	case FriendActionDecline:
		return s.reject(ctx, toID, friendship)
	default:
		return nil, models.NewValidationError("Action must be accept or decline")
	}
}

// AcceptRequest accepts the request with the given id on behalf of its addressee.
func (s *FriendService) AcceptRequest(ctx context.Context, actorID, requestID uint) (*models.Friendship, error) {
	friendship, err := s.friendRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return s.accept(ctx, actorID, friendship)
}

// RejectRequest declines a received request or cancels a sent one.
func (s *FriendService) RejectRequest(ctx context.Context, actorID, requestID uint) (*models.Friendship, error) {
	friendship, err := s.friendRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return s.reject(ctx, actorID, friendship)
}

func (s *FriendService) accept(ctx context.Context, actorID uint, friendship *models.Friendship) (*models.Friendship, error) {
	if friendship.AddresseeID != actorID {
		return nil, models.NewForbiddenError("You can only accept friend requests sent to you")
	}
	if friendship.Status == models.FriendshipStatusAccepted {
		return friendship, nil
	}

	changed, err := s.friendRepo.AcceptPending(ctx, friendship.ID)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Removed or accepted concurrently; report whatever is there now.
		return s.friendRepo.GetByID(ctx, friendship.ID)
	}

	cache.InvalidateFriends(ctx, friendship.RequesterID, friendship.AddresseeID)
	observability.FriendshipTransitions.WithLabelValues("accept").Inc()
	publishEvent(ctx, s.events, friendship.RequesterID, notifications.EventFriendRequestAccepted, map[string]interface{}{
		"request_id": friendship.ID,
		"friend_id":  actorID,
	})

	friendship.Status = models.FriendshipStatusAccepted
	return friendship, nil
}

func (s *FriendService) reject(ctx context.Context, actorID uint, friendship *models.Friendship) (*models.Friendship, error) {
	if friendship.AddresseeID != actorID && friendship.RequesterID != actorID {
		return nil, models.NewForbiddenError("You can only reject or cancel your own pending requests")
	}
	if friendship.Status != models.FriendshipStatusPending {
		return nil, models.NewValidationError("Friend request is not pending")
	}

	deleted, err := s.friendRepo.DeletePending(ctx, friendship.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, models.NewNotFoundError("Friend request", friendship.ID)
	}

	eventType, action := notifications.EventFriendRequestDeclined, "decline"
	if actorID == friendship.RequesterID {
		eventType, action = notifications.EventFriendRequestCancelled, "cancel"
	}
	observability.FriendshipTransitions.WithLabelValues(action).Inc()
	publishEvent(ctx, s.events, friendship.OtherUser(actorID), eventType, map[string]interface{}{
		"request_id": friendship.ID,
		"user_id":    actorID,
	})
	return friendship, nil
}

// Remove deletes whatever relation the pair has, pending or accepted.
func (s *FriendService) Remove(ctx context.Context, userID, otherID uint) error {
	deleted, err := s.friendRepo.DeleteBetween(ctx, userID, otherID)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Friendship", otherID)
	}

	cache.InvalidateFriends(ctx, userID, otherID)
	observability.FriendshipTransitions.WithLabelValues("remove").Inc()
	publishEvent(ctx, s.events, otherID, notifications.EventFriendRemoved, map[string]interface{}{
		"user_id": userID,
	})
	return nil
}

// StatusBetween resolves the relation as seen by viewerID. The row is nil when there is none.
func (s *FriendService) StatusBetween(ctx context.Context, viewerID, otherID uint) (models.RelationStatus, *models.Friendship, error) {
	if viewerID == otherID {
		return models.RelationNone, nil, nil
	}
	if err := s.ensureUser(ctx, otherID); err != nil {
		return "", nil, err
	}

	friendship, err := s.friendRepo.GetBetween(ctx, viewerID, otherID)
	if err != nil {
		return "", nil, err
	}
	return friendship.RelationFor(viewerID), friendship, nil
}

// FriendIDsOf returns the ids of users with an accepted friendship with userID.
func (s *FriendService) FriendIDsOf(ctx context.Context, userID uint) ([]uint, error) {
	ctx, span := observability.StartSpan(ctx, "service", "FriendIDsOf", attribute.Int("user_id", int(userID)))

	var ids []uint
	err := cache.Aside(ctx, cache.FriendIDsKey(userID), &ids, cache.FriendIDsTTL, func() error {
		found, err := s.friendRepo.FriendIDs(ctx, userID)
		if err != nil {
			return err
		}
		ids = found
		return nil
	})
	span.End(err)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uint{}
	}
	return ids, nil
}

// GetFriends returns the list of friends for the user.
func (s *FriendService) GetFriends(ctx context.Context, userID uint) ([]models.User, error) {
	return s.friendRepo.GetFriends(ctx, userID)
}

// GetPendingRequests returns pending friend requests for the user.
func (s *FriendService) GetPendingRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	return s.friendRepo.GetPendingRequests(ctx, userID)
}

// GetSentRequests returns friend requests sent by the user.
func (s *FriendService) GetSentRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	return s.friendRepo.GetSentRequests(ctx, userID)
}
