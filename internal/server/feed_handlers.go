package server

import (
	"geosocial/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/feed?q=
// @Summary Home feed
// @Description Posts by the caller and their friends, newest first, optionally filtered by a term matched against topic and caption
// @Tags feed
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search term"
// @Success 200 {object} service.Feed
// @Router /feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	feed, err := s.feedService.ResolveFeed(c.UserContext(), userID, c.Query("q"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(feed)
}
