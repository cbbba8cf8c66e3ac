package server

import (
	"geosocial/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetMapConfig handles GET /api/map
// @Summary Map settings
// @Description Initial center of the map view
// @Tags map
// @Produce json
// @Success 200 {object} object{initial_lat=number,initial_lon=number}
// @Router /map [get]
func (s *Server) GetMapConfig(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"initial_lat": s.config.MapInitialLat,
		"initial_lon": s.config.MapInitialLon,
	})
}

// GetMapPosts handles GET /api/map/posts
// @Summary Geotagged posts
// @Description Every post with coordinates as a map pin, newest first
// @Tags map
// @Produce json
// @Success 200 {array} service.MapPin
// @Router /map/posts [get]
func (s *Server) GetMapPosts(c *fiber.Ctx) error {
	viewerID, _ := s.optionalUserID(c)

	pins, err := s.feedService.ListGeotaggedPosts(c.UserContext(), viewerID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(pins)
}
