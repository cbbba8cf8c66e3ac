package server

import (
	"geosocial/internal/models"
	"geosocial/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
// @Summary Current user's page
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.ProfilePage
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	page, err := s.userService.GetProfilePage(c.UserContext(), userID, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(page)
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update profile
// @Description Omitted fields are left unchanged
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{email=string,bio=string,location=string,birth_date=string} true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Email     *string `json:"email"`
		Bio       *string `json:"bio"`
		Location  *string `json:"location"`
		BirthDate *string `json:"birth_date"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	in := service.UpdateProfileInput{
		UserID:   userID,
		Email:    req.Email,
		Bio:      req.Bio,
		Location: req.Location,
	}
	if req.BirthDate != nil {
		birthDate, err := parseDate(*req.BirthDate)
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		in.BirthDate = birthDate
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:id
// @Summary User page
// @Description A user with their posts, recent comments and topics
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} service.ProfilePage
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	viewerID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	page, err := s.userService.GetProfilePage(c.UserContext(), id, viewerID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(page)
}

// SearchUsers handles GET /api/users/search?q=
// @Summary Search users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param q query string true "Username fragment"
// @Param limit query int false "Max results"
// @Success 200 {array} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /users/search [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	users, err := s.userService.SearchUsers(c.UserContext(), c.Query("q"), parseLimit(c, 10))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(users)
}
