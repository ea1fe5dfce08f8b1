package server

import (
	"cidadeemfoco/internal/models"
	"cidadeemfoco/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetCurrentUser handles GET /api/user/me
// @Summary Get current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /user/me [get]
func (s *Server) GetCurrentUser(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return models.WriteError(c, err)
	}

	user, err := s.userService.GetCurrentUser(c.UserContext(), id.UserID)
	if err != nil {
		return models.WriteError(c, err)
	}
	return c.JSON(user)
}

// UpdateProfile handles PUT /api/user/profile
// @Summary Update current user profile
// @Description Updates name and email. Changing the password requires senhaAtual.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{nome=string,email=string,senhaAtual=string,novaSenha=string} true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /user/profile [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return models.WriteError(c, err)
	}

	var req struct {
		Name            string `json:"nome"`
		Email           string `json:"email"`
		CurrentPassword string `json:"senhaAtual"`
		NewPassword     string `json:"novaSenha"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:          id.UserID,
		Name:            req.Name,
		Email:           req.Email,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return models.WriteError(c, err)
	}
	return c.JSON(user)
}

// UpdateProfileImage handles PUT /api/user/profile-image
// @Summary Set profile image
// @Description Stores the URL of an image previously sent to /upload.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{imageUrl=string} true "Image URL"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /user/profile-image [put]
func (s *Server) UpdateProfileImage(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return models.WriteError(c, err)
	}

	var req struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfileImage(c.UserContext(), id.UserID, req.ImageURL)
	if err != nil {
		return models.WriteError(c, err)
	}
	return c.JSON(user)
}

// ListUsers handles GET /api/admin/users
// @Summary List users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/users [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	users, err := s.userService.ListUsers(c.UserContext())
	if err != nil {
		return models.WriteError(c, err)
	}
	return c.JSON(users)
}

// DeleteUser handles DELETE /api/admin/users/:id
// @Summary Delete a user
// @Description Deletes the user together with their posts and likes.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/users/{id} [delete]
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.userService.DeleteUser(c.UserContext(), userID); err != nil {
		return models.WriteError(c, err)
	}
	return c.JSON(MessageResponse{Message: "User deleted successfully"})
}
