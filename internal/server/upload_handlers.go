package server

import (
	"net/url"
	"strings"

	"cidadeemfoco/internal/models"

	"github.com/gofiber/fiber/v2"
)

// UploadImage handles POST /api/upload
// @Summary Upload an image
// @Description Stores a JPEG or PNG on the media host and returns its URLs.
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "JPEG or PNG image"
// @Success 200 {object} media.Asset
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /upload [post]
func (s *Server) UploadImage(c *fiber.Ctx) error {
	image, ok, err := s.formImage(c, "image")
	if err != nil {
		return models.WriteError(c, err)
	}
	if !ok {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No image was uploaded"))
	}

	asset, err := s.media.Upload(c.UserContext(), *image)
	if err != nil {
		return models.WriteError(c, err)
	}

	return c.JSON(asset)
}

// DeleteImage handles DELETE /api/upload/:public_id
// @Summary Delete an uploaded image
// @Description public_id may be URL-encoded when it contains a folder.
// @Tags media
// @Produce json
// @Param public_id path string true "Public ID returned by /upload"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /upload/{public_id} [delete]
func (s *Server) DeleteImage(c *fiber.Ctx) error {
	publicID, err := url.PathUnescape(c.Params("public_id"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid public_id"))
	}
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("public_id is required"))
	}

	if err := s.media.Delete(c.UserContext(), publicID); err != nil {
		return models.WriteError(c, err)
	}

	return c.JSON(MessageResponse{Message: "Image deleted successfully"})
}
