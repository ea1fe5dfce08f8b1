package server

import (
	"errors"
	"io"

	"cidadeemfoco/internal/auth"
	"cidadeemfoco/internal/media"
	"cidadeemfoco/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// MessageResponse is the body of endpoints that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}

// LikeResponse is returned by the like and unlike endpoints.
type LikeResponse struct {
	Message string `json:"message"`
	Likes   int    `json:"curtidas"`
}

// Pagination holds parsed limit/offset query parameters. A zero Limit means "all".
type Pagination struct {
	Limit  int
	Offset int
}

const (
	maxPaginationLimit = 100
)

// parsePagination extracts optional limit and offset query parameters. Without a limit the
// whole feed is returned, as existing clients expect.
func parsePagination(c *fiber.Ctx) Pagination {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		limit = 0
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// identity returns the verified caller. Routes without AuthRequired never call it.
func identity(c *fiber.Ctx) (*auth.Identity, error) {
	id, ok := auth.IdentityFrom(c.UserContext())
	if !ok {
		return nil, &models.AppError{Code: models.CodeNoToken, Message: "Authentication required"}
	}
	return id, nil
}

// formImage reads the multipart field as a media.File. ok is false when the field is absent.
func (s *Server) formImage(c *fiber.Ctx, field string) (*media.File, bool, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, false, nil
	}
	if limit := s.config.MaxUploadBytes(); limit > 0 && header.Size > limit {
		return nil, true, models.NewValidationError("Image is too large")
	}

	src, err := header.Open()
	if err != nil {
		return nil, true, models.NewValidationError("Unable to read uploaded file")
	}
	defer func() { _ = src.Close() }()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, true, models.NewValidationError("Unable to read uploaded file")
	}
	return &media.File{Filename: header.Filename, Data: data}, true, nil
}
