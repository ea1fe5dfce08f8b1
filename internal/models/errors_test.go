package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("bad"), fiber.StatusBadRequest},
		{"conflict", NewConflictError("taken"), fiber.StatusBadRequest},
		{"already liked", NewAlreadyLikedError(), fiber.StatusBadRequest},
		{"not liked", NewNotLikedError(), fiber.StatusBadRequest},
		{"unauthorized", NewUnauthorizedError("no"), fiber.StatusUnauthorized},
		{"invalid token", &AppError{Code: CodeInvalidToken}, fiber.StatusUnauthorized},
		{"forbidden", NewForbiddenError("no"), fiber.StatusForbidden},
		{"not found", NewNotFoundError("User", 1), fiber.StatusNotFound},
		{"post not found", NewPostNotFoundError(9), fiber.StatusNotFound},
		{"upstream", NewUpstreamError("media host", errors.New("boom")), fiber.StatusInternalServerError},
		{"internal", NewInternalError(errors.New("boom")), fiber.StatusInternalServerError},
		{"wrapped", fmt.Errorf("ctx: %w", NewForbiddenError("no")), fiber.StatusForbidden},
		{"fiber error", fiber.ErrNotFound, fiber.StatusNotFound},
		{"plain", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestAppErrorIsMatchesCode(t *testing.T) {
	err := fmt.Errorf("like: %w", NewAlreadyLikedError())
	assert.True(t, errors.Is(err, ErrAlreadyLiked))
	assert.False(t, errors.Is(err, ErrNotLiked))
	assert.True(t, errors.Is(NewPostNotFoundError(3), ErrPostNotFound))
	assert.True(t, errors.Is(NewNotFoundError("User", 3), ErrNotFound))
	assert.False(t, errors.Is(NewPostNotFoundError(3), ErrNotFound))
}

func TestRespondWithErrorDetails(t *testing.T) {
	t.Cleanup(func() { SetExposeDetails(false) })

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return WriteError(c, NewInternalError(errors.New("db down")))
	})

	decode := func(t *testing.T) (int, ErrorResponse) {
		t.Helper()
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		var out ErrorResponse
		require.NoError(t, json.Unmarshal(body, &out))
		return resp.StatusCode, out
	}

	status, body := decode(t)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Empty(t, body.Details, "details are hidden until enabled")

	SetExposeDetails(true)
	status, body = decode(t)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, CodeInternal, body.Code)
	assert.Equal(t, "db down", body.Details)

	SetExposeDetails(false)
	_, body = decode(t)
	assert.Empty(t, body.Details)
	assert.Equal(t, "Internal server error", body.Error)
}

func TestLevel(t *testing.T) {
	assert.True(t, LevelAdmin.IsAdmin())
	assert.False(t, LevelOrdinary.IsAdmin())
	assert.True(t, LevelOrdinary.Valid())
	assert.False(t, Level(0).Valid())
}
