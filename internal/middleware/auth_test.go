package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cidadeemfoco/internal/auth"
	"cidadeemfoco/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func newCodec(t *testing.T) *auth.Codec {
	t.Helper()
	codec, err := auth.NewCodec(testSecret)
	require.NoError(t, err)
	return codec
}

func issue(t *testing.T, codec *auth.Codec, userID uint, level models.Level, ttl time.Duration) string {
	t.Helper()
	token, err := codec.Issue(auth.Identity{UserID: userID, Name: "user", Email: "user@example.com", Level: level}, ttl)
	require.NoError(t, err)
	return token
}

func TestAuthRequired(t *testing.T) {
	codec := newCodec(t)
	app := fiber.New()

	app.Get("/test", AuthRequired(codec), func(c *fiber.Ctx) error {
		identity, ok := auth.IdentityFrom(c.UserContext())
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"userID": c.Locals("userID"),
			"level":  identity.Level,
		})
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedCode   string
		expectedUserID uint
	}{
		{
			name:           "Happy Path",
			authHeader:     "Bearer " + issue(t, codec, 123, models.LevelOrdinary, time.Hour),
			expectedStatus: http.StatusOK,
			expectedUserID: 123,
		},
		{
			name:           "Lowercase Scheme",
			authHeader:     "bearer " + issue(t, codec, 5, models.LevelOrdinary, time.Hour),
			expectedStatus: http.StatusOK,
			expectedUserID: 5,
		},
		{
			name:           "Missing Header",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   models.CodeNoToken,
		},
		{
			name:           "Invalid Format",
			authHeader:     "Basic dXNlcjpwYXNz",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   models.CodeMalformedToken,
		},
		{
			name:           "Token Without Scheme",
			authHeader:     issue(t, codec, 1, models.LevelOrdinary, time.Hour),
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   models.CodeMalformedToken,
		},
		{
			name:           "Malformed Token",
			authHeader:     "Bearer malformed.token.here",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   models.CodeInvalidToken,
		},
		{
			name:           "Expired Token",
			authHeader:     "Bearer " + issue(t, codec, 123, models.LevelOrdinary, -time.Hour),
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   models.CodeInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]interface{}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, float64(tt.expectedUserID), body["userID"])
				return
			}

			var body models.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.expectedCode, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestAdminRequired(t *testing.T) {
	codec := newCodec(t)
	app := fiber.New()

	handler := func(c *fiber.Ctx) error {
		return c.SendString("ok")
	}
	app.Delete("/admin/users/:id", AuthRequired(codec), AdminRequired(), handler)
	app.Get("/unguarded", AdminRequired(), handler)

	tests := []struct {
		name           string
		method         string
		path           string
		authHeader     string
		expectedStatus int
	}{
		{
			name:           "Admin passes",
			method:         http.MethodDelete,
			path:           "/admin/users/1",
			authHeader:     "Bearer " + issue(t, codec, 1, models.LevelAdmin, time.Hour),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Ordinary user is forbidden",
			method:         http.MethodDelete,
			path:           "/admin/users/1",
			authHeader:     "Bearer " + issue(t, codec, 2, models.LevelOrdinary, time.Hour),
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "No credential",
			method:         http.MethodDelete,
			path:           "/admin/users/1",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Role gate without identity",
			method:         http.MethodGet,
			path:           "/unguarded",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}
