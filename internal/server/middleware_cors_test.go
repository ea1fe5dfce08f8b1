package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"cidadeemfoco/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webOrigin = "https://cidadeemfoco.vercel.app"

func newMiddlewareApp(t *testing.T, env string) *fiber.App {
	t.Helper()
	srv := &Server{config: &config.Config{Env: env, AllowedOrigins: webOrigin}}
	app := fiber.New()
	srv.SetupMiddleware(app)
	app.Get("/api/publicacoes", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Post("/api/publicacoes", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })
	return app
}

func send(t *testing.T, app *fiber.App, method, origin string, headers ...string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, "/api/publicacoes", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestSetupMiddleware_CORSOrigins(t *testing.T) {
	tests := []struct {
		name   string
		env    string
		origin string
		want   string
	}{
		{"production allowed origin", "production", webOrigin, webOrigin},
		{"production foreign origin", "production", "https://evil.example", ""},
		{"development any origin", "development", "exp://192.168.1.7:19000", "*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := send(t, newMiddlewareApp(t, tt.env), http.MethodGet, tt.origin)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.want, resp.Header.Get("Access-Control-Allow-Origin"))
			assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
		})
	}
}

func TestSetupMiddleware_SecurityHeaders(t *testing.T) {
	resp := send(t, newMiddlewareApp(t, "production"), http.MethodGet, webOrigin)
	assert.Equal(t, "cross-origin", resp.Header.Get("Cross-Origin-Resource-Policy"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestSetupMiddleware_LimiterKeepsCORSAndSkipsPreflight(t *testing.T) {
	app := newMiddlewareApp(t, "production")

	for range 100 {
		resp := send(t, app, http.MethodPost, webOrigin)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	limited := send(t, app, http.MethodPost, webOrigin)
	assert.Equal(t, fiber.StatusTooManyRequests, limited.StatusCode)
	assert.Equal(t, webOrigin, limited.Header.Get("Access-Control-Allow-Origin"))

	preflight := send(t, app, http.MethodOptions, webOrigin,
		"Access-Control-Request-Method", http.MethodPost,
		"Access-Control-Request-Headers", "authorization,content-type",
	)
	assert.Equal(t, fiber.StatusNoContent, preflight.StatusCode)
	assert.Equal(t, webOrigin, preflight.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, preflight.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
}
