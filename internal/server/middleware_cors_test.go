package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"xchangez/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webOrigin = "https://xchangez.test"

func middlewareApp(t *testing.T, cfg *config.Config) *fiber.App {
	t.Helper()
	srv := &Server{config: cfg}
	app := fiber.New()
	srv.SetupMiddleware(app)
	app.Get("/api/posts", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Post("/api/posts", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	return app
}

func sendFrom(t *testing.T, app *fiber.App, method, origin string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, "/api/posts", nil)
	req.Header.Set("Origin", origin)
	if method == http.MethodOptions {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestSetupMiddleware_AllowedOrigins(t *testing.T) {
	tests := []struct {
		name    string
		origins string
		origin  string
		want    string
	}{
		{"configured web client", "", webOrigin, webOrigin},
		{"second configured origin", "", "http://localhost:3000", "http://localhost:3000"},
		{"unknown origin", "", "https://evil.test", ""},
		{"unset falls back to local clients", "-", "http://localhost:5173", "http://localhost:5173"},
		{"unset rejects remote origin", "-", webOrigin, ""},
		{"wildcard", "*", "https://anyone.test", "*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			switch tt.origins {
			case "":
			case "-":
				cfg.AllowedOrigins = ""
			default:
				cfg.AllowedOrigins = tt.origins
			}
			resp := sendFrom(t, middlewareApp(t, cfg), http.MethodGet, tt.origin)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.want, resp.Header.Get("Access-Control-Allow-Origin"))
			if tt.origins == "*" {
				assert.Empty(t, resp.Header.Get("Access-Control-Allow-Credentials"))
			}
		})
	}
}

func TestSetupMiddleware_RateLimitedResponseIncludesCORSHeaders(t *testing.T) {
	app := middlewareApp(t, testConfig(t))

	// Exhaust the limiter and assert the final response still carries CORS headers.
	for i := 0; i < 100; i++ {
		resp := sendFrom(t, app, http.MethodGet, webOrigin)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp := sendFrom(t, app, http.MethodGet, webOrigin)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, webOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestSetupMiddleware_PreflightBypassesLimiter(t *testing.T) {
	app := middlewareApp(t, testConfig(t))

	for i := 0; i < 100; i++ {
		resp := sendFrom(t, app, http.MethodPost, webOrigin)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}
	assert.Equal(t, fiber.StatusTooManyRequests, sendFrom(t, app, http.MethodPost, webOrigin).StatusCode)

	preflight := sendFrom(t, app, http.MethodOptions, webOrigin)
	assert.Equal(t, fiber.StatusNoContent, preflight.StatusCode)
	assert.Equal(t, webOrigin, preflight.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, preflight.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
	assert.Contains(t, preflight.Header.Get("Access-Control-Allow-Headers"), "Authorization")
}
