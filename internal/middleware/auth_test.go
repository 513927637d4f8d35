package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"xchangez/internal/auth"
	"xchangez/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokens() *auth.Manager {
	return auth.NewManager(&config.Config{
		JWTSecret:        "test-secret-key-12345678901234567890123456789012",
		JWTIssuer:        "xchangez-api",
		JWTAudience:      "xchangez-client",
		JWTExpiryMinutes: 60,
	})
}

func TestAuthRequired(t *testing.T) {
	tokens := testTokens()
	app := fiber.New()
	app.Get("/test", AuthRequired(tokens), func(c *fiber.Ctx) error {
		id, _ := UserID(c)
		return c.JSON(fiber.Map{"userID": id})
	})

	valid, _, err := tokens.Issue(123, "u@example.com")
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedUserID uint
	}{
		{"Happy Path", "Bearer " + valid, http.StatusOK, 123},
		{"Missing Header", "", http.StatusUnauthorized, 0},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, 0},
		{"Garbage Token", "Bearer abc.def.ghi", http.StatusUnauthorized, 0},
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
				var body map[string]uint
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.expectedUserID, body["userID"])
			}
		})
	}
}

func TestAuthRequired_WebSocketQueryToken(t *testing.T) {
	tokens := testTokens()
	app := fiber.New()
	app.Get("/api/ws/chat", AuthRequired(tokens), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/api/posts", AuthRequired(tokens), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	token, _, err := tokens.Issue(5, "u@example.com")
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/ws/chat?token="+token, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/posts?token="+token, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOptionalAuth(t *testing.T) {
	tokens := testTokens()
	app := fiber.New()
	app.Get("/test", OptionalAuth(tokens), func(c *fiber.Ctx) error {
		id, ok := UserID(c)
		return c.JSON(fiber.Map{"id": id, "ok": ok})
	})

	token, _, err := tokens.Issue(9, "u@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	var body struct {
		ID uint `json:"id"`
		OK bool `json:"ok"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.OK)
	assert.Equal(t, uint(9), body.ID)

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer broken")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
