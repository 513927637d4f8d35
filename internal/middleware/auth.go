// Package middleware provides Fiber middleware for authentication, logging, metrics, tracing and rate limiting.
package middleware

import (
	"context"
	"strings"

	"xchangez/internal/auth"
	"xchangez/internal/models"

	"github.com/gofiber/fiber/v2"
)

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *fiber.Ctx) string {
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func setUser(c *fiber.Ctx, claims *auth.Claims) {
	c.Locals("userID", claims.UserID)
	c.Locals("email", claims.Email)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, claims.UserID))
}

// AuthRequired rejects requests without a valid bearer token and stores the caller in locals.
// WebSocket upgrades may pass the token as the "token" query parameter.
func AuthRequired(tokens TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" && strings.HasPrefix(c.Path(), "/api/ws") {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		setUser(c, claims)
		return c.Next()
	}
}

// OptionalAuth stores the caller when a valid token is present and never rejects.
func OptionalAuth(tokens TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString := bearerToken(c); tokenString != "" {
			if claims, err := tokens.Parse(tokenString); err == nil {
				setUser(c, claims)
			}
		}
		return c.Next()
	}
}

// UserID returns the authenticated caller, if any.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userID").(uint)
	return id, ok && id != 0
}
