// Package middleware provides authentication, authorization, logging and rate limiting for the HTTP stack.
package middleware

import (
	"errors"

	"cidadeemfoco/internal/auth"
	"cidadeemfoco/internal/models"

	"github.com/gofiber/fiber/v2"
)

// TokenDecoder verifies a bearer credential.
type TokenDecoder interface {
	Decode(credential string) (*auth.Identity, error)
}

// AuthRequired is a middleware that enforces authentication for protected routes.
// On success the identity is attached to the request context and userID is stored in locals
// for the logger and the rate limiter.
func AuthRequired(decoder TokenDecoder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		credential, err := auth.ParseAuthorizationHeader(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			if errors.Is(err, auth.ErrNoToken) {
				return models.RespondWithError(c, fiber.StatusUnauthorized, &models.AppError{
					Code:    models.CodeNoToken,
					Message: "Authorization header required",
				})
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized, &models.AppError{
				Code:    models.CodeMalformedToken,
				Message: "Invalid authorization header format",
			})
		}

		identity, err := decoder.Decode(credential)
		if err != nil {
			message := "Invalid token"
			if errors.Is(err, auth.ErrExpired) {
				message = "Token expired"
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized, &models.AppError{
				Code:    models.CodeInvalidToken,
				Message: message,
			})
		}

		ctx := auth.WithIdentity(c.UserContext(), identity)
		ctx = WithUserID(ctx, identity.UserID)
		c.SetUserContext(ctx)
		c.Locals("userID", identity.UserID)

		return c.Next()
	}
}

// AdminRequired rejects requests whose identity is not an administrator.
// It must run after AuthRequired; a request without an identity is treated as unauthenticated.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := auth.IdentityFrom(c.UserContext())
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized, &models.AppError{
				Code:    models.CodeNoToken,
				Message: "Authentication required",
			})
		}
		if !identity.IsAdmin() {
			return models.RespondWithError(c, fiber.StatusForbidden, models.NewForbiddenError("Access denied"))
		}
		return c.Next()
	}
}
