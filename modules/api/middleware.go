package api

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/example/taskboard/modules/auth"
	"github.com/gofiber/fiber/v2"
)

const (
	// UserContextKey is the key used to store user claims in the Fiber context.
	UserContextKey = "user"
)

// AuthMiddleware verifies the bearer token and stores the claims under
// UserContextKey. A missing token is 401; a token that fails verification
// is 400. No account lookup happens here.
func AuthMiddleware(authAdapter auth.AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "missing_credential",
				Message: "Authentication required",
			})
		}

		claims, err := authAdapter.ValidateToken(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
					Error:   "invalid_credential",
					Message: "Invalid token",
				})
			}
			slog.Error("token verification failed", "path", c.Path(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Error:   "internal_error",
				Message: "An internal error occurred",
			})
		}

		c.Locals(UserContextKey, claims)
		return c.Next()
	}
}

// bearerToken extracts the token from an Authorization header value. The
// "Bearer " prefix is optional.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) >= 6 && strings.EqualFold(header[:6], "bearer") {
		header = strings.TrimSpace(header[6:])
	}
	return header
}
