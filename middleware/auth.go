// middleware/auth.go
package middleware

import (
	"errors"
	"log"

	"alphabet-predictions/services"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth resolves the bearer token to an account and attaches it to the
// request. Requests without a valid token stop here with 401.
func RequireAuth(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			var apiErr *services.APIError
			if errors.As(err, &apiErr) {
				log.Printf("❌ [AUTH] %s on %s %s", apiErr.Message, c.Method(), c.Path())
			}
			return err
		}
		services.SetCurrentUser(c, user)
		return c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := services.CurrentUser(c)
		if !ok {
			return services.ErrTokenMissing
		}
		if !user.IsAdmin {
			log.Printf("❌ [AUTH] User %d denied admin route %s", user.ID, c.Path())
			return services.ErrAdminRequired
		}
		return c.Next()
	}
}
