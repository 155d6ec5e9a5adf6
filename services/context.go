package services

import (
	"alphabet-predictions/models"

	"github.com/gofiber/fiber/v2"
)

const currentUserKey = "current_user"

func SetCurrentUser(c *fiber.Ctx, user models.PublicUser) {
	c.Locals(currentUserKey, user)
}

// CurrentUser returns the account attached by the auth middleware.
func CurrentUser(c *fiber.Ctx) (models.PublicUser, bool) {
	user, ok := c.Locals(currentUserKey).(models.PublicUser)
	return user, ok
}

func requireCurrentUser(c *fiber.Ctx) (models.PublicUser, error) {
	user, ok := CurrentUser(c)
	if !ok {
		return models.PublicUser{}, ErrTokenMissing
	}
	return user, nil
}
