// services/errors.go
package services

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

// APIError is an error with a client-facing status and message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func validationError(msg string) *APIError {
	return &APIError{Status: fiber.StatusBadRequest, Message: msg}
}

var (
	ErrTokenMissing       = &APIError{Status: fiber.StatusUnauthorized, Message: "Access token required"}
	ErrTokenInvalid       = &APIError{Status: fiber.StatusUnauthorized, Message: "Invalid token"}
	ErrTokenExpired       = &APIError{Status: fiber.StatusUnauthorized, Message: "Token expired"}
	ErrInvalidCredentials = &APIError{Status: fiber.StatusUnauthorized, Message: "Invalid credentials"}
	ErrAdminRequired      = &APIError{Status: fiber.StatusForbidden, Message: "Admin access required"}
	ErrAccessDenied       = &APIError{Status: fiber.StatusForbidden, Message: "Access denied"}

	ErrDuplicateAccount = validationError("Username or email already exists")
	ErrDeadlinePassed   = validationError("Prediction deadline has passed")
	ErrMatchNotOpen     = validationError("Cannot predict on non-scheduled matches")

	ErrUserNotFound  = &APIError{Status: fiber.StatusNotFound, Message: "User not found"}
	ErrMatchNotFound = &APIError{Status: fiber.StatusNotFound, Message: "Match not found"}
	ErrRoundNotFound = &APIError{Status: fiber.StatusNotFound, Message: "Round not found"}
	ErrTeamNotFound  = &APIError{Status: fiber.StatusNotFound, Message: "Team not found"}

	ErrResultConflict     = &APIError{Status: fiber.StatusConflict, Message: "Match result already recorded"}
	ErrStorageUnavailable = &APIError{Status: fiber.StatusServiceUnavailable, Message: "Object storage is not configured"}
)

// ErrorHandler renders every error returned by a handler as {"error": msg}.
// Unknown errors are logged and reported as a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Status).JSON(fiber.Map{"error": apiErr.Message})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}

	log.Printf("❌ [API] %s %s (request %v): %v", c.Method(), c.Path(), c.Locals("requestid"), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}
