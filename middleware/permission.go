package middleware

import (
	"errors"

	"coursehub/apperr"
	"coursehub/services"

	"github.com/gofiber/fiber/v2"
)

// InstructorOnly rejects users that have not created a course yet.
func InstructorOnly(users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := UserID(c)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized: User ID not found", nil)
		}

		user, err := users.Get(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
			}
			return JsonResponse(c, fiber.StatusInternalServerError, false, "Server error while checking permissions!", nil)
		}
		if !user.IsInstructor {
			return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
		}

		return c.Next()
	}
}
