package controllers

import (
	"coursehub/apperr"
	"coursehub/logger"
	"coursehub/middleware"
	"coursehub/services"

	"github.com/gofiber/fiber/v2"
)

// Handler serves the course API. Request parsing and validation happen in
// validators/course before a handler runs.
type Handler struct {
	Enrollment *services.EnrollmentService
	Progress   *services.ProgressService
	Quiz       *services.QuizService
	Catalog    *services.CatalogService
	Instructor *services.InstructorService
	Users      *services.UserService
	UploadDir  string
	Log        *logger.Logger
}

func (h *Handler) fail(c *fiber.Ctx, op string, err error) error {
	userID, _ := middleware.UserID(c)
	switch e := apperr.As(err); {
	case e == nil:
		h.Log.Error(op+" failed", "path", c.Path(), "user_id", userID, "error", err)
	case e.Kind == apperr.KindPaymentVerificationFailed, e.Kind == apperr.KindReconciliationMiss:
		h.Log.Warn(op+" rejected", "path", c.Path(), "user_id", userID, "kind", e.Kind, "error", err)
	default:
		h.Log.Debug(op+" rejected", "path", c.Path(), "user_id", userID, "kind", e.Kind, "error", err)
	}
	return middleware.ErrorResponse(c, err)
}

func unauthorized(c *fiber.Ctx) error {
	return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
}
