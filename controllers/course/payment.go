package controllers

import (
	"fmt"

	"coursehub/middleware"
	validators "coursehub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// PaymentSuccess is where the processor sends the learner after checkout.
// The query string is only a hint; Reconcile re-verifies with the processor.
func (h *Handler) PaymentSuccess(c *fiber.Ctx) error {
	req := c.Locals(validators.LocalPayment).(*validators.PaymentCallbackRequest)

	res, err := h.Enrollment.Reconcile(c.UserContext(), req.SessionID, req.CourseID)
	if err != nil {
		return h.fail(c, "reconcile payment", err)
	}

	data := fiber.Map{
		"enrollment": res.Enrollment,
		"redirect":   fmt.Sprintf("/course/%d", req.CourseID),
	}
	if res.AlreadyCompleted {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "You are already enrolled in this course.", data)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment successful! You are now enrolled in the course.", data)
}

func (h *Handler) PaymentCancel(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	req := c.Locals(validators.LocalPayment).(*validators.PaymentCallbackRequest)

	if _, err := h.Enrollment.Cancel(c.UserContext(), userID, req.CourseID); err != nil {
		return h.fail(c, "cancel payment", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment was cancelled.", fiber.Map{
		"redirect": fmt.Sprintf("/course/%d", req.CourseID),
	})
}
