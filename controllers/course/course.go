package controllers

import (
	"coursehub/middleware"
	"coursehub/services"
	validators "coursehub/validators/course"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) GetAllCourses(c *fiber.Ctx) error {
	filter := c.Locals(validators.LocalList).(services.CourseFilter)

	page, err := h.Catalog.ListCourses(c.UserContext(), filter)
	if err != nil {
		return h.fail(c, "list courses", err)
	}

	response := map[string]interface{}{
		"courses": page.Courses,
		"pagination": map[string]interface{}{
			"total": page.Total,
			"page":  page.Page,
			"limit": page.Limit,
		},
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", response)
}

func (h *Handler) GetCourseDetails(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	courseID := c.Locals(validators.LocalCourseID).(uint)

	detail, err := h.Catalog.CourseDetail(c.UserContext(), userID, courseID)
	if err != nil {
		return h.fail(c, "course detail", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", detail)
}

func (h *Handler) EnrollInCourse(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	courseID := c.Locals(validators.LocalCourseID).(uint)

	res, err := h.Enrollment.Enroll(c.UserContext(), userID, courseID)
	if err != nil {
		return h.fail(c, "enroll", err)
	}

	if res.CheckoutURL != "" {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Checkout started! Complete payment to access the course.", res)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled in course successfully!", res)
}

func (h *Handler) GetUserProgress(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	courseID := c.Locals(validators.LocalCourseID).(uint)

	progress, err := h.Progress.CourseProgress(c.UserContext(), userID, courseID)
	if err != nil {
		return h.fail(c, "course progress", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", progress)
}

func (h *Handler) UserDashboard(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	dash, err := h.Catalog.Dashboard(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, "dashboard", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard fetched successfully!", dash)
}

func (h *Handler) UserProfile(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	user, err := h.Users.Get(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, "user profile", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched successfully!", user)
}
