package controllers

import (
	"coursehub/middleware"
	validators "coursehub/validators/course"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) GetLesson(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	lessonID := c.Locals(validators.LocalLessonID).(uint)

	lesson, err := h.Catalog.LessonContent(c.UserContext(), userID, lessonID)
	if err != nil {
		return h.fail(c, "lesson content", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson fetched successfully!", lesson)
}

func (h *Handler) MarkLessonComplete(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	lessonID := c.Locals(validators.LocalLessonID).(uint)
	watchSeconds := c.Locals(validators.LocalCompletion).(int)

	res, err := h.Progress.MarkLessonComplete(c.UserContext(), userID, lessonID, watchSeconds)
	if err != nil {
		return h.fail(c, "mark lesson complete", err)
	}

	message := "Lesson marked as complete!"
	if res.CourseCompleted {
		message = "Lesson marked as complete! You have finished the course."
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, res)
}

func (h *Handler) TakeQuiz(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	quizID := c.Locals(validators.LocalQuizID).(uint)

	quiz, err := h.Quiz.TakeQuiz(c.UserContext(), userID, quizID)
	if err != nil {
		return h.fail(c, "take quiz", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz fetched successfully!", quiz)
}

func (h *Handler) SubmitQuiz(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	quizID := c.Locals(validators.LocalQuizID).(uint)
	answers := c.Locals(validators.LocalAnswers).(map[string]string)

	attempt, err := h.Quiz.SubmitQuiz(c.UserContext(), userID, quizID, answers)
	if err != nil {
		return h.fail(c, "submit quiz", err)
	}

	message := "Quiz submitted. You did not reach the passing score this time."
	if attempt.Passed {
		message = "Quiz submitted. Congratulations, you passed!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, attempt)
}

func (h *Handler) QuizAttempts(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	quizID := c.Locals(validators.LocalQuizID).(uint)

	attempts, err := h.Quiz.Attempts(c.UserContext(), userID, quizID)
	if err != nil {
		return h.fail(c, "quiz attempts", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempts fetched successfully!", attempts)
}
