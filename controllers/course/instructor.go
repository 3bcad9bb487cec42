package controllers

import (
	"mime/multipart"

	"coursehub/middleware"
	"coursehub/services"
	"coursehub/utils"
	validators "coursehub/validators/course"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) InstructorDashboard(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	dash, err := h.Instructor.Dashboard(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, "instructor dashboard", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard fetched successfully!", dash)
}

func (h *Handler) CreateCourse(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	reqData := c.Locals(validators.LocalCourse).(*services.CourseInput)

	course, err := h.Instructor.CreateCourse(c.UserContext(), userID, *reqData)
	if err != nil {
		return h.fail(c, "create course", err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", course)
}

func (h *Handler) PublishCourse(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	courseID := c.Locals(validators.LocalCourseID).(uint)
	published := c.Locals(validators.LocalPublish).(bool)

	course, err := h.Instructor.SetPublished(c.UserContext(), userID, courseID, published)
	if err != nil {
		return h.fail(c, "publish course", err)
	}

	message := "Course unpublished successfully!"
	if published {
		message = "Course published successfully!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, course)
}

func (h *Handler) CreateLesson(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	courseID := c.Locals(validators.LocalCourseID).(uint)
	reqData := c.Locals(validators.LocalLesson).(*services.LessonInput)

	lesson, err := h.Instructor.AddLesson(c.UserContext(), userID, courseID, *reqData)
	if err != nil {
		return h.fail(c, "create lesson", err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lesson created successfully!", lesson)
}

func (h *Handler) CreateQuiz(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	courseID := c.Locals(validators.LocalCourseID).(uint)
	reqData := c.Locals(validators.LocalQuiz).(*services.QuizInput)

	quiz, err := h.Instructor.AddQuiz(c.UserContext(), userID, courseID, *reqData)
	if err != nil {
		return h.fail(c, "create quiz", err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Quiz created successfully!", quiz)
}

func (h *Handler) CreateQuestion(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	quizID := c.Locals(validators.LocalQuizID).(uint)
	reqData := c.Locals(validators.LocalQuestion).(*services.QuestionInput)

	question, err := h.Instructor.AddQuestion(c.UserContext(), userID, quizID, *reqData)
	if err != nil {
		return h.fail(c, "create question", err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Question created successfully!", question)
}

func (h *Handler) UploadMedia(c *fiber.Ctx) error {
	file := c.Locals(validators.LocalUpload).(*multipart.FileHeader)

	filename, err := utils.SaveUploadedFile(file, h.UploadDir)
	if err != nil {
		return h.fail(c, "upload media", err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "File uploaded successfully!", fiber.Map{
		"filename": filename,
		"url":      utils.GetFileURL(filename),
	})
}
