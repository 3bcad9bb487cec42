package courseValidator

import (
	"strings"

	"coursehub/middleware"
	"coursehub/services"
	"coursehub/utils"

	"github.com/gofiber/fiber/v2"
)

// Locals keys written by the validators and read by the controllers.
const (
	LocalCourseID   = "courseID"
	LocalLessonID   = "lessonID"
	LocalQuizID     = "quizID"
	LocalList       = "validatedList"
	LocalCourse     = "validatedCourse"
	LocalPublish    = "validatedPublish"
	LocalLesson     = "validatedLesson"
	LocalQuiz       = "validatedQuiz"
	LocalQuestion   = "validatedQuestion"
	LocalCompletion = "validatedCompletion"
	LocalAnswers    = "validatedAnswers"
	LocalPayment    = "validatedPayment"
	LocalUpload     = "validatedUpload"
)

type CourseListRequest struct {
	Search     string `query:"search" validate:"max=200"`
	Difficulty string `query:"difficulty" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Page       int    `query:"page" validate:"gte=0"`
	Limit      int    `query:"limit" validate:"gte=0,lte=100"`
}

type PublishRequest struct {
	Published *bool `json:"published" validate:"required"`
}

type CompletionRequest struct {
	WatchTimeSeconds int `json:"watch_time_seconds" validate:"gte=0"`
}

type SubmitQuizRequest struct {
	Answers map[string]string `json:"answers" validate:"required"`
}

type PaymentCallbackRequest struct {
	SessionID string `query:"session_id"`
	CourseID  uint   `query:"course_id" validate:"required,gt=0"`
}

func CourseList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CourseListRequest)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		reqData.Search = strings.TrimSpace(reqData.Search)
		if stop, err := check(c, reqData); stop {
			return err
		}

		c.Locals(LocalList, services.CourseFilter{
			Search:     reqData.Search,
			Difficulty: reqData.Difficulty,
			Page:       reqData.Page,
			Limit:      reqData.Limit,
		})
		return c.Next()
	}
}

func CreateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(services.CourseInput)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Title = strings.TrimSpace(reqData.Title)
		if stop, err := check(c, reqData); stop {
			return err
		}

		c.Locals(LocalCourse, reqData)
		return c.Next()
	}
}

func PublishCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(PublishRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if stop, err := check(c, reqData); stop {
			return err
		}

		c.Locals(LocalPublish, *reqData.Published)
		return c.Next()
	}
}

func CreateLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(services.LessonInput)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Title = strings.TrimSpace(reqData.Title)
		if stop, err := check(c, reqData); stop {
			return err
		}

		c.Locals(LocalLesson, reqData)
		return c.Next()
	}
}

func CreateQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(services.QuizInput)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Title = strings.TrimSpace(reqData.Title)
		if stop, err := check(c, reqData); stop {
			return err
		}

		c.Locals(LocalQuiz, reqData)
		return c.Next()
	}
}

func CreateQuestion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(services.QuestionInput)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if stop, err := check(c, reqData); stop {
			return err
		}

		c.Locals(LocalQuestion, reqData)
		return c.Next()
	}
}

// CompleteLesson accepts an empty body; watch time is optional.
func CompleteLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CompletionRequest)
		if len(c.Body()) > 0 {
			if err := c.BodyParser(reqData); err != nil {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
			}
		}
		if stop, err := check(c, reqData); stop {
			return err
		}

		c.Locals(LocalCompletion, reqData.WatchTimeSeconds)
		return c.Next()
	}
}

func SubmitQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SubmitQuizRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if stop, err := check(c, reqData); stop {
			return err
		}

		c.Locals(LocalAnswers, reqData.Answers)
		return c.Next()
	}
}

// PaymentCallback validates the query string of the checkout success and
// cancel redirects. session_id is only required on success.
func PaymentCallback(requireSession bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(PaymentCallbackRequest)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		reqData.SessionID = strings.TrimSpace(reqData.SessionID)
		if stop, err := check(c, reqData); stop {
			return err
		}
		if requireSession && reqData.SessionID == "" {
			return middleware.ValidationErrorResponse(c, map[string]string{"session_id": "session_id is a required field"})
		}

		c.Locals(LocalPayment, reqData)
		return c.Next()
	}
}

// Upload checks the multipart "file" field against the media allow-list.
func Upload() fiber.Handler {
	return func(c *fiber.Ctx) error {
		file, err := c.FormFile("file")
		if err != nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"file": "file is a required field"})
		}
		if !utils.AllowedFile(file.Filename) {
			return middleware.ValidationErrorResponse(c, map[string]string{"file": utils.ErrFileTypeNotAllowed.Error()})
		}

		c.Locals(LocalUpload, file)
		return c.Next()
	}
}
