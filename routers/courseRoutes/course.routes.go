package courseRoutes

import (
	controllers "coursehub/controllers/course"
	validators "coursehub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up the learner-facing course routes. auth runs before
// every route in these groups.
func SetupCourseRoutes(app *fiber.App, h *controllers.Handler, auth []fiber.Handler) {
	courseID := validators.ParamID("id", validators.LocalCourseID)
	lessonID := validators.ParamID("id", validators.LocalLessonID)
	quizID := validators.ParamID("id", validators.LocalQuizID)

	courseGroup := app.Group("/course", auth...)
	courseGroup.Get("/list", validators.CourseList(), h.GetAllCourses)
	courseGroup.Get("/:id", courseID, h.GetCourseDetails)
	courseGroup.Post("/:id/enroll", courseID, h.EnrollInCourse)
	courseGroup.Get("/:id/progress", courseID, h.GetUserProgress)

	lessonGroup := app.Group("/lesson", auth...)
	lessonGroup.Get("/:id", lessonID, h.GetLesson)
	lessonGroup.Post("/:id/complete", lessonID, validators.CompleteLesson(), h.MarkLessonComplete)

	quizGroup := app.Group("/quiz", auth...)
	quizGroup.Get("/:id", quizID, h.TakeQuiz)
	quizGroup.Post("/:id/submit", quizID, validators.SubmitQuiz(), h.SubmitQuiz)
	quizGroup.Get("/:id/attempts", quizID, h.QuizAttempts)

	// Checkout redirects
	paymentGroup := app.Group("/payment", auth...)
	paymentGroup.Get("/success", validators.PaymentCallback(true), h.PaymentSuccess)
	paymentGroup.Get("/cancel", validators.PaymentCallback(false), h.PaymentCancel)

	userGroup := app.Group("/user", auth...)
	userGroup.Get("/dashboard", h.UserDashboard)
	userGroup.Get("/profile", h.UserProfile)
}

// SetupInstructorRoutes sets up course authoring. Creating a course is what
// makes a user an instructor, so only that route and the dashboard skip
// instructorOnly.
func SetupInstructorRoutes(app *fiber.App, h *controllers.Handler, auth []fiber.Handler, instructorOnly fiber.Handler) {
	courseID := validators.ParamID("id", validators.LocalCourseID)
	quizID := validators.ParamID("id", validators.LocalQuizID)

	instructorGroup := app.Group("/instructor", auth...)
	instructorGroup.Get("/dashboard", h.InstructorDashboard)
	instructorGroup.Post("/course", validators.CreateCourse(), h.CreateCourse)
	instructorGroup.Put("/course/:id/publish", instructorOnly, courseID, validators.PublishCourse(), h.PublishCourse)
	instructorGroup.Post("/course/:id/lesson", instructorOnly, courseID, validators.CreateLesson(), h.CreateLesson)
	instructorGroup.Post("/course/:id/quiz", instructorOnly, courseID, validators.CreateQuiz(), h.CreateQuiz)
	instructorGroup.Post("/quiz/:id/question", instructorOnly, quizID, validators.CreateQuestion(), h.CreateQuestion)
	instructorGroup.Post("/upload", instructorOnly, validators.Upload(), h.UploadMedia)
}
