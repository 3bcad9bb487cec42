package main

import (
	"log"
	"strings"

	"coursehub/config"
	controllers "coursehub/controllers/course"
	"coursehub/database"
	"coursehub/logger"
	"coursehub/mailer"
	"coursehub/middleware"
	"coursehub/payment"
	courseRoutes "coursehub/routers/courseRoutes"
	"coursehub/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.LoadConfig()

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer appLog.Sync()

	db, err := database.ConnectDb(cfg, appLog)
	if err != nil {
		appLog.Fatal("Failed to connect to the database", "error", err)
	}

	processor := payment.NewStripeClient(cfg.StripeApiURL, cfg.StripeSecretKey, cfg.PaymentRetries, appLog)
	mail := mailer.New(cfg.SendGridApiKey, cfg.EmailSenderName, cfg.EmailSender, appLog)

	users := services.NewUserService(db, appLog)
	handler := &controllers.Handler{
		Enrollment: services.NewEnrollmentService(db, processor, mail, services.CheckoutConfig{
			Currency:      cfg.Currency,
			PublicBaseURL: cfg.PublicBaseURL,
		}, appLog),
		Progress:   services.NewProgressService(db, appLog),
		Quiz:       services.NewQuizService(db, appLog),
		Catalog:    services.NewCatalogService(db, appLog),
		Instructor: services.NewInstructorService(db, appLog),
		Users:      users,
		UploadDir:  cfg.UploadDir,
		Log:        appLog.With("component", "http"),
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.FiberErrorHandler,
		BodyLimit:    500 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CorsOrigins,
		AllowMethods: strings.Join([]string{fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodDelete}, ","),
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(fiberLogger.New(fiberLogger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "OK", nil)
	})

	// Serve uploaded lesson media
	app.Static("/uploads", cfg.UploadDir)

	auth := []fiber.Handler{
		middleware.JWTMiddleware(cfg.JWTKey),
		middleware.SyncUser(users, appLog),
	}
	courseRoutes.SetupCourseRoutes(app, handler, auth)
	courseRoutes.SetupInstructorRoutes(app, handler, auth, middleware.InstructorOnly(users))

	appLog.Info("Server is running", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		appLog.Fatal("server stopped", "error", err)
	}
}
