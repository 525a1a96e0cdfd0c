package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/robfig/cron/v3"

	config "github.com/quizai/quiz_ai/configs"
	"github.com/quizai/quiz_ai/database"
	"github.com/quizai/quiz_ai/jobs"
	"github.com/quizai/quiz_ai/middleware"
	"github.com/quizai/quiz_ai/routes"
)

func main() {
	// A database failure here is not fatal: the API keeps serving in
	// degraded mode and a cron job keeps retrying setup.
	if err := database.Connect(); err != nil {
		log.Printf("Starting without database: %v", err)
	} else if err := database.EnsureSchema(); err != nil {
		log.Printf("Schema setup failed: %v", err)
	}

	c := cron.New()
	if _, err := c.AddFunc("@every 1m", jobs.RetryDatabaseSetup); err != nil {
		log.Printf("Database retry job not scheduled: %v", err)
	}
	c.Start()

	app := fiber.New(fiber.Config{
		AppName:      "Quiz AI",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal server error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"error": message,
			})
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(middleware.DatabaseStatus())

	routes.PublicRoutes(app)
	routes.AuthRoutes(app)
	routes.QuizRoutes(app)

	port := config.Config("APP_PORT")
	if port == "" {
		port = "8000"
	}

	log.Printf("Server is running on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
