package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quizai/quiz_ai/handlers"
)

func PublicRoutes(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/health", handlers.Health)
	api.Get("/db-status", handlers.DBStatus)
}
