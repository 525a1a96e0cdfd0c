package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quizai/quiz_ai/handlers"
)

func AuthRoutes(app *fiber.App) {
	api := app.Group("/api")

	api.Post("/register", handlers.Register)
	api.Post("/login", handlers.Login)
}
