package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quizai/quiz_ai/handlers"
)

func QuizRoutes(app *fiber.App) {
	api := app.Group("/api")

	api.Post("/generate-questions", handlers.GenerateQuestions)
	api.Get("/job-status/:jobId", handlers.JobStatus)

	// /quizzes/user must be registered ahead of the :quizId wildcard.
	api.Get("/quizzes/user/:userId", handlers.GetUserQuizzes)
	api.Get("/quizzes/:quizId", handlers.GetQuiz)
}
