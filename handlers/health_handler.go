package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quizai/quiz_ai/database"
	"github.com/quizai/quiz_ai/middleware"
)

// Health always answers 200; the database field reflects a live probe, not a
// flag cached at startup.
func Health(c *fiber.Ctx) error {
	resp := fiber.Map{"status": "ok"}

	if middleware.DatabaseAvailable(c) {
		resp["database"] = "connected"
		resp["message"] = "All systems operational"
	} else {
		resp["database"] = "disconnected"
		resp["message"] = "API is running in degraded mode"
		resp["warning"] = "Database is unreachable; auth and quiz history are unavailable"
	}
	return c.JSON(resp)
}

// DBStatus reports current database reachability with connection details.
func DBStatus(c *fiber.Ctx) error {
	settings := database.Settings()

	if !middleware.DatabaseAvailable(c) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":  "disconnected",
			"message": "Database is not reachable",
			"warning": "Auth and quiz-history endpoints will return 503 until the database recovers",
		})
	}

	return c.JSON(fiber.Map{
		"status":  "connected",
		"host":    settings.Host,
		"port":    settings.Port,
		"message": "Database connection is healthy",
	})
}
