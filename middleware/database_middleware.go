package middleware

import (
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/quizai/quiz_ai/database"
)

const dbProbeKey = "dbProbe"

// dbProbe memoizes a single live availability check per request.
type dbProbe struct {
	once sync.Once
	ok   bool
}

// DatabaseStatus threads the database capability through the request: each
// request carries its own lazy, live probe instead of a process-wide flag.
func DatabaseStatus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(dbProbeKey, &dbProbe{})
		return c.Next()
	}
}

// DatabaseAvailable answers whether the store is reachable for this request.
// Handlers must consult it only after input validation.
func DatabaseAvailable(c *fiber.Ctx) bool {
	probe, ok := c.Locals(dbProbeKey).(*dbProbe)
	if !ok {
		return database.Available()
	}
	probe.once.Do(func() {
		probe.ok = database.Available()
	})
	return probe.ok
}
