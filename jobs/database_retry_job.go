package jobs

import (
	"log"

	"github.com/quizai/quiz_ai/database"
)

// RetryDatabaseSetup re-attempts connection and schema creation while the
// process runs in degraded mode. Setup is idempotent, so a managed database
// that comes up after boot is picked up on the next tick.
func RetryDatabaseSetup() {
	if database.Connected() {
		return
	}

	if err := database.Connect(); err != nil {
		log.Printf("Database still unavailable: %v", err)
		return
	}
	if err := database.EnsureSchema(); err != nil {
		log.Printf("Database connected but schema setup failed: %v", err)
		return
	}
	log.Println("Database recovered, persistence re-enabled")
}
