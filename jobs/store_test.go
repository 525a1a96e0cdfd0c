package jobs

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/quizai/quiz_ai/models"
)

func TestCreateStartsPendingWithOpaqueID(t *testing.T) {
	store := NewMemoryStore()
	duration := 30

	job := store.Create(5, "exam", &duration)
	if job.Status != StatusPending {
		t.Fatalf("new job status = %q, want %q", job.Status, StatusPending)
	}
	if !strings.HasPrefix(job.ID, "job_") || len(job.ID) != len("job_")+32 {
		t.Fatalf("unexpected job id format: %q", job.ID)
	}
	if job.NumQuestions != 5 || job.Mode != "exam" || job.Duration == nil || *job.Duration != 30 {
		t.Fatalf("job parameters not recorded: %+v", job)
	}
}

func TestCompleteIsTerminal(t *testing.T) {
	store := NewMemoryStore()
	job := store.Create(3, "practice", nil)

	session := models.QuizSession{ID: job.ID, Mode: "practice"}
	if !store.Complete(job.ID, session) {
		t.Fatalf("first completion rejected")
	}
	if store.Fail(job.ID, "late failure") {
		t.Fatalf("completed job accepted a failure transition")
	}
	if store.Complete(job.ID, session) {
		t.Fatalf("completed job accepted a second completion")
	}

	got, ok := store.Get(job.ID)
	if !ok || got.Status != StatusCompleted || got.Err != "" {
		t.Fatalf("terminal state mutated: %+v", got)
	}
}

func TestFailIsTerminal(t *testing.T) {
	store := NewMemoryStore()
	job := store.Create(3, "practice", nil)

	if !store.Fail(job.ID, "AI service returned an error") {
		t.Fatalf("failure transition rejected")
	}
	if store.Complete(job.ID, models.QuizSession{}) {
		t.Fatalf("failed job accepted a completion")
	}

	got, _ := store.Get(job.ID)
	if got.Status != StatusFailed || got.Err != "AI service returned an error" {
		t.Fatalf("failure not recorded: %+v", got)
	}
}

func TestWarnAndAttachQuizKeepStatus(t *testing.T) {
	store := NewMemoryStore()
	job := store.Create(3, "practice", nil)
	store.Complete(job.ID, models.QuizSession{ID: job.ID})

	store.Warn(job.ID, "Generated 2 of 3 requested questions")
	store.AttachQuiz(job.ID, 42)

	got, _ := store.Get(job.ID)
	if got.Status != StatusCompleted {
		t.Fatalf("status changed by warn/attach: %q", got.Status)
	}
	if len(got.Warnings) == 0 || got.QuizID == nil || *got.QuizID != 42 {
		t.Fatalf("warning or quiz id not recorded: %+v", got)
	}
}

func TestWarnAccumulates(t *testing.T) {
	store := NewMemoryStore()
	job := store.Create(3, "practice", nil)
	store.Complete(job.ID, models.QuizSession{ID: job.ID})

	store.Warn(job.ID, "Generated 2 of 3 requested questions")
	store.Warn(job.ID, "Quiz generated but could not be saved")

	got, _ := store.Get(job.ID)
	if len(got.Warnings) != 2 {
		t.Fatalf("warnings = %v, want both notes kept", got.Warnings)
	}
	if got.Warnings[0] != "Generated 2 of 3 requested questions" ||
		got.Warnings[1] != "Quiz generated but could not be saved" {
		t.Fatalf("warnings out of order or rewritten: %v", got.Warnings)
	}

	// The returned copy must not alias the stored slice.
	got.Warnings[0] = "mutated"
	again, _ := store.Get(job.ID)
	if again.Warnings[0] != "Generated 2 of 3 requested questions" {
		t.Fatalf("Get leaked the warnings slice")
	}
}

func TestGetUnknownJob(t *testing.T) {
	store := NewMemoryStore()
	if _, ok := store.Get("doesnotexist"); ok {
		t.Fatalf("unknown id must not resolve")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	job := store.Create(3, "practice", nil)

	got, _ := store.Get(job.ID)
	got.Status = StatusFailed

	again, _ := store.Get(job.ID)
	if again.Status != StatusPending {
		t.Fatalf("Get leaked shared state")
	}
}

func TestConcurrentCreateAndGet(t *testing.T) {
	store := NewMemoryStore()
	var wg sync.WaitGroup

	ids := make([]string, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			job := store.Create(1, "practice", nil)
			ids[i] = job.ID
			store.Fail(job.ID, fmt.Sprintf("reason %d", i))
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate job id %q", id)
		}
		seen[id] = true
		if got, ok := store.Get(id); !ok || got.Status != StatusFailed {
			t.Fatalf("job %q lost or not failed: %+v", id, got)
		}
	}
}
