package jobs

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/quizai/quiz_ai/models"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Job tracks one quiz-generation attempt from upload to completion or
// failure. pending is the only non-terminal state.
type Job struct {
	ID           string
	Status       string
	NumQuestions int
	Mode         string
	Duration     *int
	Session      *models.QuizSession
	QuizID       *int
	Warnings     []string
	Err          string
}

// Store tracks generation jobs. The in-memory implementation lives for the
// process only; a durable backing store only needs to satisfy this interface.
type Store interface {
	Create(numQuestions int, mode string, duration *int) *Job
	Complete(id string, session models.QuizSession) bool
	Fail(id, reason string) bool
	Warn(id, warning string)
	AttachQuiz(id string, quizID int)
	Get(id string) (Job, bool)
}

// Default is the process-wide store. Records are kept until the process
// exits; there is deliberately no eviction.
var Default Store = NewMemoryStore()

type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

func (s *MemoryStore) Create(numQuestions int, mode string, duration *int) *Job {
	job := &Job{
		ID:           newJobID(),
		Status:       StatusPending,
		NumQuestions: numQuestions,
		Mode:         mode,
		Duration:     duration,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job
}

// Complete moves a pending job to completed. Terminal states are final, so
// a second transition reports false and changes nothing.
func (s *MemoryStore) Complete(id string, session models.QuizSession) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status != StatusPending {
		return false
	}
	job.Status = StatusCompleted
	job.Session = &session
	return true
}

// Fail moves a pending job to failed with a human-readable reason.
func (s *MemoryStore) Fail(id, reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status != StatusPending {
		return false
	}
	job.Status = StatusFailed
	job.Err = reason
	return true
}

// Warn attaches a non-fatal note, e.g. when persistence was skipped. A job
// can accumulate several notes; none replaces another.
func (s *MemoryStore) Warn(id, warning string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.jobs[id]; ok {
		job.Warnings = append(job.Warnings, warning)
	}
}

// AttachQuiz records the persisted quiz identifier on a completed job.
func (s *MemoryStore) AttachQuiz(id string, quizID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.jobs[id]; ok {
		job.QuizID = &quizID
	}
}

// Get returns a copy of the job so callers never touch shared state.
func (s *MemoryStore) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	out := *job
	out.Warnings = append([]string(nil), job.Warnings...)
	return out, true
}

func newJobID() string {
	return "job_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}
