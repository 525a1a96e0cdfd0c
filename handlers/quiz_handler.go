package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/quizai/quiz_ai/ai"
	"github.com/quizai/quiz_ai/database"
	"github.com/quizai/quiz_ai/jobs"
	"github.com/quizai/quiz_ai/models"
	"github.com/quizai/quiz_ai/services"
)

const (
	minTextLength       = 100
	defaultNumQuestions = 5
	maxNumQuestions     = 20
	generationTimeout   = 2 * time.Minute
)

// Overridable so tests can substitute the provider.
var generateQuestions = ai.GenerateQuizQuestions

// GenerateQuestions accepts an uploaded document and form parameters,
// registers a pending job, runs the generation synchronously and answers
// with the job identifier.
func GenerateQuestions(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "File is required"})
	}

	userIDRaw := strings.TrimSpace(c.FormValue("userId"))
	if userIDRaw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID is required"})
	}
	userID, err := strconv.Atoi(userIDRaw)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID must be an integer"})
	}

	title := strings.TrimSpace(c.FormValue("quizTitle"))
	if title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Quiz title is required"})
	}

	numQuestions := defaultNumQuestions
	if raw := c.FormValue("numQuestions"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			numQuestions = n
		}
	}
	if numQuestions < 1 {
		numQuestions = 1
	}
	if numQuestions > maxNumQuestions {
		numQuestions = maxNumQuestions
	}

	mode := c.FormValue("mode")
	if mode == "" {
		mode = "practice"
	}

	var duration *int
	if mode == "exam" {
		n, err := strconv.Atoi(c.FormValue("duration"))
		if err != nil || n <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Duration is required for exam mode"})
		}
		duration = &n
	}

	job := jobs.Default.Create(numQuestions, mode, duration)

	uploadPath := filepath.Join(os.TempDir(), job.ID+"_"+filepath.Base(file.Filename))
	if err := c.SaveFile(file, uploadPath); err != nil {
		log.Printf("Failed to store upload for %s: %v", job.ID, err)
		jobs.Default.Fail(job.ID, "Unexpected failure while storing the uploaded file")
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"jobId": job.ID})
	}

	// No background worker: the job reaches a terminal state before the
	// response is written.
	processJob(job.ID, uploadPath, userID, title, numQuestions, mode, duration)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"jobId": job.ID})
}

func processJob(jobID, uploadPath string, userID int, title string, numQuestions int, mode string, duration *int) {
	defer os.Remove(uploadPath)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic while processing %s: %v", jobID, r)
			jobs.Default.Fail(jobID, "Unexpected failure during quiz generation")
		}
	}()

	text, err := services.ExtractText(uploadPath)
	if err != nil {
		log.Printf("Extraction failed for %s: %v", jobID, err)
		if errors.Is(err, services.ErrUnsupportedFile) {
			jobs.Default.Fail(jobID, "Unexpected failure: unsupported file type")
		} else {
			jobs.Default.Fail(jobID, "Unexpected failure while reading the uploaded file")
		}
		return
	}

	text = strings.TrimSpace(text)
	// Characters, not bytes: a short CJK document must not pass on byte
	// length alone.
	if utf8.RuneCountInString(text) < minTextLength && numQuestions > 1 {
		jobs.Default.Fail(jobID, "Insufficient input text to generate multiple questions")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
	defer cancel()

	questions, err := generateQuestions(ctx, text, numQuestions, mode)
	if err != nil {
		log.Printf("Generation failed for %s: %v", jobID, err)
		if errors.Is(err, ai.ErrNoQuestions) {
			jobs.Default.Fail(jobID, "AI service produced no usable questions")
		} else {
			jobs.Default.Fail(jobID, "AI service returned an error")
		}
		return
	}
	if len(questions) == 0 {
		jobs.Default.Fail(jobID, "AI service produced no usable questions")
		return
	}
	if len(questions) < numQuestions {
		log.Printf("Job %s: requested %d questions, got %d", jobID, numQuestions, len(questions))
		jobs.Default.Warn(jobID, fmt.Sprintf("Generated %d of %d requested questions", len(questions), numQuestions))
	}

	session := models.QuizSession{
		ID:        jobID,
		Questions: questions,
		Mode:      mode,
		Duration:  duration,
		StartTime: time.Now().UTC().Format(time.RFC3339),
	}
	jobs.Default.Complete(jobID, session)

	// Persistence is best effort; a save failure downgrades to a warning.
	quizID, err := database.SaveQuiz(userID, title, session, mode, duration)
	if err != nil {
		log.Printf("Could not persist quiz for %s: %v", jobID, err)
		jobs.Default.Warn(jobID, "Quiz generated but could not be saved")
		return
	}
	jobs.Default.AttachQuiz(jobID, quizID)
}

// JobStatus reports where a generation job ended up.
func JobStatus(c *fiber.Ctx) error {
	job, ok := jobs.Default.Get(c.Params("jobId"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Job not found"})
	}

	resp := fiber.Map{"status": job.Status}
	switch job.Status {
	case jobs.StatusCompleted:
		resp["session"] = job.Session
		if job.QuizID != nil {
			resp["quizId"] = *job.QuizID
		}
		if len(job.Warnings) > 0 {
			resp["warning"] = strings.Join(job.Warnings, "; ")
		}
	case jobs.StatusFailed:
		resp["error"] = job.Err
	}
	return c.JSON(resp)
}

type quizResponse struct {
	QuizID    int                `json:"quiz_id"`
	UserID    int                `json:"user_id"`
	Title     string             `json:"title"`
	QuizData  models.QuizSession `json:"quiz_data"`
	Mode      string             `json:"mode"`
	Duration  *int               `json:"duration"`
	CreatedAt time.Time          `json:"created_at"`
}

func toQuizResponse(quiz models.Quiz) quizResponse {
	resp := quizResponse{
		QuizID:    quiz.QuizID,
		UserID:    quiz.UserID,
		Title:     quiz.Title,
		Mode:      quiz.Mode,
		Duration:  quiz.Duration,
		CreatedAt: quiz.CreatedAt,
	}
	if err := json.Unmarshal(quiz.QuizData, &resp.QuizData); err != nil {
		log.Printf("Quiz %d has unreadable quiz_data: %v", quiz.QuizID, err)
	}
	return resp
}

// GetUserQuizzes lists the stored quizzes of one user.
func GetUserQuizzes(c *fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID must be an integer"})
	}

	quizzes, err := database.QuizzesByUser(userID)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No quizzes found for this user"})
		case errors.Is(err, database.ErrUnavailable):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Database unavailable, please try again later"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch quizzes"})
		}
	}

	resp := make([]quizResponse, 0, len(quizzes))
	for _, quiz := range quizzes {
		resp = append(resp, toQuizResponse(quiz))
	}
	return c.JSON(resp)
}

// GetQuiz fetches a single stored quiz by identifier.
func GetQuiz(c *fiber.Ctx) error {
	quizID, err := strconv.Atoi(c.Params("quizId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Quiz ID must be an integer"})
	}

	quiz, err := database.QuizByID(quizID)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quiz not found"})
		case errors.Is(err, database.ErrUnavailable):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Database unavailable, please try again later"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch quiz"})
		}
	}

	return c.JSON(toQuizResponse(*quiz))
}
