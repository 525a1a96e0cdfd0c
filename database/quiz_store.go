package database

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/quizai/quiz_ai/models"
)

// SaveQuiz persists a generated session for a user and returns the new quiz
// identifier.
func SaveQuiz(userID int, title string, session models.QuizSession, mode string, duration *int) (int, error) {
	conn := handle()
	if conn == nil {
		return 0, ErrUnavailable
	}

	data, err := json.Marshal(session)
	if err != nil {
		return 0, fmt.Errorf("marshal quiz data: %w", err)
	}

	ctx, cancel := opContext()
	defer cancel()

	quiz := models.Quiz{
		UserID:   userID,
		Title:    title,
		QuizData: datatypes.JSON(data),
		Mode:     mode,
		Duration: duration,
	}
	if err := conn.WithContext(ctx).Create(&quiz).Error; err != nil {
		return 0, translate(err)
	}
	return quiz.QuizID, nil
}

// QuizzesByUser returns all quizzes owned by a user, ErrNotFound when there
// are none.
func QuizzesByUser(userID int) ([]models.Quiz, error) {
	conn := handle()
	if conn == nil {
		return nil, ErrUnavailable
	}

	ctx, cancel := opContext()
	defer cancel()

	var quizzes []models.Quiz
	if err := conn.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&quizzes).Error; err != nil {
		return nil, translate(err)
	}
	if len(quizzes) == 0 {
		return nil, ErrNotFound
	}
	return quizzes, nil
}

// QuizByID fetches a single quiz row.
func QuizByID(quizID int) (*models.Quiz, error) {
	conn := handle()
	if conn == nil {
		return nil, ErrUnavailable
	}

	ctx, cancel := opContext()
	defer cancel()

	var quiz models.Quiz
	if err := conn.WithContext(ctx).First(&quiz, "quiz_id = ?", quizID).Error; err != nil {
		return nil, translate(err)
	}
	return &quiz, nil
}
