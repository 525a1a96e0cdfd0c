package models

import (
	"time"

	"gorm.io/datatypes"
)

type Quiz struct {
	QuizID    int            `gorm:"column:quiz_id;primaryKey;autoIncrement" json:"quiz_id"`
	UserID    int            `gorm:"column:user_id;not null;index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	QuizData  datatypes.JSON `gorm:"not null" json:"quiz_data"`
	Mode      string         `gorm:"size:50;not null" json:"mode"`
	Duration  *int           `json:"duration"`
	CreatedAt time.Time      `json:"created_at"`
}

func (Quiz) TableName() string {
	return "quizzes"
}
