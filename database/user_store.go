package database

import (
	"github.com/quizai/quiz_ai/models"
)

// CreateUser inserts a new user row. A uniqueness violation on mail comes
// back as ErrDuplicateMail.
func CreateUser(mail, passwordHash string) (*models.User, error) {
	conn := handle()
	if conn == nil {
		return nil, ErrUnavailable
	}

	ctx, cancel := opContext()
	defer cancel()

	user := models.User{Mail: mail, Password: passwordHash}
	if err := conn.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UserByMail looks a user up by mail address.
func UserByMail(mail string) (*models.User, error) {
	conn := handle()
	if conn == nil {
		return nil, ErrUnavailable
	}

	ctx, cancel := opContext()
	defer cancel()

	var user models.User
	if err := conn.WithContext(ctx).Where("mail = ?", mail).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}
