package handlers

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	config "github.com/quizai/quiz_ai/configs"
	"github.com/quizai/quiz_ai/database"
	"github.com/quizai/quiz_ai/middleware"
)

var validate = validator.New()

type AuthRequest struct {
	Mail     string `json:"mail" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register creates a new user. Field validation runs before any database
// interaction, so malformed requests fail fast even when the store is down.
func Register(c *fiber.Ctx) error {
	var req AuthRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Mail and password are required"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Mail and password are required"})
	}

	if !middleware.DatabaseAvailable(c) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Database unavailable, please try again later"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	if _, err := database.CreateUser(req.Mail, string(hashed)); err != nil {
		switch {
		case errors.Is(err, database.ErrDuplicateMail):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Mail already registered"})
		case errors.Is(err, database.ErrUnavailable):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Database unavailable, please try again later"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to register user"})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "User registered successfully"})
}

// Login verifies credentials. Unknown mail and wrong password produce the
// same response on purpose.
func Login(c *fiber.Ctx) error {
	var req AuthRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Mail and password are required"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Mail and password are required"})
	}

	if !middleware.DatabaseAvailable(c) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Database unavailable, please try again later"})
	}

	user, err := database.UserByMail(req.Mail)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid mail or password"})
		case errors.Is(err, database.ErrUnavailable):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Database unavailable, please try again later"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to log in"})
		}
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid mail or password"})
	}

	claims := jwt.MapClaims{
		"user_id": user.UserID,
		"mail":    user.Mail,
		"exp":     time.Now().Add(72 * time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.Config("JWT_SECRET")))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create token"})
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user_id": user.UserID,
		"mail":    user.Mail,
		"token":   token,
	})
}
