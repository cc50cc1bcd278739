package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskhive/models"
	"taskhive/utils"
)

type RegisterRequest struct {
	Email             string `json:"email" validate:"required,email"`
	Password          string `json:"password" validate:"required,min=5"`
	ConfirmedPassword string `json:"confirmed_password" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=5"`
}

type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Message string       `json:"message"`
	UserID  uint         `json:"user_id"`
	Token   string       `json:"token,omitempty"`
	User    *models.User `json:"user,omitempty"`
}

type AuthController struct {
	db     *gorm.DB
	tokens *utils.TokenManager
	log    *logrus.Logger
}

func NewAuthController(db *gorm.DB, tokens *utils.TokenManager, log *logrus.Logger) *AuthController {
	return &AuthController{db: db, tokens: tokens, log: log}
}

func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, models.InvalidInput("Invalid request body"))
	}

	if err := utils.ValidateStruct(req); err != nil {
		return utils.RespondError(c, models.InvalidInput(err.Error()))
	}
	if err := utils.CheckEmailAddress(req.Email); err != nil {
		return utils.RespondError(c, models.InvalidInput("Please enter a valid email"))
	}

	var existing models.User
	if err := ac.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return utils.RespondError(c, models.Conflict("User with this email already exists"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.RespondError(c, err)
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: string(hashed),
	}
	if err := ac.db.Create(&user).Error; err != nil {
		// A concurrent registration can slip past the pre-check and land
		// on the unique email index instead.
		if isUniqueViolation(err) {
			return utils.RespondError(c, models.Conflict("User with this email already exists"))
		}
		return utils.RespondError(c, err)
	}

	ac.log.WithField("user_id", user.ID).Info("registered new user")

	return c.Status(fiber.StatusCreated).JSON(AuthResponse{
		Message: "Created new user",
		UserID:  user.ID,
		User:    &user,
	})
}

func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, models.InvalidInput("Invalid request body"))
	}

	if err := utils.ValidateStruct(req); err != nil {
		return utils.RespondError(c, models.InvalidInput(err.Error()))
	}

	var user models.User
	if err := ac.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.RespondError(c, models.NotFound("User with this email does not exist"))
		}
		return utils.RespondError(c, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return utils.RespondError(c, models.Unauthenticated("Incorrect password"))
	}

	token, err := ac.tokens.Generate(&user)
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(AuthResponse{
		Message: "Logged in successfully",
		UserID:  user.ID,
		Token:   token,
	})
}

// DeleteAccount removes the requester's account after re-verifying their
// password.
func (ac *AuthController) DeleteAccount(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req DeleteAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, models.InvalidInput("Invalid request body"))
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.RespondError(c, models.InvalidInput(err.Error()))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return utils.RespondError(c, models.Unauthenticated("Incorrect password"))
	}

	if err := ac.db.Delete(&models.User{}, user.ID).Error; err != nil {
		return utils.RespondError(c, err)
	}

	ac.log.WithField("user_id", user.ID).Info("deleted user account")

	return c.JSON(fiber.Map{
		"message": "Deleted user successfully",
		"user_id": user.ID,
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (ac *AuthController) GetCurrentUser(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	return c.JSON(fiber.Map{"user": user})
}
