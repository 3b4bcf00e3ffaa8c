package handlers

import (
	"context"
	"errors"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sol1corejz/loyaltydesk/internal/auth"
	"github.com/sol1corejz/loyaltydesk/internal/logger"
	"github.com/sol1corejz/loyaltydesk/internal/middleware"
	"github.com/sol1corejz/loyaltydesk/internal/storage"
	"github.com/sol1corejz/loyaltydesk/internal/tokenstorage"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"strings"
	"time"
)

const MinPasswordLength = 6

var (
	ErrPasswordTooShort = errors.New("New password must be at least 6 characters long")
	ErrPasswordMismatch = errors.New("New passwords do not match")
	ErrPasswordSame     = errors.New("New password must differ from the current one")
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    token,
		Expires:  time.Now().Add(auth.TokenExp),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	c.Set(fiber.HeaderAuthorization, "Bearer "+token)
}

func LoginHandler(c *fiber.Ctx) error {
	var request LoginRequest
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := c.BodyParser(&request); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(request.Email) == "" || request.Password == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Email and password are required")
	}

	staff, err := storage.GetStaffByEmail(ctx, request.Email)
	if errors.Is(err, storage.ErrNotFound) {
		return errorJSON(c, fiber.StatusUnauthorized, "Wrong email or password")
	}
	if err != nil {
		logger.Log.Error("Error while querying staff", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(request.Password)); err != nil {
		logger.Log.Info("Failed login attempt", zap.String("email", staff.Email))
		return errorJSON(c, fiber.StatusUnauthorized, "Wrong email or password")
	}

	token, err := auth.GenerateToken(staff.ID, staff.Email)
	if err != nil {
		logger.Log.Error("Error generating token", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}

	setSessionCookie(c, token)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Signed in successfully",
		"id":      staff.ID,
		"email":   staff.Email,
	})
}

// endSession revokes the caller's token and drops the session cookie.
func endSession(c *fiber.Ctx) {
	if claims := middleware.Claims(c); claims != nil && claims.ExpiresAt != nil {
		tokenstorage.RevokeToken(claims.ID, claims.ExpiresAt.Time)
	}

	c.ClearCookie("jwt")
}

func LogoutHandler(c *fiber.Ctx) error {
	endSession(c)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Signed out",
	})
}

func MeHandler(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	staff, err := storage.GetStaffByID(ctx, middleware.UserID(c))
	if errors.Is(err, storage.ErrNotFound) {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	if err != nil {
		logger.Log.Error("Error while querying staff", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id":         staff.ID,
		"email":      staff.Email,
		"created_at": staff.CreatedAt,
	})
}

// validatePasswordChange checks the new password before the current one is
// verified against the stored hash.
func validatePasswordChange(r ChangePasswordRequest) error {
	if len(r.NewPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if r.NewPassword != r.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if r.NewPassword == r.CurrentPassword {
		return ErrPasswordSame
	}
	return nil
}

func ChangePasswordHandler(c *fiber.Ctx) error {
	var request ChangePasswordRequest
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := c.BodyParser(&request); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validatePasswordChange(request); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	staffID := middleware.UserID(c)
	staff, err := storage.GetStaffByID(ctx, staffID)
	if errors.Is(err, storage.ErrNotFound) {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	if err != nil {
		logger.Log.Error("Error while querying staff", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(request.CurrentPassword)); err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Current password is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(request.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("Error hashing password", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}

	if err := storage.UpdateStaffPassword(ctx, staffID, string(hashedPassword)); err != nil {
		logger.Log.Error("Error updating password", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}

	endSession(c)

	logger.Log.Info("Password changed", zap.String("staffID", staffID.String()))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Password updated successfully, please sign in again",
	})
}

// BootstrapStaff creates the first staff account when it does not exist yet.
func BootstrapStaff(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	created, err := storage.CreateStaff(ctx, uuid.New(), email, string(hashedPassword))
	if err != nil {
		return err
	}
	if created {
		logger.Log.Info("Bootstrap staff account created", zap.String("email", email))
	}

	return nil
}
