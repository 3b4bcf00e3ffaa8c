package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sol1corejz/loyaltydesk/internal/auth"
	"github.com/sol1corejz/loyaltydesk/internal/tokenstorage"
	"strings"
)

const (
	LocalUserID = "userID"
	LocalClaims = "claims"
)

// TokenFromRequest prefers the session cookie and falls back to a bearer header.
func TokenFromRequest(c *fiber.Ctx) string {
	if token := c.Cookies("jwt"); token != "" {
		return token
	}
	if header := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func AuthMiddleware(c *fiber.Ctx) error {
	tokenString := TokenFromRequest(c)
	if tokenString == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	claims, err := auth.ParseToken(tokenString)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	if tokenstorage.IsRevoked(claims.ID) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Token revoked",
		})
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	c.Locals(LocalUserID, userID)
	c.Locals(LocalClaims, claims)

	return c.Next()
}

func UserID(c *fiber.Ctx) uuid.UUID {
	if id, ok := c.Locals(LocalUserID).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

func Claims(c *fiber.Ctx) *auth.Claims {
	if claims, ok := c.Locals(LocalClaims).(*auth.Claims); ok {
		return claims
	}
	return nil
}
