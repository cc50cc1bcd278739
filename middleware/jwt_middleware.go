package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"taskhive/models"
	"taskhive/utils"
)

// Protected verifies the bearer token and attaches the authenticated user
// to the request context. Every failure mode collapses to the same 401 so
// callers cannot distinguish a missing header from a bad signature.
func Protected(tm *utils.TokenManager, db *gorm.DB) fiber.Handler {
	unauthenticated := func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Not authenticated",
		})
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthenticated(c)
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return unauthenticated(c)
		}

		claims, err := tm.Parse(tokenParts[1])
		if err != nil {
			return unauthenticated(c)
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			return unauthenticated(c)
		}

		c.Locals("user", &user)
		c.Locals("userID", user.ID)

		return c.Next()
	}
}
