package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"outreach/utils"
)

// Protected only lets operator tokens through.
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization required",
			})
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization format",
			})
		}

		claims, err := utils.ParseJWTToken(tokenParts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		if claims.Role != utils.RoleOperator {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Operator role required",
			})
		}

		c.Locals("operator", claims.Subject)
		return c.Next()
	}
}
