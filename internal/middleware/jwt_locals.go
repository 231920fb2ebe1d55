package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/utils"
)

func claimsFrom(c *fiber.Ctx) (*utils.Claims, bool) {
	claims, ok := c.Locals("user").(*utils.Claims)
	return claims, ok && claims != nil
}

func AttachJWTLocals() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := claimsFrom(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		name := strings.TrimSpace(claims.Name)
		role := models.ParseRole(claims.Role)
		if name == "" {
			return fiber.ErrUnauthorized
		}

		c.Locals("userName", name)
		c.Locals("role", role)

		return c.Next()
	}
}

// ActorFrom returns the caller set by AttachJWTLocals.
func ActorFrom(c *fiber.Ctx) models.Actor {
	name, _ := c.Locals("userName").(string)
	role, _ := c.Locals("role").(models.Role)
	return models.Actor{Name: name, Role: role}
}
