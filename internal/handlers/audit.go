package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
)

type AuditHandler struct {
	Logs interface {
		ListAudit(ctx context.Context, limit int) ([]models.AuditLog, error)
	}
}

func (h *AuditHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 200)
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	logs, err := h.Logs.ListAudit(c.UserContext(), limit)
	if err != nil {
		return serverError(c, err)
	}
	return ok(c, fiber.StatusOK, "", logs)
}
