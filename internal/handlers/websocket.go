package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/realtime"
)

type WebSocketHandler struct {
	Hub *realtime.Hub
}

// Upgrade rejects plain HTTP requests on the websocket route.
func (h *WebSocketHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Serve runs after the JWT middleware, so the caller is already known.
func (h *WebSocketHandler) Serve() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		name, _ := c.Locals("userName").(string)
		role, _ := c.Locals("role").(models.Role)
		h.Hub.Serve(c, name, role == models.RoleAdmin)
	})
}
