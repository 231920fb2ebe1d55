package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
)

type Handlers struct {
	Auth          *AuthHandler
	Announcements *AnnouncementHandler
	Registrations *RegistrationHandler
	Products      *ProductHandler
	Orders        *OrderHandler
	Audit         *AuditHandler
	WebSocket     *WebSocketHandler
}

func Mount(app *fiber.App, h Handlers, jwtSecret string) {
	api := app.Group("/api")

	// public
	api.Post("/auth/register", h.Auth.Register)
	api.Post("/auth/login", h.Auth.Login)
	api.Post("/auth/logout", h.Auth.Logout)

	auth := []fiber.Handler{
		middleware.JWTFromCookie(jwtSecret),
		middleware.AttachJWTLocals(),
	}
	protected := api.Group("/", auth...)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	protected.Get("/me", h.Auth.Me)

	protected.Get("/announcements", h.Announcements.List)
	protected.Get("/announcements/:id", h.Announcements.Get)
	protected.Get("/announcements/:id/capacity", h.Announcements.Capacity)
	protected.Post("/announcements/:id/check-selection", h.Announcements.CheckSelection)
	protected.Get("/announcements/:id/participants", h.Announcements.Participants)

	protected.Get("/registrations/mine", h.Registrations.Mine)
	protected.Post("/registrations", h.Registrations.Submit)
	protected.Put("/registrations/:id", h.Registrations.Update)
	protected.Delete("/registrations/:id", h.Registrations.Delete)

	protected.Get("/products", h.Products.List)
	protected.Get("/products/selectable", h.Products.Selectable)
	protected.Post("/products", h.Products.Create)
	protected.Put("/products/:id", h.Products.Update)
	protected.Delete("/products/:id", h.Products.Delete)

	admin := protected.Group("/admin", adminOnly)
	admin.Post("/announcements", h.Announcements.Create)
	admin.Put("/announcements/:id", h.Announcements.Update)
	admin.Post("/announcements/:id/close", h.Announcements.Close)
	admin.Delete("/announcements/:id", h.Announcements.Delete)
	admin.Get("/announcements/:id/registrations", h.Registrations.ListForAnnouncement)
	admin.Patch("/registrations/:id/status", h.Registrations.Review)
	if h.Orders != nil {
		admin.Get("/orders", h.Orders.List)
		admin.Put("/orders/:id", h.Orders.Update)
		admin.Delete("/orders/:id", h.Orders.Delete)
		admin.Get("/weeks/:week/products", h.Orders.Products)
		admin.Get("/weeks/:week/orders", h.Orders.List)
		admin.Post("/weeks/:week/orders", h.Orders.Create)
		admin.Get("/weeks/:week/orders/missing", h.Orders.Missing)
		admin.Post("/weeks/:week/orders/restore", h.Orders.Restore)
		admin.Get("/invoices/customers", h.Orders.CustomerInvoices)
		admin.Get("/invoices/suppliers", h.Orders.SupplierInvoices)
	}
	admin.Get("/logs", h.Audit.List)
	admin.Get("/users", h.Auth.ListUsers)
	admin.Patch("/users/:name/role", h.Auth.SetRole)

	if h.WebSocket != nil {
		ws := append([]fiber.Handler{h.WebSocket.Upgrade}, auth...)
		ws = append(ws, h.WebSocket.Serve())
		app.Get("/ws/bazaar", ws...)
	}
}
