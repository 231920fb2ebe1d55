package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/services/orders"
)

// OrderHandler serves the weekly order sheets and invoices. Every route
// is admin only.
type OrderHandler struct {
	Orders *orders.Service
}

func orderID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (h *OrderHandler) Products(c *fiber.Ctx) error {
	opts, err := h.Orders.AllowedProducts(c.UserContext(), middleware.ActorFrom(c), c.Params("week"))
	if err != nil {
		return ordersFail(c, err)
	}
	return ok(c, fiber.StatusOK, "", opts)
}

// List serves one week, or every week at /orders.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	list, err := h.Orders.List(c.UserContext(), middleware.ActorFrom(c), c.Params("week"))
	if err != nil {
		return ordersFail(c, err)
	}
	return ok(c, fiber.StatusOK, "", list)
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in orders.OrderInput
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	o, err := h.Orders.Save(c.UserContext(), middleware.ActorFrom(c), c.Params("week"), uuid.Nil, in)
	if err != nil {
		return ordersFail(c, err)
	}
	return ok(c, fiber.StatusCreated, "Data ditambahkan", o)
}

func (h *OrderHandler) Update(c *fiber.Ctx) error {
	id, valid := orderID(c)
	if !valid {
		return fail(c, fiber.StatusBadRequest, "ID pesanan tidak valid")
	}
	var in orders.OrderInput
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	o, err := h.Orders.Save(c.UserContext(), middleware.ActorFrom(c), "", id, in)
	if err != nil {
		return ordersFail(c, err)
	}
	return ok(c, fiber.StatusOK, "Data diperbarui", o)
}

func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	id, valid := orderID(c)
	if !valid {
		return fail(c, fiber.StatusBadRequest, "ID pesanan tidak valid")
	}
	if err := h.Orders.Delete(c.UserContext(), middleware.ActorFrom(c), id); err != nil {
		return ordersFail(c, err)
	}
	return ok(c, fiber.StatusOK, "Data berhasil dihapus.", nil)
}

func (h *OrderHandler) Missing(c *fiber.Ctx) error {
	list, err := h.Orders.Missing(c.UserContext(), middleware.ActorFrom(c), c.Params("week"))
	if err != nil {
		return ordersFail(c, err)
	}
	return ok(c, fiber.StatusOK, "", list)
}

type RestoreReq struct {
	IDs []uuid.UUID `json:"ids"`
}

func (h *OrderHandler) Restore(c *fiber.Ctx) error {
	var req RestoreReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	restored, err := h.Orders.Restore(c.UserContext(), middleware.ActorFrom(c), c.Params("week"), req.IDs)
	if err != nil {
		return ordersFail(c, err)
	}
	return ok(c, fiber.StatusOK, "Data berhasil dipulihkan", restored)
}

// CustomerInvoices and SupplierInvoices take ?week=, empty for all weeks.
func (h *OrderHandler) CustomerInvoices(c *fiber.Ctx) error {
	inv, err := h.Orders.CustomerInvoices(c.UserContext(), middleware.ActorFrom(c), c.Query("week"))
	if err != nil {
		return ordersFail(c, err)
	}
	return ok(c, fiber.StatusOK, "", inv)
}

func (h *OrderHandler) SupplierInvoices(c *fiber.Ctx) error {
	inv, err := h.Orders.SupplierInvoices(c.UserContext(), middleware.ActorFrom(c), c.Query("week"))
	if err != nil {
		return ordersFail(c, err)
	}
	return ok(c, fiber.StatusOK, "", inv)
}
