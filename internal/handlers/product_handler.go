package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/services/catalog"
)

type ProductHandler struct {
	Catalog *catalog.Service
}

func NewProductHandler(svc *catalog.Service) *ProductHandler {
	return &ProductHandler{Catalog: svc}
}

func productID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	ps, err := h.Catalog.List(c.UserContext(), middleware.ActorFrom(c), c.Query("supplier"))
	if err != nil {
		return catalogFail(c, err)
	}
	return ok(c, fiber.StatusOK, "", ps)
}

// Selectable lists the caller's active products as form options.
func (h *ProductHandler) Selectable(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	supplier := actor.Name
	if s := c.Query("supplier"); s != "" && actor.IsAdmin() {
		supplier = s
	}
	opts, err := h.Catalog.Selectable(c.UserContext(), supplier)
	if err != nil {
		return catalogFail(c, err)
	}
	return ok(c, fiber.StatusOK, "", opts)
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in catalog.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	p, err := h.Catalog.Save(c.UserContext(), middleware.ActorFrom(c), 0, in)
	if err != nil {
		return catalogFail(c, err)
	}
	return ok(c, fiber.StatusCreated, "Data berhasil ditambahkan", p)
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, valid := productID(c)
	if !valid {
		return fail(c, fiber.StatusBadRequest, "ID produk tidak valid")
	}
	var in catalog.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	p, err := h.Catalog.Save(c.UserContext(), middleware.ActorFrom(c), id, in)
	if err != nil {
		return catalogFail(c, err)
	}
	return ok(c, fiber.StatusOK, "Data produk berhasil diupdate", p)
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, valid := productID(c)
	if !valid {
		return fail(c, fiber.StatusBadRequest, "ID produk tidak valid")
	}
	if err := h.Catalog.Delete(c.UserContext(), middleware.ActorFrom(c), id); err != nil {
		return catalogFail(c, err)
	}
	return ok(c, fiber.StatusOK, "Data berhasil dihapus.", nil)
}
