package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/services/admission"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/services/announcement"
)

type AnnouncementHandler struct {
	Announcements *announcement.Service
	Admission     *admission.Service
}

func (h *AnnouncementHandler) List(c *fiber.Ctx) error {
	anns, err := h.Announcements.List(c.UserContext())
	if err != nil {
		return serverError(c, err)
	}
	return ok(c, fiber.StatusOK, "", anns)
}

func (h *AnnouncementHandler) Get(c *fiber.Ctx) error {
	a, err := h.Announcements.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return announcementFail(c, err)
	}
	return ok(c, fiber.StatusOK, "", a)
}

// Capacity reports remaining slots and what the caller may still
// request. Admins can ask on behalf of a supplier with ?supplier=.
func (h *AnnouncementHandler) Capacity(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	supplier := actor.Name
	if s := c.Query("supplier"); s != "" && actor.IsAdmin() {
		supplier = s
	}
	view, err := h.Admission.Availability(c.UserContext(), c.Params("id"), supplier)
	if err != nil {
		return admissionFail(c, err)
	}
	return ok(c, fiber.StatusOK, "", view)
}

type CheckSelectionReq struct {
	SelectedProducts []admissionProduct `json:"selectedProducts"`
}

// CheckSelection previews the product quota for the form.
func (h *AnnouncementHandler) CheckSelection(c *fiber.Ctx) error {
	var req CheckSelectionReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	res, err := h.Admission.CheckSelection(c.UserContext(), c.Params("id"), toSelected(req.SelectedProducts))
	if err != nil {
		return admissionFail(c, err)
	}
	return ok(c, fiber.StatusOK, "", res)
}

func (h *AnnouncementHandler) Participants(c *fiber.Ctx) error {
	r, err := h.Announcements.Participants(c.UserContext(), c.Params("id"))
	if err != nil {
		return announcementFail(c, err)
	}
	return ok(c, fiber.StatusOK, "", r)
}

func (h *AnnouncementHandler) Create(c *fiber.Ctx) error {
	var in announcement.SaveInput
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	a, err := h.Announcements.Save(c.UserContext(), middleware.ActorFrom(c), "", in)
	if err != nil {
		return announcementFail(c, err)
	}
	return ok(c, fiber.StatusCreated, "Pengumuman berhasil ditambahkan", a)
}

func (h *AnnouncementHandler) Update(c *fiber.Ctx) error {
	var in announcement.SaveInput
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	a, err := h.Announcements.Save(c.UserContext(), middleware.ActorFrom(c), c.Params("id"), in)
	if err != nil {
		return announcementFail(c, err)
	}
	return ok(c, fiber.StatusOK, "Pengumuman berhasil diubah", a)
}

func (h *AnnouncementHandler) Close(c *fiber.Ctx) error {
	a, err := h.Announcements.Close(c.UserContext(), middleware.ActorFrom(c), c.Params("id"))
	if err != nil {
		return announcementFail(c, err)
	}
	return ok(c, fiber.StatusOK, "Pengumuman ditutup", a)
}

func (h *AnnouncementHandler) Delete(c *fiber.Ctx) error {
	if err := h.Announcements.Delete(c.UserContext(), middleware.ActorFrom(c), c.Params("id")); err != nil {
		return announcementFail(c, err)
	}
	return ok(c, fiber.StatusOK, "Pengumuman berhasil dihapus.", nil)
}
