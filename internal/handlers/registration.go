package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/services/admission"
)

type RegistrationHandler struct {
	Admission *admission.Service
}

// admissionProduct accepts selected products from the form. The catalog
// snapshot is optional.
type admissionProduct struct {
	Label string              `json:"label"`
	Value string              `json:"value"`
	Data  *models.ProductData `json:"data"`
}

func toSelected(in []admissionProduct) []models.SelectedProduct {
	out := make([]models.SelectedProduct, 0, len(in))
	for _, p := range in {
		out = append(out, models.SelectedProduct{Label: p.Label, Value: p.Value, Data: p.Data})
	}
	return out
}

type SubmitReq struct {
	AnnouncementID          string             `json:"announcementId"`
	SupplierName            string             `json:"supplierName"`
	ParticipateOnline       bool               `json:"participateOnline"`
	ParticipateOffline      bool               `json:"participateOffline"`
	Mode                    string             `json:"mode"`
	SelectedProducts        []admissionProduct `json:"selectedProducts"`
	SelectedProductsOnline  []admissionProduct `json:"selectedProductsOnline"`
	SelectedProductsOffline []admissionProduct `json:"selectedProductsOffline"`
	Notes                   string             `json:"notes"`
}

func (r SubmitReq) input(actor models.Actor, id string) admission.SubmitInput {
	supplier := r.SupplierName
	if supplier == "" {
		supplier = actor.Name
	}
	in := admission.SubmitInput{
		ID:                 id,
		AnnouncementID:     r.AnnouncementID,
		SupplierName:       supplier,
		ParticipateOnline:  r.ParticipateOnline,
		ParticipateOffline: r.ParticipateOffline,
		Mode:               admission.SelectionMode(r.Mode),
		SelectedProducts:   toSelected(r.SelectedProducts),
		Notes:              r.Notes,
	}
	if len(r.SelectedProductsOnline) > 0 {
		in.SelectedProductsOnline = toSelected(r.SelectedProductsOnline)
	}
	if len(r.SelectedProductsOffline) > 0 {
		in.SelectedProductsOffline = toSelected(r.SelectedProductsOffline)
	}
	return in
}

func (h *RegistrationHandler) Submit(c *fiber.Ctx) error {
	var req SubmitReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	actor := middleware.ActorFrom(c)
	rec, err := h.Admission.Submit(c.UserContext(), actor, req.input(actor, ""))
	if err != nil {
		return admissionFail(c, err)
	}
	return ok(c, fiber.StatusCreated, "Pendaftaran berhasil ditambahkan", rec)
}

func (h *RegistrationHandler) Update(c *fiber.Ctx) error {
	var req SubmitReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	actor := middleware.ActorFrom(c)
	rec, err := h.Admission.Submit(c.UserContext(), actor, req.input(actor, c.Params("id")))
	if err != nil {
		return admissionFail(c, err)
	}
	return ok(c, fiber.StatusOK, "Pendaftaran berhasil diubah", rec)
}

func (h *RegistrationHandler) Delete(c *fiber.Ctx) error {
	if err := h.Admission.Delete(c.UserContext(), middleware.ActorFrom(c), c.Params("id")); err != nil {
		return admissionFail(c, err)
	}
	return ok(c, fiber.StatusOK, "Pendaftaran berhasil dihapus.", nil)
}

func (h *RegistrationHandler) Mine(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	regs, err := h.Admission.ListForSupplier(c.UserContext(), actor, c.Query("supplier"))
	if err != nil {
		return admissionFail(c, err)
	}
	return ok(c, fiber.StatusOK, "", regs)
}

func (h *RegistrationHandler) ListForAnnouncement(c *fiber.Ctx) error {
	status := models.RegistrationStatus(c.Query("status"))
	regs, err := h.Admission.ListForAnnouncement(c.UserContext(), middleware.ActorFrom(c), c.Params("id"), status)
	if err != nil {
		return admissionFail(c, err)
	}
	return ok(c, fiber.StatusOK, "", regs)
}

func (h *RegistrationHandler) Review(c *fiber.Ctx) error {
	var in admission.ReviewInput
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	rec, err := h.Admission.Review(c.UserContext(), middleware.ActorFrom(c), c.Params("id"), in)
	if err != nil {
		return admissionFail(c, err)
	}
	msg := "Status pendaftaran berhasil diubah"
	switch rec.Status {
	case models.RegistrationApproved:
		msg = "Pendaftaran berhasil disetujui"
	case models.RegistrationRejected:
		msg = "Pendaftaran berhasil ditolak"
	}
	return ok(c, fiber.StatusOK, msg, rec)
}
