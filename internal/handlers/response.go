package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/logger"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/services/admission"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/services/announcement"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/services/catalog"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/services/orders"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/store"
)

func ok(c *fiber.Ctx, status int, message string, data any) error {
	body := fiber.Map{
		"success": true,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func invalidBody(c *fiber.Ctx) error {
	return fail(c, fiber.StatusBadRequest, "Body request tidak valid")
}

func serverError(c *fiber.Ctx, err error) error {
	logger.FromFiber(c).Error("request failed", zap.Error(err))
	return fail(c, fiber.StatusInternalServerError, "Terjadi kesalahan server")
}

// admissionFail writes a refused submission or review with its kind and
// category so the form can react without parsing the message.
func admissionFail(c *fiber.Ctx, err error) error {
	var e *admission.Error
	if !errors.As(err, &e) {
		return serverError(c, err)
	}

	status, msg := admissionStatus(e)
	if e.Kind == admission.KindStoreUnavailable {
		logger.FromFiber(c).Warn("store unavailable", zap.Error(e))
	}
	body := fiber.Map{
		"success":   false,
		"message":   msg,
		"code":      e.Kind,
		"category":  e.Category(),
		"retryable": e.Retryable(),
	}
	if e.Field != "" && e.Kind == admission.KindValidationFailed {
		body["field"] = e.Field
	}
	if len(e.Channels) > 0 {
		body["channels"] = e.Channels
	}
	if e.Kind == admission.KindTooManyProductGroups {
		body["limit"] = e.Limit
		body["groups"] = e.Groups
	}
	return c.Status(status).JSON(body)
}

func admissionStatus(e *admission.Error) (int, string) {
	switch e.Kind {
	case admission.KindValidationFailed:
		return fiber.StatusBadRequest, validationMessage(e.Field)
	case admission.KindDeadlinePassed, admission.KindAnnouncementClosed:
		return fiber.StatusGone, "Pendaftaran sudah ditutup!"
	case admission.KindAlreadyRegistered:
		return fiber.StatusConflict, "Anda sudah terdaftar untuk bazaar ini!"
	case admission.KindCapacityFull:
		return fiber.StatusConflict, fmt.Sprintf("Kuota supplier bazaar %s sudah penuh!", channelNames(e.Channels))
	case admission.KindTooManyProductGroups:
		return fiber.StatusBadRequest, fmt.Sprintf("Maksimal %d produk utama per supplier!", e.Limit)
	case admission.KindStoreUnavailable:
		return fiber.StatusServiceUnavailable, "Server sedang sibuk, silakan coba lagi"
	case admission.KindNotFound:
		return fiber.StatusNotFound, "Pendaftaran tidak ditemukan"
	case admission.KindForbidden:
		return fiber.StatusForbidden, "Anda tidak memiliki akses"
	}
	return fiber.StatusInternalServerError, "Terjadi kesalahan server"
}

func validationMessage(field string) string {
	switch field {
	case "participation":
		return "Pilih minimal satu jenis bazaar (online/offline)!"
	case "selectedProducts", "selectedProductsOnline", "selectedProductsOffline":
		return "Pilih minimal satu produk!"
	case "adminNotes":
		return "Alasan penolakan wajib diisi jika status Ditolak!"
	case "status":
		return "Status wajib dipilih!"
	case "announcementId":
		return "Pengumuman bazaar tidak ditemukan"
	}
	return "Semua field wajib diisi!"
}

func channelNames(chs []models.Channel) string {
	names := make([]string, 0, len(chs))
	for _, ch := range chs {
		names = append(names, string(ch))
	}
	return strings.Join(names, " dan ")
}

func announcementFail(c *fiber.Ctx, err error) error {
	var ve *announcement.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": announcementMessage(ve),
			"field":   ve.Field,
		})
	case errors.Is(err, announcement.ErrForbidden):
		return fail(c, fiber.StatusForbidden, "Anda tidak memiliki akses")
	case errors.Is(err, store.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "Pengumuman tidak ditemukan")
	}
	return serverError(c, err)
}

func announcementMessage(ve *announcement.ValidationError) string {
	switch ve.Reason {
	case announcement.ReasonRequired:
		return "Semua field * wajib diisi"
	case announcement.ReasonAfterOnlineStart:
		return "Deadline pendaftaran tidak boleh lebih dari tanggal mulai bazaar online!"
	case announcement.ReasonAfterOnlineEnd:
		return "Deadline pendaftaran tidak boleh lebih dari tanggal selesai bazaar online!"
	case announcement.ReasonAfterOffline:
		return "Deadline pendaftaran tidak boleh lebih dari tanggal bazaar offline!"
	case announcement.ReasonBeforeStart:
		return "Tanggal selesai bazaar online tidak boleh sebelum tanggal mulai!"
	}
	return fmt.Sprintf("Data %s tidak valid", ve.Field)
}

func catalogFail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, catalog.ErrInvalid):
		return fail(c, fiber.StatusBadRequest, "Semua field * wajib diisi")
	case errors.Is(err, catalog.ErrForbidden):
		return fail(c, fiber.StatusForbidden, "Anda tidak memiliki akses")
	case errors.Is(err, store.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "Produk tidak ditemukan")
	}
	return serverError(c, err)
}

func ordersFail(c *fiber.Ctx, err error) error {
	var ve *orders.ValidationError
	switch {
	case errors.As(err, &ve):
		msg := "Semua field * wajib diisi"
		if ve.Reason == orders.ReasonNotOffered {
			msg = "Produk tidak tersedia untuk minggu ini"
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": msg,
			"field":   ve.Field,
		})
	case errors.Is(err, orders.ErrForbidden):
		return fail(c, fiber.StatusForbidden, "Anda tidak memiliki akses")
	case errors.Is(err, store.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "Data tidak ditemukan")
	}
	return serverError(c, err)
}
