package handlers

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/store"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/utils"
)

type UserStore interface {
	GetUser(ctx context.Context, name string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)
}

type AuthHandler struct {
	Users     UserStore
	JWTSecret string
	// Expires is the session lifetime, applied to both token and cookie.
	Expires time.Duration
}

type RegisterReq struct {
	Name string `json:"name"`
	// RequestAdmin flags the account for an admin to promote.
	RequestAdmin bool `json:"requestAdmin"`
}

type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func validationFail(c *fiber.Ctx, errs FieldErrors) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Validation error",
		"errors":  errs,
	})
}

func (h *AuthHandler) setSession(c *fiber.Ctx, u *models.User) error {
	token, err := utils.SignJWT(h.JWTSecret, u.Name, string(u.Role), int(h.Expires/time.Minute))
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
		MaxAge:   int(h.Expires / time.Second),
	})
	return nil
}

func userView(u *models.User) fiber.Map {
	return fiber.Map{
		"name":           u.Name,
		"role":           u.Role,
		"requestedAdmin": u.RequestedAdmin,
	}
}

// Register creates a supplier account. Names are unique and serve as the
// login.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	name := strings.Join(strings.Fields(req.Name), " ")
	if name == "" {
		errs := FieldErrors{}
		errs.Add("name", "Nama wajib diisi")
		return validationFail(c, errs)
	}

	u := &models.User{
		Name:           name,
		Role:           models.RoleSupplier,
		RequestedAdmin: req.RequestAdmin,
	}
	if err := h.Users.CreateUser(c.UserContext(), u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			errs := FieldErrors{}
			errs.Add("name", "Nama sudah digunakan")
			return validationFail(c, errs)
		}
		return serverError(c, err)
	}

	if err := h.setSession(c, u); err != nil {
		return fail(c, fiber.StatusInternalServerError, "Gagal membuat token")
	}
	return ok(c, fiber.StatusCreated, "Register berhasil", fiber.Map{"user": userView(u)})
}

type LoginReq struct {
	Name string `json:"name"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	name := strings.Join(strings.Fields(req.Name), " ")
	if name == "" {
		errs := FieldErrors{}
		errs.Add("name", "Nama wajib diisi")
		return validationFail(c, errs)
	}

	u, err := h.Users.GetUser(c.UserContext(), name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(c, fiber.StatusUnauthorized, "Nama belum terdaftar")
		}
		return serverError(c, err)
	}

	if err := h.setSession(c, u); err != nil {
		return fail(c, fiber.StatusInternalServerError, "Gagal membuat token")
	}
	return ok(c, fiber.StatusOK, "Login berhasil", fiber.Map{"user": userView(u)})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
	})
	return ok(c, fiber.StatusOK, "Logout berhasil", nil)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	u, err := h.Users.GetUser(c.UserContext(), actor.Name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(c, fiber.StatusUnauthorized, "User tidak ditemukan")
		}
		return serverError(c, err)
	}
	return ok(c, fiber.StatusOK, "", userView(u))
}

func (h *AuthHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.Users.ListUsers(c.UserContext())
	if err != nil {
		return serverError(c, err)
	}
	return ok(c, fiber.StatusOK, "", users)
}

type SetRoleReq struct {
	Role string `json:"role"`
}

// SetRole lets an admin promote or demote an account. The new role takes
// effect at the user's next login.
func (h *AuthHandler) SetRole(c *fiber.Ctx) error {
	var req SetRoleReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	role := models.ParseRole(req.Role)
	if role != models.RoleAdmin && role != models.RoleSupplier {
		return fail(c, fiber.StatusBadRequest, "Role tidak valid")
	}

	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Nama tidak valid")
	}
	u, err := h.Users.GetUser(c.UserContext(), name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "User tidak ditemukan")
		}
		return serverError(c, err)
	}
	u.Role = role
	u.RequestedAdmin = false
	if err := h.Users.UpdateUser(c.UserContext(), u); err != nil {
		return serverError(c, err)
	}
	return ok(c, fiber.StatusOK, "Role berhasil diubah", userView(u))
}
