// Package store persists announcements, registrations, catalog products,
// weekly orders, users and the audit log.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
)

var ErrNotFound = errors.New("record not found")

// Snapshot is the authoritative state of one announcement, read straight
// from the backing database.
type Snapshot struct {
	Announcement  models.Announcement
	Registrations []models.Registration
}

type Store interface {
	ListAnnouncements(ctx context.Context) ([]models.Announcement, error)
	GetAnnouncement(ctx context.Context, id string) (*models.Announcement, error)
	SaveAnnouncement(ctx context.Context, a *models.Announcement) error
	DeleteAnnouncement(ctx context.Context, id string) error

	ListRegistrations(ctx context.Context, announcementID string) ([]models.Registration, error)
	ListRegistrationsBySupplier(ctx context.Context, supplier string) ([]models.Registration, error)
	GetRegistration(ctx context.Context, id string) (*models.Registration, error)
	// Snapshot never serves cached data.
	Snapshot(ctx context.Context, announcementID string) (*Snapshot, error)
	SaveRegistration(ctx context.Context, r *models.Registration) error
	DeleteRegistration(ctx context.Context, id string) error

	ListProducts(ctx context.Context, supplier string) ([]models.Product, error)
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	SaveProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error

	// ListOrders returns one week's orders, or every week's for "".
	ListOrders(ctx context.Context, weekID string) ([]models.WeekOrder, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.WeekOrder, error)
	SaveOrder(ctx context.Context, o *models.WeekOrder) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error

	GetUser(ctx context.Context, name string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)

	AppendAudit(ctx context.Context, entry *models.AuditLog) error
	ListAudit(ctx context.Context, limit int) ([]models.AuditLog, error)
}

var ErrDuplicate = errors.New("record already exists")
