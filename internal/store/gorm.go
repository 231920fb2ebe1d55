package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
)

// Gorm is the authoritative Store backed by Postgres.
type Gorm struct {
	DB *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{DB: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *Gorm) ListAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	var out []models.Announcement
	err := s.DB.WithContext(ctx).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (s *Gorm) GetAnnouncement(ctx context.Context, id string) (*models.Announcement, error) {
	var a models.Announcement
	if err := s.DB.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (s *Gorm) SaveAnnouncement(ctx context.Context, a *models.Announcement) error {
	return s.DB.WithContext(ctx).Save(a).Error
}

func (s *Gorm) DeleteAnnouncement(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Delete(&models.Announcement{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Gorm) ListRegistrations(ctx context.Context, announcementID string) ([]models.Registration, error) {
	var out []models.Registration
	err := s.DB.WithContext(ctx).
		Where("announcement_id = ?", announcementID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (s *Gorm) ListRegistrationsBySupplier(ctx context.Context, supplier string) ([]models.Registration, error) {
	var out []models.Registration
	err := s.DB.WithContext(ctx).
		Where("supplier_name = ?", supplier).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (s *Gorm) GetRegistration(ctx context.Context, id string) (*models.Registration, error) {
	var r models.Registration
	if err := s.DB.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// Snapshot reads the announcement and its registrations in one
// read-only transaction. It does not lock: a concurrent writer may
// still commit between this read and the caller's write.
func (s *Gorm) Snapshot(ctx context.Context, announcementID string) (*Snapshot, error) {
	var snap Snapshot
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&snap.Announcement, "id = ?", announcementID).Error; err != nil {
			return notFound(err)
		}
		return tx.
			Where("announcement_id = ?", announcementID).
			Order("created_at ASC, id ASC").
			Find(&snap.Registrations).Error
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *Gorm) SaveRegistration(ctx context.Context, r *models.Registration) error {
	return s.DB.WithContext(ctx).Save(r).Error
}

func (s *Gorm) DeleteRegistration(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Delete(&models.Registration{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Gorm) ListProducts(ctx context.Context, supplier string) ([]models.Product, error) {
	var out []models.Product
	q := s.DB.WithContext(ctx).Order("id ASC")
	if supplier != "" {
		q = q.Where("supplier_name = ?", supplier)
	}
	err := q.Find(&out).Error
	return out, err
}

func (s *Gorm) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Gorm) SaveProduct(ctx context.Context, p *models.Product) error {
	return s.DB.WithContext(ctx).Save(p).Error
}

func (s *Gorm) DeleteProduct(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Gorm) ListOrders(ctx context.Context, weekID string) ([]models.WeekOrder, error) {
	var out []models.WeekOrder
	q := s.DB.WithContext(ctx).Order("created_at ASC, id ASC")
	if weekID != "" {
		q = q.Where("week_id = ?", weekID)
	}
	err := q.Find(&out).Error
	return out, err
}

func (s *Gorm) GetOrder(ctx context.Context, id uuid.UUID) (*models.WeekOrder, error) {
	var o models.WeekOrder
	if err := s.DB.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (s *Gorm) SaveOrder(ctx context.Context, o *models.WeekOrder) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return s.DB.WithContext(ctx).Save(o).Error
}

func (s *Gorm) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	res := s.DB.WithContext(ctx).Delete(&models.WeekOrder{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Gorm) GetUser(ctx context.Context, name string) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).First(&u, "name = ?", name).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Gorm) CreateUser(ctx context.Context, u *models.User) error {
	err := s.DB.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (s *Gorm) UpdateUser(ctx context.Context, u *models.User) error {
	res := s.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("name = ?", u.Name).
		Updates(map[string]any{
			"role":            u.Role,
			"requested_admin": u.RequestedAdmin,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Gorm) ListUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := s.DB.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

func (s *Gorm) AppendAudit(ctx context.Context, entry *models.AuditLog) error {
	return s.DB.WithContext(ctx).Create(entry).Error
}

func (s *Gorm) ListAudit(ctx context.Context, limit int) ([]models.AuditLog, error) {
	var out []models.AuditLog
	q := s.DB.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}
