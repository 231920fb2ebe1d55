package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
)

// Memory is a process-local Store for development and tests.
type Memory struct {
	mu sync.RWMutex

	announcements map[string]models.Announcement
	registrations map[string]models.Registration
	products      map[uint]models.Product
	orders        map[uuid.UUID]models.WeekOrder
	users         map[string]models.User
	audit         []models.AuditLog
	nextProductID uint
}

func NewMemory() *Memory {
	return &Memory{
		announcements: make(map[string]models.Announcement),
		registrations: make(map[string]models.Registration),
		products:      make(map[uint]models.Product),
		orders:        make(map[uuid.UUID]models.WeekOrder),
		users:         make(map[string]models.User),
	}
}

func (m *Memory) ListAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Announcement, 0, len(m.announcements))
	for _, a := range m.announcements {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) GetAnnouncement(ctx context.Context, id string) (*models.Announcement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.announcements[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *Memory) SaveAnnouncement(ctx context.Context, a *models.Announcement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	m.announcements[a.ID] = *a
	return nil
}

func (m *Memory) DeleteAnnouncement(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.announcements[id]; !ok {
		return ErrNotFound
	}
	delete(m.announcements, id)
	return nil
}

func (m *Memory) ListRegistrations(ctx context.Context, announcementID string) ([]models.Registration, error) {
	return m.filterRegistrations(func(r *models.Registration) bool {
		return r.AnnouncementID == announcementID
	}), nil
}

func (m *Memory) ListRegistrationsBySupplier(ctx context.Context, supplier string) ([]models.Registration, error) {
	return m.filterRegistrations(func(r *models.Registration) bool {
		return r.SupplierName == supplier
	}), nil
}

func (m *Memory) filterRegistrations(keep func(*models.Registration) bool) []models.Registration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Registration, 0)
	for _, r := range m.registrations {
		if keep(&r) {
			out = append(out, cloneRegistration(r))
		}
	}
	sortRegistrations(out)
	return out
}

func (m *Memory) GetRegistration(ctx context.Context, id string) (*models.Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.registrations[id]
	if !ok {
		return nil, ErrNotFound
	}
	r = cloneRegistration(r)
	return &r, nil
}

func (m *Memory) Snapshot(ctx context.Context, announcementID string) (*Snapshot, error) {
	a, err := m.GetAnnouncement(ctx, announcementID)
	if err != nil {
		return nil, err
	}
	regs, err := m.ListRegistrations(ctx, announcementID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Announcement: *a, Registrations: regs}, nil
}

func (m *Memory) SaveRegistration(ctx context.Context, r *models.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
	m.registrations[r.ID] = cloneRegistration(*r)
	return nil
}

func (m *Memory) DeleteRegistration(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.registrations[id]; !ok {
		return ErrNotFound
	}
	delete(m.registrations, id)
	return nil
}

func (m *Memory) ListProducts(ctx context.Context, supplier string) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Product, 0)
	for _, p := range m.products {
		if supplier == "" || p.SupplierName == supplier {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) SaveProduct(ctx context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if p.ID == 0 {
		m.nextProductID++
		p.ID = m.nextProductID
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.products[p.ID] = *p
	return nil
}

func (m *Memory) DeleteProduct(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *Memory) ListOrders(ctx context.Context, weekID string) ([]models.WeekOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.WeekOrder, 0)
	for _, o := range m.orders {
		if weekID == "" || o.WeekID == weekID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) GetOrder(ctx context.Context, id uuid.UUID) (*models.WeekOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (m *Memory) SaveOrder(ctx context.Context, o *models.WeekOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	m.orders[o.ID] = *o
	return nil
}

func (m *Memory) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[id]; !ok {
		return ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *Memory) GetUser(ctx context.Context, name string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.Name]; ok {
		return ErrDuplicate
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	m.users[u.Name] = *u
	return nil
}

func (m *Memory) UpdateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.Name]; !ok {
		return ErrNotFound
	}
	u.UpdatedAt = time.Now()
	m.users[u.Name] = *u
	return nil
}

func (m *Memory) ListUsers(ctx context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) AppendAudit(ctx context.Context, entry *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	m.audit = append(m.audit, *entry)
	return nil
}

// ListAudit returns the newest entries first.
func (m *Memory) ListAudit(ctx context.Context, limit int) ([]models.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.AuditLog, 0, len(m.audit))
	for i := len(m.audit) - 1; i >= 0; i-- {
		out = append(out, m.audit[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func cloneRegistration(r models.Registration) models.Registration {
	r.SelectedProducts = append(r.SelectedProducts[:0:0], r.SelectedProducts...)
	r.SelectedProductsOnline = append(r.SelectedProductsOnline[:0:0], r.SelectedProductsOnline...)
	r.SelectedProductsOffline = append(r.SelectedProductsOffline[:0:0], r.SelectedProductsOffline...)
	return r
}

func sortRegistrations(regs []models.Registration) {
	sort.Slice(regs, func(i, j int) bool {
		if regs[i].CreatedAt.Equal(regs[j].CreatedAt) {
			return regs[i].ID < regs[j].ID
		}
		return regs[i].CreatedAt.Before(regs[j].CreatedAt)
	})
}
