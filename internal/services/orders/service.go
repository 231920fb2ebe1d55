// Package orders keeps the weekly order sheets admins fill in from
// customer orders, and derives customer and supplier invoices from them.
package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
)

var ErrForbidden = errors.New("admin only")

const (
	ReasonRequired   = "required"
	ReasonPositive   = "must be positive"
	ReasonNotOffered = "not offered this week"
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type Store interface {
	ListAnnouncements(ctx context.Context) ([]models.Announcement, error)
	ListRegistrations(ctx context.Context, announcementID string) ([]models.Registration, error)
	ListProducts(ctx context.Context, supplier string) ([]models.Product, error)
	ListUsers(ctx context.Context) ([]models.User, error)

	ListOrders(ctx context.Context, weekID string) ([]models.WeekOrder, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.WeekOrder, error)
	SaveOrder(ctx context.Context, o *models.WeekOrder) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error

	ListAudit(ctx context.Context, limit int) ([]models.AuditLog, error)
}

type AuditLogger interface {
	LogAction(ctx context.Context, actor, action string, before, after any) error
}

// DefaultStoreTimeout bounds the store round trips of one operation.
const DefaultStoreTimeout = 15 * time.Second

type Service struct {
	store   Store
	audit   AuditLogger
	log     *zap.Logger
	now     func() time.Time
	timeout time.Duration
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }
func WithAudit(a AuditLogger) Option        { return func(s *Service) { s.audit = a } }

func WithStoreTimeout(d time.Duration) Option { return func(s *Service) { s.timeout = d } }

func NewService(st Store, log *zap.Logger, opts ...Option) *Service {
	s := &Service{store: st, log: log, now: time.Now, timeout: DefaultStoreTimeout}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

var thousand = decimal.NewFromInt(1000)

// AdjustedPrice reads prices typed in thousands ("12" for Rp12.000) as
// full rupiah. Non-positive prices count as zero.
func AdjustedPrice(hjk decimal.Decimal) decimal.Decimal {
	if !hjk.IsPositive() {
		return decimal.Zero
	}
	if hjk.LessThan(thousand) {
		return hjk.Mul(thousand)
	}
	return hjk
}

// ProductOption is a product that may be ordered in a week, with the
// supplier that sells it.
type ProductOption struct {
	models.SelectedProduct
	Owner string `json:"owner"`
}

func (o *ProductOption) prices() (hjk, hpp decimal.Decimal) {
	if o.Data == nil {
		return decimal.Zero, decimal.Zero
	}
	return o.Data.HJK, o.Data.HPP
}

// AllowedProducts lists what may be ordered for weekID: the online
// products of approved suppliers of the week's active announcement. With
// no active announcement every active catalog product of a registered
// user is offered.
func (s *Service) AllowedProducts(ctx context.Context, actor models.Actor, weekID string) ([]ProductOption, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.allowed(ctx, weekID)
}

func (s *Service) allowed(ctx context.Context, weekID string) ([]ProductOption, error) {
	ann, err := s.activeAnnouncement(ctx, weekID)
	if err != nil {
		return nil, err
	}
	if ann == nil {
		return s.catalogOptions(ctx)
	}

	regs, err := s.store.ListRegistrations(ctx, ann.ID)
	if err != nil {
		return nil, err
	}
	var catalog map[string][]models.Product
	out := make([]ProductOption, 0)
	for i := range regs {
		r := &regs[i]
		if r.Status != models.RegistrationApproved {
			continue
		}
		for _, p := range r.ProductsFor(models.ChannelOnline) {
			if p.Data == nil {
				// Older registrations carry labels only. Prices come
				// from the supplier's catalog.
				if catalog == nil {
					catalog = make(map[string][]models.Product)
				}
				if _, ok := catalog[r.SupplierName]; !ok {
					ps, err := s.store.ListProducts(ctx, r.SupplierName)
					if err != nil {
						return nil, err
					}
					catalog[r.SupplierName] = ps
				}
				p = withCatalogData(p, catalog[r.SupplierName])
			}
			out = append(out, ProductOption{SelectedProduct: p, Owner: r.SupplierName})
		}
	}
	return out, nil
}

func withCatalogData(p models.SelectedProduct, catalog []models.Product) models.SelectedProduct {
	for i := range catalog {
		if catalog[i].Label() == p.Label {
			p.Data = catalog[i].ToSelected().Data
			return p
		}
	}
	return p
}

// activeAnnouncement returns the newest active announcement of weekID,
// or nil.
func (s *Service) activeAnnouncement(ctx context.Context, weekID string) (*models.Announcement, error) {
	if weekID == "" {
		return nil, nil
	}
	anns, err := s.store.ListAnnouncements(ctx)
	if err != nil {
		return nil, err
	}
	for i := range anns {
		if anns[i].WeekID == weekID && anns[i].Status == models.AnnouncementActive {
			return &anns[i], nil
		}
	}
	return nil, nil
}

func (s *Service) catalogOptions(ctx context.Context) ([]ProductOption, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	registered := make(map[string]bool, len(users))
	for _, u := range users {
		registered[u.Name] = true
	}
	ps, err := s.store.ListProducts(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([]ProductOption, 0, len(ps))
	for i := range ps {
		if ps[i].Aktif && registered[ps[i].SupplierName] {
			out = append(out, ProductOption{SelectedProduct: ps[i].ToSelected(), Owner: ps[i].SupplierName})
		}
	}
	return out, nil
}

type OrderInput struct {
	Pemesan      string `json:"pemesan"`
	ProductLabel string `json:"produkLabel"`
	// SupplierName picks between suppliers offering the same label.
	SupplierName string `json:"namaSupplier"`
	Catatan      string `json:"catatan"`
	Jumlah       int    `json:"jumlah"`
}

func (in *OrderInput) validate() error {
	in.Pemesan = strings.TrimSpace(in.Pemesan)
	in.ProductLabel = strings.TrimSpace(in.ProductLabel)
	in.SupplierName = strings.TrimSpace(in.SupplierName)
	in.Catatan = strings.TrimSpace(in.Catatan)
	switch {
	case in.Pemesan == "":
		return &ValidationError{Field: "pemesan", Reason: ReasonRequired}
	case in.ProductLabel == "":
		return &ValidationError{Field: "produkLabel", Reason: ReasonRequired}
	case in.Jumlah <= 0:
		return &ValidationError{Field: "jumlah", Reason: ReasonPositive}
	}
	return nil
}

func pick(opts []ProductOption, label, supplier string) *ProductOption {
	for i := range opts {
		if opts[i].Label == label && (supplier == "" || opts[i].Owner == supplier) {
			return &opts[i]
		}
	}
	return nil
}

// Save adds an order to weekID, or edits order id when id is set. An
// edited order stays in its week.
func (s *Service) Save(ctx context.Context, actor models.Actor, weekID string, id uuid.UUID, in OrderInput) (*models.WeekOrder, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var before *models.WeekOrder
	o := &models.WeekOrder{WeekID: strings.TrimSpace(weekID), CreatedBy: actor.Name}
	if id != uuid.Nil {
		cur, err := s.store.GetOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		cp := *cur
		before = &cp
		o = cur
	} else {
		if o.WeekID == "" {
			return nil, &ValidationError{Field: "weekId", Reason: ReasonRequired}
		}
		o.ID = uuid.New()
		o.CreatedAt = s.now()
	}

	opts, err := s.allowed(ctx, o.WeekID)
	if err != nil {
		return nil, err
	}
	opt := pick(opts, in.ProductLabel, in.SupplierName)
	if opt == nil {
		return nil, &ValidationError{Field: "produkLabel", Reason: ReasonNotOffered}
	}
	hjk, hpp := opt.prices()

	o.Pemesan = in.Pemesan
	o.ProductLabel = opt.Label
	o.SupplierName = opt.Owner
	o.Catatan = in.Catatan
	o.Jumlah = in.Jumlah
	o.HargaSatuan = AdjustedPrice(hjk).Round(2)
	o.HPP = hpp.Round(2)
	o.Bayar = o.HargaSatuan.Mul(decimal.NewFromInt(int64(in.Jumlah)))
	o.UpdatedAt = s.now()

	if err := s.store.SaveOrder(ctx, o); err != nil {
		return nil, err
	}
	action := "add"
	if before != nil {
		action = "edit"
	}
	s.record(ctx, actor, action, before, o)
	return o, nil
}

// List returns weekID's orders, or all weeks for "", ordered by customer
// name ignoring case.
func (s *Service) List(ctx context.Context, actor models.Actor, weekID string) ([]models.WeekOrder, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	out, err := s.store.ListOrders(ctx, weekID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Pemesan) < strings.ToLower(out[j].Pemesan)
	})
	return out, nil
}

func (s *Service) Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteOrder(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actor, "delete", o, nil)
	return nil
}

func (s *Service) record(ctx context.Context, actor models.Actor, action string, before, after *models.WeekOrder) {
	if s.audit == nil {
		return
	}
	var b, a any
	if before != nil {
		b = before
	}
	if after != nil {
		a = after
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.audit.LogAction(ctx, actor.Name, action, b, a); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}
