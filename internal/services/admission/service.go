// Package admission decides whether a supplier's bazaar registration is
// accepted and commits it.
//
// Capacity is checked against a snapshot re-read from the store right
// before the decision, but the read and the write are not atomic: two
// submissions whose re-reads both land before either write can both be
// accepted, oversubscribing a channel by one.
package admission

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/metrics"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/services/capacity"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/services/grouping"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/store"
)

const (
	DefaultStoreTimeout = 15 * time.Second
	sideEffectTimeout   = 3 * time.Second
	idAttempts          = 10
)

type Store interface {
	GetAnnouncement(ctx context.Context, id string) (*models.Announcement, error)
	ListRegistrations(ctx context.Context, announcementID string) ([]models.Registration, error)
	ListRegistrationsBySupplier(ctx context.Context, supplier string) ([]models.Registration, error)
	GetRegistration(ctx context.Context, id string) (*models.Registration, error)
	Snapshot(ctx context.Context, announcementID string) (*store.Snapshot, error)
	SaveRegistration(ctx context.Context, r *models.Registration) error
	DeleteRegistration(ctx context.Context, id string) error
}

// AuditLogger records committed changes. Failures never undo a commit.
type AuditLogger interface {
	LogAction(ctx context.Context, actor, action string, before, after any) error
}

type Publisher interface {
	Publish(ctx context.Context, ev models.Event) error
}

type Service struct {
	store   Store
	audit   AuditLogger
	events  Publisher
	log     *zap.Logger
	now     func() time.Time
	newID   func(time.Time) string
	policy  grouping.Policy
	timeout time.Duration
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithAudit(a AuditLogger) Option { return func(s *Service) { s.audit = a } }

func WithPublisher(p Publisher) Option { return func(s *Service) { s.events = p } }

// WithPolicy sets the grouping policy used when an announcement does not
// name one.
func WithPolicy(p grouping.Policy) Option { return func(s *Service) { s.policy = p } }

func WithStoreTimeout(d time.Duration) Option { return func(s *Service) { s.timeout = d } }

func WithIDGenerator(f func(time.Time) string) Option { return func(s *Service) { s.newID = f } }

func NewService(st Store, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:   st,
		log:     log,
		now:     time.Now,
		newID:   timestampID,
		policy:  grouping.Static,
		timeout: DefaultStoreTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func timestampID(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

type SelectionMode string

const (
	ModeCombined SelectionMode = "combined"
	ModeSeparate SelectionMode = "separate"
)

type SubmitInput struct {
	// ID is set when editing an existing registration.
	ID             string `json:"id,omitempty"`
	AnnouncementID string `json:"announcementId"`
	SupplierName   string `json:"supplierName"`

	ParticipateOnline  bool `json:"participateOnline"`
	ParticipateOffline bool `json:"participateOffline"`

	// Mode defaults to separate when any per-channel list is sent.
	Mode                    SelectionMode            `json:"mode,omitempty"`
	SelectedProducts        []models.SelectedProduct `json:"selectedProducts"`
	SelectedProductsOnline  []models.SelectedProduct `json:"selectedProductsOnline,omitempty"`
	SelectedProductsOffline []models.SelectedProduct `json:"selectedProductsOffline,omitempty"`

	Notes string `json:"notes"`
}

// PolicyFor is the grouping policy that applies to a.
func (s *Service) PolicyFor(a *models.Announcement) grouping.Policy {
	if p, err := grouping.ParsePolicy(a.GroupingPolicy); err == nil && a.GroupingPolicy != "" {
		return p
	}
	return s.policy
}

// Submit runs the admission checks in order and commits the registration.
func (s *Service) Submit(ctx context.Context, actor models.Actor, in SubmitInput) (*models.Registration, error) {
	rec, err := s.submit(ctx, actor, in)
	observe("submit", err)
	if err != nil {
		s.log.Info("registration refused",
			zap.String("actor", actor.Name),
			zap.String("announcement_id", in.AnnouncementID),
			zap.String("supplier", in.SupplierName),
			zap.String("reason", string(KindOf(err))),
		)
		return nil, err
	}
	return rec, nil
}

func (s *Service) submit(ctx context.Context, actor models.Actor, in SubmitInput) (*models.Registration, error) {
	in, err := normalizeInput(actor, in)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ann, err := s.store.GetAnnouncement(ctx, in.AnnouncementID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, validationFailed("announcementId")
		}
		return nil, storeUnavailable(err)
	}
	now := s.now()
	if err := admissible(ann, now); err != nil {
		return nil, err
	}

	regs, err := s.store.ListRegistrations(ctx, ann.ID)
	if err != nil {
		return nil, storeUnavailable(err)
	}

	var existing *models.Registration
	if in.ID != "" {
		existing, err = s.findForEdit(ctx, actor, regs, in)
		if err != nil {
			return nil, err
		}
	}
	if hasActiveDuplicate(regs, in.AnnouncementID, in.SupplierName, in.ID) {
		return nil, &Error{Kind: KindAlreadyRegistered}
	}

	// The list above may come from the cache. New registrations and edits
	// both decide on freshly read state.
	snap, err := s.store.Snapshot(ctx, ann.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, validationFailed("announcementId")
		}
		return nil, storeUnavailable(err)
	}
	ann = &snap.Announcement
	regs = snap.Registrations
	if err := admissible(ann, now); err != nil {
		return nil, err
	}
	if in.ID != "" {
		existing, err = s.findForEdit(ctx, actor, regs, in)
		if err != nil {
			return nil, err
		}
	}
	if hasActiveDuplicate(regs, in.AnnouncementID, in.SupplierName, in.ID) {
		return nil, &Error{Kind: KindAlreadyRegistered}
	}

	gate := capacity.New(*ann, regs, s.PolicyFor(ann))
	refused := gate.CanRegister(in.SupplierName, in.ParticipateOnline, in.ParticipateOffline).
		Refused(in.ParticipateOnline, in.ParticipateOffline)
	if len(refused) > 0 {
		return nil, &Error{Kind: KindCapacityFull, Channels: refused}
	}
	if err := checkQuota(gate, in); err != nil {
		return nil, err
	}

	rec := &models.Registration{
		AnnouncementID:          in.AnnouncementID,
		SupplierName:            in.SupplierName,
		ParticipateOnline:       in.ParticipateOnline,
		ParticipateOffline:      in.ParticipateOffline,
		SelectedProducts:        in.SelectedProducts,
		SelectedProductsOnline:  in.SelectedProductsOnline,
		SelectedProductsOffline: in.SelectedProductsOffline,
		Notes:                   strings.TrimSpace(in.Notes),
		// Edits go back to review.
		Status:    models.RegistrationPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	action := "add"
	if existing != nil {
		action = "edit"
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		rec.AdminNotes = existing.AdminNotes
	} else {
		rec.ID, err = s.allocateID(ctx, now)
		if err != nil {
			return nil, err
		}
	}

	if err := s.store.SaveRegistration(ctx, rec); err != nil {
		return nil, storeUnavailable(err)
	}

	s.log.Info("registration saved",
		zap.String("actor", actor.Name),
		zap.String("action", action),
		zap.String("registration_id", rec.ID),
		zap.String("announcement_id", rec.AnnouncementID),
		zap.Bool("online", rec.ParticipateOnline),
		zap.Bool("offline", rec.ParticipateOffline),
	)
	s.afterCommit(ctx, actor, action, existing, rec, models.EventRegistrationSaved)
	return rec, nil
}

func admissible(a *models.Announcement, now time.Time) error {
	if a.DeadlinePassed(now) {
		return &Error{Kind: KindDeadlinePassed}
	}
	if a.Status != models.AnnouncementActive {
		return &Error{Kind: KindAnnouncementClosed}
	}
	return nil
}

func (s *Service) findForEdit(ctx context.Context, actor models.Actor, regs []models.Registration, in SubmitInput) (*models.Registration, error) {
	var existing *models.Registration
	for i := range regs {
		if regs[i].ID == in.ID {
			existing = &regs[i]
			break
		}
	}
	if existing == nil {
		r, err := s.store.GetRegistration(ctx, in.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, &Error{Kind: KindNotFound, Field: "id"}
			}
			return nil, storeUnavailable(err)
		}
		existing = r
	}
	if existing.AnnouncementID != in.AnnouncementID {
		return nil, validationFailed("announcementId")
	}
	if existing.SupplierName != in.SupplierName {
		return nil, validationFailed("supplierName")
	}
	if !actor.IsAdmin() {
		if existing.SupplierName != actor.Name {
			return nil, forbidden("not your registration")
		}
		if existing.Status != models.RegistrationPending {
			return nil, forbidden("only pending registrations can be edited")
		}
	}
	cp := *existing
	return &cp, nil
}

// hasActiveDuplicate enforces one non-rejected registration per
// (announcement, supplier), ignoring the record with id exceptID.
func hasActiveDuplicate(regs []models.Registration, announcementID, supplier, exceptID string) bool {
	for i := range regs {
		r := &regs[i]
		if r.AnnouncementID == announcementID && r.SupplierName == supplier && r.IsActive() && r.ID != exceptID {
			return true
		}
	}
	return false
}

func checkQuota(gate *capacity.Gate, in SubmitInput) error {
	type list struct {
		ch    models.Channel
		items []models.SelectedProduct
	}
	var lists []list
	if in.Mode == ModeSeparate {
		if in.ParticipateOnline {
			lists = append(lists, list{models.ChannelOnline, in.SelectedProductsOnline})
		}
		if in.ParticipateOffline {
			lists = append(lists, list{models.ChannelOffline, in.SelectedProductsOffline})
		}
	} else {
		lists = append(lists, list{models.ChannelAll, in.SelectedProducts})
	}
	for _, l := range lists {
		res := gate.CheckProductQuota(l.items)
		if !res.OK {
			return &Error{
				Kind:     KindTooManyProductGroups,
				Channels: []models.Channel{l.ch},
				Limit:    res.Limit,
				Groups:   res.DistinctGroups,
			}
		}
	}
	return nil
}

// allocateID derives the id from the commit time, moving forward a
// millisecond at a time past ids already taken.
func (s *Service) allocateID(ctx context.Context, now time.Time) (string, error) {
	for i := 0; i < idAttempts; i++ {
		id := s.newID(now.Add(time.Duration(i) * time.Millisecond))
		_, err := s.store.GetRegistration(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return "", storeUnavailable(err)
		}
	}
	return "", storeUnavailable(errors.New("could not allocate registration id"))
}

func normalizeInput(actor models.Actor, in SubmitInput) (SubmitInput, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.AnnouncementID = strings.TrimSpace(in.AnnouncementID)
	in.SupplierName = strings.TrimSpace(in.SupplierName)

	if in.AnnouncementID == "" {
		return in, validationFailed("announcementId")
	}
	if in.SupplierName == "" {
		return in, validationFailed("supplierName")
	}
	if !actor.IsAdmin() && in.SupplierName != actor.Name {
		return in, forbidden("suppliers can only register themselves")
	}
	if !in.ParticipateOnline && !in.ParticipateOffline {
		return in, validationFailed("participation")
	}

	if in.Mode == "" {
		in.Mode = ModeCombined
		if len(in.SelectedProductsOnline) > 0 || len(in.SelectedProductsOffline) > 0 {
			in.Mode = ModeSeparate
		}
	}
	switch in.Mode {
	case ModeCombined:
		in.SelectedProducts = cleanProducts(in.SelectedProducts)
		if len(in.SelectedProducts) == 0 {
			return in, validationFailed("selectedProducts")
		}
		in.SelectedProductsOnline, in.SelectedProductsOffline = nil, nil
	case ModeSeparate:
		in.SelectedProducts = nil
		in.SelectedProductsOnline = cleanProducts(in.SelectedProductsOnline)
		in.SelectedProductsOffline = cleanProducts(in.SelectedProductsOffline)
		if !in.ParticipateOnline {
			in.SelectedProductsOnline = nil
		}
		if !in.ParticipateOffline {
			in.SelectedProductsOffline = nil
		}
		if in.ParticipateOnline && len(in.SelectedProductsOnline) == 0 {
			return in, validationFailed("selectedProductsOnline")
		}
		if in.ParticipateOffline && len(in.SelectedProductsOffline) == 0 {
			return in, validationFailed("selectedProductsOffline")
		}
	default:
		return in, validationFailed("mode")
	}
	return in, nil
}

// cleanProducts trims labels and drops empty or repeated entries.
func cleanProducts(items []models.SelectedProduct) []models.SelectedProduct {
	out := make([]models.SelectedProduct, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		it.Label = strings.Join(strings.Fields(it.Label), " ")
		if it.Label == "" || seen[it.Label] {
			continue
		}
		seen[it.Label] = true
		out = append(out, it)
	}
	return out
}

func (s *Service) afterCommit(ctx context.Context, actor models.Actor, action string, before, after *models.Registration, evType models.EventType) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	var b, a any
	ref := after
	if before != nil {
		b = before
		ref = before
	}
	if after != nil {
		a = after
		ref = after
	}

	if s.audit != nil {
		if err := s.audit.LogAction(ctx, actor.Name, action, b, a); err != nil {
			metrics.SideEffectFailures.WithLabelValues("audit").Inc()
			s.log.Warn("audit log failed", zap.String("action", action), zap.String("registration_id", ref.ID), zap.Error(err))
		}
	}
	if s.events != nil {
		ev := models.Event{
			Type:           evType,
			AnnouncementID: ref.AnnouncementID,
			RegistrationID: ref.ID,
			SupplierName:   ref.SupplierName,
			Status:         ref.Status,
			At:             s.now(),
		}
		if err := s.events.Publish(ctx, ev); err != nil {
			metrics.SideEffectFailures.WithLabelValues("publish").Inc()
			s.log.Warn("event publish failed", zap.String("type", string(evType)), zap.Error(err))
		}
	}
}

func observe(op string, err error) {
	outcome := "accepted"
	if err != nil {
		outcome = string(KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	metrics.ObserveAdmission(op, outcome)
}
