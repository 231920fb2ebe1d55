// Package announcement manages bazaar announcements: creation and edits
// by admins, automatic closing, and the participant roster.
package announcement

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/services/grouping"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/store"
)

var ErrForbidden = errors.New("admin only")

const (
	ReasonRequired         = "required"
	ReasonAfterOnlineStart = "must not be after the online start"
	ReasonAfterOnlineEnd   = "must not be after the online end"
	ReasonAfterOffline     = "must not be after the offline date"
	ReasonBeforeStart      = "must not be before the online start"
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return "invalid " + e.Field
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type Store interface {
	ListAnnouncements(ctx context.Context) ([]models.Announcement, error)
	GetAnnouncement(ctx context.Context, id string) (*models.Announcement, error)
	SaveAnnouncement(ctx context.Context, a *models.Announcement) error
	DeleteAnnouncement(ctx context.Context, id string) error
	ListRegistrations(ctx context.Context, announcementID string) ([]models.Registration, error)
	DeleteRegistration(ctx context.Context, id string) error
}

type AuditLogger interface {
	LogAction(ctx context.Context, actor, action string, before, after any) error
}

type Publisher interface {
	Publish(ctx context.Context, ev models.Event) error
}

// DefaultStoreTimeout bounds every store round trip of one operation.
const DefaultStoreTimeout = 15 * time.Second

type Service struct {
	store   Store
	audit   AuditLogger
	events  Publisher
	log     *zap.Logger
	now     func() time.Time
	timeout time.Duration
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }
func WithAudit(a AuditLogger) Option        { return func(s *Service) { s.audit = a } }
func WithPublisher(p Publisher) Option      { return func(s *Service) { s.events = p } }

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

type SaveInput struct {
	Title       string `json:"title"`
	Greeting    string `json:"greeting"`
	Description string `json:"description"`
	Terms       string `json:"terms"`
	WeekID      string `json:"weekId"`

	OnlineDateStart      time.Time `json:"onlineDateStart"`
	OnlineDateEnd        time.Time `json:"onlineDateEnd"`
	OfflineDate          time.Time `json:"offlineDate"`
	RegistrationDeadline time.Time `json:"registrationDeadline"`
	DeliveryDate         time.Time `json:"deliveryDate"`
	DeliveryTime         string    `json:"deliveryTime"`

	MaxSuppliersOnline     int    `json:"maxSuppliersOnline"`
	MaxSuppliersOffline    int    `json:"maxSuppliersOffline"`
	MaxProductsPerSupplier int    `json:"maxProductsPerSupplier"`
	GroupingPolicy         string `json:"groupingPolicy"`

	Status models.AnnouncementStatus `json:"status"`
}

func (in *SaveInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.WeekID = strings.TrimSpace(in.WeekID)
	in.DeliveryTime = strings.TrimSpace(in.DeliveryTime)

	required := []struct {
		field string
		empty bool
	}{
		{"title", in.Title == ""},
		{"description", in.Description == ""},
		{"weekId", in.WeekID == ""},
		{"onlineDateStart", in.OnlineDateStart.IsZero()},
		{"onlineDateEnd", in.OnlineDateEnd.IsZero()},
		{"offlineDate", in.OfflineDate.IsZero()},
		{"registrationDeadline", in.RegistrationDeadline.IsZero()},
		{"deliveryDate", in.DeliveryDate.IsZero()},
	}
	for _, r := range required {
		if r.empty {
			return &ValidationError{Field: r.field, Reason: ReasonRequired}
		}
	}

	if in.RegistrationDeadline.After(in.OnlineDateStart) {
		return &ValidationError{Field: "registrationDeadline", Reason: ReasonAfterOnlineStart}
	}
	if in.RegistrationDeadline.After(in.OnlineDateEnd) {
		return &ValidationError{Field: "registrationDeadline", Reason: ReasonAfterOnlineEnd}
	}
	if in.RegistrationDeadline.After(in.OfflineDate) {
		return &ValidationError{Field: "registrationDeadline", Reason: ReasonAfterOffline}
	}
	if in.OnlineDateEnd.Before(in.OnlineDateStart) {
		return &ValidationError{Field: "onlineDateEnd", Reason: ReasonBeforeStart}
	}
	if in.DeliveryTime != "" {
		if _, err := time.Parse("15:04", in.DeliveryTime); err != nil {
			return &ValidationError{Field: "deliveryTime", Reason: "expected HH:MM"}
		}
	}

	if in.MaxSuppliersOnline < 0 {
		return &ValidationError{Field: "maxSuppliersOnline", Reason: "must not be negative"}
	}
	if in.MaxSuppliersOffline < 0 {
		return &ValidationError{Field: "maxSuppliersOffline", Reason: "must not be negative"}
	}
	if in.MaxProductsPerSupplier < 0 {
		return &ValidationError{Field: "maxProductsPerSupplier", Reason: "must be at least 1"}
	}
	if in.GroupingPolicy != "" {
		if _, err := grouping.ParsePolicy(in.GroupingPolicy); err != nil {
			return &ValidationError{Field: "groupingPolicy", Reason: err.Error()}
		}
	}
	switch in.Status {
	case "", models.AnnouncementDraft, models.AnnouncementActive, models.AnnouncementClosed:
	default:
		return &ValidationError{Field: "status"}
	}
	return nil
}

// Save creates an announcement when id is empty and replaces the editable
// fields of an existing one otherwise. Zero caps on create take the
// defaults.
func (s *Service) Save(ctx context.Context, actor models.Actor, id string, in SaveInput) (*models.Announcement, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	now := s.now()
	var before *models.Announcement
	a := &models.Announcement{}
	if id != "" {
		cur, err := s.store.GetAnnouncement(ctx, id)
		if err != nil {
			return nil, err
		}
		cp := *cur
		before = &cp
		a = cur
	} else {
		newID, err := s.allocateID(ctx, now)
		if err != nil {
			return nil, err
		}
		a.ID = newID
		a.CreatedBy = actor.Name
		a.CreatedAt = now
		a.Status = models.AnnouncementActive
		if in.MaxSuppliersOnline == 0 {
			in.MaxSuppliersOnline = models.DefaultMaxSuppliersOnline
		}
		if in.MaxSuppliersOffline == 0 {
			in.MaxSuppliersOffline = models.DefaultMaxSuppliersOffline
		}
		if in.MaxProductsPerSupplier == 0 {
			in.MaxProductsPerSupplier = models.DefaultMaxProductsPerSupplier
		}
	}
	if in.MaxProductsPerSupplier < 1 {
		return nil, &ValidationError{Field: "maxProductsPerSupplier", Reason: "must be at least 1"}
	}
	if in.DeliveryTime == "" {
		in.DeliveryTime = "08:00"
	}

	a.Title = in.Title
	a.Greeting = strings.TrimSpace(in.Greeting)
	a.Description = in.Description
	a.Terms = strings.TrimSpace(in.Terms)
	a.WeekID = in.WeekID
	a.OnlineDateStart = in.OnlineDateStart
	a.OnlineDateEnd = in.OnlineDateEnd
	a.OfflineDate = in.OfflineDate
	a.RegistrationDeadline = in.RegistrationDeadline
	a.DeliveryDate = in.DeliveryDate
	a.DeliveryTime = in.DeliveryTime
	a.MaxSuppliersOnline = in.MaxSuppliersOnline
	a.MaxSuppliersOffline = in.MaxSuppliersOffline
	a.MaxProductsPerSupplier = in.MaxProductsPerSupplier
	a.GroupingPolicy = in.GroupingPolicy
	if in.Status != "" {
		a.Status = in.Status
	}
	a.UpdatedAt = now

	if err := s.store.SaveAnnouncement(ctx, a); err != nil {
		return nil, err
	}

	action := "add"
	if before != nil {
		action = "edit"
	}
	s.log.Info("announcement saved", zap.String("actor", actor.Name), zap.String("action", action), zap.String("announcement_id", a.ID))
	s.afterCommit(ctx, actor, action, before, a)
	return a, nil
}

// allocateID uses the creation time in milliseconds, moving forward past
// ids already taken.
func (s *Service) allocateID(ctx context.Context, now time.Time) (string, error) {
	for i := 0; i < 10; i++ {
		id := strconv.FormatInt(now.UnixMilli()+int64(i), 10)
		_, err := s.store.GetAnnouncement(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errors.New("could not allocate announcement id")
}

// List returns every announcement, closing and persisting the ones whose
// online window and offline day are both over.
func (s *Service) List(ctx context.Context) ([]models.Announcement, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	anns, err := s.store.ListAnnouncements(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range anns {
		if !anns[i].ShouldAutoClose(now) {
			continue
		}
		anns[i].Status = models.AnnouncementClosed
		anns[i].UpdatedAt = now
		if err := s.store.SaveAnnouncement(ctx, &anns[i]); err != nil {
			s.log.Warn("auto close failed", zap.String("announcement_id", anns[i].ID), zap.Error(err))
			continue
		}
		s.log.Info("announcement auto closed", zap.String("announcement_id", anns[i].ID))
	}
	return anns, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Announcement, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.store.GetAnnouncement(ctx, id)
}

func (s *Service) Close(ctx context.Context, actor models.Actor, id string) (*models.Announcement, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	a, err := s.store.GetAnnouncement(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *a
	a.Status = models.AnnouncementClosed
	a.UpdatedAt = s.now()
	if err := s.store.SaveAnnouncement(ctx, a); err != nil {
		return nil, err
	}
	s.log.Info("announcement closed", zap.String("actor", actor.Name), zap.String("announcement_id", id))
	s.afterCommit(ctx, actor, "close", &before, a)
	return a, nil
}

// Delete removes the announcement together with its registrations.
func (s *Service) Delete(ctx context.Context, actor models.Actor, id string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	a, err := s.store.GetAnnouncement(ctx, id)
	if err != nil {
		return err
	}
	regs, err := s.store.ListRegistrations(ctx, id)
	if err != nil {
		return err
	}
	for _, r := range regs {
		if err := s.store.DeleteRegistration(ctx, r.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("delete registration %s: %w", r.ID, err)
		}
	}
	if err := s.store.DeleteAnnouncement(ctx, id); err != nil {
		return err
	}
	s.log.Info("announcement deleted", zap.String("actor", actor.Name), zap.String("announcement_id", id), zap.Int("registrations", len(regs)))
	s.afterCommit(ctx, actor, "delete", a, nil)
	return nil
}

type Participant struct {
	SupplierName string   `json:"supplierName"`
	Products     []string `json:"products"`
}

type Roster struct {
	AnnouncementID string        `json:"announcementId"`
	Online         []Participant `json:"online"`
	Offline        []Participant `json:"offline"`
}

// Participants lists the approved suppliers of each channel with the
// products they sell there.
func (s *Service) Participants(ctx context.Context, id string) (*Roster, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	if _, err := s.store.GetAnnouncement(ctx, id); err != nil {
		return nil, err
	}
	regs, err := s.store.ListRegistrations(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &Roster{AnnouncementID: id, Online: []Participant{}, Offline: []Participant{}}
	for i := range regs {
		r := &regs[i]
		if r.Status != models.RegistrationApproved {
			continue
		}
		if r.ParticipateOnline {
			out.Online = append(out.Online, Participant{r.SupplierName, models.Labels(r.ProductsFor(models.ChannelOnline))})
		}
		if r.ParticipateOffline {
			out.Offline = append(out.Offline, Participant{r.SupplierName, models.Labels(r.ProductsFor(models.ChannelOffline))})
		}
	}
	return out, nil
}

func (s *Service) afterCommit(ctx context.Context, actor models.Actor, action string, before, after *models.Announcement) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()

	var b, a any
	ref := after
	if before != nil {
		b = before
		if ref == nil {
			ref = before
		}
	}
	if after != nil {
		a = after
	}
	if s.audit != nil {
		if err := s.audit.LogAction(ctx, actor.Name, action, b, a); err != nil {
			s.log.Warn("audit log failed", zap.String("action", action), zap.String("announcement_id", ref.ID), zap.Error(err))
		}
	}
	if s.events != nil {
		ev := models.Event{Type: models.EventAnnouncementSaved, AnnouncementID: ref.ID, At: s.now()}
		if err := s.events.Publish(ctx, ev); err != nil {
			s.log.Warn("event publish failed", zap.String("announcement_id", ref.ID), zap.Error(err))
		}
	}
}
