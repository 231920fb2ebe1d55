package admission

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/services/capacity"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/store"
)

type ReviewInput struct {
	Status     models.RegistrationStatus `json:"status"`
	AdminNotes string                    `json:"adminNotes"`
}

// Review sets the status of a registration. Only admins may review.
// Moving a rejected registration back to pending or approved takes a slot
// again, so it goes through the duplicate and capacity checks.
func (s *Service) Review(ctx context.Context, actor models.Actor, id string, in ReviewInput) (*models.Registration, error) {
	rec, err := s.review(ctx, actor, id, in)
	observe("review", err)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) review(ctx context.Context, actor models.Actor, id string, in ReviewInput) (*models.Registration, error) {
	if !actor.IsAdmin() {
		return nil, forbidden("admin only")
	}
	if !in.Status.Valid() {
		return nil, validationFailed("status")
	}
	in.AdminNotes = strings.TrimSpace(in.AdminNotes)
	if in.Status == models.RegistrationRejected && in.AdminNotes == "" {
		return nil, validationFailed("adminNotes")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	before, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if before.Status == models.RegistrationRejected && in.Status != models.RegistrationRejected {
		snap, err := s.store.Snapshot(ctx, before.AnnouncementID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, &Error{Kind: KindNotFound, Field: "announcementId"}
			}
			return nil, storeUnavailable(err)
		}
		if hasActiveDuplicate(snap.Registrations, before.AnnouncementID, before.SupplierName, before.ID) {
			return nil, &Error{Kind: KindAlreadyRegistered}
		}
		gate := capacity.New(snap.Announcement, snap.Registrations, s.PolicyFor(&snap.Announcement))
		refused := gate.CanRegister(before.SupplierName, before.ParticipateOnline, before.ParticipateOffline).
			Refused(before.ParticipateOnline, before.ParticipateOffline)
		if len(refused) > 0 {
			return nil, &Error{Kind: KindCapacityFull, Channels: refused}
		}
	}

	rec := *before
	rec.Status = in.Status
	rec.AdminNotes = in.AdminNotes
	rec.ReviewedBy = actor.Name
	rec.UpdatedAt = s.now()

	if err := s.store.SaveRegistration(ctx, &rec); err != nil {
		return nil, storeUnavailable(err)
	}

	s.log.Info("registration reviewed",
		zap.String("actor", actor.Name),
		zap.String("registration_id", rec.ID),
		zap.String("from", string(before.Status)),
		zap.String("to", string(rec.Status)),
	)
	s.afterCommit(ctx, actor, "review", before, &rec, models.EventRegistrationReviewed)
	return &rec, nil
}

// Delete removes a registration. Suppliers may delete only their own
// pending registrations.
func (s *Service) Delete(ctx context.Context, actor models.Actor, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rec, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		if rec.SupplierName != actor.Name {
			return forbidden("not your registration")
		}
		if rec.Status != models.RegistrationPending {
			return forbidden("only pending registrations can be deleted")
		}
	}
	if err := s.store.DeleteRegistration(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &Error{Kind: KindNotFound, Field: "id"}
		}
		return storeUnavailable(err)
	}

	s.log.Info("registration deleted", zap.String("actor", actor.Name), zap.String("registration_id", id))
	s.afterCommit(ctx, actor, "delete", rec, nil, models.EventRegistrationDeleted)
	return nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Registration, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, validationFailed("id")
	}
	rec, err := s.store.GetRegistration(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &Error{Kind: KindNotFound, Field: "id"}
		}
		return nil, storeUnavailable(err)
	}
	return rec, nil
}

// ListForSupplier returns the supplier's registrations, newest first.
func (s *Service) ListForSupplier(ctx context.Context, actor models.Actor, supplier string) ([]models.Registration, error) {
	supplier = strings.TrimSpace(supplier)
	if supplier == "" {
		supplier = actor.Name
	}
	if !actor.IsAdmin() && supplier != actor.Name {
		return nil, forbidden("not your registrations")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	regs, err := s.store.ListRegistrationsBySupplier(ctx, supplier)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	return regs, nil
}

// ListForAnnouncement returns every registration of an announcement,
// optionally filtered by status. Admin only.
func (s *Service) ListForAnnouncement(ctx context.Context, actor models.Actor, announcementID string, status models.RegistrationStatus) ([]models.Registration, error) {
	if !actor.IsAdmin() {
		return nil, forbidden("admin only")
	}
	if status != "" && !status.Valid() {
		return nil, validationFailed("status")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	regs, err := s.store.ListRegistrations(ctx, announcementID)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	if status == "" {
		return regs, nil
	}
	out := regs[:0]
	for _, r := range regs {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

type AvailabilityView struct {
	AnnouncementID string                `json:"announcementId"`
	Open           bool                  `json:"open"`
	DeadlinePassed bool                  `json:"deadlinePassed"`
	Capacity       capacity.Summary      `json:"capacity"`
	Allowed        capacity.Availability `json:"allowed"`
	// Registration is the supplier's current active registration, if any.
	Registration *models.Registration `json:"registration,omitempty"`
}

// Availability tells the registration form what supplier could still
// request. It reads possibly cached data and is advisory: Submit decides
// again on fresh state.
func (s *Service) Availability(ctx context.Context, announcementID, supplier string) (*AvailabilityView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ann, err := s.store.GetAnnouncement(ctx, announcementID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &Error{Kind: KindNotFound, Field: "announcementId"}
		}
		return nil, storeUnavailable(err)
	}
	regs, err := s.store.ListRegistrations(ctx, announcementID)
	if err != nil {
		return nil, storeUnavailable(err)
	}

	gate := capacity.New(*ann, regs, s.PolicyFor(ann))
	now := s.now()
	view := &AvailabilityView{
		AnnouncementID: ann.ID,
		DeadlinePassed: ann.DeadlinePassed(now),
		Capacity:       gate.Summary(),
		Allowed:        gate.CanRegister(supplier, true, true),
	}
	view.Open = !view.DeadlinePassed && ann.Status == models.AnnouncementActive
	for i := range regs {
		if regs[i].SupplierName == supplier && regs[i].IsActive() {
			r := regs[i]
			view.Registration = &r
			break
		}
	}
	return view, nil
}

// CheckSelection previews how items count against the product quota.
func (s *Service) CheckSelection(ctx context.Context, announcementID string, items []models.SelectedProduct) (capacity.QuotaResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ann, err := s.store.GetAnnouncement(ctx, announcementID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return capacity.QuotaResult{}, &Error{Kind: KindNotFound, Field: "announcementId"}
		}
		return capacity.QuotaResult{}, storeUnavailable(err)
	}
	gate := capacity.New(*ann, nil, s.PolicyFor(ann))
	return gate.CheckProductQuota(cleanProducts(items)), nil
}
