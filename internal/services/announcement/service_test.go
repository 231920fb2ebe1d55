package announcement

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/store"
)

var (
	t0       = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	admin    = models.Actor{Name: "Admin", Role: models.RoleAdmin}
	supplier = models.Actor{Name: "Toko A", Role: models.RoleSupplier}
)

func validInput() SaveInput {
	return SaveInput{
		Title:                "Bazaar Minggu 10",
		Description:          "Bazaar mingguan",
		WeekID:               "2025-W10",
		OnlineDateStart:      t0.Add(72 * time.Hour),
		OnlineDateEnd:        t0.Add(96 * time.Hour),
		OfflineDate:          t0.Add(120 * time.Hour),
		RegistrationDeadline: t0.Add(48 * time.Hour),
		DeliveryDate:         t0.Add(60 * time.Hour),
	}
}

func newService(m *store.Memory, now time.Time) *Service {
	return NewService(m, zap.NewNop(), WithClock(func() time.Time { return now }))
}

func TestSaveDefaults(t *testing.T) {
	m := store.NewMemory()
	svc := newService(m, t0)

	a, err := svc.Save(context.Background(), admin, "", validInput())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if a.MaxSuppliersOnline != 70 || a.MaxSuppliersOffline != 40 || a.MaxProductsPerSupplier != 3 {
		t.Fatalf("expected default caps, got %d/%d/%d", a.MaxSuppliersOnline, a.MaxSuppliersOffline, a.MaxProductsPerSupplier)
	}
	if a.Status != models.AnnouncementActive || a.DeliveryTime != "08:00" || a.CreatedBy != admin.Name {
		t.Fatalf("unexpected defaults %+v", a)
	}
	if _, err := m.GetAnnouncement(context.Background(), a.ID); err != nil {
		t.Fatalf("not stored: %v", err)
	}
}

func TestSaveValidation(t *testing.T) {
	svc := newService(store.NewMemory(), t0)

	tests := []struct {
		name  string
		edit  func(*SaveInput)
		field string
	}{
		{"title", func(in *SaveInput) { in.Title = "  " }, "title"},
		{"week", func(in *SaveInput) { in.WeekID = "" }, "weekId"},
		{"deadline after online start", func(in *SaveInput) { in.RegistrationDeadline = t0.Add(80 * time.Hour) }, "registrationDeadline"},
		{"deadline after offline", func(in *SaveInput) {
			in.OfflineDate = t0.Add(40 * time.Hour)
		}, "registrationDeadline"},
		{"online end before start", func(in *SaveInput) { in.OnlineDateEnd = t0.Add(70 * time.Hour) }, "onlineDateEnd"},
		{"negative cap", func(in *SaveInput) { in.MaxSuppliersOffline = -1 }, "maxSuppliersOffline"},
		{"policy", func(in *SaveInput) { in.GroupingPolicy = "fuzzy" }, "groupingPolicy"},
		{"delivery time", func(in *SaveInput) { in.DeliveryTime = "8 pagi" }, "deliveryTime"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.edit(&in)
			_, err := svc.Save(context.Background(), admin, "", in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if ve.Field != tt.field {
				t.Fatalf("expected field %s, got %s", tt.field, ve.Field)
			}
		})
	}

	if _, err := svc.Save(context.Background(), supplier, "", validInput()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestEditKeepsIdentity(t *testing.T) {
	m := store.NewMemory()
	svc := newService(m, t0)
	ctx := context.Background()

	a, err := svc.Save(ctx, admin, "", validInput())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	in := validInput()
	in.Title = "Bazaar Ramadhan"
	in.MaxProductsPerSupplier = 5
	in.MaxSuppliersOnline = 10
	in.MaxSuppliersOffline = 10
	got, err := svc.Save(ctx, admin, a.ID, in)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got.ID != a.ID || got.CreatedBy != admin.Name || got.Title != "Bazaar Ramadhan" || got.MaxProductsPerSupplier != 5 {
		t.Fatalf("unexpected edit result %+v", got)
	}

	in.MaxProductsPerSupplier = 0
	if _, err := svc.Save(ctx, admin, a.ID, in); err == nil {
		t.Fatalf("expected zero product quota refused on edit")
	}
	if _, err := svc.Save(ctx, admin, "missing", validInput()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListAutoCloses(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	a, err := newService(m, t0).Save(ctx, admin, "", validInput())
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	// After online end but before the offline day: still open.
	anns, _ := newService(m, t0.Add(100*time.Hour)).List(ctx)
	if anns[0].Status != models.AnnouncementActive {
		t.Fatalf("closed too early")
	}

	anns, err = newService(m, t0.Add(121*time.Hour)).List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if anns[0].Status != models.AnnouncementClosed {
		t.Fatalf("expected auto close")
	}
	stored, _ := m.GetAnnouncement(ctx, a.ID)
	if stored.Status != models.AnnouncementClosed {
		t.Fatalf("auto close not persisted")
	}
}

func TestCloseAndDelete(t *testing.T) {
	m := store.NewMemory()
	svc := newService(m, t0)
	ctx := context.Background()

	a, _ := svc.Save(ctx, admin, "", validInput())
	_ = m.SaveRegistration(ctx, &models.Registration{ID: "r1", AnnouncementID: a.ID, SupplierName: "Toko A", Status: models.RegistrationPending})

	if _, err := svc.Close(ctx, supplier, a.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	closed, err := svc.Close(ctx, admin, a.ID)
	if err != nil || closed.Status != models.AnnouncementClosed {
		t.Fatalf("close: %v", err)
	}

	if err := svc.Delete(ctx, admin, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.GetRegistration(ctx, "r1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("registrations should go with the announcement")
	}
	if err := svc.Delete(ctx, admin, a.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestParticipants(t *testing.T) {
	m := store.NewMemory()
	svc := newService(m, t0)
	ctx := context.Background()
	a, _ := svc.Save(ctx, admin, "", validInput())

	sel := func(ls ...string) []models.SelectedProduct {
		var out []models.SelectedProduct
		for _, l := range ls {
			out = append(out, models.SelectedProduct{Label: l, Value: l})
		}
		return out
	}
	regs := []models.Registration{
		{ID: "1", AnnouncementID: a.ID, SupplierName: "Toko A", ParticipateOnline: true, ParticipateOffline: true,
			SelectedProducts: sel("Kopi"), Status: models.RegistrationApproved, CreatedAt: t0},
		{ID: "2", AnnouncementID: a.ID, SupplierName: "Toko B", ParticipateOnline: true, ParticipateOffline: true,
			SelectedProductsOnline: sel("Teh"), SelectedProductsOffline: sel("Susu"), Status: models.RegistrationApproved, CreatedAt: t0.Add(time.Second)},
		{ID: "3", AnnouncementID: a.ID, SupplierName: "Toko C", ParticipateOffline: true,
			SelectedProducts: sel("Jus"), Status: models.RegistrationPending, CreatedAt: t0.Add(2 * time.Second)},
	}
	for i := range regs {
		_ = m.SaveRegistration(ctx, &regs[i])
	}

	r, err := svc.Participants(ctx, a.ID)
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if len(r.Online) != 2 || len(r.Offline) != 2 {
		t.Fatalf("expected two approved per channel, got %d/%d", len(r.Online), len(r.Offline))
	}
	if r.Online[0].Products[0] != "Kopi" || r.Offline[0].Products[0] != "Kopi" {
		t.Fatalf("combined list should serve both channels: %+v", r)
	}
	if r.Online[1].Products[0] != "Teh" || r.Offline[1].Products[0] != "Susu" {
		t.Fatalf("per-channel lists not used: %+v", r)
	}
}

// slowStore blocks announcement reads and registration deletes until
// the caller's context ends.
type slowStore struct {
	*store.Memory
}

func (s *slowStore) ListAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *slowStore) DeleteRegistration(ctx context.Context, id string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestOperationsAreBoundedByStoreTimeout(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	a, err := newService(m, t0).Save(ctx, admin, "", validInput())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = m.SaveRegistration(ctx, &models.Registration{ID: "r1", AnnouncementID: a.ID, SupplierName: "Toko A", Status: models.RegistrationPending})

	svc := NewService(&slowStore{Memory: m}, zap.NewNop(),
		WithClock(func() time.Time { return t0 }),
		WithStoreTimeout(50*time.Millisecond),
	)
	tests := []struct {
		name string
		run  func() error
	}{
		{"list", func() error { _, err := svc.List(ctx); return err }},
		{"delete cascade", func() error { return svc.Delete(ctx, admin, a.ID) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			err := tt.run()
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("expected deadline exceeded, got %v", err)
			}
			if elapsed := time.Since(start); elapsed > 5*time.Second {
				t.Fatalf("timeout not applied, took %s", elapsed)
			}
		})
	}
	if _, err := m.GetAnnouncement(ctx, a.ID); err != nil {
		t.Fatalf("announcement must survive a failed cascade: %v", err)
	}
}
