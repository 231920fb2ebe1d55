package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
)

func TestMemoryRegistrationsAreCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	r := &models.Registration{
		ID:               "1",
		AnnouncementID:   "a",
		SupplierName:     "Toko A",
		SelectedProducts: []models.SelectedProduct{{Label: "Roti Tawar", Value: "1"}},
		Status:           models.RegistrationPending,
	}
	if err := m.SaveRegistration(ctx, r); err != nil {
		t.Fatalf("save: %v", err)
	}
	r.SelectedProducts[0].Label = "changed"

	got, err := m.GetRegistration(ctx, "1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SelectedProducts[0].Label != "Roti Tawar" {
		t.Fatalf("stored record shares memory with caller: %q", got.SelectedProducts[0].Label)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt to be set")
	}

	got.SelectedProducts[0].Label = "changed again"
	again, _ := m.GetRegistration(ctx, "1")
	if again.SelectedProducts[0].Label != "Roti Tawar" {
		t.Fatalf("returned record shares memory with store")
	}
}

func TestMemoryListOrderAndFilters(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	t0 := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)

	regs := []models.Registration{
		{ID: "3", AnnouncementID: "a", SupplierName: "Toko C", CreatedAt: t0.Add(2 * time.Minute)},
		{ID: "1", AnnouncementID: "a", SupplierName: "Toko A", CreatedAt: t0},
		{ID: "2", AnnouncementID: "b", SupplierName: "Toko A", CreatedAt: t0.Add(time.Minute)},
	}
	for i := range regs {
		if err := m.SaveRegistration(ctx, &regs[i]); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	byAnn, _ := m.ListRegistrations(ctx, "a")
	if len(byAnn) != 2 || byAnn[0].ID != "1" || byAnn[1].ID != "3" {
		t.Fatalf("unexpected announcement listing: %+v", byAnn)
	}
	bySupplier, _ := m.ListRegistrationsBySupplier(ctx, "Toko A")
	if len(bySupplier) != 2 || bySupplier[0].ID != "1" || bySupplier[1].ID != "2" {
		t.Fatalf("unexpected supplier listing: %+v", bySupplier)
	}

	if _, err := m.Snapshot(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown announcement, got %v", err)
	}
	if err := m.SaveAnnouncement(ctx, &models.Announcement{ID: "a"}); err != nil {
		t.Fatalf("save announcement: %v", err)
	}
	snap, err := m.Snapshot(ctx, "a")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Announcement.ID != "a" || len(snap.Registrations) != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestMemoryUsersAndDeletes(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.CreateUser(ctx, &models.User{Name: "Toko A", Role: models.RoleSupplier}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.CreateUser(ctx, &models.User{Name: "Toko A"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := m.UpdateUser(ctx, &models.User{Name: "Toko B"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := m.DeleteRegistration(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := m.DeleteProduct(ctx, 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	p := &models.Product{SupplierName: "Toko A", NamaProduk: "Roti"}
	if err := m.SaveProduct(ctx, p); err != nil || p.ID != 1 {
		t.Fatalf("expected product id 1, got %d (%v)", p.ID, err)
	}
	if list, _ := m.ListProducts(ctx, "Toko B"); len(list) != 0 {
		t.Fatalf("expected no products for Toko B, got %d", len(list))
	}
}

func TestMemoryAuditNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, action := range []string{"add", "edit", "delete"} {
		if err := m.AppendAudit(ctx, &models.AuditLog{Action: action}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got, _ := m.ListAudit(ctx, 2)
	if len(got) != 2 || got[0].Action != "delete" || got[1].Action != "edit" {
		t.Fatalf("unexpected audit order: %+v", got)
	}
}
