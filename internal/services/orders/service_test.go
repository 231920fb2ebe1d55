package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/store"
)

var (
	admin = models.Actor{Name: "Admin", Role: models.RoleAdmin}
	tokoA = models.Actor{Name: "Toko A", Role: models.RoleSupplier}
)

const week = "2025-W10"

func product(label string, hjk, hpp int64) models.SelectedProduct {
	return models.SelectedProduct{
		Label: label,
		Value: label,
		Data:  &models.ProductData{NamaProduk: label, HJK: decimal.NewFromInt(hjk), HPP: decimal.NewFromInt(hpp)},
	}
}

// seedWeek stores an active announcement for week with three suppliers:
// Toko A approved online, Toko B pending and Toko C approved offline only.
func seedWeek(t *testing.T, m *store.Memory) {
	t.Helper()
	ctx := context.Background()
	if err := m.SaveAnnouncement(ctx, &models.Announcement{ID: "a1", WeekID: week, Status: models.AnnouncementActive}); err != nil {
		t.Fatalf("save announcement: %v", err)
	}
	regs := []models.Registration{
		{ID: "r1", AnnouncementID: "a1", SupplierName: "Toko A", ParticipateOnline: true, Status: models.RegistrationApproved,
			SelectedProducts: []models.SelectedProduct{product("Roti Tawar 400 gr", 12, 8000), product("Donat 1 pcs", 5000, 3000)}},
		{ID: "r2", AnnouncementID: "a1", SupplierName: "Toko B", ParticipateOnline: true, Status: models.RegistrationPending,
			SelectedProducts: []models.SelectedProduct{product("Kopi 250 gr", 40000, 30000)}},
		{ID: "r3", AnnouncementID: "a1", SupplierName: "Toko C", ParticipateOffline: true, Status: models.RegistrationApproved,
			SelectedProducts: []models.SelectedProduct{product("Keripik 1 bks", 10000, 7000)}},
	}
	for i := range regs {
		if err := m.SaveRegistration(ctx, &regs[i]); err != nil {
			t.Fatalf("save registration: %v", err)
		}
	}
}

func TestAdjustedPrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12", "12000"},
		{"12.5", "12500"},
		{"999", "999000"},
		{"1000", "1000"},
		{"15000", "15000"},
		{"0", "0"},
		{"-5", "0"},
	}
	for _, tt := range tests {
		got := AdjustedPrice(decimal.RequireFromString(tt.in))
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Fatalf("AdjustedPrice(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestAllowedProductsFromApprovedOnlineSuppliers(t *testing.T) {
	m := store.NewMemory()
	seedWeek(t, m)
	svc := NewService(m, zap.NewNop())

	opts, err := svc.AllowedProducts(context.Background(), admin, week)
	if err != nil {
		t.Fatalf("allowed: %v", err)
	}
	if len(opts) != 2 {
		t.Fatalf("expected Toko A's two products only, got %+v", opts)
	}
	for _, o := range opts {
		if o.Owner != "Toko A" {
			t.Fatalf("unexpected owner %s", o.Owner)
		}
	}

	if _, err := svc.AllowedProducts(context.Background(), tokoA, week); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for supplier, got %v", err)
	}
}

func TestAllowedProductsFallsBackToCatalog(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	if err := m.CreateUser(ctx, &models.User{Name: "Toko A", Role: models.RoleSupplier}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	ps := []models.Product{
		{SupplierName: "Toko A", NamaProduk: "Roti", Ukuran: "1", Satuan: "pcs", Aktif: true},
		{SupplierName: "Toko A", NamaProduk: "Kue", Aktif: false},
		{SupplierName: "Toko Hilang", NamaProduk: "Teh", Aktif: true},
	}
	for i := range ps {
		if err := m.SaveProduct(ctx, &ps[i]); err != nil {
			t.Fatalf("save product: %v", err)
		}
	}
	// Closed announcements do not restrict the week.
	if err := m.SaveAnnouncement(ctx, &models.Announcement{ID: "a1", WeekID: week, Status: models.AnnouncementClosed}); err != nil {
		t.Fatalf("save announcement: %v", err)
	}

	opts, err := NewService(m, zap.NewNop()).AllowedProducts(ctx, admin, week)
	if err != nil {
		t.Fatalf("allowed: %v", err)
	}
	if len(opts) != 1 || opts[0].Label != "Roti 1 pcs" || opts[0].Owner != "Toko A" {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestAllowedProductsFillsPricesFromCatalog(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	if err := m.SaveAnnouncement(ctx, &models.Announcement{ID: "a1", WeekID: week, Status: models.AnnouncementActive}); err != nil {
		t.Fatalf("save announcement: %v", err)
	}
	p := &models.Product{SupplierName: "Toko A", NamaProduk: "Roti", Ukuran: "1", Satuan: "pcs", HJK: decimal.NewFromInt(7000), Aktif: true}
	if err := m.SaveProduct(ctx, p); err != nil {
		t.Fatalf("save product: %v", err)
	}
	reg := &models.Registration{ID: "r1", AnnouncementID: "a1", SupplierName: "Toko A", ParticipateOnline: true,
		Status: models.RegistrationApproved, SelectedProducts: []models.SelectedProduct{{Label: "Roti 1 pcs", Value: "Roti"}}}
	if err := m.SaveRegistration(ctx, reg); err != nil {
		t.Fatalf("save registration: %v", err)
	}

	opts, err := NewService(m, zap.NewNop()).AllowedProducts(ctx, admin, week)
	if err != nil {
		t.Fatalf("allowed: %v", err)
	}
	if len(opts) != 1 || opts[0].Data == nil || !opts[0].Data.HJK.Equal(decimal.NewFromInt(7000)) {
		t.Fatalf("expected catalog price, got %+v", opts)
	}
}

func TestSaveComputesPayment(t *testing.T) {
	m := store.NewMemory()
	seedWeek(t, m)
	ctx := context.Background()
	now := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	svc := NewService(m, zap.NewNop(), WithAudit(store.NewAuditWriter(m)), WithClock(func() time.Time { return now }))

	o, err := svc.Save(ctx, admin, week, uuid.Nil, OrderInput{Pemesan: " Ani ", ProductLabel: "Roti Tawar 400 gr", Jumlah: 3})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if o.Pemesan != "Ani" || o.SupplierName != "Toko A" || o.WeekID != week {
		t.Fatalf("unexpected order %+v", o)
	}
	if !o.HargaSatuan.Equal(decimal.NewFromInt(12000)) || !o.Bayar.Equal(decimal.NewFromInt(36000)) {
		t.Fatalf("expected 3 x Rp12.000, got %s / %s", o.HargaSatuan, o.Bayar)
	}
	if !o.HPP.Equal(decimal.NewFromInt(8000)) {
		t.Fatalf("expected cost copied from product, got %s", o.HPP)
	}

	edited, err := svc.Save(ctx, admin, "", o.ID, OrderInput{Pemesan: "Ani", ProductLabel: "Donat 1 pcs", Jumlah: 2, Catatan: "tanpa gula"})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.WeekID != week || !edited.Bayar.Equal(decimal.NewFromInt(10000)) || edited.Catatan != "tanpa gula" {
		t.Fatalf("unexpected edit %+v", edited)
	}

	logs, _ := m.ListAudit(ctx, 0)
	if len(logs) != 2 || logs[0].Action != "edit" || logs[1].Action != "add" || logs[0].Target != "week_entry" {
		t.Fatalf("unexpected audit rows %+v", logs)
	}
}

func TestSaveRefusals(t *testing.T) {
	m := store.NewMemory()
	seedWeek(t, m)
	svc := NewService(m, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name  string
		actor models.Actor
		in    OrderInput
		field string
	}{
		{"missing customer", admin, OrderInput{ProductLabel: "Donat 1 pcs", Jumlah: 1}, "pemesan"},
		{"missing product", admin, OrderInput{Pemesan: "Ani", Jumlah: 1}, "produkLabel"},
		{"zero quantity", admin, OrderInput{Pemesan: "Ani", ProductLabel: "Donat 1 pcs"}, "jumlah"},
		{"pending supplier", admin, OrderInput{Pemesan: "Ani", ProductLabel: "Kopi 250 gr", Jumlah: 1}, "produkLabel"},
		{"offline only supplier", admin, OrderInput{Pemesan: "Ani", ProductLabel: "Keripik 1 bks", Jumlah: 1}, "produkLabel"},
		{"wrong supplier", admin, OrderInput{Pemesan: "Ani", ProductLabel: "Donat 1 pcs", SupplierName: "Toko B", Jumlah: 1}, "produkLabel"},
		{"supplier", tokoA, OrderInput{Pemesan: "Ani", ProductLabel: "Donat 1 pcs", Jumlah: 1}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Save(ctx, tt.actor, week, uuid.Nil, tt.in)
			if tt.field == "" {
				if !errors.Is(err, ErrForbidden) {
					t.Fatalf("expected forbidden, got %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Fatalf("expected validation error on %s, got %v", tt.field, err)
			}
		})
	}

	if _, err := svc.Save(ctx, admin, week, uuid.New(), OrderInput{Pemesan: "Ani", ProductLabel: "Donat 1 pcs", Jumlah: 1}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for unknown order, got %v", err)
	}
	if list, _ := m.ListOrders(ctx, ""); len(list) != 0 {
		t.Fatalf("refused saves must not store anything, got %d", len(list))
	}
}

func TestListSortsByCustomerAndDelete(t *testing.T) {
	m := store.NewMemory()
	seedWeek(t, m)
	svc := NewService(m, zap.NewNop(), WithAudit(store.NewAuditWriter(m)))
	ctx := context.Background()

	var last *models.WeekOrder
	for _, name := range []string{"budi", "Ani", "Cici"} {
		o, err := svc.Save(ctx, admin, week, uuid.Nil, OrderInput{Pemesan: name, ProductLabel: "Donat 1 pcs", Jumlah: 1})
		if err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
		last = o
	}
	if _, err := svc.Save(ctx, admin, "2025-W11", uuid.Nil, OrderInput{Pemesan: "Dodi", ProductLabel: "Teh", Jumlah: 1}); err == nil {
		t.Fatalf("expected refusal for a week with nothing on offer")
	}

	list, err := svc.List(ctx, admin, week)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].Pemesan != "Ani" || list[1].Pemesan != "budi" || list[2].Pemesan != "Cici" {
		t.Fatalf("unexpected order %+v", list)
	}

	if err := svc.Delete(ctx, tokoA, last.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden delete, got %v", err)
	}
	if err := svc.Delete(ctx, admin, last.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, admin, last.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if list, _ := svc.List(ctx, admin, ""); len(list) != 2 {
		t.Fatalf("expected two orders left, got %d", len(list))
	}
}

func TestMissingAndRestore(t *testing.T) {
	m := store.NewMemory()
	seedWeek(t, m)
	svc := NewService(m, zap.NewNop(), WithAudit(store.NewAuditWriter(m)))
	ctx := context.Background()

	save := func(name string) *models.WeekOrder {
		o, err := svc.Save(ctx, admin, week, uuid.Nil, OrderInput{Pemesan: name, ProductLabel: "Donat 1 pcs", Jumlah: 2})
		if err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
		return o
	}
	kept, lost, removed := save("Ani"), save("Budi"), save("Cici")
	if _, err := svc.Save(ctx, admin, "", lost.ID, OrderInput{Pemesan: "Budi", ProductLabel: "Donat 1 pcs", Jumlah: 4}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	// Dropped without an audit row, like a lost write.
	if err := m.DeleteOrder(ctx, lost.ID); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if err := svc.Delete(ctx, admin, removed.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	missing, err := svc.Missing(ctx, admin, week)
	if err != nil {
		t.Fatalf("missing: %v", err)
	}
	if len(missing) != 2 {
		t.Fatalf("expected two missing orders, got %+v", missing)
	}
	byID := map[uuid.UUID]MissingOrder{}
	for _, mo := range missing {
		byID[mo.ID] = mo
	}
	if mo, ok := byID[lost.ID]; !ok || mo.Deleted || mo.Jumlah != 4 {
		t.Fatalf("expected lost order with its edited quantity, got %+v", mo)
	}
	if mo, ok := byID[removed.ID]; !ok || !mo.Deleted {
		t.Fatalf("expected deleted order flagged, got %+v", mo)
	}
	if _, ok := byID[kept.ID]; ok {
		t.Fatalf("stored orders are not missing")
	}
	if other, _ := svc.Missing(ctx, admin, "2025-W11"); len(other) != 0 {
		t.Fatalf("expected nothing missing for another week, got %d", len(other))
	}

	restored, err := svc.Restore(ctx, admin, week, []uuid.UUID{lost.ID, kept.ID})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if len(restored) != 1 || restored[0].ID != lost.ID {
		t.Fatalf("expected only the lost order restored, got %+v", restored)
	}
	got, err := m.GetOrder(ctx, lost.ID)
	if err != nil || got.Jumlah != 4 || !got.Bayar.Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("unexpected restored order %+v (%v)", got, err)
	}
	logs, _ := m.ListAudit(ctx, 1)
	if logs[0].Action != "restore" {
		t.Fatalf("expected restore audit row, got %s", logs[0].Action)
	}
	if again, _ := svc.Missing(ctx, admin, week); len(again) != 1 {
		t.Fatalf("expected only the deleted order still missing, got %d", len(again))
	}
}

type slowStore struct {
	*store.Memory
}

func (s slowStore) ListOrders(ctx context.Context, weekID string) ([]models.WeekOrder, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestOperationsAreBoundedByStoreTimeout(t *testing.T) {
	svc := NewService(slowStore{store.NewMemory()}, zap.NewNop(), WithStoreTimeout(20*time.Millisecond))
	start := time.Now()
	if _, err := svc.CustomerInvoices(context.Background(), admin, week); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("store timeout not applied")
	}
}
