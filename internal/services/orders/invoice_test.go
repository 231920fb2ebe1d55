package orders

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
)

func order(pemesan, label, supplier, catatan string, qty int, unit, hpp int64) models.WeekOrder {
	return models.WeekOrder{
		Pemesan:      pemesan,
		ProductLabel: label,
		SupplierName: supplier,
		Catatan:      catatan,
		Jumlah:       qty,
		HargaSatuan:  decimal.NewFromInt(unit),
		HPP:          decimal.NewFromInt(hpp),
		Bayar:        decimal.NewFromInt(unit * int64(qty)),
	}
}

func sheet() []models.WeekOrder {
	return []models.WeekOrder{
		order("budi", "Donat 1 pcs", "Toko A", "", 2, 5000, 3000),
		order("Ani", "Donat 1 pcs", "Toko A", "", 1, 5000, 3000),
		order("Ani", "Donat 1 pcs", "Toko A", "", 3, 5000, 3000),
		order("Ani", "Donat 1 pcs", "Toko A", "tanpa gula", 1, 5000, 3000),
		order("Ani", "Kopi 250 gr", "toko b", "", 1, 40000, 30000),
		order("Cici", "Teh 1 pcs", "", "", 5, 2000, 1000),
	}
}

func TestCustomerInvoices(t *testing.T) {
	got := CustomerInvoices(sheet())
	if len(got) != 3 || got[0].Pemesan != "Ani" || got[1].Pemesan != "budi" || got[2].Pemesan != "Cici" {
		t.Fatalf("unexpected customers %+v", got)
	}

	ani := got[0]
	if len(ani.Items) != 3 {
		t.Fatalf("expected repeated lines merged into 3, got %+v", ani.Items)
	}
	donat := ani.Items[0]
	if donat.Jumlah != 4 || !donat.Bayar.Equal(decimal.NewFromInt(20000)) || !donat.HargaSatuan.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("unexpected merged line %+v", donat)
	}
	if ani.Items[1].Catatan != "tanpa gula" || ani.Items[1].Jumlah != 1 {
		t.Fatalf("lines with a different note stay apart, got %+v", ani.Items[1])
	}
	if ani.TotalQty != 6 || !ani.TotalHarga.Equal(decimal.NewFromInt(65000)) {
		t.Fatalf("unexpected totals %d / %s", ani.TotalQty, ani.TotalHarga)
	}
}

func TestSupplierInvoices(t *testing.T) {
	got := SupplierInvoices(sheet())
	if len(got) != 2 || got[0].SupplierName != "Toko A" || got[1].SupplierName != "toko b" {
		t.Fatalf("unexpected suppliers %+v", got)
	}

	a := got[0]
	if len(a.Items) != 1 {
		t.Fatalf("expected one line per product, got %+v", a.Items)
	}
	line := a.Items[0]
	if line.Jumlah != 7 || line.Pemesan != "budi(2), Ani(5)" {
		t.Fatalf("unexpected line %+v", line)
	}
	if !line.Total.Equal(decimal.NewFromInt(21000)) || !a.TotalHarga.Equal(decimal.NewFromInt(21000)) || a.TotalQty != 7 {
		t.Fatalf("expected cost total 7 x 3000, got %s / %s", line.Total, a.TotalHarga)
	}
}

func TestInvoicesOfEmptySheet(t *testing.T) {
	if got := CustomerInvoices(nil); len(got) != 0 {
		t.Fatalf("expected no customer invoices, got %+v", got)
	}
	if got := SupplierInvoices(nil); len(got) != 0 {
		t.Fatalf("expected no supplier invoices, got %+v", got)
	}
}
