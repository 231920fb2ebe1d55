package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
)

type CustomerLine struct {
	ProductLabel string          `json:"produkLabel"`
	Catatan      string          `json:"catatan,omitempty"`
	Jumlah       int             `json:"jumlah"`
	HargaSatuan  decimal.Decimal `json:"hargaSatuan"`
	Bayar        decimal.Decimal `json:"bayar"`
}

// CustomerInvoice is what one customer owes.
type CustomerInvoice struct {
	Pemesan    string          `json:"pemesan"`
	Items      []CustomerLine  `json:"items"`
	TotalQty   int             `json:"totalQty"`
	TotalHarga decimal.Decimal `json:"totalHarga"`
}

type SupplierLine struct {
	ProductLabel string          `json:"produkLabel"`
	Pemesan      string          `json:"pemesan"` // "Ani(2), Budi(1)"
	Jumlah       int             `json:"jumlah"`
	HPP          decimal.Decimal `json:"hpp"`
	Total        decimal.Decimal `json:"total"`
}

// SupplierInvoice is what the bazaar owes one supplier.
type SupplierInvoice struct {
	SupplierName string          `json:"namaSupplier"`
	Items        []SupplierLine  `json:"items"`
	TotalQty     int             `json:"totalQty"`
	TotalHarga   decimal.Decimal `json:"totalHarga"`
}

func (s *Service) CustomerInvoices(ctx context.Context, actor models.Actor, weekID string) ([]CustomerInvoice, error) {
	orders, err := s.invoiceOrders(ctx, actor, weekID)
	if err != nil {
		return nil, err
	}
	return CustomerInvoices(orders), nil
}

func (s *Service) SupplierInvoices(ctx context.Context, actor models.Actor, weekID string) ([]SupplierInvoice, error) {
	orders, err := s.invoiceOrders(ctx, actor, weekID)
	if err != nil {
		return nil, err
	}
	return SupplierInvoices(orders), nil
}

func (s *Service) invoiceOrders(ctx context.Context, actor models.Actor, weekID string) ([]models.WeekOrder, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.store.ListOrders(ctx, weekID)
}

// CustomerInvoices merges repeated lines of a customer (same product and
// note) and totals each customer. Customers are ordered ignoring case.
func CustomerInvoices(orders []models.WeekOrder) []CustomerInvoice {
	type lineKey struct{ pemesan, label, catatan string }
	lines := make(map[lineKey]*CustomerLine)
	byCustomer := make(map[string]*CustomerInvoice)
	var customers []string
	var keys []lineKey

	for _, o := range orders {
		k := lineKey{o.Pemesan, o.ProductLabel, o.Catatan}
		l, ok := lines[k]
		if !ok {
			l = &CustomerLine{ProductLabel: o.ProductLabel, Catatan: o.Catatan}
			lines[k] = l
			keys = append(keys, k)
		}
		l.Jumlah += o.Jumlah
		l.Bayar = l.Bayar.Add(o.Bayar)
	}

	for _, k := range keys {
		inv, ok := byCustomer[k.pemesan]
		if !ok {
			inv = &CustomerInvoice{Pemesan: k.pemesan}
			byCustomer[k.pemesan] = inv
			customers = append(customers, k.pemesan)
		}
		l := lines[k]
		if l.Jumlah > 0 {
			l.HargaSatuan = l.Bayar.Div(decimal.NewFromInt(int64(l.Jumlah))).Round(2)
		}
		inv.Items = append(inv.Items, *l)
		inv.TotalQty += l.Jumlah
		inv.TotalHarga = inv.TotalHarga.Add(l.Bayar)
	}

	out := make([]CustomerInvoice, 0, len(customers))
	for _, name := range customers {
		out = append(out, *byCustomer[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Pemesan) < strings.ToLower(out[j].Pemesan)
	})
	return out
}

// SupplierInvoices sums each supplier's products at cost, listing who
// ordered how many. Orders without a supplier are left out.
func SupplierInvoices(orders []models.WeekOrder) []SupplierInvoice {
	type lineKey struct{ supplier, label string }
	type acc struct {
		line   SupplierLine
		names  []string
		counts map[string]int
	}
	lines := make(map[lineKey]*acc)
	var keys []lineKey

	for _, o := range orders {
		if o.SupplierName == "" {
			continue
		}
		k := lineKey{o.SupplierName, o.ProductLabel}
		a, ok := lines[k]
		if !ok {
			a = &acc{line: SupplierLine{ProductLabel: o.ProductLabel, HPP: o.HPP}, counts: make(map[string]int)}
			lines[k] = a
			keys = append(keys, k)
		}
		a.line.Jumlah += o.Jumlah
		if _, seen := a.counts[o.Pemesan]; !seen {
			a.names = append(a.names, o.Pemesan)
		}
		a.counts[o.Pemesan] += o.Jumlah
	}

	bySupplier := make(map[string]*SupplierInvoice)
	var suppliers []string
	for _, k := range keys {
		a := lines[k]
		parts := make([]string, 0, len(a.names))
		for _, n := range a.names {
			parts = append(parts, fmt.Sprintf("%s(%d)", n, a.counts[n]))
		}
		a.line.Pemesan = strings.Join(parts, ", ")
		a.line.Total = a.line.HPP.Mul(decimal.NewFromInt(int64(a.line.Jumlah)))

		inv, ok := bySupplier[k.supplier]
		if !ok {
			inv = &SupplierInvoice{SupplierName: k.supplier}
			bySupplier[k.supplier] = inv
			suppliers = append(suppliers, k.supplier)
		}
		inv.Items = append(inv.Items, a.line)
		inv.TotalQty += a.line.Jumlah
		inv.TotalHarga = inv.TotalHarga.Add(a.line.Total)
	}

	out := make([]SupplierInvoice, 0, len(suppliers))
	for _, name := range suppliers {
		out = append(out, *bySupplier[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].SupplierName) < strings.ToLower(out[j].SupplierName)
	})
	return out
}
