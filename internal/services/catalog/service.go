// Package catalog keeps each supplier's product master list.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
)

var (
	ErrForbidden = errors.New("not your product")
	ErrInvalid   = errors.New("invalid product")
)

type Store interface {
	ListProducts(ctx context.Context, supplier string) ([]models.Product, error)
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	SaveProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
}

type AuditLogger interface {
	LogAction(ctx context.Context, actor, action string, before, after any) error
}

type Service struct {
	store Store
	audit AuditLogger
	log   *zap.Logger
}

func NewService(st Store, audit AuditLogger, log *zap.Logger) *Service {
	return &Service{store: st, audit: audit, log: log}
}

type ProductInput struct {
	SupplierName string          `json:"supplierName"`
	NamaProduk   string          `json:"namaProduk"`
	JenisProduk  string          `json:"jenisProduk"`
	Ukuran       string          `json:"ukuran"`
	Satuan       string          `json:"satuan"`
	HPP          decimal.Decimal `json:"hpp"`
	HJK          decimal.Decimal `json:"hjk"`
	Keterangan   string          `json:"keterangan"`
	ImageURL     string          `json:"imageUrl"`
	Aktif        *bool           `json:"aktif"`
}

// List returns the actor's products. Admins may pass any supplier, or ""
// for every supplier.
func (s *Service) List(ctx context.Context, actor models.Actor, supplier string) ([]models.Product, error) {
	if !actor.IsAdmin() {
		supplier = actor.Name
	}
	return s.store.ListProducts(ctx, supplier)
}

// Selectable renders the supplier's active products as registration
// form options.
func (s *Service) Selectable(ctx context.Context, supplier string) ([]models.SelectedProduct, error) {
	ps, err := s.store.ListProducts(ctx, supplier)
	if err != nil {
		return nil, err
	}
	out := make([]models.SelectedProduct, 0, len(ps))
	for i := range ps {
		if ps[i].Aktif {
			out = append(out, ps[i].ToSelected())
		}
	}
	return out, nil
}

func (s *Service) Save(ctx context.Context, actor models.Actor, id uint, in ProductInput) (*models.Product, error) {
	in.NamaProduk = strings.TrimSpace(in.NamaProduk)
	in.SupplierName = strings.TrimSpace(in.SupplierName)
	if in.SupplierName == "" || !actor.IsAdmin() {
		in.SupplierName = actor.Name
	}
	if in.NamaProduk == "" {
		return nil, errors.Join(ErrInvalid, errors.New("namaProduk is required"))
	}
	if in.HPP.IsNegative() || in.HJK.IsNegative() {
		return nil, errors.Join(ErrInvalid, errors.New("prices must not be negative"))
	}

	var before *models.Product
	p := &models.Product{Aktif: true}
	if id != 0 {
		cur, err := s.store.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		if !actor.IsAdmin() && cur.SupplierName != actor.Name {
			return nil, ErrForbidden
		}
		cp := *cur
		before = &cp
		p = cur
		in.SupplierName = cur.SupplierName
	}

	p.SupplierName = in.SupplierName
	p.NamaProduk = in.NamaProduk
	p.JenisProduk = strings.TrimSpace(in.JenisProduk)
	p.Ukuran = strings.TrimSpace(in.Ukuran)
	p.Satuan = strings.TrimSpace(in.Satuan)
	p.HPP = in.HPP.Round(2)
	p.HJK = in.HJK.Round(2)
	p.Keterangan = strings.TrimSpace(in.Keterangan)
	p.ImageURL = strings.TrimSpace(in.ImageURL)
	if in.Aktif != nil {
		p.Aktif = *in.Aktif
	}

	if err := s.store.SaveProduct(ctx, p); err != nil {
		return nil, err
	}
	action := "add"
	if before != nil {
		action = "edit"
	}
	if p.HJK.LessThan(p.HPP) {
		s.log.Info("product priced below cost", zap.Uint("product_id", p.ID), zap.String("margin", p.Margin().String()))
	}
	s.record(ctx, actor, action, before, p)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, actor models.Actor, id uint) error {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && p.SupplierName != actor.Name {
		return ErrForbidden
	}
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actor, "delete", p, nil)
	return nil
}

func (s *Service) record(ctx context.Context, actor models.Actor, action string, before, after *models.Product) {
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
	if err := s.audit.LogAction(context.WithoutCancel(ctx), actor.Name, action, b, a); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}
