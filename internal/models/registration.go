package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"  // Menunggu
	RegistrationApproved RegistrationStatus = "approved" // Disetujui
	RegistrationRejected RegistrationStatus = "rejected" // Ditolak
)

func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationPending, RegistrationApproved, RegistrationRejected:
		return true
	}
	return false
}

type Channel string

const (
	ChannelOnline  Channel = "online"
	ChannelOffline Channel = "offline"
	// ChannelAll labels the combined product list used for both channels.
	ChannelAll Channel = "all"
)

// ProductData is the catalog snapshot carried by a selected product.
type ProductData struct {
	NamaProduk  string          `json:"namaProduk"`
	JenisProduk string          `json:"jenisProduk"`
	Ukuran      string          `json:"ukuran"`
	Satuan      string          `json:"satuan"`
	HPP         decimal.Decimal `json:"hpp"`
	HJK         decimal.Decimal `json:"hjk"`
	Keterangan  string          `json:"keterangan,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

type SelectedProduct struct {
	Label string       `json:"label"`
	Value string       `json:"value"`
	Data  *ProductData `json:"data,omitempty"`
}

func Labels(items []SelectedProduct) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Label)
	}
	return out
}

// Registration is one supplier's sign-up for an announcement.
//
// Products are either a single combined list or two per-channel lists.
type Registration struct {
	ID             string `gorm:"type:varchar(32);primaryKey" json:"id"`
	AnnouncementID string `gorm:"type:varchar(32);not null;index:idx_reg_ann_supplier" json:"announcementId"`
	SupplierName   string `gorm:"type:varchar(120);not null;index:idx_reg_ann_supplier" json:"supplierName"`

	ParticipateOnline  bool `gorm:"not null;default:false" json:"participateOnline"`
	ParticipateOffline bool `gorm:"not null;default:false" json:"participateOffline"`

	SelectedProducts        datatypes.JSONSlice[SelectedProduct] `json:"selectedProducts"`
	SelectedProductsOnline  datatypes.JSONSlice[SelectedProduct] `json:"selectedProductsOnline,omitempty"`
	SelectedProductsOffline datatypes.JSONSlice[SelectedProduct] `json:"selectedProductsOffline,omitempty"`

	Status     RegistrationStatus `gorm:"type:varchar(10);not null;default:'pending';index" json:"status"`
	Notes      string             `gorm:"type:text" json:"notes"`
	AdminNotes string             `gorm:"type:text" json:"adminNotes,omitempty"`
	ReviewedBy string             `gorm:"type:varchar(120)" json:"reviewedBy,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsActive reports whether the registration holds capacity.
func (r *Registration) IsActive() bool {
	return r.Status == RegistrationPending || r.Status == RegistrationApproved
}

func (r *Registration) SeparateLists() bool {
	return len(r.SelectedProductsOnline) > 0 || len(r.SelectedProductsOffline) > 0
}

func (r *Registration) Participates(ch Channel) bool {
	switch ch {
	case ChannelOnline:
		return r.ParticipateOnline
	case ChannelOffline:
		return r.ParticipateOffline
	}
	return r.ParticipateOnline || r.ParticipateOffline
}

// ProductsFor returns what the supplier sells on a channel: the
// channel-specific list when per-channel lists are used, otherwise the
// combined list for every channel the supplier joined.
func (r *Registration) ProductsFor(ch Channel) []SelectedProduct {
	if !r.Participates(ch) {
		return nil
	}
	if r.SeparateLists() {
		switch ch {
		case ChannelOnline:
			return r.SelectedProductsOnline
		case ChannelOffline:
			return r.SelectedProductsOffline
		}
	}
	return r.SelectedProducts
}
