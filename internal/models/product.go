package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a supplier catalog item (Master Supplier).
type Product struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	SupplierName string `gorm:"type:varchar(120);not null;index" json:"supplierName"`

	NamaProduk  string          `gorm:"type:varchar(200);not null" json:"namaProduk"`
	JenisProduk string          `gorm:"type:varchar(100);index" json:"jenisProduk"` // kategori
	Ukuran      string          `gorm:"type:varchar(50)" json:"ukuran"`
	Satuan      string          `gorm:"type:varchar(50)" json:"satuan"`
	HPP         decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"hpp"` // harga pokok
	HJK         decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"hjk"` // harga jual
	Keterangan  string          `gorm:"type:text" json:"keterangan"`
	ImageURL    string          `gorm:"type:text" json:"imageUrl"`
	Aktif       bool            `gorm:"not null;default:true" json:"aktif"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Label renders "{namaProduk} {ukuran} {satuan}".
func (p *Product) Label() string {
	return strings.Join(strings.Fields(p.NamaProduk+" "+p.Ukuran+" "+p.Satuan), " ")
}

func (p *Product) Margin() decimal.Decimal {
	return p.HJK.Sub(p.HPP)
}

func (p *Product) ToSelected() SelectedProduct {
	return SelectedProduct{
		Label: p.Label(),
		Value: p.NamaProduk,
		Data: &ProductData{
			NamaProduk:  p.NamaProduk,
			JenisProduk: p.JenisProduk,
			Ukuran:      p.Ukuran,
			Satuan:      p.Satuan,
			HPP:         p.HPP,
			HJK:         p.HJK,
			Keterangan:  p.Keterangan,
			ImageURL:    p.ImageURL,
		},
	}
}
