package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WeekOrder is one customer line on a week's order sheet. Prices are
// copied from the product at save time so invoices do not move when the
// catalog changes.
type WeekOrder struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WeekID       string    `gorm:"type:varchar(10);not null;index" json:"weekId"`
	Pemesan      string    `gorm:"type:varchar(120);not null;index" json:"pemesan"`
	ProductLabel string    `gorm:"type:varchar(255);not null" json:"produkLabel"`
	SupplierName string    `gorm:"type:varchar(120);index" json:"namaSupplier"`
	Catatan      string    `gorm:"type:text" json:"catatan"`
	Jumlah       int       `gorm:"not null" json:"jumlah"`

	HargaSatuan decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"hargaSatuan"` // adjusted HJK
	HPP         decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"hpp"`
	Bayar       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"bayar"`

	CreatedBy string    `gorm:"type:varchar(120)" json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
