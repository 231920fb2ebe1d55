package models

import "time"

type AnnouncementStatus string

const (
	AnnouncementDraft  AnnouncementStatus = "draft"
	AnnouncementActive AnnouncementStatus = "active"
	AnnouncementClosed AnnouncementStatus = "closed"
)

const (
	DefaultMaxSuppliersOnline     = 70
	DefaultMaxSuppliersOffline    = 40
	DefaultMaxProductsPerSupplier = 3
)

// Announcement is one bazaar event with its schedule and capacity limits.
type Announcement struct {
	ID string `gorm:"type:varchar(32);primaryKey" json:"id"`

	Title       string `gorm:"type:varchar(200);not null" json:"title"`
	Greeting    string `gorm:"type:text" json:"greeting"`
	Description string `gorm:"type:text" json:"description"`
	Terms       string `gorm:"type:text" json:"terms"`
	WeekID      string `gorm:"type:varchar(10);index" json:"weekId"`

	OnlineDateStart      time.Time `json:"onlineDateStart"`
	OnlineDateEnd        time.Time `json:"onlineDateEnd"`
	OfflineDate          time.Time `json:"offlineDate"`
	RegistrationDeadline time.Time `json:"registrationDeadline"`
	DeliveryDate         time.Time `json:"deliveryDate"`
	DeliveryTime         string    `gorm:"type:varchar(5);default:'08:00'" json:"deliveryTime"` // HH:MM WIB

	MaxSuppliersOnline     int `gorm:"not null;default:70" json:"maxSuppliersOnline"`
	MaxSuppliersOffline    int `gorm:"not null;default:40" json:"maxSuppliersOffline"`
	MaxProductsPerSupplier int `gorm:"not null;default:3" json:"maxProductsPerSupplier"`

	// GroupingPolicy picks how product labels are grouped against the
	// per-supplier quota. Empty means the service default.
	GroupingPolicy string `gorm:"type:varchar(20)" json:"groupingPolicy,omitempty"`

	Status    AnnouncementStatus `gorm:"type:varchar(10);not null;default:'active';index" json:"status"`
	CreatedBy string             `gorm:"type:varchar(120)" json:"createdBy"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// ShouldAutoClose reports whether both the online window and the offline
// day are over.
func (a *Announcement) ShouldAutoClose(now time.Time) bool {
	if a.Status == AnnouncementClosed {
		return false
	}
	if a.OnlineDateEnd.IsZero() || a.OfflineDate.IsZero() {
		return false
	}
	return now.After(a.OnlineDateEnd) && now.After(a.OfflineDate)
}

func (a *Announcement) DeadlinePassed(now time.Time) bool {
	return now.After(a.RegistrationDeadline)
}
