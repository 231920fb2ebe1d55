package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleSupplier Role = "supplier"
	RoleAdmin    Role = "admin"
)

func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// internal/models/user.go
type User struct {
	Name string `gorm:"type:varchar(120);primaryKey" json:"name"`
	Role Role   `gorm:"type:varchar(20);not null;index" json:"role"`

	// RequestedAdmin is set when a supplier asks to become admin.
	RequestedAdmin bool `gorm:"default:false" json:"requestedAdmin"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Actor identifies who performs an operation. It is passed explicitly
// to every service call instead of being read from session state.
type Actor struct {
	Name string
	Role Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
