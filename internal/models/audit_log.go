package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Actor      string         `gorm:"type:varchar(120);index" json:"actor"`
	Action     string         `gorm:"type:varchar(40);index" json:"action"` // add, edit, review, delete
	Target     string         `gorm:"type:varchar(40)" json:"target"`       // registration, announcement, product
	TargetID   string         `gorm:"type:varchar(64);index" json:"targetId"`
	DataBefore datatypes.JSON `json:"dataBefore,omitempty"`
	DataAfter  datatypes.JSON `json:"dataAfter,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"createdAt"`
}

func (l *AuditLog) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}
