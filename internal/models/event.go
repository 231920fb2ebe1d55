package models

import "time"

type EventType string

const (
	EventRegistrationSaved    EventType = "registration.saved"
	EventRegistrationReviewed EventType = "registration.reviewed"
	EventRegistrationDeleted  EventType = "registration.deleted"
	EventAnnouncementSaved    EventType = "announcement.saved"
)

// Event is pushed to connected clients so open lists can refresh.
type Event struct {
	Type           EventType          `json:"type"`
	AnnouncementID string             `json:"announcementId"`
	RegistrationID string             `json:"registrationId,omitempty"`
	SupplierName   string             `json:"supplierName,omitempty"`
	Status         RegistrationStatus `json:"status,omitempty"`
	At             time.Time          `json:"at"`
}
