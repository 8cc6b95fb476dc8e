package models

import (
	"time"

	"github.com/google/uuid"
)

// Coordinator is an on-call agency staff member who receives SMS/email alerts
// for EVV exceptions, forced overrides, and missed visits.
type Coordinator struct {
	ID          uuid.UUID `json:"id"`
	BusinessID  uuid.UUID `json:"business_id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	Email       string    `json:"email"`
	OnCall      bool      `json:"on_call"`

	CreatedAt time.Time `json:"created_at"`
}
