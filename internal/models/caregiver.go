package models

import (
	"time"

	"github.com/google/uuid"
)

type AccountStatusType string

const (
	AccountStatusActive      AccountStatusType = "ACTIVE"
	AccountStatusSuspended   AccountStatusType = "SUSPENDED"
	AccountStatusDeactivated AccountStatusType = "DEACTIVATED"
)

type Caregiver struct {
	ID            uuid.UUID         `json:"id"`
	BusinessID    uuid.UUID         `json:"business_id"`
	FirstName     string            `json:"first_name"`
	LastName      string            `json:"last_name"`
	PhoneNumber   string            `json:"phone_number"`
	Email         string            `json:"email"`
	AccountStatus AccountStatusType `json:"account_status"`

	CreatedAt time.Time `json:"created_at"`
}

func (c *Caregiver) DisplayName() string {
	return c.FirstName + " " + c.LastName
}
