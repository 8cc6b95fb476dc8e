package models

import (
	"time"

	"github.com/google/uuid"
)

type ShiftStatusType string

const (
	ShiftStatusScheduled  ShiftStatusType = "SCHEDULED"
	ShiftStatusInProgress ShiftStatusType = "IN_PROGRESS"
	ShiftStatusCompleted  ShiftStatusType = "COMPLETED"
	ShiftStatusMissed     ShiftStatusType = "MISSED"
	ShiftStatusCancelled  ShiftStatusType = "CANCELLED"
)

// IsTerminal reports whether no further lifecycle or EVV mutation is legal.
func (s ShiftStatusType) IsTerminal() bool {
	return s == ShiftStatusCompleted || s == ShiftStatusMissed || s == ShiftStatusCancelled
}

type GeofenceStatusType string

const (
	GeofenceNotChecked GeofenceStatusType = "NOT_CHECKED"
	GeofenceInRange    GeofenceStatusType = "IN_RANGE"
	GeofenceOutOfRange GeofenceStatusType = "OUT_OF_RANGE"
)

type EVVStatusType string

const (
	EVVStatusPending   EVVStatusType = "PENDING"
	EVVStatusVerified  EVVStatusType = "VERIFIED"
	EVVStatusException EVVStatusType = "EXCEPTION"
	EVVStatusRejected  EVVStatusType = "REJECTED"
)

// GPSReading is an ephemeral device fix captured at a clock-in/out event. It
// is only ever persisted flattened onto the Shift it belongs to.
type GPSReading struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters float64   `json:"accuracy_meters"`
	MeasuredAt     time.Time `json:"measured_at"`
}

// Shift is the scheduled (and later actual) occurrence of a caregiver serving
// a client. All lifecycle mutation goes through the shift repository's atomic
// transition methods; the timestamps are written exactly once, on the
// transition that owns them.
type Shift struct {
	Versioned

	ID         uuid.UUID `json:"id"`
	BusinessID uuid.UUID `json:"business_id"`

	CaregiverID   uuid.UUID `json:"caregiver_id"`
	ClientID      uuid.UUID `json:"client_id"`
	CaregiverName string    `json:"caregiver_name,omitempty"`
	ClientName    string    `json:"client_name,omitempty"`

	ScheduledStart time.Time       `json:"scheduled_start"`
	ScheduledEnd   time.Time       `json:"scheduled_end"`
	Status         ShiftStatusType `json:"status"`

	CheckInAt   *time.Time  `json:"check_in_at,omitempty"`
	CheckOutAt  *time.Time  `json:"check_out_at,omitempty"`
	CheckInGPS  *GPSReading `json:"check_in_gps,omitempty"`
	CheckOutGPS *GPSReading `json:"check_out_gps,omitempty"`

	GeofenceStatus     GeofenceStatusType `json:"geofence_status"`
	EVVStatus          EVVStatusType      `json:"evv_status"`
	EVVExceptions      []string           `json:"evv_exceptions,omitempty"`
	VerificationMethod string             `json:"verification_method,omitempty"`

	ActualHours  float64 `json:"actual_hours"`
	BillingUnits float64 `json:"billing_units"`
	BillingCode  string  `json:"billing_code,omitempty"`
	Modifier     string  `json:"modifier,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Shift) GetID() string {
	return s.ID.String()
}

// Overlaps reports whether two half-open scheduling windows intersect.
// Back-to-back shifts that touch at a single instant do not overlap.
func (s *Shift) Overlaps(other *Shift) bool {
	return s.ScheduledStart.Before(other.ScheduledEnd) && other.ScheduledStart.Before(s.ScheduledEnd)
}
