package dtos

import (
	"time"

	"github.com/google/uuid"
)

/*
CreateShiftRequest is the payload for POST /api/v1/shifts. Coordinators
schedule a caregiver against a client for a concrete window. The window
end must be strictly after the start; the service enforces that.
*/
type CreateShiftRequest struct {
	CaregiverID    uuid.UUID `json:"caregiver_id" validate:"required"`
	ClientID       uuid.UUID `json:"client_id" validate:"required"`
	ScheduledStart time.Time `json:"scheduled_start" validate:"required"`
	ScheduledEnd   time.Time `json:"scheduled_end" validate:"required"`
}

/*
ShiftDTO is used by responses listing or returning a single shift.
Window times are provided in pairs: the client's local timezone (the
home where care happens) and the caregiver's local timezone derived
from their last known position.
*/
type ShiftDTO struct {
	ShiftID       uuid.UUID `json:"shift_id"`
	CaregiverID   uuid.UUID `json:"caregiver_id"`
	ClientID      uuid.UUID `json:"client_id"`
	CaregiverName string    `json:"caregiver_name,omitempty"`
	ClientName    string    `json:"client_name,omitempty"`

	ScheduledStart time.Time `json:"scheduled_start"`
	ScheduledEnd   time.Time `json:"scheduled_end"`

	// Local-time renderings of the window.
	ClientWindowStart    string `json:"client_window_start,omitempty"`
	ClientWindowEnd      string `json:"client_window_end,omitempty"`
	CaregiverWindowStart string `json:"caregiver_window_start,omitempty"`
	CaregiverWindowEnd   string `json:"caregiver_window_end,omitempty"`

	Status         string `json:"status"`
	GeofenceStatus string `json:"geofence_status"`
	EVVStatus      string `json:"evv_status"`

	CheckInAt     *time.Time `json:"check_in_at,omitempty"`
	CheckOutAt    *time.Time `json:"check_out_at,omitempty"`
	EVVExceptions []string   `json:"evv_exceptions,omitempty"`

	ActualHours  float64 `json:"actual_hours,omitempty"`
	BillingUnits float64 `json:"billing_units,omitempty"`
	BillingCode  string  `json:"billing_code,omitempty"`
	Modifier     string  `json:"modifier,omitempty"`

	NeedsReview bool `json:"needs_review,omitempty"`

	RowVersion int64 `json:"row_version"`
}

/*
ClockRequest is the device payload for clock-in and clock-out. The
location fields mirror what mobile OSes report with a fix:

  - shift_id: links the location fix to a specific shift
  - lat, lng: WGS-84 coordinates (range-checked in the controller)
  - accuracy: 1-σ horizontal radius in meters
  - timestamp: Unix ms from the device
  - is_mock: OS-level location mocking/simulator flag
  - force: coordinator-sanctioned override when the fix is outside the
    client geofence; the shift is then flagged as an EVV exception
*/
type ClockRequest struct {
	ShiftID   uuid.UUID `json:"shift_id" validate:"required"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp int64     `json:"timestamp"`
	IsMock    bool      `json:"is_mock"`
	Force     bool      `json:"force"`
}

/*
ShiftActionRequest is the simple "shift_id" payload for endpoints like
cancel or missed that don't require location data.
*/
type ShiftActionRequest struct {
	ShiftID uuid.UUID `json:"shift_id" validate:"required"`
}

/*
ShiftActionResponse includes the updated shift in case it changed.
*/
type ShiftActionResponse struct {
	Updated ShiftDTO `json:"updated"`
}

/*
CreateShiftResponse returns the created shift along with any advisory
scheduling conflicts against the caregiver's other shifts. Conflicts
never block creation; coordinators resolve them out of band.
*/
type CreateShiftResponse struct {
	Created   ShiftDTO          `json:"created"`
	Conflicts []ConflictPairDTO `json:"conflicts,omitempty"`
}

/*
ConflictPairDTO names two shifts of the same caregiver whose scheduled
windows overlap.
*/
type ConflictPairDTO struct {
	ShiftID      uuid.UUID `json:"shift_id"`
	OtherShiftID uuid.UUID `json:"other_shift_id"`
	OverlapStart time.Time `json:"overlap_start"`
	OverlapEnd   time.Time `json:"overlap_end"`
}

/*
ListShiftsResponse is the response for GET /api/v1/shifts/my.
*/
type ListShiftsResponse struct {
	Results []ShiftDTO `json:"results"`
	Total   int        `json:"total"`
}

/*
ListConflictsResponse is the response for GET /api/v1/shifts/conflicts.
*/
type ListConflictsResponse struct {
	Conflicts []ConflictPairDTO `json:"conflicts"`
	Total     int               `json:"total"`
}
