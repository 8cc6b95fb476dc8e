package utils

import (
	"errors"
	"fmt"

	"github.com/carebridge/visits-service/internal/models"
)

/*
   Sentinel errors for visit-service domain logic.
   The controller can do: if errors.Is(err, ErrXYZ) { ... }
*/
var (
	ErrNotAssignedCaregiver  = errors.New("not_assigned_caregiver")
	ErrInvalidTransition     = errors.New("invalid_transition")
	ErrShiftTerminal         = errors.New("shift_terminal")
	ErrOutsideClockInWindow  = errors.New("outside_clock_in_window")
	ErrCaregiverNotActive    = errors.New("caregiver_not_active")
	ErrInvalidCoordinate     = errors.New("invalid_coordinate")
	ErrClientLocationUnknown = errors.New("client_location_unknown")
	ErrInvalidPayload        = errors.New("invalid_payload")
	ErrNoRowsUpdated         = errors.New("no_rows_updated") // Can be used by repos

	// For concurrency conflicts
	ErrRowVersionConflict = errors.New("row_version_conflict")
)

/*
   RowVersionConflictError is returned when there's a concurrency mismatch.
   It includes the "latest" Shift so the controller can return it to the
   client if desired.
*/
type RowVersionConflictError struct {
	Current *models.Shift
}

func (e *RowVersionConflictError) Error() string {
	return "row_version_conflict"
}

func NewRowVersionConflictError(current *models.Shift) error {
	return &RowVersionConflictError{Current: current}
}

/*
   GeofenceRejectionError is the recoverable "you are out of range" outcome of
   a clock-in/out attempt without the force flag. It is a decision point for
   the caller (retry closer, or re-submit with force=true), not a fault, so
   the shift is never mutated when it is returned.
*/
type GeofenceRejectionError struct {
	DistanceMiles float64
	RadiusMiles   float64
}

func (e *GeofenceRejectionError) Error() string {
	return fmt.Sprintf("out_of_geofence: %.2f mi from client (radius %.2f mi)", e.DistanceMiles, e.RadiusMiles)
}

func NewGeofenceRejectionError(distanceMiles, radiusMiles float64) error {
	return &GeofenceRejectionError{DistanceMiles: distanceMiles, RadiusMiles: radiusMiles}
}
