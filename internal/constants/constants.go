package constants

import (
	"time"
)

// Geofence / location settings
const (
	// Default radius around the client's service address within which a
	// clock-in/out is considered verified.
	DefaultGeofenceRadiusMiles = 0.5

	// Device readings with a worse reported accuracy are rejected outright.
	MaxAccuracyMeters = 30

	// Device readings must have been measured within this skew of server time.
	MaxLocationSkew = 30 * time.Second
)

// Visit lifecycle policy
const (
	// A caregiver may clock in at most this long before the scheduled start.
	DefaultClockInEarlyWindow = 2 * time.Hour

	// A SCHEDULED shift this long past its scheduled end is swept to MISSED.
	MissedSweepGrace = 30 * time.Minute

	// An IN_PROGRESS visit running this long past its scheduled end triggers
	// a coordinator warning (but is never auto-completed).
	OverrunWarnAfter = 2 * time.Hour
)

// Billing policy
const (
	// Units are quarter hours; raw hours are quantized with half-up rounding.
	UnitsPerHour = 4

	// Placeholder quantity when a completed visit is missing EVV timestamps,
	// so invoicing can always proceed with the visit flagged for review.
	DefaultFallbackUnits = 1.0

	// Default HCPCS pairing applied when none was assigned upstream.
	DefaultBillingCode     = "T1019"
	HolidayBillingModifier = "TV"
)

// EVV exception reason codes appended to a shift's evv_exceptions list.
const (
	ExceptionForcedOutOfRange    = "FORCED_CLOCK_IN_OUT_OF_RANGE"
	ExceptionForcedOutOfRangeOut = "FORCED_CLOCK_OUT_OF_RANGE"
	ExceptionMissingTimestamps   = "MISSING_EVV_TIMESTAMPS"
)

// Common concurrency conflict / row-version conflict messages
const (
	ErrMsgNoRowsUpdated             = "No rows updated"
	ErrMsgRowVersionConflictRefresh = "The shift has changed, please refresh"
)
