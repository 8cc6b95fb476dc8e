package services

import (
	"math"
	"time"

	"github.com/carebridge/visits-service/internal/constants"
	internal_utils "github.com/carebridge/visits-service/internal/utils"
)

// BillingOutcome is what a completed visit gets invoiced as. NeedsReview
// marks visits that were billed on placeholder data and must be reconciled
// by a coordinator before claim submission.
type BillingOutcome struct {
	ActualHours float64
	Units       float64
	Code        string
	Modifier    string
	NeedsReview bool
	Exceptions  []string
}

// QuantizeUnits converts raw hours to quarter-hour billing units, rounding
// half-up at the unit boundary. 3h10m => 3.1667h => 12.67 raw units => 12.75.
func QuantizeUnits(hours float64) float64 {
	return math.Round(hours*constants.UnitsPerHour) / constants.UnitsPerHour
}

// CalculateBilling derives the billable quantity for a completed visit from
// its EVV timestamps.
//
// A zero-length visit bills zero units; that is a valid outcome, not an
// error. When either timestamp is missing the visit is billed at the
// configured fallback quantity and flagged for review so invoicing is never
// blocked on bad telemetry.
//
// The billing code defaults to the standard personal-care code and the
// modifier is set when the visit started on a US federal holiday.
func CalculateBilling(checkIn, checkOut *time.Time, fallbackUnits float64) BillingOutcome {
	out := BillingOutcome{
		Code:       constants.DefaultBillingCode,
		Exceptions: []string{},
	}

	if checkIn == nil || checkOut == nil {
		out.Units = fallbackUnits
		out.NeedsReview = true
		out.Exceptions = append(out.Exceptions, constants.ExceptionMissingTimestamps)
		return out
	}

	hours := checkOut.Sub(*checkIn).Hours()
	if hours < 0 {
		hours = 0
	}
	out.ActualHours = hours
	out.Units = QuantizeUnits(hours)

	if internal_utils.IsUSFedHoliday(*checkIn) {
		out.Modifier = constants.HolidayBillingModifier
	}
	return out
}
