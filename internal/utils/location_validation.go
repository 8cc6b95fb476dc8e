package utils

import (
	"math"
	"time"

	"github.com/carebridge/visits-service/internal/constants"
)

// ValidateLocationData checks lat/lng range, accuracy, timestamp proximity,
// and is_mock=false. It returns empty strings if valid, otherwise an error
// code and message suitable for RespondErrorWithCode.
func ValidateLocationData(lat, lng, accuracy float64, timestamp int64, isMock bool) (string, string) {
	// Mobile OSes report an exact (0,0) fix when acquisition fails.
	if lat == 0 && lng == 0 {
		return ErrCodeLocationUnavailable, "Could not acquire a location fix. Enable GPS and retry."
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return ErrCodeInvalidPayload, "lat/lng out of range"
	}
	if accuracy > constants.MaxAccuracyMeters {
		return ErrCodeLocationInaccurate, "GPS accuracy is too low. Please move to an area with a clearer view of the sky."
	}
	nowMS := time.Now().UnixMilli()
	if math.Abs(float64(nowMS-timestamp)) > float64(constants.MaxLocationSkew.Milliseconds()) {
		return ErrCodeInvalidPayload, "location timestamp not within ±30s of server time"
	}
	if isMock {
		return ErrCodeInvalidPayload, "is_mock must be false"
	}
	return "", ""
}
