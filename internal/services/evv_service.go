package services

import (
	"github.com/carebridge/visits-service/internal/models"
	internal_utils "github.com/carebridge/visits-service/internal/utils"
)

// VerificationMethodGPS is the only capture method this service performs
// itself. Other methods (telephony, fixed device) arrive pre-verified from
// upstream integrations.
const VerificationMethodGPS = "GPS"

// EVVVerdict is the outcome of evaluating a device fix against a client's
// geofence. It carries everything the repository needs to persist the
// verification alongside the lifecycle transition.
type EVVVerdict struct {
	GeofenceStatus models.GeofenceStatusType
	EVVStatus      models.EVVStatusType
	DistanceMiles  float64
	Exceptions     []string
}

// EvaluateGeofence compares a caregiver's device fix against the client's
// service-address coordinates.
//
//   - In range           => IN_RANGE / VERIFIED
//   - Out of range       => GeofenceRejectionError (no verdict, nothing persisted)
//   - Out of range+force => OUT_OF_RANGE / EXCEPTION with the given reason code
//
// Invalid coordinates on either side surface as ErrInvalidCoordinate; a
// distance is never fabricated from a bad pair.
func EvaluateGeofence(
	deviceLat, deviceLng float64,
	clientLat, clientLng float64,
	radiusMiles float64,
	force bool,
	forcedReasonCode string,
) (*EVVVerdict, error) {
	dist, err := internal_utils.GeofenceDistanceMiles(deviceLat, deviceLng, clientLat, clientLng)
	if err != nil {
		return nil, err
	}

	if dist <= radiusMiles {
		return &EVVVerdict{
			GeofenceStatus: models.GeofenceInRange,
			EVVStatus:      models.EVVStatusVerified,
			DistanceMiles:  dist,
			Exceptions:     []string{},
		}, nil
	}

	if !force {
		return nil, internal_utils.NewGeofenceRejectionError(dist, radiusMiles)
	}

	return &EVVVerdict{
		GeofenceStatus: models.GeofenceOutOfRange,
		EVVStatus:      models.EVVStatusException,
		DistanceMiles:  dist,
		Exceptions:     []string{forcedReasonCode},
	}, nil
}
