package utils

import (
	"github.com/umahmood/haversine"
)

/*────────────────────────────────────────────────────────────────────────────
  DistanceMiles uses Haversine for a direct “as-the-crow-flies” distance.
────────────────────────────────────────────────────────────────────────────*/
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := haversine.Coord{Lat: lat1, Lon: lon1}
	p2 := haversine.Coord{Lat: lat2, Lon: lon2}
	mi, _ := haversine.Distance(p1, p2)
	return mi
}

// ValidateCoordinate rejects out-of-range lat/lng before any distance math so
// a bad reading surfaces as ErrInvalidCoordinate instead of a garbage number.
func ValidateCoordinate(lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return ErrInvalidCoordinate
	}
	return nil
}

// GeofenceDistanceMiles validates both coordinate pairs, then returns the
// great-circle distance between them.
func GeofenceDistanceMiles(lat1, lon1, lat2, lon2 float64) (float64, error) {
	if err := ValidateCoordinate(lat1, lon1); err != nil {
		return 0, err
	}
	if err := ValidateCoordinate(lat2, lon2); err != nil {
		return 0, err
	}
	return DistanceMiles(lat1, lon1, lat2, lon2), nil
}
