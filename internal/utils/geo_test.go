package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDistanceMiles_SamePointIsZero(t *testing.T) {
	require.Zero(t, DistanceMiles(40.7128, -74.0060, 40.7128, -74.0060))
}

func TestDistanceMiles_Symmetric(t *testing.T) {
	d1 := DistanceMiles(40.7128, -74.0060, 34.0522, -118.2437)
	d2 := DistanceMiles(34.0522, -118.2437, 40.7128, -74.0060)
	require.InDelta(t, d1, d2, 1e-9)
}

func TestDistanceMiles_KnownDistance(t *testing.T) {
	// NYC to LA great-circle distance is roughly 2,445 miles.
	d := DistanceMiles(40.7128, -74.0060, 34.0522, -118.2437)
	require.InDelta(t, 2445, d, 15)

	// Lower Manhattan to Long Island City, a few miles.
	short := DistanceMiles(40.7128, -74.0060, 40.7300, -73.9350)
	require.InDelta(t, 3.9, short, 0.5)
}

func TestDistanceMiles_NeverNaN(t *testing.T) {
	// Antipodal-ish and identical points are the classic NaN traps for a
	// naive haversine.
	cases := [][4]float64{
		{0, 0, 0, 180},
		{90, 0, -90, 0},
		{40.7128, -74.0060, 40.7128, -74.0060},
	}
	for _, c := range cases {
		d := DistanceMiles(c[0], c[1], c[2], c[3])
		require.False(t, math.IsNaN(d), "coords %v produced NaN", c)
	}
}

func TestValidateCoordinate(t *testing.T) {
	require.NoError(t, ValidateCoordinate(0, 0))
	require.NoError(t, ValidateCoordinate(90, 180))
	require.NoError(t, ValidateCoordinate(-90, -180))

	require.ErrorIs(t, ValidateCoordinate(90.0001, 0), ErrInvalidCoordinate)
	require.ErrorIs(t, ValidateCoordinate(0, -180.0001), ErrInvalidCoordinate)
}

func TestGeofenceDistanceMiles_RejectsBadPairs(t *testing.T) {
	_, err := GeofenceDistanceMiles(91, 0, 40.7128, -74.0060)
	require.ErrorIs(t, err, ErrInvalidCoordinate)

	_, err = GeofenceDistanceMiles(40.7128, -74.0060, 0, 181)
	require.ErrorIs(t, err, ErrInvalidCoordinate)

	d, err := GeofenceDistanceMiles(40.7128, -74.0060, 40.7130, -74.0060)
	require.NoError(t, err)
	require.Greater(t, d, 0.0)
}
