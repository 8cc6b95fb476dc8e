package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/visits-service/internal/config"
	"github.com/carebridge/visits-service/internal/constants"
	"github.com/carebridge/visits-service/internal/dtos"
	"github.com/carebridge/visits-service/internal/models"
	internal_utils "github.com/carebridge/visits-service/internal/utils"
)

var (
	testBizID       = uuid.New()
	testCaregiverID = uuid.New()
	testClientID    = uuid.New()
)

func testConfig() *config.Config {
	return &config.Config{
		OrganizationName:     "CareBridge Test",
		GeofenceRadiusMiles:  constants.DefaultGeofenceRadiusMiles,
		ClockInEarlyWindow:   constants.DefaultClockInEarlyWindow,
		DefaultFallbackUnits: constants.DefaultFallbackUnits,
	}
}

func testClient() *models.Client {
	return &models.Client{
		ID:             testClientID,
		BusinessID:     testBizID,
		FirstName:      "Edna",
		LastName:       "Marsh",
		Address:        "12 Elm St",
		City:           "Albany",
		State:          "NY",
		ZipCode:        "12203",
		TimeZone:       "America/New_York",
		Latitude:       40.7128,
		Longitude:      -74.0060,
		HasCoordinates: true,
	}
}

func testCaregiver() *models.Caregiver {
	return &models.Caregiver{
		ID:            testCaregiverID,
		BusinessID:    testBizID,
		FirstName:     "Rosa",
		LastName:      "Quinn",
		AccountStatus: models.AccountStatusActive,
	}
}

func testShift(status models.ShiftStatusType) *models.Shift {
	now := time.Now().UTC()
	sh := &models.Shift{
		ID:             uuid.New(),
		BusinessID:     testBizID,
		CaregiverID:    testCaregiverID,
		ClientID:       testClientID,
		CaregiverName:  "Rosa Quinn",
		ClientName:     "Edna Marsh",
		ScheduledStart: now.Add(30 * time.Minute),
		ScheduledEnd:   now.Add(4*time.Hour + 30*time.Minute),
		Status:         status,
		GeofenceStatus: models.GeofenceNotChecked,
		EVVStatus:      models.EVVStatusPending,
	}
	sh.RowVersion = 3
	return sh
}

func clockReq(sh *models.Shift, lat, lng float64, force bool) dtos.ClockRequest {
	return dtos.ClockRequest{
		ShiftID:   sh.ID,
		Lat:       lat,
		Lng:       lng,
		Accuracy:  8,
		Timestamp: time.Now().UnixMilli(),
		Force:     force,
	}
}

func newTestService(
	shiftRepo *MockShiftRepository,
	clientRepo *MockClientRepository,
	cgRepo *MockCaregiverRepository,
) *VisitService {
	if clientRepo == nil {
		client := testClient()
		clientRepo = &MockClientRepository{
			GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Client, error) {
				return client, nil
			},
		}
	}
	if cgRepo == nil {
		cg := testCaregiver()
		cgRepo = &MockCaregiverRepository{
			GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Caregiver, error) {
				return cg, nil
			},
		}
	}
	return NewVisitService(
		testConfig(),
		shiftRepo,
		clientRepo,
		cgRepo,
		&MockCoordinatorRepository{},
		nil, // no Twilio in unit tests; helper logs and skips
		nil, // no SendGrid either
	)
}

/*──────────────────────────── clock-in ────────────────────────────*/

func TestClockIn_VerifiedInRange(t *testing.T) {
	sh := testShift(models.ShiftStatusScheduled)
	var gotGeofence models.GeofenceStatusType
	var gotEVV models.EVVStatusType
	var gotVersion int64
	var gotMethod string

	shiftRepo := &MockShiftRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
			return sh, nil
		},
		ClockInAtomicFunc: func(
			ctx context.Context, shiftID uuid.UUID, expectedVersion int64,
			gps models.GPSReading, geofence models.GeofenceStatusType,
			evv models.EVVStatusType, exceptions []string, method string,
		) (*models.Shift, error) {
			gotGeofence = geofence
			gotEVV = evv
			gotVersion = expectedVersion
			gotMethod = method

			updated := *sh
			now := time.Now().UTC()
			updated.Status = models.ShiftStatusInProgress
			updated.CheckInAt = &now
			updated.GeofenceStatus = geofence
			updated.EVVStatus = evv
			updated.RowVersion = expectedVersion + 1
			return &updated, nil
		},
	}
	svc := newTestService(shiftRepo, nil, nil)

	dto, err := svc.ClockIn(context.Background(), testCaregiverID.String(), clockReq(sh, 40.7128, -74.0060, false))

	require.NoError(t, err)
	require.NotNil(t, dto)
	require.Equal(t, string(models.ShiftStatusInProgress), dto.Status)
	require.Equal(t, string(models.EVVStatusVerified), dto.EVVStatus)
	require.False(t, dto.NeedsReview)
	require.Equal(t, models.GeofenceInRange, gotGeofence)
	require.Equal(t, models.EVVStatusVerified, gotEVV)
	require.Equal(t, int64(3), gotVersion)
	require.Equal(t, VerificationMethodGPS, gotMethod)
}

func TestClockIn_NotAssignedCaregiver(t *testing.T) {
	sh := testShift(models.ShiftStatusScheduled)
	shiftRepo := &MockShiftRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
			return sh, nil
		},
	}
	svc := newTestService(shiftRepo, nil, nil)

	_, err := svc.ClockIn(context.Background(), uuid.NewString(), clockReq(sh, 40.7128, -74.0060, false))
	require.ErrorIs(t, err, internal_utils.ErrNotAssignedCaregiver)
}

func TestClockIn_InvalidStartingStatus(t *testing.T) {
	cases := []struct {
		status  models.ShiftStatusType
		wantErr error
	}{
		{models.ShiftStatusInProgress, internal_utils.ErrInvalidTransition},
		{models.ShiftStatusCompleted, internal_utils.ErrShiftTerminal},
		{models.ShiftStatusCancelled, internal_utils.ErrShiftTerminal},
		{models.ShiftStatusMissed, internal_utils.ErrShiftTerminal},
	}
	for _, c := range cases {
		sh := testShift(c.status)
		shiftRepo := &MockShiftRepository{
			GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
				return sh, nil
			},
		}
		svc := newTestService(shiftRepo, nil, nil)

		_, err := svc.ClockIn(context.Background(), testCaregiverID.String(), clockReq(sh, 40.7128, -74.0060, false))
		require.ErrorIs(t, err, c.wantErr, "status %s", c.status)
	}
}

func TestClockIn_InactiveCaregiver(t *testing.T) {
	sh := testShift(models.ShiftStatusScheduled)
	shiftRepo := &MockShiftRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
			return sh, nil
		},
	}
	cg := testCaregiver()
	cg.AccountStatus = models.AccountStatusSuspended
	cgRepo := &MockCaregiverRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Caregiver, error) {
			return cg, nil
		},
	}
	svc := newTestService(shiftRepo, nil, cgRepo)

	_, err := svc.ClockIn(context.Background(), testCaregiverID.String(), clockReq(sh, 40.7128, -74.0060, false))
	require.ErrorIs(t, err, internal_utils.ErrCaregiverNotActive)
}

func TestClockIn_OutsideEarlyWindow(t *testing.T) {
	sh := testShift(models.ShiftStatusScheduled)
	now := time.Now().UTC()
	sh.ScheduledStart = now.Add(3 * time.Hour) // 1h past the 2h early window
	sh.ScheduledEnd = now.Add(7 * time.Hour)

	shiftRepo := &MockShiftRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
			return sh, nil
		},
	}
	svc := newTestService(shiftRepo, nil, nil)

	_, err := svc.ClockIn(context.Background(), testCaregiverID.String(), clockReq(sh, 40.7128, -74.0060, false))
	require.ErrorIs(t, err, internal_utils.ErrOutsideClockInWindow)
}

func TestClockIn_AfterScheduledEnd(t *testing.T) {
	sh := testShift(models.ShiftStatusScheduled)
	now := time.Now().UTC()
	sh.ScheduledStart = now.Add(-3 * time.Hour)
	sh.ScheduledEnd = now.Add(-1 * time.Hour)

	shiftRepo := &MockShiftRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
			return sh, nil
		},
	}
	svc := newTestService(shiftRepo, nil, nil)

	_, err := svc.ClockIn(context.Background(), testCaregiverID.String(), clockReq(sh, 40.7128, -74.0060, false))
	require.ErrorIs(t, err, internal_utils.ErrOutsideClockInWindow)
}

func TestClockIn_OutOfRangeWithoutForce(t *testing.T) {
	sh := testShift(models.ShiftStatusScheduled)
	atomicCalled := false
	shiftRepo := &MockShiftRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
			return sh, nil
		},
		ClockInAtomicFunc: func(
			ctx context.Context, shiftID uuid.UUID, expectedVersion int64,
			gps models.GPSReading, geofence models.GeofenceStatusType,
			evv models.EVVStatusType, exceptions []string, method string,
		) (*models.Shift, error) {
			atomicCalled = true
			return sh, nil
		},
	}
	svc := newTestService(shiftRepo, nil, nil)

	_, err := svc.ClockIn(context.Background(), testCaregiverID.String(), clockReq(sh, 40.7300, -73.9350, false))

	var rej *internal_utils.GeofenceRejectionError
	require.ErrorAs(t, err, &rej)
	require.False(t, atomicCalled, "a rejected clock-in must not touch the shift")
}

func TestClockIn_OutOfRangeForced(t *testing.T) {
	sh := testShift(models.ShiftStatusScheduled)
	var gotEVV models.EVVStatusType
	var gotExceptions []string
	shiftRepo := &MockShiftRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
			return sh, nil
		},
		ClockInAtomicFunc: func(
			ctx context.Context, shiftID uuid.UUID, expectedVersion int64,
			gps models.GPSReading, geofence models.GeofenceStatusType,
			evv models.EVVStatusType, exceptions []string, method string,
		) (*models.Shift, error) {
			gotEVV = evv
			gotExceptions = exceptions

			updated := *sh
			updated.Status = models.ShiftStatusInProgress
			updated.GeofenceStatus = geofence
			updated.EVVStatus = evv
			updated.EVVExceptions = exceptions
			return &updated, nil
		},
	}
	svc := newTestService(shiftRepo, nil, nil)

	dto, err := svc.ClockIn(context.Background(), testCaregiverID.String(), clockReq(sh, 40.7300, -73.9350, true))

	require.NoError(t, err)
	require.Equal(t, models.EVVStatusException, gotEVV)
	require.Equal(t, []string{constants.ExceptionForcedOutOfRange}, gotExceptions)
	require.True(t, dto.NeedsReview)
}

func TestClockIn_ClientLocationUnknown(t *testing.T) {
	sh := testShift(models.ShiftStatusScheduled)
	shiftRepo := &MockShiftRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
			return sh, nil
		},
	}
	client := testClient()
	client.HasCoordinates = false
	clientRepo := &MockClientRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Client, error) {
			return client, nil
		},
	}
	svc := newTestService(shiftRepo, clientRepo, nil)

	_, err := svc.ClockIn(context.Background(), testCaregiverID.String(), clockReq(sh, 40.7128, -74.0060, false))
	require.ErrorIs(t, err, internal_utils.ErrClientLocationUnknown)
}

func TestClockIn_RowVersionConflict(t *testing.T) {
	sh := testShift(models.ShiftStatusScheduled)
	latest := *sh
	latest.RowVersion = 4

	calls := 0
	shiftRepo := &MockShiftRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
			calls++
			if calls == 1 {
				return sh, nil
			}
			return &latest, nil
		},
		ClockInAtomicFunc: func(
			ctx context.Context, shiftID uuid.UUID, expectedVersion int64,
			gps models.GPSReading, geofence models.GeofenceStatusType,
			evv models.EVVStatusType, exceptions []string, method string,
		) (*models.Shift, error) {
			return nil, errors.New("row_version_conflict")
		},
	}
	svc := newTestService(shiftRepo, nil, nil)

	_, err := svc.ClockIn(context.Background(), testCaregiverID.String(), clockReq(sh, 40.7128, -74.0060, false))

	var conflict *internal_utils.RowVersionConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, int64(4), conflict.Current.RowVersion)
}

/*──────────────────────────── clock-out ───────────────────────────*/

func inProgressShift(checkInAgo time.Duration) *models.Shift {
	sh := testShift(models.ShiftStatusInProgress)
	now := time.Now().UTC()
	sh.ScheduledStart = now.Add(-checkInAgo)
	sh.ScheduledEnd = now.Add(time.Hour)
	checkIn := now.Add(-checkInAgo)
	sh.CheckInAt = &checkIn
	sh.CheckInGPS = &models.GPSReading{Latitude: 40.7128, Longitude: -74.0060}
	sh.GeofenceStatus = models.GeofenceInRange
	sh.EVVStatus = models.EVVStatusVerified
	return sh
}

func TestClockOut_CompletedWithBilling(t *testing.T) {
	sh := inProgressShift(3*time.Hour + 10*time.Minute)

	var gotUnits, gotHours float64
	var gotCode string
	var gotEVV models.EVVStatusType
	var gotExceptions []string
	shiftRepo := &MockShiftRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
			return sh, nil
		},
		ClockOutAtomicFunc: func(
			ctx context.Context, shiftID uuid.UUID, expectedVersion int64,
			gps models.GPSReading, evv models.EVVStatusType, exceptions []string,
			actualHours, billingUnits float64, billingCode, modifier string,
		) (*models.Shift, error) {
			gotUnits = billingUnits
			gotHours = actualHours
			gotCode = billingCode
			gotEVV = evv
			gotExceptions = exceptions

			updated := *sh
			now := time.Now().UTC()
			updated.Status = models.ShiftStatusCompleted
			updated.CheckOutAt = &now
			updated.EVVStatus = evv
			updated.ActualHours = actualHours
			updated.BillingUnits = billingUnits
			updated.BillingCode = billingCode
			return &updated, nil
		},
	}
	svc := newTestService(shiftRepo, nil, nil)

	dto, err := svc.ClockOut(context.Background(), testCaregiverID.String(), clockReq(sh, 40.7128, -74.0060, false))

	require.NoError(t, err)
	require.Equal(t, string(models.ShiftStatusCompleted), dto.Status)
	require.InDelta(t, 3.25, gotUnits, 1e-9)
	require.InDelta(t, 3.167, gotHours, 0.01)
	require.Equal(t, constants.DefaultBillingCode, gotCode)
	require.Equal(t, models.EVVStatusVerified, gotEVV)
	require.Empty(t, gotExceptions)
}

func TestClockOut_MissingCheckInFallsBack(t *testing.T) {
	sh := inProgressShift(2 * time.Hour)
	sh.CheckInAt = nil

	var gotUnits float64
	var gotEVV models.EVVStatusType
	var gotExceptions []string
	shiftRepo := &MockShiftRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
			return sh, nil
		},
		ClockOutAtomicFunc: func(
			ctx context.Context, shiftID uuid.UUID, expectedVersion int64,
			gps models.GPSReading, evv models.EVVStatusType, exceptions []string,
			actualHours, billingUnits float64, billingCode, modifier string,
		) (*models.Shift, error) {
			gotUnits = billingUnits
			gotEVV = evv
			gotExceptions = exceptions

			updated := *sh
			updated.Status = models.ShiftStatusCompleted
			updated.EVVStatus = evv
			updated.EVVExceptions = exceptions
			return &updated, nil
		},
	}
	svc := newTestService(shiftRepo, nil, nil)

	dto, err := svc.ClockOut(context.Background(), testCaregiverID.String(), clockReq(sh, 40.7128, -74.0060, false))

	require.NoError(t, err)
	require.InDelta(t, constants.DefaultFallbackUnits, gotUnits, 1e-9)
	require.Equal(t, models.EVVStatusException, gotEVV)
	require.Contains(t, gotExceptions, constants.ExceptionMissingTimestamps)
	require.True(t, dto.NeedsReview)
}

func TestClockOut_KeepsForcedClockInException(t *testing.T) {
	sh := inProgressShift(3 * time.Hour)
	sh.GeofenceStatus = models.GeofenceOutOfRange
	sh.EVVStatus = models.EVVStatusException
	sh.EVVExceptions = []string{constants.ExceptionForcedOutOfRange}

	var gotEVV models.EVVStatusType
	shiftRepo := &MockShiftRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
			return sh, nil
		},
		ClockOutAtomicFunc: func(
			ctx context.Context, shiftID uuid.UUID, expectedVersion int64,
			gps models.GPSReading, evv models.EVVStatusType, exceptions []string,
			actualHours, billingUnits float64, billingCode, modifier string,
		) (*models.Shift, error) {
			gotEVV = evv

			updated := *sh
			updated.Status = models.ShiftStatusCompleted
			updated.EVVStatus = evv
			return &updated, nil
		},
	}
	svc := newTestService(shiftRepo, nil, nil)

	// Clock out at the client's exact coordinates: the clock-out fix itself
	// verifies, but the forced clock-in on record must keep the shift in
	// EXCEPTION for coordinator review.
	dto, err := svc.ClockOut(context.Background(), testCaregiverID.String(), clockReq(sh, 40.7128, -74.0060, false))

	require.NoError(t, err)
	require.Equal(t, models.EVVStatusException, gotEVV)
	require.True(t, dto.NeedsReview)
}

func TestClockOut_WrongStatus(t *testing.T) {
	sh := testShift(models.ShiftStatusScheduled)
	shiftRepo := &MockShiftRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
			return sh, nil
		},
	}
	svc := newTestService(shiftRepo, nil, nil)

	_, err := svc.ClockOut(context.Background(), testCaregiverID.String(), clockReq(sh, 40.7128, -74.0060, false))
	require.ErrorIs(t, err, internal_utils.ErrInvalidTransition)
}

/*──────────────────────── cancel / missed ─────────────────────────*/

func TestCancelShift_OnlyFromScheduled(t *testing.T) {
	sh := testShift(models.ShiftStatusScheduled)
	shiftRepo := &MockShiftRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
			return sh, nil
		},
		CancelAtomicFunc: func(ctx context.Context, shiftID uuid.UUID, expectedVersion int64) (*models.Shift, error) {
			updated := *sh
			updated.Status = models.ShiftStatusCancelled
			return &updated, nil
		},
	}
	svc := newTestService(shiftRepo, nil, nil)

	dto, err := svc.CancelShift(context.Background(), sh.ID)
	require.NoError(t, err)
	require.Equal(t, string(models.ShiftStatusCancelled), dto.Status)

	inProgress := testShift(models.ShiftStatusInProgress)
	shiftRepo.GetByIDFunc = func(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
		return inProgress, nil
	}
	_, err = svc.CancelShift(context.Background(), inProgress.ID)
	require.ErrorIs(t, err, internal_utils.ErrInvalidTransition)

	done := testShift(models.ShiftStatusCompleted)
	shiftRepo.GetByIDFunc = func(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
		return done, nil
	}
	_, err = svc.CancelShift(context.Background(), done.ID)
	require.ErrorIs(t, err, internal_utils.ErrShiftTerminal)
}

func TestMarkShiftMissed_FromScheduledAndInProgress(t *testing.T) {
	for _, status := range []models.ShiftStatusType{models.ShiftStatusScheduled, models.ShiftStatusInProgress} {
		sh := testShift(status)
		shiftRepo := &MockShiftRepository{
			GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
				return sh, nil
			},
			MarkMissedAtomicFunc: func(ctx context.Context, shiftID uuid.UUID, expectedVersion int64) (*models.Shift, error) {
				updated := *sh
				updated.Status = models.ShiftStatusMissed
				return &updated, nil
			},
		}
		svc := newTestService(shiftRepo, nil, nil)

		dto, err := svc.MarkShiftMissed(context.Background(), sh.ID)
		require.NoError(t, err, "status %s", status)
		require.Equal(t, string(models.ShiftStatusMissed), dto.Status)
	}

	done := testShift(models.ShiftStatusCompleted)
	shiftRepo := &MockShiftRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
			return done, nil
		},
	}
	svc := newTestService(shiftRepo, nil, nil)
	_, err := svc.MarkShiftMissed(context.Background(), done.ID)
	require.ErrorIs(t, err, internal_utils.ErrShiftTerminal)
}

/*──────────────────────────── scheduling ──────────────────────────*/

func TestCreateShift_ReportsAdvisoryConflicts(t *testing.T) {
	now := time.Now().UTC()
	existing := testShift(models.ShiftStatusScheduled)
	existing.ScheduledStart = now.Add(time.Hour)
	existing.ScheduledEnd = now.Add(3 * time.Hour)

	var created *models.Shift
	shiftRepo := &MockShiftRepository{
		CreateFunc: func(ctx context.Context, sh *models.Shift) error {
			created = sh
			return nil
		},
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
			return created, nil
		},
		ListByCaregiverAndRangeFunc: func(
			ctx context.Context, caregiverID uuid.UUID,
			statuses []models.ShiftStatusType, rangeStart, rangeEnd time.Time,
		) ([]*models.Shift, error) {
			return []*models.Shift{existing}, nil
		},
	}
	svc := newTestService(shiftRepo, nil, nil)

	resp, err := svc.CreateShift(context.Background(), testBizID.String(), dtos.CreateShiftRequest{
		CaregiverID:    testCaregiverID,
		ClientID:       testClientID,
		ScheduledStart: now.Add(2 * time.Hour),
		ScheduledEnd:   now.Add(4 * time.Hour),
	})

	require.NoError(t, err)
	require.NotNil(t, created, "overlaps must not block creation")
	require.Len(t, resp.Conflicts, 1)
	require.Equal(t, existing.ID, resp.Conflicts[0].OtherShiftID)
}

func TestCreateShift_RejectsInvertedWindow(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestService(&MockShiftRepository{}, nil, nil)

	_, err := svc.CreateShift(context.Background(), testBizID.String(), dtos.CreateShiftRequest{
		CaregiverID:    testCaregiverID,
		ClientID:       testClientID,
		ScheduledStart: now.Add(2 * time.Hour),
		ScheduledEnd:   now.Add(2 * time.Hour),
	})
	require.ErrorIs(t, err, internal_utils.ErrInvalidPayload)
}
