package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/visits-service/internal/models"
)

type MockShiftRepository struct {
	CreateFunc                  func(ctx context.Context, sh *models.Shift) error
	GetByIDFunc                 func(ctx context.Context, id uuid.UUID) (*models.Shift, error)
	ListByCaregiverAndRangeFunc func(ctx context.Context, caregiverID uuid.UUID, statuses []models.ShiftStatusType, rangeStart, rangeEnd time.Time) ([]*models.Shift, error)
	ListByStatusAndRangeFunc    func(ctx context.Context, statuses []models.ShiftStatusType, rangeStart, rangeEnd time.Time) ([]*models.Shift, error)
	ClockInAtomicFunc           func(ctx context.Context, shiftID uuid.UUID, expectedVersion int64, gps models.GPSReading, geofence models.GeofenceStatusType, evv models.EVVStatusType, exceptions []string, method string) (*models.Shift, error)
	ClockOutAtomicFunc          func(ctx context.Context, shiftID uuid.UUID, expectedVersion int64, gps models.GPSReading, evv models.EVVStatusType, exceptions []string, actualHours, billingUnits float64, billingCode, modifier string) (*models.Shift, error)
	CancelAtomicFunc            func(ctx context.Context, shiftID uuid.UUID, expectedVersion int64) (*models.Shift, error)
	MarkMissedAtomicFunc        func(ctx context.Context, shiftID uuid.UUID, expectedVersion int64) (*models.Shift, error)
}

func (m *MockShiftRepository) Create(ctx context.Context, sh *models.Shift) error {
	if m.CreateFunc == nil {
		return nil
	}
	return m.CreateFunc(ctx, sh)
}

func (m *MockShiftRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *MockShiftRepository) ListByCaregiverAndRange(
	ctx context.Context,
	caregiverID uuid.UUID,
	statuses []models.ShiftStatusType,
	rangeStart, rangeEnd time.Time,
) ([]*models.Shift, error) {
	if m.ListByCaregiverAndRangeFunc == nil {
		return nil, nil
	}
	return m.ListByCaregiverAndRangeFunc(ctx, caregiverID, statuses, rangeStart, rangeEnd)
}

func (m *MockShiftRepository) ListByStatusAndRange(
	ctx context.Context,
	statuses []models.ShiftStatusType,
	rangeStart, rangeEnd time.Time,
) ([]*models.Shift, error) {
	if m.ListByStatusAndRangeFunc == nil {
		return nil, nil
	}
	return m.ListByStatusAndRangeFunc(ctx, statuses, rangeStart, rangeEnd)
}

func (m *MockShiftRepository) ClockInAtomic(
	ctx context.Context,
	shiftID uuid.UUID,
	expectedVersion int64,
	gps models.GPSReading,
	geofence models.GeofenceStatusType,
	evv models.EVVStatusType,
	exceptions []string,
	method string,
) (*models.Shift, error) {
	return m.ClockInAtomicFunc(ctx, shiftID, expectedVersion, gps, geofence, evv, exceptions, method)
}

func (m *MockShiftRepository) ClockOutAtomic(
	ctx context.Context,
	shiftID uuid.UUID,
	expectedVersion int64,
	gps models.GPSReading,
	evv models.EVVStatusType,
	exceptions []string,
	actualHours, billingUnits float64,
	billingCode, modifier string,
) (*models.Shift, error) {
	return m.ClockOutAtomicFunc(ctx, shiftID, expectedVersion, gps, evv, exceptions, actualHours, billingUnits, billingCode, modifier)
}

func (m *MockShiftRepository) CancelAtomic(ctx context.Context, shiftID uuid.UUID, expectedVersion int64) (*models.Shift, error) {
	return m.CancelAtomicFunc(ctx, shiftID, expectedVersion)
}

func (m *MockShiftRepository) MarkMissedAtomic(ctx context.Context, shiftID uuid.UUID, expectedVersion int64) (*models.Shift, error) {
	return m.MarkMissedAtomicFunc(ctx, shiftID, expectedVersion)
}

type MockClientRepository struct {
	CreateFunc           func(ctx context.Context, c *models.Client) error
	GetByIDFunc          func(ctx context.Context, id uuid.UUID) (*models.Client, error)
	ListByBusinessIDFunc func(ctx context.Context, businessID uuid.UUID) ([]*models.Client, error)
}

func (m *MockClientRepository) Create(ctx context.Context, c *models.Client) error {
	if m.CreateFunc == nil {
		return nil
	}
	return m.CreateFunc(ctx, c)
}

func (m *MockClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *MockClientRepository) ListByBusinessID(ctx context.Context, businessID uuid.UUID) ([]*models.Client, error) {
	if m.ListByBusinessIDFunc == nil {
		return nil, nil
	}
	return m.ListByBusinessIDFunc(ctx, businessID)
}

type MockCaregiverRepository struct {
	CreateFunc  func(ctx context.Context, cg *models.Caregiver) error
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*models.Caregiver, error)
}

func (m *MockCaregiverRepository) Create(ctx context.Context, cg *models.Caregiver) error {
	if m.CreateFunc == nil {
		return nil
	}
	return m.CreateFunc(ctx, cg)
}

func (m *MockCaregiverRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Caregiver, error) {
	return m.GetByIDFunc(ctx, id)
}

type MockCoordinatorRepository struct {
	CreateFunc                 func(ctx context.Context, c *models.Coordinator) error
	ListOnCallByBusinessIDFunc func(ctx context.Context, businessID uuid.UUID) ([]*models.Coordinator, error)
}

func (m *MockCoordinatorRepository) Create(ctx context.Context, c *models.Coordinator) error {
	if m.CreateFunc == nil {
		return nil
	}
	return m.CreateFunc(ctx, c)
}

func (m *MockCoordinatorRepository) ListOnCallByBusinessID(ctx context.Context, businessID uuid.UUID) ([]*models.Coordinator, error) {
	if m.ListOnCallByBusinessIDFunc == nil {
		return nil, nil
	}
	return m.ListOnCallByBusinessIDFunc(ctx, businessID)
}
