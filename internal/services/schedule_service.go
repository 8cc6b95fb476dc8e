package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/visits-service/internal/dtos"
	"github.com/carebridge/visits-service/internal/models"
	internal_utils "github.com/carebridge/visits-service/internal/utils"
)

// CreateShift schedules a caregiver against a client. Overlapping shifts for
// the same caregiver are detected and reported in the response, but never
// block creation; coordinators resolve double-bookings out of band.
func (s *VisitService) CreateShift(
	ctx context.Context,
	businessID string,
	req dtos.CreateShiftRequest,
) (*dtos.CreateShiftResponse, error) {
	bizUUID, parseErr := uuid.Parse(businessID)
	if parseErr != nil {
		return nil, fmt.Errorf("invalid business ID format: %w", parseErr)
	}

	if !req.ScheduledEnd.After(req.ScheduledStart) {
		return nil, internal_utils.ErrInvalidPayload
	}

	cg, err := s.caregiverRepo.GetByID(ctx, req.CaregiverID)
	if err != nil {
		return nil, err
	}
	if cg == nil {
		return nil, fmt.Errorf("caregiver %s not found", req.CaregiverID)
	}
	if cg.BusinessID != bizUUID {
		return nil, internal_utils.ErrInvalidPayload
	}
	if cg.AccountStatus != models.AccountStatusActive {
		return nil, internal_utils.ErrCaregiverNotActive
	}

	client, err := s.clientRepo.GetByID(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("client %s not found", req.ClientID)
	}
	if client.BusinessID != bizUUID {
		return nil, internal_utils.ErrInvalidPayload
	}

	sh := &models.Shift{
		ID:             uuid.New(),
		BusinessID:     bizUUID,
		CaregiverID:    req.CaregiverID,
		ClientID:       req.ClientID,
		CaregiverName:  cg.DisplayName(),
		ClientName:     client.DisplayName(),
		ScheduledStart: req.ScheduledStart.UTC(),
		ScheduledEnd:   req.ScheduledEnd.UTC(),
		Status:         models.ShiftStatusScheduled,
	}

	// Advisory overlap check against the caregiver's other bookings in the
	// candidate window.
	existing, err := s.shiftRepo.ListByCaregiverAndRange(
		ctx, req.CaregiverID, nil, sh.ScheduledStart, sh.ScheduledEnd,
	)
	if err != nil {
		return nil, err
	}
	conflicts := ConflictsWith(sh, existing)

	if err := s.shiftRepo.Create(ctx, sh); err != nil {
		return nil, err
	}

	created, err := s.shiftRepo.GetByID(ctx, sh.ID)
	if err != nil {
		return nil, err
	}

	if len(conflicts) > 0 {
		internal_utils.Logger.Warnf(
			"CreateShift: shift %s for caregiver %s overlaps %d existing shift(s)",
			sh.ID, req.CaregiverID, len(conflicts),
		)
	}

	return &dtos.CreateShiftResponse{
		Created:   *s.buildShiftDTO(ctx, created),
		Conflicts: conflicts,
	}, nil
}

// GetShift returns a single shift, or nil when it does not exist.
func (s *VisitService) GetShift(ctx context.Context, shiftID uuid.UUID) (*dtos.ShiftDTO, error) {
	sh, err := s.shiftRepo.GetByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, nil
	}
	return s.buildShiftDTO(ctx, sh), nil
}

// ListMyShifts returns the caregiver's shifts whose windows intersect the
// given range, newest booking first within start order.
func (s *VisitService) ListMyShifts(
	ctx context.Context,
	caregiverID string,
	rangeStart, rangeEnd time.Time,
) (*dtos.ListShiftsResponse, error) {
	cgUUID, parseErr := uuid.Parse(caregiverID)
	if parseErr != nil {
		return nil, fmt.Errorf("invalid caregiver ID format: %w", parseErr)
	}

	shifts, err := s.shiftRepo.ListByCaregiverAndRange(ctx, cgUUID, nil, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}

	results := make([]dtos.ShiftDTO, 0, len(shifts))
	for _, sh := range shifts {
		results = append(results, *s.buildShiftDTO(ctx, sh))
	}
	return &dtos.ListShiftsResponse{
		Results: results,
		Total:   len(results),
	}, nil
}
