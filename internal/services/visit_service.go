package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/twilio/twilio-go"

	"github.com/carebridge/visits-service/internal/config"
	"github.com/carebridge/visits-service/internal/constants"
	"github.com/carebridge/visits-service/internal/dtos"
	"github.com/carebridge/visits-service/internal/models"
	"github.com/carebridge/visits-service/internal/repositories"
	internal_utils "github.com/carebridge/visits-service/internal/utils"
)

type VisitService struct {
	cfg            *config.Config
	shiftRepo      repositories.ShiftRepository
	clientRepo     repositories.ClientRepository
	caregiverRepo  repositories.CaregiverRepository
	coordRepo      repositories.CoordinatorRepository
	twilioClient   *twilio.RestClient
	sendgridClient *sendgrid.Client
}

func NewVisitService(
	cfg *config.Config,
	shiftRepo repositories.ShiftRepository,
	clientRepo repositories.ClientRepository,
	caregiverRepo repositories.CaregiverRepository,
	coordRepo repositories.CoordinatorRepository,
	twilioClient *twilio.RestClient,
	sendgridClient *sendgrid.Client,
) *VisitService {
	return &VisitService{
		cfg:            cfg,
		shiftRepo:      shiftRepo,
		clientRepo:     clientRepo,
		caregiverRepo:  caregiverRepo,
		coordRepo:      coordRepo,
		twilioClient:   twilioClient,
		sendgridClient: sendgridClient,
	}
}

// ClockIn transitions a SCHEDULED shift to IN_PROGRESS after verifying the
// caregiver's device fix against the client's geofence. The whole EVV verdict
// is persisted in the same atomic statement as the transition, so a shift is
// never IN_PROGRESS without its verification on record.
func (s *VisitService) ClockIn(
	ctx context.Context,
	caregiverID string,
	req dtos.ClockRequest,
) (*dtos.ShiftDTO, error) {
	sh, err := s.shiftRepo.GetByID(ctx, req.ShiftID)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, nil
	}

	cgUUID, parseErr := uuid.Parse(caregiverID)
	if parseErr != nil {
		return nil, fmt.Errorf("invalid caregiver ID format: %w", parseErr)
	}
	if sh.CaregiverID != cgUUID {
		return nil, internal_utils.ErrNotAssignedCaregiver
	}

	if sh.Status.IsTerminal() {
		return nil, internal_utils.ErrShiftTerminal
	}
	if sh.Status != models.ShiftStatusScheduled {
		return nil, internal_utils.ErrInvalidTransition
	}

	cg, cgErr := s.caregiverRepo.GetByID(ctx, cgUUID)
	if cgErr != nil {
		return nil, cgErr
	}
	if cg == nil {
		// Security anomaly: a valid JWT for a caregiver we don't know.
		return nil, fmt.Errorf("authenticated caregiver with ID %s not found in database", caregiverID)
	}
	if cg.AccountStatus != models.AccountStatusActive {
		return nil, internal_utils.ErrCaregiverNotActive
	}

	now := time.Now().UTC()
	earliest := sh.ScheduledStart.Add(-s.cfg.ClockInEarlyWindow)
	if now.Before(earliest) || now.After(sh.ScheduledEnd) {
		return nil, internal_utils.ErrOutsideClockInWindow
	}

	client, clErr := s.clientRepo.GetByID(ctx, sh.ClientID)
	if clErr != nil {
		return nil, clErr
	}
	if client == nil {
		return nil, fmt.Errorf("client not found for shift %s", sh.ID)
	}
	if !client.HasCoordinates {
		return nil, internal_utils.ErrClientLocationUnknown
	}

	verdict, vErr := EvaluateGeofence(
		req.Lat, req.Lng,
		client.Latitude, client.Longitude,
		s.cfg.GeofenceRadiusMiles,
		req.Force,
		constants.ExceptionForcedOutOfRange,
	)
	if vErr != nil {
		return nil, vErr
	}

	gps := models.GPSReading{
		Latitude:       req.Lat,
		Longitude:      req.Lng,
		AccuracyMeters: req.Accuracy,
		MeasuredAt:     time.UnixMilli(req.Timestamp).UTC(),
	}

	expectedVersion := sh.RowVersion
	updated, err2 := s.shiftRepo.ClockInAtomic(
		ctx,
		sh.ID,
		expectedVersion,
		gps,
		verdict.GeofenceStatus,
		verdict.EVVStatus,
		verdict.Exceptions,
		VerificationMethodGPS,
	)
	if err2 != nil {
		if strings.Contains(err2.Error(), internal_utils.ErrRowVersionConflict.Error()) {
			latest, _ := s.shiftRepo.GetByID(ctx, sh.ID)
			if latest != nil {
				return nil, internal_utils.NewRowVersionConflictError(latest)
			}
		}
		return nil, err2
	}
	if updated == nil {
		return nil, internal_utils.ErrNoRowsUpdated
	}

	if verdict.EVVStatus == models.EVVStatusException {
		NotifyCoordinators(
			ctx, updated, client,
			"[EVV Exception] Forced Clock-In Out of Range",
			fmt.Sprintf(
				"Caregiver %s clocked in %.2f miles from the client address (allowed %.2f). The visit proceeds but is flagged for review.",
				updated.CaregiverName, verdict.DistanceMiles, s.cfg.GeofenceRadiusMiles,
			),
			s.coordRepo, s.twilioClient, s.sendgridClient,
			s.cfg.TwilioFromPhone, s.cfg.SendgridFromEmail,
			s.cfg.OrganizationName, s.cfg.SendgridSandboxMode,
		)
	} else {
		NotifyCoordinators(
			ctx, updated, client,
			"Visit Started",
			fmt.Sprintf("Caregiver %s clocked in for %s.", updated.CaregiverName, client.DisplayName()),
			s.coordRepo, s.twilioClient, s.sendgridClient,
			s.cfg.TwilioFromPhone, s.cfg.SendgridFromEmail,
			s.cfg.OrganizationName, s.cfg.SendgridSandboxMode,
		)
	}

	dto := s.buildShiftDTO(ctx, updated)
	return dto, nil
}

// ClockOut transitions an IN_PROGRESS shift to COMPLETED. The clock-out fix
// goes through the same geofence evaluation as clock-in, and the billing
// quantity is derived and persisted in the same atomic statement.
func (s *VisitService) ClockOut(
	ctx context.Context,
	caregiverID string,
	req dtos.ClockRequest,
) (*dtos.ShiftDTO, error) {
	sh, err := s.shiftRepo.GetByID(ctx, req.ShiftID)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, nil
	}

	cgUUID, parseErr := uuid.Parse(caregiverID)
	if parseErr != nil {
		return nil, fmt.Errorf("invalid caregiver ID format: %w", parseErr)
	}
	if sh.CaregiverID != cgUUID {
		return nil, internal_utils.ErrNotAssignedCaregiver
	}

	if sh.Status.IsTerminal() {
		return nil, internal_utils.ErrShiftTerminal
	}
	if sh.Status != models.ShiftStatusInProgress {
		return nil, internal_utils.ErrInvalidTransition
	}

	client, clErr := s.clientRepo.GetByID(ctx, sh.ClientID)
	if clErr != nil {
		return nil, clErr
	}
	if client == nil {
		return nil, fmt.Errorf("client not found for shift %s", sh.ID)
	}
	if !client.HasCoordinates {
		return nil, internal_utils.ErrClientLocationUnknown
	}

	verdict, vErr := EvaluateGeofence(
		req.Lat, req.Lng,
		client.Latitude, client.Longitude,
		s.cfg.GeofenceRadiusMiles,
		req.Force,
		constants.ExceptionForcedOutOfRangeOut,
	)
	if vErr != nil {
		return nil, vErr
	}

	now := time.Now().UTC()
	billing := CalculateBilling(sh.CheckInAt, &now, s.cfg.DefaultFallbackUnits)

	exceptions := append([]string{}, verdict.Exceptions...)
	exceptions = append(exceptions, billing.Exceptions...)

	// A clean clock-out never clears exceptions already on record (e.g. a
	// forced out-of-range clock-in); the shift stays EXCEPTION for review.
	evvStatus := verdict.EVVStatus
	if len(exceptions) > 0 || hasEVVException(sh) {
		evvStatus = models.EVVStatusException
	}

	gps := models.GPSReading{
		Latitude:       req.Lat,
		Longitude:      req.Lng,
		AccuracyMeters: req.Accuracy,
		MeasuredAt:     time.UnixMilli(req.Timestamp).UTC(),
	}

	expectedVersion := sh.RowVersion
	updated, err2 := s.shiftRepo.ClockOutAtomic(
		ctx,
		sh.ID,
		expectedVersion,
		gps,
		evvStatus,
		exceptions,
		billing.ActualHours,
		billing.Units,
		billing.Code,
		billing.Modifier,
	)
	if err2 != nil {
		if strings.Contains(err2.Error(), internal_utils.ErrRowVersionConflict.Error()) {
			latest, _ := s.shiftRepo.GetByID(ctx, sh.ID)
			if latest != nil {
				return nil, internal_utils.NewRowVersionConflictError(latest)
			}
		}
		return nil, err2
	}
	if updated == nil {
		return nil, internal_utils.ErrNoRowsUpdated
	}

	if evvStatus == models.EVVStatusException {
		NotifyCoordinators(
			ctx, updated, client,
			"[EVV Exception] Visit Completed With Exceptions",
			fmt.Sprintf(
				"Caregiver %s clocked out for %s with EVV exceptions: %s. Review before billing.",
				updated.CaregiverName, client.DisplayName(), strings.Join(exceptions, ", "),
			),
			s.coordRepo, s.twilioClient, s.sendgridClient,
			s.cfg.TwilioFromPhone, s.cfg.SendgridFromEmail,
			s.cfg.OrganizationName, s.cfg.SendgridSandboxMode,
		)
	} else {
		NotifyCoordinators(
			ctx, updated, client,
			"Visit Completed",
			fmt.Sprintf(
				"Caregiver %s clocked out for %s. %.2f hours, %.2f units.",
				updated.CaregiverName, client.DisplayName(), billing.ActualHours, billing.Units,
			),
			s.coordRepo, s.twilioClient, s.sendgridClient,
			s.cfg.TwilioFromPhone, s.cfg.SendgridFromEmail,
			s.cfg.OrganizationName, s.cfg.SendgridSandboxMode,
		)
	}

	dto := s.buildShiftDTO(ctx, updated)
	return dto, nil
}

// CancelShift transitions a SCHEDULED shift to CANCELLED. Only shifts that
// have not started can be cancelled; an in-progress visit ends as COMPLETED
// or MISSED, never CANCELLED.
func (s *VisitService) CancelShift(
	ctx context.Context,
	shiftID uuid.UUID,
) (*dtos.ShiftDTO, error) {
	sh, err := s.shiftRepo.GetByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, nil
	}
	if sh.Status.IsTerminal() {
		return nil, internal_utils.ErrShiftTerminal
	}
	if sh.Status != models.ShiftStatusScheduled {
		return nil, internal_utils.ErrInvalidTransition
	}

	updated, err2 := s.shiftRepo.CancelAtomic(ctx, shiftID, sh.RowVersion)
	if err2 != nil {
		if strings.Contains(err2.Error(), internal_utils.ErrRowVersionConflict.Error()) {
			latest, _ := s.shiftRepo.GetByID(ctx, shiftID)
			if latest != nil {
				return nil, internal_utils.NewRowVersionConflictError(latest)
			}
		}
		return nil, err2
	}
	if updated == nil {
		return nil, internal_utils.ErrNoRowsUpdated
	}

	dto := s.buildShiftDTO(ctx, updated)
	return dto, nil
}

// MarkShiftMissed transitions a SCHEDULED or IN_PROGRESS shift to MISSED.
// Used both by coordinators and by the automated sweep.
func (s *VisitService) MarkShiftMissed(
	ctx context.Context,
	shiftID uuid.UUID,
) (*dtos.ShiftDTO, error) {
	sh, err := s.shiftRepo.GetByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, nil
	}
	if sh.Status.IsTerminal() {
		return nil, internal_utils.ErrShiftTerminal
	}

	updated, err2 := s.shiftRepo.MarkMissedAtomic(ctx, shiftID, sh.RowVersion)
	if err2 != nil {
		if strings.Contains(err2.Error(), internal_utils.ErrRowVersionConflict.Error()) {
			latest, _ := s.shiftRepo.GetByID(ctx, shiftID)
			if latest != nil {
				return nil, internal_utils.NewRowVersionConflictError(latest)
			}
		}
		return nil, err2
	}
	if updated == nil {
		return nil, internal_utils.ErrNoRowsUpdated
	}

	dto := s.buildShiftDTO(ctx, updated)
	return dto, nil
}
