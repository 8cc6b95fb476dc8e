package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/twilio/twilio-go"

	"github.com/carebridge/visits-service/internal/config"
	"github.com/carebridge/visits-service/internal/constants"
	"github.com/carebridge/visits-service/internal/models"
	"github.com/carebridge/visits-service/internal/repositories"
	internal_utils "github.com/carebridge/visits-service/internal/utils"
)

// MissedVisitService is the scheduled sweep that catches visits nobody
// clocked in to, and flags visits that run long past their window.
type MissedVisitService struct {
	cfg            *config.Config
	shiftRepo      repositories.ShiftRepository
	clientRepo     repositories.ClientRepository
	coordRepo      repositories.CoordinatorRepository
	twilioClient   *twilio.RestClient
	sendgridClient *sendgrid.Client
	visitService   *VisitService
}

func NewMissedVisitService(
	cfg *config.Config,
	shiftRepo repositories.ShiftRepository,
	clientRepo repositories.ClientRepository,
	coordRepo repositories.CoordinatorRepository,
	visitService *VisitService,
) *MissedVisitService {
	twClient := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	sgClient := sendgrid.NewSendClient(cfg.SendGridAPIKey)

	return &MissedVisitService{
		cfg:            cfg,
		shiftRepo:      shiftRepo,
		clientRepo:     clientRepo,
		coordRepo:      coordRepo,
		twilioClient:   twClient,
		sendgridClient: sgClient,
		visitService:   visitService,
	}
}

// RunMissedVisitCheck scans recent shifts and:
//
//   - marks SCHEDULED shifts MISSED once the grace period after their
//     scheduled end has elapsed with no clock-in, and
//   - warns coordinators about IN_PROGRESS visits running far past their
//     window (never auto-completing them; only a caregiver clock-out or a
//     coordinator decision ends a visit).
func (s *MissedVisitService) RunMissedVisitCheck(ctx context.Context) error {
	internal_utils.Logger.Debug("Running missed-visit sweep...")

	nowUTC := time.Now().UTC()
	// 48-hour window catches overnight shifts in every agency timezone.
	startRange := nowUTC.Add(-24 * time.Hour)
	endRange := nowUTC.Add(24 * time.Hour)

	statuses := []models.ShiftStatusType{
		models.ShiftStatusScheduled,
		models.ShiftStatusInProgress,
	}
	open, err := s.shiftRepo.ListByStatusAndRange(ctx, statuses, startRange, endRange)
	if err != nil {
		return err
	}

	for _, sh := range open {
		switch sh.Status {
		case models.ShiftStatusScheduled:
			cutoff := sh.ScheduledEnd.Add(constants.MissedSweepGrace)
			if nowUTC.After(cutoff) && sh.CheckInAt == nil {
				s.markMissed(ctx, sh)
			}
		case models.ShiftStatusInProgress:
			warnAt := sh.ScheduledEnd.Add(constants.OverrunWarnAfter)
			if nowUTC.After(warnAt) {
				s.warnOverrun(ctx, sh)
			}
		}
	}
	return nil
}

func (s *MissedVisitService) markMissed(ctx context.Context, sh *models.Shift) {
	missed, err := s.visitService.MarkShiftMissed(ctx, sh.ID)
	if err != nil {
		// A concurrent clock-in or coordinator action wins; the next sweep
		// re-evaluates whatever state remains.
		internal_utils.Logger.WithError(err).Warnf("markMissed: transition failed for shift=%s", sh.ID)
		return
	}
	if missed == nil {
		internal_utils.Logger.Warnf("markMissed: shift %s disappeared mid-sweep", sh.ID)
		return
	}
	internal_utils.Logger.Infof("markMissed: shift=%s marked MISSED after grace period", sh.ID)

	// Notify with the post-transition record, not the swept snapshot.
	if latest, lErr := s.shiftRepo.GetByID(ctx, sh.ID); lErr == nil && latest != nil {
		sh = latest
	}

	client, cErr := s.clientRepo.GetByID(ctx, sh.ClientID)
	if cErr != nil || client == nil {
		internal_utils.Logger.WithError(cErr).Warn("markMissed: client not found or nil")
	}
	NotifyCoordinators(
		ctx, sh, client,
		"[Missed Visit] No Clock-In Recorded",
		fmt.Sprintf(
			"Caregiver %s never clocked in for the visit scheduled to end at %s. The visit has been marked MISSED and needs coverage follow-up.",
			sh.CaregiverName, sh.ScheduledEnd.UTC().Format(time.RFC1123Z),
		),
		s.coordRepo, s.twilioClient, s.sendgridClient,
		s.cfg.TwilioFromPhone, s.cfg.SendgridFromEmail,
		s.cfg.OrganizationName, s.cfg.SendgridSandboxMode,
	)
}

func (s *MissedVisitService) warnOverrun(ctx context.Context, sh *models.Shift) {
	client, cErr := s.clientRepo.GetByID(ctx, sh.ClientID)
	if cErr != nil || client == nil {
		internal_utils.Logger.WithError(cErr).Warn("warnOverrun: client not found or nil")
	}
	NotifyCoordinators(
		ctx, sh, client,
		"[Overrun] Visit Still In Progress",
		fmt.Sprintf(
			"Caregiver %s is still clocked in %s past the scheduled end. Check whether they forgot to clock out.",
			sh.CaregiverName, constants.OverrunWarnAfter,
		),
		s.coordRepo, s.twilioClient, s.sendgridClient,
		s.cfg.TwilioFromPhone, s.cfg.SendgridFromEmail,
		s.cfg.OrganizationName, s.cfg.SendgridSandboxMode,
	)
}
