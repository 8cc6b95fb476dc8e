package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bradfitz/latlong"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/carebridge/visits-service/internal/dtos"
	"github.com/carebridge/visits-service/internal/models"
	"github.com/carebridge/visits-service/internal/repositories"
	internal_utils "github.com/carebridge/visits-service/internal/utils"
)

const coordinatorAlertEmailHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Visit Alert</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif; background-color: #f3f4f6; color: #1f2937; margin: 0; padding: 20px; }
  .container { max-width: 600px; margin: auto; background: #fff; border: 1px solid #e5e7eb; border-radius: 8px; }
  .header { background-color: #dbeafe; padding: 15px 20px; border-bottom: 1px solid #bfdbfe; }
  .header h1 { margin: 0; font-size: 20px; color: #1e40af; }
  .content { padding: 20px; }
  .content p { margin-top: 0; }
  ul { list-style: none; padding: 0; }
  li { padding: 8px; border-bottom: 1px solid #eee; }
  li:last-child { border-bottom: none; }
  strong { color: #000; }
</style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%s</h1>
    </div>
    <div class="content">
      <p>This is an automated visit alert.</p>
      <ul>
        <li><strong>Client:</strong> %s</li>
        <li><strong>Address:</strong> %s</li>
        <li><strong>Caregiver:</strong> %s</li>
        <li><strong>Scheduled Window:</strong> %s</li>
        <li><strong>Details:</strong> %s</li>
        <li><strong>Timestamp (UTC):</strong> %s</li>
      </ul>
    </div>
  </div>
</body>
</html>`

/*─────────────────── generic helpers ──────────────────*/

func loadClientLocation(tz string) *time.Location {
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

func formatTimeInLocation(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("3:04 PM MST, Jan 2")
}

// caregiverLocation resolves the caregiver's local timezone from their last
// known device fix. Falls back to the client's zone when no fix exists yet.
func caregiverLocation(sh *models.Shift, clientLoc *time.Location) *time.Location {
	var fix *models.GPSReading
	switch {
	case sh.CheckOutGPS != nil:
		fix = sh.CheckOutGPS
	case sh.CheckInGPS != nil:
		fix = sh.CheckInGPS
	default:
		return clientLoc
	}
	zone := latlong.LookupZoneName(fix.Latitude, fix.Longitude)
	if zone == "" {
		return clientLoc
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return clientLoc
	}
	return loc
}

func hasEVVException(sh *models.Shift) bool {
	return sh.EVVStatus == models.EVVStatusException || len(sh.EVVExceptions) > 0
}

// buildShiftDTO renders a shift for API responses. The scheduled window is
// also rendered in the client's home timezone and the caregiver's local
// timezone so apps never do zone math themselves.
func (s *VisitService) buildShiftDTO(ctx context.Context, sh *models.Shift) *dtos.ShiftDTO {
	dto := &dtos.ShiftDTO{
		ShiftID:        sh.ID,
		CaregiverID:    sh.CaregiverID,
		ClientID:       sh.ClientID,
		CaregiverName:  sh.CaregiverName,
		ClientName:     sh.ClientName,
		ScheduledStart: sh.ScheduledStart,
		ScheduledEnd:   sh.ScheduledEnd,
		Status:         string(sh.Status),
		GeofenceStatus: string(sh.GeofenceStatus),
		EVVStatus:      string(sh.EVVStatus),
		CheckInAt:      sh.CheckInAt,
		CheckOutAt:     sh.CheckOutAt,
		EVVExceptions:  sh.EVVExceptions,
		ActualHours:    sh.ActualHours,
		BillingUnits:   sh.BillingUnits,
		BillingCode:    sh.BillingCode,
		Modifier:       sh.Modifier,
		NeedsReview:    hasEVVException(sh),
		RowVersion:     sh.RowVersion,
	}

	clientLoc := time.UTC
	if client, err := s.clientRepo.GetByID(ctx, sh.ClientID); err == nil && client != nil {
		clientLoc = loadClientLocation(client.TimeZone)
	}
	cgLoc := caregiverLocation(sh, clientLoc)

	dto.ClientWindowStart = formatTimeInLocation(sh.ScheduledStart, clientLoc)
	dto.ClientWindowEnd = formatTimeInLocation(sh.ScheduledEnd, clientLoc)
	dto.CaregiverWindowStart = formatTimeInLocation(sh.ScheduledStart, cgLoc)
	dto.CaregiverWindowEnd = formatTimeInLocation(sh.ScheduledEnd, cgLoc)

	return dto
}

// NotifyCoordinators sends an SMS and email alert to every on-call
// coordinator of the shift's agency. Delivery failures are logged and
// swallowed; notifications never affect the outcome of the visit operation
// that triggered them.
func NotifyCoordinators(
	ctx context.Context,
	sh *models.Shift,
	client *models.Client,
	messageTitle string,
	messageBody string,
	coordRepo repositories.CoordinatorRepository,
	twClient *twilio.RestClient,
	sgClient *sendgrid.Client,
	fromPhone string,
	fromEmail string,
	orgName string,
	sendgridSandbox bool,
) {
	coords, err := coordRepo.ListOnCallByBusinessID(ctx, sh.BusinessID)
	if err != nil {
		internal_utils.Logger.WithError(err).Error("NotifyCoordinators: list on-call coordinators failed")
		return
	}
	if len(coords) == 0 {
		internal_utils.Logger.Warnf("NotifyCoordinators: no on-call coordinators for business %s", sh.BusinessID)
		return
	}

	clientName := "(Unknown Client)"
	clientAddress := "(Unknown Address)"
	clientLoc := time.UTC
	if client != nil {
		clientName = client.DisplayName()
		clientAddress = fmt.Sprintf("%s, %s, %s %s", client.Address, client.City, client.State, client.ZipCode)
		clientLoc = loadClientLocation(client.TimeZone)
	}
	subject := fmt.Sprintf("%s: %s", messageTitle, clientName)
	windowStr := fmt.Sprintf(
		"%s - %s",
		sh.ScheduledStart.In(clientLoc).Format("3:04 PM"),
		sh.ScheduledEnd.In(clientLoc).Format("3:04 PM MST"),
	)

	plainTextBody := fmt.Sprintf(
		"%s\n\nClient: %s\nAddress: %s\nCaregiver: %s\nScheduled Window: %s",
		messageBody,
		clientName,
		clientAddress,
		sh.CaregiverName,
		windowStr,
	)
	htmlBody := fmt.Sprintf(
		coordinatorAlertEmailHTML,
		subject,
		clientName,
		clientAddress,
		sh.CaregiverName,
		windowStr,
		messageBody,
		time.Now().UTC().Format(time.RFC1123Z),
	)

	for _, c := range coords {
		// ---------- Twilio SMS ----------
		if twClient != nil {
			params := &twilioApi.CreateMessageParams{}
			params.SetTo(c.PhoneNumber)
			params.SetFrom(fromPhone)
			params.SetBody(subject + " :: " + plainTextBody)
			_, smsErr := twClient.Api.CreateMessage(params)
			if smsErr != nil {
				internal_utils.Logger.WithError(smsErr).Warnf("Failed to send on-call SMS to coordinator %s", c.ID)
			}
		} else {
			internal_utils.Logger.Warnf("Twilio client is nil, skipping SMS to coordinator %s", c.ID)
		}

		// ---------- SendGrid Email ----------
		if sgClient != nil {
			from := mail.NewEmail(orgName, fromEmail)
			to := mail.NewEmail(c.Name, c.Email)
			msg := mail.NewSingleEmail(from, subject, to, plainTextBody, htmlBody)
			if sendgridSandbox {
				ms := mail.NewMailSettings()
				ms.SetSandboxMode(mail.NewSetting(true))
				msg.MailSettings = ms
			}
			if _, sgErr := sgClient.Send(msg); sgErr != nil {
				internal_utils.Logger.WithError(sgErr).Warnf("Email send failure to coordinator %s", c.ID)
			}
		} else {
			internal_utils.Logger.Warnf("SendGrid client is nil, skipping email to coordinator %s", c.ID)
		}
	}
}
