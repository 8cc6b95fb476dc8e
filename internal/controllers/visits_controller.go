package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/carebridge/visits-service/internal/dtos"
	"github.com/carebridge/visits-service/internal/middleware"
	"github.com/carebridge/visits-service/internal/services"
	"github.com/carebridge/visits-service/internal/utils"
)

// VisitsController handles the caregiver-facing EVV endpoints: clock-in and
// clock-out with a device location fix.
type VisitsController struct {
	visitService *services.VisitService
}

func NewVisitsController(vs *services.VisitService) *VisitsController {
	return &VisitsController{visitService: vs}
}

// ----------------------------------------------------------------
// POST /api/v1/visits/clock-in
// ----------------------------------------------------------------
func (c *VisitsController) ClockInHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctxUserID := ctx.Value(middleware.ContextKeyUserID)
	if ctxUserID == nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized,
			"No userID in context", nil, nil,
		)
		return
	}

	var body dtos.ClockRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Invalid JSON for clock-in payload", nil, err,
		)
		return
	}
	if body.ShiftID == uuid.Nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"shift_id is required", nil, nil,
		)
		return
	}
	if errCode, msg := utils.ValidateLocationData(body.Lat, body.Lng, body.Accuracy, body.Timestamp, body.IsMock); errCode != "" {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, errCode, msg, nil, nil)
		return
	}

	updated, err := c.visitService.ClockIn(ctx, ctxUserID.(string), body)
	if err != nil {
		c.respondClockError(w, err, "Cannot clock in", "Could not clock in")
		return
	}
	if updated == nil {
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotFound,
			"Shift not found", nil, nil,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ShiftActionResponse{Updated: *updated})
}

// ----------------------------------------------------------------
// POST /api/v1/visits/clock-out
// ----------------------------------------------------------------
func (c *VisitsController) ClockOutHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctxUserID := ctx.Value(middleware.ContextKeyUserID)
	if ctxUserID == nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized,
			"No userID in context", nil, nil,
		)
		return
	}

	var body dtos.ClockRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Invalid JSON for clock-out payload", nil, err,
		)
		return
	}
	if body.ShiftID == uuid.Nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"shift_id is required", nil, nil,
		)
		return
	}
	if errCode, msg := utils.ValidateLocationData(body.Lat, body.Lng, body.Accuracy, body.Timestamp, body.IsMock); errCode != "" {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, errCode, msg, nil, nil)
		return
	}

	updated, err := c.visitService.ClockOut(ctx, ctxUserID.(string), body)
	if err != nil {
		c.respondClockError(w, err, "Cannot clock out", "Could not clock out")
		return
	}
	if updated == nil {
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotFound,
			"Shift not found", nil, nil,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ShiftActionResponse{Updated: *updated})
}

// respondClockError maps service errors from clock-in/out to HTTP responses.
// Geofence rejections and row-version conflicts carry details so the app can
// offer a retry (or a forced override) without another round trip.
func (c *VisitsController) respondClockError(w http.ResponseWriter, err error, rejectMsg, failMsg string) {
	switch e := err.(type) {
	case *utils.RowVersionConflictError:
		utils.RespondErrorWithCode(
			w,
			http.StatusConflict,
			utils.ErrCodeRowVersionConflict,
			"Another update occurred, please refresh",
			e.Current,
			err,
		)
		return
	case *utils.GeofenceRejectionError:
		utils.RespondErrorWithCode(
			w,
			http.StatusConflict,
			utils.ErrCodeOutOfGeofence,
			"You are outside the client's service area. Move closer or submit with force=true for coordinator review.",
			map[string]float64{
				"distance_miles": e.DistanceMiles,
				"radius_miles":   e.RadiusMiles,
			},
			nil,
		)
		return
	default:
		if errors.Is(err, utils.ErrShiftTerminal) ||
			errors.Is(err, utils.ErrInvalidTransition) {
			utils.RespondErrorWithCode(
				w, http.StatusConflict, utils.ErrCodeInvalidTransition,
				rejectMsg+"; the shift is not in a valid state for this action", nil, nil,
			)
			return
		}
		if errors.Is(err, utils.ErrCaregiverNotActive) {
			utils.RespondErrorWithCode(
				w, http.StatusForbidden, utils.ErrCaregiverNotActive.Error(),
				"Your account is not active.", nil, err,
			)
			return
		}
		if errors.Is(err, utils.ErrNotAssignedCaregiver) ||
			errors.Is(err, utils.ErrOutsideClockInWindow) ||
			errors.Is(err, utils.ErrInvalidCoordinate) ||
			errors.Is(err, utils.ErrClientLocationUnknown) {
			utils.RespondErrorWithCode(
				w, http.StatusBadRequest, err.Error(), rejectMsg, nil, nil,
			)
			return
		}
		if errors.Is(err, utils.ErrNoRowsUpdated) {
			utils.RespondErrorWithCode(
				w, http.StatusConflict, utils.ErrCodeRowVersionConflict,
				"No rows updated, please refresh", nil, err,
			)
			return
		}
		utils.Logger.WithError(err).Error(failMsg)
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal,
			failMsg, nil, err,
		)
	}
}
