package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/carebridge/visits-service/internal/dtos"
	"github.com/carebridge/visits-service/internal/middleware"
	"github.com/carebridge/visits-service/internal/services"
	"github.com/carebridge/visits-service/internal/utils"
)

var shiftValidate = validator.New()

// Default listing range when the caller gives no bounds: a week back and a
// month ahead covers every view the mobile and coordinator apps render.
const (
	defaultRangeBack  = 7 * 24 * time.Hour
	defaultRangeAhead = 30 * 24 * time.Hour
)

// ShiftsController handles scheduling: creating shifts, listing a
// caregiver's shifts, conflict reports, and the coordinator-driven
// cancel/missed transitions.
type ShiftsController struct {
	visitService *services.VisitService
}

func NewShiftsController(vs *services.VisitService) *ShiftsController {
	return &ShiftsController{visitService: vs}
}

// ----------------------------------------------------------------
// POST /api/v1/shifts
// ----------------------------------------------------------------
func (c *ShiftsController) CreateShiftHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctxBizID := ctx.Value(middleware.ContextKeyBusinessID)
	if ctxBizID == nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized,
			"No businessID in context", nil, nil,
		)
		return
	}

	var body dtos.CreateShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Invalid JSON for create-shift payload", nil, err,
		)
		return
	}
	if err := shiftValidate.Struct(body); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation,
			err.Error(), nil, nil,
		)
		return
	}
	if !body.ScheduledEnd.After(body.ScheduledStart) {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"scheduled_end must be after scheduled_start", nil, nil,
		)
		return
	}

	resp, err := c.visitService.CreateShift(ctx, ctxBizID.(string), body)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidPayload) || errors.Is(err, utils.ErrCaregiverNotActive) {
			utils.RespondErrorWithCode(
				w, http.StatusBadRequest, err.Error(),
				"Cannot create shift", nil, nil,
			)
			return
		}
		utils.Logger.WithError(err).Error("Create shift error")
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Could not create shift", nil, err,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, resp)
}

// ----------------------------------------------------------------
// GET /api/v1/shifts/{id}
// ----------------------------------------------------------------
func (c *ShiftsController) GetShiftHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctxUserID := ctx.Value(middleware.ContextKeyUserID)
	if ctxUserID == nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized,
			"No userID in context", nil, nil,
		)
		return
	}

	idStr := mux.Vars(r)["id"]
	shiftID, err := uuid.Parse(idStr)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"id must be a UUID", nil, nil,
		)
		return
	}

	dto, svcErr := c.visitService.GetShift(ctx, shiftID)
	if svcErr != nil {
		utils.Logger.WithError(svcErr).Error("Failed to fetch shift")
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Failed to fetch shift", nil, svcErr,
		)
		return
	}
	if dto == nil {
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotFound,
			"Shift not found", nil, nil,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto)
}

// ----------------------------------------------------------------
// GET /api/v1/shifts/my
// ----------------------------------------------------------------
func (c *ShiftsController) ListMyShiftsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctxUserID := ctx.Value(middleware.ContextKeyUserID)
	if ctxUserID == nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized,
			"No userID in context", nil, nil,
		)
		return
	}

	rangeStart, rangeEnd, err := parseTimeRange(r)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			err.Error(), nil, nil,
		)
		return
	}

	resp, svcErr := c.visitService.ListMyShifts(ctx, ctxUserID.(string), rangeStart, rangeEnd)
	if svcErr != nil {
		utils.Logger.WithError(svcErr).Error("Failed to list my shifts")
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Failed to list your shifts", nil, svcErr,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// ----------------------------------------------------------------
// GET /api/v1/shifts/conflicts?caregiver_id=...
// ----------------------------------------------------------------
func (c *ShiftsController) ListConflictsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctxUserID := ctx.Value(middleware.ContextKeyUserID)
	if ctxUserID == nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized,
			"No userID in context", nil, nil,
		)
		return
	}

	// Coordinators can inspect any caregiver; caregivers default to
	// themselves.
	cgParam := r.URL.Query().Get("caregiver_id")
	if cgParam == "" {
		cgParam = ctxUserID.(string)
	}
	cgUUID, err := uuid.Parse(cgParam)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"caregiver_id must be a UUID", nil, nil,
		)
		return
	}

	rangeStart, rangeEnd, err := parseTimeRange(r)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			err.Error(), nil, nil,
		)
		return
	}

	conflicts, svcErr := c.visitService.ListConflicts(ctx, cgUUID, rangeStart, rangeEnd)
	if svcErr != nil {
		utils.Logger.WithError(svcErr).Error("Failed to list conflicts")
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Failed to list conflicts", nil, svcErr,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ListConflictsResponse{
		Conflicts: conflicts,
		Total:     len(conflicts),
	})
}

// ----------------------------------------------------------------
// POST /api/v1/shifts/cancel
// ----------------------------------------------------------------
func (c *ShiftsController) CancelShiftHandler(w http.ResponseWriter, r *http.Request) {
	c.handleShiftAction(w, r, c.visitService.CancelShift, "Cannot cancel shift", "Could not cancel shift")
}

// ----------------------------------------------------------------
// POST /api/v1/shifts/missed
// ----------------------------------------------------------------
func (c *ShiftsController) MarkMissedHandler(w http.ResponseWriter, r *http.Request) {
	c.handleShiftAction(w, r, c.visitService.MarkShiftMissed, "Cannot mark shift missed", "Could not mark shift missed")
}

func (c *ShiftsController) handleShiftAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, shiftID uuid.UUID) (*dtos.ShiftDTO, error),
	rejectMsg, failMsg string,
) {
	ctx := r.Context()
	ctxUserID := ctx.Value(middleware.ContextKeyUserID)
	if ctxUserID == nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized,
			"No userID in context", nil, nil,
		)
		return
	}

	var body dtos.ShiftActionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Invalid JSON for shift action payload", nil, err,
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

	updated, err := action(ctx, body.ShiftID)
	if err != nil {
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
		default:
			if errors.Is(err, utils.ErrShiftTerminal) ||
				errors.Is(err, utils.ErrInvalidTransition) {
				utils.RespondErrorWithCode(
					w, http.StatusConflict, utils.ErrCodeInvalidTransition,
					rejectMsg+"; the shift is not in a valid state for this action", nil, nil,
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
			return
		}
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

// parseTimeRange reads optional RFC-3339 `from`/`to` query params.
func parseTimeRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	rangeStart := now.Add(-defaultRangeBack)
	rangeEnd := now.Add(defaultRangeAhead)

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("from must be RFC-3339")
		}
		rangeStart = t.UTC()
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("to must be RFC-3339")
		}
		rangeEnd = t.UTC()
	}
	if !rangeEnd.After(rangeStart) {
		return time.Time{}, time.Time{}, errors.New("to must be after from")
	}
	return rangeStart, rangeEnd, nil
}
