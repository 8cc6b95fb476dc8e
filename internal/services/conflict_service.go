package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/visits-service/internal/dtos"
	"github.com/carebridge/visits-service/internal/models"
)

// DetectConflicts finds every pair of shifts whose scheduled windows overlap.
// Windows are half-open, so back-to-back shifts do not conflict. Cancelled
// shifts are skipped; a cancelled slot is free for rebooking.
//
// Conflicts are advisory. Nothing in the lifecycle blocks on them; they exist
// so coordinators can fix double-bookings before the visit date.
func DetectConflicts(shifts []*models.Shift) []dtos.ConflictPairDTO {
	active := make([]*models.Shift, 0, len(shifts))
	for _, sh := range shifts {
		if sh.Status == models.ShiftStatusCancelled {
			continue
		}
		active = append(active, sh)
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].ScheduledStart.Before(active[j].ScheduledStart)
	})

	var pairs []dtos.ConflictPairDTO
	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			// Sorted by start, so once a later shift starts at or after
			// this one's end, no further overlaps are possible.
			if !active[j].ScheduledStart.Before(active[i].ScheduledEnd) {
				break
			}
			pairs = append(pairs, dtos.ConflictPairDTO{
				ShiftID:      active[i].ID,
				OtherShiftID: active[j].ID,
				OverlapStart: active[j].ScheduledStart,
				OverlapEnd:   minTime(active[i].ScheduledEnd, active[j].ScheduledEnd),
			})
		}
	}
	return pairs
}

// ConflictsWith reports the subset of existing shifts that overlap the
// candidate window. Used at creation time for the advisory response.
func ConflictsWith(candidate *models.Shift, existing []*models.Shift) []dtos.ConflictPairDTO {
	var pairs []dtos.ConflictPairDTO
	for _, sh := range existing {
		if sh.ID == candidate.ID || sh.Status == models.ShiftStatusCancelled {
			continue
		}
		if candidate.Overlaps(sh) {
			pairs = append(pairs, dtos.ConflictPairDTO{
				ShiftID:      candidate.ID,
				OtherShiftID: sh.ID,
				OverlapStart: maxTime(candidate.ScheduledStart, sh.ScheduledStart),
				OverlapEnd:   minTime(candidate.ScheduledEnd, sh.ScheduledEnd),
			})
		}
	}
	return pairs
}

// ListConflicts fetches a caregiver's non-cancelled shifts in the range and
// runs conflict detection over them.
func (s *VisitService) ListConflicts(
	ctx context.Context,
	caregiverID uuid.UUID,
	rangeStart, rangeEnd time.Time,
) ([]dtos.ConflictPairDTO, error) {
	shifts, err := s.shiftRepo.ListByCaregiverAndRange(ctx, caregiverID, nil, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}
	return DetectConflicts(shifts), nil
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
