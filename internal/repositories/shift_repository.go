package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/carebridge/visits-service/internal/models"
)

type ShiftRepository interface {
	Create(ctx context.Context, sh *models.Shift) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Shift, error)

	ListByCaregiverAndRange(
		ctx context.Context,
		caregiverID uuid.UUID,
		statuses []models.ShiftStatusType,
		rangeStart, rangeEnd time.Time,
	) ([]*models.Shift, error)

	ListByStatusAndRange(
		ctx context.Context,
		statuses []models.ShiftStatusType,
		rangeStart, rangeEnd time.Time,
	) ([]*models.Shift, error)

	// ClockInAtomic transitions SCHEDULED → IN_PROGRESS, writing check_in_at
	// and the EVV verdict in the same statement. Any other starting status
	// fails inside the transaction.
	ClockInAtomic(
		ctx context.Context,
		shiftID uuid.UUID,
		expectedVersion int64,
		gps models.GPSReading,
		geofence models.GeofenceStatusType,
		evv models.EVVStatusType,
		exceptions []string,
		method string,
	) (*models.Shift, error)

	// ClockOutAtomic transitions IN_PROGRESS → COMPLETED, writing
	// check_out_at and the derived billing fields.
	ClockOutAtomic(
		ctx context.Context,
		shiftID uuid.UUID,
		expectedVersion int64,
		gps models.GPSReading,
		evv models.EVVStatusType,
		exceptions []string,
		actualHours, billingUnits float64,
		billingCode, modifier string,
	) (*models.Shift, error)

	// CancelAtomic transitions SCHEDULED → CANCELLED. EVV fields untouched.
	CancelAtomic(ctx context.Context, shiftID uuid.UUID, expectedVersion int64) (*models.Shift, error)

	// MarkMissedAtomic transitions SCHEDULED|IN_PROGRESS → MISSED. EVV fields untouched.
	MarkMissedAtomic(ctx context.Context, shiftID uuid.UUID, expectedVersion int64) (*models.Shift, error)
}

type shiftRepo struct {
	db DB
}

func NewShiftRepository(db DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func baseSelectShift() string {
	return `
        SELECT
            id, business_id, caregiver_id, client_id,
            caregiver_name, client_name,
            scheduled_start, scheduled_end, status,
            check_in_at, check_out_at,
            check_in_lat, check_in_lng, check_in_accuracy, check_in_measured_at,
            check_out_lat, check_out_lng, check_out_accuracy, check_out_measured_at,
            geofence_status, evv_status, evv_exceptions, verification_method,
            actual_hours, billing_units, billing_code, modifier,
            row_version, created_at, updated_at
        FROM shifts
    `
}

func scanShift(row pgx.Row) (*models.Shift, error) {
	var sh models.Shift
	var exceptions []string
	var checkIn, checkOut *time.Time
	var inLat, inLng, inAcc *float64
	var inMeasured *time.Time
	var outLat, outLng, outAcc *float64
	var outMeasured *time.Time

	err := row.Scan(
		&sh.ID,
		&sh.BusinessID,
		&sh.CaregiverID,
		&sh.ClientID,
		&sh.CaregiverName,
		&sh.ClientName,
		&sh.ScheduledStart,
		&sh.ScheduledEnd,
		&sh.Status,
		&checkIn,
		&checkOut,
		&inLat, &inLng, &inAcc, &inMeasured,
		&outLat, &outLng, &outAcc, &outMeasured,
		&sh.GeofenceStatus,
		&sh.EVVStatus,
		&exceptions,
		&sh.VerificationMethod,
		&sh.ActualHours,
		&sh.BillingUnits,
		&sh.BillingCode,
		&sh.Modifier,
		&sh.RowVersion,
		&sh.CreatedAt,
		&sh.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sh.CheckInAt = checkIn
	sh.CheckOutAt = checkOut
	sh.EVVExceptions = exceptions
	if inLat != nil && inLng != nil {
		sh.CheckInGPS = &models.GPSReading{Latitude: *inLat, Longitude: *inLng}
		if inAcc != nil {
			sh.CheckInGPS.AccuracyMeters = *inAcc
		}
		if inMeasured != nil {
			sh.CheckInGPS.MeasuredAt = *inMeasured
		}
	}
	if outLat != nil && outLng != nil {
		sh.CheckOutGPS = &models.GPSReading{Latitude: *outLat, Longitude: *outLng}
		if outAcc != nil {
			sh.CheckOutGPS.AccuracyMeters = *outAcc
		}
		if outMeasured != nil {
			sh.CheckOutGPS.MeasuredAt = *outMeasured
		}
	}
	return &sh, nil
}

func (r *shiftRepo) Create(ctx context.Context, sh *models.Shift) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO shifts (
            id, business_id, caregiver_id, client_id,
            caregiver_name, client_name,
            scheduled_start, scheduled_end, status,
            geofence_status, evv_status, evv_exceptions,
            actual_hours, billing_units, billing_code, modifier,
            created_at, updated_at, row_version
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8,$9,
            'NOT_CHECKED','PENDING','{}',
            0,0,'','',
            NOW(),NOW(),1
        )
    `,
		sh.ID,
		sh.BusinessID,
		sh.CaregiverID,
		sh.ClientID,
		sh.CaregiverName,
		sh.ClientName,
		sh.ScheduledStart,
		sh.ScheduledEnd,
		sh.Status,
	)
	return err
}

func (r *shiftRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
	row := r.db.QueryRow(ctx, baseSelectShift()+" WHERE id=$1", id)
	return scanShift(row)
}

func (r *shiftRepo) ListByCaregiverAndRange(
	ctx context.Context,
	caregiverID uuid.UUID,
	statuses []models.ShiftStatusType,
	rangeStart, rangeEnd time.Time,
) ([]*models.Shift, error) {

	var (
		qb   strings.Builder
		args []any
		idx  = 1
	)

	qb.WriteString(baseSelectShift())
	qb.WriteString(" WHERE caregiver_id = $")
	qb.WriteString(strconv.Itoa(idx))
	args = append(args, caregiverID)
	idx++

	qb.WriteString(" AND scheduled_end > $")
	qb.WriteString(strconv.Itoa(idx))
	args = append(args, rangeStart)
	idx++

	qb.WriteString(" AND scheduled_start < $")
	qb.WriteString(strconv.Itoa(idx))
	args = append(args, rangeEnd)
	idx++

	if len(statuses) > 0 {
		var stStrings []string
		for _, st := range statuses {
			stStrings = append(stStrings, string(st))
		}
		qb.WriteString(" AND status = ANY($")
		qb.WriteString(strconv.Itoa(idx))
		qb.WriteString(")")
		args = append(args, stStrings)
		idx++
	}

	qb.WriteString(" ORDER BY scheduled_start")

	rows, err := r.db.Query(ctx, qb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Shift
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

func (r *shiftRepo) ListByStatusAndRange(
	ctx context.Context,
	statuses []models.ShiftStatusType,
	rangeStart, rangeEnd time.Time,
) ([]*models.Shift, error) {
	var stStrings []string
	for _, st := range statuses {
		stStrings = append(stStrings, string(st))
	}

	q := baseSelectShift() + `
        WHERE status = ANY($1)
          AND scheduled_end > $2
          AND scheduled_start < $3
        ORDER BY scheduled_start
    `
	rows, err := r.db.Query(ctx, q, stStrings, rangeStart, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("querying shifts by status: %w", err)
	}
	defer rows.Close()

	var out []*models.Shift
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

func (r *shiftRepo) ClockInAtomic(
	ctx context.Context,
	shiftID uuid.UUID,
	expectedVersion int64,
	gps models.GPSReading,
	geofence models.GeofenceStatusType,
	evv models.EVVStatusType,
	exceptions []string,
	method string,
) (*models.Shift, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	row := tx.QueryRow(ctx, baseSelectShift()+" WHERE id=$1 FOR UPDATE", shiftID)
	sh, err := scanShift(row)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, pgx.ErrNoRows
	}
	if sh.RowVersion != expectedVersion {
		return sh, fmt.Errorf("row_version_conflict")
	}
	if sh.Status != models.ShiftStatusScheduled {
		return sh, fmt.Errorf("cannot clock in on a non-scheduled shift")
	}

	if exceptions == nil {
		exceptions = []string{}
	}
	_, err = tx.Exec(ctx, `
        UPDATE shifts
        SET status='IN_PROGRESS',
            check_in_at=NOW(),
            check_in_lat=$1, check_in_lng=$2, check_in_accuracy=$3, check_in_measured_at=$4,
            geofence_status=$5,
            evv_status=$6,
            evv_exceptions=evv_exceptions || $7,
            verification_method=$8,
            row_version=row_version+1,
            updated_at=NOW()
        WHERE id=$9
    `, gps.Latitude, gps.Longitude, gps.AccuracyMeters, gps.MeasuredAt,
		geofence, evv, exceptions, method, shiftID)
	if err != nil {
		return nil, err
	}
	newRow := tx.QueryRow(ctx, baseSelectShift()+" WHERE id=$1", shiftID)
	return scanShift(newRow)
}

func (r *shiftRepo) ClockOutAtomic(
	ctx context.Context,
	shiftID uuid.UUID,
	expectedVersion int64,
	gps models.GPSReading,
	evv models.EVVStatusType,
	exceptions []string,
	actualHours, billingUnits float64,
	billingCode, modifier string,
) (*models.Shift, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	row := tx.QueryRow(ctx, baseSelectShift()+" WHERE id=$1 FOR UPDATE", shiftID)
	sh, err := scanShift(row)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, pgx.ErrNoRows
	}
	if sh.RowVersion != expectedVersion {
		return sh, fmt.Errorf("row_version_conflict")
	}
	if sh.Status != models.ShiftStatusInProgress {
		return sh, fmt.Errorf("cannot clock out on a non-in-progress shift")
	}

	if exceptions == nil {
		exceptions = []string{}
	}
	_, err = tx.Exec(ctx, `
        UPDATE shifts
        SET status='COMPLETED',
            check_out_at=NOW(),
            check_out_lat=$1, check_out_lng=$2, check_out_accuracy=$3, check_out_measured_at=$4,
            evv_status=$5,
            evv_exceptions=evv_exceptions || $6,
            actual_hours=$7,
            billing_units=$8,
            billing_code=$9,
            modifier=$10,
            row_version=row_version+1,
            updated_at=NOW()
        WHERE id=$11
    `, gps.Latitude, gps.Longitude, gps.AccuracyMeters, gps.MeasuredAt,
		evv, exceptions, actualHours, billingUnits, billingCode, modifier, shiftID)
	if err != nil {
		return nil, err
	}
	newRow := tx.QueryRow(ctx, baseSelectShift()+" WHERE id=$1", shiftID)
	return scanShift(newRow)
}

func (r *shiftRepo) CancelAtomic(
	ctx context.Context,
	shiftID uuid.UUID,
	expectedVersion int64,
) (*models.Shift, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	row := tx.QueryRow(ctx, baseSelectShift()+" WHERE id=$1 FOR UPDATE", shiftID)
	sh, err := scanShift(row)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, pgx.ErrNoRows
	}
	if sh.RowVersion != expectedVersion {
		return sh, fmt.Errorf("row_version_conflict")
	}
	if sh.Status != models.ShiftStatusScheduled {
		return sh, fmt.Errorf("cannot cancel a non-scheduled shift")
	}

	_, err = tx.Exec(ctx, `
        UPDATE shifts
        SET status='CANCELLED',
            row_version=row_version+1,
            updated_at=NOW()
        WHERE id=$1
    `, shiftID)
	if err != nil {
		return nil, err
	}
	newRow := tx.QueryRow(ctx, baseSelectShift()+" WHERE id=$1", shiftID)
	return scanShift(newRow)
}

func (r *shiftRepo) MarkMissedAtomic(
	ctx context.Context,
	shiftID uuid.UUID,
	expectedVersion int64,
) (*models.Shift, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	row := tx.QueryRow(ctx, baseSelectShift()+" WHERE id=$1 FOR UPDATE", shiftID)
	sh, err := scanShift(row)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, pgx.ErrNoRows
	}
	if sh.RowVersion != expectedVersion {
		return sh, fmt.Errorf("row_version_conflict")
	}
	if sh.Status != models.ShiftStatusScheduled && sh.Status != models.ShiftStatusInProgress {
		return sh, fmt.Errorf("cannot mark a terminal shift missed")
	}

	_, err = tx.Exec(ctx, `
        UPDATE shifts
        SET status='MISSED',
            row_version=row_version+1,
            updated_at=NOW()
        WHERE id=$1
    `, shiftID)
	if err != nil {
		return nil, err
	}
	newRow := tx.QueryRow(ctx, baseSelectShift()+" WHERE id=$1", shiftID)
	return scanShift(newRow)
}
