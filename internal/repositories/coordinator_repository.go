package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/carebridge/visits-service/internal/models"
)

type CoordinatorRepository interface {
	Create(ctx context.Context, c *models.Coordinator) error
	ListOnCallByBusinessID(ctx context.Context, businessID uuid.UUID) ([]*models.Coordinator, error)
}

type coordinatorRepo struct{ db DB }

func NewCoordinatorRepository(db DB) CoordinatorRepository { return &coordinatorRepo{db: db} }

const baseSelectCoordinator = `
	SELECT id, business_id, name, phone_number, email, on_call, created_at
	FROM coordinators
`

func scanCoordinator(row pgx.Row) (*models.Coordinator, error) {
	var c models.Coordinator
	err := row.Scan(
		&c.ID,
		&c.BusinessID,
		&c.Name,
		&c.PhoneNumber,
		&c.Email,
		&c.OnCall,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *coordinatorRepo) Create(ctx context.Context, c *models.Coordinator) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO coordinators (
			id, business_id, name, phone_number, email, on_call, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,NOW())
	`, c.ID, c.BusinessID, c.Name, c.PhoneNumber, c.Email, c.OnCall)
	return err
}

func (r *coordinatorRepo) ListOnCallByBusinessID(ctx context.Context, businessID uuid.UUID) ([]*models.Coordinator, error) {
	rows, err := r.db.Query(ctx, baseSelectCoordinator+" WHERE business_id=$1 AND on_call=TRUE", businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Coordinator
	for rows.Next() {
		c, err := scanCoordinator(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
