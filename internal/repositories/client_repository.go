package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/carebridge/visits-service/internal/models"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type ClientRepository interface {
	Create(ctx context.Context, c *models.Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	ListByBusinessID(ctx context.Context, businessID uuid.UUID) ([]*models.Client, error)
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type clientRepo struct{ db DB }

func NewClientRepository(db DB) ClientRepository { return &clientRepo{db: db} }

const baseSelectClient = `
	SELECT id, business_id, first_name, last_name,
	       address, city, state, zip_code, timezone,
	       latitude, longitude, has_coordinates, created_at
	FROM clients
`

func scanClient(row pgx.Row) (*models.Client, error) {
	var c models.Client
	err := row.Scan(
		&c.ID,
		&c.BusinessID,
		&c.FirstName,
		&c.LastName,
		&c.Address,
		&c.City,
		&c.State,
		&c.ZipCode,
		&c.TimeZone,
		&c.Latitude,
		&c.Longitude,
		&c.HasCoordinates,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clientRepo) Create(ctx context.Context, c *models.Client) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO clients (
			id, business_id, first_name, last_name,
			address, city, state, zip_code, timezone,
			latitude, longitude, has_coordinates, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW())
	`, c.ID, c.BusinessID, c.FirstName, c.LastName,
		c.Address, c.City, c.State, c.ZipCode, c.TimeZone,
		c.Latitude, c.Longitude, c.HasCoordinates)
	return err
}

func (r *clientRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	row := r.db.QueryRow(ctx, baseSelectClient+" WHERE id=$1", id)
	return scanClient(row)
}

func (r *clientRepo) ListByBusinessID(ctx context.Context, businessID uuid.UUID) ([]*models.Client, error) {
	rows, err := r.db.Query(ctx, baseSelectClient+" WHERE business_id=$1 ORDER BY last_name, first_name", businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
