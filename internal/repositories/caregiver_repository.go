package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/carebridge/visits-service/internal/models"
)

type CaregiverRepository interface {
	Create(ctx context.Context, cg *models.Caregiver) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Caregiver, error)
}

type caregiverRepo struct{ db DB }

func NewCaregiverRepository(db DB) CaregiverRepository { return &caregiverRepo{db: db} }

const baseSelectCaregiver = `
	SELECT id, business_id, first_name, last_name,
	       phone_number, email, account_status, created_at
	FROM caregivers
`

func scanCaregiver(row pgx.Row) (*models.Caregiver, error) {
	var cg models.Caregiver
	err := row.Scan(
		&cg.ID,
		&cg.BusinessID,
		&cg.FirstName,
		&cg.LastName,
		&cg.PhoneNumber,
		&cg.Email,
		&cg.AccountStatus,
		&cg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cg, nil
}

func (r *caregiverRepo) Create(ctx context.Context, cg *models.Caregiver) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO caregivers (
			id, business_id, first_name, last_name,
			phone_number, email, account_status, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
	`, cg.ID, cg.BusinessID, cg.FirstName, cg.LastName,
		cg.PhoneNumber, cg.Email, cg.AccountStatus)
	return err
}

func (r *caregiverRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Caregiver, error) {
	row := r.db.QueryRow(ctx, baseSelectCaregiver+" WHERE id=$1", id)
	return scanCaregiver(row)
}
