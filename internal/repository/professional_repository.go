package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nextlevel-sports/academy-api/internal/models"
)

const professionalSelect = `SELECT p.id, p.user_id, p.hourly_rate, u.full_name, p.created_at, p.updated_at
  FROM professionals p
  JOIN users u ON u.id = p.user_id`

// ProfessionalRepository provides persistence for schedulable professionals.
type ProfessionalRepository struct {
	db *sqlx.DB
}

// NewProfessionalRepository creates a new professional repository.
func NewProfessionalRepository(db *sqlx.DB) *ProfessionalRepository {
	return &ProfessionalRepository{db: db}
}

// FindByID loads a professional with its display name.
func (r *ProfessionalRepository) FindByID(ctx context.Context, id string) (*models.Professional, error) {
	query := professionalSelect + " WHERE p.id = $1"
	var professional models.Professional
	if err := r.db.GetContext(ctx, &professional, query, id); err != nil {
		return nil, err
	}
	return &professional, nil
}

// FindFirst returns any professional, the fallback when a caller omits one.
func (r *ProfessionalRepository) FindFirst(ctx context.Context) (*models.Professional, error) {
	query := professionalSelect + " ORDER BY u.full_name ASC LIMIT 1"
	var professional models.Professional
	if err := r.db.GetContext(ctx, &professional, query); err != nil {
		return nil, err
	}
	return &professional, nil
}

// List returns professionals ordered by name.
func (r *ProfessionalRepository) List(ctx context.Context) ([]models.Professional, error) {
	query := professionalSelect + " ORDER BY u.full_name ASC"
	var professionals []models.Professional
	if err := r.db.SelectContext(ctx, &professionals, query); err != nil {
		return nil, fmt.Errorf("list professionals: %w", err)
	}
	return professionals, nil
}

// Create stores a new professional row projected from a user.
func (r *ProfessionalRepository) Create(ctx context.Context, professional *models.Professional) error {
	if professional.ID == "" {
		professional.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if professional.CreatedAt.IsZero() {
		professional.CreatedAt = now
	}
	professional.UpdatedAt = now

	const query = `INSERT INTO professionals (id, user_id, hourly_rate, created_at, updated_at)
VALUES (:id, :user_id, :hourly_rate, :created_at, :updated_at)
ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, professional); err != nil {
		return fmt.Errorf("create professional: %w", err)
	}
	return nil
}
