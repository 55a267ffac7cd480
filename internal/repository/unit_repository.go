package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nextlevel-sports/academy-api/internal/models"
)

const unitColumns = "id, name, postal_code, address, created_at, updated_at"

// UnitRepository provides persistence for units.
type UnitRepository struct {
	db *sqlx.DB
}

// NewUnitRepository creates a new unit repository.
func NewUnitRepository(db *sqlx.DB) *UnitRepository {
	return &UnitRepository{db: db}
}

// FindByID loads a unit by id.
func (r *UnitRepository) FindByID(ctx context.Context, id string) (*models.Unit, error) {
	query := fmt.Sprintf("SELECT %s FROM units WHERE id = $1", unitColumns)
	var unit models.Unit
	if err := r.db.GetContext(ctx, &unit, query, id); err != nil {
		return nil, err
	}
	return &unit, nil
}

// FindFirst returns any unit, the fallback when a caller omits one.
func (r *UnitRepository) FindFirst(ctx context.Context) (*models.Unit, error) {
	query := fmt.Sprintf("SELECT %s FROM units ORDER BY created_at ASC LIMIT 1", unitColumns)
	var unit models.Unit
	if err := r.db.GetContext(ctx, &unit, query); err != nil {
		return nil, err
	}
	return &unit, nil
}

// List returns every unit ordered by name.
func (r *UnitRepository) List(ctx context.Context) ([]models.Unit, error) {
	query := fmt.Sprintf("SELECT %s FROM units ORDER BY name ASC", unitColumns)
	var units []models.Unit
	if err := r.db.SelectContext(ctx, &units, query); err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	return units, nil
}

// Create stores a new unit.
func (r *UnitRepository) Create(ctx context.Context, unit *models.Unit) error {
	if unit.ID == "" {
		unit.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if unit.CreatedAt.IsZero() {
		unit.CreatedAt = now
	}
	unit.UpdatedAt = now

	const query = `INSERT INTO units (id, name, postal_code, address, created_at, updated_at)
VALUES (:id, :name, :postal_code, :address, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, unit); err != nil {
		return fmt.Errorf("create unit: %w", err)
	}
	return nil
}
