package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nextlevel-sports/academy-api/internal/models"
)

// AgendaRepository provides persistence for calendar day containers.
type AgendaRepository struct {
	db *sqlx.DB
}

// NewAgendaRepository creates a new agenda repository.
func NewAgendaRepository(db *sqlx.DB) *AgendaRepository {
	return &AgendaRepository{db: db}
}

// FindOrCreate resolves the day container for (unit, date), creating it on
// first use. The upsert keeps concurrent resolutions race-free.
func (r *AgendaRepository) FindOrCreate(ctx context.Context, unitID, date string) (*models.Agenda, error) {
	now := time.Now().UTC()
	const query = `INSERT INTO agendas (id, unit_id, date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (unit_id, date) DO UPDATE SET updated_at = EXCLUDED.updated_at
RETURNING id, unit_id, date, created_at, updated_at`
	var agenda models.Agenda
	if err := r.db.GetContext(ctx, &agenda, query, uuid.NewString(), unitID, date, now); err != nil {
		return nil, fmt.Errorf("resolve agenda: %w", err)
	}
	return &agenda, nil
}

// FindByID loads a day container by id.
func (r *AgendaRepository) FindByID(ctx context.Context, id string) (*models.Agenda, error) {
	const query = `SELECT id, unit_id, date, created_at, updated_at FROM agendas WHERE id = $1`
	var agenda models.Agenda
	if err := r.db.GetContext(ctx, &agenda, query, id); err != nil {
		return nil, err
	}
	return &agenda, nil
}
