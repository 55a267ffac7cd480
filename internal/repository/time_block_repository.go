package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nextlevel-sports/academy-api/internal/models"
)

const timeBlockColumns = "id, professional_id, unit_id, date, start_clock, end_clock, reason, status, created_at, updated_at"

// TimeBlockRepository provides persistence for calendar time blocks.
type TimeBlockRepository struct {
	db *sqlx.DB
}

// NewTimeBlockRepository creates a new time block repository.
func NewTimeBlockRepository(db *sqlx.DB) *TimeBlockRepository {
	return &TimeBlockRepository{db: db}
}

// ListActiveByDate returns active blocks on a local calendar date applying to
// the given professional (blocks with no professional apply to everyone) and
// optionally scoped to a unit (blocks with no unit apply to every unit).
func (r *TimeBlockRepository) ListActiveByDate(ctx context.Context, date string, professionalID, unitID string) ([]models.TimeBlock, error) {
	conditions := []string{"date = $1", "LOWER(status) = $2"}
	args := []interface{}{date, models.TimeBlockActive}
	if professionalID != "" {
		conditions = append(conditions, fmt.Sprintf("(professional_id IS NULL OR professional_id = $%d)", len(args)+1))
		args = append(args, professionalID)
	}
	if unitID != "" {
		conditions = append(conditions, fmt.Sprintf("(unit_id IS NULL OR unit_id = $%d)", len(args)+1))
		args = append(args, unitID)
	}

	query := fmt.Sprintf("SELECT %s FROM time_blocks WHERE %s ORDER BY start_clock ASC", timeBlockColumns, strings.Join(conditions, " AND "))
	var blocks []models.TimeBlock
	if err := r.db.SelectContext(ctx, &blocks, query, args...); err != nil {
		return nil, fmt.Errorf("list time blocks by date: %w", err)
	}
	return blocks, nil
}

// ListByRange returns active blocks over an inclusive date range with display
// names, optionally filtered to one professional.
func (r *TimeBlockRepository) ListByRange(ctx context.Context, from, to string, professionalID string) ([]models.TimeBlockView, error) {
	base := `SELECT b.id, b.professional_id, b.unit_id, b.date, b.start_clock, b.end_clock, b.reason, b.status, b.created_at, b.updated_at,
       COALESCE(u.full_name, 'All') AS professional_name,
       COALESCE(un.name, '') AS unit_name
  FROM time_blocks b
  LEFT JOIN professionals p ON p.id = b.professional_id
  LEFT JOIN users u ON u.id = p.user_id
  LEFT JOIN units un ON un.id = b.unit_id
 WHERE b.date BETWEEN $1 AND $2 AND LOWER(b.status) = $3`
	args := []interface{}{from, to, models.TimeBlockActive}
	if professionalID != "" {
		base += fmt.Sprintf(" AND (b.professional_id IS NULL OR b.professional_id = $%d)", len(args)+1)
		args = append(args, professionalID)
	}
	base += " ORDER BY b.date ASC, b.start_clock ASC"

	var blocks []models.TimeBlockView
	if err := r.db.SelectContext(ctx, &blocks, base, args...); err != nil {
		return nil, fmt.Errorf("list time blocks by range: %w", err)
	}
	return blocks, nil
}

// Create stores a new time block record.
func (r *TimeBlockRepository) Create(ctx context.Context, block *models.TimeBlock) error {
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	if block.Status == "" {
		block.Status = models.TimeBlockActive
	}
	now := time.Now().UTC()
	if block.CreatedAt.IsZero() {
		block.CreatedAt = now
	}
	block.UpdatedAt = now

	const query = `INSERT INTO time_blocks (id, professional_id, unit_id, date, start_clock, end_clock, reason, status, created_at, updated_at)
VALUES (:id, :professional_id, :unit_id, :date, :start_clock, :end_clock, :reason, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, block); err != nil {
		return fmt.Errorf("create time block: %w", err)
	}
	return nil
}

// Delete removes a block by id, reporting whether a row existed.
func (r *TimeBlockRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM time_blocks WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete time block: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete time block: %w", err)
	}
	if affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
