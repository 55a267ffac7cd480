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

const receivableColumns = "id, contract_id, student_id, due_date, value, status, paid_at, created_at, updated_at"

// ReceivableRepository provides persistence for receivables.
type ReceivableRepository struct {
	db *sqlx.DB
}

// NewReceivableRepository creates a new receivable repository.
func NewReceivableRepository(db *sqlx.DB) *ReceivableRepository {
	return &ReceivableRepository{db: db}
}

// FindByID loads a receivable by id.
func (r *ReceivableRepository) FindByID(ctx context.Context, id string) (*models.Receivable, error) {
	query := fmt.Sprintf("SELECT %s FROM receivables WHERE id = $1", receivableColumns)
	var receivable models.Receivable
	if err := r.db.GetContext(ctx, &receivable, query, id); err != nil {
		return nil, err
	}
	return &receivable, nil
}

// List returns receivables matching the filter, newest due date first.
func (r *ReceivableRepository) List(ctx context.Context, filter models.ReceivableFilter) ([]models.Receivable, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ContractID != "" {
		conditions = append(conditions, fmt.Sprintf("contract_id = $%d", len(args)+1))
		args = append(args, filter.ContractID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(status) = LOWER($%d)", len(args)+1))
		args = append(args, filter.Status)
	}

	query := fmt.Sprintf("SELECT %s FROM receivables WHERE %s ORDER BY due_date DESC, id DESC", receivableColumns, strings.Join(conditions, " AND "))
	var receivables []models.Receivable
	if err := r.db.SelectContext(ctx, &receivables, query, args...); err != nil {
		return nil, fmt.Errorf("list receivables: %w", err)
	}
	return receivables, nil
}

// ListOpenByStudent returns a student's open receivables oldest due first,
// the absorption order for lesson discounts.
func (r *ReceivableRepository) ListOpenByStudent(ctx context.Context, studentID string) ([]models.Receivable, error) {
	query := fmt.Sprintf("SELECT %s FROM receivables WHERE student_id = $1 AND status = $2 ORDER BY due_date ASC, id ASC", receivableColumns)
	var receivables []models.Receivable
	if err := r.db.SelectContext(ctx, &receivables, query, studentID, models.ReceivableOpen); err != nil {
		return nil, fmt.Errorf("list open receivables: %w", err)
	}
	return receivables, nil
}

// Create stores a new receivable record.
func (r *ReceivableRepository) Create(ctx context.Context, receivable *models.Receivable) error {
	if receivable.ID == "" {
		receivable.ID = uuid.NewString()
	}
	if receivable.Status == "" {
		receivable.Status = models.ReceivableOpen
	}
	now := time.Now().UTC()
	if receivable.CreatedAt.IsZero() {
		receivable.CreatedAt = now
	}
	receivable.UpdatedAt = now

	const query = `INSERT INTO receivables (id, contract_id, student_id, due_date, value, status, paid_at, created_at, updated_at)
VALUES (:id, :contract_id, :student_id, :due_date, :value, :status, :paid_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, receivable); err != nil {
		return fmt.Errorf("create receivable: %w", err)
	}
	return nil
}

// UpdateValue overwrites a receivable's remaining value.
func (r *ReceivableRepository) UpdateValue(ctx context.Context, id string, value float64) error {
	const query = `UPDATE receivables SET value = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("update receivable value: %w", err)
	}
	return nil
}

// MarkPaid settles a receivable on the given payment date.
func (r *ReceivableRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	const query = `UPDATE receivables SET status = $2, paid_at = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, models.ReceivablePaid, paidAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark receivable paid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark receivable paid: %w", err)
	}
	if affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
