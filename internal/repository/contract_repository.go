package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nextlevel-sports/academy-api/internal/models"
)

const contractColumns = "id, student_id, professional_id, plan_name, cadence, value, max_weekly_lessons, start_date, end_date, status, created_at, updated_at"

// ContractRepository provides persistence for contracts and their weekly slots.
type ContractRepository struct {
	db *sqlx.DB
}

// NewContractRepository creates a new contract repository.
func NewContractRepository(db *sqlx.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// FindByID loads a contract by id.
func (r *ContractRepository) FindByID(ctx context.Context, id string) (*models.Contract, error) {
	query := fmt.Sprintf("SELECT %s FROM contracts WHERE id = $1", contractColumns)
	var contract models.Contract
	if err := r.db.GetContext(ctx, &contract, query, id); err != nil {
		return nil, err
	}
	return &contract, nil
}

// ListByStudent returns a student's contracts newest first.
func (r *ContractRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Contract, error) {
	query := fmt.Sprintf("SELECT %s FROM contracts WHERE student_id = $1 ORDER BY start_date DESC", contractColumns)
	var contracts []models.Contract
	if err := r.db.SelectContext(ctx, &contracts, query, studentID); err != nil {
		return nil, fmt.Errorf("list contracts by student: %w", err)
	}
	return contracts, nil
}

// GetSlots returns a contract's weekly schedule ordered by weekday.
func (r *ContractRepository) GetSlots(ctx context.Context, contractID string) ([]models.ContractSlot, error) {
	const query = `SELECT id, contract_id, weekday, clock FROM contract_slots WHERE contract_id = $1 ORDER BY weekday ASC`
	var slots []models.ContractSlot
	if err := r.db.SelectContext(ctx, &slots, query, contractID); err != nil {
		return nil, fmt.Errorf("get contract slots: %w", err)
	}
	return slots, nil
}

// Create stores a contract together with its weekly slots in one transaction.
func (r *ContractRepository) Create(ctx context.Context, contract *models.Contract, slots []models.ContractSlot) error {
	if contract.ID == "" {
		contract.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if contract.CreatedAt.IsZero() {
		contract.CreatedAt = now
	}
	contract.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create contract: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertContract = `INSERT INTO contracts (id, student_id, professional_id, plan_name, cadence, value, max_weekly_lessons, start_date, end_date, status, created_at, updated_at)
VALUES (:id, :student_id, :professional_id, :plan_name, :cadence, :value, :max_weekly_lessons, :start_date, :end_date, :status, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertContract, contract); err != nil {
		return fmt.Errorf("create contract: %w", err)
	}

	if err = insertSlots(ctx, tx, contract.ID, slots); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create contract: %w", err)
	}
	return nil
}

// Update rewrites a contract's mutable fields and replaces its weekly slots.
func (r *ContractRepository) Update(ctx context.Context, contract *models.Contract, slots []models.ContractSlot) error {
	contract.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update contract: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const updateContract = `UPDATE contracts SET professional_id = :professional_id, plan_name = :plan_name, cadence = :cadence, value = :value, max_weekly_lessons = :max_weekly_lessons, start_date = :start_date, end_date = :end_date, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, updateContract, contract); err != nil {
		return fmt.Errorf("update contract: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM contract_slots WHERE contract_id = $1`, contract.ID); err != nil {
		return fmt.Errorf("clear contract slots: %w", err)
	}

	if err = insertSlots(ctx, tx, contract.ID, slots); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update contract: %w", err)
	}
	return nil
}

// Delete removes a contract and cascades to its generated unpaid receivables
// and not-yet-completed lessons.
func (r *ContractRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete contract: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM receivables WHERE contract_id = $1 AND status = $2`, id, models.ReceivableOpen); err != nil {
		return fmt.Errorf("delete contract receivables: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM lessons WHERE contract_id = $1 AND status <> $2`, id, models.LessonCompleted); err != nil {
		return fmt.Errorf("delete contract lessons: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM contract_slots WHERE contract_id = $1`, id); err != nil {
		return fmt.Errorf("delete contract slots: %w", err)
	}

	var res interface{ RowsAffected() (int64, error) }
	res, err = tx.ExecContext(ctx, `DELETE FROM contracts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete contract: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete contract: %w", err)
	}
	if affected == 0 {
		err = ErrNoRowsAffected
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete contract: %w", err)
	}
	return nil
}

func insertSlots(ctx context.Context, tx *sqlx.Tx, contractID string, slots []models.ContractSlot) error {
	const insertSlot = `INSERT INTO contract_slots (id, contract_id, weekday, clock) VALUES ($1, $2, $3, $4)`
	for _, slot := range slots {
		slotID := slot.ID
		if slotID == "" {
			slotID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, insertSlot, slotID, contractID, slot.Weekday, slot.Clock); err != nil {
			return fmt.Errorf("insert contract slot: %w", err)
		}
	}
	return nil
}
