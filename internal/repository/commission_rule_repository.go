package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nextlevel-sports/academy-api/internal/models"
)

const commissionRuleColumns = "id, professional_id, kind, percent, per_lesson_value, created_at, updated_at"

// CommissionRuleRepository provides persistence for commission rules.
type CommissionRuleRepository struct {
	db *sqlx.DB
}

// NewCommissionRuleRepository creates a new commission rule repository.
func NewCommissionRuleRepository(db *sqlx.DB) *CommissionRuleRepository {
	return &CommissionRuleRepository{db: db}
}

// List returns every rule newest first.
func (r *CommissionRuleRepository) List(ctx context.Context) ([]models.CommissionRule, error) {
	query := fmt.Sprintf("SELECT %s FROM commission_rules ORDER BY created_at DESC", commissionRuleColumns)
	var rules []models.CommissionRule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("list commission rules: %w", err)
	}
	return rules, nil
}

// FindByProfessional loads the rule for a professional.
func (r *CommissionRuleRepository) FindByProfessional(ctx context.Context, professionalID string) (*models.CommissionRule, error) {
	query := fmt.Sprintf("SELECT %s FROM commission_rules WHERE professional_id = $1", commissionRuleColumns)
	var rule models.CommissionRule
	if err := r.db.GetContext(ctx, &rule, query, professionalID); err != nil {
		return nil, err
	}
	return &rule, nil
}

// Upsert creates or replaces the single rule a professional may have.
func (r *CommissionRuleRepository) Upsert(ctx context.Context, rule *models.CommissionRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	const query = `INSERT INTO commission_rules (id, professional_id, kind, percent, per_lesson_value, created_at, updated_at)
VALUES (:id, :professional_id, :kind, :percent, :per_lesson_value, :created_at, :updated_at)
ON CONFLICT (professional_id) DO UPDATE SET kind = EXCLUDED.kind, percent = EXCLUDED.percent, per_lesson_value = EXCLUDED.per_lesson_value, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("upsert commission rule: %w", err)
	}
	return nil
}

// Delete removes a rule by id.
func (r *CommissionRuleRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM commission_rules WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete commission rule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete commission rule: %w", err)
	}
	if affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
