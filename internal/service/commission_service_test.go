package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nextlevel-sports/academy-api/internal/models"
	"github.com/nextlevel-sports/academy-api/internal/repository"
	appErrors "github.com/nextlevel-sports/academy-api/pkg/errors"
)

type mockCommissionRuleRepo struct {
	rules []models.CommissionRule
}

func (m *mockCommissionRuleRepo) List(ctx context.Context) ([]models.CommissionRule, error) {
	return m.rules, nil
}

func (m *mockCommissionRuleRepo) Upsert(ctx context.Context, rule *models.CommissionRule) error {
	for i := range m.rules {
		if m.rules[i].ProfessionalID == rule.ProfessionalID {
			rule.ID = m.rules[i].ID
			m.rules[i] = *rule
			return nil
		}
	}
	rule.ID = "rule-1"
	m.rules = append(m.rules, *rule)
	return nil
}

func (m *mockCommissionRuleRepo) Delete(ctx context.Context, id string) error {
	for i := range m.rules {
		if m.rules[i].ID == id {
			m.rules = append(m.rules[:i], m.rules[i+1:]...)
			return nil
		}
	}
	return repository.ErrNoRowsAffected
}

type mockLessonTotalsRepo struct {
	totals []models.LessonTotals
	from   time.Time
	to     time.Time
}

func (m *mockLessonTotalsRepo) SumCompletedByProfessional(ctx context.Context, from, to time.Time) ([]models.LessonTotals, error) {
	m.from = from
	m.to = to
	return m.totals, nil
}

func newCommissionService(rules *mockCommissionRuleRepo, totals *mockLessonTotalsRepo) *CommissionService {
	return NewCommissionService(rules, totals, testZone, nil, zap.NewNop())
}

func TestCommissionReportPercentRule(t *testing.T) {
	rules := &mockCommissionRuleRepo{rules: []models.CommissionRule{
		{ID: "rule-1", ProfessionalID: "pro-1", Kind: models.CommissionPercent, Percent: 10},
	}}
	totals := &mockLessonTotalsRepo{totals: []models.LessonTotals{
		{ProfessionalID: "pro-1", LessonCount: 8, TotalValue: 1000},
	}}
	svc := newCommissionService(rules, totals)

	now := mustAbsolute(t, "2024-04-15", "12:00")
	report, err := svc.ComputePreviousMonth(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01", report.PeriodStart)
	assert.Equal(t, "2024-03-31", report.PeriodEnd)
	require.Len(t, report.Lines, 1)
	assert.Equal(t, 1000.0, report.Lines[0].BaseValue)
	assert.Equal(t, 100.0, report.Lines[0].Value)

	// The aggregation window is the previous local month, half-open.
	assert.Equal(t, mustAbsolute(t, "2024-03-01", "00:00"), totals.from)
	assert.Equal(t, mustAbsolute(t, "2024-04-01", "00:00"), totals.to)
}

func TestCommissionReportPerLessonRule(t *testing.T) {
	rules := &mockCommissionRuleRepo{rules: []models.CommissionRule{
		{ID: "rule-1", ProfessionalID: "pro-1", Kind: models.CommissionPerLesson, PerLessonValue: 30},
	}}
	totals := &mockLessonTotalsRepo{totals: []models.LessonTotals{
		{ProfessionalID: "pro-1", LessonCount: 4, TotalValue: 520},
	}}
	svc := newCommissionService(rules, totals)

	report, err := svc.ComputePreviousMonth(context.Background(), mustAbsolute(t, "2024-04-15", "12:00"))
	require.NoError(t, err)
	require.Len(t, report.Lines, 1)
	assert.Equal(t, 120.0, report.Lines[0].Value)
}

func TestCommissionReportWithoutRule(t *testing.T) {
	totals := &mockLessonTotalsRepo{totals: []models.LessonTotals{
		{ProfessionalID: "pro-2", LessonCount: 3, TotalValue: 300},
	}}
	svc := newCommissionService(&mockCommissionRuleRepo{}, totals)

	report, err := svc.ComputePreviousMonth(context.Background(), mustAbsolute(t, "2024-04-15", "12:00"))
	require.NoError(t, err)
	require.Len(t, report.Lines, 1)
	assert.Equal(t, 300.0, report.Lines[0].BaseValue)
	assert.Equal(t, 0.0, report.Lines[0].Value)
	assert.Empty(t, report.Lines[0].Kind)
}

func TestCommissionUpsertRuleValidation(t *testing.T) {
	svc := newCommissionService(&mockCommissionRuleRepo{}, &mockLessonTotalsRepo{})

	_, err := svc.UpsertRule(context.Background(), CommissionRuleRequest{
		ProfessionalID: "pro-1",
		Kind:           models.CommissionPercent,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.UpsertRule(context.Background(), CommissionRuleRequest{
		ProfessionalID: "pro-1",
		Kind:           models.CommissionPerLesson,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCommissionUpsertRuleReplacesExisting(t *testing.T) {
	rules := &mockCommissionRuleRepo{}
	svc := newCommissionService(rules, &mockLessonTotalsRepo{})

	_, err := svc.UpsertRule(context.Background(), CommissionRuleRequest{
		ProfessionalID: "pro-1",
		Kind:           models.CommissionPercent,
		Percent:        10,
	})
	require.NoError(t, err)

	_, err = svc.UpsertRule(context.Background(), CommissionRuleRequest{
		ProfessionalID: "pro-1",
		Kind:           models.CommissionPercent,
		Percent:        15,
	})
	require.NoError(t, err)
	require.Len(t, rules.rules, 1)
	assert.Equal(t, 15.0, rules.rules[0].Percent)
}

func TestCommissionDeleteRuleMissing(t *testing.T) {
	svc := newCommissionService(&mockCommissionRuleRepo{}, &mockLessonTotalsRepo{})

	err := svc.DeleteRule(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
