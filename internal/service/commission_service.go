package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nextlevel-sports/academy-api/internal/models"
	"github.com/nextlevel-sports/academy-api/internal/repository"
	"github.com/nextlevel-sports/academy-api/pkg/civiltime"
	appErrors "github.com/nextlevel-sports/academy-api/pkg/errors"
)

type commissionRuleStore interface {
	List(ctx context.Context) ([]models.CommissionRule, error)
	Upsert(ctx context.Context, rule *models.CommissionRule) error
	Delete(ctx context.Context, id string) error
}

type lessonTotalsReader interface {
	SumCompletedByProfessional(ctx context.Context, from, to time.Time) ([]models.LessonTotals, error)
}

// CommissionRuleRequest sets how one professional's commission is computed.
type CommissionRuleRequest struct {
	ProfessionalID string  `json:"professional_id" validate:"required"`
	Kind           string  `json:"kind" validate:"required,oneof=percent per_lesson"`
	Percent        float64 `json:"percent" validate:"gte=0,lte=100"`
	PerLessonValue float64 `json:"per_lesson_value" validate:"gte=0"`
}

// CommissionReport is a computed commission run for one calendar month.
type CommissionReport struct {
	PeriodStart string                  `json:"period_start"`
	PeriodEnd   string                  `json:"period_end"`
	Lines       []models.CommissionLine `json:"lines"`
}

// CommissionService computes instructor commissions from completed lessons of
// the previous calendar month.
type CommissionService struct {
	rules     commissionRuleStore
	lessons   lessonTotalsReader
	zone      *civiltime.Zone
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCommissionService instantiates CommissionService.
func NewCommissionService(rules commissionRuleStore, lessons lessonTotalsReader, zone *civiltime.Zone, validate *validator.Validate, logger *zap.Logger) *CommissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommissionService{rules: rules, lessons: lessons, zone: zone, validator: validate, logger: logger}
}

// ListRules returns all configured commission rules.
func (s *CommissionService) ListRules(ctx context.Context) ([]models.CommissionRule, error) {
	rules, err := s.rules.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list commission rules")
	}
	return rules, nil
}

// UpsertRule creates or replaces the rule for a professional. Percent rules
// require a positive percent, per-lesson rules a positive value.
func (s *CommissionService) UpsertRule(ctx context.Context, req CommissionRuleRequest) (*models.CommissionRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid commission rule payload")
	}
	if req.Kind == models.CommissionPercent && req.Percent <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "percent rules require a positive percent")
	}
	if req.Kind == models.CommissionPerLesson && req.PerLessonValue <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "per-lesson rules require a positive value")
	}

	rule := &models.CommissionRule{
		ProfessionalID: req.ProfessionalID,
		Kind:           req.Kind,
		Percent:        req.Percent,
		PerLessonValue: req.PerLessonValue,
	}
	if err := s.rules.Upsert(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save commission rule")
	}
	return rule, nil
}

// DeleteRule removes a commission rule.
func (s *CommissionService) DeleteRule(ctx context.Context, id string) error {
	if err := s.rules.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Clone(appErrors.ErrNotFound, "commission rule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete commission rule")
	}
	return nil
}

// ComputePreviousMonth aggregates completed lessons of the previous calendar
// month (local time) and applies each professional's rule. Professionals with
// completed lessons but no rule appear with a zero commission.
func (s *CommissionService) ComputePreviousMonth(ctx context.Context, now time.Time) (*CommissionReport, error) {
	local := s.zone.In(now)
	currentMonthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, local.Location())
	previousMonthStart := currentMonthStart.AddDate(0, -1, 0)

	totals, err := s.lessons.SumCompletedByProfessional(ctx, previousMonthStart.UTC(), currentMonthStart.UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate lessons")
	}

	rules, err := s.rules.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list commission rules")
	}
	byProfessional := make(map[string]models.CommissionRule, len(rules))
	for _, rule := range rules {
		byProfessional[rule.ProfessionalID] = rule
	}

	lines := make([]models.CommissionLine, 0, len(totals))
	for _, total := range totals {
		line := models.CommissionLine{
			ProfessionalID: total.ProfessionalID,
			LessonCount:    total.LessonCount,
			BaseValue:      round2(total.TotalValue),
		}
		if rule, ok := byProfessional[total.ProfessionalID]; ok {
			line.Kind = rule.Kind
			line.Percent = rule.Percent
			switch rule.Kind {
			case models.CommissionPercent:
				line.Value = round2(total.TotalValue * rule.Percent / 100)
			case models.CommissionPerLesson:
				line.Value = round2(float64(total.LessonCount) * rule.PerLessonValue)
			}
		}
		lines = append(lines, line)
	}

	return &CommissionReport{
		PeriodStart: previousMonthStart.Format(civiltime.DateLayout),
		PeriodEnd:   currentMonthStart.AddDate(0, 0, -1).Format(civiltime.DateLayout),
		Lines:       lines,
	}, nil
}
