package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nextlevel-sports/academy-api/internal/models"
	"github.com/nextlevel-sports/academy-api/internal/repository"
	"github.com/nextlevel-sports/academy-api/pkg/civiltime"
	"github.com/nextlevel-sports/academy-api/pkg/config"
	appErrors "github.com/nextlevel-sports/academy-api/pkg/errors"
)

type contractStore interface {
	FindByID(ctx context.Context, id string) (*models.Contract, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Contract, error)
	GetSlots(ctx context.Context, contractID string) ([]models.ContractSlot, error)
	Create(ctx context.Context, contract *models.Contract, slots []models.ContractSlot) error
	Update(ctx context.Context, contract *models.Contract, slots []models.ContractSlot) error
	Delete(ctx context.Context, id string) error
}

type materializeLessonStore interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	ExistsByStudentStart(ctx context.Context, studentID string, start time.Time) (bool, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// WeeklySlotInput is one weekday/time entry of a contract schedule payload.
type WeeklySlotInput struct {
	Weekday string `json:"weekday" validate:"required"`
	Time    string `json:"time" validate:"required"`
}

// ContractRequest is the payload for creating or updating a contract.
type ContractRequest struct {
	StudentID        string           `json:"student_id" validate:"required"`
	ProfessionalID   string           `json:"professional_id"`
	PlanName         string           `json:"plan_name" validate:"required"`
	Cadence          string           `json:"cadence" validate:"required,oneof=monthly quarterly semiannual annual"`
	Value            float64          `json:"value" validate:"gte=0"`
	MaxWeeklyLessons int              `json:"max_weekly_lessons" validate:"gte=0"`
	StartDate        string           `json:"start_date" validate:"required"`
	WeeklySchedule   []WeeklySlotInput `json:"weekly_schedule"`
}

// MaterializeRequest tunes a contract materialization run.
type MaterializeRequest struct {
	DurationMinutes int    `json:"duration_minutes"`
	UnitID          string `json:"unit_id"`
}

// MaterializationResult reports one expansion run: how many lessons were
// created and which occurrences were skipped because of conflicts.
type MaterializationResult struct {
	Created   int      `json:"created"`
	Conflicts []string `json:"conflicts"`
}

// ContractService manages contracts and expands their weekly schedules into
// concrete lessons over the covered period.
type ContractService struct {
	contracts     contractStore
	lessons       materializeLessonStore
	receivables   receivableWriter
	agendas       agendaStore
	students      studentReader
	professionals professionalReader
	units         unitReader
	conflicts     *ConflictChecker
	availability  *AvailabilityService
	zone          *civiltime.Zone
	cfg           config.ScheduleConfig
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewContractService instantiates ContractService.
func NewContractService(
	contracts contractStore,
	lessons materializeLessonStore,
	receivables receivableWriter,
	agendas agendaStore,
	students studentReader,
	professionals professionalReader,
	units unitReader,
	conflicts *ConflictChecker,
	availability *AvailabilityService,
	zone *civiltime.Zone,
	cfg config.ScheduleConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *ContractService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContractService{
		contracts:     contracts,
		lessons:       lessons,
		receivables:   receivables,
		agendas:       agendas,
		students:      students,
		professionals: professionals,
		units:         units,
		conflicts:     conflicts,
		availability:  availability,
		zone:          zone,
		cfg:           cfg,
		validator:     validate,
		logger:        logger,
	}
}

// WithMetrics attaches booking instrumentation.
func (s *ContractService) WithMetrics(m *MetricsService) *ContractService {
	s.metrics = m
	return s
}

// Get loads a contract with its weekly slots.
func (s *ContractService) Get(ctx context.Context, id string) (*models.Contract, []models.ContractSlot, error) {
	contract, err := s.loadContract(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	slots, err := s.contracts.GetSlots(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contract slots")
	}
	return contract, slots, nil
}

// ListByStudent returns the student's contracts.
func (s *ContractService) ListByStudent(ctx context.Context, studentID string) ([]models.Contract, error) {
	contracts, err := s.contracts.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list contracts")
	}
	return contracts, nil
}

// Create registers a contract, its weekly slots and one open receivable per
// covered month. The end date is the start date plus the cadence's months,
// clamped to the target month's length.
func (s *ContractService) Create(ctx context.Context, req ContractRequest) (*models.Contract, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contract payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	contract, slots, err := s.buildContract(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.contracts.Create(ctx, contract, slots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create contract")
	}

	months := models.CadenceMonths[contract.Cadence]
	for i := 0; i < months; i++ {
		receivable := &models.Receivable{
			ContractID: &contract.ID,
			StudentID:  contract.StudentID,
			DueDate:    addMonthsClamped(contract.StartDate, i),
			Value:      contract.Value,
		}
		if err := s.receivables.Create(ctx, receivable); err != nil {
			s.logger.Error("contract receivable creation failed",
				zap.String("contract_id", contract.ID), zap.Int("installment", i+1), zap.Error(err))
		}
	}

	return contract, nil
}

// Update replaces a contract's fields and weekly slots.
func (s *ContractService) Update(ctx context.Context, id string, req ContractRequest) (*models.Contract, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contract payload")
	}
	existing, err := s.loadContract(ctx, id)
	if err != nil {
		return nil, err
	}

	contract, slots, err := s.buildContract(ctx, req)
	if err != nil {
		return nil, err
	}
	contract.ID = existing.ID
	contract.Status = existing.Status
	for i := range slots {
		slots[i].ContractID = existing.ID
	}

	if err := s.contracts.Update(ctx, contract, slots); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "contract not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update contract")
	}
	return contract, nil
}

// Delete removes a contract, its slots, open receivables and non-completed
// lessons in one transaction.
func (s *ContractService) Delete(ctx context.Context, id string) error {
	if err := s.contracts.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Clone(appErrors.ErrNotFound, "contract not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete contract")
	}
	return nil
}

// Materialize expands the contract's weekly schedule into concrete lessons
// over [start_date, end_date]. The run is idempotent: occurrences the student
// already has at that exact instant are skipped, and conflicting occurrences
// are reported instead of created.
func (s *ContractService) Materialize(ctx context.Context, contractID string, req MaterializeRequest) (*MaterializationResult, error) {
	contract, err := s.loadContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	slots, err := s.contracts.GetSlots(ctx, contractID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contract slots")
	}
	if len(slots) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidSchedule, "contract has no weekly schedule")
	}
	if contract.MaxWeeklyLessons > 0 && len(slots) > contract.MaxWeeklyLessons {
		return nil, appErrors.Clone(appErrors.ErrTooManyWeeklySlots, "")
	}

	byWeekday := make(map[time.Weekday]string, len(slots))
	for _, slot := range slots {
		if _, dup := byWeekday[slot.Weekday]; dup {
			return nil, appErrors.Clone(appErrors.ErrInvalidSchedule, "duplicate weekday in weekly schedule")
		}
		byWeekday[slot.Weekday] = slot.Clock
	}

	professionalID := ""
	if contract.ProfessionalID != nil {
		professionalID = *contract.ProfessionalID
	}
	professional, err := s.resolveProfessional(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	unit, err := s.resolveUnit(ctx, req.UnitID)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(req.DurationMinutes) * time.Minute
	if req.DurationMinutes <= 0 {
		duration = time.Duration(s.cfg.DefaultDurationMin) * time.Minute
	}

	result := &MaterializationResult{Conflicts: []string{}}
	for day := contract.StartDate; !day.After(contract.EndDate); day = day.AddDate(0, 0, 1) {
		clock, ok := byWeekday[day.Weekday()]
		if !ok {
			continue
		}
		date := day.Format(civiltime.DateLayout)

		start, err := s.zone.ToAbsolute(date, clock)
		if err != nil {
			return nil, err
		}
		end := start.Add(duration)

		exists, err := s.lessons.ExistsByStudentStart(ctx, contract.StudentID, start)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing lesson")
		}
		if exists {
			continue
		}

		conflict, err := s.conflicts.Check(ctx, professional.ID, start, end, unit.ID, "")
		if err != nil {
			return nil, err
		}
		if conflict != nil {
			s.metrics.RecordConflict()
			result.Conflicts = append(result.Conflicts, fmt.Sprintf("%s %s: %s", date, clock, conflict.Reason))
			continue
		}

		agenda, err := s.agendas.FindOrCreate(ctx, unit.ID, date)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve agenda")
		}

		lesson := &models.Lesson{
			AgendaID:       agenda.ID,
			ContractID:     &contract.ID,
			StudentID:      contract.StudentID,
			ProfessionalID: professional.ID,
			StartsAt:       start,
			EndsAt:         end,
			Status:         models.LessonScheduled,
			Value:          contract.Value,
		}
		if err := s.lessons.Create(ctx, lesson); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
		}
		s.metrics.RecordBooking("contract")
		result.Created++

		if s.availability != nil {
			s.availability.InvalidateDay(ctx, professional.ID, date)
		}
	}

	s.logger.Info("contract materialized",
		zap.String("contract_id", contract.ID),
		zap.Int("created", result.Created),
		zap.Int("conflicts", len(result.Conflicts)))
	return result, nil
}

func (s *ContractService) buildContract(ctx context.Context, req ContractRequest) (*models.Contract, []models.ContractSlot, error) {
	cadence := models.ContractCadence(req.Cadence)
	months, ok := models.CadenceMonths[cadence]
	if !ok {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown contract cadence")
	}

	start, err := s.zone.ParseDate(req.StartDate)
	if err != nil {
		return nil, nil, err
	}

	slots, err := normalizeSchedule(req.WeeklySchedule, req.MaxWeeklyLessons)
	if err != nil {
		return nil, nil, err
	}

	contract := &models.Contract{
		StudentID:        req.StudentID,
		PlanName:         req.PlanName,
		Cadence:          cadence,
		Value:            req.Value,
		MaxWeeklyLessons: req.MaxWeeklyLessons,
		StartDate:        start,
		EndDate:          addMonthsClamped(start, months),
		Status:           "active",
	}
	if req.ProfessionalID != "" {
		professional, err := s.resolveProfessional(ctx, req.ProfessionalID)
		if err != nil {
			return nil, nil, err
		}
		contract.ProfessionalID = &professional.ID
	}
	return contract, slots, nil
}

func (s *ContractService) loadContract(ctx context.Context, id string) (*models.Contract, error) {
	contract, err := s.contracts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "contract not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contract")
	}
	return contract, nil
}

func (s *ContractService) resolveProfessional(ctx context.Context, id string) (*models.Professional, error) {
	var professional *models.Professional
	var err error
	if id != "" {
		professional, err = s.professionals.FindByID(ctx, id)
	} else {
		professional, err = s.professionals.FindFirst(ctx)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "professional not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professional")
	}
	return professional, nil
}

func (s *ContractService) resolveUnit(ctx context.Context, id string) (*models.Unit, error) {
	var unit *models.Unit
	var err error
	if id != "" {
		unit, err = s.units.FindByID(ctx, id)
	} else {
		unit, err = s.units.FindFirst(ctx)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unit not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unit")
	}
	return unit, nil
}

// normalizeSchedule validates and converts the weekly schedule payload. Each
// weekday may appear at most once, and the slot count must respect the plan's
// weekly limit when one is set.
func normalizeSchedule(inputs []WeeklySlotInput, maxWeekly int) ([]models.ContractSlot, error) {
	if maxWeekly > 0 && len(inputs) > maxWeekly {
		return nil, appErrors.Clone(appErrors.ErrTooManyWeeklySlots, "")
	}
	seen := make(map[time.Weekday]bool, len(inputs))
	slots := make([]models.ContractSlot, 0, len(inputs))
	for _, input := range inputs {
		weekday, ok := models.ParseWeekday(input.Weekday)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrInvalidSchedule, fmt.Sprintf("unknown weekday %q", input.Weekday))
		}
		if seen[weekday] {
			return nil, appErrors.Clone(appErrors.ErrInvalidSchedule, "duplicate weekday in weekly schedule")
		}
		seen[weekday] = true

		if _, err := civiltime.ParseClock(input.Time); err != nil {
			return nil, err
		}
		slots = append(slots, models.ContractSlot{Weekday: weekday, Clock: input.Time})
	}
	return slots, nil
}

// addMonthsClamped adds months to t keeping the day of month, clamped to the
// target month's last day (Jan 31 + 1 month = Feb 28/29).
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), 0, 0, t.Location())
}
