package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nextlevel-sports/academy-api/internal/models"
	"github.com/nextlevel-sports/academy-api/internal/repository"
	"github.com/nextlevel-sports/academy-api/pkg/civiltime"
	"github.com/nextlevel-sports/academy-api/pkg/config"
	appErrors "github.com/nextlevel-sports/academy-api/pkg/errors"
)

type lessonStore interface {
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Reschedule(ctx context.Context, id, agendaID, professionalID string, start, end time.Time) error
	UpdateStatus(ctx context.Context, id string, status models.LessonStatus) error
	MarkDiscounted(ctx context.Context, id string, amount float64, at time.Time) error
	Delete(ctx context.Context, id string) error
	ListByDate(ctx context.Context, dayStart, dayEnd time.Time, professionalID string) ([]models.LessonView, error)
	CountByContract(ctx context.Context, contractID string) (int, error)
}

type agendaStore interface {
	FindOrCreate(ctx context.Context, unitID, date string) (*models.Agenda, error)
	FindByID(ctx context.Context, id string) (*models.Agenda, error)
}

type professionalReader interface {
	FindByID(ctx context.Context, id string) (*models.Professional, error)
	FindFirst(ctx context.Context) (*models.Professional, error)
}

type unitReader interface {
	FindByID(ctx context.Context, id string) (*models.Unit, error)
	FindFirst(ctx context.Context) (*models.Unit, error)
}

type receivableWriter interface {
	Create(ctx context.Context, receivable *models.Receivable) error
	ListOpenByStudent(ctx context.Context, studentID string) ([]models.Receivable, error)
	UpdateValue(ctx context.Context, id string, value float64) error
}

type contractReader interface {
	FindByID(ctx context.Context, id string) (*models.Contract, error)
}

// CreateLessonRequest describes payload for booking an ad-hoc lesson.
type CreateLessonRequest struct {
	StudentID       string  `json:"student_id" validate:"required"`
	ProfessionalID  string  `json:"professional_id"`
	UnitID          string  `json:"unit_id"`
	Date            string  `json:"date" validate:"required"`
	Time            string  `json:"time" validate:"required"`
	DurationMinutes int     `json:"duration_minutes"`
	Value           float64 `json:"value" validate:"gte=0"`
}

// RescheduleLessonRequest moves an existing lesson.
type RescheduleLessonRequest struct {
	Date           string `json:"date" validate:"required"`
	Time           string `json:"time" validate:"required"`
	ProfessionalID string `json:"professional_id"`
}

// DiscountResult reports how a lesson's charge-back was absorbed.
type DiscountResult struct {
	Amount   float64 `json:"amount"`
	Absorbed float64 `json:"absorbed"`
	Leftover float64 `json:"leftover"`
}

// LessonService coordinates single-lesson scheduling: booking, rescheduling,
// status transitions and discount/charge-back.
type LessonService struct {
	lessons       lessonStore
	agendas       agendaStore
	professionals professionalReader
	units         unitReader
	receivables   receivableWriter
	contracts     contractReader
	conflicts     *ConflictChecker
	availability  *AvailabilityService
	zone          *civiltime.Zone
	cfg           config.ScheduleConfig
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewLessonService instantiates LessonService.
func NewLessonService(
	lessons lessonStore,
	agendas agendaStore,
	professionals professionalReader,
	units unitReader,
	receivables receivableWriter,
	contracts contractReader,
	conflicts *ConflictChecker,
	availability *AvailabilityService,
	zone *civiltime.Zone,
	cfg config.ScheduleConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{
		lessons:       lessons,
		agendas:       agendas,
		professionals: professionals,
		units:         units,
		receivables:   receivables,
		contracts:     contracts,
		conflicts:     conflicts,
		availability:  availability,
		zone:          zone,
		cfg:           cfg,
		validator:     validate,
		logger:        logger,
	}
}

// WithMetrics attaches booking instrumentation.
func (s *LessonService) WithMetrics(m *MetricsService) *LessonService {
	s.metrics = m
	return s
}

// ListDay returns a day's lessons, optionally for one professional.
func (s *LessonService) ListDay(ctx context.Context, date, professionalID string) ([]models.LessonView, error) {
	dayStart, err := s.zone.ToAbsolute(date, "00:00")
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessons.ListByDate(ctx, dayStart, dayStart.Add(24*time.Hour), professionalID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	return lessons, nil
}

// Create books an ad-hoc lesson after validation and conflict detection. A
// positive value also opens one receivable due on the lesson date.
func (s *LessonService) Create(ctx context.Context, req CreateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}

	start, err := s.zone.ToAbsolute(req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	duration := s.normalizeDuration(req.DurationMinutes)
	end := start.Add(duration)

	professional, err := s.resolveProfessional(ctx, req.ProfessionalID)
	if err != nil {
		return nil, err
	}
	unit, err := s.resolveUnit(ctx, req.UnitID)
	if err != nil {
		return nil, err
	}

	agenda, err := s.agendas.FindOrCreate(ctx, unit.ID, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve agenda")
	}

	conflict, err := s.conflicts.Check(ctx, professional.ID, start, end, unit.ID, "")
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		s.metrics.RecordConflict()
		return nil, appErrors.Clone(appErrors.ErrConflict, conflict.Reason)
	}

	lesson := &models.Lesson{
		AgendaID:       agenda.ID,
		StudentID:      req.StudentID,
		ProfessionalID: professional.ID,
		StartsAt:       start,
		EndsAt:         end,
		Status:         models.LessonScheduled,
		Value:          req.Value,
	}
	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}
	s.metrics.RecordBooking("single")

	if req.Value > 0 {
		dueDate, _ := s.zone.ParseDate(req.Date)
		receivable := &models.Receivable{
			StudentID: req.StudentID,
			DueDate:   dueDate,
			Value:     req.Value,
		}
		if err := s.receivables.Create(ctx, receivable); err != nil {
			s.logger.Error("lesson receivable creation failed", zap.String("lesson_id", lesson.ID), zap.Error(err))
		}
	}

	s.invalidateAvailability(ctx, professional.ID, req.Date)
	return lesson, nil
}

// Reschedule moves a lesson to a new date/time (and optionally professional),
// keeping its duration and resetting the status to scheduled.
func (s *LessonService) Reschedule(ctx context.Context, id string, req RescheduleLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}

	lesson, err := s.loadLesson(ctx, id)
	if err != nil {
		return nil, err
	}
	if lesson.Status == models.LessonCompleted {
		return nil, appErrors.Clone(appErrors.ErrImmutable, "")
	}

	duration := lesson.EndsAt.Sub(lesson.StartsAt)
	if lesson.StartsAt.IsZero() || lesson.EndsAt.IsZero() || duration <= 0 {
		duration = time.Duration(s.cfg.DefaultDurationMin) * time.Minute
	}

	start, err := s.zone.ToAbsolute(req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	end := start.Add(duration)

	professionalID := lesson.ProfessionalID
	if req.ProfessionalID != "" {
		professional, err := s.resolveProfessional(ctx, req.ProfessionalID)
		if err != nil {
			return nil, err
		}
		professionalID = professional.ID
	}

	conflict, err := s.conflicts.Check(ctx, professionalID, start, end, "", lesson.ID)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		s.metrics.RecordConflict()
		return nil, appErrors.Clone(appErrors.ErrConflict, conflict.Reason)
	}

	agenda, err := s.agendas.FindByID(ctx, lesson.AgendaID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load agenda")
	}
	destination, err := s.agendas.FindOrCreate(ctx, agenda.UnitID, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve agenda")
	}

	if err := s.lessons.Reschedule(ctx, lesson.ID, destination.ID, professionalID, start, end); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reschedule lesson")
	}

	oldDate, _ := s.zone.ToLocal(lesson.StartsAt)
	s.invalidateAvailability(ctx, lesson.ProfessionalID, oldDate)
	s.invalidateAvailability(ctx, professionalID, req.Date)

	lesson.AgendaID = destination.ID
	lesson.ProfessionalID = professionalID
	lesson.StartsAt = start
	lesson.EndsAt = end
	lesson.Status = models.LessonScheduled
	return lesson, nil
}

// Delete removes a lesson unless it is already completed.
func (s *LessonService) Delete(ctx context.Context, id string) error {
	lesson, err := s.loadLesson(ctx, id)
	if err != nil {
		return err
	}
	if lesson.Status == models.LessonCompleted {
		return appErrors.Clone(appErrors.ErrImmutable, "")
	}
	if err := s.lessons.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}
	date, _ := s.zone.ToLocal(lesson.StartsAt)
	s.invalidateAvailability(ctx, lesson.ProfessionalID, date)
	return nil
}

// UpdateStatus transitions a lesson to one of the allowed statuses.
func (s *LessonService) UpdateStatus(ctx context.Context, id string, status models.LessonStatus) (*models.Lesson, error) {
	if !models.ValidLessonStatus(status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidStatus, "")
	}
	lesson, err := s.loadLesson(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.lessons.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson status")
	}
	lesson.Status = status
	if status == models.LessonCancelled {
		date, _ := s.zone.ToLocal(lesson.StartsAt)
		s.invalidateAvailability(ctx, lesson.ProfessionalID, date)
	}
	return lesson, nil
}

// Discount applies a lesson's one-time charge-back against the student's open
// receivables, oldest due first. Contract lessons are charged a proportional
// share of the contract value; ad-hoc lessons their own flat value.
func (s *LessonService) Discount(ctx context.Context, id string) (*DiscountResult, error) {
	lesson, err := s.loadLesson(ctx, id)
	if err != nil {
		return nil, err
	}
	if lesson.Status == models.LessonCancelled {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cancelled lessons cannot be discounted")
	}
	if lesson.Discounted {
		return nil, appErrors.Clone(appErrors.ErrAlreadyDiscounted, "")
	}

	amount := lesson.Value
	if lesson.ContractID != nil {
		contract, err := s.contracts.FindByID(ctx, *lesson.ContractID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "contract not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contract")
		}
		count, err := s.lessons.CountByContract(ctx, *lesson.ContractID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count contract lessons")
		}
		if count <= 0 {
			return nil, appErrors.Clone(appErrors.ErrInvalidAmount, "")
		}
		amount = round2(contract.Value / float64(count))
	}
	if amount <= 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidAmount, "")
	}

	// Conditional update guards the single-use rule even under racing calls.
	if err := s.lessons.MarkDiscounted(ctx, id, amount, time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyDiscounted, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark lesson discounted")
	}

	open, err := s.receivables.ListOpenByStudent(ctx, lesson.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load receivables")
	}

	remaining := amount
	for _, receivable := range open {
		if remaining <= 0 {
			break
		}
		applied := math.Min(receivable.Value, remaining)
		if applied <= 0 {
			continue
		}
		if err := s.receivables.UpdateValue(ctx, receivable.ID, round2(receivable.Value-applied)); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update receivable")
		}
		remaining = round2(remaining - applied)
	}

	return &DiscountResult{
		Amount:   amount,
		Absorbed: round2(amount - remaining),
		Leftover: remaining,
	}, nil
}

func (s *LessonService) loadLesson(ctx context.Context, id string) (*models.Lesson, error) {
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return lesson, nil
}

func (s *LessonService) resolveProfessional(ctx context.Context, id string) (*models.Professional, error) {
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

func (s *LessonService) resolveUnit(ctx context.Context, id string) (*models.Unit, error) {
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

func (s *LessonService) normalizeDuration(minutes int) time.Duration {
	if minutes <= 0 {
		minutes = s.cfg.DefaultDurationMin
	}
	if minutes < s.cfg.MinDurationMin {
		minutes = s.cfg.MinDurationMin
	}
	return time.Duration(minutes) * time.Minute
}

func (s *LessonService) invalidateAvailability(ctx context.Context, professionalID, date string) {
	if s.availability != nil {
		s.availability.InvalidateDay(ctx, professionalID, date)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
