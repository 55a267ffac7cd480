package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nextlevel-sports/academy-api/internal/models"
	"github.com/nextlevel-sports/academy-api/internal/repository"
	"github.com/nextlevel-sports/academy-api/pkg/civiltime"
	appErrors "github.com/nextlevel-sports/academy-api/pkg/errors"
)

type blockStore interface {
	ListByRange(ctx context.Context, from, to string, professionalID string) ([]models.TimeBlockView, error)
	Create(ctx context.Context, block *models.TimeBlock) error
	Delete(ctx context.Context, id string) error
}

// CreateBlocksRequest describes a batch of calendar blocks over a date range.
// An empty weekday filter applies the block to every date in the range.
type CreateBlocksRequest struct {
	StartDate      string   `json:"start_date" validate:"required"`
	EndDate        string   `json:"end_date"`
	StartTime      string   `json:"start_time" validate:"required"`
	EndTime        string   `json:"end_time" validate:"required"`
	Weekdays       []string `json:"weekdays"`
	ProfessionalID string   `json:"professional_id"`
	UnitID         string   `json:"unit_id"`
	Reason         string   `json:"reason"`
}

// BlockService manages standing calendar blocks.
type BlockService struct {
	blocks       blockStore
	availability *AvailabilityService
	zone         *civiltime.Zone
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewBlockService instantiates BlockService.
func NewBlockService(blocks blockStore, availability *AvailabilityService, zone *civiltime.Zone, validate *validator.Validate, logger *zap.Logger) *BlockService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlockService{
		blocks:       blocks,
		availability: availability,
		zone:         zone,
		validator:    validate,
		logger:       logger,
	}
}

// ListRange returns blocks with display names for [from, to], optionally for
// one professional.
func (s *BlockService) ListRange(ctx context.Context, from, to, professionalID string) ([]models.TimeBlockView, error) {
	if _, err := s.zone.ParseDate(from); err != nil {
		return nil, err
	}
	if to == "" {
		to = from
	}
	if _, err := s.zone.ParseDate(to); err != nil {
		return nil, err
	}
	blocks, err := s.blocks.ListByRange(ctx, from, to, professionalID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time blocks")
	}
	return blocks, nil
}

// CreateBatch creates blocks on every date of the range matching the weekday
// filter and returns how many records were stored. Windows of two hours or
// more that sit on exact hour bounds are split into one record per hour so
// they can be managed individually.
func (s *BlockService) CreateBatch(ctx context.Context, req CreateBlocksRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid block payload")
	}

	start, err := s.zone.ParseDate(req.StartDate)
	if err != nil {
		return 0, err
	}
	end := start
	if req.EndDate != "" {
		end, err = s.zone.ParseDate(req.EndDate)
		if err != nil {
			return 0, err
		}
	}
	if end.Before(start) {
		end = start
	}

	startMinutes, err := civiltime.ParseClock(req.StartTime)
	if err != nil {
		return 0, err
	}
	endMinutes, err := civiltime.ParseClock(req.EndTime)
	if err != nil {
		return 0, err
	}
	if endMinutes <= startMinutes {
		return 0, appErrors.Clone(appErrors.ErrValidation, "block end time must be after start time")
	}

	weekdays, err := parseWeekdayFilter(req.Weekdays)
	if err != nil {
		return 0, err
	}

	windows := splitHourly(startMinutes, endMinutes)

	var professionalID, unitID, reason *string
	if req.ProfessionalID != "" {
		professionalID = &req.ProfessionalID
	}
	if req.UnitID != "" {
		unitID = &req.UnitID
	}
	if req.Reason != "" {
		reason = &req.Reason
	}

	created := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if len(weekdays) > 0 && !weekdays[day.Weekday()] {
			continue
		}
		date := day.Format(civiltime.DateLayout)
		for _, window := range windows {
			block := &models.TimeBlock{
				ProfessionalID: professionalID,
				UnitID:         unitID,
				Date:           time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
				StartClock:     formatClock(window[0]),
				EndClock:       formatClock(window[1]),
				Reason:         reason,
			}
			if err := s.blocks.Create(ctx, block); err != nil {
				return created, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create time block")
			}
			created++
		}
		s.invalidate(ctx, req.ProfessionalID, date)
	}

	s.logger.Info("time blocks created",
		zap.Int("records", created),
		zap.String("start_date", req.StartDate),
		zap.String("window", req.StartTime+"-"+req.EndTime))
	return created, nil
}

// Delete removes one block record.
func (s *BlockService) Delete(ctx context.Context, id string) error {
	if err := s.blocks.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Clone(appErrors.ErrNotFound, "time block not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete time block")
	}
	return nil
}

func (s *BlockService) invalidate(ctx context.Context, professionalID, date string) {
	if s.availability != nil {
		s.availability.InvalidateDay(ctx, professionalID, date)
	}
}

// splitHourly breaks [startMinutes, endMinutes) into hour-long windows when
// the span covers at least two hours and both bounds sit on an exact hour.
// Anything else is kept as a single window.
func splitHourly(startMinutes, endMinutes int) [][2]int {
	span := endMinutes - startMinutes
	if span >= 120 && startMinutes%60 == 0 && endMinutes%60 == 0 {
		windows := make([][2]int, 0, span/60)
		for at := startMinutes; at < endMinutes; at += 60 {
			windows = append(windows, [2]int{at, at + 60})
		}
		return windows
	}
	return [][2]int{{startMinutes, endMinutes}}
}

func parseWeekdayFilter(labels []string) (map[time.Weekday]bool, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	filter := make(map[time.Weekday]bool, len(labels))
	for _, label := range labels {
		weekday, ok := models.ParseWeekday(label)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown weekday %q", label))
		}
		filter[weekday] = true
	}
	return filter, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
