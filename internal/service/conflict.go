package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nextlevel-sports/academy-api/internal/models"
	"github.com/nextlevel-sports/academy-api/pkg/civiltime"
	appErrors "github.com/nextlevel-sports/academy-api/pkg/errors"
)

type conflictLessonStore interface {
	FindOverlapping(ctx context.Context, professionalID string, start, end time.Time, ignoreLessonID string) ([]models.Lesson, error)
}

type conflictBlockStore interface {
	ListActiveByDate(ctx context.Context, date string, professionalID, unitID string) ([]models.TimeBlock, error)
}

// ConflictChecker decides whether a candidate [start, end) interval can be
// booked for a professional: first against that professional's non-cancelled
// lessons, then against active time blocks on the local calendar date.
// Overlap is strict half-open, so back-to-back bookings never conflict.
type ConflictChecker struct {
	lessons conflictLessonStore
	blocks  conflictBlockStore
	zone    *civiltime.Zone
	logger  *zap.Logger
}

// NewConflictChecker instantiates ConflictChecker.
func NewConflictChecker(lessons conflictLessonStore, blocks conflictBlockStore, zone *civiltime.Zone, logger *zap.Logger) *ConflictChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictChecker{lessons: lessons, blocks: blocks, zone: zone, logger: logger}
}

// Check returns the first conflict found for the candidate interval, or nil
// when the slot is free. ignoreLessonID excludes a lesson being rescheduled
// from the lesson-vs-lesson test.
func (c *ConflictChecker) Check(ctx context.Context, professionalID string, start, end time.Time, unitID, ignoreLessonID string) (*models.Conflict, error) {
	overlapping, err := c.lessons.FindOverlapping(ctx, professionalID, start, end, ignoreLessonID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to query lessons")
	}
	if len(overlapping) > 0 {
		return &models.Conflict{
			Kind:   models.ConflictLesson,
			Reason: "professional already has a lesson at that time",
		}, nil
	}

	localDate, _ := c.zone.ToLocal(start)
	startMinutes := c.zone.MinutesOfDay(start)
	endMinutes := startMinutes + int(end.Sub(start).Minutes())

	blocks, err := c.blocks.ListActiveByDate(ctx, localDate, professionalID, unitID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to query time blocks")
	}
	for _, block := range blocks {
		blockStart, err := civiltime.ParseClock(block.StartClock)
		if err != nil {
			c.logger.Warn("skipping malformed time block", zap.String("block_id", block.ID), zap.String("start", block.StartClock))
			continue
		}
		blockEnd, err := civiltime.ParseClock(block.EndClock)
		if err != nil {
			c.logger.Warn("skipping malformed time block", zap.String("block_id", block.ID), zap.String("end", block.EndClock))
			continue
		}
		if blockStart < endMinutes && blockEnd > startMinutes {
			return &models.Conflict{
				Kind:   models.ConflictBlock,
				Reason: fmt.Sprintf("time blocked on professional's calendar (%s-%s)", block.StartClock, block.EndClock),
			}, nil
		}
	}

	return nil, nil
}
