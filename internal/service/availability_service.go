package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nextlevel-sports/academy-api/pkg/civiltime"
	"github.com/nextlevel-sports/academy-api/pkg/config"
	appErrors "github.com/nextlevel-sports/academy-api/pkg/errors"
)

type availabilityCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// AvailabilityService computes free slots for a professional on a day by
// filtering the slot catalog through the conflict checker. Results are cached
// briefly in Redis; writes to a professional's day invalidate them.
type AvailabilityService struct {
	conflicts *ConflictChecker
	zone      *civiltime.Zone
	cache     availabilityCache
	cfg       config.ScheduleConfig
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewAvailabilityService instantiates AvailabilityService.
func NewAvailabilityService(conflicts *ConflictChecker, zone *civiltime.Zone, cache availabilityCache, cfg config.ScheduleConfig, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{conflicts: conflicts, zone: zone, cache: cache, cfg: cfg, logger: logger}
}

// WithMetrics attaches cache instrumentation.
func (s *AvailabilityService) WithMetrics(m *MetricsService) *AvailabilityService {
	s.metrics = m
	return s
}

// ListFreeSlots returns the ordered HH:MM labels a professional can still be
// booked at on the given date for the requested duration (minutes, floored at
// the configured minimum).
func (s *AvailabilityService) ListFreeSlots(ctx context.Context, professionalID, date string, durationMinutes int, unitID string) ([]string, error) {
	if _, err := s.zone.ParseDate(date); err != nil {
		return nil, err
	}
	if durationMinutes <= 0 {
		durationMinutes = s.cfg.DefaultDurationMin
	}
	if durationMinutes < s.cfg.MinDurationMin {
		durationMinutes = s.cfg.MinDurationMin
	}

	key := availabilityKey(professionalID, date, durationMinutes, unitID)
	if s.cache != nil {
		var cached []string
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			s.metrics.RecordCacheLookup(true)
			return cached, nil
		}
		s.metrics.RecordCacheLookup(false)
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("availability cache read failed", zap.Error(err))
		}
	}

	duration := time.Duration(durationMinutes) * time.Minute
	free := make([]string, 0)
	for _, slot := range EnumerateSlots(s.cfg.OpenHour, s.cfg.CloseHour) {
		start, err := s.zone.ToAbsolute(date, slot)
		if err != nil {
			return nil, err
		}
		conflict, err := s.conflicts.Check(ctx, professionalID, start, start.Add(duration), unitID, "")
		if err != nil {
			return nil, err
		}
		if conflict == nil {
			free = append(free, slot)
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, free, s.cfg.AvailabilityTTL); err != nil {
			s.logger.Warn("availability cache write failed", zap.Error(err))
		}
	}
	return free, nil
}

// InvalidateDay drops cached availability for a date. An empty professional
// id clears the whole date, which block changes without a professional need.
func (s *AvailabilityService) InvalidateDay(ctx context.Context, professionalID, date string) {
	if s.cache == nil {
		return
	}
	pid := professionalID
	if pid == "" {
		pid = "*"
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("availability:%s:%s:*", pid, date)); err != nil {
		s.logger.Warn("availability cache invalidation failed", zap.Error(err))
	}
}

func availabilityKey(professionalID, date string, durationMinutes int, unitID string) string {
	if unitID == "" {
		unitID = "-"
	}
	return fmt.Sprintf("availability:%s:%s:%d:%s", professionalID, date, durationMinutes, unitID)
}
