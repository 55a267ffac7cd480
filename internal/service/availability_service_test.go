package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nextlevel-sports/academy-api/internal/models"
	"github.com/nextlevel-sports/academy-api/pkg/config"
	appErrors "github.com/nextlevel-sports/academy-api/pkg/errors"
)

type fakeCache struct {
	entries  map[string][]byte
	patterns []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = raw
	return nil
}

func (f *fakeCache) DeleteByPattern(ctx context.Context, pattern string) error {
	f.patterns = append(f.patterns, pattern)
	return nil
}

func testScheduleConfig() config.ScheduleConfig {
	return config.ScheduleConfig{
		Timezone:           "America/Sao_Paulo",
		OpenHour:           7,
		CloseHour:          21,
		DefaultDurationMin: 60,
		MinDurationMin:     30,
		AvailabilityTTL:    30 * time.Second,
	}
}

func TestAvailabilityExcludesOverlappingStarts(t *testing.T) {
	lessons := &fakeLessonStore{lessons: []models.Lesson{
		lessonAt(t, "l1", "pro-1", "2024-03-04", "09:00", "10:00"),
	}}
	checker := NewConflictChecker(lessons, &fakeBlockStore{}, testZone, zap.NewNop())
	svc := NewAvailabilityService(checker, testZone, nil, testScheduleConfig(), zap.NewNop())

	free, err := svc.ListFreeSlots(context.Background(), "pro-1", "2024-03-04", 60, "")
	require.NoError(t, err)

	// A one-hour booking starting at 08:00 ends exactly at the existing
	// lesson's start, so it stays free; anything from 08:30 through 09:30
	// would overlap.
	assert.Contains(t, free, "08:00")
	assert.Contains(t, free, "10:00")
	assert.NotContains(t, free, "08:30")
	assert.NotContains(t, free, "09:00")
	assert.NotContains(t, free, "09:30")
}

func TestAvailabilityEnforcesMinimumDuration(t *testing.T) {
	lessons := &fakeLessonStore{}
	checker := NewConflictChecker(lessons, &fakeBlockStore{}, testZone, zap.NewNop())
	svc := NewAvailabilityService(checker, testZone, nil, testScheduleConfig(), zap.NewNop())

	free, err := svc.ListFreeSlots(context.Background(), "pro-1", "2024-03-04", 10, "")
	require.NoError(t, err)
	assert.Len(t, free, 29)
}

func TestAvailabilityRejectsBadDate(t *testing.T) {
	checker := NewConflictChecker(&fakeLessonStore{}, &fakeBlockStore{}, testZone, zap.NewNop())
	svc := NewAvailabilityService(checker, testZone, nil, testScheduleConfig(), zap.NewNop())

	_, err := svc.ListFreeSlots(context.Background(), "pro-1", "04/03/2024", 60, "")
	require.Error(t, err)
}

func TestAvailabilityUsesCache(t *testing.T) {
	lessons := &fakeLessonStore{}
	checker := NewConflictChecker(lessons, &fakeBlockStore{}, testZone, zap.NewNop())
	cache := newFakeCache()
	svc := NewAvailabilityService(checker, testZone, cache, testScheduleConfig(), zap.NewNop())

	first, err := svc.ListFreeSlots(context.Background(), "pro-1", "2024-03-04", 60, "")
	require.NoError(t, err)
	queriesAfterFirst := lessons.calls

	second, err := svc.ListFreeSlots(context.Background(), "pro-1", "2024-03-04", 60, "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, queriesAfterFirst, lessons.calls, "second call should be served from cache")
}

func TestAvailabilityInvalidateDay(t *testing.T) {
	checker := NewConflictChecker(&fakeLessonStore{}, &fakeBlockStore{}, testZone, zap.NewNop())
	cache := newFakeCache()
	svc := NewAvailabilityService(checker, testZone, cache, testScheduleConfig(), zap.NewNop())

	svc.InvalidateDay(context.Background(), "pro-1", "2024-03-04")
	svc.InvalidateDay(context.Background(), "", "2024-03-04")

	require.Len(t, cache.patterns, 2)
	assert.Equal(t, "availability:pro-1:2024-03-04:*", cache.patterns[0])
	assert.Equal(t, "availability:*:2024-03-04:*", cache.patterns[1])
}
