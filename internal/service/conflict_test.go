package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nextlevel-sports/academy-api/internal/models"
	"github.com/nextlevel-sports/academy-api/pkg/civiltime"
)

var testZone = civiltime.MustLoadZone("America/Sao_Paulo")

type fakeLessonStore struct {
	lessons []models.Lesson
	calls   int
}

func (f *fakeLessonStore) FindOverlapping(ctx context.Context, professionalID string, start, end time.Time, ignoreLessonID string) ([]models.Lesson, error) {
	f.calls++
	var out []models.Lesson
	for _, lesson := range f.lessons {
		if lesson.ID == ignoreLessonID || lesson.ProfessionalID != professionalID || lesson.Status == models.LessonCancelled {
			continue
		}
		if lesson.StartsAt.Before(end) && lesson.EndsAt.After(start) {
			out = append(out, lesson)
		}
	}
	return out, nil
}

type fakeBlockStore struct {
	blocks map[string][]models.TimeBlock // keyed by date
}

func (f *fakeBlockStore) ListActiveByDate(ctx context.Context, date string, professionalID, unitID string) ([]models.TimeBlock, error) {
	return f.blocks[date], nil
}

func mustAbsolute(t *testing.T, date, clock string) time.Time {
	t.Helper()
	instant, err := testZone.ToAbsolute(date, clock)
	require.NoError(t, err)
	return instant
}

func lessonAt(t *testing.T, id, professionalID, date, startClock, endClock string) models.Lesson {
	t.Helper()
	return models.Lesson{
		ID:             id,
		ProfessionalID: professionalID,
		StartsAt:       mustAbsolute(t, date, startClock),
		EndsAt:         mustAbsolute(t, date, endClock),
		Status:         models.LessonScheduled,
	}
}

func TestConflictCheckerFreeSlot(t *testing.T) {
	checker := NewConflictChecker(&fakeLessonStore{}, &fakeBlockStore{}, testZone, zap.NewNop())

	conflict, err := checker.Check(context.Background(),
		"pro-1", mustAbsolute(t, "2024-03-04", "09:00"), mustAbsolute(t, "2024-03-04", "10:00"), "", "")
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestConflictCheckerLessonOverlap(t *testing.T) {
	lessons := &fakeLessonStore{lessons: []models.Lesson{
		lessonAt(t, "l1", "pro-1", "2024-03-04", "09:00", "10:00"),
	}}
	checker := NewConflictChecker(lessons, &fakeBlockStore{}, testZone, zap.NewNop())

	conflict, err := checker.Check(context.Background(),
		"pro-1", mustAbsolute(t, "2024-03-04", "09:30"), mustAbsolute(t, "2024-03-04", "10:30"), "", "")
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, models.ConflictLesson, conflict.Kind)
}

func TestConflictCheckerBackToBackAllowed(t *testing.T) {
	lessons := &fakeLessonStore{lessons: []models.Lesson{
		lessonAt(t, "l1", "pro-1", "2024-03-04", "09:00", "10:00"),
	}}
	checker := NewConflictChecker(lessons, &fakeBlockStore{}, testZone, zap.NewNop())

	// Ends exactly where the existing lesson starts.
	conflict, err := checker.Check(context.Background(),
		"pro-1", mustAbsolute(t, "2024-03-04", "08:00"), mustAbsolute(t, "2024-03-04", "09:00"), "", "")
	require.NoError(t, err)
	assert.Nil(t, conflict)

	// Starts exactly where the existing lesson ends.
	conflict, err = checker.Check(context.Background(),
		"pro-1", mustAbsolute(t, "2024-03-04", "10:00"), mustAbsolute(t, "2024-03-04", "11:00"), "", "")
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestConflictCheckerIgnoresOtherProfessionalsAndCancelled(t *testing.T) {
	cancelled := lessonAt(t, "l2", "pro-1", "2024-03-04", "09:00", "10:00")
	cancelled.Status = models.LessonCancelled
	lessons := &fakeLessonStore{lessons: []models.Lesson{
		lessonAt(t, "l1", "pro-2", "2024-03-04", "09:00", "10:00"),
		cancelled,
	}}
	checker := NewConflictChecker(lessons, &fakeBlockStore{}, testZone, zap.NewNop())

	conflict, err := checker.Check(context.Background(),
		"pro-1", mustAbsolute(t, "2024-03-04", "09:00"), mustAbsolute(t, "2024-03-04", "10:00"), "", "")
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestConflictCheckerRescheduleIgnoresOwnLesson(t *testing.T) {
	lessons := &fakeLessonStore{lessons: []models.Lesson{
		lessonAt(t, "l1", "pro-1", "2024-03-04", "09:00", "10:00"),
	}}
	checker := NewConflictChecker(lessons, &fakeBlockStore{}, testZone, zap.NewNop())

	conflict, err := checker.Check(context.Background(),
		"pro-1", mustAbsolute(t, "2024-03-04", "09:00"), mustAbsolute(t, "2024-03-04", "10:00"), "", "l1")
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestConflictCheckerBlockOverlap(t *testing.T) {
	blocks := &fakeBlockStore{blocks: map[string][]models.TimeBlock{
		"2024-03-04": {{ID: "b1", StartClock: "12:00", EndClock: "13:00", Status: models.TimeBlockActive}},
	}}
	checker := NewConflictChecker(&fakeLessonStore{}, blocks, testZone, zap.NewNop())

	conflict, err := checker.Check(context.Background(),
		"pro-1", mustAbsolute(t, "2024-03-04", "12:30"), mustAbsolute(t, "2024-03-04", "13:30"), "", "")
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, models.ConflictBlock, conflict.Kind)
	assert.Contains(t, conflict.Reason, "12:00-13:00")

	// Back-to-back with the block is allowed.
	conflict, err = checker.Check(context.Background(),
		"pro-1", mustAbsolute(t, "2024-03-04", "13:00"), mustAbsolute(t, "2024-03-04", "14:00"), "", "")
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestConflictCheckerSkipsMalformedBlock(t *testing.T) {
	blocks := &fakeBlockStore{blocks: map[string][]models.TimeBlock{
		"2024-03-04": {
			{ID: "bad", StartClock: "25:99", EndClock: "13:00"},
			{ID: "good", StartClock: "12:00", EndClock: "13:00"},
		},
	}}
	checker := NewConflictChecker(&fakeLessonStore{}, blocks, testZone, zap.NewNop())

	conflict, err := checker.Check(context.Background(),
		"pro-1", mustAbsolute(t, "2024-03-04", "12:00"), mustAbsolute(t, "2024-03-04", "12:30"), "", "")
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, models.ConflictBlock, conflict.Kind)
	assert.Contains(t, conflict.Reason, "12:00-13:00")
}

func TestEnumerateSlots(t *testing.T) {
	slots := EnumerateSlots(7, 21)
	require.Len(t, slots, 29)
	assert.Equal(t, "07:00", slots[0])
	assert.Equal(t, "07:30", slots[1])
	assert.Equal(t, "20:30", slots[27])
	assert.Equal(t, "21:00", slots[28])
	assert.NotContains(t, slots, "21:30")
}
