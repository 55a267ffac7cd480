package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nextlevel-sports/academy-api/internal/models"
	"github.com/nextlevel-sports/academy-api/internal/repository"
	"github.com/nextlevel-sports/academy-api/pkg/civiltime"
	appErrors "github.com/nextlevel-sports/academy-api/pkg/errors"
)

type mockContractStore struct {
	items map[string]*models.Contract
	slots map[string][]models.ContractSlot
	seq   int
}

func newMockContractStore() *mockContractStore {
	return &mockContractStore{items: map[string]*models.Contract{}, slots: map[string][]models.ContractSlot{}}
}

func (m *mockContractStore) FindByID(ctx context.Context, id string) (*models.Contract, error) {
	if contract, ok := m.items[id]; ok {
		cp := *contract
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockContractStore) ListByStudent(ctx context.Context, studentID string) ([]models.Contract, error) {
	var out []models.Contract
	for _, contract := range m.items {
		if contract.StudentID == studentID {
			out = append(out, *contract)
		}
	}
	return out, nil
}

func (m *mockContractStore) GetSlots(ctx context.Context, contractID string) ([]models.ContractSlot, error) {
	return m.slots[contractID], nil
}

func (m *mockContractStore) Create(ctx context.Context, contract *models.Contract, slots []models.ContractSlot) error {
	m.seq++
	if contract.ID == "" {
		contract.ID = fmt.Sprintf("contract-%d", m.seq)
	}
	cp := *contract
	m.items[contract.ID] = &cp
	m.slots[contract.ID] = slots
	return nil
}

func (m *mockContractStore) Update(ctx context.Context, contract *models.Contract, slots []models.ContractSlot) error {
	if _, ok := m.items[contract.ID]; !ok {
		return repository.ErrNoRowsAffected
	}
	cp := *contract
	m.items[contract.ID] = &cp
	m.slots[contract.ID] = slots
	return nil
}

func (m *mockContractStore) Delete(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return repository.ErrNoRowsAffected
	}
	delete(m.items, id)
	delete(m.slots, id)
	return nil
}

type materializeLessonMock struct {
	created []models.Lesson
	overlap *fakeLessonStore
}

func (m *materializeLessonMock) Create(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = "generated"
	}
	m.created = append(m.created, *lesson)
	// Newly created lessons become visible to the conflict checker, which is
	// what makes repeated runs idempotent via the exists check below.
	m.overlap.lessons = append(m.overlap.lessons, *lesson)
	return nil
}

func (m *materializeLessonMock) ExistsByStudentStart(ctx context.Context, studentID string, start time.Time) (bool, error) {
	for _, lesson := range m.created {
		if lesson.StudentID == studentID && lesson.StartsAt.Equal(start) {
			return true, nil
		}
	}
	return false, nil
}

type studentReaderMock struct {
	items map[string]*models.Student
}

func (m *studentReaderMock) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if student, ok := m.items[id]; ok {
		return student, nil
	}
	return nil, sql.ErrNoRows
}

type contractServiceFixture struct {
	service     *ContractService
	contracts   *mockContractStore
	lessons     *materializeLessonMock
	overlaps    *fakeLessonStore
	blocks      *fakeBlockStore
	receivables *mockReceivableRepo
}

func newContractServiceFixture() *contractServiceFixture {
	overlaps := &fakeLessonStore{}
	f := &contractServiceFixture{
		contracts:   newMockContractStore(),
		lessons:     &materializeLessonMock{overlap: overlaps},
		overlaps:    overlaps,
		blocks:      &fakeBlockStore{},
		receivables: newMockReceivableRepo(),
	}
	professionals := &mockProfessionalRepo{items: map[string]*models.Professional{
		"pro-1": {ID: "pro-1", FullName: "Ana Silva"},
	}}
	units := &mockUnitRepo{items: map[string]*models.Unit{
		"unit-1": {ID: "unit-1", Name: "South Court"},
	}}
	students := &studentReaderMock{items: map[string]*models.Student{
		"stu-1": {ID: "stu-1", FullName: "Bruno Costa"},
	}}
	checker := NewConflictChecker(f.overlaps, f.blocks, testZone, zap.NewNop())
	f.service = NewContractService(
		f.contracts, f.lessons, f.receivables, newMockAgendaRepo(), students, professionals, units,
		checker, nil, testZone, testScheduleConfig(), validator.New(), zap.NewNop(),
	)
	return f
}

func TestContractServiceCreate(t *testing.T) {
	f := newContractServiceFixture()

	contract, err := f.service.Create(context.Background(), ContractRequest{
		StudentID:        "stu-1",
		ProfessionalID:   "pro-1",
		PlanName:         "Twice a week",
		Cadence:          "quarterly",
		Value:            480,
		MaxWeeklyLessons: 2,
		StartDate:        "2024-03-04",
		WeeklySchedule: []WeeklySlotInput{
			{Weekday: "mon", Time: "09:00"},
			{Weekday: "wed", Time: "10:00"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-04", contract.EndDate.Format(civiltime.DateLayout))
	require.Len(t, f.contracts.slots[contract.ID], 2)

	// One open installment per covered month.
	require.Len(t, f.receivables.created, 3)
	assert.Equal(t, "2024-03-04", f.receivables.created[0].DueDate.Format(civiltime.DateLayout))
	assert.Equal(t, "2024-04-04", f.receivables.created[1].DueDate.Format(civiltime.DateLayout))
	assert.Equal(t, "2024-05-04", f.receivables.created[2].DueDate.Format(civiltime.DateLayout))
	assert.Equal(t, 480.0, f.receivables.created[0].Value)
}

func TestContractServiceCreateClampsEndDate(t *testing.T) {
	f := newContractServiceFixture()

	contract, err := f.service.Create(context.Background(), ContractRequest{
		StudentID: "stu-1",
		PlanName:  "Monthly",
		Cadence:   "monthly",
		Value:     200,
		StartDate: "2024-01-31",
		WeeklySchedule: []WeeklySlotInput{
			{Weekday: "mon", Time: "09:00"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", contract.EndDate.Format(civiltime.DateLayout))
}

func TestContractServiceCreateDuplicateWeekday(t *testing.T) {
	f := newContractServiceFixture()

	_, err := f.service.Create(context.Background(), ContractRequest{
		StudentID: "stu-1",
		PlanName:  "Broken",
		Cadence:   "monthly",
		StartDate: "2024-03-04",
		WeeklySchedule: []WeeklySlotInput{
			{Weekday: "mon", Time: "09:00"},
			{Weekday: "monday", Time: "10:00"},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidSchedule.Code, appErrors.FromError(err).Code)
}

func TestContractServiceCreateTooManySlots(t *testing.T) {
	f := newContractServiceFixture()

	_, err := f.service.Create(context.Background(), ContractRequest{
		StudentID:        "stu-1",
		PlanName:         "Overbooked",
		Cadence:          "monthly",
		MaxWeeklyLessons: 1,
		StartDate:        "2024-03-04",
		WeeklySchedule: []WeeklySlotInput{
			{Weekday: "mon", Time: "09:00"},
			{Weekday: "wed", Time: "10:00"},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTooManyWeeklySlots.Code, appErrors.FromError(err).Code)
}

func seedContract(f *contractServiceFixture, slots []models.ContractSlot) *models.Contract {
	start, _ := testZone.ParseDate("2024-03-04")
	contract := &models.Contract{
		ID:        "con-1",
		StudentID: "stu-1",
		PlanName:  "Weekly",
		Cadence:   models.CadenceMonthly,
		Value:     400,
		StartDate: start,
		EndDate:   addMonthsClamped(start, 1),
		Status:    "active",
	}
	f.contracts.items[contract.ID] = contract
	f.contracts.slots[contract.ID] = slots
	return contract
}

func TestContractServiceMaterialize(t *testing.T) {
	f := newContractServiceFixture()
	seedContract(f, []models.ContractSlot{{Weekday: time.Monday, Clock: "09:00"}})

	result, err := f.service.Materialize(context.Background(), "con-1", MaterializeRequest{})
	require.NoError(t, err)

	// Mondays between 2024-03-04 and 2024-04-04 inclusive.
	assert.Equal(t, 5, result.Created)
	assert.Empty(t, result.Conflicts)
	require.Len(t, f.lessons.created, 5)
	first := f.lessons.created[0]
	assert.Equal(t, mustAbsolute(t, "2024-03-04", "09:00"), first.StartsAt)
	assert.Equal(t, mustAbsolute(t, "2024-03-04", "10:00"), first.EndsAt)
	assert.Equal(t, 400.0, first.Value)
	require.NotNil(t, first.ContractID)
	assert.Equal(t, "con-1", *first.ContractID)
}

func TestContractServiceMaterializeIsIdempotent(t *testing.T) {
	f := newContractServiceFixture()
	seedContract(f, []models.ContractSlot{{Weekday: time.Monday, Clock: "09:00"}})

	first, err := f.service.Materialize(context.Background(), "con-1", MaterializeRequest{})
	require.NoError(t, err)
	require.Equal(t, 5, first.Created)

	second, err := f.service.Materialize(context.Background(), "con-1", MaterializeRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Empty(t, second.Conflicts)
}

func TestContractServiceMaterializeReportsConflicts(t *testing.T) {
	f := newContractServiceFixture()
	seedContract(f, []models.ContractSlot{{Weekday: time.Monday, Clock: "09:00"}})
	f.overlaps.lessons = []models.Lesson{
		lessonAt(t, "busy", "pro-1", "2024-03-11", "09:00", "10:00"),
	}

	result, err := f.service.Materialize(context.Background(), "con-1", MaterializeRequest{})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Created)
	require.Len(t, result.Conflicts, 1)
	assert.Contains(t, result.Conflicts[0], "2024-03-11 09:00")
}

func TestContractServiceMaterializeEmptySchedule(t *testing.T) {
	f := newContractServiceFixture()
	seedContract(f, nil)

	_, err := f.service.Materialize(context.Background(), "con-1", MaterializeRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidSchedule.Code, appErrors.FromError(err).Code)
}

func TestContractServiceDeleteMissing(t *testing.T) {
	f := newContractServiceFixture()

	err := f.service.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
