package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nextlevel-sports/academy-api/internal/models"
	"github.com/nextlevel-sports/academy-api/internal/repository"
	appErrors "github.com/nextlevel-sports/academy-api/pkg/errors"
)

type mockLessonRepo struct {
	items         map[string]*models.Lesson
	countByContract map[string]int
	seq           int
}

func newMockLessonRepo() *mockLessonRepo {
	return &mockLessonRepo{items: map[string]*models.Lesson{}, countByContract: map[string]int{}}
}

func (m *mockLessonRepo) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	if lesson, ok := m.items[id]; ok {
		cp := *lesson
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLessonRepo) Create(ctx context.Context, lesson *models.Lesson) error {
	m.seq++
	if lesson.ID == "" {
		lesson.ID = fmt.Sprintf("lesson-%d", m.seq)
	}
	cp := *lesson
	m.items[lesson.ID] = &cp
	return nil
}

func (m *mockLessonRepo) Reschedule(ctx context.Context, id, agendaID, professionalID string, start, end time.Time) error {
	lesson, ok := m.items[id]
	if !ok {
		return repository.ErrNoRowsAffected
	}
	lesson.AgendaID = agendaID
	lesson.ProfessionalID = professionalID
	lesson.StartsAt = start
	lesson.EndsAt = end
	lesson.Status = models.LessonScheduled
	return nil
}

func (m *mockLessonRepo) UpdateStatus(ctx context.Context, id string, status models.LessonStatus) error {
	lesson, ok := m.items[id]
	if !ok {
		return repository.ErrNoRowsAffected
	}
	lesson.Status = status
	return nil
}

func (m *mockLessonRepo) MarkDiscounted(ctx context.Context, id string, amount float64, at time.Time) error {
	lesson, ok := m.items[id]
	if !ok || lesson.Discounted {
		return repository.ErrNoRowsAffected
	}
	lesson.Discounted = true
	lesson.DiscountValue = &amount
	lesson.DiscountedAt = &at
	return nil
}

func (m *mockLessonRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return repository.ErrNoRowsAffected
	}
	delete(m.items, id)
	return nil
}

func (m *mockLessonRepo) ListByDate(ctx context.Context, dayStart, dayEnd time.Time, professionalID string) ([]models.LessonView, error) {
	var out []models.LessonView
	for _, lesson := range m.items {
		if lesson.StartsAt.Before(dayStart) || !lesson.StartsAt.Before(dayEnd) {
			continue
		}
		if professionalID != "" && lesson.ProfessionalID != professionalID {
			continue
		}
		out = append(out, models.LessonView{Lesson: *lesson})
	}
	return out, nil
}

func (m *mockLessonRepo) CountByContract(ctx context.Context, contractID string) (int, error) {
	return m.countByContract[contractID], nil
}

type mockAgendaRepo struct {
	items map[string]*models.Agenda
}

func newMockAgendaRepo() *mockAgendaRepo {
	return &mockAgendaRepo{items: map[string]*models.Agenda{}}
}

func (m *mockAgendaRepo) FindOrCreate(ctx context.Context, unitID, date string) (*models.Agenda, error) {
	id := "agenda-" + unitID + "-" + date
	if agenda, ok := m.items[id]; ok {
		return agenda, nil
	}
	agenda := &models.Agenda{ID: id, UnitID: unitID}
	m.items[id] = agenda
	return agenda, nil
}

func (m *mockAgendaRepo) FindByID(ctx context.Context, id string) (*models.Agenda, error) {
	if agenda, ok := m.items[id]; ok {
		return agenda, nil
	}
	return nil, sql.ErrNoRows
}

type mockProfessionalRepo struct {
	items map[string]*models.Professional
}

func (m *mockProfessionalRepo) FindByID(ctx context.Context, id string) (*models.Professional, error) {
	if professional, ok := m.items[id]; ok {
		return professional, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProfessionalRepo) FindFirst(ctx context.Context) (*models.Professional, error) {
	ids := make([]string, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, sql.ErrNoRows
	}
	sort.Strings(ids)
	return m.items[ids[0]], nil
}

func (m *mockProfessionalRepo) Create(ctx context.Context, professional *models.Professional) error {
	if m.items == nil {
		m.items = map[string]*models.Professional{}
	}
	if professional.ID == "" {
		professional.ID = "pro-created"
	}
	m.items[professional.ID] = professional
	return nil
}

type mockUnitRepo struct {
	items map[string]*models.Unit
}

func (m *mockUnitRepo) FindByID(ctx context.Context, id string) (*models.Unit, error) {
	if unit, ok := m.items[id]; ok {
		return unit, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUnitRepo) FindFirst(ctx context.Context) (*models.Unit, error) {
	for _, unit := range m.items {
		return unit, nil
	}
	return nil, sql.ErrNoRows
}

type mockReceivableRepo struct {
	created []models.Receivable
	open    []models.Receivable
	updated map[string]float64
	paid    []string
}

func newMockReceivableRepo() *mockReceivableRepo {
	return &mockReceivableRepo{updated: map[string]float64{}}
}

func (m *mockReceivableRepo) Create(ctx context.Context, receivable *models.Receivable) error {
	if receivable.ID == "" {
		receivable.ID = fmt.Sprintf("rcv-%d", len(m.created)+1)
	}
	m.created = append(m.created, *receivable)
	return nil
}

func (m *mockReceivableRepo) ListOpenByStudent(ctx context.Context, studentID string) ([]models.Receivable, error) {
	var out []models.Receivable
	for _, receivable := range m.open {
		if receivable.StudentID == studentID {
			out = append(out, receivable)
		}
	}
	return out, nil
}

func (m *mockReceivableRepo) UpdateValue(ctx context.Context, id string, value float64) error {
	m.updated[id] = value
	for i := range m.open {
		if m.open[i].ID == id {
			m.open[i].Value = value
		}
	}
	return nil
}

type mockContractRepo struct {
	items map[string]*models.Contract
	slots map[string][]models.ContractSlot
}

func (m *mockContractRepo) FindByID(ctx context.Context, id string) (*models.Contract, error) {
	if contract, ok := m.items[id]; ok {
		cp := *contract
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type lessonServiceFixture struct {
	service       *LessonService
	lessons       *mockLessonRepo
	overlaps      *fakeLessonStore
	blocks        *fakeBlockStore
	agendas       *mockAgendaRepo
	professionals *mockProfessionalRepo
	units         *mockUnitRepo
	receivables   *mockReceivableRepo
	contracts     *mockContractRepo
}

func newLessonServiceFixture() *lessonServiceFixture {
	f := &lessonServiceFixture{
		lessons:  newMockLessonRepo(),
		overlaps: &fakeLessonStore{},
		blocks:   &fakeBlockStore{},
		agendas:  newMockAgendaRepo(),
		professionals: &mockProfessionalRepo{items: map[string]*models.Professional{
			"pro-1": {ID: "pro-1", FullName: "Ana Silva"},
		}},
		units: &mockUnitRepo{items: map[string]*models.Unit{
			"unit-1": {ID: "unit-1", Name: "South Court"},
		}},
		receivables: newMockReceivableRepo(),
		contracts:   &mockContractRepo{items: map[string]*models.Contract{}},
	}
	checker := NewConflictChecker(f.overlaps, f.blocks, testZone, zap.NewNop())
	f.service = NewLessonService(
		f.lessons, f.agendas, f.professionals, f.units, f.receivables, f.contracts,
		checker, nil, testZone, testScheduleConfig(), validator.New(), zap.NewNop(),
	)
	return f
}

func TestLessonServiceCreate(t *testing.T) {
	f := newLessonServiceFixture()

	lesson, err := f.service.Create(context.Background(), CreateLessonRequest{
		StudentID:      "stu-1",
		ProfessionalID: "pro-1",
		UnitID:         "unit-1",
		Date:           "2024-03-04",
		Time:           "09:00",
		Value:          120,
	})
	require.NoError(t, err)
	assert.Equal(t, models.LessonScheduled, lesson.Status)
	assert.Equal(t, mustAbsolute(t, "2024-03-04", "09:00"), lesson.StartsAt)
	assert.Equal(t, mustAbsolute(t, "2024-03-04", "10:00"), lesson.EndsAt)

	require.Len(t, f.receivables.created, 1)
	assert.Equal(t, 120.0, f.receivables.created[0].Value)
	assert.Equal(t, "stu-1", f.receivables.created[0].StudentID)
}

func TestLessonServiceCreateFreeLessonSkipsReceivable(t *testing.T) {
	f := newLessonServiceFixture()

	_, err := f.service.Create(context.Background(), CreateLessonRequest{
		StudentID: "stu-1",
		Date:      "2024-03-04",
		Time:      "09:00",
	})
	require.NoError(t, err)
	assert.Empty(t, f.receivables.created)
}

func TestLessonServiceCreateConflict(t *testing.T) {
	f := newLessonServiceFixture()
	f.overlaps.lessons = []models.Lesson{lessonAt(t, "busy", "pro-1", "2024-03-04", "09:00", "10:00")}

	_, err := f.service.Create(context.Background(), CreateLessonRequest{
		StudentID:      "stu-1",
		ProfessionalID: "pro-1",
		Date:           "2024-03-04",
		Time:           "09:30",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestLessonServiceCreateUnknownProfessional(t *testing.T) {
	f := newLessonServiceFixture()

	_, err := f.service.Create(context.Background(), CreateLessonRequest{
		StudentID:      "stu-1",
		ProfessionalID: "missing",
		Date:           "2024-03-04",
		Time:           "09:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLessonServiceRescheduleKeepsDuration(t *testing.T) {
	f := newLessonServiceFixture()
	agenda, _ := f.agendas.FindOrCreate(context.Background(), "unit-1", "2024-03-04")
	f.lessons.items["l1"] = &models.Lesson{
		ID:             "l1",
		AgendaID:       agenda.ID,
		ProfessionalID: "pro-1",
		StudentID:      "stu-1",
		StartsAt:       mustAbsolute(t, "2024-03-04", "09:00"),
		EndsAt:         mustAbsolute(t, "2024-03-04", "10:30"),
		Status:         models.LessonAbsence,
	}

	lesson, err := f.service.Reschedule(context.Background(), "l1", RescheduleLessonRequest{
		Date: "2024-03-06",
		Time: "14:00",
	})
	require.NoError(t, err)
	assert.Equal(t, mustAbsolute(t, "2024-03-06", "14:00"), lesson.StartsAt)
	assert.Equal(t, mustAbsolute(t, "2024-03-06", "15:30"), lesson.EndsAt)
	assert.Equal(t, models.LessonScheduled, lesson.Status)
}

func TestLessonServiceRescheduleCompletedIsImmutable(t *testing.T) {
	f := newLessonServiceFixture()
	f.lessons.items["l1"] = &models.Lesson{
		ID:       "l1",
		StartsAt: mustAbsolute(t, "2024-03-04", "09:00"),
		EndsAt:   mustAbsolute(t, "2024-03-04", "10:00"),
		Status:   models.LessonCompleted,
	}

	_, err := f.service.Reschedule(context.Background(), "l1", RescheduleLessonRequest{
		Date: "2024-03-06",
		Time: "14:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrImmutable.Code, appErrors.FromError(err).Code)
}

func TestLessonServiceDeleteCompletedIsImmutable(t *testing.T) {
	f := newLessonServiceFixture()
	f.lessons.items["l1"] = &models.Lesson{ID: "l1", Status: models.LessonCompleted}

	err := f.service.Delete(context.Background(), "l1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrImmutable.Code, appErrors.FromError(err).Code)
	assert.Contains(t, f.lessons.items, "l1")
}

func TestLessonServiceUpdateStatus(t *testing.T) {
	f := newLessonServiceFixture()
	f.lessons.items["l1"] = &models.Lesson{ID: "l1", Status: models.LessonScheduled}

	lesson, err := f.service.UpdateStatus(context.Background(), "l1", models.LessonCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.LessonCompleted, lesson.Status)

	_, err = f.service.UpdateStatus(context.Background(), "l1", "postponed")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidStatus.Code, appErrors.FromError(err).Code)
}

func TestLessonServiceDiscountAbsorbsOldestFirst(t *testing.T) {
	f := newLessonServiceFixture()
	f.lessons.items["l1"] = &models.Lesson{ID: "l1", StudentID: "stu-1", Value: 100, Status: models.LessonAbsence}
	f.receivables.open = []models.Receivable{
		{ID: "rcv-old", StudentID: "stu-1", Value: 60},
		{ID: "rcv-new", StudentID: "stu-1", Value: 70},
	}

	result, err := f.service.Discount(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.Amount)
	assert.Equal(t, 100.0, result.Absorbed)
	assert.Equal(t, 0.0, result.Leftover)
	assert.Equal(t, 0.0, f.receivables.updated["rcv-old"])
	assert.Equal(t, 30.0, f.receivables.updated["rcv-new"])
}

func TestLessonServiceDiscountReportsLeftover(t *testing.T) {
	f := newLessonServiceFixture()
	f.lessons.items["l1"] = &models.Lesson{ID: "l1", StudentID: "stu-1", Value: 100, Status: models.LessonAbsence}
	f.receivables.open = []models.Receivable{
		{ID: "rcv-1", StudentID: "stu-1", Value: 40},
	}

	result, err := f.service.Discount(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, 40.0, result.Absorbed)
	assert.Equal(t, 60.0, result.Leftover)
}

func TestLessonServiceDiscountIsSingleUse(t *testing.T) {
	f := newLessonServiceFixture()
	f.lessons.items["l1"] = &models.Lesson{ID: "l1", StudentID: "stu-1", Value: 100, Status: models.LessonAbsence}
	f.receivables.open = []models.Receivable{{ID: "rcv-1", StudentID: "stu-1", Value: 200}}

	_, err := f.service.Discount(context.Background(), "l1")
	require.NoError(t, err)

	_, err = f.service.Discount(context.Background(), "l1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyDiscounted.Code, appErrors.FromError(err).Code)
}

func TestLessonServiceDiscountCancelledRejected(t *testing.T) {
	f := newLessonServiceFixture()
	f.lessons.items["l1"] = &models.Lesson{ID: "l1", StudentID: "stu-1", Value: 100, Status: models.LessonCancelled}

	_, err := f.service.Discount(context.Background(), "l1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLessonServiceDiscountContractShare(t *testing.T) {
	f := newLessonServiceFixture()
	contractID := "con-1"
	f.contracts.items[contractID] = &models.Contract{ID: contractID, Value: 300}
	f.lessons.countByContract[contractID] = 12
	f.lessons.items["l1"] = &models.Lesson{ID: "l1", StudentID: "stu-1", ContractID: &contractID, Status: models.LessonAbsence}
	f.receivables.open = []models.Receivable{{ID: "rcv-1", StudentID: "stu-1", Value: 300}}

	result, err := f.service.Discount(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, 25.0, result.Amount)
	assert.Equal(t, 275.0, f.receivables.updated["rcv-1"])
}

func TestLessonServiceDiscountZeroValueRejected(t *testing.T) {
	f := newLessonServiceFixture()
	f.lessons.items["l1"] = &models.Lesson{ID: "l1", StudentID: "stu-1", Value: 0, Status: models.LessonAbsence}

	_, err := f.service.Discount(context.Background(), "l1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidAmount.Code, appErrors.FromError(err).Code)
}
