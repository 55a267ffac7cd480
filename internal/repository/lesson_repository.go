package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nextlevel-sports/academy-api/internal/models"
)

const lessonColumns = "id, agenda_id, contract_id, student_id, professional_id, starts_at, ends_at, status, value, discounted, discount_value, discounted_at, created_at, updated_at"

// LessonRepository provides persistence for lessons.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository creates a new lesson repository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// FindByID loads a lesson by id.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	query := fmt.Sprintf("SELECT %s FROM lessons WHERE id = $1", lessonColumns)
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// FindOverlapping returns non-cancelled lessons of a professional whose
// interval overlaps [start, end) using the open-interval test, optionally
// excluding one lesson id.
func (r *LessonRepository) FindOverlapping(ctx context.Context, professionalID string, start, end time.Time, ignoreLessonID string) ([]models.Lesson, error) {
	conditions := []string{"professional_id = $1", "status <> $2", "starts_at < $3", "ends_at > $4"}
	args := []interface{}{professionalID, models.LessonCancelled, end, start}
	if ignoreLessonID != "" {
		conditions = append(conditions, fmt.Sprintf("id <> $%d", len(args)+1))
		args = append(args, ignoreLessonID)
	}

	query := fmt.Sprintf("SELECT %s FROM lessons WHERE %s ORDER BY starts_at ASC", lessonColumns, strings.Join(conditions, " AND "))
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, fmt.Errorf("find overlapping lessons: %w", err)
	}
	return lessons, nil
}

// ExistsByStudentStart reports whether the student already has a lesson
// starting at exactly the given instant. Used for idempotent materialization.
func (r *LessonRepository) ExistsByStudentStart(ctx context.Context, studentID string, start time.Time) (bool, error) {
	const query = `SELECT 1 FROM lessons WHERE student_id = $1 AND starts_at = $2 LIMIT 1`
	var one int
	err := r.db.GetContext(ctx, &one, query, studentID, start)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("check lesson existence: %w", err)
	}
	return true, nil
}

// ListByDate returns lessons on a UTC day window with display names,
// optionally filtered by professional.
func (r *LessonRepository) ListByDate(ctx context.Context, dayStart, dayEnd time.Time, professionalID string) ([]models.LessonView, error) {
	base := `SELECT l.id, l.agenda_id, l.contract_id, l.student_id, l.professional_id, l.starts_at, l.ends_at, l.status, l.value, l.discounted, l.discount_value, l.discounted_at, l.created_at, l.updated_at,
       pu.full_name AS professional_name, su.full_name AS student_name, un.name AS unit_name
  FROM lessons l
  JOIN professionals p ON p.id = l.professional_id
  JOIN users pu ON pu.id = p.user_id
  JOIN students s ON s.id = l.student_id
  JOIN users su ON su.id = s.user_id
  JOIN agendas a ON a.id = l.agenda_id
  JOIN units un ON un.id = a.unit_id
 WHERE l.starts_at >= $1 AND l.starts_at < $2`
	args := []interface{}{dayStart, dayEnd}
	if professionalID != "" {
		base += fmt.Sprintf(" AND l.professional_id = $%d", len(args)+1)
		args = append(args, professionalID)
	}
	base += " ORDER BY l.starts_at ASC"

	var lessons []models.LessonView
	if err := r.db.SelectContext(ctx, &lessons, base, args...); err != nil {
		return nil, fmt.Errorf("list lessons by date: %w", err)
	}
	return lessons, nil
}

// ListByStudent returns a student's most recent lessons.
func (r *LessonRepository) ListByStudent(ctx context.Context, studentID string, limit int) ([]models.Lesson, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf("SELECT %s FROM lessons WHERE student_id = $1 ORDER BY starts_at DESC LIMIT %d", lessonColumns, limit)
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, studentID); err != nil {
		return nil, fmt.Errorf("list lessons by student: %w", err)
	}
	return lessons, nil
}

// Create stores a new lesson record.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = now
	}
	lesson.UpdatedAt = now

	const query = `INSERT INTO lessons (id, agenda_id, contract_id, student_id, professional_id, starts_at, ends_at, status, value, discounted, discount_value, discounted_at, created_at, updated_at)
VALUES (:id, :agenda_id, :contract_id, :student_id, :professional_id, :starts_at, :ends_at, :status, :value, :discounted, :discount_value, :discounted_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// Reschedule atomically moves a lesson to a new day container, interval and
// professional, resetting its status to scheduled.
func (r *LessonRepository) Reschedule(ctx context.Context, id, agendaID, professionalID string, start, end time.Time) error {
	const query = `UPDATE lessons SET agenda_id = $2, professional_id = $3, starts_at = $4, ends_at = $5, status = $6, updated_at = $7 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, agendaID, professionalID, start, end, models.LessonScheduled, time.Now().UTC()); err != nil {
		return fmt.Errorf("reschedule lesson: %w", err)
	}
	return nil
}

// UpdateStatus transitions a lesson's status.
func (r *LessonRepository) UpdateStatus(ctx context.Context, id string, status models.LessonStatus) error {
	const query = `UPDATE lessons SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update lesson status: %w", err)
	}
	return nil
}

// MarkDiscounted records a lesson's single discount application.
func (r *LessonRepository) MarkDiscounted(ctx context.Context, id string, amount float64, at time.Time) error {
	const query = `UPDATE lessons SET discounted = TRUE, discount_value = $2, discounted_at = $3, updated_at = $3 WHERE id = $1 AND discounted = FALSE`
	res, err := r.db.ExecContext(ctx, query, id, amount, at)
	if err != nil {
		return fmt.Errorf("mark lesson discounted: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark lesson discounted: %w", err)
	}
	if affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// Delete removes a lesson by id.
func (r *LessonRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM lessons WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	return nil
}

// CountByContract counts every lesson ever generated under a contract.
func (r *LessonRepository) CountByContract(ctx context.Context, contractID string) (int, error) {
	const query = `SELECT COUNT(*) FROM lessons WHERE contract_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, contractID); err != nil {
		return 0, fmt.Errorf("count lessons by contract: %w", err)
	}
	return count, nil
}

// SumCompletedByProfessional aggregates completed lesson values per
// professional over the half-open interval [from, to).
func (r *LessonRepository) SumCompletedByProfessional(ctx context.Context, from, to time.Time) ([]models.LessonTotals, error) {
	const query = `SELECT professional_id, COUNT(*) AS lesson_count, COALESCE(SUM(value), 0) AS total_value
  FROM lessons
 WHERE status = $1 AND starts_at >= $2 AND starts_at < $3
 GROUP BY professional_id`
	var totals []models.LessonTotals
	if err := r.db.SelectContext(ctx, &totals, query, models.LessonCompleted, from, to); err != nil {
		return nil, fmt.Errorf("sum completed lessons: %w", err)
	}
	return totals, nil
}
