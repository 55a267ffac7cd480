package models

import "time"

// LessonStatus enumerates the lesson lifecycle states.
type LessonStatus string

const (
	LessonScheduled       LessonStatus = "scheduled"
	LessonCompleted       LessonStatus = "completed"
	LessonAbsenceNotified LessonStatus = "absence_notified"
	LessonAbsence         LessonStatus = "absence"
	LessonCancelled       LessonStatus = "cancelled"
)

// ValidLessonStatus reports whether s is an allowed lesson status.
func ValidLessonStatus(s LessonStatus) bool {
	switch s {
	case LessonScheduled, LessonCompleted, LessonAbsenceNotified, LessonAbsence, LessonCancelled:
		return true
	}
	return false
}

// Lesson is one concrete scheduled class occurrence. StartsAt/EndsAt are
// absolute UTC instants; display projection happens at the civil-time boundary.
type Lesson struct {
	ID             string       `db:"id" json:"id"`
	AgendaID       string       `db:"agenda_id" json:"agenda_id"`
	ContractID     *string      `db:"contract_id" json:"contract_id,omitempty"`
	StudentID      string       `db:"student_id" json:"student_id"`
	ProfessionalID string       `db:"professional_id" json:"professional_id"`
	StartsAt       time.Time    `db:"starts_at" json:"starts_at"`
	EndsAt         time.Time    `db:"ends_at" json:"ends_at"`
	Status         LessonStatus `db:"status" json:"status"`
	Value          float64      `db:"value" json:"value"`
	Discounted     bool         `db:"discounted" json:"discounted"`
	DiscountValue  *float64     `db:"discount_value" json:"discount_value,omitempty"`
	DiscountedAt   *time.Time   `db:"discounted_at" json:"discounted_at,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}

// LessonView is a lesson row joined with display names for agenda listings.
type LessonView struct {
	Lesson
	ProfessionalName string `db:"professional_name" json:"professional_name"`
	StudentName      string `db:"student_name" json:"student_name"`
	UnitName         string `db:"unit_name" json:"unit_name"`
}

// ConflictKind distinguishes what a candidate interval collided with.
type ConflictKind string

const (
	ConflictLesson ConflictKind = "lesson"
	ConflictBlock  ConflictKind = "block"
)

// Conflict describes why a candidate interval cannot be booked.
type Conflict struct {
	Kind   ConflictKind `json:"kind"`
	Reason string       `json:"reason"`
}
