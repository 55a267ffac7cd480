package models

import "time"

// Commission rule kinds.
const (
	CommissionPercent   = "percent"
	CommissionPerLesson = "per_lesson"
)

// CommissionRule sets how an instructor's commission is computed. One rule
// per professional.
type CommissionRule struct {
	ID             string    `db:"id" json:"id"`
	ProfessionalID string    `db:"professional_id" json:"professional_id"`
	Kind           string    `db:"kind" json:"kind"`
	Percent        float64   `db:"percent" json:"percent"`
	PerLessonValue float64   `db:"per_lesson_value" json:"per_lesson_value"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// LessonTotals aggregates completed lessons for a professional over a period.
type LessonTotals struct {
	ProfessionalID string  `db:"professional_id" json:"professional_id"`
	LessonCount    int     `db:"lesson_count" json:"lesson_count"`
	TotalValue     float64 `db:"total_value" json:"total_value"`
}

// CommissionLine is one professional's computed commission for a period.
type CommissionLine struct {
	ProfessionalID string  `json:"professional_id"`
	Kind           string  `json:"kind"`
	Percent        float64 `json:"percent"`
	LessonCount    int     `json:"lesson_count"`
	BaseValue      float64 `json:"base_value"`
	Value          float64 `json:"value"`
}
