package models

import (
	"strings"
	"time"
)

// ContractCadence is the billing/renewal cadence of a contract.
type ContractCadence string

const (
	CadenceMonthly    ContractCadence = "monthly"
	CadenceQuarterly  ContractCadence = "quarterly"
	CadenceSemiannual ContractCadence = "semiannual"
	CadenceAnnual     ContractCadence = "annual"
)

// CadenceMonths maps each cadence to the number of covered months.
var CadenceMonths = map[ContractCadence]int{
	CadenceMonthly:    1,
	CadenceQuarterly:  3,
	CadenceSemiannual: 6,
	CadenceAnnual:     12,
}

// Contract is a student's recurring service agreement. It owns the weekly
// recurrence policy that generates lessons and receivables.
type Contract struct {
	ID               string          `db:"id" json:"id"`
	StudentID        string          `db:"student_id" json:"student_id"`
	ProfessionalID   *string         `db:"professional_id" json:"professional_id,omitempty"`
	PlanName         string          `db:"plan_name" json:"plan_name"`
	Cadence          ContractCadence `db:"cadence" json:"cadence"`
	Value            float64         `db:"value" json:"value"`
	MaxWeeklyLessons int             `db:"max_weekly_lessons" json:"max_weekly_lessons"`
	StartDate        time.Time       `db:"start_date" json:"start_date"`
	EndDate          time.Time       `db:"end_date" json:"end_date"`
	Status           string          `db:"status" json:"status"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// ContractSlot is one (weekday, local time) entry of a contract's weekly
// schedule. At most one slot per weekday.
type ContractSlot struct {
	ID         string       `db:"id" json:"id"`
	ContractID string       `db:"contract_id" json:"contract_id"`
	Weekday    time.Weekday `db:"weekday" json:"weekday"`
	Clock      string       `db:"clock" json:"clock"`
}

var weekdayLabels = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseWeekday resolves a three-letter weekday label ("mon".."sun",
// case-insensitive, longer names accepted by prefix).
func ParseWeekday(label string) (time.Weekday, bool) {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if len(normalized) > 3 {
		normalized = normalized[:3]
	}
	wd, ok := weekdayLabels[normalized]
	return wd, ok
}
