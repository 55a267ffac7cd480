package models

import "time"

// Agenda is the calendar day container keyed by (unit, date). Lessons attach
// to it; rows are auto-created on first use.
type Agenda struct {
	ID        string    `db:"id" json:"id"`
	UnitID    string    `db:"unit_id" json:"unit_id"`
	Date      time.Time `db:"date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
