package models

import "time"

// TimeBlockActive marks a block that still applies to the calendar.
const TimeBlockActive = "active"

// TimeBlock is a standing unavailability window on a specific calendar date,
// expressed as local wall-clock bounds. A nil professional applies to every
// professional; a nil unit applies to every unit.
type TimeBlock struct {
	ID             string    `db:"id" json:"id"`
	ProfessionalID *string   `db:"professional_id" json:"professional_id,omitempty"`
	UnitID         *string   `db:"unit_id" json:"unit_id,omitempty"`
	Date           time.Time `db:"date" json:"-"`
	StartClock     string    `db:"start_clock" json:"start_clock"`
	EndClock       string    `db:"end_clock" json:"end_clock"`
	Reason         *string   `db:"reason" json:"reason,omitempty"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// TimeBlockView is a block joined with display names.
type TimeBlockView struct {
	TimeBlock
	ProfessionalName string `db:"professional_name" json:"professional_name"`
	UnitName         string `db:"unit_name" json:"unit_name"`
}
