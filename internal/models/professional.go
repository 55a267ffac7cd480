package models

import "time"

// Professional is a schedulable instructor. Every non-student user gets a
// professional row at creation time so lessons and blocks can reference it.
type Professional struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	HourlyRate float64   `db:"hourly_rate" json:"hourly_rate"`
	FullName   string    `db:"full_name" json:"full_name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Unit is a physical location lessons take place at.
type Unit struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	PostalCode *string   `db:"postal_code" json:"postal_code,omitempty"`
	Address    *string   `db:"address" json:"address,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
