package models

import "time"

// Receivable statuses.
const (
	ReceivableOpen = "open"
	ReceivablePaid = "paid"
)

// Receivable is an amount owed by a student with a due date.
type Receivable struct {
	ID         string     `db:"id" json:"id"`
	ContractID *string    `db:"contract_id" json:"contract_id,omitempty"`
	StudentID  string     `db:"student_id" json:"student_id"`
	DueDate    time.Time  `db:"due_date" json:"due_date"`
	Value      float64    `db:"value" json:"value"`
	Status     string     `db:"status" json:"status"`
	PaidAt     *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// ReceivableFilter captures listing criteria for receivables.
type ReceivableFilter struct {
	StudentID  string
	ContractID string
	Status     string
}
