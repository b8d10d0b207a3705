package models

import "time"

// Week payment statuses.
const (
	WeekPaymentStatusPending = "pending"
	WeekPaymentStatusPaid    = "paid"
)

// EmployeeWeekPayment is the platform -> employee settlement record, one per
// (employee, ISO week). Independent of invoicing, which runs cafe -> platform.
type EmployeeWeekPayment struct {
	ID              int64      `json:"id" db:"id"`
	EmployeeID      int64      `json:"employee_id" db:"employee_id"`
	WeekStart       string     `json:"week_start" db:"week_start"` // Monday, "YYYY-MM-DD", no time-of-day drift
	Amount          float64    `json:"amount" db:"amount"`
	ShiftIDs        []int64    `json:"shift_ids" db:"shift_ids"` // contributing completed shifts, for audit
	Status          string     `json:"status" db:"status"`
	PaymentProofRef *string    `json:"payment_proof_ref,omitempty" db:"payment_proof_ref"`
	PaidAt          *time.Time `json:"paid_at,omitempty" db:"paid_at"`
	PaidBy          *int64     `json:"paid_by,omitempty" db:"paid_by"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

/// WeeklyEarnings is a read-model row of the admin reconciliation view: what
// one employee earned across completed shifts in one ISO week, annotated with
// the settlement status of any existing EmployeeWeekPayment.
type WeeklyEarnings struct {
	EmployeeID int64   `json:"employee_id"`
	WeekStart  string  `json:"week_start"`
	Amount     float64 `json:"amount"`
	ShiftIDs   []int64 `json:"shift_ids"`
	Status     string  `json:"status"` // pending or paid
}
