package models

import "time"

// Application statuses. An application is terminal once accepted, rejected
// or withdrawn.
const (
	ApplicationStatusPending   = "pending"
	ApplicationStatusAccepted  = "accepted"
	ApplicationStatusRejected  = "rejected"
	ApplicationStatusWithdrawn = "withdrawn"
)

// Application is a formal claim on a shift, the review-based alternative to
// the first-come-first-serve direct accept. Unique per (shift, employee).
type Application struct {
	ID              int64      `json:"id" db:"id"`
	ShiftID         int64      `json:"shift_id" db:"shift_id"`
	EmployeeID      int64      `json:"employee_id" db:"employee_id"`
	Status          string     `json:"status" db:"status"`
	ReviewedBy      *int64     `json:"reviewed_by,omitempty" db:"reviewed_by"`
	RejectionReason *string    `json:"rejection_reason,omitempty" db:"rejection_reason"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// ApplicationFilters narrows application listings.
type ApplicationFilters struct {
	ShiftID    *int64
	EmployeeID *int64
	Status     *string
}
