package models

import "time"

// Invoice statuses. Upfront deployments create invoices directly as paid;
// postpaid deployments walk draft -> approved -> pending_verification -> paid.
const (
	InvoiceStatusDraft               = "draft"
	InvoiceStatusApproved            = "approved"
	InvoiceStatusPendingVerification = "pending_verification"
	InvoiceStatusPaid                = "paid"
)

// Invoice is the cafe-facing billing document for a completed shift, at most
// one per shift. Shift details are snapshotted at generation time so later
// edits to platform config never change an issued invoice.
type Invoice struct {
	ID              int64      `json:"id" db:"id"`
	CafeID          int64      `json:"cafe_id" db:"cafe_id"`
	ShiftID         int64      `json:"shift_id" db:"shift_id"`
	Number          string     `json:"number" db:"number"`
	ShiftDate       string     `json:"shift_date" db:"shift_date"` // snapshot, "YYYY-MM-DD"
	StartTime       string     `json:"start_time" db:"start_time"` // snapshot, "HH:MM"
	EndTime         string     `json:"end_time" db:"end_time"`     // snapshot, "HH:MM"
	Hours           float64    `json:"hours" db:"hours"`
	Headcount       int        `json:"headcount" db:"headcount"`
	BaseAmount      float64    `json:"base_amount" db:"base_amount"`
	PlatformFee     float64    `json:"platform_fee" db:"platform_fee"`
	PenaltyAmount   float64    `json:"penalty_amount" db:"penalty_amount"`
	Total           float64    `json:"total" db:"total"` // base + fee + penalty
	Status          string     `json:"status" db:"status"`
	PaidAt          *time.Time `json:"paid_at,omitempty" db:"paid_at"`
	PaymentProofRef *string    `json:"payment_proof_ref,omitempty" db:"payment_proof_ref"`
	RejectionReason *string    `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// InvoiceFilters narrows invoice listings.
type InvoiceFilters struct {
	CafeID   *int64
	ShiftID  *int64
	Status   *string
	Page     int
	PageSize int
}
