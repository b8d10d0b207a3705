package models

import "time"

// Shift statuses. The status field only moves along the transitions enforced
// by services.ShiftService; paused and cancelled are terminal for staffing.
const (
	ShiftStatusPendingApproval = "pending_approval"
	ShiftStatusOpen            = "open"
	ShiftStatusAccepted        = "accepted"
	ShiftStatusCompleted       = "completed"
	ShiftStatusCancelled       = "cancelled"
	ShiftStatusPaused          = "paused"
)

// Shift visibility modes.
const (
	VisibilityAll     = "all"     // any approved employee may claim
	VisibilityInvited = "invited" // only employees on the allow-list may claim
)

// Shift is the central marketplace entity: an hourly slot a cafe wants
// staffed. Times are local, zero-padded 24-hour "HH:MM" strings on a single
// calendar day; shifts crossing midnight are not supported.
type Shift struct {
	ID                int64     `json:"id" db:"id"`
	CafeID            int64     `json:"cafe_id" db:"cafe_id"`
	Date              string    `json:"date" db:"shift_date"`         // "YYYY-MM-DD"
	StartTime         string    `json:"start_time" db:"start_time"`   // "HH:MM"
	EndTime           string    `json:"end_time" db:"end_time"`       // "HH:MM"
	RequiredEmployees int       `json:"required_employees" db:"required_employees"`
	Description       *string   `json:"description,omitempty" db:"description"`
	Status            string    `json:"status" db:"status"`
	AcceptedBy        []int64   `json:"accepted_by" db:"accepted_by"`
	BlockedEmployees  []int64   `json:"blocked_employees" db:"blocked_employees"`
	HourlyRate        float64   `json:"hourly_rate" db:"hourly_rate"`                       // cafe-facing rate
	EmployeeRate      *float64  `json:"employee_rate,omitempty" db:"employee_rate"`         // admin-set override paid to employees
	PlatformFee       float64   `json:"platform_fee" db:"platform_fee"`                     // fixed at creation
	TotalCost         float64   `json:"total_cost" db:"total_cost"`                         // base + fee, recomputed on edit
	CafePenalty       float64   `json:"cafe_penalty" db:"cafe_penalty"`                     // late-cancellation penalty owed by the cafe
	EmployeePenalty   float64   `json:"employee_penalty" db:"employee_penalty"`             // accumulated late-withdrawal penalties
	Latitude          *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude         *float64  `json:"longitude,omitempty" db:"longitude"`
	PaymentProofRef   *string   `json:"payment_proof_ref,omitempty" db:"payment_proof_ref"`
	Visibility        string    `json:"visibility" db:"visibility"`
	AllowedEmployees  []int64   `json:"allowed_employees,omitempty" db:"allowed_employees"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// EffectiveRate is the hourly rate an employee actually earns on this shift:
// the admin-set employee rate when present, else the cafe-facing rate.
func (s *Shift) EffectiveRate() float64 {
	if s.EmployeeRate != nil {
		return *s.EmployeeRate
	}
	return s.HourlyRate
}

// HasAccepted reports whether the employee is on the shift's accepted list.
func (s *Shift) HasAccepted(employeeID int64) bool {
	for _, id := range s.AcceptedBy {
		if id == employeeID {
			return true
		}
	}
	return false
}

// IsBlocked reports whether the employee is permanently excluded from this shift.
func (s *Shift) IsBlocked(employeeID int64) bool {
	for _, id := range s.BlockedEmployees {
		if id == employeeID {
			return true
		}
	}
	return false
}

// IsInvited reports whether the employee may see and claim this shift under
// its visibility mode.
func (s *Shift) IsInvited(employeeID int64) bool {
	if s.Visibility != VisibilityInvited {
		return true
	}
	for _, id := range s.AllowedEmployees {
		if id == employeeID {
			return true
		}
	}
	return false
}

// IsValidShiftStatus reports whether s is a known shift status.
func IsValidShiftStatus(s string) bool {
	switch s {
	case ShiftStatusPendingApproval, ShiftStatusOpen, ShiftStatusAccepted,
		ShiftStatusCompleted, ShiftStatusCancelled, ShiftStatusPaused:
		return true
	}
	return false
}

// ShiftFilters narrows shift listings.
type ShiftFilters struct {
	CafeID     *int64
	EmployeeID *int64 // shifts whose accepted list contains this employee
	Status     *string
	DateFrom   *string // inclusive "YYYY-MM-DD"
	DateTo     *string // inclusive "YYYY-MM-DD"
	Page       int
	PageSize   int
}
