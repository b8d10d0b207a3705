package models

import "time"

// User roles. Cafes post shifts, employees claim them, admins moderate.
const (
	RoleAdmin    = "admin"
	RoleCafe     = "cafe"
	RoleEmployee = "employee"
)

// Account approval statuses. New cafe/employee accounts start pending and
// must be approved by an admin before they can act on shifts.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// User represents an authenticated actor in the marketplace.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username" db:"username"`
	PasswordHash   string    `json:"-" db:"password_hash"` // '-' means don't send in JSON response
	Email          *string   `json:"email,omitempty" db:"email"`
	FullName       *string   `json:"full_name,omitempty" db:"full_name"`
	Role           string    `json:"role" db:"role"`
	ApprovalStatus string    `json:"approval_status" db:"approval_status"`
	CVRef          *string   `json:"cv_ref,omitempty" db:"cv_ref"`         // employee CV upload reference
	AvatarRef      *string   `json:"avatar_ref,omitempty" db:"avatar_ref"` // profile image reference
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// IsValidRole reports whether s is one of the known user roles.
func IsValidRole(s string) bool {
	return s == RoleAdmin || s == RoleCafe || s == RoleEmployee
}

// IsValidApprovalStatus reports whether s is a known approval status.
func IsValidApprovalStatus(s string) bool {
	return s == ApprovalPending || s == ApprovalApproved || s == ApprovalRejected
}
