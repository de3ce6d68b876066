package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the access role of an API account.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleFieldOfficer Role = "field_officer"
	RoleViewer       Role = "viewer"
)

// Account is an API identity. Field officers register schools and submit
// reports; viewers only read.
type Account struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	APIKeyHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RoleRank returns the numeric rank of a role (higher = more privileges).
func RoleRank(r Role) int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleFieldOfficer:
		return 2
	case RoleViewer:
		return 1
	default:
		return 0
	}
}

// RoleAtLeast returns true if role r has at least the privileges of minRole.
func RoleAtLeast(r, minRole Role) bool {
	return RoleRank(r) >= RoleRank(minRole)
}

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	return RoleRank(r) > 0
}
