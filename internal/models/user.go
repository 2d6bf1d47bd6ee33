package models

import "time"

// UserRole represents the portal roles recognised by the access policy.
type UserRole string

const (
	RoleFarmer        UserRole = "FARMER"
	RoleVet           UserRole = "VET"
	RoleExtension     UserRole = "EXTENSION"
	RoleDistrictAdmin UserRole = "DISTRICT_ADMIN"
	RoleNationalAdmin UserRole = "NATIONAL_ADMIN"
)

// AllRoles lists every recognised role.
var AllRoles = []UserRole{RoleFarmer, RoleVet, RoleExtension, RoleDistrictAdmin, RoleNationalAdmin}

// ValidRole reports whether the given role is recognised.
func ValidRole(role UserRole) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User represents a portal account stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Mobile       string     `db:"mobile" json:"mobile,omitempty"`
	Role         UserRole   `db:"role" json:"role"`
	State        string     `db:"state" json:"state,omitempty"`
	District     string     `db:"district" json:"district,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	State     string
	District  string
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
