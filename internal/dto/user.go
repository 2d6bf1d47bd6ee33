package dto

import "github.com/agrisentry/biosecure-api/internal/models"

// CreateUserRequest payload for admin-created accounts.
type CreateUserRequest struct {
	FullName string          `json:"full_name" validate:"required"`
	Email    string          `json:"email" validate:"required,email"`
	Mobile   string          `json:"mobile"`
	Password string          `json:"password" validate:"required,min=6"`
	Role     models.UserRole `json:"role" validate:"required"`
	State    string          `json:"state"`
	District string          `json:"district"`
}

// UpdateUserRequest payload for editing an account.
type UpdateUserRequest struct {
	FullName string          `json:"full_name" validate:"required"`
	Mobile   string          `json:"mobile"`
	Role     models.UserRole `json:"role" validate:"required"`
	State    string          `json:"state"`
	District string          `json:"district"`
	Active   bool            `json:"active"`
}

// UserQuery mirrors supported listing filters.
type UserQuery struct {
	Role     string
	Search   string
	Page     int
	PageSize int
}
