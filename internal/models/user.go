package models

import (
	"strings"
	"time"
)

// User represents a portal account stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         string     `db:"role" json:"role"`
	ExtraRoles   string     `db:"extra_roles" json:"extra_roles"`
	Status       string     `db:"status" json:"status"`
	SchoolID     *string    `db:"school_id" json:"school_id,omitempty"`
	DepartmentID *string    `db:"department_id" json:"department_id,omitempty"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// AdditionalRoles splits the comma separated extra_roles column.
func (u *User) AdditionalRoles() []string {
	if strings.TrimSpace(u.ExtraRoles) == "" {
		return nil
	}
	parts := strings.Split(u.ExtraRoles, ",")
	roles := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			roles = append(roles, trimmed)
		}
	}
	return roles
}
