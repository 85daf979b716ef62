package models

import "time"

// Role represents the application roles assignable to a profile.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleFormTeacher Role = "FORM_TEACHER"
	RoleStudent     Role = "STUDENT"
)

// Profile is the registry identity backing every account. Rows may be seeded
// by an administrator before the person ever signs in; such rows carry a
// plaintext legacy password that is only honoured during first activation and
// nulled once the account is reconciled.
type Profile struct {
	ID             string    `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	LegacyPassword *string   `db:"legacy_password" json:"-"`
	PasswordHash   *string   `db:"password_hash" json:"-"`
	Role           Role      `db:"role" json:"role"`
	FullName       string    `db:"full_name" json:"full_name"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ProfileFilter captures filtering criteria for listing profiles.
type ProfileFilter struct {
	Role      *Role
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
