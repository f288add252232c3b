package auth

import "time"

// Account represents a user account eligible for login.
type Account struct {
	ID           int64
	TenantID     int64
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
