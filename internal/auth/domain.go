package auth

import "time"

// User represents an account that can authenticate against the admin
// application.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ResetToken is a single-use password reset grant. Only the hash of the raw
// token is stored.
type ResetToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
