package session

import "time"

// Device captures where a session was established from.
type Device struct {
	IP        string
	UserAgent string
}

// Session backs one refresh token. Exactly one row exists per currently
// valid token; the raw token itself is never persisted, only its digest.
// RotationLock is the transient marker that serialises concurrent
// redemptions of the same token.
type Session struct {
	ID                string
	UserID            string
	RefreshTokenHash  string
	PreviousTokenHash string
	Device            Device
	ExpiresAt         time.Time
	IsActive          bool
	RotationLock      *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Expired reports whether the session's refresh window has passed.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// TokenPair is the result of a successful login or rotation. The refresh
// token is returned to the caller exactly once and cannot be recovered from
// storage afterwards.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	SessionID    string
	UserID       string
}
