package auth

import (
	"context"
	"time"
)

// Repository defines persistence operations for user accounts and password
// reset tokens.
type Repository interface {
	CreateUser(ctx context.Context, user User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	CreateResetToken(ctx context.Context, token ResetToken) error
	// ConsumeResetToken atomically deletes and returns the reset token so a
	// token can only ever complete one reset.
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (ResetToken, error)
	DeleteExpiredResetTokens(ctx context.Context, before time.Time) (int64, error)
}
