package session

import (
	"context"
	"time"
)

// Repository defines persistence operations for sessions. FindAndLock is the
// one operation that must be atomic at the storage layer: lookup by hash and
// lock acquisition happen in a single conditional update so two concurrent
// redemptions of the same token can never both proceed.
type Repository interface {
	Create(ctx context.Context, sess Session) error
	GetByID(ctx context.Context, id string) (Session, error)
	FindAndLock(ctx context.Context, tokenHash, lockToken string) (Session, error)
	Rotate(ctx context.Context, id, lockToken, newHash, previousHash string, expiresAt time.Time) error
	ReleaseLock(ctx context.Context, id, lockToken string) error
	Deactivate(ctx context.Context, id string) error
	DeactivateByPreviousHash(ctx context.Context, tokenHash string) (Session, error)
	DeactivateAllForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
