package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-admin/aegis-admin/internal/shared"
)

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const sessionColumns = `id, user_id, refresh_token_hash, previous_token_hash, ip, user_agent, expires_at, is_active, rotation_lock, created_at, updated_at`

// Create persists a new session row.
func (r *PGRepository) Create(ctx context.Context, sess Session) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, refresh_token_hash, previous_token_hash, ip, user_agent, expires_at, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		sess.ID, sess.UserID, sess.RefreshTokenHash, sess.PreviousTokenHash,
		sess.Device.IP, sess.Device.UserAgent, sess.ExpiresAt.UTC(), sess.IsActive, now)
	return err
}

// GetByID fetches a session by id.
func (r *PGRepository) GetByID(ctx context.Context, id string) (Session, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, shared.ErrNotFound
		}
		return Session{}, err
	}
	return sess, nil
}

// FindAndLock looks up the live session owning the hash and marks it with
// the rotation lock in a single conditional update. A concurrent redemption
// that already holds the lock makes the WHERE clause miss, which surfaces as
// ErrNotFound.
func (r *PGRepository) FindAndLock(ctx context.Context, tokenHash, lockToken string) (Session, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE sessions
		SET rotation_lock = $2, updated_at = NOW()
		WHERE refresh_token_hash = $1 AND is_active AND rotation_lock IS NULL
		RETURNING `+sessionColumns,
		tokenHash, lockToken)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, shared.ErrNotFound
		}
		return Session{}, err
	}
	return sess, nil
}

// Rotate atomically swaps in the new token hash, remembers the old one for
// replay detection, extends expiry and releases the lock. Guarded by the
// lock token so only the redemption that acquired the lock can commit.
func (r *PGRepository) Rotate(ctx context.Context, id, lockToken, newHash, previousHash string, expiresAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions
		SET refresh_token_hash = $3, previous_token_hash = $4, expires_at = $5, rotation_lock = NULL, updated_at = NOW()
		WHERE id = $1 AND rotation_lock = $2`,
		id, lockToken, newHash, previousHash, expiresAt.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ReleaseLock drops the rotation lock without rotating, used when a locked
// redemption fails after acquisition.
func (r *PGRepository) ReleaseLock(ctx context.Context, id, lockToken string) error {
	_, err := r.pool.Exec(ctx, `UPDATE sessions SET rotation_lock = NULL, updated_at = NOW() WHERE id = $1 AND rotation_lock = $2`, id, lockToken)
	return err
}

// Deactivate terminates a session unconditionally, independent of any lock.
func (r *PGRepository) Deactivate(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE sessions SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	return err
}

// DeactivateByPreviousHash finds the session whose rotated-away token
// matches the hash and kills it in the same round trip. This is the replay
// kill switch.
func (r *PGRepository) DeactivateByPreviousHash(ctx context.Context, tokenHash string) (Session, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE sessions
		SET is_active = false, updated_at = NOW()
		WHERE previous_token_hash = $1 AND is_active
		RETURNING `+sessionColumns,
		tokenHash)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, shared.ErrNotFound
		}
		return Session{}, err
	}
	return sess, nil
}

// DeactivateAllForUser terminates every active session of a user.
func (r *PGRepository) DeactivateAllForUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE sessions SET is_active = false, updated_at = NOW() WHERE user_id = $1 AND is_active`, userID)
	return err
}

// DeleteExpired removes sessions whose refresh window passed before the
// cutoff. Run from the background worker.
func (r *PGRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, before.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var sess Session
	var prev *string
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.RefreshTokenHash, &prev,
		&sess.Device.IP, &sess.Device.UserAgent, &sess.ExpiresAt, &sess.IsActive,
		&sess.RotationLock, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
		return Session{}, err
	}
	if prev != nil {
		sess.PreviousTokenHash = *prev
	}
	return sess, nil
}

var _ Repository = (*PGRepository)(nil)
