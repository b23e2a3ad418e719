package access

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

// Get fetches the access record for a user.
func (r *PGRepository) Get(ctx context.Context, userID string) (Access, error) {
	var a Access
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, role_names, custom_permissions, effective_permissions, updated_at
		FROM user_access WHERE user_id = $1`, userID).
		Scan(&a.UserID, &a.RoleNames, &a.CustomPermissions, &a.EffectivePermissions, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Access{}, shared.ErrNotFound
		}
		return Access{}, err
	}
	return a, nil
}

// Upsert writes the full access record, replacing the materialized set.
func (r *PGRepository) Upsert(ctx context.Context, a Access) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_access (user_id, role_names, custom_permissions, effective_permissions, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			role_names = EXCLUDED.role_names,
			custom_permissions = EXCLUDED.custom_permissions,
			effective_permissions = EXCLUDED.effective_permissions,
			updated_at = EXCLUDED.updated_at`,
		a.UserID, a.RoleNames, a.CustomPermissions, a.EffectivePermissions, time.Now().UTC())
	return err
}

// CountByRoleName counts active users listing the role. The role delete
// guard depends on this.
func (r *PGRepository) CountByRoleName(ctx context.Context, name string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_access WHERE $1 = ANY(role_names)`, name).Scan(&count)
	return count, err
}

// ListUserIDsByRoleName returns every user referencing the role, used by the
// background resync after role permission edits.
func (r *PGRepository) ListUserIDsByRoleName(ctx context.Context, name string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id FROM user_access WHERE $1 = ANY(role_names)`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FindUserIDByEmail resolves a user id from the users table.
func (r *PGRepository) FindUserIDByEmail(ctx context.Context, email string) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return id, nil
}

var _ Repository = (*PGRepository)(nil)
