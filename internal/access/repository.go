package access

import "context"

// Repository defines persistence operations for user access records.
type Repository interface {
	Get(ctx context.Context, userID string) (Access, error)
	Upsert(ctx context.Context, access Access) error
	CountByRoleName(ctx context.Context, name string) (int, error)
	ListUserIDsByRoleName(ctx context.Context, name string) ([]string, error)
	FindUserIDByEmail(ctx context.Context, email string) (string, error)
}
