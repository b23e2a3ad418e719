package roles

import (
	"context"
	"time"
)

// Repository defines persistence operations for roles. Lookups only consider
// live (non-deleted) rows unless stated otherwise.
type Repository interface {
	Create(ctx context.Context, role Role) (Role, error)
	GetByID(ctx context.Context, id string) (Role, error)
	GetByName(ctx context.Context, name string) (Role, error)
	List(ctx context.Context) ([]Role, error)
	Update(ctx context.Context, role Role) (Role, error)
	SoftDelete(ctx context.Context, id string, at time.Time) error
}

// ActiveUserCounter reports how many active users currently reference a role
// by name. Implemented by the access store; injected so role deletion can be
// guarded without a package cycle.
type ActiveUserCounter interface {
	CountByRoleName(ctx context.Context, name string) (int, error)
}
