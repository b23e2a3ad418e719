package contacts

import (
	"context"

	"github.com/aegis-admin/aegis-admin/internal/shared"
)

// ListFilter narrows contact listings.
type ListFilter struct {
	Search  string
	Page    int
	PerPage int
}

// Repository defines persistence operations for contacts.
type Repository interface {
	Create(ctx context.Context, contact Contact) (Contact, error)
	GetByID(ctx context.Context, id string) (Contact, error)
	List(ctx context.Context, filter ListFilter) ([]Contact, shared.Pagination, error)
	Update(ctx context.Context, contact Contact) (Contact, error)
	Delete(ctx context.Context, id string) error
}
