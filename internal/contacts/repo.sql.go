package contacts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
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

const contactColumns = `id, name, email, phone, company, notes, created_at, updated_at`

// Create inserts a new contact.
func (r *PGRepository) Create(ctx context.Context, contact Contact) (Contact, error) {
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO contacts (id, name, email, phone, company, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING `+contactColumns,
		contact.ID, contact.Name, contact.Email, contact.Phone, contact.Company, contact.Notes, now)
	return scanContact(row)
}

// GetByID fetches a contact by id.
func (r *PGRepository) GetByID(ctx context.Context, id string) (Contact, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id)
	contact, err := scanContact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, shared.ErrNotFound
		}
		return Contact{}, err
	}
	return contact, nil
}

// List returns a page of contacts, optionally filtered by a case-insensitive
// match on name, email or company.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Contact, shared.Pagination, error) {
	search := "%" + filter.Search + "%"
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM contacts
		WHERE $1 = '%%' OR name ILIKE $1 OR email ILIKE $1 OR company ILIKE $1`, search).Scan(&total)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	page := shared.NewPagination(filter.Page, filter.PerPage, total)

	rows, err := r.pool.Query(ctx, `
		SELECT `+contactColumns+` FROM contacts
		WHERE $1 = '%%' OR name ILIKE $1 OR email ILIKE $1 OR company ILIKE $1
		ORDER BY name
		LIMIT $2 OFFSET $3`, search, page.PerPage, page.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, shared.Pagination{}, err
		}
		out = append(out, contact)
	}
	return out, page, rows.Err()
}

// Update rewrites all mutable fields of a contact.
func (r *PGRepository) Update(ctx context.Context, contact Contact) (Contact, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE contacts
		SET name = $2, email = $3, phone = $4, company = $5, notes = $6, updated_at = $7
		WHERE id = $1
		RETURNING `+contactColumns,
		contact.ID, contact.Name, contact.Email, contact.Phone, contact.Company, contact.Notes, time.Now().UTC())
	updated, err := scanContact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, shared.ErrNotFound
		}
		return Contact{}, err
	}
	return updated, nil
}

// Delete removes a contact.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (Contact, error) {
	var contact Contact
	err := row.Scan(&contact.ID, &contact.Name, &contact.Email, &contact.Phone, &contact.Company, &contact.Notes, &contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		return Contact{}, err
	}
	return contact, nil
}

var _ Repository = (*PGRepository)(nil)
