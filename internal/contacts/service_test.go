package contacts

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegis-admin/aegis-admin/internal/shared"
)

type mockRepository struct {
	mu       sync.Mutex
	contacts map[string]Contact
}

func newMockRepository() *mockRepository {
	return &mockRepository{contacts: make(map[string]Contact)}
}

func (m *mockRepository) Create(_ context.Context, contact Contact) (Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	m.contacts[contact.ID] = contact
	return contact, nil
}

func (m *mockRepository) GetByID(_ context.Context, id string) (Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	contact, ok := m.contacts[id]
	if !ok {
		return Contact{}, shared.ErrNotFound
	}
	return contact, nil
}

func (m *mockRepository) List(_ context.Context, filter ListFilter) ([]Contact, shared.Pagination, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []Contact
	needle := strings.ToLower(filter.Search)
	for _, c := range m.contacts {
		if needle == "" ||
			strings.Contains(strings.ToLower(c.Name), needle) ||
			strings.Contains(strings.ToLower(c.Email), needle) ||
			strings.Contains(strings.ToLower(c.Company), needle) {
			matched = append(matched, c)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	page := shared.NewPagination(filter.Page, filter.PerPage, len(matched))
	start := page.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], page, nil
}

func (m *mockRepository) Update(_ context.Context, contact Contact) (Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contacts[contact.ID]; !ok {
		return Contact{}, shared.ErrNotFound
	}
	m.contacts[contact.ID] = contact
	return contact, nil
}

func (m *mockRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contacts[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.contacts, id)
	return nil
}

func strPtr(s string) *string { return &s }

func TestCreateNormalizesFields(t *testing.T) {
	svc := NewService(newMockRepository(), nil)
	contact, err := svc.Create(context.Background(), "actor", Contact{
		Name:  "  Dewi Lestari ",
		Email: " Dewi@Example.COM ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Dewi Lestari", contact.Name)
	assert.Equal(t, "dewi@example.com", contact.Email)
	assert.NotEmpty(t, contact.ID)
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newMockRepository(), nil)
	_, err := svc.Create(context.Background(), "actor", Contact{Name: "   "})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateAppliesPatch(t *testing.T) {
	svc := NewService(newMockRepository(), nil)
	ctx := context.Background()
	contact, err := svc.Create(ctx, "actor", Contact{Name: "Dewi", Phone: "0811", Company: "Aegis"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "actor", contact.ID, UpdatePatch{
		Phone: strPtr("0812"),
		Notes: strPtr("prefers email"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Dewi", updated.Name, "untouched fields survive")
	assert.Equal(t, "Aegis", updated.Company)
	assert.Equal(t, "0812", updated.Phone)
	assert.Equal(t, "prefers email", updated.Notes)
}

func TestUpdateRejectsBlankName(t *testing.T) {
	svc := NewService(newMockRepository(), nil)
	ctx := context.Background()
	contact, err := svc.Create(ctx, "actor", Contact{Name: "Dewi"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, "actor", contact.ID, UpdatePatch{Name: strPtr("  ")})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateUnknownContact(t *testing.T) {
	svc := NewService(newMockRepository(), nil)
	_, err := svc.Update(context.Background(), "actor", "missing", UpdatePatch{Name: strPtr("x")})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteContact(t *testing.T) {
	svc := NewService(newMockRepository(), nil)
	ctx := context.Background()
	contact, err := svc.Create(ctx, "actor", Contact{Name: "Dewi"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "actor", contact.ID))
	_, err = svc.Get(ctx, contact.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "actor", contact.ID), shared.ErrNotFound)
}

func TestListFiltersAndPaginates(t *testing.T) {
	svc := NewService(newMockRepository(), nil)
	ctx := context.Background()
	for _, name := range []string{"Andi", "Budi", "Citra", "Dewi"} {
		_, err := svc.Create(ctx, "actor", Contact{Name: name, Company: "Aegis"})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, "actor", Contact{Name: "Eka", Company: "Other"})
	require.NoError(t, err)

	items, page, err := svc.List(ctx, ListFilter{Search: "aegis", Page: 1, PerPage: 3})
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 2, page.TotalPages)

	items, _, err = svc.List(ctx, ListFilter{Search: "aegis", Page: 2, PerPage: 3})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Dewi", items[0].Name)
}
