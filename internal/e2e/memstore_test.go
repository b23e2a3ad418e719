package e2e

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aegis-admin/aegis-admin/internal/access"
	"github.com/aegis-admin/aegis-admin/internal/auth"
	"github.com/aegis-admin/aegis-admin/internal/contacts"
	"github.com/aegis-admin/aegis-admin/internal/roles"
	"github.com/aegis-admin/aegis-admin/internal/session"
	"github.com/aegis-admin/aegis-admin/internal/shared"
)

// In-memory stores backing the full HTTP stack. Each mirrors the behavior
// of its SQL counterpart closely enough for end-to-end flows: conflicts,
// soft deletes, rotation locking.

type memUserRepo struct {
	mu     sync.Mutex
	users  map[string]auth.User
	resets map[string]auth.ResetToken
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]auth.User), resets: make(map[string]auth.ResetToken)}
}

func (m *memUserRepo) CreateUser(_ context.Context, user auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return shared.ErrConflict
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	m.users[user.ID] = user
	return nil
}

func (m *memUserRepo) FindByEmail(_ context.Context, email string) (auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return auth.User{}, shared.ErrNotFound
}

func (m *memUserRepo) FindByID(_ context.Context, id string) (auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return auth.User{}, shared.ErrNotFound
	}
	return u, nil
}

func (m *memUserRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return shared.ErrNotFound
	}
	u.PasswordHash = passwordHash
	m.users[userID] = u
	return nil
}

func (m *memUserRepo) CreateResetToken(_ context.Context, token auth.ResetToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[token.TokenHash] = token
	return nil
}

func (m *memUserRepo) ConsumeResetToken(_ context.Context, tokenHash string, now time.Time) (auth.ResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.resets[tokenHash]
	if !ok || !token.ExpiresAt.After(now) {
		return auth.ResetToken{}, shared.ErrNotFound
	}
	delete(m.resets, tokenHash)
	return token, nil
}

func (m *memUserRepo) DeleteExpiredResetTokens(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for hash, token := range m.resets {
		if !token.ExpiresAt.After(before) {
			delete(m.resets, hash)
			n++
		}
	}
	return n, nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]session.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]session.Session)}
}

func (m *memSessionRepo) Create(_ context.Context, sess session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *memSessionRepo) GetByID(_ context.Context, id string) (session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return session.Session{}, shared.ErrNotFound
	}
	return sess, nil
}

func (m *memSessionRepo) FindAndLock(_ context.Context, tokenHash, lockToken string) (session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sess := range m.sessions {
		if sess.RefreshTokenHash == tokenHash && sess.IsActive && sess.RotationLock == nil {
			sess.RotationLock = &lockToken
			m.sessions[id] = sess
			return sess, nil
		}
	}
	return session.Session{}, shared.ErrNotFound
}

func (m *memSessionRepo) Rotate(_ context.Context, id, lockToken, newHash, previousHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok || sess.RotationLock == nil || *sess.RotationLock != lockToken {
		return shared.ErrNotFound
	}
	sess.RefreshTokenHash = newHash
	sess.PreviousTokenHash = previousHash
	sess.ExpiresAt = expiresAt
	sess.RotationLock = nil
	m.sessions[id] = sess
	return nil
}

func (m *memSessionRepo) ReleaseLock(_ context.Context, id, lockToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok || sess.RotationLock == nil || *sess.RotationLock != lockToken {
		return shared.ErrNotFound
	}
	sess.RotationLock = nil
	m.sessions[id] = sess
	return nil
}

func (m *memSessionRepo) Deactivate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return shared.ErrNotFound
	}
	sess.IsActive = false
	m.sessions[id] = sess
	return nil
}

func (m *memSessionRepo) DeactivateByPreviousHash(_ context.Context, tokenHash string) (session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sess := range m.sessions {
		if sess.IsActive && sess.PreviousTokenHash != "" && sess.PreviousTokenHash == tokenHash {
			sess.IsActive = false
			m.sessions[id] = sess
			return sess, nil
		}
	}
	return session.Session{}, shared.ErrNotFound
}

func (m *memSessionRepo) DeactivateAllForUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sess := range m.sessions {
		if sess.UserID == userID {
			sess.IsActive = false
			m.sessions[id] = sess
		}
	}
	return nil
}

func (m *memSessionRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, sess := range m.sessions {
		if sess.ExpiresAt.Before(before) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

type memRoleRepo struct {
	mu    sync.Mutex
	roles map[string]roles.Role
}

func newMemRoleRepo() *memRoleRepo {
	return &memRoleRepo{roles: make(map[string]roles.Role)}
}

func (m *memRoleRepo) Create(_ context.Context, role roles.Role) (roles.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.roles {
		if r.DeletedAt == nil && r.Name == role.Name {
			return roles.Role{}, shared.ErrConflict
		}
	}
	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	role.CreatedAt = time.Now().UTC()
	role.UpdatedAt = role.CreatedAt
	m.roles[role.ID] = role
	return role, nil
}

func (m *memRoleRepo) GetByID(_ context.Context, id string) (roles.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	role, ok := m.roles[id]
	if !ok || role.DeletedAt != nil {
		return roles.Role{}, shared.ErrNotFound
	}
	return role, nil
}

func (m *memRoleRepo) GetByName(_ context.Context, name string) (roles.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, role := range m.roles {
		if role.DeletedAt == nil && role.Name == name {
			return role, nil
		}
	}
	return roles.Role{}, shared.ErrNotFound
}

func (m *memRoleRepo) List(_ context.Context) ([]roles.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []roles.Role
	for _, role := range m.roles {
		if role.DeletedAt == nil {
			out = append(out, role)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRoleRepo) Update(_ context.Context, role roles.Role) (roles.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.roles[role.ID]
	if !ok || current.DeletedAt != nil {
		return roles.Role{}, shared.ErrNotFound
	}
	role.UpdatedAt = time.Now().UTC()
	m.roles[role.ID] = role
	return role, nil
}

func (m *memRoleRepo) SoftDelete(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	role, ok := m.roles[id]
	if !ok || role.DeletedAt != nil {
		return shared.ErrNotFound
	}
	role.DeletedAt = &at
	m.roles[id] = role
	return nil
}

type memAccessRepo struct {
	mu      sync.Mutex
	records map[string]access.Access
	emails  map[string]string
}

func newMemAccessRepo() *memAccessRepo {
	return &memAccessRepo{records: make(map[string]access.Access), emails: make(map[string]string)}
}

func (m *memAccessRepo) registerEmail(email, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails[strings.ToLower(email)] = userID
}

func (m *memAccessRepo) Get(_ context.Context, userID string) (access.Access, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[userID]
	if !ok {
		return access.Access{}, shared.ErrNotFound
	}
	return record, nil
}

func (m *memAccessRepo) Upsert(_ context.Context, record access.Access) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record.UpdatedAt = time.Now().UTC()
	m.records[record.UserID] = record
	return nil
}

func (m *memAccessRepo) CountByRoleName(_ context.Context, name string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, record := range m.records {
		for _, role := range record.RoleNames {
			if role == name {
				count++
				break
			}
		}
	}
	return count, nil
}

func (m *memAccessRepo) ListUserIDsByRoleName(_ context.Context, name string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for id, record := range m.records {
		for _, role := range record.RoleNames {
			if role == name {
				out = append(out, id)
				break
			}
		}
	}
	return out, nil
}

func (m *memAccessRepo) FindUserIDByEmail(_ context.Context, email string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.emails[strings.ToLower(email)]
	if !ok {
		return "", shared.ErrNotFound
	}
	return id, nil
}

type memContactRepo struct {
	mu    sync.Mutex
	items map[string]contacts.Contact
}

func newMemContactRepo() *memContactRepo {
	return &memContactRepo{items: make(map[string]contacts.Contact)}
}

func (m *memContactRepo) Create(_ context.Context, contact contacts.Contact) (contacts.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	m.items[contact.ID] = contact
	return contact, nil
}

func (m *memContactRepo) GetByID(_ context.Context, id string) (contacts.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	contact, ok := m.items[id]
	if !ok {
		return contacts.Contact{}, shared.ErrNotFound
	}
	return contact, nil
}

func (m *memContactRepo) List(_ context.Context, filter contacts.ListFilter) ([]contacts.Contact, shared.Pagination, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []contacts.Contact
	for _, c := range m.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, shared.NewPagination(filter.Page, filter.PerPage, len(out)), nil
}

func (m *memContactRepo) Update(_ context.Context, contact contacts.Contact) (contacts.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[contact.ID]; !ok {
		return contacts.Contact{}, shared.ErrNotFound
	}
	m.items[contact.ID] = contact
	return contact, nil
}

func (m *memContactRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.items, id)
	return nil
}
