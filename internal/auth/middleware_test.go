package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegis-admin/aegis-admin/internal/session"
	"github.com/aegis-admin/aegis-admin/internal/shared"
	"github.com/aegis-admin/aegis-admin/internal/tokens"
)

type stubSessionValidator struct {
	dead map[string]bool
}

func (s *stubSessionValidator) Validate(_ context.Context, id string) (session.Session, error) {
	if s.dead[id] {
		return session.Session{}, shared.ErrAuthentication
	}
	return session.Session{ID: id, IsActive: true}, nil
}

type stubPermissionSource struct {
	perms  map[string][]string
	supers map[string]bool
}

func (s *stubPermissionSource) EffectivePermissions(_ context.Context, userID string) ([]string, error) {
	return s.perms[userID], nil
}

func (s *stubPermissionSource) IsSuperAdmin(_ context.Context, userID string) (bool, error) {
	return s.supers[userID], nil
}

func newTestGate(t *testing.T) (*Gate, *tokens.Manager, *stubSessionValidator, *stubPermissionSource) {
	t.Helper()
	manager := tokens.NewManager("gate-secret", time.Minute)
	sessions := &stubSessionValidator{dead: map[string]bool{}}
	perms := &stubPermissionSource{perms: map[string][]string{}, supers: map[string]bool{}}
	return NewGate(manager, sessions, perms, nil, nil), manager, sessions, perms
}

func protected(gate *Gate, perm string) http.Handler {
	var inner http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, _ := shared.IdentityFromContext(r.Context())
		w.Header().Set("X-User", identity.UserID)
		w.WriteHeader(http.StatusOK)
	})
	if perm != "" {
		inner = gate.Require(perm)(inner)
	}
	return gate.Authenticate(inner)
}

func doRequest(t *testing.T, handler http.Handler, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	gate, _, _, _ := newTestGate(t)
	rec := doRequest(t, protected(gate, ""), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsGarbageToken(t *testing.T) {
	gate, _, _, _ := newTestGate(t)
	rec := doRequest(t, protected(gate, ""), "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsDeadSession(t *testing.T) {
	gate, manager, sessions, _ := newTestGate(t)
	token, err := manager.Mint("user-1", "sess-1")
	require.NoError(t, err)

	rec := doRequest(t, protected(gate, ""), token)
	assert.Equal(t, http.StatusOK, rec.Code)

	sessions.dead["sess-1"] = true
	rec = doRequest(t, protected(gate, ""), token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "revocation beats token TTL")
}

func TestAuthenticateAttachesIdentity(t *testing.T) {
	gate, manager, _, _ := newTestGate(t)
	token, err := manager.Mint("user-1", "sess-1")
	require.NoError(t, err)
	rec := doRequest(t, protected(gate, ""), token)
	assert.Equal(t, "user-1", rec.Header().Get("X-User"))
}

func TestRequireEnforcesCoverage(t *testing.T) {
	gate, manager, _, perms := newTestGate(t)
	token, err := manager.Mint("user-1", "sess-1")
	require.NoError(t, err)
	perms.perms["user-1"] = []string{"security.*", "users.view"}

	cases := []struct {
		perm string
		want int
	}{
		{"security.email.view", http.StatusOK},
		{"security.sessions.delete", http.StatusOK},
		{"users.view", http.StatusOK},
		{"users.edit", http.StatusForbidden},
		{"roles.view", http.StatusForbidden},
	}
	for _, tc := range cases {
		rec := doRequest(t, protected(gate, tc.perm), token)
		assert.Equal(t, tc.want, rec.Code, "perm %s", tc.perm)
	}
}

func TestRequireSuperAdminBypass(t *testing.T) {
	gate, manager, _, perms := newTestGate(t)
	token, err := manager.Mint("root", "sess-root")
	require.NoError(t, err)
	perms.supers["root"] = true

	rec := doRequest(t, protected(gate, "roles.delete"), token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireWithoutIdentity(t *testing.T) {
	gate, _, _, _ := newTestGate(t)
	handler := gate.Require("users.view")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/secure", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
