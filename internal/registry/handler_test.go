package registry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/aegis-admin/aegis-admin/internal/shared"
)

func TestModulesListsTreeWithInjectedActions(t *testing.T) {
	actions := []string{"view", "create", "edit", "delete"}
	h := NewHandler(Default(), actions, shared.AllowAll)

	r := chi.NewRouter()
	h.MountRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/modules", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var entries []moduleEntry
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(entries) != 8 {
		t.Fatalf("expected 8 root modules, got %d", len(entries))
	}
	if entries[0].Path >= entries[1].Path {
		t.Fatalf("expected roots sorted by path, got %q before %q", entries[0].Path, entries[1].Path)
	}

	var security *moduleEntry
	for i := range entries {
		if entries[i].Path == "security" {
			security = &entries[i]
		}
		if len(entries[i].Actions) != len(actions) {
			t.Fatalf("module %q advertises %d actions, want %d", entries[i].Path, len(entries[i].Actions), len(actions))
		}
	}
	if security == nil {
		t.Fatalf("expected a security root module")
	}
	if len(security.Children) != 2 {
		t.Fatalf("expected 2 security children, got %d", len(security.Children))
	}
	if security.Children[0].Path != "security.email" || security.Children[1].Path != "security.sessions" {
		t.Fatalf("unexpected security children: %+v", security.Children)
	}
}
