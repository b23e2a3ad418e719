package permission

import (
	"errors"
	"testing"

	"github.com/aegis-admin/aegis-admin/internal/registry"
	"github.com/aegis-admin/aegis-admin/internal/shared"
)

func mustRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	return registry.Default()
}

func TestParseVariants(t *testing.T) {
	p, err := Parse("*")
	if err != nil || p.Kind != KindGlobal {
		t.Fatalf("Parse(*) = %v, %v", p, err)
	}
	p, err = Parse("security.email.view")
	if err != nil {
		t.Fatalf("Parse exact: %v", err)
	}
	if p.Kind != KindExact || p.Path != "security.email" || p.Action != ActionView {
		t.Fatalf("unexpected exact parse: %+v", p)
	}
	p, err = Parse("users.*")
	if err != nil {
		t.Fatalf("Parse wildcard: %v", err)
	}
	if p.Kind != KindModuleWildcard || p.Path != "users" {
		t.Fatalf("unexpected wildcard parse: %+v", p)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "view", ".view", "profile.", "profile.launch"} {
		if _, err := Parse(raw); !errors.Is(err, shared.ErrValidation) {
			t.Fatalf("Parse(%q): expected ErrValidation, got %v", raw, err)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, raw := range []string{"*", "users.*", "security.email.delete"} {
		p, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q): %v", raw, err)
		}
		if p.String() != raw {
			t.Fatalf("round trip %q -> %q", raw, p.String())
		}
	}
}

func TestCovers(t *testing.T) {
	g, _ := Parse("*")
	w, _ := Parse("security.*")
	nested, _ := Parse("security.email.view")
	exact, _ := Parse("profile.view")
	if !Covers(g, nested) || !Covers(g, w) || !Covers(g, g) {
		t.Fatalf("global must cover everything")
	}
	if !Covers(w, nested) {
		t.Fatalf("module wildcard must cover its subtree")
	}
	if Covers(w, g) {
		t.Fatalf("module wildcard must not cover global")
	}
	if Covers(exact, nested) || !Covers(exact, exact) {
		t.Fatalf("exact covers only itself")
	}
}
