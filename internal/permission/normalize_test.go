package permission

import (
	"errors"
	"reflect"
	"testing"

	"github.com/aegis-admin/aegis-admin/internal/registry"
	"github.com/aegis-admin/aegis-admin/internal/shared"
)

func TestNormalizeImpliedView(t *testing.T) {
	reg := registry.Default()
	got, err := Normalize(reg, []string{"security.email.edit"})
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	want := []string{"security.email.edit", "security.email.view"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}

func TestNormalizePrunesCoveredEntries(t *testing.T) {
	reg := registry.Default()
	got, err := Normalize(reg, []string{"users.*", "users.view", "users.delete"})
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"users.*"}) {
		t.Fatalf("expected module wildcard only, got %v", got)
	}
}

func TestNormalizeSubtreeWildcard(t *testing.T) {
	reg := registry.Default()
	got, err := Normalize(reg, []string{"security.*", "security.email.view"})
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"security.*"}) {
		t.Fatalf("expected subtree entries pruned, got %v", got)
	}
}

func TestNormalizeGlobalAbsorbsEverything(t *testing.T) {
	reg := registry.Default()
	got, err := Normalize(reg, []string{"*", "profile.view", "not even valid"})
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"*"}) {
		t.Fatalf("expected global wildcard only, got %v", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	reg := registry.Default()
	inputs := [][]string{
		{"contacts.create", "contacts.view", "profile.edit"},
		{"security.email.delete", "security.sessions.view"},
		{"users.*", "roles.edit"},
	}
	for _, in := range inputs {
		once, err := Normalize(reg, in)
		if err != nil {
			t.Fatalf("Normalize(%v): %v", in, err)
		}
		twice, err := Normalize(reg, once)
		if err != nil {
			t.Fatalf("Normalize(Normalize(%v)): %v", in, err)
		}
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("not idempotent: %v vs %v", once, twice)
		}
	}
}

func TestNormalizeOrderIndependent(t *testing.T) {
	reg := registry.Default()
	a, err := Normalize(reg, []string{"contacts.edit", "profile.view", "users.*"})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	b, err := Normalize(reg, []string{"users.*", "profile.view", "contacts.edit"})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("order changed the result: %v vs %v", a, b)
	}
}

func TestNormalizeRejectsUnknownModulePath(t *testing.T) {
	reg := registry.Default()
	_, err := Normalize(reg, []string{"bogus.view"})
	if !errors.Is(err, shared.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestNormalizeRejectsInvalidAction(t *testing.T) {
	reg := registry.Default()
	_, err := Normalize(reg, []string{"profile.launch"})
	if !errors.Is(err, shared.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestNormalizeFailFast(t *testing.T) {
	reg := registry.Default()
	got, err := Normalize(reg, []string{"profile.view", "bogus.view", "contacts.edit"})
	if err == nil {
		t.Fatalf("expected error, got %v", got)
	}
	if got != nil {
		t.Fatalf("expected no partial result, got %v", got)
	}
}
