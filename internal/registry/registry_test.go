package registry

import "testing"

func TestIsValidPathNested(t *testing.T) {
	reg := Default()
	valid := []string{"profile", "security", "security.email", "security.sessions", "users", "contacts"}
	for _, p := range valid {
		if !reg.IsValidPath(p) {
			t.Fatalf("expected %q to be a valid path", p)
		}
	}
	invalid := []string{"", "bogus", "security.bogus", "security.email.deep", "profile.email", "Security"}
	for _, p := range invalid {
		if reg.IsValidPath(p) {
			t.Fatalf("expected %q to be rejected", p)
		}
	}
}

func TestNewCanonicalisesKeys(t *testing.T) {
	reg := New(Node{Key: "Billing", Children: map[string]Node{
		"Invoices": {Key: "Invoices"},
	}})
	if !reg.IsValidPath("billing.invoices") {
		t.Fatalf("expected lowercased path to resolve")
	}
	if reg.IsValidPath("Billing.Invoices") {
		t.Fatalf("expected mixed-case path to be rejected")
	}
}
