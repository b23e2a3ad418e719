package permission

import "testing"

func TestHasPermission(t *testing.T) {
	cases := []struct {
		name     string
		granted  []string
		required string
		want     bool
	}{
		{"module wildcard covers action", []string{"contacts.*"}, "contacts.view", true},
		{"exact grant does not escalate", []string{"contacts.view"}, "contacts.edit", false},
		{"global covers anything", []string{"*"}, "security.email.delete", true},
		{"verbatim match", []string{"profile.edit"}, "profile.edit", true},
		{"subtree wildcard covers nested path", []string{"security.*"}, "security.email.view", true},
		{"sibling module not covered", []string{"users.*"}, "roles.view", false},
		{"empty grant denies", nil, "profile.view", false},
		{"wildcard grant does not imply global", []string{"users.*"}, "*", false},
	}
	for _, tc := range cases {
		if got := HasPermission(tc.granted, tc.required); got != tc.want {
			t.Fatalf("%s: HasPermission(%v, %q) = %v, want %v", tc.name, tc.granted, tc.required, got, tc.want)
		}
	}
}

func TestNormalizeIsLossFreeForMatching(t *testing.T) {
	// Whatever the raw set authorized, the normalized set must authorize too.
	reg := mustRegistry(t)
	raw := []string{"security.email.edit", "security.email.view", "users.*", "users.create", "profile.view"}
	normalized, err := Normalize(reg, raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	required := []string{
		"security.email.view", "security.email.edit",
		"users.view", "users.create", "users.delete",
		"profile.view",
	}
	for _, req := range required {
		if HasPermission(raw, req) && !HasPermission(normalized, req) {
			t.Fatalf("normalization lost grant for %q: raw=%v normalized=%v", req, raw, normalized)
		}
	}
}
