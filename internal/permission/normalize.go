package permission

import (
	"fmt"
	"sort"

	"github.com/aegis-admin/aegis-admin/internal/registry"
	"github.com/aegis-admin/aegis-admin/internal/shared"
)

// Normalize validates, expands and minimizes a raw permission list into its
// canonical form. The first invalid entry aborts the whole call: a partially
// applied permission set is a security hazard, so there is no best-effort
// mode. The result is deterministic, idempotent and order-independent.
//
// Rules:
//   - a global "*" absorbs everything else,
//   - every mutating action implies view on the same module path,
//   - any entry covered by another surviving entry is pruned.
func Normalize(reg *registry.Registry, requested []string) ([]string, error) {
	for _, raw := range requested {
		if raw == "*" {
			return []string{"*"}, nil
		}
	}

	working := make(map[Permission]struct{}, len(requested))
	for _, raw := range requested {
		perm, err := Parse(raw)
		if err != nil {
			return nil, err
		}
		if !reg.IsValidPath(perm.Path) {
			return nil, fmt.Errorf("%w: unknown module path %q in %q", shared.ErrValidation, perm.Path, raw)
		}
		working[perm] = struct{}{}
		if perm.IsMutating() {
			working[Permission{Kind: KindExact, Path: perm.Path, Action: ActionView}] = struct{}{}
		}
	}

	minimal := make([]string, 0, len(working))
	for p := range working {
		covered := false
		for q := range working {
			if q != p && Covers(q, p) {
				covered = true
				break
			}
		}
		if !covered {
			minimal = append(minimal, p.String())
		}
	}
	sort.Strings(minimal)
	return minimal, nil
}
