// Package permission implements the hierarchical permission grammar: parsing,
// validation, normalization and matching of dot-separated capability strings
// such as "security.email.view", "users.*" and the global "*".
package permission

import (
	"fmt"
	"strings"

	"github.com/aegis-admin/aegis-admin/internal/shared"
)

// Kind discriminates the permission variants.
type Kind int

const (
	// KindExact grants a single action on a single module path.
	KindExact Kind = iota
	// KindModuleWildcard grants every action on a module path and its subtree.
	KindModuleWildcard
	// KindGlobal grants everything.
	KindGlobal
)

// Actions that can be authorized on a module path. Wildcard is only valid as
// the trailing segment of a module wildcard.
const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"
	actionAny    = "*"
)

var mutatingActions = map[string]bool{
	ActionCreate: true,
	ActionEdit:   true,
	ActionDelete: true,
}

var validActions = map[string]bool{
	ActionView:   true,
	ActionCreate: true,
	ActionEdit:   true,
	ActionDelete: true,
	actionAny:    true,
}

// Actions returns the concrete actions grantable on any module path.
func Actions() []string {
	return []string{ActionView, ActionCreate, ActionEdit, ActionDelete}
}

// Permission is a parsed capability. Parse once at the system boundary and
// compare as structured values; String round-trips to the wire format.
type Permission struct {
	Kind   Kind
	Path   string
	Action string
}

// Global is the permission that grants everything.
var Global = Permission{Kind: KindGlobal}

// Parse converts the wire form into a structured Permission. It validates the
// action segment; module-path existence is checked separately against the
// registry because parsing must stay pure.
func Parse(raw string) (Permission, error) {
	if raw == "*" {
		return Global, nil
	}
	idx := strings.LastIndex(raw, ".")
	if idx <= 0 || idx == len(raw)-1 {
		return Permission{}, fmt.Errorf("%w: malformed permission %q", shared.ErrValidation, raw)
	}
	path, action := raw[:idx], raw[idx+1:]
	if !validActions[action] {
		return Permission{}, fmt.Errorf("%w: invalid action %q in %q", shared.ErrValidation, action, raw)
	}
	if action == actionAny {
		return Permission{Kind: KindModuleWildcard, Path: path}, nil
	}
	return Permission{Kind: KindExact, Path: path, Action: action}, nil
}

// String renders the canonical wire form.
func (p Permission) String() string {
	switch p.Kind {
	case KindGlobal:
		return "*"
	case KindModuleWildcard:
		return p.Path + ".*"
	default:
		return p.Path + "." + p.Action
	}
}

// Covers reports whether q implies p. This single relation drives both
// normalization pruning and request matching, so a normalized set can never
// authorize less than its raw input.
func Covers(q, p Permission) bool {
	switch q.Kind {
	case KindGlobal:
		return true
	case KindModuleWildcard:
		if p.Kind == KindGlobal {
			return false
		}
		return p.Path == q.Path || strings.HasPrefix(p.Path, q.Path+".")
	default:
		return q == p
	}
}

// IsMutating reports whether the permission's action implies view access.
func (p Permission) IsMutating() bool {
	return p.Kind == KindExact && mutatingActions[p.Action]
}
