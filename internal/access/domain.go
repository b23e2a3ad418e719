package access

import "time"

// Access links a user to zero or more roles plus custom permission overrides.
// EffectivePermissions is a materialized copy of the pure resolution
// function; it is rewritten on every change and never trusted as an
// independent source of truth.
type Access struct {
	UserID               string
	RoleNames            []string
	CustomPermissions    []string
	EffectivePermissions []string
	UpdatedAt            time.Time
}
