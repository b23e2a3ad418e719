package roles

import "time"

// SuperAdminRole is the sentinel role name that bypasses permission
// resolution entirely and always grants the global wildcard.
const SuperAdminRole = "super_admin"

// Role is a named, reusable permission bundle. Permissions are always stored
// in normalized form; deletion is a soft delete so historical references stay
// resolvable.
type Role struct {
	ID          string
	Name        string
	Permissions []string
	IsDefault   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// UpdatePatch carries partial role updates. Nil fields are left untouched.
type UpdatePatch struct {
	Name        *string
	Permissions []string
}
