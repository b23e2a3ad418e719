package shared

import "net/http"

// PermissionGuard builds a middleware that rejects callers lacking the given
// permission. Implemented by the auth package; handlers depend on this type
// so feature packages stay decoupled from the gate wiring.
type PermissionGuard func(perm string) func(http.Handler) http.Handler

// AllowAll is a no-op guard for tests.
func AllowAll(string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return next }
}
