package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aegis-admin/aegis-admin/internal/observability"
	"github.com/aegis-admin/aegis-admin/internal/permission"
	"github.com/aegis-admin/aegis-admin/internal/platform/httpx"
	"github.com/aegis-admin/aegis-admin/internal/session"
	"github.com/aegis-admin/aegis-admin/internal/shared"
	"github.com/aegis-admin/aegis-admin/internal/tokens"
)

// TokenVerifier checks an access token and returns its claims.
type TokenVerifier interface {
	Verify(raw string) (tokens.Claims, error)
}

// SessionValidator confirms a session is still live.
type SessionValidator interface {
	Validate(ctx context.Context, id string) (session.Session, error)
}

// PermissionSource supplies a user's effective permission set.
type PermissionSource interface {
	EffectivePermissions(ctx context.Context, userID string) ([]string, error)
	IsSuperAdmin(ctx context.Context, userID string) (bool, error)
}

// Gate authenticates requests and enforces permissions. Access tokens are
// only honoured while their backing session is active, so revoking a session
// takes effect immediately instead of at token expiry.
type Gate struct {
	verifier TokenVerifier
	sessions SessionValidator
	perms    PermissionSource
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewGate constructs a Gate.
func NewGate(verifier TokenVerifier, sessions SessionValidator, perms PermissionSource, logger *slog.Logger, metrics *observability.Metrics) *Gate {
	return &Gate{verifier: verifier, sessions: sessions, perms: perms, logger: logger, metrics: metrics}
}

// Authenticate verifies the bearer token and its session, then attaches the
// caller identity to the request context.
func (g *Gate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			httpx.RespondError(w, shared.ErrAuthentication)
			return
		}
		claims, err := g.verifier.Verify(raw)
		if err != nil {
			httpx.RespondError(w, shared.ErrAuthentication)
			return
		}
		if _, err := g.sessions.Validate(r.Context(), claims.SessionID); err != nil {
			httpx.RespondError(w, shared.ErrAuthentication)
			return
		}
		super, err := g.perms.IsSuperAdmin(r.Context(), claims.UserID)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		identity := shared.Identity{
			UserID:     claims.UserID,
			SessionID:  claims.SessionID,
			SuperAdmin: super,
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), identity)))
	})
}

// Require returns a middleware that rejects callers whose effective
// permission set does not cover perm. It satisfies shared.PermissionGuard.
func (g *Gate) Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, shared.ErrAuthentication)
				return
			}
			if identity.SuperAdmin {
				next.ServeHTTP(w, r)
				return
			}
			granted, err := g.perms.EffectivePermissions(r.Context(), identity.UserID)
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			if !permission.HasPermission(granted, perm) {
				if g.metrics != nil {
					g.metrics.RecordPermissionDenied()
				}
				if g.logger != nil {
					g.logger.Info("permission denied",
						slog.String("user_id", identity.UserID),
						slog.String("permission", perm))
				}
				httpx.RespondError(w, shared.ErrAuthorization)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

var _ shared.PermissionGuard = (*Gate)(nil).Require

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
