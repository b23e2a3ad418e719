package access

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/aegis-admin/aegis-admin/internal/roles"
	"github.com/aegis-admin/aegis-admin/internal/shared"
)

// Resolver computes the effective permission set for roles plus overrides.
// Satisfied by the roles service.
type Resolver interface {
	ResolveUserPermissions(ctx context.Context, roleNames, custom []string) ([]string, error)
}

// Service manages user access records and keeps the materialized
// effective-permission sets in sync with their inputs.
type Service struct {
	repo     Repository
	resolver Resolver
	cache    *Cache
	logger   *slog.Logger
	audit    *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, resolver Resolver, cache *Cache, logger *slog.Logger, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, resolver: resolver, cache: cache, logger: logger, audit: audit}
}

// SetAccess replaces a user's roles and custom overrides, recomputing the
// materialized set in the same write.
func (s *Service) SetAccess(ctx context.Context, actorID, userID string, roleNames, custom []string) (Access, error) {
	effective, err := s.resolver.ResolveUserPermissions(ctx, roleNames, custom)
	if err != nil {
		return Access{}, err
	}
	record := Access{
		UserID:               userID,
		RoleNames:            roleNames,
		CustomPermissions:    custom,
		EffectivePermissions: effective,
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return Access{}, err
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil && s.logger != nil {
		s.logger.Warn("invalidate permission cache", slog.String("user_id", userID), slog.Any("error", err))
	}
	s.record(ctx, actorID, "access.set", userID, map[string]any{"roles": roleNames})
	return record, nil
}

// AssignByEmail grants a role (plus optional overrides) to the user owning
// the email address.
func (s *Service) AssignByEmail(ctx context.Context, actorID, email, role string, custom []string) (Access, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	userID, err := s.repo.FindUserIDByEmail(ctx, email)
	if err != nil {
		return Access{}, err
	}
	return s.SetAccess(ctx, actorID, userID, []string{role}, custom)
}

// Get fetches the raw access record.
func (s *Service) Get(ctx context.Context, userID string) (Access, error) {
	return s.repo.Get(ctx, userID)
}

// EffectivePermissions returns the caller's permission set, reading through
// the cache. Users without an access record get an empty set: the gate
// denies by default.
func (s *Service) EffectivePermissions(ctx context.Context, userID string) ([]string, error) {
	if perms, ok := s.cache.Get(ctx, userID); ok {
		return perms, nil
	}
	record, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	if err := s.cache.Set(ctx, userID, record.EffectivePermissions); err != nil && s.logger != nil {
		s.logger.Warn("populate permission cache", slog.String("user_id", userID), slog.Any("error", err))
	}
	return record.EffectivePermissions, nil
}

// IsSuperAdmin reports whether the user holds the sentinel role.
func (s *Service) IsSuperAdmin(ctx context.Context, userID string) (bool, error) {
	record, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	for _, name := range record.RoleNames {
		if name == roles.SuperAdminRole {
			return true, nil
		}
	}
	return false, nil
}

// Resync recomputes one user's materialized set from its stored inputs.
func (s *Service) Resync(ctx context.Context, userID string) error {
	record, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	effective, err := s.resolver.ResolveUserPermissions(ctx, record.RoleNames, record.CustomPermissions)
	if err != nil {
		return err
	}
	record.EffectivePermissions = effective
	if err := s.repo.Upsert(ctx, record); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, userID)
}

// ResyncRole recomputes every user referencing the role, bounded at a small
// number of concurrent recomputations. Used after a role's permissions
// change so materialized sets do not drift.
func (s *Service) ResyncRole(ctx context.Context, roleName string) error {
	ids, err := s.repo.ListUserIDsByRoleName(ctx, roleName)
	if err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			return s.Resync(ctx, id)
		})
	}
	return g.Wait()
}

func (s *Service) record(ctx context.Context, actorID, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user_access",
		EntityID: entityID,
		Meta:     meta,
	})
}
