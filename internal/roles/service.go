package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aegis-admin/aegis-admin/internal/permission"
	"github.com/aegis-admin/aegis-admin/internal/registry"
	"github.com/aegis-admin/aegis-admin/internal/shared"
)

// ResyncEnqueuer schedules a recomputation of the materialized permission
// sets of every user holding a role.
type ResyncEnqueuer interface {
	EnqueueRoleResync(ctx context.Context, roleName string) error
}

// Service orchestrates role lifecycle rules: name uniqueness, normalization
// on every write, and guarded deletion.
type Service struct {
	repo     Repository
	registry *registry.Registry
	users    ActiveUserCounter
	audit    *shared.AuditLogger
	resync   ResyncEnqueuer
}

// NewService constructs a Service.
func NewService(repo Repository, reg *registry.Registry, users ActiveUserCounter, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, registry: reg, users: users, audit: audit}
}

// WithResyncEnqueuer wires background resyncs for permission changes.
func (s *Service) WithResyncEnqueuer(r ResyncEnqueuer) *Service {
	s.resync = r
	return s
}

// Create stores a new role with normalized permissions. A live role with the
// same name rejects the call with ErrConflict.
func (s *Service) Create(ctx context.Context, actorID, name string, perms []string) (Role, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	if _, err := s.repo.GetByName(ctx, name); err == nil {
		return Role{}, fmt.Errorf("%w: role %q already exists", shared.ErrConflict, name)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return Role{}, err
	}
	normalized, err := permission.Normalize(s.registry, perms)
	if err != nil {
		return Role{}, err
	}
	role, err := s.repo.Create(ctx, Role{Name: name, Permissions: normalized})
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, actorID, "role.create", role.ID, map[string]any{"name": role.Name})
	return role, nil
}

// Get fetches a live role by id.
func (s *Service) Get(ctx context.Context, id string) (Role, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all live roles.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// Update applies a patch. Renames re-check uniqueness; permission changes are
// re-normalized before persisting.
func (s *Service) Update(ctx context.Context, actorID, id string, patch UpdatePatch) (Role, error) {
	role, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Role{}, err
	}
	if patch.Name != nil {
		newName := strings.TrimSpace(strings.ToLower(*patch.Name))
		if newName == "" {
			return Role{}, fmt.Errorf("%w: role name required", shared.ErrValidation)
		}
		if newName != role.Name {
			if _, err := s.repo.GetByName(ctx, newName); err == nil {
				return Role{}, fmt.Errorf("%w: role %q already exists", shared.ErrConflict, newName)
			} else if !errors.Is(err, shared.ErrNotFound) {
				return Role{}, err
			}
			role.Name = newName
		}
	}
	if patch.Permissions != nil {
		normalized, err := permission.Normalize(s.registry, patch.Permissions)
		if err != nil {
			return Role{}, err
		}
		role.Permissions = normalized
	}
	updated, err := s.repo.Update(ctx, role)
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, actorID, "role.update", updated.ID, map[string]any{"name": updated.Name})
	if patch.Permissions != nil && s.resync != nil {
		_ = s.resync.EnqueueRoleResync(ctx, updated.Name)
	}
	return updated, nil
}

// Delete soft-deletes a role. Default roles are protected; roles still
// referenced by active users cannot be removed.
func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	role, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if role.IsDefault {
		return fmt.Errorf("%w: role %q is protected", shared.ErrConflict, role.Name)
	}
	count, err := s.users.CountByRoleName(ctx, role.Name)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: role %q is in use by %d users", shared.ErrConflict, role.Name, count)
	}
	if err := s.repo.SoftDelete(ctx, id, time.Now().UTC()); err != nil {
		return err
	}
	s.record(ctx, actorID, "role.delete", id, map[string]any{"name": role.Name})
	return nil
}

// ResolveUserPermissions computes the effective permission set for the given
// role names plus custom overrides. The super_admin sentinel short-circuits
// to the global wildcard; any unknown role name fails the whole call.
func (s *Service) ResolveUserPermissions(ctx context.Context, roleNames, custom []string) ([]string, error) {
	for _, name := range roleNames {
		if name == SuperAdminRole {
			return []string{"*"}, nil
		}
	}
	var union []string
	for _, name := range roleNames {
		role, err := s.repo.GetByName(ctx, name)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, fmt.Errorf("%w: %q", shared.ErrInvalidRole, name)
			}
			return nil, err
		}
		union = append(union, role.Permissions...)
	}
	union = append(union, custom...)
	return permission.Normalize(s.registry, union)
}

func (s *Service) record(ctx context.Context, actorID, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "role",
		EntityID: entityID,
		Meta:     meta,
	})
}
