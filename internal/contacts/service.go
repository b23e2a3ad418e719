package contacts

import (
	"context"
	"fmt"
	"strings"

	"github.com/aegis-admin/aegis-admin/internal/shared"
)

// Service wraps contact business rules.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// Create validates and stores a new contact.
func (s *Service) Create(ctx context.Context, actorID string, contact Contact) (Contact, error) {
	contact.Name = strings.TrimSpace(contact.Name)
	contact.Email = strings.ToLower(strings.TrimSpace(contact.Email))
	if contact.Name == "" {
		return Contact{}, fmt.Errorf("%w: contact name is required", shared.ErrValidation)
	}
	created, err := s.repo.Create(ctx, contact)
	if err != nil {
		return Contact{}, err
	}
	s.record(ctx, actorID, "contact.create", created.ID)
	return created, nil
}

// Get fetches a contact by id.
func (s *Service) Get(ctx context.Context, id string) (Contact, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a filtered page of contacts.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Contact, shared.Pagination, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.List(ctx, filter)
}

// Update applies a patch to an existing contact.
func (s *Service) Update(ctx context.Context, actorID, id string, patch UpdatePatch) (Contact, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Contact{}, err
	}
	applyPatch(&current, patch)
	if current.Name == "" {
		return Contact{}, fmt.Errorf("%w: contact name is required", shared.ErrValidation)
	}
	updated, err := s.repo.Update(ctx, current)
	if err != nil {
		return Contact{}, err
	}
	s.record(ctx, actorID, "contact.update", updated.ID)
	return updated, nil
}

// Delete removes a contact.
func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "contact.delete", id)
	return nil
}

func applyPatch(contact *Contact, patch UpdatePatch) {
	if patch.Name != nil {
		contact.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		contact.Email = strings.ToLower(strings.TrimSpace(*patch.Email))
	}
	if patch.Phone != nil {
		contact.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.Company != nil {
		contact.Company = strings.TrimSpace(*patch.Company)
	}
	if patch.Notes != nil {
		contact.Notes = *patch.Notes
	}
}

func (s *Service) record(ctx context.Context, actorID, action, entityID string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "contact",
		EntityID: entityID,
	})
}
