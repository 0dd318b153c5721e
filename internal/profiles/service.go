package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/wallhub/wallhub/internal/rbac"
)

// RepositoryPort defines data access methods for profiles.
type RepositoryPort interface {
	Fetch(ctx context.Context, id string) (*Profile, error)
	List(ctx context.Context, filters ListFilters) ([]Profile, error)
	Apply(ctx context.Context, id string, update Update) (*Profile, error)
	SetStatus(ctx context.Context, userID, status string) error
}

// Service handles profile reads and self-service updates. Admin mutations
// go through the rbac guard instead.
type Service struct {
	repo  RepositoryPort
	roles rbac.RoleStore
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, roles rbac.RoleStore) *Service {
	return &Service{repo: repo, roles: roles}
}

// Get returns a single profile.
func (s *Service) Get(ctx context.Context, id string) (*Profile, error) {
	return s.repo.Fetch(ctx, id)
}

// List returns profiles matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Profile, error) {
	return s.repo.List(ctx, filters)
}

// UpdateSelf applies a user's own profile edits.
func (s *Service) UpdateSelf(ctx context.Context, id string, update Update) (*Profile, error) {
	return s.repo.Apply(ctx, id, update)
}

// ChangeStatus sets a single account's status.
func (s *Service) ChangeStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("profiles: unknown status %q", status)
	}
	return s.repo.SetStatus(ctx, id, string(status))
}

// ResolvePrincipal loads the profile/role snapshot permission checks run
// against. A role name that no longer resolves yields a principal with a
// nil role, which denies everything (fail closed) without surfacing an
// error to the caller.
func (s *Service) ResolvePrincipal(ctx context.Context, userID string) (*rbac.Principal, error) {
	profile, err := s.repo.Fetch(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("profiles: fetch %s: %w", userID, err)
	}
	principal := &rbac.Principal{ID: profile.ID, RoleName: profile.RoleName}
	role, err := s.roles.GetByName(ctx, profile.RoleName)
	if err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			return principal, nil
		}
		return nil, fmt.Errorf("profiles: resolve role %q: %w", profile.RoleName, err)
	}
	principal.Role = &role
	return principal, nil
}

var _ rbac.PrincipalResolver = (*Service)(nil)
