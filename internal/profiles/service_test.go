package profiles

import (
	"context"
	"errors"
	"testing"

	"github.com/wallhub/wallhub/internal/rbac"
)

type stubRepo struct {
	profiles map[string]*Profile
	applied  map[string]Update
	statuses map[string]string
	fetchErr error
}

func newStubRepo(profiles ...*Profile) *stubRepo {
	s := &stubRepo{
		profiles: make(map[string]*Profile),
		applied:  make(map[string]Update),
		statuses: make(map[string]string),
	}
	for _, p := range profiles {
		s.profiles[p.ID] = p
	}
	return s
}

func (s *stubRepo) Fetch(ctx context.Context, id string) (*Profile, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, errors.New("no rows")
	}
	return p, nil
}

func (s *stubRepo) List(ctx context.Context, filters ListFilters) ([]Profile, error) {
	var out []Profile
	for _, p := range s.profiles {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubRepo) Apply(ctx context.Context, id string, update Update) (*Profile, error) {
	s.applied[id] = update
	return s.profiles[id], nil
}

func (s *stubRepo) SetStatus(ctx context.Context, userID, status string) error {
	s.statuses[userID] = status
	return nil
}

type stubRoles struct {
	roles map[string]rbac.Role
	err   error
}

func (s *stubRoles) List(ctx context.Context) ([]rbac.Role, error) { return nil, nil }

func (s *stubRoles) GetByName(ctx context.Context, name string) (rbac.Role, error) {
	if s.err != nil {
		return rbac.Role{}, s.err
	}
	r, ok := s.roles[name]
	if !ok {
		return rbac.Role{}, rbac.ErrNotFound
	}
	return r, nil
}

func (s *stubRoles) Create(ctx context.Context, role rbac.Role) (rbac.Role, error) {
	return role, nil
}

func (s *stubRoles) Update(ctx context.Context, role rbac.Role) (rbac.Role, error) {
	return role, nil
}

func (s *stubRoles) Delete(ctx context.Context, name string) error { return nil }

func TestResolvePrincipalAttachesRole(t *testing.T) {
	repo := newStubRepo(&Profile{ID: "u1", RoleName: "moderator"})
	roles := &stubRoles{roles: map[string]rbac.Role{
		"moderator": {Name: "moderator", Permissions: []rbac.PermissionID{rbac.PermModerateComments}},
	}}
	svc := NewService(repo, roles)

	principal, err := svc.ResolvePrincipal(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ResolvePrincipal: %v", err)
	}
	if principal.Role == nil {
		t.Fatal("expected role to be resolved")
	}
	if !rbac.HasPermission(principal, rbac.PermModerateComments) {
		t.Fatal("moderator should hold moderate_comments")
	}
}

func TestResolvePrincipalUnknownRoleFailsClosed(t *testing.T) {
	repo := newStubRepo(&Profile{ID: "u1", RoleName: "ghost"})
	svc := NewService(repo, &stubRoles{})

	principal, err := svc.ResolvePrincipal(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ResolvePrincipal: %v", err)
	}
	if principal.Role != nil {
		t.Fatal("unresolvable role must stay nil")
	}
	if rbac.HasPermission(principal, rbac.PermViewDashboard) {
		t.Fatal("nil role must deny everything")
	}
}

func TestResolvePrincipalStoreErrorPropagates(t *testing.T) {
	repo := newStubRepo(&Profile{ID: "u1", RoleName: "user"})
	svc := NewService(repo, &stubRoles{err: errors.New("connection refused")})

	if _, err := svc.ResolvePrincipal(context.Background(), "u1"); err == nil {
		t.Fatal("expected store error to propagate")
	}
}

func TestChangeStatusValidatesInput(t *testing.T) {
	repo := newStubRepo(&Profile{ID: "u1"})
	svc := NewService(repo, &stubRoles{})

	if err := svc.ChangeStatus(context.Background(), "u1", Status("frozen")); err == nil {
		t.Fatal("unknown status must be rejected")
	}
	if len(repo.statuses) != 0 {
		t.Fatal("no write may happen on rejected status")
	}

	if err := svc.ChangeStatus(context.Background(), "u1", StatusSuspended); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if repo.statuses["u1"] != "suspended" {
		t.Fatalf("got status %q", repo.statuses["u1"])
	}
}

func TestUpdateSelfPassesPartialUpdate(t *testing.T) {
	repo := newStubRepo(&Profile{ID: "u1"})
	svc := NewService(repo, &stubRoles{})

	bio := "wallpaper enjoyer"
	if _, err := svc.UpdateSelf(context.Background(), "u1", Update{Bio: &bio}); err != nil {
		t.Fatalf("UpdateSelf: %v", err)
	}
	update, ok := repo.applied["u1"]
	if !ok {
		t.Fatal("update was not applied")
	}
	if update.Bio == nil || *update.Bio != bio {
		t.Fatal("bio not forwarded")
	}
	if update.FullName != nil {
		t.Fatal("untouched fields must stay nil")
	}
}
