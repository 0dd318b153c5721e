package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallhub/wallhub/internal/shared"
)

type stubProfileStore struct {
	roleByUser   map[string]string
	statusByUser map[string]string
	deleted      map[string]bool

	setRoleErr   error
	setStatusErr map[string]error
	deleteErr    map[string]error
}

func newStubProfileStore() *stubProfileStore {
	return &stubProfileStore{
		roleByUser:   make(map[string]string),
		statusByUser: make(map[string]string),
		deleted:      make(map[string]bool),
	}
}

func (s *stubProfileStore) SetRole(ctx context.Context, userID, roleName string) error {
	if s.setRoleErr != nil {
		return s.setRoleErr
	}
	s.roleByUser[userID] = roleName
	return nil
}

func (s *stubProfileStore) SetStatus(ctx context.Context, userID, status string) error {
	if err := s.setStatusErr[userID]; err != nil {
		return err
	}
	s.statusByUser[userID] = status
	return nil
}

func (s *stubProfileStore) Delete(ctx context.Context, userID string) error {
	if err := s.deleteErr[userID]; err != nil {
		return err
	}
	s.deleted[userID] = true
	return nil
}

func (s *stubProfileStore) CountByRole(ctx context.Context, roleName string) (int, error) {
	count := 0
	for _, role := range s.roleByUser {
		if role == roleName {
			count++
		}
	}
	return count, nil
}

type stubRoleStore struct {
	roles map[string]Role
}

func newStubRoleStore(roles ...Role) *stubRoleStore {
	s := &stubRoleStore{roles: make(map[string]Role)}
	for _, r := range roles {
		s.roles[r.Name] = r
	}
	return s
}

func (s *stubRoleStore) List(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(s.roles))
	for _, r := range s.roles {
		out = append(out, r)
	}
	return out, nil
}

func (s *stubRoleStore) GetByName(ctx context.Context, name string) (Role, error) {
	r, ok := s.roles[name]
	if !ok {
		return Role{}, ErrNotFound
	}
	return r, nil
}

func (s *stubRoleStore) Create(ctx context.Context, role Role) (Role, error) {
	if _, ok := s.roles[role.Name]; ok {
		return Role{}, ErrAlreadyExists
	}
	s.roles[role.Name] = role
	return role, nil
}

func (s *stubRoleStore) Update(ctx context.Context, role Role) (Role, error) {
	if _, ok := s.roles[role.Name]; !ok {
		return Role{}, ErrNotFound
	}
	s.roles[role.Name] = role
	return role, nil
}

func (s *stubRoleStore) Delete(ctx context.Context, name string) error {
	if _, ok := s.roles[name]; !ok {
		return ErrNotFound
	}
	delete(s.roles, name)
	return nil
}

type recordingNotifier struct {
	kinds    []string
	messages []string
}

func (n *recordingNotifier) Notify(ctx context.Context, kind, message string) {
	n.kinds = append(n.kinds, kind)
	n.messages = append(n.messages, message)
}

func adminPrincipal(id string) *Principal {
	role := &Role{Name: RoleAdmin, Permissions: []PermissionID{PermSystemAdmin}, Priority: 100, IsSystemRole: true}
	return &Principal{ID: id, RoleName: RoleAdmin, Role: role}
}

func newGuardFixture(t *testing.T) (*Guard, *stubProfileStore, *stubRoleStore, *recordingNotifier) {
	t.Helper()
	profileStore := newStubProfileStore()
	roleStore := newStubRoleStore(
		Role{Name: RoleAdmin, Permissions: []PermissionID{PermSystemAdmin}, Priority: 100, IsSystemRole: true},
		Role{Name: RoleModerator, Permissions: []PermissionID{PermModerateComments, PermManageWallpapers}, Priority: 50, IsSystemRole: true},
		Role{Name: RoleUser, Permissions: nil, Priority: 10, IsSystemRole: true},
	)
	notifier := &recordingNotifier{}
	guard := NewGuard(profileStore, roleStore, nil, notifier, nil)
	return guard, profileStore, roleStore, notifier
}

func TestChangeRoleSelfDemotionBlocked(t *testing.T) {
	guard, profileStore, _, notifier := newGuardFixture(t)
	actor := adminPrincipal("u1")
	profileStore.roleByUser["u1"] = RoleAdmin

	err := guard.ChangeRole(context.Background(), actor, "u1", RoleUser)
	require.ErrorIs(t, err, ErrSelfDemotion)
	assert.Equal(t, RoleAdmin, profileStore.roleByUser["u1"], "role must be unchanged")
	require.NotEmpty(t, notifier.kinds)
	assert.Equal(t, shared.NotifyError, notifier.kinds[0])
}

func TestChangeRoleSelfToAdminAllowed(t *testing.T) {
	guard, profileStore, _, _ := newGuardFixture(t)
	actor := adminPrincipal("u1")
	profileStore.roleByUser["u1"] = RoleAdmin

	// Reasserting the admin role on yourself is not a demotion.
	err := guard.ChangeRole(context.Background(), actor, "u1", RoleAdmin)
	require.NoError(t, err)
}

func TestChangeRoleRequiresManageUsers(t *testing.T) {
	guard, profileStore, _, _ := newGuardFixture(t)
	actor := &Principal{ID: "u2", RoleName: RoleUser, Role: &Role{Name: RoleUser}}

	err := guard.ChangeRole(context.Background(), actor, "u3", RoleModerator)
	require.ErrorIs(t, err, ErrPermissionDenied)
	assert.Empty(t, profileStore.roleByUser)
}

func TestChangeRoleUnknownRoleRejected(t *testing.T) {
	guard, profileStore, _, _ := newGuardFixture(t)
	actor := adminPrincipal("u1")

	err := guard.ChangeRole(context.Background(), actor, "u2", "ghost")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, profileStore.roleByUser)
}

func TestDeleteUserSelfBlockedEvenForSystemAdmin(t *testing.T) {
	guard, profileStore, _, _ := newGuardFixture(t)
	actor := adminPrincipal("u1")

	err := guard.DeleteUser(context.Background(), actor, "u1")
	require.ErrorIs(t, err, ErrSelfDeletion)
	assert.False(t, profileStore.deleted["u1"])
}

func TestDeleteUserRequiresDeleteUsers(t *testing.T) {
	guard, profileStore, _, _ := newGuardFixture(t)
	actor := &Principal{ID: "u1", RoleName: RoleModerator, Role: &Role{Name: RoleModerator, Permissions: []PermissionID{PermModerateComments}}}

	err := guard.DeleteUser(context.Background(), actor, "u2")
	require.ErrorIs(t, err, ErrPermissionDenied)
	assert.False(t, profileStore.deleted["u2"])
}

func TestBulkActionSelfTargetRejectedWholesale(t *testing.T) {
	guard, profileStore, _, notifier := newGuardFixture(t)
	actor := adminPrincipal("u1")

	result, err := guard.BulkAction(context.Background(), actor, []string{"u1", "u2"}, BulkDeactivate)
	require.ErrorIs(t, err, ErrSelfTarget)
	assert.Empty(t, result.Succeeded)
	assert.Empty(t, profileStore.statusByUser, "no status may change")
	require.NotEmpty(t, notifier.kinds)
	assert.Equal(t, shared.NotifyError, notifier.kinds[0])
}

func TestBulkActionContinuesAndCollects(t *testing.T) {
	guard, profileStore, _, _ := newGuardFixture(t)
	actor := adminPrincipal("u1")
	profileStore.setStatusErr = map[string]error{"u3": errors.New("connection reset")}

	result, err := guard.BulkAction(context.Background(), actor, []string{"u2", "u3", "u4"}, BulkActivate)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2", "u4"}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed["u3"], "connection reset")
	assert.Equal(t, "active", profileStore.statusByUser["u2"])
	assert.Equal(t, "active", profileStore.statusByUser["u4"])
}

func TestBulkDeleteRequiresDeleteUsers(t *testing.T) {
	guard, profileStore, _, _ := newGuardFixture(t)
	actor := &Principal{ID: "u1", RoleName: "staff", Role: &Role{Name: "staff", Permissions: []PermissionID{PermManageUsers}}}

	// manage_users is enough for activate/deactivate but not delete.
	_, err := guard.BulkAction(context.Background(), actor, []string{"u2"}, BulkDelete)
	require.ErrorIs(t, err, ErrPermissionDenied)

	result, err := guard.BulkAction(context.Background(), actor, []string{"u2"}, BulkDeactivate)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, result.Succeeded)
	assert.Equal(t, "inactive", profileStore.statusByUser["u2"])
}

func TestDeleteRoleSystemRoleBlocked(t *testing.T) {
	guard, _, roleStore, _ := newGuardFixture(t)
	actor := adminPrincipal("u1")

	err := guard.DeleteRole(context.Background(), actor, RoleModerator)
	require.ErrorIs(t, err, ErrSystemRole)
	_, stillThere := roleStore.roles[RoleModerator]
	assert.True(t, stillThere)
}

func TestDeleteRoleInUseBlocked(t *testing.T) {
	guard, profileStore, roleStore, _ := newGuardFixture(t)
	actor := adminPrincipal("u1")
	roleStore.roles["editor"] = Role{Name: "editor", Priority: 20}
	profileStore.roleByUser["u5"] = "editor"

	err := guard.DeleteRole(context.Background(), actor, "editor")
	require.ErrorIs(t, err, ErrRoleInUse)
	_, stillThere := roleStore.roles["editor"]
	assert.True(t, stillThere)
}

func TestDeleteRoleRemovesFromListing(t *testing.T) {
	guard, _, roleStore, _ := newGuardFixture(t)
	actor := adminPrincipal("u1")
	roleStore.roles["editor"] = Role{Name: "editor", Priority: 20}

	require.NoError(t, guard.DeleteRole(context.Background(), actor, "editor"))

	roles, err := guard.ListRoles(context.Background())
	require.NoError(t, err)
	for _, r := range roles {
		assert.NotEqual(t, "editor", r.Name)
	}
}

func TestCreateRoleRequiresManageRoles(t *testing.T) {
	guard, _, _, _ := newGuardFixture(t)
	actor := &Principal{ID: "u1", RoleName: RoleUser, Role: &Role{Name: RoleUser}}

	_, err := guard.CreateRole(context.Background(), actor, Role{Name: "editor"})
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCreateRoleTrimsAndRejectsEmptyName(t *testing.T) {
	guard, _, roleStore, _ := newGuardFixture(t)
	actor := adminPrincipal("u1")

	_, err := guard.CreateRole(context.Background(), actor, Role{Name: "   "})
	require.Error(t, err)

	created, err := guard.CreateRole(context.Background(), actor, Role{Name: " editor ", Priority: 20})
	require.NoError(t, err)
	assert.Equal(t, "editor", created.Name)
	_, ok := roleStore.roles["editor"]
	assert.True(t, ok)
}

func TestListRolesOrdered(t *testing.T) {
	guard, _, roleStore, _ := newGuardFixture(t)
	roleStore.roles["curator"] = Role{Name: "curator", Priority: 50}

	roles, err := guard.ListRoles(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 4)
	assert.Equal(t, RoleAdmin, roles[0].Name)
	// moderator and curator share priority 50; name ascending breaks the tie.
	assert.Equal(t, "curator", roles[1].Name)
	assert.Equal(t, RoleModerator, roles[2].Name)
	assert.Equal(t, RoleUser, roles[3].Name)
}
