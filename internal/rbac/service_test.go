package rbac

import "testing"

func roleWith(name string, perms ...PermissionID) *Role {
	return &Role{Name: name, Permissions: perms}
}

func principalWith(role *Role) *Principal {
	p := &Principal{ID: "u1", Role: role}
	if role != nil {
		p.RoleName = role.Name
	}
	return p
}

func TestHasPermissionDirectGrant(t *testing.T) {
	p := principalWith(roleWith("editor", PermManageWallpapers))
	if !HasPermission(p, PermManageWallpapers) {
		t.Fatalf("expected manage_wallpapers to be granted")
	}
	if HasPermission(p, PermDeleteUsers) {
		t.Fatalf("expected delete_users to be denied")
	}
	if IsAdmin(p) {
		t.Fatalf("editor must not be admin")
	}
}

func TestHasPermissionSystemAdminOverride(t *testing.T) {
	p := principalWith(roleWith("ops", PermSystemAdmin))
	for _, perm := range Catalog() {
		if !HasPermission(p, perm.ID) {
			t.Fatalf("system_admin should satisfy %s", perm.ID)
		}
	}
	// Unknown ids are checked literally and satisfied by the override too.
	if !HasPermission(p, PermissionID("made_up_permission")) {
		t.Fatalf("system_admin should satisfy unknown permissions")
	}
}

func TestHasPermissionFailsClosed(t *testing.T) {
	if HasPermission(nil, PermViewDashboard) {
		t.Fatalf("nil principal must deny")
	}
	if HasPermission(&Principal{ID: "u1", RoleName: "ghost"}, PermViewDashboard) {
		t.Fatalf("unresolved role must deny")
	}
	empty := principalWith(roleWith("none"))
	if HasPermission(empty, PermViewDashboard) {
		t.Fatalf("empty permission set must deny")
	}
}

func TestHasPermissionUnknownIDReportedAbsent(t *testing.T) {
	p := principalWith(roleWith("editor", PermManageWallpapers))
	if HasPermission(p, PermissionID("not_in_catalog")) {
		t.Fatalf("unknown permission must be reported absent, not rejected")
	}
}

func TestIsAdminByRoleName(t *testing.T) {
	// An admin role with an empty permission list still counts by name.
	p := principalWith(roleWith(RoleAdmin))
	if !IsAdmin(p) {
		t.Fatalf("role_name admin must be admin regardless of permissions")
	}
}

func TestIsAdminBySystemAdmin(t *testing.T) {
	p := principalWith(roleWith("superops", PermSystemAdmin))
	if !IsAdmin(p) {
		t.Fatalf("system_admin role must be admin")
	}
}

func TestIsAdminConsistentWithHasPermission(t *testing.T) {
	// Any principal granted everything by hasPermission must be admin.
	p := principalWith(roleWith("x", PermSystemAdmin))
	if HasPermission(p, PermDeleteUsers) && !IsAdmin(p) {
		t.Fatalf("isAdmin diverged from hasPermission")
	}
}

func TestIsModerator(t *testing.T) {
	byName := principalWith(roleWith(RoleModerator))
	if !IsModerator(byName) {
		t.Fatalf("role_name moderator must be moderator")
	}
	byPerm := principalWith(roleWith("helper", PermModerateComments))
	if !IsModerator(byPerm) {
		t.Fatalf("moderate_comments must imply moderator")
	}
	plain := principalWith(roleWith(RoleUser))
	if IsModerator(plain) {
		t.Fatalf("plain user must not be moderator")
	}
}

func TestSortRolesPriorityThenName(t *testing.T) {
	roles := []Role{
		{Name: "user", Priority: 10},
		{Name: "editor", Priority: 50},
		{Name: "admin", Priority: 100},
		{Name: "curator", Priority: 50},
	}
	SortRoles(roles)

	want := []string{"admin", "curator", "editor", "user"}
	for i, name := range want {
		if roles[i].Name != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, roles[i].Name)
		}
	}
}
