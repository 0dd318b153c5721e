package rbac

import (
	"sort"
	"time"
)

// PermissionID is an atomic capability drawn from the fixed catalog. Unknown
// ids are still checked literally; the model reports them absent rather than
// rejecting them.
type PermissionID string

// Permission catalog.
const (
	PermViewDashboard     PermissionID = "view_dashboard"
	PermManageWallpapers  PermissionID = "manage_wallpapers"
	PermUploadWallpapers  PermissionID = "upload_wallpapers"
	PermDeleteWallpapers  PermissionID = "delete_wallpapers"
	PermApproveWallpapers PermissionID = "approve_wallpapers"
	PermManageUsers       PermissionID = "manage_users"
	PermViewUsers         PermissionID = "view_users"
	PermDeleteUsers       PermissionID = "delete_users"
	PermManageComments    PermissionID = "manage_comments"
	PermModerateComments  PermissionID = "moderate_comments"
	PermViewAnalytics     PermissionID = "view_analytics"
	PermManageSettings    PermissionID = "manage_settings"
	PermManageRoles       PermissionID = "manage_roles"

	// PermSystemAdmin is the super-permission: its presence in a role's set
	// satisfies every permission check.
	PermSystemAdmin PermissionID = "system_admin"
)

// PermissionInfo describes a catalog entry for display.
type PermissionInfo struct {
	ID       PermissionID `json:"id"`
	Name     string       `json:"name"`
	Category string       `json:"category"`
}

// Catalog returns the fixed permission catalog in display order.
func Catalog() []PermissionInfo {
	return []PermissionInfo{
		{PermViewDashboard, "View Dashboard", "Dashboard"},
		{PermManageWallpapers, "Manage Wallpapers", "Content"},
		{PermUploadWallpapers, "Upload Wallpapers", "Content"},
		{PermDeleteWallpapers, "Delete Wallpapers", "Content"},
		{PermApproveWallpapers, "Approve Wallpapers", "Content"},
		{PermManageComments, "Manage Comments", "Content"},
		{PermModerateComments, "Moderate Comments", "Content"},
		{PermManageUsers, "Manage Users", "Users"},
		{PermViewUsers, "View Users", "Users"},
		{PermDeleteUsers, "Delete Users", "Users"},
		{PermViewAnalytics, "View Analytics", "Analytics"},
		{PermManageSettings, "Manage Settings", "Settings"},
		{PermManageRoles, "Manage Roles", "System"},
		{PermSystemAdmin, "System Administrator", "System"},
	}
}

// CatalogByCategory groups the catalog for the admin permission picker.
func CatalogByCategory() map[string][]PermissionInfo {
	grouped := make(map[string][]PermissionInfo)
	for _, p := range Catalog() {
		grouped[p.Category] = append(grouped[p.Category], p)
	}
	return grouped
}

// Role represents a named, prioritized bundle of permissions.
type Role struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	DisplayName  string         `json:"display_name"`
	Description  string         `json:"description"`
	Permissions  []PermissionID `json:"permissions"`
	Color        string         `json:"color"`
	Priority     int            `json:"priority"`
	IsSystemRole bool           `json:"is_system_role"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Has reports whether the role's own permission set contains perm. It does
// not apply the system_admin override; use HasPermission for checks.
func (r Role) Has(perm PermissionID) bool {
	for _, p := range r.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// Principal is the authenticated actor as seen by permission checks: the
// profile's stable id, its role name, and the resolved role (nil when the
// role could not be resolved, which fails every check).
type Principal struct {
	ID       string
	RoleName string
	Role     *Role
}

// SortRoles orders roles by priority descending, ties broken by name
// ascending, so listings are deterministic.
func SortRoles(roles []Role) {
	sort.SliceStable(roles, func(i, j int) bool {
		if roles[i].Priority != roles[j].Priority {
			return roles[i].Priority > roles[j].Priority
		}
		return roles[i].Name < roles[j].Name
	})
}

// Baseline role names seeded at install time.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)
