package rbac

// The permission model is pure: checks run against the locally cached
// principal snapshot before any store call, and never return errors. Absent
// or unresolved roles fail closed.

// HasPermission reports whether the principal's role grants perm, either
// directly or through the system_admin super-permission.
func HasPermission(p *Principal, perm PermissionID) bool {
	if p == nil || p.Role == nil {
		return false
	}
	return p.Role.Has(perm) || p.Role.Has(PermSystemAdmin)
}

// IsAdmin reports whether the principal is an administrator: either the
// admin role by name, or any role carrying system_admin. Every consumer
// calls this instead of re-deriving the condition.
func IsAdmin(p *Principal) bool {
	if p == nil {
		return false
	}
	if p.RoleName == RoleAdmin {
		return true
	}
	return p.Role != nil && p.Role.Has(PermSystemAdmin)
}

// IsModerator reports whether the principal moderates content.
func IsModerator(p *Principal) bool {
	if p == nil {
		return false
	}
	return p.RoleName == RoleModerator || HasPermission(p, PermModerateComments)
}
