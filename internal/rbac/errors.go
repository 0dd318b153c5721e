package rbac

import "errors"

var (
	// ErrNotFound indicates that the requested record does not exist.
	ErrNotFound = errors.New("rbac: not found")
	// ErrAlreadyExists indicates a role name collision.
	ErrAlreadyExists = errors.New("rbac: role already exists")
	// ErrPermissionDenied indicates the actor lacks the required permission.
	ErrPermissionDenied = errors.New("rbac: permission denied")
	// ErrSelfDemotion blocks an admin changing their own role away from admin.
	ErrSelfDemotion = errors.New("rbac: cannot change your own admin role")
	// ErrSelfDeletion blocks an actor deleting their own account.
	ErrSelfDeletion = errors.New("rbac: cannot delete your own account")
	// ErrSelfTarget blocks bulk actions that include the acting user.
	ErrSelfTarget = errors.New("rbac: cannot perform bulk actions on your own account")
	// ErrRoleInUse blocks deleting a role still referenced by profiles.
	ErrRoleInUse = errors.New("rbac: role is assigned to users")
	// ErrSystemRole blocks deleting built-in roles.
	ErrSystemRole = errors.New("rbac: system roles cannot be deleted")
)
