package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wallhub/wallhub/internal/shared"
)

// ProfileStore is the slice of the profile repository the guard mutates.
type ProfileStore interface {
	SetRole(ctx context.Context, userID, roleName string) error
	SetStatus(ctx context.Context, userID, status string) error
	Delete(ctx context.Context, userID string) error
	CountByRole(ctx context.Context, roleName string) (int, error)
}

// RoleStore persists role definitions.
type RoleStore interface {
	List(ctx context.Context) ([]Role, error)
	GetByName(ctx context.Context, name string) (Role, error)
	Create(ctx context.Context, role Role) (Role, error)
	Update(ctx context.Context, role Role) (Role, error)
	Delete(ctx context.Context, name string) error
}

// Auditor records admin actions. Satisfied by shared.AuditLogger.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// BulkActionKind enumerates supported bulk operations.
type BulkActionKind string

const (
	BulkActivate   BulkActionKind = "activate"
	BulkDeactivate BulkActionKind = "deactivate"
	BulkDelete     BulkActionKind = "delete"
)

// BulkResult reports the outcome of a bulk action. Per-target failures do
// not abort remaining targets; they are collected here.
type BulkResult struct {
	Succeeded []string          `json:"succeeded"`
	Failed    map[string]string `json:"failed,omitempty"`
}

// Guard enforces self-protection invariants on top of the permission model
// and mediates every mutating admin action. It holds only injected stores,
// no globals. All business-rule checks run locally before any store call;
// when the store write fails nothing is mutated.
type Guard struct {
	profiles ProfileStore
	roles    RoleStore
	audit    Auditor
	notifier shared.Notifier
	logger   *slog.Logger
}

// NewGuard constructs a Guard.
func NewGuard(profiles ProfileStore, roles RoleStore, audit Auditor, notifier shared.Notifier, logger *slog.Logger) *Guard {
	return &Guard{profiles: profiles, roles: roles, audit: audit, notifier: notifier, logger: logger}
}

// ChangeRole moves target to newRole. An admin cannot move themself off the
// admin role.
func (g *Guard) ChangeRole(ctx context.Context, actor *Principal, targetID, newRole string) error {
	if actor != nil && targetID == actor.ID && newRole != RoleAdmin && actor.RoleName == RoleAdmin {
		g.notify(ctx, shared.NotifyError, "You cannot change your own admin role")
		return ErrSelfDemotion
	}
	if !HasPermission(actor, PermManageUsers) {
		g.notify(ctx, shared.NotifyError, "You do not have permission to manage users")
		return ErrPermissionDenied
	}
	if _, err := g.roles.GetByName(ctx, newRole); err != nil {
		return fmt.Errorf("rbac: resolve role %q: %w", newRole, err)
	}
	if err := g.profiles.SetRole(ctx, targetID, newRole); err != nil {
		g.notify(ctx, shared.NotifyError, "Failed to update user role")
		return fmt.Errorf("rbac: change role: %w", err)
	}
	g.record(ctx, actor, "user.role_change", "user_profile", targetID, map[string]any{"role": newRole})
	g.notify(ctx, shared.NotifySuccess, "User role updated successfully")
	return nil
}

// DeleteUser removes the target account. Actors can never delete themselves,
// regardless of permissions.
func (g *Guard) DeleteUser(ctx context.Context, actor *Principal, targetID string) error {
	if actor != nil && targetID == actor.ID {
		g.notify(ctx, shared.NotifyError, "You cannot delete your own account")
		return ErrSelfDeletion
	}
	if !HasPermission(actor, PermDeleteUsers) {
		g.notify(ctx, shared.NotifyError, "You do not have permission to delete users")
		return ErrPermissionDenied
	}
	if err := g.profiles.Delete(ctx, targetID); err != nil {
		g.notify(ctx, shared.NotifyError, "Failed to delete user")
		return fmt.Errorf("rbac: delete user: %w", err)
	}
	g.record(ctx, actor, "user.delete", "user_profile", targetID, nil)
	g.notify(ctx, shared.NotifySuccess, "User deleted successfully")
	return nil
}

// BulkAction applies action to every target. A batch containing the actor is
// rejected wholesale before any mutation. Per-target store failures continue
// with the remaining targets and are collected in the result.
func (g *Guard) BulkAction(ctx context.Context, actor *Principal, targetIDs []string, action BulkActionKind) (BulkResult, error) {
	var result BulkResult
	if len(targetIDs) == 0 {
		return result, nil
	}
	if actor != nil {
		for _, id := range targetIDs {
			if id == actor.ID {
				g.notify(ctx, shared.NotifyError, "You cannot perform bulk actions on your own account")
				return result, ErrSelfTarget
			}
		}
	}

	required := PermManageUsers
	if action == BulkDelete {
		required = PermDeleteUsers
	}
	if !HasPermission(actor, required) {
		g.notify(ctx, shared.NotifyError, "You do not have permission for this bulk action")
		return result, ErrPermissionDenied
	}

	apply := func(ctx context.Context, id string) error {
		switch action {
		case BulkActivate:
			return g.profiles.SetStatus(ctx, id, "active")
		case BulkDeactivate:
			return g.profiles.SetStatus(ctx, id, "inactive")
		case BulkDelete:
			return g.profiles.Delete(ctx, id)
		default:
			return fmt.Errorf("rbac: unknown bulk action %q", action)
		}
	}

	for _, id := range targetIDs {
		if err := apply(ctx, id); err != nil {
			if result.Failed == nil {
				result.Failed = make(map[string]string)
			}
			result.Failed[id] = err.Error()
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}

	g.record(ctx, actor, "user.bulk_"+string(action), "user_profile", "batch", map[string]any{
		"targets":   targetIDs,
		"succeeded": len(result.Succeeded),
		"failed":    len(result.Failed),
	})
	if len(result.Failed) == 0 {
		g.notify(ctx, shared.NotifySuccess, fmt.Sprintf("%d users %sd", len(result.Succeeded), action))
	} else {
		g.notify(ctx, shared.NotifyError, fmt.Sprintf("%d of %d users failed", len(result.Failed), len(targetIDs)))
	}
	return result, nil
}

// CreateRole inserts a new role definition.
func (g *Guard) CreateRole(ctx context.Context, actor *Principal, role Role) (Role, error) {
	if !HasPermission(actor, PermManageRoles) {
		g.notify(ctx, shared.NotifyError, "You do not have permission to manage roles")
		return Role{}, ErrPermissionDenied
	}
	role.Name = strings.TrimSpace(role.Name)
	if role.Name == "" {
		return Role{}, fmt.Errorf("rbac: role name required")
	}
	created, err := g.roles.Create(ctx, role)
	if err != nil {
		g.notify(ctx, shared.NotifyError, "Failed to save role")
		return Role{}, fmt.Errorf("rbac: create role: %w", err)
	}
	g.record(ctx, actor, "role.create", "role", created.Name, map[string]any{"priority": created.Priority})
	g.notify(ctx, shared.NotifySuccess, "Role created successfully")
	return created, nil
}

// UpdateRole replaces a role definition.
func (g *Guard) UpdateRole(ctx context.Context, actor *Principal, role Role) (Role, error) {
	if !HasPermission(actor, PermManageRoles) {
		g.notify(ctx, shared.NotifyError, "You do not have permission to manage roles")
		return Role{}, ErrPermissionDenied
	}
	role.Name = strings.TrimSpace(role.Name)
	if role.Name == "" {
		return Role{}, fmt.Errorf("rbac: role name required")
	}
	updated, err := g.roles.Update(ctx, role)
	if err != nil {
		g.notify(ctx, shared.NotifyError, "Failed to save role")
		return Role{}, fmt.Errorf("rbac: update role: %w", err)
	}
	g.record(ctx, actor, "role.update", "role", updated.Name, map[string]any{"priority": updated.Priority})
	g.notify(ctx, shared.NotifySuccess, "Role updated successfully")
	return updated, nil
}

// DeleteRole removes a role. System roles and roles still referenced by
// profiles are protected.
func (g *Guard) DeleteRole(ctx context.Context, actor *Principal, name string) error {
	if !HasPermission(actor, PermManageRoles) {
		g.notify(ctx, shared.NotifyError, "You do not have permission to manage roles")
		return ErrPermissionDenied
	}
	role, err := g.roles.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("rbac: resolve role %q: %w", name, err)
	}
	if role.IsSystemRole {
		g.notify(ctx, shared.NotifyError, "System roles cannot be deleted")
		return ErrSystemRole
	}
	inUse, err := g.profiles.CountByRole(ctx, name)
	if err != nil {
		return fmt.Errorf("rbac: count role references: %w", err)
	}
	if inUse > 0 {
		g.notify(ctx, shared.NotifyError, fmt.Sprintf("Cannot delete role: %d users are assigned to it", inUse))
		return ErrRoleInUse
	}
	if err := g.roles.Delete(ctx, name); err != nil {
		g.notify(ctx, shared.NotifyError, "Failed to delete role")
		return fmt.Errorf("rbac: delete role: %w", err)
	}
	g.record(ctx, actor, "role.delete", "role", name, nil)
	g.notify(ctx, shared.NotifySuccess, "Role deleted successfully")
	return nil
}

// ListRoles returns all roles in display order.
func (g *Guard) ListRoles(ctx context.Context) ([]Role, error) {
	roles, err := g.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("rbac: list roles: %w", err)
	}
	SortRoles(roles)
	return roles, nil
}

func (g *Guard) notify(ctx context.Context, kind, message string) {
	if g.notifier == nil {
		return
	}
	g.notifier.Notify(ctx, kind, message)
}

func (g *Guard) record(ctx context.Context, actor *Principal, action, entity, entityID string, meta map[string]any) {
	if g.audit == nil {
		return
	}
	actorID := ""
	if actor != nil {
		actorID = actor.ID
	}
	if err := g.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: entity, EntityID: entityID, Meta: meta}); err != nil && g.logger != nil {
		g.logger.Warn("audit record", slog.Any("error", err))
	}
}
