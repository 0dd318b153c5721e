package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wallhub/wallhub/internal/platform/httpx"
)

// RolesHandler manages role administration endpoints.
type RolesHandler struct {
	logger    *slog.Logger
	guard     *Guard
	rbac      Middleware
	validator *validator.Validate
}

// NewRolesHandler builds RolesHandler instance.
func NewRolesHandler(logger *slog.Logger, guard *Guard, rbac Middleware) *RolesHandler {
	return &RolesHandler{logger: logger, guard: guard, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers role routes.
func (h *RolesHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		// The user table needs role colors and display names, so viewing
		// users is enough to list roles.
		r.Use(h.rbac.RequireAny(PermViewUsers, PermManageRoles))
		r.Get("/", h.listRoles)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(PermManageRoles))
		r.Post("/", h.createRole)
		r.Put("/{name}", h.updateRole)
		r.Delete("/{name}", h.deleteRole)
	})
}

type roleForm struct {
	Name        string   `json:"name" validate:"required,min=2,max=40"`
	DisplayName string   `json:"display_name" validate:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	Color       string   `json:"color" validate:"omitempty,hexcolor"`
	Priority    int      `json:"priority" validate:"gte=0"`
}

func (h *RolesHandler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.guard.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (h *RolesHandler) createRole(w http.ResponseWriter, r *http.Request) {
	form, ok := h.decodeRoleForm(w, r)
	if !ok {
		return
	}
	actor := PrincipalFromContext(r.Context())
	created, err := h.guard.CreateRole(r.Context(), actor, form.toRole())
	if err != nil {
		h.respondGuardError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *RolesHandler) updateRole(w http.ResponseWriter, r *http.Request) {
	form, ok := h.decodeRoleForm(w, r)
	if !ok {
		return
	}
	role := form.toRole()
	role.Name = chi.URLParam(r, "name")
	actor := PrincipalFromContext(r.Context())
	updated, err := h.guard.UpdateRole(r.Context(), actor, role)
	if err != nil {
		h.respondGuardError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *RolesHandler) deleteRole(w http.ResponseWriter, r *http.Request) {
	actor := PrincipalFromContext(r.Context())
	if err := h.guard.DeleteRole(r.Context(), actor, chi.URLParam(r, "name")); err != nil {
		h.respondGuardError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RolesHandler) decodeRoleForm(w http.ResponseWriter, r *http.Request) (roleForm, bool) {
	var form roleForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return form, false
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return form, false
	}
	return form, true
}

func (f roleForm) toRole() Role {
	perms := make([]PermissionID, len(f.Permissions))
	for i, p := range f.Permissions {
		perms[i] = PermissionID(p)
	}
	return Role{
		Name:        f.Name,
		DisplayName: f.DisplayName,
		Description: f.Description,
		Permissions: perms,
		Color:       f.Color,
		Priority:    f.Priority,
	}
}

func (h *RolesHandler) respondGuardError(w http.ResponseWriter, err error) {
	RespondGuardError(w, h.logger, err)
}

// RespondGuardError maps guard errors onto problem responses. Handlers that
// route mutations through the guard share this mapping.
func RespondGuardError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrRoleInUse),
		errors.Is(err, ErrSystemRole),
		errors.Is(err, ErrSelfDemotion),
		errors.Is(err, ErrSelfDeletion),
		errors.Is(err, ErrSelfTarget):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		logger.Error("guard operation", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUnavailable)
	}
}
