package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wallhub/wallhub/internal/platform/httpx"
)

// PermissionsHandler serves the fixed permission catalog for the admin UI.
type PermissionsHandler struct {
	rbac Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(PermViewUsers, PermManageRoles))
		r.Get("/", h.listPermissions)
	})
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"permissions": Catalog(),
		"categories":  CatalogByCategory(),
	})
}
