package profiles

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wallhub/wallhub/internal/platform/httpx"
	"github.com/wallhub/wallhub/internal/rbac"
	"github.com/wallhub/wallhub/internal/shared"
)

// Handler manages user administration and self-service endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     *rbac.Guard
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard *rbac.Guard, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, rbac: rbac, validator: validator.New()}
}

// MountAdminRoutes registers user management routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermViewUsers))
		r.Get("/", h.listUsers)
		r.Get("/{id}", h.getUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermManageUsers))
		r.Put("/{id}/status", h.changeStatus)
	})
	r.Group(func(r chi.Router) {
		// Self-protection and permission checks live in the guard; the
		// middleware only asserts a signed-in principal.
		r.Use(h.rbac.RequireAuthenticated())
		r.Put("/{id}/role", h.changeRole)
		r.Delete("/{id}", h.deleteUser)
		r.Post("/bulk", h.bulkAction)
	})
}

// MountSelfRoutes registers the signed-in user's profile routes.
func (h *Handler) MountSelfRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuthenticated())
		r.Get("/", h.me)
		r.Put("/", h.updateMe)
	})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	filters := ListFilters{
		Search: r.URL.Query().Get("search"),
		Role:   r.URL.Query().Get("role"),
		Status: r.URL.Query().Get("status"),
	}
	users, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

type changeRoleForm struct {
	RoleName string `json:"role_name" validate:"required"`
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	var form changeRoleForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := rbac.PrincipalFromContext(r.Context())
	if err := h.guard.ChangeRole(r.Context(), actor, chi.URLParam(r, "id"), form.RoleName); err != nil {
		h.respondGuardError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type changeStatusForm struct {
	Status string `json:"status" validate:"required,oneof=active inactive pending suspended"`
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	var form changeStatusForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.ChangeStatus(r.Context(), chi.URLParam(r, "id"), Status(form.Status)); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("change status", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	actor := rbac.PrincipalFromContext(r.Context())
	if err := h.guard.DeleteUser(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.respondGuardError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bulkActionForm struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1"`
	Action  string   `json:"action" validate:"required,oneof=activate deactivate delete"`
}

func (h *Handler) bulkAction(w http.ResponseWriter, r *http.Request) {
	var form bulkActionForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := rbac.PrincipalFromContext(r.Context())
	result, err := h.guard.BulkAction(r.Context(), actor, form.UserIDs, rbac.BulkActionKind(form.Action))
	if err != nil {
		h.respondGuardError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	actor := rbac.PrincipalFromContext(r.Context())
	profile, err := h.service.Get(r.Context(), actor.ID)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"profile":      profile,
		"role":         actor.Role,
		"is_admin":     rbac.IsAdmin(actor),
		"is_moderator": rbac.IsModerator(actor),
	})
}

type selfUpdateForm struct {
	FullName           *string      `json:"full_name" validate:"omitempty,max=120"`
	Bio                *string      `json:"bio" validate:"omitempty,max=500"`
	Website            *string      `json:"website" validate:"omitempty,url"`
	AvatarURL          *string      `json:"avatar_url" validate:"omitempty,url"`
	FavoriteCategories *[]string    `json:"favorite_categories"`
	Preferences        *Preferences `json:"preferences"`
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	var form selfUpdateForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := rbac.PrincipalFromContext(r.Context())
	profile, err := h.service.UpdateSelf(r.Context(), actor.ID, Update{
		FullName:           form.FullName,
		Bio:                form.Bio,
		Website:            form.Website,
		AvatarURL:          form.AvatarURL,
		FavoriteCategories: form.FavoriteCategories,
		Preferences:        form.Preferences,
	})
	if err != nil {
		h.logger.Error("update profile", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) respondGuardError(w http.ResponseWriter, err error) {
	rbac.RespondGuardError(w, h.logger, err)
}
