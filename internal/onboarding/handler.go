package onboarding

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wallhub/wallhub/internal/platform/httpx"
	"github.com/wallhub/wallhub/internal/profiles"
	"github.com/wallhub/wallhub/internal/rbac"
)

// Handler exposes the onboarding flow over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers onboarding routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuthenticated())
		r.Get("/", h.getProgress)
		r.Post("/steps/{step}", h.saveStep)
		r.Post("/complete", h.finish)
		r.Post("/restart", h.restart)
	})
}

type stepForm struct {
	FullName           string   `json:"full_name" validate:"omitempty,max=120"`
	Bio                string   `json:"bio" validate:"omitempty,max=500"`
	Website            string   `json:"website" validate:"omitempty,url"`
	AvatarURL          string   `json:"avatar_url" validate:"omitempty,url"`
	FavoriteCategories []string `json:"favorite_categories" validate:"omitempty,max=10"`
	EmailNotifications *bool    `json:"email_notifications"`
	DownloadQuality    string   `json:"download_quality" validate:"omitempty,oneof=low medium high original"`
	Theme              string   `json:"theme" validate:"omitempty,oneof=light dark"`
}

func (h *Handler) getProgress(w http.ResponseWriter, r *http.Request) {
	actor := rbac.PrincipalFromContext(r.Context())
	progress, err := h.service.GetProgress(r.Context(), actor.ID)
	if err != nil {
		h.logger.Error("onboarding progress", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	httpx.JSON(w, http.StatusOK, progress)
}

func (h *Handler) saveStep(w http.ResponseWriter, r *http.Request) {
	var form stepForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor := rbac.PrincipalFromContext(r.Context())
	progress, err := h.service.SaveStep(r.Context(), actor.ID, chi.URLParam(r, "step"), form.toFormData())
	if err != nil {
		h.respondFlowError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, progress)
}

func (h *Handler) finish(w http.ResponseWriter, r *http.Request) {
	actor := rbac.PrincipalFromContext(r.Context())
	profile, err := h.service.Finish(r.Context(), actor.ID)
	if err != nil {
		h.respondFlowError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"profile": profile})
}

func (h *Handler) restart(w http.ResponseWriter, r *http.Request) {
	actor := rbac.PrincipalFromContext(r.Context())
	if err := h.service.Restart(r.Context(), actor.ID); err != nil {
		h.respondFlowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondFlowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownStep):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrStepOutOfOrder), errors.Is(err, ErrAlreadyCompleted):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error("onboarding", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUnavailable)
	}
}

func (f stepForm) toFormData() FormData {
	data := FormData{
		FullName:           f.FullName,
		Bio:                f.Bio,
		Website:            f.Website,
		AvatarURL:          f.AvatarURL,
		FavoriteCategories: f.FavoriteCategories,
	}
	if f.EmailNotifications != nil || f.DownloadQuality != "" || f.Theme != "" {
		prefs := profiles.DefaultPreferences()
		if f.EmailNotifications != nil {
			prefs.EmailNotifications = *f.EmailNotifications
		}
		if f.DownloadQuality != "" {
			prefs.DownloadQuality = f.DownloadQuality
		}
		if f.Theme != "" {
			prefs.Theme = f.Theme
		}
		data.Preferences = &prefs
	}
	return data
}
