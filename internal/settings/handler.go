package settings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wallhub/wallhub/internal/platform/httpx"
	"github.com/wallhub/wallhub/internal/rbac"
)

// Handler exposes site settings over HTTP.
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

// MountPublicRoutes registers the read endpoint.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/settings", h.get)
}

// MountAdminRoutes registers the write endpoint.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermManageSettings))
		r.Put("/settings", h.update)
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	current, err := h.service.Get(r.Context())
	if err != nil {
		h.logger.Error("load settings", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	httpx.JSON(w, http.StatusOK, current)
}

type settingsForm struct {
	SiteName    string            `json:"site_name" validate:"required,max=80"`
	Tagline     string            `json:"tagline" validate:"omitempty,max=160"`
	HeroTitle   string            `json:"hero_title" validate:"omitempty,max=160"`
	HeroSubtext string            `json:"hero_subtext" validate:"omitempty,max=300"`
	Colors      map[string]string `json:"colors" validate:"omitempty,dive,hexcolor"`
	SocialLinks map[string]string `json:"social_links" validate:"omitempty,dive,url"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var form settingsForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	updated, err := h.service.Update(r.Context(), SiteSettings{
		SiteName:    form.SiteName,
		Tagline:     form.Tagline,
		HeroTitle:   form.HeroTitle,
		HeroSubtext: form.HeroSubtext,
		Colors:      form.Colors,
		SocialLinks: form.SocialLinks,
	})
	if err != nil {
		h.logger.Error("save settings", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}
