package gallery

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

// Handler exposes the gallery over HTTP.
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

// MountPublicRoutes registers browse and download routes. Download needs no
// account; it only bumps a counter.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/wallpapers", h.listWallpapers)
	r.Get("/wallpapers/{slug}", h.getWallpaper)
	r.Get("/wallpapers/{slug}/comments", h.listComments)
	r.Post("/wallpapers/{id}/download", h.download)
	r.Get("/categories", h.listCategories)

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermUploadWallpapers))
		r.Post("/wallpapers", h.upload)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuthenticated())
		r.Post("/wallpapers/{id}/vote", h.vote)
		r.Post("/wallpapers/{slug}/comments", h.addComment)
	})
}

// MountAdminRoutes registers moderation routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermApproveWallpapers))
		r.Get("/wallpapers", h.listForModeration)
		r.Put("/wallpapers/{id}/status", h.moderate)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermManageWallpapers))
		r.Put("/wallpapers/{id}/featured", h.setFeatured)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermDeleteWallpapers))
		r.Delete("/wallpapers/{id}", h.deleteWallpaper)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermModerateComments))
		r.Put("/comments/{id}/hide", h.hideComment)
	})
}

func (h *Handler) listWallpapers(w http.ResponseWriter, r *http.Request) {
	filters := ListFilters{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
		Featured: r.URL.Query().Get("featured") == "true",
	}
	wallpapers, err := h.service.ListApproved(r.Context(), filters)
	if err != nil {
		h.logger.Error("list wallpapers", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"wallpapers": wallpapers})
}

func (h *Handler) getWallpaper(w http.ResponseWriter, r *http.Request) {
	wp, err := h.service.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, wp)
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	wp, err := h.service.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	actor := rbac.PrincipalFromContext(r.Context())
	includeHidden := rbac.HasPermission(actor, rbac.PermModerateComments)
	comments, err := h.service.Comments(r.Context(), wp.ID, includeHidden)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"comments": comments})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Download(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": categories})
}

type uploadForm struct {
	Title        string   `json:"title" validate:"required,max=160"`
	CategorySlug string   `json:"category_slug" validate:"required"`
	Tags         []string `json:"tags" validate:"omitempty,max=15"`
	Resolution   string   `json:"resolution" validate:"required"`
	SizeBytes    int64    `json:"size_bytes" validate:"gte=0"`
	URL          string   `json:"url" validate:"required,url"`
	ThumbnailURL string   `json:"thumbnail_url" validate:"omitempty,url"`
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	var form uploadForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor := rbac.PrincipalFromContext(r.Context())
	wp, err := h.service.Upload(r.Context(), actor.ID, UploadInput{
		Title:        form.Title,
		CategorySlug: form.CategorySlug,
		Tags:         form.Tags,
		Resolution:   form.Resolution,
		SizeBytes:    form.SizeBytes,
		URL:          form.URL,
		ThumbnailURL: form.ThumbnailURL,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateSlug) {
			httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
			return
		}
		h.logger.Error("upload wallpaper", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	httpx.JSON(w, http.StatusCreated, wp)
}

type voteForm struct {
	Value int `json:"value" validate:"required,min=1,max=5"`
}

func (h *Handler) vote(w http.ResponseWriter, r *http.Request) {
	var form voteForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := rbac.PrincipalFromContext(r.Context())
	wp, err := h.service.VoteFor(r.Context(), actor.ID, chi.URLParam(r, "id"), form.Value)
	if err != nil {
		if errors.Is(err, ErrInvalidVote) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.respondStoreError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, wp)
}

type commentForm struct {
	Body string `json:"body" validate:"required,max=1000"`
}

func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) {
	var form commentForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	wp, err := h.service.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	actor := rbac.PrincipalFromContext(r.Context())
	comment, err := h.service.CommentOn(r.Context(), actor.ID, wp.ID, form.Body)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, comment)
}

func (h *Handler) listForModeration(w http.ResponseWriter, r *http.Request) {
	wallpapers, err := h.service.ListForModeration(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.respondStoreError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"wallpapers": wallpapers})
}

type moderateForm struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

func (h *Handler) moderate(w http.ResponseWriter, r *http.Request) {
	var form moderateForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.Moderate(r.Context(), chi.URLParam(r, "id"), form.Status); err != nil {
		h.respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type featuredForm struct {
	Featured bool `json:"featured"`
}

func (h *Handler) setFeatured(w http.ResponseWriter, r *http.Request) {
	var form featuredForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.service.SetFeatured(r.Context(), chi.URLParam(r, "id"), form.Featured); err != nil {
		h.respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteWallpaper(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) hideComment(w http.ResponseWriter, r *http.Request) {
	if err := h.service.HideComment(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	h.logger.Error("gallery", slog.Any("error", err))
	httpx.RespondError(w, httpx.ErrUnavailable)
}
