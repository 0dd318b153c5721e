package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wallhub/wallhub/internal/platform/httpx"
	"github.com/wallhub/wallhub/internal/rbac"
)

// Handler exposes the audit trail over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers the trail listing endpoint.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermViewAnalytics))
		r.Get("/", h.list)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := Filters{
		ActorID: q.Get("actor_id"),
		Action:  q.Get("action"),
		Entity:  q.Get("entity"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "limit must be a number")
			return
		}
		filters.Limit = limit
	}
	for param, target := range map[string]*time.Time{"since": &filters.Since, "until": &filters.Until} {
		raw := q.Get(param)
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", param+" must be RFC3339")
			return
		}
		*target = parsed
	}
	if !filters.Since.IsZero() && !filters.Until.IsZero() && filters.Until.Before(filters.Since) {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "the time window ends before it starts")
		return
	}

	entries, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list audit trail", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}
