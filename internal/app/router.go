package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/wallhub/wallhub/internal/audit"
	"github.com/wallhub/wallhub/internal/auth"
	"github.com/wallhub/wallhub/internal/gallery"
	"github.com/wallhub/wallhub/internal/observability"
	"github.com/wallhub/wallhub/internal/onboarding"
	"github.com/wallhub/wallhub/internal/profiles"
	"github.com/wallhub/wallhub/internal/rbac"
	"github.com/wallhub/wallhub/internal/settings"
	"github.com/wallhub/wallhub/internal/shared"
	"github.com/wallhub/wallhub/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	RBACMiddleware rbac.Middleware
	Metrics        *observability.Metrics

	AuthHandler        *auth.Handler
	ProfilesHandler    *profiles.Handler
	OnboardingHandler  *onboarding.Handler
	GalleryHandler     *gallery.Handler
	SettingsHandler    *settings.Handler
	AuditHandler       *audit.Handler
	RolesHandler       *rbac.RolesHandler
	PermissionsHandler *rbac.PermissionsHandler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with WallHub defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	if !params.Config.IsProduction() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/api", func(r chi.Router) {
		// Resolve the principal opportunistically so public handlers can
		// branch on permissions without demanding a login.
		r.Use(params.RBACMiddleware.Attach())
		params.GalleryHandler.MountPublicRoutes(r)
		params.SettingsHandler.MountPublicRoutes(r)

		r.Route("/me", params.ProfilesHandler.MountSelfRoutes)
		r.Route("/onboarding", params.OnboardingHandler.MountRoutes)

		r.Route("/admin", func(r chi.Router) {
			r.Route("/users", params.ProfilesHandler.MountAdminRoutes)
			r.Route("/roles", params.RolesHandler.MountRoutes)
			r.Route("/permissions", params.PermissionsHandler.MountRoutes)
			r.Route("/audit", params.AuditHandler.MountRoutes)
			params.GalleryHandler.MountAdminRoutes(r)
			params.SettingsHandler.MountAdminRoutes(r)
			if params.JobHandler != nil {
				r.Route("/jobs", func(r chi.Router) {
					r.Use(params.RBACMiddleware.Require(rbac.PermViewDashboard))
					params.JobHandler.MountRoutes(r)
				})
			}
		})
	})

	return r
}
