package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/wallhub/wallhub/internal/app"
	"github.com/wallhub/wallhub/internal/audit"
	"github.com/wallhub/wallhub/internal/auth"
	"github.com/wallhub/wallhub/internal/gallery"
	"github.com/wallhub/wallhub/internal/observability"
	"github.com/wallhub/wallhub/internal/onboarding"
	"github.com/wallhub/wallhub/internal/platform/cache"
	"github.com/wallhub/wallhub/internal/platform/db"
	"github.com/wallhub/wallhub/internal/profiles"
	"github.com/wallhub/wallhub/internal/rbac"
	"github.com/wallhub/wallhub/internal/settings"
	"github.com/wallhub/wallhub/internal/shared"
	"github.com/wallhub/wallhub/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "wallhub_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)
	notifier := shared.FlashNotifier{}
	metrics := observability.NewMetrics()

	roleRepo := rbac.NewRepository(dbpool)
	profileRepo := profiles.NewRepository(dbpool)
	profileService := profiles.NewService(profileRepo, roleRepo)
	rbacMiddleware := rbac.Middleware{Resolver: profileService, Logger: logger}
	guard := rbac.NewGuard(profileRepo, roleRepo, auditLogger, notifier, logger)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, profileRepo, cfg.BcryptCost)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	profilesHandler := profiles.NewHandler(logger, profileService, guard, rbacMiddleware)
	rolesHandler := rbac.NewRolesHandler(logger, guard, rbacMiddleware)
	permissionsHandler := rbac.NewPermissionsHandler(rbacMiddleware)

	onboardingRepo := onboarding.NewRepository(dbpool)
	onboardingService := onboarding.NewService(onboardingRepo, profileRepo, notifier)
	onboardingHandler := onboarding.NewHandler(logger, onboardingService, rbacMiddleware)

	galleryRepo := gallery.NewRepository(dbpool)
	galleryCache := gallery.NewListCache(redisClient, cfg.GalleryCacheTTL)
	galleryService := gallery.NewService(galleryRepo, galleryCache, metrics)
	galleryHandler := gallery.NewHandler(logger, galleryService, rbacMiddleware)

	settingsRepo := settings.NewRepository(dbpool)
	settingsService := settings.NewService(settingsRepo, redisClient, cfg.GalleryCacheTTL)
	settingsHandler := settings.NewHandler(logger, settingsService, rbacMiddleware)

	auditRepo := audit.NewRepository(dbpool)
	auditHandler := audit.NewHandler(logger, audit.NewService(auditRepo), rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		RBACMiddleware:     rbacMiddleware,
		Metrics:            metrics,
		AuthHandler:        authHandler,
		ProfilesHandler:    profilesHandler,
		OnboardingHandler:  onboardingHandler,
		GalleryHandler:     galleryHandler,
		SettingsHandler:    settingsHandler,
		AuditHandler:       auditHandler,
		RolesHandler:       rolesHandler,
		PermissionsHandler: permissionsHandler,
		JobHandler:         jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
