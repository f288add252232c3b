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

	"github.com/fleetgrid/fleetgrid/internal/app"
	"github.com/fleetgrid/fleetgrid/internal/audit"
	audithttp "github.com/fleetgrid/fleetgrid/internal/audit/http"
	"github.com/fleetgrid/fleetgrid/internal/auth"
	"github.com/fleetgrid/fleetgrid/internal/machinery"
	"github.com/fleetgrid/fleetgrid/internal/observability"
	"github.com/fleetgrid/fleetgrid/internal/permissions"
	"github.com/fleetgrid/fleetgrid/internal/platform/cache"
	"github.com/fleetgrid/fleetgrid/internal/platform/db"
	"github.com/fleetgrid/fleetgrid/internal/shared"
	"github.com/fleetgrid/fleetgrid/internal/tenants"
	"github.com/fleetgrid/fleetgrid/internal/users"
	"github.com/fleetgrid/fleetgrid/jobs"
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

	sessionManager := shared.NewSessionManager(redisClient, "fleetgrid_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	auditLogger := shared.NewAuditLogger(dbpool)

	tenantRepo := tenants.NewRepository(dbpool)
	tenantService := tenants.NewService(tenantRepo)
	tenantsHandler := tenants.NewHandler(logger, tenantService)

	userRepo := users.NewRepository(dbpool)
	userService := users.NewService(userRepo)
	usersHandler := users.NewHandler(logger, userService)

	assetRepo := machinery.NewRepository(dbpool)
	assetService := machinery.NewService(assetRepo)
	machineryHandler := machinery.NewHandler(logger, assetService)

	permStore := permissions.NewRepository(dbpool)
	permCache := permissions.NewCache(redisClient, cfg.PermCacheTTL)
	assembler := permissions.NewAssembler(userRepo, assetRepo, permStore, logger)
	reconciler := permissions.NewReconciler(permStore)
	permService := permissions.NewService(assembler, reconciler, permStore, auditLogger, permCache, logger)
	permMiddleware := permissions.Middleware{Service: permService, Users: userService, Logger: logger}
	permissionsHandler := permissions.NewHandler(logger, permService, userService, permMiddleware)

	auditRepo := audit.NewRepository(dbpool)
	auditService := audit.NewService(auditRepo)
	auditHandler := audithttp.NewHandler(logger, auditService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        authHandler,
		TenantsHandler:     tenantsHandler,
		UsersHandler:       usersHandler,
		MachineryHandler:   machineryHandler,
		PermissionsHandler: permissionsHandler,
		AuditHandler:       auditHandler,
		JobHandler:         jobHandler,
		PermMiddleware:     permMiddleware,
		Metrics:            metrics,
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
