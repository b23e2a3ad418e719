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

	"github.com/aegis-admin/aegis-admin/internal/access"
	"github.com/aegis-admin/aegis-admin/internal/app"
	"github.com/aegis-admin/aegis-admin/internal/auth"
	"github.com/aegis-admin/aegis-admin/internal/contacts"
	"github.com/aegis-admin/aegis-admin/internal/observability"
	"github.com/aegis-admin/aegis-admin/internal/permission"
	"github.com/aegis-admin/aegis-admin/internal/platform/cache"
	"github.com/aegis-admin/aegis-admin/internal/platform/db"
	"github.com/aegis-admin/aegis-admin/internal/registry"
	"github.com/aegis-admin/aegis-admin/internal/roles"
	"github.com/aegis-admin/aegis-admin/internal/session"
	"github.com/aegis-admin/aegis-admin/internal/shared"
	"github.com/aegis-admin/aegis-admin/internal/tokens"
	"github.com/aegis-admin/aegis-admin/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)
	moduleRegistry := registry.Default()
	tokenManager := tokens.NewManager(cfg.JWTAccessSecret, cfg.AccessTokenTTL)

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

	sessionRepo := session.NewRepository(pool)
	sessionService := session.NewService(sessionRepo, tokenManager, cfg.RefreshTokenTTL, logger, metrics, auditLogger)

	rolesRepo := roles.NewRepository(pool)
	accessRepo := access.NewRepository(pool)
	rolesService := roles.NewService(rolesRepo, moduleRegistry, accessRepo, auditLogger).
		WithResyncEnqueuer(jobClient)

	permCache := access.NewCache(redisClient, cfg.PermissionCacheTTL)
	accessService := access.NewService(accessRepo, rolesService, permCache, logger, auditLogger)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, sessionService, tokenManager, jobClient, cfg.BcryptCost, cfg.ResetTokenTTL, logger, metrics, auditLogger)

	gate := auth.NewGate(tokenManager, sessionService, accessService, logger, metrics)
	guard := shared.PermissionGuard(gate.Require)

	authHandler := auth.NewHandler(logger, authService, gate, app.AuthRateLimiter())
	rolesHandler := roles.NewHandler(logger, rolesService, guard)
	accessHandler := access.NewHandler(logger, accessService, guard)
	contactsHandler := contacts.NewHandler(logger, contacts.NewService(contacts.NewRepository(pool), auditLogger), guard)
	registryHandler := registry.NewHandler(moduleRegistry, permission.Actions(), guard)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Gate:            gate,
		AuthHandler:     authHandler,
		RolesHandler:    rolesHandler,
		AccessHandler:   accessHandler,
		ContactsHandler: contactsHandler,
		RegistryHandler: registryHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
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
