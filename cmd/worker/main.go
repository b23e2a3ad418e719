package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/aegis-admin/aegis-admin/internal/access"
	"github.com/aegis-admin/aegis-admin/internal/app"
	"github.com/aegis-admin/aegis-admin/internal/auth"
	jobmetrics "github.com/aegis-admin/aegis-admin/internal/jobs"
	"github.com/aegis-admin/aegis-admin/internal/observability"
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
		slog.Default().Info("test mode detected, skipping worker startup")
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
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())
	auditLogger := shared.NewAuditLogger(pool)
	moduleRegistry := registry.Default()
	tokenManager := tokens.NewManager(cfg.JWTAccessSecret, cfg.AccessTokenTTL)

	sessionRepo := session.NewRepository(pool)
	sessionService := session.NewService(sessionRepo, tokenManager, cfg.RefreshTokenTTL, logger, nil, auditLogger)

	rolesRepo := roles.NewRepository(pool)
	accessRepo := access.NewRepository(pool)
	rolesService := roles.NewService(rolesRepo, moduleRegistry, accessRepo, auditLogger)

	permCache := access.NewCache(redisClient, cfg.PermissionCacheTTL)
	accessService := access.NewService(accessRepo, rolesService, permCache, logger, auditLogger)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, sessionService, tokenManager, nil, cfg.BcryptCost, cfg.ResetTokenTTL, logger, nil, auditLogger)

	purgeJob := jobs.NewSessionPurgeJob(sessionService, authService, logger, jobMetrics)
	resyncJob := jobs.NewAccessResyncJob(accessService, logger, jobMetrics)
	mailJob := jobs.NewSendEmailJob(jobs.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		From: cfg.SMTPFrom,
	}, logger, jobMetrics)

	purgeTask, err := jobs.NewSessionPurgeTask()
	if err != nil {
		logger.Error("build purge task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSessionPurge, Handler: purgeJob.Handle},
			{Type: jobs.TaskAccessResync, Handler: resyncJob.Handle},
			{Type: jobs.TaskTypeSendEmail, Handler: mailJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "45 2 * * *", Task: purgeTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
