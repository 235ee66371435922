package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/fundflow/fundflow/internal/app"
	"github.com/fundflow/fundflow/internal/audit"
	"github.com/fundflow/fundflow/internal/auth"
	"github.com/fundflow/fundflow/internal/entries"
	"github.com/fundflow/fundflow/internal/observability"
	"github.com/fundflow/fundflow/internal/permissions"
	"github.com/fundflow/fundflow/internal/platform/cache"
	"github.com/fundflow/fundflow/internal/platform/db"
	"github.com/fundflow/fundflow/internal/reports"
	"github.com/fundflow/fundflow/internal/shared"
	"github.com/fundflow/fundflow/internal/tenancy"
	"github.com/fundflow/fundflow/internal/workspaces"
	"github.com/fundflow/fundflow/jobs"
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

	logger := app.NewLogger(cfg, "fundflow-api")
	slog.SetDefault(logger)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.Redis())
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
	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	redisOpts := cfg.Redis().Asynq()
	asynqClient := asynq.NewClient(redisOpts)
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()
	auditQueue := audit.NewQueue(asynqClient, cfg.AuditQueue, metrics)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	tenancyRepo := tenancy.NewRepository(pool)
	checker := permissions.NewChecker(tenancyRepo, tenancyRepo, logger)
	authz := permissions.Observe(checker, metrics)
	guard := permissions.Middleware{
		Checker: checker,
		Users:   tenancyRepo,
		Scopes:  tenancyRepo,
		Metrics: metrics,
		Logger:  logger,
	}

	workspaceService := workspaces.NewService(workspaces.NewRepository(pool), tenancyRepo, authz, auditQueue, logger)
	entryRepo := entries.NewRepository(pool)
	entryService := entries.NewService(entryRepo, tenancyRepo, authz, auditQueue, logger)
	attachmentStore, err := cfg.AttachmentStore()
	if err != nil {
		logger.Error("open attachment store", slog.Any("error", err))
		os.Exit(1)
	}
	attachmentService := entries.NewAttachmentService(entryService, entries.NewAttachmentRepository(pool), attachmentStore)
	reportService := reports.NewService(reports.NewRepository(pool), entryRepo, tenancyRepo, authz, auditQueue, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		Guard:              guard,
		AuthHandler:        auth.NewHandler(logger, auth.NewService(auth.NewRepository(pool)), sessionManager, metrics),
		PermissionsHandler: permissions.NewHandler(checker, guard),
		WorkspacesHandler:  workspaces.NewHandler(workspaceService, logger),
		EntriesHandler:     entries.NewHandler(entryService, logger).WithAttachments(attachmentService),
		ReportsHandler:     reports.NewHandler(reportService, logger),
		JobHandler:         jobs.NewHandler(inspector, cfg.AuditQueue, logger),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
