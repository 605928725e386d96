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
	"github.com/joho/godotenv"

	"github.com/meridian-esw/meridian-esw/internal/app"
	"github.com/meridian-esw/meridian-esw/internal/crm/attachments"
	"github.com/meridian-esw/meridian-esw/internal/crm/leads"
	"github.com/meridian-esw/meridian-esw/internal/crm/projects"
	"github.com/meridian-esw/meridian-esw/internal/crm/quotations"
	"github.com/meridian-esw/meridian-esw/internal/crm/revisions"
	"github.com/meridian-esw/meridian-esw/internal/crm/sitevisits"
	"github.com/meridian-esw/meridian-esw/internal/crm/variations"
	"github.com/meridian-esw/meridian-esw/internal/identity"
	"github.com/meridian-esw/meridian-esw/internal/observability"
	"github.com/meridian-esw/meridian-esw/internal/platform/cache"
	"github.com/meridian-esw/meridian-esw/internal/platform/db"
	"github.com/meridian-esw/meridian-esw/internal/rbac"
	"github.com/meridian-esw/meridian-esw/internal/shared"
	"github.com/meridian-esw/meridian-esw/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	_ = godotenv.Load()

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

	sessionManager := shared.NewSessionManager(redisClient, "meridian_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	rbacService := rbac.NewService(pool, redisClient)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	identityService := identity.NewService(identity.NewRepository(pool), logger)

	enqueuer := jobs.NewEnqueuer(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := enqueuer.Close(); err != nil {
			logger.Warn("enqueuer close", slog.Any("error", err))
		}
	}()

	fileStore, err := attachments.NewStore(cfg.UploadDir, logger, enqueuer)
	if err != nil {
		logger.Error("init upload store", slog.Any("error", err))
		os.Exit(1)
	}

	leadsService := leads.NewService(leads.NewRepository(pool), auditLogger, logger)
	leadsHandler := leads.NewHandler(logger, leadsService, fileStore, rbacMiddleware)

	quotationsService := quotations.NewService(quotations.NewRepository(pool), auditLogger, logger)
	quotationsHandler := quotations.NewHandler(logger, quotationsService, idempotencyStore, rbacMiddleware)

	revisionsService := revisions.NewService(revisions.NewRepository(pool), auditLogger, logger)
	revisionsHandler := revisions.NewHandler(logger, revisionsService, rbacMiddleware)

	projectsService := projects.NewService(projects.NewRepository(pool), auditLogger, logger)
	projectsHandler := projects.NewHandler(logger, projectsService, fileStore, rbacMiddleware)

	variationsService := variations.NewService(variations.NewRepository(pool), auditLogger, logger)
	variationsHandler := variations.NewHandler(logger, variationsService, rbacMiddleware)

	siteVisitsService := sitevisits.NewService(sitevisits.NewRepository(pool), auditLogger, logger)
	siteVisitsHandler := sitevisits.NewHandler(logger, siteVisitsService, fileStore, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		Identity:          identityService,
		LeadsHandler:      leadsHandler,
		QuotationsHandler: quotationsHandler,
		RevisionsHandler:  revisionsHandler,
		ProjectsHandler:   projectsHandler,
		VariationsHandler: variationsHandler,
		SiteVisitsHandler: siteVisitsHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
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
