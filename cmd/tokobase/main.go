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

	"github.com/tokobase/tokobase/cmd/tokobase/cli"
	"github.com/tokobase/tokobase/internal/app"
	"github.com/tokobase/tokobase/internal/audit"
	"github.com/tokobase/tokobase/internal/auth"
	"github.com/tokobase/tokobase/internal/observability"
	"github.com/tokobase/tokobase/internal/platform/cache"
	"github.com/tokobase/tokobase/internal/platform/db"
	"github.com/tokobase/tokobase/internal/rbac"
	"github.com/tokobase/tokobase/internal/sales"
	"github.com/tokobase/tokobase/internal/session"
	"github.com/tokobase/tokobase/internal/shared"
	"github.com/tokobase/tokobase/internal/shops"
	"github.com/tokobase/tokobase/internal/users"
	"github.com/tokobase/tokobase/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	if len(os.Args) > 1 && os.Args[1] == "create-admin" {
		if err := cli.RunCreateAdmin(os.Args[2:]); err != nil {
			slog.Default().Error("create-admin", slog.Any("error", err))
			os.Exit(1)
		}
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
		// The permission cache degrades to recomputation without Redis.
		logger.Warn("redis unavailable, permission caching disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	sessionManager := session.NewManager(session.NewRepository(pool), logger, session.Options{
		CookieName:  cfg.SessionCookie,
		IdleTTL:     cfg.SessionIdleTTL,
		AbsoluteTTL: cfg.SessionAbsoluteTTL,
		Secure:      cfg.IsProduction(),
	})
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	var permCache *rbac.PermissionCache
	if redisClient != nil {
		permCache = rbac.NewPermissionCache(redisClient, cfg.PermCacheTTL)
	}
	rbacService := rbac.NewService(rbac.NewRepository(pool), permCache, auditLogger, logger)
	if err := rbacService.EnsureCatalog(ctx); err != nil {
		logger.Error("seed permission catalog", slog.Any("error", err))
		os.Exit(1)
	}
	guard := rbac.Guard{Service: rbacService, Logger: logger, Metrics: metrics}

	authService := auth.NewService(auth.NewRepository(pool), sessionManager, auditLogger, logger)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, metrics)

	usersService := users.NewService(users.NewRepository(pool), rbacService, sessionManager, auditLogger, logger)
	usersHandler := users.NewHandler(logger, usersService, guard)

	rbacHandler := rbac.NewHandler(logger, rbacService, guard)

	shopsHandler := shops.NewHandler(logger, shops.NewService(shops.NewRepository(pool)), guard)
	salesHandler := sales.NewHandler(logger, sales.NewService(sales.NewRepository(pool)), guard)
	auditHandler := audit.NewHandler(logger, audit.NewRepository(pool), guard)

	var jobHandler *jobs.Handler
	if redisClient != nil {
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		UsersHandler:   usersHandler,
		RBACHandler:    rbacHandler,
		ShopsHandler:   shopsHandler,
		SalesHandler:   salesHandler,
		AuditHandler:   auditHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	srv := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
