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

	"github.com/harborstay/harborstay/internal/app"
	"github.com/harborstay/harborstay/internal/bookings"
	"github.com/harborstay/harborstay/internal/identity"
	"github.com/harborstay/harborstay/internal/listings"
	"github.com/harborstay/harborstay/internal/platform/cache"
	"github.com/harborstay/harborstay/internal/platform/db"
	"github.com/harborstay/harborstay/internal/policy"
	"github.com/harborstay/harborstay/internal/roles"
	"github.com/harborstay/harborstay/internal/shared"
	"github.com/harborstay/harborstay/jobs"
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

	sessionManager := shared.NewSessionManager(redisClient, "harborstay_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(pool)

	engine := policy.NewEngine()

	rolesRepo := roles.NewRepository(pool)
	rolesService := roles.NewService(rolesRepo, engine, auditLogger, logger)

	policyMiddleware := policy.Middleware{Roles: rolesService, Logger: logger}

	identityRepo := identity.NewRepository(pool)
	identityService := identity.NewService(identityRepo, rolesService)
	authHandler := identity.NewHandler(logger, identityService, sessionManager, csrfManager, rolesService)

	listingCache := listings.NewCache(redisClient, cfg.ListingCacheTTL)
	listingsRepo := listings.NewRepository(pool)
	listingsService := listings.NewService(listingsRepo, engine, listingCache, logger)
	listingsHandler := listings.NewHandler(logger, listingsService, policyMiddleware)

	enqueuer := jobs.NewEnqueuer(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := enqueuer.Close(); err != nil {
			logger.Warn("enqueuer close", slog.Any("error", err))
		}
	}()

	bookingsRepo := bookings.NewRepository(pool)
	bookingsService := bookings.NewService(bookingsRepo, listingsRepo, engine, enqueuer, auditLogger, logger)
	bookingsHandler := bookings.NewHandler(logger, bookingsService, policyMiddleware)

	rolesHandler := roles.NewHandler(logger, rolesService, policyMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		AuthHandler:      authHandler,
		ListingsHandler:  listingsHandler,
		BookingsHandler:  bookingsHandler,
		RolesHandler:     rolesHandler,
		JobHandler:       jobHandler,
		PolicyMiddleware: policyMiddleware,
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
