// Command dashboard serves the X-Plane usage dashboard.
//
// Purpose:
//
//	This binary builds dashboard snapshots from Google Analytics and the
//	scenery gateway, refreshes them on a schedule, and serves the HTML page,
//	the JSON API and report downloads over HTTP.
//
// Dependencies:
//   - Google Analytics reporting API (required)
//   - Redis: Query cache when CACHE_BACKEND=redis (optional)
//   - PostgreSQL: Snapshot persistence when DATABASE_URL is set (optional)
//   - S3-compatible storage: Report exports when S3_* is set (optional)
//
// Key Responsibilities:
//   - Initialize configuration, observability, cache and clients
//   - Run migrations and start the refresh worker
//   - Serve HTTP with graceful shutdown
//
// Debugging Notes:
//   - /status/readyz reports which optional dependencies are configured and healthy
//   - LOG_LEVEL=debug logs every request and cache miss
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/X-Plane/dashboard/internal/api"
	"github.com/X-Plane/dashboard/internal/auth"
	"github.com/X-Plane/dashboard/internal/cache"
	"github.com/X-Plane/dashboard/internal/config"
	"github.com/X-Plane/dashboard/internal/dashboard"
	"github.com/X-Plane/dashboard/internal/ga"
	"github.com/X-Plane/dashboard/internal/gateway"
	"github.com/X-Plane/dashboard/internal/logging"
	"github.com/X-Plane/dashboard/internal/observability"
	"github.com/X-Plane/dashboard/internal/refresh"
	"github.com/X-Plane/dashboard/internal/reports"
	"github.com/X-Plane/dashboard/internal/storage/postgres"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.MustLoad()

	obs := observability.MustInit(ctx, observability.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.TelemetryEndpoint,
		Protocol:    cfg.TelemetryProtocol,
		Insecure:    cfg.TelemetryInsecure,
		LogLevel:    cfg.LogLevel,
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()

	logger := obs.Logger
	logger.Info("starting usage dashboard",
		zap.String("environment", cfg.Environment),
		zap.Int("port", cfg.HTTPPort),
		zap.Int("app_version", cfg.GAAppVersion),
		zap.String("user_group", cfg.GAUserGroup),
		zap.String("cache_backend", cfg.CacheBackendName()),
	)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("failed to parse Redis URL", zap.String("url", logging.RedactString(cfg.RedisURL)), zap.Error(err))
		}
		redisClient = redis.NewClient(redisOpts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis")
	}

	queryCache, err := cache.New(cache.Config{
		Backend:     cfg.CacheBackendName(),
		Dir:         cfg.CacheDir,
		TTL:         cfg.CacheTTL,
		MaxEntries:  cfg.CacheMaxEntries,
		RedisClient: redisClient,
	})
	if err != nil {
		logger.Fatal("failed to initialize query cache", zap.Error(err))
	}

	if cfg.GACredentials == "" {
		logger.Fatal("GA_CREDENTIALS is required")
	}
	property, err := ga.ParseProperty(cfg.GAProperty)
	if err != nil {
		logger.Fatal("invalid GA property", zap.Error(err))
	}
	gaService, err := ga.NewService(ctx, ga.ServiceConfig{
		Credentials: cfg.GACredentials,
		AccountID:   cfg.GAAccountID,
		Property:    property,
		Cache:       queryCache,
		Logger:      logger.Named("ga"),
	})
	if err != nil {
		logger.Fatal("failed to initialize Google Analytics client", zap.Error(err))
	}

	version, err := ga.VersionByMajor(cfg.GAAppVersion)
	if err != nil {
		logger.Fatal("unknown app version", zap.Int("app_version", cfg.GAAppVersion), zap.Error(err))
	}
	group, err := ga.ParseUserGroup(cfg.GAUserGroup)
	if err != nil {
		logger.Fatal("unknown user group", zap.String("user_group", cfg.GAUserGroup), zap.Error(err))
	}

	gatewayClient := gateway.NewClient(gateway.Config{
		URL:     cfg.GatewayStatsURL,
		Timeout: cfg.GatewayTimeout,
		Cache:   queryCache,
		Logger:  logger.Named("gateway"),
	})

	// Optional snapshot persistence. Keep the interface nil when disabled.
	var (
		store      *postgres.Store
		repository dashboard.SnapshotRepository
		readyStore api.Pinger
	)
	if cfg.DatabaseURL != "" {
		store, err = postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		repository = store
		readyStore = store
		logger.Info("snapshot persistence enabled", zap.Int("retention", cfg.SnapshotRetention))
	}

	var uploader api.ReportUploader
	if cfg.S3Configured() {
		delivery, err := reports.NewS3Delivery(ctx, reports.S3Config{
			Endpoint:     cfg.S3Endpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			SignedURLTTL: cfg.ExportSignedURLTTL,
		}, logger.Named("reports"))
		if err != nil {
			logger.Fatal("failed to initialize S3 delivery", zap.Error(err))
		}
		uploader = delivery
	}

	dashboardService := dashboard.NewService(dashboard.Config{
		Querier:        gaService,
		Version:        version,
		UserGroup:      group,
		Strict:         cfg.GAStrictRetention,
		Gateway:        gatewayClient,
		Repository:     repository,
		LocationsStart: cfg.LocationsStartDate,
		LocationsLimit: cfg.LocationsLimit,
		Logger:         logger.Named("dashboard"),
	})

	interval, err := refresh.Interval(cfg.RefreshSchedule, time.Now())
	if err != nil {
		logger.Fatal("invalid refresh schedule", zap.String("schedule", cfg.RefreshSchedule), zap.Error(err))
	}
	worker, err := refresh.NewWorker(refresh.Config{
		Service:   dashboardService,
		Schedule:  cfg.RefreshSchedule,
		Retention: cfg.SnapshotRetention,
		Logger:    logger.Named("refresh"),
	})
	if err != nil {
		logger.Fatal("failed to create refresh worker", zap.Error(err))
	}
	go func() {
		if err := worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("refresh worker stopped", zap.Error(err))
		}
	}()
	defer worker.Stop()

	var policy *auth.Engine
	if cfg.RBACPolicyFile != "" {
		policy, err = loadPolicy(cfg.RBACPolicyFile)
		if err != nil {
			logger.Fatal("failed to load RBAC policy", zap.String("path", cfg.RBACPolicyFile), zap.Error(err))
		}
	}

	server := api.NewServer(api.Config{
		Logger:      logger,
		EnableRBAC:  cfg.EnableRBAC,
		Policy:      policy,
		Store:       readyStore,
		RedisClient: redisClient,
	})
	server.RegisterDashboardRoutes(api.NewDashboardHandler(dashboardService, interval, logger))
	server.RegisterGatewayRoutes(api.NewGatewayHandler(gatewayClient, logger))
	server.RegisterReportRoutes(api.NewReportsHandler(
		reports.NewGenerator(ga.NewVersionQueries(gaService, version, cfg.GAStrictRetention), group, logger.Named("reports")),
		uploader,
		logger,
	))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
			if err := srv.Close(); err != nil {
				logger.Error("failed to close server", zap.Error(err))
			}
		}
		logger.Info("server stopped")
	}
}

func loadPolicy(path string) (*auth.Engine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return auth.LoadPolicy(f)
}
