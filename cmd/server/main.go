package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	syncapp "github.com/commercehub/backend/internal/application/ordersync"
	"github.com/commercehub/backend/internal/infrastructure/cache"
	"github.com/commercehub/backend/internal/infrastructure/config"
	"github.com/commercehub/backend/internal/infrastructure/logger"
	"github.com/commercehub/backend/internal/infrastructure/persistence"
	"github.com/commercehub/backend/internal/infrastructure/scheduler"
	"github.com/commercehub/backend/internal/infrastructure/storefront"
	"github.com/commercehub/backend/internal/infrastructure/telemetry"
	"github.com/commercehub/backend/internal/interfaces/http/handler"
	"github.com/commercehub/backend/internal/interfaces/http/middleware"
	"github.com/commercehub/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting CommerceHub Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize OpenTelemetry providers. Both are no-ops when telemetry
	// is disabled, so the rest of the wiring stays unconditional.
	telemetryCtx, telemetryCancel := context.WithTimeout(context.Background(), 10*time.Second)
	tracerProvider, err := telemetry.NewTracerProvider(telemetryCtx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		telemetryCancel()
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(telemetryCtx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		telemetryCancel()
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	telemetryCancel()

	// Continuous profiling runs independently of tracing and is a no-op
	// when disabled.
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:              cfg.Telemetry.Profiling.Enabled,
		ServerAddress:        cfg.Telemetry.Profiling.ServerAddress,
		ApplicationName:      cfg.App.Name,
		MutexProfileFraction: cfg.Telemetry.Profiling.MutexProfileFraction,
		BlockProfileRate:     cfg.Telemetry.Profiling.BlockProfileRate,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && cfg.Telemetry.Profiling.SpanProfiles {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTraceCfg := telemetry.DefaultDBTracingConfig()
		dbTraceCfg.Enabled = true
		dbTraceCfg.DBName = cfg.Database.DBName
		if err := telemetry.RegisterDBTracing(db.DB, dbTraceCfg, log); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Redis backs the sync status cache and participates in health checks.
	// The factory downgrades the cache to in-process storage when Redis is
	// unreachable instead of blocking startup.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	statusCache, err := cache.NewStatusCacheFactory(cfg.Redis, cfg.Sync.StatusCacheTTL,
		cache.WithLogger(log),
		cache.WithRedisClient(redisClient),
	).CreateCache()
	if err != nil {
		log.Fatal("Failed to create status cache", zap.Error(err))
	}
	if _, ok := statusCache.(*cache.RedisStatusCache); !ok {
		// Health checks skip a Redis that is not serving the cache.
		_ = redisClient.Close()
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	// Initialize repositories
	jobRepo := persistence.NewGormSyncJobRepository(db.DB)
	recordRepo := persistence.NewGormOrderRecordRepository(db.DB)
	connectionRepo := persistence.NewGormStoreConnectionRepository(db.DB)

	// Storefront API client
	storefrontClient, err := storefront.NewClient(storefront.ClientConfig{
		TimeoutSeconds: int(cfg.Sync.RequestTimeout.Seconds()),
		PageSize:       cfg.Sync.PageSize,
		CountFallback:  cfg.Sync.CountFallback,
	}, log)
	if err != nil {
		log.Fatal("Failed to create storefront client", zap.Error(err))
	}

	// Sync engine wiring
	pacer := syncapp.NewRequestPacer(syncapp.PacerConfig{
		FullPageDelay:        cfg.Sync.FullPageDelay,
		IncrementalPageDelay: cfg.Sync.IncrementalPageDelay,
		RateLimitCooldown:    cfg.Sync.RateLimitCooldown,
	})
	persister := syncapp.NewBatchPersister(recordRepo, log)
	progress := syncapp.NewProgressTracker(jobRepo, statusCache, log)
	connUpdater := syncapp.NewConnectionStatusUpdater(connectionRepo, log)

	var orchestratorOpts []syncapp.OrchestratorOption
	syncMetrics, err := telemetry.NewSyncMetrics(meterProvider.Meter("ordersync"))
	if err != nil {
		log.Warn("Failed to create sync metrics, continuing without them", zap.Error(err))
	} else {
		orchestratorOpts = append(orchestratorOpts, syncapp.WithSyncMetrics(syncMetrics))
	}

	orchestrator := syncapp.NewSyncOrchestrator(syncapp.OrchestratorConfig{
		PageSize:            cfg.Sync.PageSize,
		MaxPages:            cfg.Sync.MaxPages,
		MaxRateLimitRetries: cfg.Sync.MaxRateLimitRetries,
		Lookback:            time.Duration(cfg.Sync.LookbackDays) * 24 * time.Hour,
		OverlapBuffer:       cfg.Sync.OverlapBuffer,
		StalenessThreshold:  cfg.Sync.StalenessThreshold,
	},
		storefrontClient,
		jobRepo,
		connectionRepo,
		progress,
		persister,
		pacer,
		connUpdater,
		log,
		orchestratorOpts...,
	)

	// Background trigger that starts incremental syncs on schedule
	var trigger *scheduler.SyncTrigger
	if cfg.Scheduler.Enabled {
		trigger = scheduler.NewSyncTrigger(scheduler.SyncTriggerConfig{
			ScanInterval: cfg.Scheduler.ScanInterval,
			SyncInterval: cfg.Scheduler.SyncInterval,
		}, orchestrator, connectionRepo, log)
		if err := trigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync trigger", zap.Error(err))
		}
		log.Info("Sync trigger started",
			zap.Duration("scan_interval", cfg.Scheduler.ScanInterval),
			zap.Duration("sync_interval", cfg.Scheduler.SyncInterval),
		)
	}

	// Initialize handlers
	syncHandler := handler.NewSyncHandler(orchestrator, log)
	systemHandler := handler.NewSystemHandler(db.DB, redisClient)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. Tracing - OpenTelemetry spans per request
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes using router
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(syncHandler).
		Register(systemHandler).
		Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if trigger != nil {
		if err := trigger.Stop(ctx); err != nil {
			log.Warn("Sync trigger did not stop cleanly", zap.Error(err))
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	if err := tracerProvider.Shutdown(ctx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := meterProvider.Shutdown(ctx); err != nil {
		log.Warn("Meter provider shutdown failed", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for the root health check endpoint
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
