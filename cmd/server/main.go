package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cobranca/backend/internal/application/dashboard"
	"github.com/cobranca/backend/internal/infrastructure/auth"
	"github.com/cobranca/backend/internal/infrastructure/cache"
	"github.com/cobranca/backend/internal/infrastructure/config"
	"github.com/cobranca/backend/internal/infrastructure/feeds"
	"github.com/cobranca/backend/internal/infrastructure/logger"
	"github.com/cobranca/backend/internal/infrastructure/persistence"
	"github.com/cobranca/backend/internal/infrastructure/telemetry"
	"github.com/cobranca/backend/internal/interfaces/http/handler"
	"github.com/cobranca/backend/internal/interfaces/http/middleware"
	"github.com/cobranca/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Cobranca Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Database query tracing
	if cfg.Telemetry.DBTraceEnabled {
		dbTracingConfig := telemetry.DefaultDBTracingConfig()
		dbTracingConfig.Enabled = true
		dbTracingPlugin := telemetry.NewDBTracingPlugin(dbTracingConfig, log)
		if err := dbTracingPlugin.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Initialize stores
	classificationStore := persistence.NewGormClassificationStore(db.DB)
	anticipationStore := persistence.NewGormAnticipationStore(db.DB)

	// Initialize upstream feed clients
	invoiceFeed := feeds.NewInvoiceClient(cfg.Feeds)
	personFeed := feeds.NewPersonClient(cfg.Feeds)
	settlementClient := feeds.NewSettlementClient(cfg.Feeds)

	// Initialize application services
	ingestService := dashboard.NewIngestService(invoiceFeed, personFeed, log)

	// One write generation shared by the dashboard cache and every service
	// that mutates its overlays
	dataVersion := dashboard.NewDataVersion()

	dashboardOpts := []dashboard.Option{dashboard.WithDataVersion(dataVersion)}
	if cfg.Dashboard.CacheEnabled {
		viewCache, err := cache.NewViewCacheFactory(cfg.Redis, cache.WithLogger(log)).CreateCache()
		if err != nil {
			log.Warn("View cache unavailable, dashboards run uncached", zap.Error(err))
		} else {
			dashboardOpts = append(dashboardOpts, dashboard.WithCache(viewCache, cfg.Dashboard.CacheTTL))
		}
	}
	dashboardService := dashboard.NewService(ingestService, classificationStore, anticipationStore, log, dashboardOpts...)
	classificationService := dashboard.NewClassificationService(classificationStore, log,
		dashboard.ClassifyWithDataVersion(dataVersion))
	anticipationService := dashboard.NewAnticipationService(anticipationStore, log,
		dashboard.RegisterWithDataVersion(dataVersion))
	settlementService := dashboard.NewSettlementService(settlementClient, log,
		dashboard.SubmitWithDataVersion(dataVersion))

	// JWT validation for the acting user; tokens are issued upstream
	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize HTTP handlers
	systemHandler := handler.NewSystemHandler()
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	classificationHandler := handler.NewClassificationHandler(classificationService)
	anticipationHandler := handler.NewAnticipationHandler(anticipationService)
	settlementHandler := handler.NewSettlementHandler(settlementService)

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
	// 4. Tracing - Span per request, errors marked
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	r.Register(systemHandler).
		Register(dashboardHandler).
		Register(classificationHandler).
		Register(anticipationHandler).
		Register(settlementHandler)

	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

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

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
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
		payload := gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		}
		if stats, err := db.Stats(); err == nil {
			payload["pool"] = stats
		}
		c.JSON(http.StatusOK, payload)
	}
}
