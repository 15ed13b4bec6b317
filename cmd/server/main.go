package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/condominio/backend/internal/application/billing"
	directoryapp "github.com/condominio/backend/internal/application/directory"
	"github.com/condominio/backend/internal/domain/shared"
	"github.com/condominio/backend/internal/infrastructure/auth"
	"github.com/condominio/backend/internal/infrastructure/cache"
	"github.com/condominio/backend/internal/infrastructure/config"
	"github.com/condominio/backend/internal/infrastructure/logger"
	"github.com/condominio/backend/internal/infrastructure/persistence"
	"github.com/condominio/backend/internal/infrastructure/persistence/buildingscope"
	"github.com/condominio/backend/internal/infrastructure/telemetry"
	"github.com/condominio/backend/internal/interfaces/http/handler"
	"github.com/condominio/backend/internal/interfaces/http/middleware"
	"github.com/condominio/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/condominio/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Condominio Backend API
//	@version		1.0
//	@description	Condominium billing backend - invoice ledger, payment review and allocation
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.url	https://github.com/condominio/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

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

	log.Info("Starting Condominio Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Initialize telemetry providers (no-ops when disabled)
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Continuous profiling (Pyroscope)
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:             cfg.Telemetry.ProfilingEnabled,
		ServerAddress:       cfg.Telemetry.PyroscopeAddress,
		ApplicationName:     cfg.Telemetry.ServiceName,
		ProfileCPU:          true,
		ProfileAllocObjects: true,
		ProfileAllocSpace:   true,
		ProfileInuseObjects: true,
		ProfileInuseSpace:   true,
		ProfileGoroutines:   true,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()
	if profiler.IsEnabled() {
		// Link trace spans to profiles so slow requests can be drilled into
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

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

	// Database query tracing
	if cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:          true,
			LogFullSQL:       cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:         "postgresql",
			WithoutVariables: !cfg.Telemetry.DBLogFullSQL,
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Database metrics (query counts, latency, connection pool)
	if cfg.Telemetry.Enabled {
		dbMetrics, err := telemetry.NewDBMetrics(meterProvider.Meter("condominio/db"), telemetry.DefaultDBMetricsConfig(), log)
		if err != nil {
			log.Warn("Failed to initialize database metrics", zap.Error(err))
		} else {
			if err := db.DB.Use(telemetry.NewDBMetricsPlugin(dbMetrics, log)); err != nil {
				log.Warn("Failed to register database metrics plugin", zap.Error(err))
			}
			if sqlDB, err := db.DB.DB(); err == nil {
				dbMetrics.SetSQLDB(sqlDB)
				dbMetrics.StartPoolStatsCollection(ctx)
				defer dbMetrics.Stop()
			}
		}
	}

	// Safety net against cross-building reads: queries that reach GORM
	// without an explicit building filter pick one up from the request
	// context. Repositories still filter explicitly; the callback only
	// catches queries that forgot to.
	buildingscope.EnableAutoBuildingFilter(db.DB, false)

	// Initialize repositories
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	unitRepo := persistence.NewGormUnitRepository(db.DB)
	buildingRepo := persistence.NewGormBuildingRepository(db.DB)

	// Idempotency store for the payment review workflow (Redis with in-memory
	// fallback outside production)
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	idemStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Initialize application services
	invoiceService := billingapp.NewInvoiceService(invoiceRepo, unitRepo)
	paymentService := billingapp.NewPaymentService(paymentRepo, invoiceRepo, unitRepo,
		billingapp.WithIdempotencyStore(idemStore, shared.IdempotencyConfig{
			Enabled: cfg.Idempotency.Enabled,
			TTL:     cfg.Idempotency.TTL,
		}),
		billingapp.WithTransactionManager(db),
	)
	balanceService := billingapp.NewBalanceService(invoiceRepo, paymentRepo, unitRepo)
	buildingService := directoryapp.NewBuildingService(buildingRepo)
	unitService := directoryapp.NewUnitService(unitRepo, buildingRepo)

	// Business metrics: invoice issuance and payment review counters plus
	// periodically refreshed debt gauges per building
	debtProvider := telemetry.NewGormDebtMetricsProvider(db.DB)
	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:           meterProvider.Meter("condominio/billing"),
		Logger:          log,
		CollectInterval: cfg.Metrics.CollectInterval,
		DebtProvider:    debtProvider,
	})
	if err != nil {
		log.Fatal("Failed to initialize business metrics", zap.Error(err))
	}
	businessMetrics.StartPeriodicCollection(ctx, debtProvider, cfg.Metrics.CollectInterval)
	defer businessMetrics.Stop()
	invoiceService.SetBusinessMetrics(businessMetrics)
	paymentService.SetBusinessMetrics(businessMetrics)

	// JWT validation (tokens are issued by the identity provider; this service
	// only validates them and reads the building/user/role claims)
	jwtService := auth.NewJWTService(cfg.JWT)

	// Revoked-token checks back onto the same Redis instance as the
	// idempotency store. Startup proceeds without the blacklist if Redis
	// is unreachable; token signatures are still verified.
	var tokenBlacklist auth.TokenBlacklist
	if blacklist, err := auth.NewRedisTokenBlacklist(auth.RedisTokenBlacklistConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}); err != nil {
		log.Warn("Token blacklist unavailable, revoked tokens will not be rejected", zap.Error(err))
	} else {
		tokenBlacklist = blacklist
		defer func() {
			if err := blacklist.Close(); err != nil {
				log.Error("Error closing token blacklist", zap.Error(err))
			}
		}()
	}

	// Initialize HTTP handlers
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	balanceHandler := handler.NewBalanceHandler(balanceService)
	buildingHandler := handler.NewBuildingHandler(buildingService)
	unitHandler := handler.NewUnitHandler(unitService)

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
	// 5. Tracing/Metrics/Profiling - Observability (when enabled)
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			ServiceName:   cfg.Telemetry.ServiceName,
			Enabled:       true,
		}))
	}
	if profiler.IsEnabled() {
		engine.Use(middleware.Profiling())
	}

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

	// Swagger documentation endpoint, gated per config (disabled or
	// IP/auth restricted in production)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, middleware.JWTAuthMiddleware(jwtService)),
		ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	// Configure skip paths for public endpoints
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: tokenBlacklist,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Billing domain (invoices, payments, balances)
	billingRoutes := router.NewDomainGroup("billing", "/billing")
	billingRoutes.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "billing service ready"})
	})

	// Invoice ledger routes (writes are administrator-only)
	billingRoutes.POST("/invoices", middleware.RequireAdmin(), invoiceHandler.Create)
	billingRoutes.POST("/invoices/batch", middleware.RequireAdmin(), invoiceHandler.BatchCreate)
	billingRoutes.GET("/invoices", invoiceHandler.List)
	billingRoutes.GET("/invoices/summary", invoiceHandler.Summary)
	billingRoutes.GET("/invoices/:id", invoiceHandler.GetByID)
	billingRoutes.POST("/invoices/:id/cancel", middleware.RequireAdmin(), invoiceHandler.Cancel)

	// Payment routes (residents report, administrators review)
	billingRoutes.POST("/payments", paymentHandler.Submit)
	billingRoutes.GET("/payments", paymentHandler.List)
	billingRoutes.GET("/payments/pending", middleware.RequireAdmin(), paymentHandler.ListPending)
	billingRoutes.GET("/payments/:id", paymentHandler.GetByID)
	billingRoutes.POST("/payments/:id/approve", middleware.RequireAdmin(), paymentHandler.Approve)
	billingRoutes.POST("/payments/:id/reject", middleware.RequireAdmin(), paymentHandler.Reject)
	billingRoutes.POST("/payments/:id/preview-allocation", middleware.RequireAdmin(), paymentHandler.PreviewAllocation)

	// Balance routes
	billingRoutes.GET("/units/:unitId/balance", balanceHandler.GetUnitBalance)
	billingRoutes.GET("/units/:unitId/payments", balanceHandler.GetPaymentHistory)
	billingRoutes.GET("/units/:unitId/invoices/outstanding", invoiceHandler.ListOutstanding)
	billingRoutes.GET("/debt-summary", middleware.RequireAdmin(), balanceHandler.GetBuildingDebtSummary)

	// Directory domain (buildings, units)
	directoryRoutes := router.NewDomainGroup("directory", "/directory")
	directoryRoutes.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "directory service ready"})
	})

	// Building routes
	directoryRoutes.POST("/buildings", middleware.RequireAdmin(), buildingHandler.Create)
	directoryRoutes.GET("/buildings", buildingHandler.List)
	directoryRoutes.GET("/buildings/:id", buildingHandler.GetByID)
	directoryRoutes.PUT("/buildings/:id", middleware.RequireAdmin(), buildingHandler.Update)
	directoryRoutes.POST("/buildings/:id/activate", middleware.RequireAdmin(), buildingHandler.Activate)
	directoryRoutes.POST("/buildings/:id/deactivate", middleware.RequireAdmin(), buildingHandler.Deactivate)

	// Unit routes
	directoryRoutes.POST("/units", middleware.RequireAdmin(), unitHandler.Create)
	directoryRoutes.GET("/units", unitHandler.List)
	directoryRoutes.GET("/units/:id", unitHandler.GetByID)
	directoryRoutes.PUT("/units/:id/owner", middleware.RequireAdmin(), unitHandler.UpdateOwner)
	directoryRoutes.PUT("/units/:id/aliquot", middleware.RequireAdmin(), unitHandler.SetAliquotShare)
	directoryRoutes.PUT("/units/:id/resident", middleware.RequireAdmin(), unitHandler.AssignResident)
	directoryRoutes.DELETE("/units/:id/resident", middleware.RequireAdmin(), unitHandler.RemoveResident)
	directoryRoutes.POST("/units/:id/activate", middleware.RequireAdmin(), unitHandler.Activate)
	directoryRoutes.POST("/units/:id/deactivate", middleware.RequireAdmin(), unitHandler.Deactivate)

	// Register all domain groups
	r.Register(billingRoutes).
		Register(directoryRoutes)

	// Register system routes with swagger-documented handlers
	systemHandler := handler.NewSystemHandler()
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

	// Setup routes
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
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
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
