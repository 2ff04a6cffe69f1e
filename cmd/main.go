package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/rbac"
	"github.com/Tesseract-Nexus/go-shared/tracing"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shipping-charge-service/internal/cache"
	"shipping-charge-service/internal/carriers"
	"shipping-charge-service/internal/config"
	"shipping-charge-service/internal/events"
	"shipping-charge-service/internal/forms"
	"shipping-charge-service/internal/handlers"
	"shipping-charge-service/internal/metrics"
	"shipping-charge-service/internal/middleware"
	"shipping-charge-service/internal/models"
	"shipping-charge-service/internal/repository"
	"shipping-charge-service/internal/services"
)

const serviceName = "shipping-charge-service"

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.Info("Starting Shipping Charge Service...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	if cfg.Server.Env != "production" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	// Connect to database
	db, err := connectDatabase(cfg.GetDatabaseDSN(), cfg.Server.Env)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	log.Info("Database connected successfully")

	if err := runMigrations(db); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}
	log.Info("Database migrations completed")

	// Seed the shared container catalog
	if err := repository.SeedContainers(db); err != nil {
		log.WithError(err).Warn("Failed to seed shipping containers")
	}

	// Initialize Redis client (optional - graceful degradation if Redis unavailable)
	redisClient := connectRedis(cfg.RedisURL, log)

	// Initialize NATS events publisher
	var chargeEvents services.EventPublisher
	eventsPublisher, err := events.NewPublisher(cfg.NATSURL, log)
	if err != nil {
		log.WithError(err).Warn("Failed to initialize events publisher (events won't be published)")
	} else {
		defer eventsPublisher.Close()
		chargeEvents = eventsPublisher
		log.Info("✓ NATS events publisher initialized")
	}

	// Initialize OpenTelemetry tracing
	var tracerProvider *tracing.TracerProvider
	if cfg.Server.Env == "production" {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig(serviceName))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig(serviceName))
	}
	if err != nil {
		log.WithError(err).Warn("Failed to initialize tracing (continuing without tracing)")
	}

	// Prometheus metrics: HTTP middleware plus carrier and calculation counters
	httpMetrics := gosharedmw.InitGlobalMetrics("tesseract", "shipping_charge_service")
	metrics.RegisterDefault()

	// Carrier facades
	baseLogger := logrus.NewEntry(log)
	registry := carriers.NewRegistry(carriers.Dependencies{
		Settings:  cfg.Shipping,
		Endpoints: cfg.Carriers,
		Store:     cache.NewStore(redisClient, baseLogger.WithField("component", "code-cache")),
		Memo:      cache.NewOriginMemo(),
		Forms:     forms.NewBuilder(cfg.Shipping.LookupURL, cfg.Shipping.DetailsURL),
		Logger:    baseLogger,
	})
	log.WithField("carriers", registry.SupportedTypes()).Info("Carrier registry initialized")

	// Repositories
	methodRepo := repository.NewShippingMethodRepository(db)
	containerRepo := repository.NewContainerRepository(db)

	// Services
	availabilityService := services.NewAvailabilityService(registry, cfg.Shipping, baseLogger)
	methodService := services.NewMethodService(methodRepo, availabilityService, registry, cfg.Shipping, baseLogger)
	chargeService := services.NewChargeService(registry, containerRepo, cfg.Shipping, chargeEvents, baseLogger)
	lookupService := services.NewLookupService(registry)
	containerService := services.NewContainerService(containerRepo)

	// Handlers
	chargeHandler := handlers.NewChargeHandler(chargeService, methodService)
	lookupHandler := handlers.NewLookupHandler(lookupService, methodService)
	methodHandler := handlers.NewMethodHandler(methodService)
	containerHandler := handlers.NewContainerHandler(containerService)

	// Initialize RBAC middleware
	rbacMw := rbac.NewMiddlewareWithURL(cfg.StaffServiceURL, nil)
	log.Info("✓ RBAC middleware initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gosharedmw.SecurityHeaders())

	// Rate limiting middleware (uses Redis for distributed rate limiting)
	if redisClient != nil {
		router.Use(gosharedmw.RedisRateLimitMiddlewareWithProfile(redisClient, "standard"))
		log.Info("✓ Redis-based rate limiting enabled")
	} else {
		router.Use(gosharedmw.RateLimit())
		log.Info("✓ In-memory rate limiting enabled (Redis unavailable)")
	}

	router.Use(httpMetrics.Middleware())
	router.Use(tracing.GinMiddleware(serviceName))
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	// IstioAuth middleware - extracts JWT claims from x-jwt-claim-* headers
	// This MUST come before TenantMiddleware and RBAC middleware
	router.Use(gosharedmw.IstioAuth(gosharedmw.IstioAuthConfig{
		RequireAuth:        false,
		AllowLegacyHeaders: true,
		SkipPaths:          []string{"/health", "/metrics"},
	}))
	router.Use(middleware.TenantMiddleware())
	router.Use(middleware.ErrorHandler(log))

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gosharedmw.Handler())

	api := router.Group("/api")
	{
		// Checkout: charges, availability and the extra form endpoints
		api.POST("/charges/:code", rbacMw.RequirePermission(rbac.PermissionShippingRead), chargeHandler.CalculateCharge)
		api.POST("/methods/available", rbacMw.RequirePermission(rbac.PermissionShippingRead), chargeHandler.AvailableMethods)
		api.GET("/city-lookup/:code", rbacMw.RequirePermission(rbac.PermissionShippingRead), lookupHandler.CityLookup)
		api.GET("/details/:code", rbacMw.RequirePermission(rbac.PermissionShippingRead), chargeHandler.Details)
		api.POST("/details/:code", rbacMw.RequirePermission(rbac.PermissionShippingRead), chargeHandler.Details)

		// Shipping methods
		api.GET("/shipping-methods", rbacMw.RequirePermission(rbac.PermissionShippingRead), methodHandler.ListMethods)
		api.GET("/shipping-methods/:id", rbacMw.RequirePermission(rbac.PermissionShippingRead), methodHandler.GetMethod)
		api.POST("/shipping-methods", rbacMw.RequirePermission(rbac.PermissionShippingManage), methodHandler.CreateMethod)
		api.PUT("/shipping-methods/:id", rbacMw.RequirePermission(rbac.PermissionShippingManage), methodHandler.UpdateMethod)
		api.DELETE("/shipping-methods/:id", rbacMw.RequirePermission(rbac.PermissionShippingManage), methodHandler.DeleteMethod)

		// Container catalog
		api.GET("/containers", rbacMw.RequirePermission(rbac.PermissionShippingRead), containerHandler.ListContainers)
		api.GET("/containers/:id", rbacMw.RequirePermission(rbac.PermissionShippingRead), containerHandler.GetContainer)
		api.POST("/containers", rbacMw.RequirePermission(rbac.PermissionShippingManage), containerHandler.CreateContainer)
		api.DELETE("/containers/:id", rbacMw.RequirePermission(rbac.PermissionShippingManage), containerHandler.DeleteContainer)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).WithField("environment", cfg.Server.Env).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down shipping-charge-service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("Error shutting down tracer provider")
		}
	}

	if redisClient != nil {
		_ = redisClient.Close()
	}

	log.Info("Shipping charge service stopped")
}

// connectDatabase establishes a connection to the PostgreSQL database
func connectDatabase(dsn, env string) (*gorm.DB, error) {
	logLevel := logger.Info
	if env == "production" {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.ShippingContainer{},
		&models.ShippingMethod{},
	)
}

// connectRedis returns nil when Redis is not configured or unreachable;
// the code cache then falls back to memory.
func connectRedis(url string, log *logrus.Logger) *redis.Client {
	if url == "" {
		log.Info("REDIS_URL not configured, code cache kept in memory")
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		log.WithError(err).Warn("Failed to parse Redis URL, continuing without Redis")
		return nil
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Failed to connect to Redis, continuing without Redis")
		_ = client.Close()
		return nil
	}

	log.Info("✓ Connected to Redis for code caching")
	return client
}
