package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"admin-gateway-service/internal/cache"
	"admin-gateway-service/internal/config"
	"admin-gateway-service/internal/events"
	"admin-gateway-service/internal/handlers"
	"admin-gateway-service/internal/middleware"
	"admin-gateway-service/internal/platform"
	"admin-gateway-service/internal/services"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/tracing"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize logrus logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis page cache (optional - graceful degradation if Redis unavailable)
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Warning: Redis unavailable: %v", err)
			log.Println("Continuing without page cache...")
			redisClient = nil
		} else {
			log.Println("✓ Connected to Redis for page caching")
		}
		cancel()
	} else {
		log.Println("REDIS_ADDR not configured, page cache disabled")
	}
	pageCache := cache.NewPageCache(redisClient, cfg.CacheTTL)

	// Initialize NATS audit publisher (optional - graceful degradation if NATS unavailable)
	var auditPublisher *events.AuditPublisher
	if cfg.NATSURL != "" {
		var err error
		auditPublisher, err = events.NewAuditPublisher(cfg.NATSURL, logger)
		if err != nil {
			log.Printf("Warning: Failed to initialize NATS audit publisher: %v", err)
			log.Println("Continuing without audit events...")
		} else {
			log.Println("✓ Connected to NATS JetStream for audit events")
			defer auditPublisher.Close()
		}
	} else {
		log.Println("NATS_URL not configured, audit events disabled")
	}

	// Initialize platform API client
	platformClient := platform.NewClient(cfg.PlatformAPIURL, cfg.SessionCookieName, cfg.RatePerSecond, cfg.RequestTimeout)

	// Initialize services
	tableService := services.NewTableService(platformClient, pageCache, auditPublisher, logger, cfg.RequestTimeout, cfg.DefaultPageSize, cfg.MaxPageSize, cfg.PageWindowDelta)
	stockService := services.NewStockService(platformClient, pageCache, auditPublisher, logger, cfg.LowStockThreshold, cfg.RequestTimeout, cfg.DefaultPageSize, cfg.PageWindowDelta)
	dashboardService := services.NewDashboardService(platformClient, logger, cfg.MaxPageSize)

	// Initialize handlers
	tableHandler := handlers.NewTableHandler(tableService)
	stockHandler := handlers.NewStockHandler(stockService)
	exportHandler := handlers.NewExportHandler(tableService, stockService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	healthHandler := handlers.NewHealthHandler(redisClient)

	// Initialize OpenTelemetry tracing
	var tracerProvider *tracing.TracerProvider
	var err error
	if cfg.Environment == "production" {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig("admin-gateway-service"))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig("admin-gateway-service"))
	}
	if err != nil {
		log.Printf("WARNING: Failed to initialize tracing: %v (continuing without tracing)", err)
	} else {
		log.Println("✓ OpenTelemetry tracing initialized")
	}

	// Initialize Prometheus metrics
	metrics := gosharedmw.InitGlobalMetrics("tesseract", "admin_gateway_service")
	log.Println("✓ Prometheus metrics initialized")

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Add observability middleware (metrics + tracing)
	router.Use(metrics.Middleware())
	router.Use(tracing.GinMiddleware("admin-gateway-service"))

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/health/extended", healthHandler.ExtendedHealthCheck)
	router.GET("/ready", handlers.HealthCheck)
	router.GET("/metrics", gosharedmw.Handler())

	// Protected API routes
	api := router.Group("/api/v1/admin")

	// Authentication middleware using Istio JWT claims
	// Istio validates JWT and injects x-jwt-claim-* headers
	api.Use(gosharedmw.IstioAuth(gosharedmw.IstioAuthConfig{
		RequireAuth:        true,
		AllowLegacyHeaders: false,
		SkipPaths:          []string{"/health", "/ready", "/metrics"},
	}))
	api.Use(middleware.TenantMiddleware())
	api.Use(middleware.SessionMiddleware(cfg.SessionCookieName))

	// Sales dashboard
	api.GET("/dashboard/sales", dashboardHandler.SalesSummary)

	// Stock screen (registered before the generic :resource routes so the
	// literal path wins)
	stock := api.Group("/stock")
	{
		stock.GET("", stockHandler.List)
		stock.POST("/refresh", stockHandler.Refresh)
		stock.GET("/export", exportHandler.ExportStock)
		stock.POST("/select-all", stockHandler.ToggleSelectAll)
		stock.PATCH("/:inventoryId", stockHandler.AdjustQuantity)
		stock.POST("/:inventoryId/select", stockHandler.ToggleSelect)
	}

	// Generic resource tables (accounts, banners, categories, orders,
	// payments, roles)
	resources := api.Group("/:resource")
	{
		resources.GET("", tableHandler.List)
		resources.DELETE("", tableHandler.BulkDelete)
		resources.POST("/refresh", tableHandler.Refresh)
		resources.GET("/export", exportHandler.ExportResource)
		resources.POST("/select-all", tableHandler.ToggleSelectAll)
		resources.DELETE("/selection", tableHandler.ClearSelection)
		resources.PATCH("/:id", tableHandler.EditField)
		resources.POST("/:id/select", tableHandler.ToggleSelect)
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Admin gateway service starting on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	log.Println("Shutting down admin-gateway-service...")

	// Shutdown tracer provider
	if tracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		} else {
			log.Println("✓ Tracer provider shut down")
		}
	}

	log.Println("Admin gateway service stopped")
}
