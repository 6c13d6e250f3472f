package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/partnerhub/attribution-service/internal/cache"
	"github.com/partnerhub/attribution-service/internal/config"
	"github.com/partnerhub/attribution-service/internal/events"
	"github.com/partnerhub/attribution-service/internal/handlers"
	"github.com/partnerhub/attribution-service/internal/middleware"
	"github.com/partnerhub/attribution-service/internal/models"
	"github.com/partnerhub/attribution-service/internal/repository"
	"github.com/partnerhub/attribution-service/internal/scheduler"
	"github.com/partnerhub/attribution-service/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	})
	if cfg.IsProduction() {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	if err := db.AutoMigrate(
		&models.Partner{},
		&models.Deal{},
		&models.Touchpoint{},
		&models.CommissionRule{},
		&models.Attribution{},
		&models.Payout{},
		&models.AuditLog{},
	); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}
	logger.Info("Database migrated")

	// Initialize Redis client
	redisClient := initRedis(cfg, logger)
	defer func() {
		if redisClient != nil {
			redisClient.Close()
		}
	}()
	reportCache := cache.NewReportCache(redisClient, logger, 5*time.Minute)

	// Initialize NATS. RetryOnFailedConnect keeps the service usable when the
	// broker is down; events are best-effort.
	natsClient, err := events.NewClient(events.DefaultConfig(cfg.NATSURL), logger)
	if err != nil {
		logger.WithError(err).Warn("NATS unavailable, events disabled")
		natsClient = nil
	}
	defer func() {
		if natsClient != nil {
			natsClient.Close()
		}
	}()
	publisher := events.NewPublisher(natsClient, logger)

	// Initialize repositories
	partnerRepo := repository.NewPartnerRepository(db)
	dealRepo := repository.NewDealRepository(db)
	ruleRepo := repository.NewRuleRepository(db)
	attributionRepo := repository.NewAttributionRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Initialize services
	partnerService := services.NewPartnerService(partnerRepo, auditRepo, logger)
	ruleService := services.NewRuleService(ruleRepo, auditRepo, logger)
	attributionService := services.NewAttributionService(dealRepo, partnerRepo, ruleRepo, attributionRepo, publisher, reportCache, logger)
	payoutService := services.NewPayoutService(payoutRepo, partnerRepo, publisher, reportCache, logger)
	reportingService := services.NewReportingService(dealRepo, partnerRepo, attributionRepo, payoutRepo, reportCache, logger)

	// Initialize handlers
	partnerHandlers := handlers.NewPartnerHandlers(partnerService, logger)
	dealHandlers := handlers.NewDealHandlers(attributionService, logger)
	ruleHandlers := handlers.NewRuleHandlers(ruleService, logger)
	payoutHandlers := handlers.NewPayoutHandlers(payoutService, logger)
	reportHandlers := handlers.NewReportHandlers(reportingService, logger)
	auditHandlers := handlers.NewAuditHandlers(auditRepo, logger)

	// Start audit log retention cleanup
	cleanup := scheduler.NewCleanupScheduler(auditRepo, cfg.AuditRetentionDays, logger)
	if err := cleanup.Start(); err != nil {
		logger.WithError(err).Warn("Cleanup scheduler failed to start")
	}
	defer cleanup.Stop()

	// Setup router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORSMiddleware())

	// Health and observability endpoints
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "attribution-service"})
	})
	router.GET("/ready", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": "database unavailable"})
			return
		}
		if err := sqlDB.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": "database ping failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1")
	{
		partners := api.Group("/partners")
		{
			partners.POST("", partnerHandlers.CreatePartner)
			partners.GET("", partnerHandlers.ListPartners)
			partners.GET("/:id", partnerHandlers.GetPartner)
			partners.PATCH("/:id", partnerHandlers.UpdateProgram)
			partners.DELETE("/:id", partnerHandlers.DeactivatePartner)
			partners.GET("/:id/attribution", dealHandlers.GetPartnerAttribution)
		}

		deals := api.Group("/deals")
		{
			deals.POST("", dealHandlers.CreateDeal)
			deals.GET("", dealHandlers.ListDeals)
			deals.GET("/:id", dealHandlers.GetDeal)
			deals.POST("/:id/close", dealHandlers.CloseDeal)
			deals.POST("/:id/touchpoints", dealHandlers.AddTouchpoint)
			deals.GET("/:id/touchpoints", dealHandlers.ListTouchpoints)
			deals.GET("/:id/attribution", dealHandlers.GetDealAttribution)
			deals.POST("/:id/attribution/recalculate", dealHandlers.RecalculateDeal)
		}

		rules := api.Group("/commission-rules")
		{
			rules.POST("", ruleHandlers.CreateRule)
			rules.GET("", ruleHandlers.ListRules)
			rules.GET("/:id", ruleHandlers.GetRule)
			rules.PUT("/:id", ruleHandlers.UpdateRule)
			rules.DELETE("/:id", ruleHandlers.DeleteRule)
		}

		payouts := api.Group("/payouts")
		{
			payouts.POST("", payoutHandlers.CreatePayout)
			payouts.GET("", payoutHandlers.ListPayouts)
			payouts.POST("/bulk-approve", payoutHandlers.BulkApprovePayouts)
			payouts.GET("/:id", payoutHandlers.GetPayout)
			payouts.PATCH("/:id", payoutHandlers.UpdatePayout)
			payouts.DELETE("/:id", payoutHandlers.DeletePayout)
			payouts.POST("/:id/approve", payoutHandlers.ApprovePayout)
			payouts.POST("/:id/reject", payoutHandlers.RejectPayout)
			payouts.POST("/:id/process", payoutHandlers.MarkPayoutProcessing)
			payouts.POST("/:id/pay", payoutHandlers.MarkPayoutPaid)
			payouts.POST("/:id/fail", payoutHandlers.MarkPayoutFailed)
			payouts.POST("/:id/reapprove", payoutHandlers.ReapprovePayout)
		}

		reports := api.Group("/reports")
		{
			reports.GET("/reconciliation", reportHandlers.GetReconciliation)
			reports.GET("/reconciliation/export", reportHandlers.ExportReconciliation)
			reports.GET("/forecast", reportHandlers.GetForecast)
		}

		audit := api.Group("/audit-logs")
		{
			audit.GET("", auditHandlers.ListAuditLogs)
			audit.GET("/:entityType/:id", auditHandlers.GetEntityAuditTrail)
		}
	}

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    cfg.GetServerAddress(),
		Handler: router,
	}

	go func() {
		logger.WithField("address", srv.Addr).Info("Attribution service listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Forced shutdown")
	}
}

func initRedis(cfg *config.Config, logger *logrus.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("Redis unavailable, report caching disabled")
		client.Close()
		return nil
	}

	logger.WithField("addr", cfg.RedisAddr).Info("Connected to Redis")
	return client
}
