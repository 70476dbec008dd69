package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ElmWill/acceloka/internal/cache"
	"github.com/ElmWill/acceloka/internal/config"
	"github.com/ElmWill/acceloka/internal/events"
	"github.com/ElmWill/acceloka/internal/handlers"
	"github.com/ElmWill/acceloka/internal/repository"
	"github.com/ElmWill/acceloka/pkg/logger"
	"github.com/ElmWill/acceloka/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	appLogger := logger.New(cfg.Environment)
	defer appLogger.Sync()

	appLogger.Info("Starting booking service",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
	)

	appLogger.Info("Kafka configuration",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopicEvents),
		zap.String("client_id", cfg.KafkaClientID),
		zap.String("acks", cfg.KafkaAcks),
		zap.Int("retries", cfg.KafkaRetries),
	)

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Open SQLite store (schema init included)
	store, err := repository.NewStore(cfg.SQLitePath, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open store", zap.Error(err))
	}

	// Cache (Redis with in-memory fallback)
	var cacheClient cache.Cache
	if cfg.UseCache {
		cacheClient = cache.New(cfg, appLogger)
	} else {
		appLogger.Info("Cache disabled (USE_CACHE=false)")
	}

	// Kafka publisher, in-memory fallback when brokers are unreachable
	var eventBus events.EventPublisher
	eventBus, err = events.NewKafkaEventPublisher(cfg, appLogger)
	if err != nil {
		appLogger.Warn("Failed to initialize Kafka publisher, using in-memory fallback", zap.Error(err))
		eventBus = events.NewEventPublisher(appLogger)
	}

	// Initialize router
	router := gin.New()

	// CORS middleware (must be first to handle preflight requests)
	router.Use(middleware.CORSMiddleware())

	router.Use(middleware.RecoveryHandler(appLogger))
	router.Use(logger.GinMiddleware(appLogger))

	// Request ID middleware (must be early in the chain)
	router.Use(middleware.RequestIDMiddleware(appLogger))

	// Error handler middleware
	router.Use(middleware.ErrorHandler(appLogger))

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(appLogger, store, eventBus, cacheClient)
	ticketHandler := handlers.NewTicketHandler(appLogger, store, cacheClient, cfg.CacheTTL)

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/get-available-ticket", ticketHandler.GetAvailableTickets)
		v1.POST("/book-ticket", bookingHandler.BookTicket)
		v1.GET("/get-booked-ticket/:bookedTicketId", bookingHandler.GetBookedTicket)
		v1.PUT("/edit-booked-ticket", bookingHandler.EditBookedTicket)
		v1.DELETE("/revoke-ticket/:bookedTicketId/:ticketCode/:qty", bookingHandler.RevokeTicket)
	}
	router.GET("/health", bookingHandler.HealthCheck)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		appLogger.Info("Listening",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	if closer, ok := eventBus.(*events.KafkaEventPublisher); ok {
		if err := closer.Close(); err != nil {
			appLogger.Warn("Failed to close Kafka producer", zap.Error(err))
		}
	}
	if redisCache, ok := cacheClient.(*cache.RedisCache); ok {
		if err := redisCache.Close(); err != nil {
			appLogger.Warn("Failed to close Redis client", zap.Error(err))
		}
	}
	if err := store.Close(); err != nil {
		appLogger.Warn("Failed to close store", zap.Error(err))
	}

	appLogger.Info("Server exited")
}
