package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shareit/service-booking/internal/application"
	"github.com/shareit/service-booking/internal/common/database"
	"github.com/shareit/service-booking/internal/common/health"
	"github.com/shareit/service-booking/internal/common/kafka"
	"github.com/shareit/service-booking/internal/common/logger"
	"github.com/shareit/service-booking/internal/common/middleware"
	"github.com/shareit/service-booking/internal/config"
	bookingEvents "github.com/shareit/service-booking/internal/events"
	"github.com/shareit/service-booking/internal/handler"
	"github.com/shareit/service-booking/internal/metrics"
	"github.com/shareit/service-booking/internal/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-booking")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.Bool("allow_owner_booking", cfg.Policy.AllowOwnerBooking),
		zap.Bool("reject_overlapping", cfg.Policy.RejectOverlapping),
	)

	// Connect to database
	dbConfig := database.FromConfig(cfg.DBConfig)
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("failed to get database handle", zap.Error(err))
	}
	defer func() { _ = sqlDB.Close() }()

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.UserModel{}, &repository.ItemModel{}, &repository.BookingModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), cfg.MigrationsDir, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize Kafka producer
	var writer bookingEvents.EventWriter
	if cfg.KafkaConfig.Enabled {
		kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		writer = kafkaProducer
		log.Info("booking events enabled", zap.Strings("brokers", cfg.KafkaConfig.Brokers))
	}
	publisher := bookingEvents.NewBookingPublisher(writer, log)

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	itemCatalog := repository.NewGormItemCatalog(db)
	userDirectory := repository.NewGormUserDirectory(db)

	// Initialize application services
	bookingService := application.NewBookingService(
		bookingRepo,
		userDirectory,
		itemCatalog,
		publisher,
		cfg.Policy,
		nil,
		log,
	)
	itemService := application.NewItemBookingService(bookingRepo, userDirectory, itemCatalog, nil, log)
	commentGate := application.NewCommentGate(bookingRepo, userDirectory, itemCatalog, nil)

	metrics.Register()

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService)
	itemHandler := handler.NewItemHandler(itemService, commentGate)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(log))

	// Register health check and metrics routes
	healthHandler := health.NewHandler(sqlDB, "service-booking")
	healthHandler.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Register routes
	limiter := middleware.NewRateLimiter(cfg.RateLimitConfig.RPS, cfg.RateLimitConfig.Burst)
	rateLimit := middleware.RateLimitMiddleware(limiter)
	bookingHandler.RegisterRoutes(&router.RouterGroup, rateLimit)
	itemHandler.RegisterRoutes(&router.RouterGroup, rateLimit)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}
