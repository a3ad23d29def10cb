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
	"go.uber.org/zap"

	"github.com/RyzenMagsino/Carwash/internal/application"
	"github.com/RyzenMagsino/Carwash/internal/cache"
	"github.com/RyzenMagsino/Carwash/internal/clock"
	"github.com/RyzenMagsino/Carwash/internal/config"
	bookingDomain "github.com/RyzenMagsino/Carwash/internal/domain/booking"
	"github.com/RyzenMagsino/Carwash/internal/events"
	"github.com/RyzenMagsino/Carwash/internal/handler"
	"github.com/RyzenMagsino/Carwash/internal/repository"
	"github.com/RyzenMagsino/Carwash/pkg/auth"
	"github.com/RyzenMagsino/Carwash/pkg/database"
	"github.com/RyzenMagsino/Carwash/pkg/health"
	"github.com/RyzenMagsino/Carwash/pkg/kafka"
	"github.com/RyzenMagsino/Carwash/pkg/logger"
	"github.com/RyzenMagsino/Carwash/pkg/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-scheduling")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-scheduling",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(&repository.BookingModel{}, &repository.TransactionModel{}); err != nil {
		log.Fatal("failed to run auto-migration", zap.Error(err))
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		15*time.Minute,
		7*24*time.Hour,
	)

	// Initialize Kafka producer and notifier
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	notifier := events.NewKafkaNotifier(kafkaProducer, log)
	defer func() { _ = notifier.Close() }()

	// Initialize repositories and sinks
	bookingRepo := repository.NewGormBookingRepository(db)
	txSink := repository.NewGormTransactionSink(db)
	catalog := bookingDomain.NewStandardPriceCatalog()

	// Optional Redis stats cache
	opts := []application.BookingServiceOption{}
	if cfg.RedisConfig.Addr != "" {
		statsCache := cache.NewRedisStatsCache(cfg.RedisConfig, 30*time.Second)
		defer func() { _ = statsCache.Close() }()
		opts = append(opts, application.WithStatsCache(statsCache))
	}

	// Initialize the lifecycle engine
	bookingService := application.NewBookingService(
		bookingRepo,
		catalog,
		notifier,
		txSink,
		kafkaProducer,
		clock.System(),
		log,
		opts...,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Re-arm arrival deadlines for bookings that were ongoing at shutdown
	if err := bookingService.ResumeDeadlines(ctx); err != nil {
		log.Error("failed to resume arrival deadlines", zap.Error(err))
	}

	// Start the mobile-app intake consumer
	groupID := cfg.KafkaConfig.GroupPrefix + "scheduling-service"
	mobileConsumer := events.NewMobileEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		func(ctx context.Context, evt events.MobileBookingSubmittedEvent) error {
			_, err := bookingService.CreateBooking(ctx, application.CreateBookingRequest{
				CustomerName:  evt.CustomerName,
				CustomerEmail: evt.CustomerEmail,
				CustomerPhone: evt.CustomerPhone,
				PlateNumber:   evt.PlateNumber,
				VehicleType:   evt.VehicleType,
				Services:      evt.Services,
				ScheduledAt:   evt.ScheduledAt,
				Notes:         evt.Notes,
			})
			return err
		},
		log,
	)
	defer func() { _ = mobileConsumer.Close() }()

	go func() {
		log.Info("starting mobile event consumer")
		if err := mobileConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("mobile event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService)
	adminHandler := handler.NewAdminBookingHandler(bookingService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-scheduling")
	healthHandler.RegisterRoutes(router)

	// Register routes
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

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

	log.Info("shutting down service-scheduling...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-scheduling stopped")
}
