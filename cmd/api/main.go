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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"telemed-booking-core/internal/app/progress"
	"telemed-booking-core/internal/app/queue"
	"telemed-booking-core/internal/app/scheduler"
	"telemed-booking-core/internal/app/worker"
	"telemed-booking-core/internal/domain/ports"
	"telemed-booking-core/internal/domain/services/availability"
	"telemed-booking-core/internal/domain/services/booking"
	"telemed-booking-core/internal/domain/services/conflict"
	"telemed-booking-core/internal/domain/services/lifecycle"
	"telemed-booking-core/internal/domain/services/matching"
	"telemed-booking-core/internal/domain/services/video"
	"telemed-booking-core/internal/infra/config"
	"telemed-booking-core/internal/infra/http/handlers"
	"telemed-booking-core/internal/infra/http/routes"
	"telemed-booking-core/internal/infra/lock"
	"telemed-booking-core/internal/infra/logger"
	"telemed-booking-core/internal/infra/mediagw"
	"telemed-booking-core/internal/infra/metrics"
	"telemed-booking-core/internal/infra/queuebackend"
	"telemed-booking-core/internal/infra/rowstore"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.NewLogger(cfg.Log.Level)
	appLogger.Logger.Info("Starting telemedicine booking core")

	rowStoreClient := rowstore.NewClient(cfg.RowStore, appLogger)
	mediaClient := mediagw.NewClient(cfg.MediaGateway, appLogger)

	doctorRepo := rowstore.NewDoctorRepository(rowStoreClient)
	appointmentRepo := rowstore.NewAppointmentRepository(rowStoreClient)
	availabilityRepo := rowstore.NewAvailabilityRepository(rowStoreClient)
	videoRepo := rowstore.NewVideoRepository(rowStoreClient)

	clock := ports.RealClock{}

	acquirerID := "booking-core-" + os.Getenv("HOSTNAME")

	var lockManager ports.LockManager
	var queueBackend ports.QueueBackend
	if cfg.QueueBackend.Enabled && cfg.QueueBackend.URL != "" {
		opts, err := redis.ParseURL(cfg.QueueBackend.URL)
		if err != nil {
			appLogger.Logger.WithError(err).Fatal("invalid queue backend URL")
		}
		redisClient := redis.NewClient(opts)
		lockManager = lock.NewRedisLockManager(redisClient)
		queueBackend = queuebackend.NewRedisBackend(redisClient)
		appLogger.Logger.Info("using redis-backed queue and lock manager")
	} else {
		lockManager = lock.NewRowStoreLockManager(rowStoreClient, clock)
		queueBackend = queuebackend.NewInProcessBackend()
		appLogger.Logger.Info("using in-process queue and row-store-backed lock manager")
	}

	availabilityEngine := availability.NewEngine(availabilityRepo)
	conflictDetector := conflict.NewDetector(appointmentRepo)
	matchingEngine := matching.NewEngine(doctorRepo, availabilityEngine)
	booker := booking.NewBooker(lockManager, conflictDetector, appointmentRepo, clock, acquirerID, cfg.WorkerPool.LockTTLSeconds)

	metricsRegistry := metrics.NewRegistry(prometheus.DefaultRegisterer)

	lifecycleRules := lifecycle.NewRules(appointmentRepo, clock, lifecycle.Config{
		MinAdvanceBookingHours: cfg.Booking.MinAdvanceBookingHours,
		MaxAdvanceBookingDays:  cfg.Booking.MaxAdvanceBookingDays,
		MinDurationMinutes:     cfg.Booking.MinDurationMinutes,
		MaxDurationMinutes:     cfg.Booking.MaxDurationMinutes,
		AllowWeekends:          cfg.Booking.AllowWeekends,
		AllowedRescheduleHours: cfg.Booking.AllowedRescheduleHours,
		BusinessHourStart:      cfg.Booking.BusinessHourStart,
		BusinessHourEnd:        cfg.Booking.BusinessHourEnd,
	}, metricsRegistry)

	videoCoordinator := video.NewCoordinator(videoRepo, appointmentRepo, mediaClient, clock, cfg.MediaGateway.BaseURL, appLogger, metricsRegistry)

	progressHub := progress.NewHub()
	queueService := queue.NewService(queueBackend, clock)

	loc, err := time.LoadLocation("UTC")
	if err != nil {
		appLogger.Logger.WithError(err).Fatal("failed to load time location")
	}

	workerPool := worker.NewPool(queueService, matchingEngine, booker, lifecycleRules, progressHub, clock, loc, worker.Config{
		MaxConcurrentJobs: cfg.WorkerPool.MaxConcurrentJobs,
		JobTimeout:        time.Duration(cfg.WorkerPool.JobTimeoutSeconds) * time.Second,
		RetryDelay:        time.Duration(cfg.WorkerPool.RetryDelaySeconds) * time.Second,
		PollInterval:      time.Second,
		GracefulShutdown:  time.Duration(cfg.WorkerPool.GracefulShutdownTimeoutSeconds) * time.Second,
	}, appLogger, metricsRegistry)
	workerPool.Start()

	cronScheduler, err := scheduler.New(videoCoordinator, lockManager, queueService, cfg.WorkerPool.HealthCheckIntervalSeconds, appLogger)
	if err != nil {
		appLogger.Logger.WithError(err).Fatal("failed to build scheduler")
	}
	cronScheduler.Start()

	healthHandler := handlers.NewHealthHandler()
	readinessHandler := handlers.NewReadinessHandler(map[string]func() error{
		"rowstore": rowStoreClient.Ready,
		"mediagw":  mediaClient.Ready,
	})
	bookingHandler := handlers.NewBookingHandler(queueService, progressHub, cfg.WorkerPool.MaxRetries)

	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := routes.SetupRouter(routes.Dependencies{
		Health:    healthHandler,
		Readiness: readinessHandler,
		Booking:   bookingHandler,
		Log:       appLogger,
		CORS:      cfg.CORS,
		JWTSecret: cfg.RowStore.JWTSecret,
	})

	srv := &http.Server{
		Addr:    cfg.Server.GetAddress(),
		Handler: router,
	}

	go func() {
		appLogger.Logger.WithField("address", cfg.Server.GetAddress()).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Logger.WithError(err).Error("HTTP server shutdown error")
	}

	cronScheduler.Stop()
	workerPool.Stop()

	appLogger.Logger.Info("shutdown complete")
}
