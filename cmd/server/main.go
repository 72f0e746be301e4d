package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"carpool/internal/app"
	"carpool/internal/auth"
	"carpool/internal/config"
	"carpool/internal/handler"
	internalRedis "carpool/internal/redis"
	"carpool/internal/repository/postgres"
	"carpool/internal/service"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.WithError(err).Error("failed to initialize New Relic")
		} else {
			log.WithField("app", cfg.NewRelic.AppName).Info("New Relic enabled")
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	log.Info("connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info("connected to Redis")

	// Wire dependencies.
	server := wireServer(db, redisClient, nrApp, cfg, log)

	// Start server in goroutine.
	go func() {
		log.WithField("port", cfg.Server.Port).Info("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, log *logrus.Logger) *http.Server {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	txManager := postgres.NewTxManager(db)
	userRepo := postgres.NewUserRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)

	// Initialize services.
	notificationService := service.NewNotificationService(log)
	pricingService := service.NewPricingService(cfg.Pricing.PlatformFeeRate, cfg.Pricing.CommissionRate)
	ratingService := service.NewRatingService()
	tripService := service.NewTripService(txManager, tripRepo, reservationRepo, userRepo, pricingService, notificationService, cacheStore)
	reservationService := service.NewReservationService(txManager, reservationRepo, tripRepo, userRepo, pricingService, ratingService, notificationService, lockStore, cacheStore)

	// Initialize handlers.
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	userHandler := handler.NewUserHandler(userRepo, tokens)
	tripHandler := handler.NewTripHandler(tripService)
	reservationHandler := handler.NewReservationHandler(reservationService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		UserHandler:        userHandler,
		TripHandler:        tripHandler,
		ReservationHandler: reservationHandler,
		Tokens:             tokens,
		RedisClient:        redisClient,
		NewRelicApp:        nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
