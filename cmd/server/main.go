package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gofleet/internal/config"
	"gofleet/internal/handlers"
	"gofleet/internal/repositories/mongodb"
	"gofleet/internal/services"
	"gofleet/pkg/cache"
	"gofleet/pkg/database"
	"gofleet/pkg/logger"
	"gofleet/pkg/sms"
	"gofleet/pkg/websocket"
	"gofleet/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.App.LogLevel),
		Format:     cfg.App.LogFormat,
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	})
	if err != nil {
		log.Fatalf("failed to initialise logger: %v", err)
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.Fatalf("failed to connect to mongodb: %v", err)
	}
	defer db.Close()

	if err := database.NewMigrator(db.Database).Up(); err != nil {
		appLogger.Fatalf("failed to run migrations: %v", err)
	}

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLogger.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisCache.Close()

	smsProvider := buildSMSProvider(cfg, appLogger)

	tripRepo := mongodb.NewTripRepository(db.Database)
	workerRepo := mongodb.NewWorkerRepository(db.Database)
	requesterRepo := mongodb.NewRequesterRepository(db.Database)
	geoIndex := cache.NewWorkerGeoIndex(redisCache)

	hub := websocket.NewHub(cfg.Dispatch.SettleDelay, appLogger)
	go hub.Run()

	loyaltyService := services.NewLoyaltyService(requesterRepo, appLogger)
	coordinator := services.NewSideEffectCoordinator(workerRepo, loyaltyService, appLogger)
	dispatchService := services.NewDispatchService(tripRepo, workerRepo, requesterRepo, hub, geoIndex, cfg.Dispatch, appLogger)
	tripService := services.NewTripService(tripRepo, hub, coordinator, appLogger)
	ratingService := services.NewRatingService(tripRepo, workerRepo, appLogger)
	emergencyService := services.NewEmergencyService(tripRepo, requesterRepo, hub, smsProvider, appLogger)
	incidentService := services.NewIncidentService(tripRepo, hub, appLogger)
	workerService := services.NewWorkerService(workerRepo, tripRepo, hub, geoIndex, appLogger)

	hub.SetResyncFunc(dispatchService.ReplayPendingTrips)

	tripHandler := handlers.NewTripHandler(dispatchService, tripService, ratingService, emergencyService, incidentService, appLogger)
	workerHandler := handlers.NewWorkerHandler(workerService, appLogger)
	wsHandler := websocket.NewHandler(hub)

	healthCheck := func(c *gin.Context) {
		status := http.StatusOK
		checks := gin.H{"mongodb": "up", "redis": "up"}
		if err := db.Ping(); err != nil {
			checks["mongodb"] = "down"
			status = http.StatusServiceUnavailable
		}
		if err := redisCache.Ping(c.Request.Context()); err != nil {
			checks["redis"] = "down"
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"status":  checks,
			"version": cfg.App.Version,
		})
	}

	router := routes.Setup(cfg, appLogger, tripHandler, workerHandler, wsHandler, healthCheck)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.Infof("starting server on port %d", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Errorf("forced shutdown: %v", err)
	}
}

// buildSMSProvider picks the configured SMS backend; Twilio is the default,
// SNS the alternative. Missing credentials degrade to no provider, which the
// emergency path treats as skip and log.
func buildSMSProvider(cfg *config.Config, appLogger *logger.Logger) sms.SMSProvider {
	switch cfg.SMS.Provider {
	case "aws", "sns":
		provider, err := sms.NewAWSSNSProvider(cfg.SMS.AWS.Region)
		if err != nil {
			appLogger.WithError(err).Warn("sns provider unavailable, sos sms disabled")
			return nil
		}
		return provider
	default:
		if cfg.SMS.Twilio.AccountSID == "" {
			appLogger.Warn("twilio not configured, sos sms disabled")
			return nil
		}
		return sms.NewTwilioProvider(cfg.SMS.Twilio.AccountSID, cfg.SMS.Twilio.AuthToken, cfg.SMS.Twilio.FromNumber)
	}
}
