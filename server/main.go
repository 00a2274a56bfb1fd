package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expopass/api/routes"
	"expopass/internal/notifications"
	"expopass/internal/reservations"
	"expopass/internal/shared/config"
	"expopass/internal/shared/database"
	"expopass/internal/shared/validation"
	"expopass/internal/tickets"
	"expopass/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	appLogger := logger.GetDefault()

	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	cfg := config.Load()

	gin.SetMode(cfg.GinMode)

	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("failed to connect:", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := validation.Register(); err != nil {
		appLogger.Error("Failed to register custom validators", slog.Any("error", err))
		os.Exit(1)
	}

	// Notification dispatch is optional: without Kafka the engine still
	// sells tickets, it just stays quiet.
	var notifier notifications.Dispatcher
	notifier, err = notifications.NewKafkaDispatcher(&notifications.ProducerConfig{
		Brokers:          cfg.Kafka.Brokers,
		Topic:            cfg.Kafka.Topic,
		RetryMax:         3,
		Timeout:          10 * time.Second,
		RequiredAcks:     notifications.DefaultProducerConfig().RequiredAcks,
		CompressionType:  notifications.DefaultProducerConfig().CompressionType,
		IdempotentWrites: true,
	})
	if err != nil {
		appLogger.Error("Failed to initialize Kafka dispatcher, notifications disabled", slog.Any("error", err))
		notifier = notifications.NopDispatcher{}
	} else {
		defer func() {
			if err := notifier.Close(); err != nil {
				appLogger.Error("Error closing notification dispatcher", slog.Any("error", err))
			}
		}()
	}

	// Background sweep for deferred payments that never settled.
	sweeperCtx, sweeperCancel := context.WithCancel(context.Background())
	defer sweeperCancel()

	sweeper := reservations.NewSweeper(
		reservations.NewRepository(db.GetPostgreSQL()),
		tickets.NewRepository(db.GetPostgreSQL()),
		&reservations.SweeperConfig{
			Interval:      cfg.Reservation.SweepInterval,
			PendingMaxAge: cfg.Reservation.PendingMaxAge,
			BatchSize:     100,
		},
	)
	sweeper.Start(sweeperCtx)
	defer sweeper.Stop()

	router := setupRouter(cfg, db, notifier)

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("🚀 Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("version", cfg.APIVersion),
			slog.Bool("redis_cache", (db.Redis != nil)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

func setupRouter(cfg *config.Config, db *database.DB, notifier notifications.Dispatcher) *gin.Engine {
	engine := gin.New()
	appLogger := logger.GetDefault()

	// Built-in middleware: logs requests + recovers from panics
	engine.Use(RequestLoggerMiddleware(appLogger), gin.Recovery())

	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	appRouter := routes.NewRouter(cfg, db, notifier)
	appRouter.SetupRoutes(engine)

	return engine
}

func RequestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		l.LogHTTPRequest(c, duration)
	}
}
