// Package main is the entry point for the history API.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finhistory/internal/config"
	"finhistory/internal/handlers"
	"finhistory/internal/logging"
	"finhistory/internal/repositories"
	"finhistory/internal/repositories/cache"
	"finhistory/internal/routes"
	"finhistory/internal/services/history"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const version = "1.0.0"

func main() {
	// Load environment variables
	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logging.Must(cfg.Production)
	defer func() { _ = log.Sync() }()

	db, err := repositories.Open(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			log.Warn("Failed to close database connection", zap.Error(err))
		}
	}()

	// Periodic connection pool stats
	go logPoolStats(db, log)

	var (
		limiterStorage fiber.Storage
		redisHealth    handlers.HealthChecker
	)
	if cfg.Redis.Enabled() {
		storage := cache.NewRedisStorage(cache.NewRedisClient(cfg.Redis), cache.DefaultPrefix)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := storage.HealthCheck(ctx); err != nil {
			log.Warn("Redis unreachable, rate limit counters will fail until it recovers", zap.Error(err))
		}
		cancel()
		defer func() {
			if err := storage.Close(); err != nil {
				log.Warn("Failed to close Redis connection", zap.Error(err))
			}
		}()
		limiterStorage = storage
		redisHealth = storage
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	historyService := history.NewService(
		repositories.NewHistoryRepository(db),
		log.Named("history"),
		history.NewPrometheusMetrics(registry),
	)

	app := routes.NewApp(routes.Dependencies{
		Config:         cfg,
		Logger:         log.Named("http"),
		HistoryService: historyService,
		Health:         handlers.NewHealthHandler(db, redisHealth, version),
		LimiterStorage: limiterStorage,
		Gatherer:       registry,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	log.Info("Starting server", zap.String("port", cfg.Server.Port), zap.String("version", version))
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Error("Server stopped", zap.Error(err))
	}
}

func logPoolStats(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		stats := sqlDB.Stats()
		log.Debug("DB stats",
			zap.Int("open", stats.OpenConnections),
			zap.Int("idle", stats.Idle),
			zap.Int("in_use", stats.InUse),
			zap.Int64("wait_count", stats.WaitCount),
			zap.Duration("wait_duration", stats.WaitDuration))
	}
}
