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
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/api"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/services"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/websocket"
	"github.com/stitts-dev/nfl-lineup-optimizer/pkg/cache"
	"github.com/stitts-dev/nfl-lineup-optimizer/pkg/config"
	"github.com/stitts-dev/nfl-lineup-optimizer/pkg/database"
	"github.com/stitts-dev/nfl-lineup-optimizer/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	structuredLogger := logger.InitLogger(logger.Options{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Development: cfg.IsDevelopment(),
	})
	log := logger.WithService("lineup-optimizer")
	log.WithFields(logrus.Fields{
		"environment": cfg.Env,
		"port":        cfg.Port,
		"solver":      cfg.Solver,
	}).Info("Starting lineup optimizer")

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	opts := []services.Option{}

	// Run history is optional
	var db *database.DB
	if cfg.DatabaseURL != "" {
		db, err = database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.Migrate(); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		opts = append(opts, services.WithHistory(services.NewRunHistory(db)))
	} else {
		log.Warn("DATABASE_URL not set, run history disabled")
	}

	// So is the result cache
	var redisClient *redis.Client
	var cacheService *cache.OptimizationCacheService
	if cfg.RedisURL != "" {
		redisClient, err = cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		defer redisClient.Close()

		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.WithError(err).Warn("Redis not reachable, continuing; results will not be cached until it is")
		}
		cacheService = cache.NewOptimizationCacheService(redisClient, structuredLogger)
		opts = append(opts, services.WithCache(cacheService))
	} else {
		log.Warn("REDIS_URL not set, result cache disabled")
	}

	lpSolver, err := services.NewSolver(cfg, structuredLogger)
	if err != nil {
		log.Fatalf("Failed to initialize solver: %v", err)
	}

	wsHub := websocket.NewHub(structuredLogger)
	go wsHub.Run()
	opts = append(opts, services.WithNotifier(wsHub))

	optimizationService := services.NewOptimizationService(lpSolver, cfg, structuredLogger, opts...)

	router := api.NewRouter(api.Dependencies{
		Service: optimizationService,
		DB:      db,
		Redis:   redisClient,
		Cache:   cacheService,
		Hub:     wsHub,
		Config:  cfg,
		Logger:  structuredLogger,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Lineup optimizer started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down lineup optimizer...")

	// The server has 5 seconds to finish the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Lineup optimizer forced to shutdown: %v", err)
	}

	log.Info("Lineup optimizer exited")
}
