package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/api/handlers"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/api/middleware"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/services"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/websocket"
	"github.com/stitts-dev/nfl-lineup-optimizer/pkg/cache"
	"github.com/stitts-dev/nfl-lineup-optimizer/pkg/config"
	"github.com/stitts-dev/nfl-lineup-optimizer/pkg/database"
)

// Dependencies are the collaborators the routes need. DB, Redis and Cache may be nil.
type Dependencies struct {
	Service *services.OptimizationService
	DB      *database.DB
	Redis   *redis.Client
	Cache   *cache.OptimizationCacheService
	Hub     *websocket.Hub
	Config  *config.Config
	Logger  *logrus.Logger
}

// NewRouter builds the gin engine with every route registered
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger, "lineup-optimizer"))

	optimizationHandler := handlers.NewOptimizationHandler(deps.Service, deps.Cache, deps.Config, deps.Logger)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis, deps.Logger)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/optimize", optimizationHandler.OptimizeLineups)
		apiV1.POST("/optimize/validate", optimizationHandler.ValidateOptimizationRequest)
		apiV1.GET("/optimize/cache-status", optimizationHandler.GetCacheStatus)
		apiV1.DELETE("/optimize/cache", optimizationHandler.FlushCache)

		apiV1.GET("/runs", optimizationHandler.ListRuns)
		apiV1.GET("/runs/:id", optimizationHandler.GetRun)
		apiV1.DELETE("/runs/:id/cache", optimizationHandler.EvictRun)
	}

	router.GET("/ws/optimization-progress/:run_id", deps.Hub.HandleWebSocket)

	router.GET("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)

	return router
}
