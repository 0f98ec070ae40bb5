package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/types"
	"github.com/stitts-dev/nfl-lineup-optimizer/pkg/database"
)

const serviceName = "lineup-optimizer"

// dependency is an optional backing store. gatesReady marks the ones whose
// failure should take the instance out of rotation.
type dependency struct {
	name       string
	configured bool
	gatesReady bool
	ping       func(ctx context.Context) error
}

// HealthHandler reports on the run history database and the redis cache.
// Runs succeed without either, so neither is required.
type HealthHandler struct {
	deps   []dependency
	logger *logrus.Logger
}

func NewHealthHandler(db *database.DB, redisClient *redis.Client, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		deps: []dependency{
			{
				name:       "database",
				configured: db != nil,
				ping:       func(context.Context) error { return db.HealthCheck() },
			},
			{
				name:       "redis",
				configured: redisClient != nil,
				gatesReady: true,
				ping:       func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			},
		},
		logger: logger,
	}
}

// runChecks runs every configured check and reports whether any failed, and
// whether a readiness-gating one failed
func (h *HealthHandler) runChecks(ctx context.Context) (checks map[string]string, degraded, notReady bool) {
	checks = make(map[string]string, len(h.deps))
	for _, dep := range h.deps {
		if !dep.configured {
			checks[dep.name] = "not_configured"
			continue
		}
		if err := dep.ping(ctx); err != nil {
			checks[dep.name] = "failed: " + err.Error()
			degraded = true
			if dep.gatesReady {
				notReady = true
			}
			h.logger.WithError(err).WithField("dependency", dep.name).Warn("Health check failed")
			continue
		}
		checks[dep.name] = "ok"
	}
	return checks, degraded, notReady
}

// GetHealth answers 200 when every configured dependency responds and 206
// when some do not
func (h *HealthHandler) GetHealth(c *gin.Context) {
	checks, degraded, _ := h.runChecks(c.Request.Context())

	response := types.HealthStatus{
		Status:    "ok",
		Service:   serviceName,
		Timestamp: time.Now(),
		Checks:    checks,
	}
	statusCode := http.StatusOK
	if degraded {
		response.Status = "degraded"
		statusCode = http.StatusPartialContent
	}
	c.JSON(statusCode, response)
}

// GetReady answers 503 while a configured redis is unreachable
func (h *HealthHandler) GetReady(c *gin.Context) {
	checks, _, notReady := h.runChecks(c.Request.Context())

	response := types.HealthStatus{
		Status:    "ready",
		Service:   serviceName,
		Timestamp: time.Now(),
		Checks:    checks,
	}
	statusCode := http.StatusOK
	if notReady {
		response.Status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, response)
}
