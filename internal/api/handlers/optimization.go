package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/optimizer"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/pool"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/rules"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/services"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/types"
	"github.com/stitts-dev/nfl-lineup-optimizer/pkg/cache"
	"github.com/stitts-dev/nfl-lineup-optimizer/pkg/config"
)

// OptimizeRequest is the body of POST /api/v1/optimize. Players arrive
// already joined with their site ids.
type OptimizeRequest struct {
	Site       string          `json:"site" binding:"required"`
	NumLineups int             `json:"num_lineups" binding:"required,min=1"`
	NumUniques int             `json:"num_uniques"`
	Seed       uint64          `json:"seed"`
	RunID      string          `json:"run_id"`
	Rules      rules.Config    `json:"rules"`
	Players    []models.Player `json:"players" binding:"required,min=1"`
}

// ValidationResponse reports how a request would be compiled without solving it
type ValidationResponse struct {
	Valid       bool             `json:"valid"`
	Pool        *pool.LoadReport `json:"pool"`
	Variables   int              `json:"variables"`
	Constraints int              `json:"constraints"`
	Warnings    []string         `json:"warnings"`
}

// OptimizationHandler handles optimization-related endpoints
type OptimizationHandler struct {
	service *services.OptimizationService
	cache   *cache.OptimizationCacheService
	config  *config.Config
	logger  *logrus.Logger
}

// NewOptimizationHandler creates a new optimization handler. The cache may be nil.
func NewOptimizationHandler(
	service *services.OptimizationService,
	cache *cache.OptimizationCacheService,
	config *config.Config,
	logger *logrus.Logger,
) *OptimizationHandler {
	return &OptimizationHandler{
		service: service,
		cache:   cache,
		config:  config,
		logger:  logger,
	}
}

type preparedRequest struct {
	site  models.Site
	rules *rules.RuleSet
	pool  *pool.PlayerPool
	load  *pool.LoadReport
}

// prepare resolves the site, rules and pool, writing a 400 on failure
func (h *OptimizationHandler) prepare(c *gin.Context, req *OptimizeRequest) (*preparedRequest, bool) {
	site, err := models.GetSite(req.Site)
	if err != nil {
		badRequest(c, "Unknown site", "UNKNOWN_SITE", err)
		return nil, false
	}

	rs, err := rules.FromConfig(req.Rules)
	if err != nil {
		badRequest(c, "Invalid rules", "INVALID_RULES", err)
		return nil, false
	}
	if req.Seed != 0 {
		rs.Seed = req.Seed
	}

	p, report, err := pool.Prepare(req.Players, pool.LoadOptions{
		Site:              site,
		ProjectionMinimum: rs.ProjectionMinimum,
		StdDevFractions:   rs.StdDevFractions,
		RequireIDs:        rs.RequireIDs,
	}, h.logger.WithField("site", site.Key))
	if err != nil {
		badRequest(c, "Invalid player pool", "INVALID_PLAYER_POOL", err)
		return nil, false
	}
	if p.Len() == 0 {
		badRequest(c, "Invalid player pool", "INVALID_PLAYER_POOL", errors.New("no players left after filtering"))
		return nil, false
	}

	return &preparedRequest{site: site, rules: rs, pool: p, load: report}, true
}

// OptimizeLineups handles lineup optimization requests
func (h *OptimizationHandler) OptimizeLineups(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", "INVALID_REQUEST", err)
		return
	}
	if req.NumUniques == 0 {
		req.NumUniques = 1
	}
	if req.RunID != "" {
		if _, err := uuid.Parse(req.RunID); err != nil {
			badRequest(c, "Invalid run id", "INVALID_RUN_ID", err)
			return
		}
	}

	prepared, ok := h.prepare(c, &req)
	if !ok {
		return
	}

	// Only reproducible requests are answered from the cache
	var hash string
	if prepared.rules.Randomness == 0 || prepared.rules.Seed != 0 {
		keyed := req
		keyed.RunID = ""
		var err error
		if hash, err = cache.RequestHash(keyed); err != nil {
			h.logger.WithError(err).Warn("Failed to hash optimization request")
		} else if cached, ok := h.service.CachedRequest(c.Request.Context(), hash); ok {
			h.logger.WithFields(logrus.Fields{
				"request_hash": hash,
				"run_id":       cached.RunID,
			}).Info("Returning cached optimization result")
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	result, err := h.service.Run(c.Request.Context(), services.Request{
		RunID:      req.RunID,
		Site:       prepared.site,
		NumLineups: req.NumLineups,
		NumUniques: req.NumUniques,
		Rules:      prepared.rules,
		Pool:       prepared.pool,
	})
	if err != nil {
		h.logger.WithError(err).Error("Optimization failed")
		switch {
		case errors.Is(err, services.ErrInvalidRequest):
			badRequest(c, "Invalid optimization request", "VALIDATION_ERROR", err)
		case errors.Is(err, context.DeadlineExceeded):
			c.JSON(http.StatusGatewayTimeout, types.ErrorResponse{
				Error:   "Optimization timed out",
				Code:    "OPTIMIZATION_TIMEOUT",
				Details: map[string]string{"error": err.Error()},
			})
		default:
			c.JSON(http.StatusInternalServerError, types.ErrorResponse{
				Error:   "Optimization failed",
				Code:    "OPTIMIZATION_ERROR",
				Details: map[string]string{"error": err.Error()},
			})
		}
		return
	}

	// a run cut short is not the answer to the request
	if hash != "" && result.StopReason == "" {
		h.service.RememberRequest(c.Request.Context(), hash, result.RunID)
	}

	c.JSON(http.StatusOK, result)
}

// ValidateOptimizationRequest compiles a request and reports the model size
// and rule warnings without solving
func (h *OptimizationHandler) ValidateOptimizationRequest(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", "INVALID_REQUEST", err)
		return
	}

	prepared, ok := h.prepare(c, &req)
	if !ok {
		return
	}

	if h.config.MaxLineups > 0 && req.NumLineups > h.config.MaxLineups {
		badRequest(c, "Invalid optimization request", "VALIDATION_ERROR",
			errors.New("num_lineups exceeds limit of "+strconv.Itoa(h.config.MaxLineups)))
		return
	}

	compiled, err := optimizer.Compile(prepared.pool, prepared.rules, prepared.site, h.logger.WithField("site", prepared.site.Key))
	if err != nil {
		badRequest(c, "Invalid optimization request", "VALIDATION_ERROR", err)
		return
	}

	warnings := compiled.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	c.JSON(http.StatusOK, ValidationResponse{
		Valid:       true,
		Pool:        prepared.load,
		Variables:   compiled.Model.NumVars(),
		Constraints: len(compiled.Model.Constraints),
		Warnings:    warnings,
	})
}

// GetRun returns a finished run from the cache or the run history
func (h *OptimizationHandler) GetRun(c *gin.Context) {
	runID := c.Param("id")
	result, err := h.service.GetResult(c.Request.Context(), runID)
	if errors.Is(err, services.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, types.ErrorResponse{
			Error: "Optimization run not found",
			Code:  "RUN_NOT_FOUND",
		})
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to load optimization run")
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "Failed to load optimization run",
			Code:    "INTERNAL_ERROR",
			Details: map[string]string{"error": err.Error()},
		})
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListRuns returns recent run summaries, newest first
func (h *OptimizationHandler) ListRuns(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{
				Error: "limit must be a positive integer",
				Code:  "INVALID_REQUEST",
			})
			return
		}
		limit = n
	}

	runs, err := h.service.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list optimization runs")
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "Failed to list optimization runs",
			Code:    "INTERNAL_ERROR",
			Details: map[string]string{"error": err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetCacheStatus reports the redis result cache
func (h *OptimizationHandler) GetCacheStatus(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusOK, gin.H{"configured": false, "connected": false})
		return
	}
	status := h.cache.GetStatus(c.Request.Context())
	status["configured"] = true
	c.JSON(http.StatusOK, status)
}

// FlushCache drops every cached result. Request hashes expire on their own.
func (h *OptimizationHandler) FlushCache(c *gin.Context) {
	if !h.cacheConfigured(c) {
		return
	}
	if err := h.cache.FlushOptimizationCache(c.Request.Context()); err != nil {
		h.logger.WithError(err).Error("Failed to flush optimization cache")
		c.JSON(http.StatusBadGateway, types.ErrorResponse{Error: "Failed to flush cache", Code: "CACHE_ERROR"})
		return
	}
	c.JSON(http.StatusOK, types.SuccessResponse{Message: "optimization cache flushed"})
}

// EvictRun removes one cached result; its history row is kept
func (h *OptimizationHandler) EvictRun(c *gin.Context) {
	if !h.cacheConfigured(c) {
		return
	}
	runID := c.Param("id")
	if _, err := uuid.Parse(runID); err != nil {
		badRequest(c, "Invalid run id", "INVALID_RUN_ID", err)
		return
	}
	if err := h.cache.DeleteOptimizationResult(c.Request.Context(), runID); err != nil {
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to evict cached run")
		c.JSON(http.StatusBadGateway, types.ErrorResponse{Error: "Failed to evict cached run", Code: "CACHE_ERROR"})
		return
	}
	c.JSON(http.StatusOK, types.SuccessResponse{Message: "cached run evicted", Data: gin.H{"run_id": runID}})
}

func (h *OptimizationHandler) cacheConfigured(c *gin.Context) bool {
	if h.cache != nil {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{
		Error: "Result cache is not configured",
		Code:  "CACHE_NOT_CONFIGURED",
	})
	return false
}

func badRequest(c *gin.Context, message, code string, err error) {
	c.JSON(http.StatusBadRequest, types.ErrorResponse{
		Error: message,
		Code:  code,
		Details: map[string]string{
			"validation_error": err.Error(),
		},
	})
}
