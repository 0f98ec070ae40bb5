package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
)

var ErrCacheMiss = errors.New("not found in cache")

const (
	resultPrefix  = "optimization:"
	requestPrefix = "optimization:request:"
)

// OptimizationCacheService handles caching for optimization results
type OptimizationCacheService struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewRedisClient parses a redis:// URL into a client
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewOptimizationCacheService creates a new optimization cache service
func NewOptimizationCacheService(client *redis.Client, logger *logrus.Logger) *OptimizationCacheService {
	return &OptimizationCacheService{
		client: client,
		logger: logger,
	}
}

func ResultKey(runID string) string {
	return resultPrefix + runID
}

func RequestKey(hash string) string {
	return requestPrefix + hash
}

// RequestHash fingerprints a request so identical deterministic runs can be served from cache
func RequestHash(request interface{}) (string, error) {
	data, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// SetOptimizationResult stores an optimization result under its run ID
func (c *OptimizationCacheService) SetOptimizationResult(ctx context.Context, result *models.OptimizationResult, expiration time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal optimization result: %w", err)
	}

	fullKey := ResultKey(result.RunID)
	if err := c.client.Set(ctx, fullKey, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set optimization result in cache: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"cache_key":     fullKey,
		"expiration":    expiration,
		"lineups_count": len(result.Lineups),
	}).Debug("Cached optimization result")

	return nil
}

// GetOptimizationResult retrieves an optimization result by run ID
func (c *OptimizationCacheService) GetOptimizationResult(ctx context.Context, runID string) (*models.OptimizationResult, error) {
	fullKey := ResultKey(runID)
	data, err := c.client.Get(ctx, fullKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("optimization result %s: %w", runID, ErrCacheMiss)
		}
		return nil, fmt.Errorf("failed to get optimization result from cache: %w", err)
	}

	var result models.OptimizationResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal optimization result: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"cache_key":     fullKey,
		"lineups_count": len(result.Lineups),
	}).Debug("Retrieved optimization result from cache")

	return &result, nil
}

// SetRequestRun remembers which run answered a request hash
func (c *OptimizationCacheService) SetRequestRun(ctx context.Context, hash, runID string, expiration time.Duration) error {
	if err := c.client.Set(ctx, RequestKey(hash), runID, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set request run in cache: %w", err)
	}
	return nil
}

// GetRequestResult resolves a request hash to its cached result
func (c *OptimizationCacheService) GetRequestResult(ctx context.Context, hash string) (*models.OptimizationResult, error) {
	runID, err := c.client.Get(ctx, RequestKey(hash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("request %s: %w", hash, ErrCacheMiss)
		}
		return nil, fmt.Errorf("failed to get request run from cache: %w", err)
	}
	return c.GetOptimizationResult(ctx, runID)
}

// DeleteOptimizationResult removes an optimization result from cache
func (c *OptimizationCacheService) DeleteOptimizationResult(ctx context.Context, runID string) error {
	fullKey := ResultKey(runID)
	if err := c.client.Del(ctx, fullKey).Err(); err != nil {
		return fmt.Errorf("failed to delete optimization result from cache: %w", err)
	}

	c.logger.WithField("cache_key", fullKey).Debug("Deleted optimization result from cache")
	return nil
}

// Ping reports whether redis answers
func (c *OptimizationCacheService) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// GetStatus returns cache statistics
func (c *OptimizationCacheService) GetStatus(ctx context.Context) map[string]interface{} {
	status := map[string]interface{}{
		"service":   "optimization-cache",
		"timestamp": time.Now(),
		"connected": c.Ping(ctx) == nil,
	}

	if dbSize := c.client.DBSize(ctx); dbSize.Err() == nil {
		status["db_size"] = dbSize.Val()
	}

	if keys, err := c.scanKeys(ctx, resultPrefix+"*"); err == nil {
		status["optimization_keys"] = len(keys)
	}
	if keys, err := c.scanKeys(ctx, requestPrefix+"*"); err == nil {
		status["request_keys"] = len(keys)
	}

	return status
}

// FlushOptimizationCache clears all optimization results from cache, along
// with the request hashes that point at them
func (c *OptimizationCacheService) FlushOptimizationCache(ctx context.Context) error {
	keys, err := c.scanKeys(ctx, resultPrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to get optimization keys: %w", err)
	}

	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to delete optimization keys: %w", err)
		}
	}

	c.logger.WithField("deleted_keys", len(keys)).Info("Flushed optimization cache")
	return nil
}

func (c *OptimizationCacheService) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}
