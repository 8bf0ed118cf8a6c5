package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"routeflow/internal/optimizer"
	"routeflow/internal/platform/obs"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultOptimizationTTL = 15 * time.Minute

// RedisOptimizationCache implements ports.OptimizationCache with JSON values
// that expire after TTL.
type RedisOptimizationCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisOptimizationCache(client redis.UniversalClient, ttl time.Duration, log *zap.Logger) *RedisOptimizationCache {
	if ttl <= 0 {
		ttl = DefaultOptimizationTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisOptimizationCache{client: client, prefix: "routeflow:opt:", ttl: ttl, log: log}
}

// Fetch a cached result. A miss is (zero, false, nil).
func (c *RedisOptimizationCache) Get(ctx context.Context, key string) (_ optimizer.Result, _ bool, err error) {
	defer obs.Time(ctx, c.log, "optimization.cache.Get")(&err)

	if c.client == nil {
		return optimizer.Result{}, false, errors.New("optimization cache: client is nil")
	}

	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return optimizer.Result{}, false, nil
	}
	if err != nil {
		return optimizer.Result{}, false, fmt.Errorf("get optimization cache key=%q: %w", key, err)
	}

	var res optimizer.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return optimizer.Result{}, false, fmt.Errorf("get optimization cache key=%q: decode: %w", key, err)
	}
	return res, true, nil
}

// Store a result under key for the configured TTL.
func (c *RedisOptimizationCache) Set(ctx context.Context, key string, res optimizer.Result) (err error) {
	defer obs.Time(ctx, c.log, "optimization.cache.Set")(&err)

	if c.client == nil {
		return errors.New("optimization cache: client is nil")
	}

	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("set optimization cache key=%q: encode: %w", key, err)
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set optimization cache key=%q: %w", key, err)
	}
	return nil
}
