package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ResultCache stores service answers by request key.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]PrioritizedTask, bool, error)
	Set(ctx context.Context, key string, result []PrioritizedTask) error
}

// CacheKey identifies a request by a digest of its JSON form. Task order is
// part of the key.
func CacheKey(in PrioritizationInput) string {
	b, _ := json.Marshal(in)
	return "prioritize:" + strconv.FormatUint(xxhash.Sum64(b), 16)
}

// CachedPrioritizer answers repeated identical requests from a cache. Cache
// errors are logged and bypassed.
type CachedPrioritizer struct {
	next   Prioritizer
	cache  ResultCache
	logger *zap.Logger
}

func NewCachedPrioritizer(next Prioritizer, cache ResultCache, logger *zap.Logger) *CachedPrioritizer {
	return &CachedPrioritizer{next: next, cache: cache, logger: logger}
}

func (c *CachedPrioritizer) Prioritize(ctx context.Context, in PrioritizationInput) ([]PrioritizedTask, error) {
	key := CacheKey(in)

	cached, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("prioritization cache read failed", zap.String("key", key), zap.Error(err))
	}
	if ok {
		return cached, nil
	}

	out, err := c.next.Prioritize(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, out); err != nil {
		c.logger.Warn("prioritization cache write failed", zap.String("key", key), zap.Error(err))
	}
	return out, nil
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(url string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisCache{client: redis.NewClient(opt), ttl: ttl}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]PrioritizedTask, bool, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var out []PrioritizedTask
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, false, fmt.Errorf("decode cached result: %w", err)
	}
	return out, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, result []PrioritizedTask) error {
	b, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, b, c.ttl).Err()
}
