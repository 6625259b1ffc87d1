package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tempdash/backend/services/dashboard-service/internal/models"
)

const defaultKeyPrefix = "dashboard:views"

// RedisViewCache keeps view results in redis for ttl.
type RedisViewCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisViewCache returns redis-backed cache.
func NewRedisViewCache(client *redis.Client, ttl time.Duration) *RedisViewCache {
	return &RedisViewCache{client: client, ttl: ttl, prefix: defaultKeyPrefix}
}

func (c *RedisViewCache) key(name string) string {
	return fmt.Sprintf("%s:%s", c.prefix, name)
}

// Get returns a cached result; ok is false on a miss.
func (c *RedisViewCache) Get(ctx context.Context, name string) (models.ViewResult, bool, error) {
	data, err := c.client.Get(ctx, c.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.ViewResult{}, false, nil
	}
	if err != nil {
		return models.ViewResult{}, false, err
	}

	result, err := decodeView(data)
	if err != nil {
		return models.ViewResult{}, false, err
	}
	return result, true, nil
}

// Set caches result.
func (c *RedisViewCache) Set(ctx context.Context, name string, result models.ViewResult) error {
	data, err := encodeView(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(name), data, c.ttl).Err()
}

// Invalidate drops every dashboard view entry.
func (c *RedisViewCache) Invalidate(ctx context.Context) error {
	keys := make([]string, 0, len(models.DashboardViews))
	for _, name := range models.DashboardViews {
		keys = append(keys, c.key(name))
	}
	return c.client.Del(ctx, keys...).Err()
}

func encodeView(result models.ViewResult) ([]byte, error) {
	return json.Marshal(result)
}

// decodeView reverses encodeView. Numbers come back as float64 and times as RFC 3339 strings.
func decodeView(data []byte) (models.ViewResult, error) {
	var result models.ViewResult
	if err := json.Unmarshal(data, &result); err != nil {
		return models.ViewResult{}, fmt.Errorf("decode cached view: %w", err)
	}
	return result, nil
}
