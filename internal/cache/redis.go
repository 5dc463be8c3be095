package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache fronts the hottest read paths (team list, live scores).
// Cache failures are soft: callers fall back to the database.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache connection
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{client: client}, nil
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// HealthCheck pings Redis to verify connection
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// GetJSON reads a cached JSON value into dest. Returns false on miss or
// any Redis error.
func (rc *RedisCache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if rc == nil {
		return false
	}
	raw, err := rc.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// SetJSON caches a JSON-encoded value with a TTL. Errors are swallowed;
// the cache is best-effort.
func (rc *RedisCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if rc == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	rc.client.Set(ctx, key, raw, ttl)
}

// Delete removes keys, best-effort.
func (rc *RedisCache) Delete(ctx context.Context, keys ...string) {
	if rc == nil {
		return
	}
	rc.client.Del(ctx, keys...)
}
