package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache backs BytesCache with a shared Redis client, so cached entries
// survive restarts and are shared across instances.
type RedisCache struct {
	cli *redis.Client
}

// NewRedisCacheFromClient wraps an existing client. The caller owns the
// client's lifecycle.
func NewRedisCacheFromClient(cli *redis.Client) *RedisCache {
	return &RedisCache{cli: cli}
}

// Client returns the underlying client for components that share the pool.
func (r *RedisCache) Client() *redis.Client { return r.cli }

func (r *RedisCache) GetBytes(key string) ([]byte, bool, error) {
	b, err := r.cli.Get(context.Background(), key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (r *RedisCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	return r.cli.Set(context.Background(), key, value, ttl).Err()
}

var _ BytesCache = (*RedisCache)(nil)
