package cache

import "time"

// BytesCache stores raw bytes with a TTL. TTLCache backs it in-process;
// RedisCache backs it when a shared cache is available. Callers treat a miss
// and an expired entry identically.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
