package cache

import (
	"sync"
	"time"
)

type item struct {
	value     any
	expiresAt time.Time
}

func (it item) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

// TTLCache is an in-process cache with lazy expiry. Entries are evicted on
// read, so an idle cache holds stale entries until the next Get.
type TTLCache struct {
	mu    sync.RWMutex
	items map[string]item
}

func NewTTLCache() *TTLCache {
	return &TTLCache{items: make(map[string]item)}
}

func (c *TTLCache) Get(key string) (any, bool) {
	now := time.Now()

	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if it.expired(now) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false
	}
	return it.value, true
}

// Set stores value under key. ttl <= 0 means no expiry.
func (c *TTLCache) Set(key string, value any, ttl time.Duration) {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = item{value: value, expiresAt: exp}
	c.mu.Unlock()
}

func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *TTLCache) GetBytes(key string) ([]byte, bool, error) {
	v, ok := c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return b, true, nil
}

func (c *TTLCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	c.Set(key, value, ttl)
	return nil
}

var _ BytesCache = (*TTLCache)(nil)
