// Package cache provides the TTL'd page cache used to memoize rendered
// listing data. Invalidation is expiry-only: writes do not evict, so
// readers may see content up to one TTL stale.
package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// item 包装缓存数据和过期时间
type item struct {
	Data      any
	ExpiresAt time.Time
}

type PageCache struct {
	lruCache *lru.Cache[string, item]
}

// New creates a page cache bounded to size entries.
func New(size int) (*PageCache, error) {
	l, err := lru.New[string, item](size)
	if err != nil {
		return nil, err
	}
	return &PageCache{lruCache: l}, nil
}

// GetOrCompute returns the cached value for key if it has not expired,
// otherwise invokes compute, stores its result with a fresh timestamp
// and returns it. There is no per-key locking: concurrent misses may
// both compute and the last writer wins.
func (c *PageCache) GetOrCompute(key string, ttl time.Duration, compute func() (any, error)) (any, error) {
	if val, ok := c.Get(key); ok {
		return val, nil
	}
	val, err := compute()
	if err != nil {
		return nil, err
	}
	c.Set(key, val, ttl)
	return val, nil
}

// Set 设置缓存，TTL 为过期时间
func (c *PageCache) Set(key string, data any, ttl time.Duration) {
	c.lruCache.Add(key, item{
		Data:      data,
		ExpiresAt: time.Now().Add(ttl),
	})
}

// Get 获取缓存，若不存在或已过期则返回 false
func (c *PageCache) Get(key string) (any, bool) {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil, false
	}

	if time.Now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return nil, false
	}

	return val.Data, true
}
