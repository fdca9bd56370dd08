package cache

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUCache is the in-process fallback used when no Redis address is
// configured.
type LRUCache struct {
	lru     *expirable.LRU[string, []byte]
	version atomic.Uint64
}

func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = 1
	}
	return &LRUCache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (c *LRUCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, ok := c.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(val), true, nil
}

func (c *LRUCache) Set(_ context.Context, key string, val []byte) error {
	c.lru.Add(key, slices.Clone(val))
	return nil
}

func (c *LRUCache) Version(_ context.Context) (uint64, error) {
	return c.version.Load(), nil
}

func (c *LRUCache) Invalidate(_ context.Context) error {
	c.version.Add(1)
	c.lru.Purge()
	return nil
}

func (c *LRUCache) Len() int {
	return c.lru.Len()
}
