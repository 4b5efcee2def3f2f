package worker

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

const defaultBufferItems = 64

// resultCache memoizes query results until the corpus changes. Each entry
// costs 1, so maxCost bounds the number of cached queries.
type resultCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

func newResultCache(maxCost int64, ttl time.Duration) (*resultCache, error) {
	if maxCost <= 0 {
		return &resultCache{}, nil
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        maxCost * 10,
		MaxCost:            maxCost,
		BufferItems:        defaultBufferItems,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	return &resultCache{cache: cache, ttl: ttl}, nil
}

func resultKey(typ MessageType, query string, top int, alpha float64) string {
	return fmt.Sprintf("%s\x00%d\x00%g\x00%s", typ, top, alpha, query)
}

func (c *resultCache) get(key string) (any, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(key)
}

func (c *resultCache) set(key string, value any) {
	if c.cache == nil {
		return
	}
	if c.ttl > 0 {
		c.cache.SetWithTTL(key, value, 1, c.ttl)
	} else {
		c.cache.Set(key, value, 1)
	}
	c.cache.Wait()
}

func (c *resultCache) clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

func (c *resultCache) close() {
	if c.cache != nil {
		c.cache.Close()
	}
}
