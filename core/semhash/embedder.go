package semhash

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Embedder maps text to a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// NgramEmbedder exposes HashNgrams through the Embedder interface.
type NgramEmbedder struct{}

func NewNgramEmbedder() *NgramEmbedder {
	return &NgramEmbedder{}
}

func (e *NgramEmbedder) Dimension() int {
	return Dimension
}

func (e *NgramEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return HashNgrams(text), nil
}

// CachedEmbedder memoizes another Embedder in a bounded LRU keyed by text.
// Returned slices are copies; callers may modify them freely.
type CachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

// NewCachedEmbedder wraps inner with an LRU of the given size. A size of
// zero or less disables caching.
func NewCachedEmbedder(inner Embedder, size int) (*CachedEmbedder, error) {
	c := &CachedEmbedder{inner: inner}
	if size <= 0 {
		return c, nil
	}

	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	c.cache = cache
	return c, nil
}

func (c *CachedEmbedder) Dimension() int {
	return c.inner.Dimension()
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.cache != nil {
		if vec, ok := c.cache.Get(text); ok {
			return clone(vec), nil
		}
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Add(text, clone(vec))
	}
	return vec, nil
}

// Len reports the number of cached vectors.
func (c *CachedEmbedder) Len() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}

func clone(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}
