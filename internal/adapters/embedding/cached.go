package embedding

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"github.com/0xcro3dile/ragchat/internal/domain/ports"
)

// Cached wraps an embedder with an expiring LRU for single-text lookups.
// Repeated questions in a chat skip the provider round trip. Batches go straight through.
type Cached struct {
	next   ports.EmbeddingService
	cache  *expirable.LRU[string, []float32]
	logger zerolog.Logger
}

// WithCache returns e unchanged when size or ttl is not positive.
func WithCache(e ports.EmbeddingService, size int, ttl time.Duration, logger zerolog.Logger) ports.EmbeddingService {
	if e == nil || size <= 0 || ttl <= 0 {
		return e
	}
	return &Cached{
		next:   e,
		cache:  expirable.NewLRU[string, []float32](size, nil, ttl),
		logger: logger.With().Str("component", "embedding_cache").Logger(),
	}
}

// ModelName delegates to the wrapped embedder.
func (c *Cached) ModelName() string {
	return c.next.ModelName()
}

// Embed serves from cache when possible.
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := c.cache.Get(text); ok {
		c.logger.Debug().Msg("embedding cache hit")
		return cloneEmbedding(cached), nil
	}
	res, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, cloneEmbedding(res))
	return res, nil
}

// EmbedBatch is not cached.
func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return c.next.EmbedBatch(ctx, texts)
}

// Len returns the number of cached entries.
func (c *Cached) Len() int {
	return c.cache.Len()
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
