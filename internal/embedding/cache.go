package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const DefaultBatchSize = 32

// Cache memoizes an Embedder by exact text. Misses are deduplicated and sent
// in batches of at most BatchSize. Concurrent callers may embed the same
// text twice; both write the same vector.
type Cache struct {
	embedder  Embedder
	store     Store
	batchSize int
	stats     *LatencyStats
	log       *slog.Logger

	backoff func(attempt int) time.Duration
}

// NewCache wraps embedder. A nil store means an in-process MemoryStore.
func NewCache(embedder Embedder, store Store, batchSize int, stats *LatencyStats, log *slog.Logger) *Cache {
	if store == nil {
		store = NewMemoryStore()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if stats == nil {
		stats = NewLatencyStats(time.Hour)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Cache{
		embedder:  embedder,
		store:     store,
		batchSize: batchSize,
		stats:     stats,
		log:       log,
		backoff:   Backoff,
	}
}

// Model names the wrapped embedder's model.
func (c *Cache) Model() string { return c.embedder.Model() }

// Stats returns the latency tracker fed by every embedder call.
func (c *Cache) Stats() *LatencyStats { return c.stats }

// Len reports how many vectors the store holds.
func (c *Cache) Len(ctx context.Context) (int, error) { return c.store.Len(ctx) }

// Resolve returns one vector per text, in order.
func (c *Cache) Resolve(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	if len(texts) == 0 {
		return out, nil
	}

	pending := make(map[string][]int)
	var missKeys []string
	var missTexts []string
	for i, t := range texts {
		key := Key(t)
		if idx, ok := pending[key]; ok {
			pending[key] = append(idx, i)
			continue
		}
		vec, ok, err := c.store.Get(ctx, key)
		if err != nil {
			c.log.Warn("embedding cache read failed", "error", err)
		}
		if ok {
			out[i] = vec
			continue
		}
		pending[key] = []int{i}
		missKeys = append(missKeys, key)
		missTexts = append(missTexts, t)
	}

	for start := 0; start < len(missTexts); start += c.batchSize {
		end := min(start+c.batchSize, len(missTexts))
		vecs, err := c.embedBatch(ctx, missTexts[start:end])
		if err != nil {
			return nil, err
		}
		for j, vec := range vecs {
			key := missKeys[start+j]
			if err := c.store.Set(ctx, key, vec); err != nil {
				c.log.Warn("embedding cache write failed", "error", err)
			}
			for _, i := range pending[key] {
				out[i] = vec
			}
		}
	}
	return out, nil
}

// Vector resolves a single text.
func (c *Cache) Vector(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.Resolve(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (c *Cache) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	var vecs [][]float32
	var lastErr error
	for attempt := range MaxRetries {
		start := time.Now()
		vecs, lastErr = c.embedder.Embed(ctx, batch)
		c.stats.Record(time.Since(start).Milliseconds(), len(batch))
		if lastErr == nil || !IsRetryable(lastErr) || attempt == MaxRetries-1 {
			break
		}
		c.log.Warn("retryable embedding error", "attempt", attempt, "batch", len(batch), "error", lastErr)
		select {
		case <-time.After(c.backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("embed %d texts: %w", len(batch), lastErr)
	}
	if len(vecs) != len(batch) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(batch))
	}
	return vecs, nil
}
