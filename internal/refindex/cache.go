package refindex

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/seenimoa/edgarlens/pkg/models"
)

// DefaultTTL is the freshness window applied to both cache tiers.
const DefaultTTL = time.Hour

// storeKey is the external key-value slot holding the serialized row list.
const storeKey = "edgarlens:refindex:rows"

// Store is the optional external key-value tier. Implementations must
// tolerate being unavailable; both methods are best-effort from the cache's
// point of view.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// IndexCache holds the built reference row list with a freshness window,
// optionally mirrored to an external key-value tier. It is safe for
// concurrent use; simultaneous misses may trigger concurrent rebuilds,
// which is wasteful but harmless since the index is a pure recomputation
// of upstream state (last writer wins).
type IndexCache struct {
	builder *Builder
	store   Store // nil for memory-only caching
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger

	mu      sync.RWMutex
	rows    []models.ReferenceRow
	builtAt time.Time
}

// CacheOption configures an IndexCache.
type CacheOption func(*IndexCache)

// WithStore attaches an external key-value tier.
func WithStore(s Store) CacheOption {
	return func(c *IndexCache) { c.store = s }
}

// WithTTL overrides the freshness window.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *IndexCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock injects a clock, used by tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *IndexCache) { c.now = now }
}

// NewIndexCache creates a cache over the given builder. Content is built
// on first use.
func NewIndexCache(builder *Builder, opts ...CacheOption) *IndexCache {
	c := &IndexCache{
		builder: builder,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rows returns the reference row list, serving still-fresh content from
// process memory first, then the external tier, and rebuilding from
// upstream otherwise. External tier failures are logged and never surfaced;
// an absent store degrades silently to memory-only caching.
func (c *IndexCache) Rows(ctx context.Context) ([]models.ReferenceRow, error) {
	c.mu.RLock()
	rows, builtAt := c.rows, c.builtAt
	c.mu.RUnlock()
	if rows != nil && c.now().Sub(builtAt) < c.ttl {
		return rows, nil
	}

	if rows, ok := c.fromStore(ctx); ok {
		return rows, nil
	}

	rows, err := c.builder.Build(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.rows = rows
	c.builtAt = c.now()
	c.mu.Unlock()

	c.toStore(ctx, rows)
	return rows, nil
}

// fromStore reads the serialized row list from the external tier. The
// tier's own expiry governs freshness there. A hit also refreshes the
// in-memory tier.
func (c *IndexCache) fromStore(ctx context.Context) ([]models.ReferenceRow, bool) {
	if c.store == nil {
		return nil, false
	}
	raw, ok := c.store.Get(ctx, storeKey)
	if !ok {
		return nil, false
	}
	var rows []models.ReferenceRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		c.logger.Warn("discarding unreadable external cache entry", "error", err)
		return nil, false
	}
	c.mu.Lock()
	c.rows = rows
	c.builtAt = c.now()
	c.mu.Unlock()
	return rows, true
}

func (c *IndexCache) toStore(ctx context.Context, rows []models.ReferenceRow) {
	if c.store == nil {
		return
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		c.logger.Warn("serialize reference rows for external cache", "error", err)
		return
	}
	if err := c.store.Set(ctx, storeKey, string(raw), c.ttl); err != nil {
		c.logger.Warn("write reference rows to external cache", "error", err)
	}
}
