package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/skill-recommender/internal/types"
)

// DefaultTTL is how long a cached catalog stays valid.
const DefaultTTL = time.Hour

const keyPrefix = "skill-recommender:catalog:"

// CatalogSource loads a catalog from its system of record.
type CatalogSource interface {
	LoadCatalog(ctx context.Context, kind types.ItemKind) (*types.Catalog, error)
}

// CatalogCache is a read-through cache in front of a CatalogSource. Store
// failures are logged and never fail a load.
type CatalogCache struct {
	source CatalogSource
	store  Store
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCatalogCache wraps source. A non-positive ttl uses DefaultTTL.
func NewCatalogCache(source CatalogSource, store Store, ttl time.Duration, logger zerolog.Logger) *CatalogCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CatalogCache{source: source, store: store, ttl: ttl, logger: logger}
}

// Key returns the cache key of a kind.
func Key(kind types.ItemKind) string {
	return keyPrefix + string(kind)
}

// LoadCatalog returns the cached catalog of kind, loading and caching it on a
// miss.
func (c *CatalogCache) LoadCatalog(ctx context.Context, kind types.ItemKind) (*types.Catalog, error) {
	key := Key(kind)
	b, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var cat types.Catalog
		uerr := json.Unmarshal(b, &cat)
		if uerr == nil {
			c.logger.Debug().Str("kind", string(kind)).Msg("catalog cache hit")
			return &cat, nil
		}
		c.logger.Warn().Err(uerr).Str("key", key).Msg("discarding undecodable cached catalog")
	case !errors.Is(err, ErrMiss):
		c.logger.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	}

	cat, err := c.source.LoadCatalog(ctx, kind)
	if err != nil {
		return nil, err
	}
	c.put(ctx, key, cat)
	return cat, nil
}

// Invalidate drops the cached catalog of kind so the next load goes to the
// source.
func (c *CatalogCache) Invalidate(ctx context.Context, kind types.ItemKind) error {
	return c.store.Del(ctx, Key(kind))
}

func (c *CatalogCache) put(ctx context.Context, key string, cat *types.Catalog) {
	b, err := json.Marshal(cat)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("catalog not cacheable")
		return
	}
	if err := c.store.Set(ctx, key, b, c.ttl); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
}
