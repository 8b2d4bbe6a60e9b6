package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"decodex/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches the question catalog from a backing store (e.g., Postgres).
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) (domain.Catalog, error)
}

const catalogKey = "catalog"

// CatalogCache caches the catalog snapshot with TTL to avoid repeated DB hits.
type CatalogCache struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.Mutex
	entry *cachedCatalog
	// gen is bumped by Invalidate so a load racing with an authoring write is not stored.
	gen uint64
}

type cachedCatalog struct {
	catalog   domain.Catalog
	expiresAt time.Time
}

func NewCatalogCache(loader CatalogLoader, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CatalogCache) Catalog(ctx context.Context) (domain.Catalog, error) {
	if cat, ok := c.cached(); ok {
		return cat, nil
	}

	result, err, _ := c.sf.Do(catalogKey, func() (interface{}, error) {
		if cat, ok := c.cached(); ok {
			return cat, nil
		}
		c.mu.Lock()
		gen := c.gen
		c.mu.Unlock()

		cat, err := c.loader.LoadCatalog(ctx)
		if err != nil {
			return domain.Catalog{}, err
		}

		c.mu.Lock()
		if gen == c.gen && c.ttl > 0 {
			c.entry = &cachedCatalog{
				catalog:   cat,
				expiresAt: c.clock().Add(c.ttlWithJitter()),
			}
		}
		c.mu.Unlock()
		return cat, nil
	})
	if err != nil {
		return domain.Catalog{}, err
	}
	return result.(domain.Catalog), nil
}

// Invalidate drops the cached snapshot; the next read reloads.
func (c *CatalogCache) Invalidate(context.Context) error {
	c.mu.Lock()
	c.entry = nil
	c.gen++
	c.mu.Unlock()
	c.sf.Forget(catalogKey)
	return nil
}

func (c *CatalogCache) cached() (domain.Catalog, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry != nil && c.entry.expiresAt.After(c.clock()) {
		return c.entry.catalog, true
	}
	return domain.Catalog{}, false
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
