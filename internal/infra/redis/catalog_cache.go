package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"decodex/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches the question catalog from a backing store (e.g., Postgres).
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) (domain.Catalog, error)
}

// CatalogCache keeps the catalog snapshot in Redis as one JSON document and falls back to a loader on miss.
// Snapshots are stored as: SET decodex:catalog:v{gen} {json}
// Invalidation bumps:      INCR decodex:catalog:gen
// so a load that raced with an authoring write lands under a generation nobody reads.
type CatalogCache struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

type cachedCatalog struct {
	Questions []domain.Question       `json:"questions"`
	Choices   []domain.ChoiceQuestion `json:"choices"`
}

const catalogGenKey = "decodex:catalog:gen"

func NewCatalogCache(client *redis.Client, loader CatalogLoader, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CatalogCache) Catalog(ctx context.Context) (domain.Catalog, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return domain.Catalog{}, err
	}
	key := c.snapshotKey(gen)
	if cat, ok := c.cached(ctx, key); ok {
		return cat, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if cat, ok := c.cached(ctx, key); ok {
			return cat, nil
		}

		cat, err := c.loader.LoadCatalog(ctx)
		if err != nil {
			return domain.Catalog{}, err
		}

		raw, err := json.Marshal(cachedCatalog{Questions: cat.Questions, Choices: cat.Choices})
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("encode catalog: %w", err)
		}
		if ttl := c.ttlWithJitter(); ttl > 0 {
			// best-effort: a failed write only costs another load
			_ = c.client.Set(ctx, key, raw, ttl).Err()
		}
		return cat, nil
	})
	if err != nil {
		return domain.Catalog{}, err
	}
	return result.(domain.Catalog), nil
}

// Invalidate moves every instance to a fresh generation.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, catalogGenKey).Err(); err != nil {
		return fmt.Errorf("invalidate catalog: %w", err)
	}
	return nil
}

func (c *CatalogCache) generation(ctx context.Context) (int64, error) {
	raw, err := c.client.Get(ctx, catalogGenKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read catalog generation: %w", err)
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse catalog generation %q: %w", raw, err)
	}
	return gen, nil
}

func (c *CatalogCache) cached(ctx context.Context, key string) (domain.Catalog, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Catalog{}, false
	}
	var cc cachedCatalog
	if err := json.Unmarshal(raw, &cc); err != nil {
		return domain.Catalog{}, false
	}
	return domain.NewCatalog(cc.Questions, cc.Choices), true
}

func (c *CatalogCache) snapshotKey(gen int64) string {
	return "decodex:catalog:v" + strconv.FormatInt(gen, 10)
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
