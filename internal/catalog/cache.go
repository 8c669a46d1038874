package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps per-store product listings in Redis so the storefront list
// endpoint does not hit Postgres on every page view. Failures are treated as
// cache misses by the service.
type Cache struct {
	Client *redis.Client
	TTL    time.Duration
}

const defaultCacheTTL = 5 * time.Minute

func (c *Cache) listKey(storeID string) string {
	return "catalog:" + storeID + ":products"
}

// GetList returns the cached listing for a store, if present.
func (c *Cache) GetList(ctx context.Context, storeID string) ([]Product, bool, error) {
	data, err := c.Client.Get(ctx, c.listKey(storeID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		// Stale or corrupt entry, drop it and fall through to the database.
		_ = c.Client.Del(ctx, c.listKey(storeID)).Err()
		return nil, false, nil
	}
	return products, true, nil
}

// SetList stores a listing for a store.
func (c *Cache) SetList(ctx context.Context, storeID string, products []Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return err
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return c.Client.Set(ctx, c.listKey(storeID), data, ttl).Err()
}

// Invalidate drops the cached listing after a catalog write.
func (c *Cache) Invalidate(ctx context.Context, storeID string) error {
	return c.Client.Del(ctx, c.listKey(storeID)).Err()
}
