package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
	"github.com/kirillkom/equipment-intake/internal/core/ports"
)

const defaultCatalogTTL = 10 * time.Minute

// CacheObserver receives one call per cached lookup.
type CacheObserver interface {
	RecordCatalogCache(operation string, hit bool)
}

// CatalogCache serves brand and model lists from the cache and drops them
// after every successful write to the same type and brand.
// A failing cache never fails a lookup.
type CatalogCache struct {
	ports.CatalogStore
	client   Client
	ttl      time.Duration
	observer CacheObserver
}

func NewCatalogCache(next ports.CatalogStore, client Client, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	return &CatalogCache{CatalogStore: next, client: client, ttl: ttl}
}

func (c *CatalogCache) WithObserver(observer CacheObserver) *CatalogCache {
	c.observer = observer
	return c
}

func (c *CatalogCache) ListBrands(ctx context.Context, equipmentType domain.EquipmentType) ([]string, error) {
	return c.readThrough(ctx, "list_brands", brandsKey(equipmentType), func(ctx context.Context) ([]string, error) {
		return c.CatalogStore.ListBrands(ctx, equipmentType)
	})
}

func (c *CatalogCache) ListModels(ctx context.Context, equipmentType domain.EquipmentType, brand string) ([]string, error) {
	return c.readThrough(ctx, "list_models", modelsKey(equipmentType, brand), func(ctx context.Context) ([]string, error) {
		return c.CatalogStore.ListModels(ctx, equipmentType, brand)
	})
}

func (c *CatalogCache) Upsert(ctx context.Context, entry domain.CatalogEntry) error {
	if err := c.CatalogStore.Upsert(ctx, entry); err != nil {
		return err
	}
	c.invalidate(ctx, brandsKey(entry.Type), modelsKey(entry.Type, entry.Brand))
	return nil
}

// IncrementUsage reorders models, so only the model list of the brand is dropped.
func (c *CatalogCache) IncrementUsage(ctx context.Context, key domain.CatalogKey) error {
	if err := c.CatalogStore.IncrementUsage(ctx, key); err != nil {
		return err
	}
	c.invalidate(ctx, modelsKey(key.Type, key.Brand))
	return nil
}

func (c *CatalogCache) readThrough(
	ctx context.Context,
	operation, key string,
	load func(context.Context) ([]string, error),
) ([]string, error) {
	raw, err := c.client.Get(ctx, key)
	switch {
	case err == nil:
		var cached []string
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			c.record(operation, true)
			return cached, nil
		}
		slog.Warn("catalog_cache_corrupt", "key", key)
	case errors.Is(err, ErrCacheMiss):
	default:
		slog.Warn("catalog_cache_error", "operation", operation, "key", key, "error", err)
	}
	c.record(operation, false)

	values, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = []string{}
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return values, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl); err != nil {
		slog.Warn("catalog_cache_error", "operation", "set", "key", key, "error", err)
	}
	return values, nil
}

func (c *CatalogCache) invalidate(ctx context.Context, keys ...string) {
	if err := c.client.Delete(ctx, keys...); err != nil {
		slog.Warn("catalog_cache_error", "operation", "invalidate", "keys", keys, "error", err)
	}
}

func (c *CatalogCache) record(operation string, hit bool) {
	if c.observer != nil {
		c.observer.RecordCatalogCache(operation, hit)
	}
}

func brandsKey(t domain.EquipmentType) string {
	return "catalog:brands:" + string(t)
}

func modelsKey(t domain.EquipmentType, brand string) string {
	return "catalog:models:" + string(t) + ":" + domain.FoldKey(brand)
}
