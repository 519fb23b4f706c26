package browse

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viccon/sturdyc"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const (
	cacheShards             = 8
	cacheEvictionPercentage = 10

	resultCacheName     = "browse_results"
	productCacheName    = "browse_products"
	suggestionCacheName = "browse_suggestions"
)

// CacheConfig sizes the three session caches. A browsing session is short
// lived, so entries live for the whole session and capacity is generous.
type CacheConfig struct {
	TTL      time.Duration
	Capacity int
}

func CacheConfigFrom(cfg config.BrowseConfig) CacheConfig {
	return CacheConfig{TTL: cfg.CacheTTL, Capacity: cfg.CacheCapacity}
}

func (c CacheConfig) withDefaults() CacheConfig {
	if c.TTL <= 0 {
		c.TTL = 24 * time.Hour
	}
	if c.Capacity < cacheShards {
		c.Capacity = 10000
	}
	return c
}

func newClient[T any](cfg CacheConfig) *sturdyc.Client[T] {
	cfg = cfg.withDefaults()
	return sturdyc.New[T](cfg.Capacity, cacheShards, cfg.TTL, cacheEvictionPercentage)
}

// ResultCache holds listing pages keyed by FilterKey.Hash.
type ResultCache struct {
	client  *sturdyc.Client[*product.ProductWithPage]
	metrics *metrics.CacheMetrics
}

func NewResultCache(cfg CacheConfig, m *metrics.CacheMetrics) *ResultCache {
	return &ResultCache{client: newClient[*product.ProductWithPage](cfg), metrics: m}
}

// GetOrFetch returns the cached page for key, or runs fetch and stores its
// result. Concurrent callers for the same key share one fetch. hit reports
// whether the page was already cached.
func (c *ResultCache) GetOrFetch(ctx context.Context, key FilterKey, fetch func(context.Context) (*product.ProductWithPage, error)) (*product.ProductWithPage, bool, error) {
	hash := key.Hash()
	if page, ok := c.client.Get(hash); ok {
		c.metrics.Hit(resultCacheName)
		return page, true, nil
	}
	c.metrics.Miss(resultCacheName)
	page, err := c.client.GetOrFetch(ctx, hash, fetch)
	if err != nil {
		return nil, false, err
	}
	return page, false, nil
}

// DropContaining removes every cached page that lists the product and
// returns how many were dropped.
func (c *ResultCache) DropContaining(id uuid.UUID) int {
	dropped := 0
	for _, key := range c.client.ScanKeys() {
		page, ok := c.client.Get(key)
		if !ok || page == nil {
			continue
		}
		for _, p := range page.Products {
			if p != nil && p.ID == id {
				c.client.Delete(key)
				dropped++
				break
			}
		}
	}
	return dropped
}

func (c *ResultCache) Size() int {
	return c.client.Size()
}

// ProductCache holds product details keyed by id.
type ProductCache struct {
	client  *sturdyc.Client[*product.ProductDTO]
	metrics *metrics.CacheMetrics
}

func NewProductCache(cfg CacheConfig, m *metrics.CacheMetrics) *ProductCache {
	return &ProductCache{client: newClient[*product.ProductDTO](cfg), metrics: m}
}

func (c *ProductCache) GetOrFetch(ctx context.Context, id uuid.UUID, fetch func(context.Context) (*product.ProductDTO, error)) (*product.ProductDTO, error) {
	key := id.String()
	if p, ok := c.client.Get(key); ok {
		c.metrics.Hit(productCacheName)
		return p, nil
	}
	c.metrics.Miss(productCacheName)
	return c.client.GetOrFetch(ctx, key, fetch)
}

func (c *ProductCache) Invalidate(id uuid.UUID) {
	c.client.Delete(id.String())
}

// Suggestion is one entry under the search box.
type Suggestion struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

// SuggestionCache holds search-box suggestions keyed by the raw query.
type SuggestionCache struct {
	client  *sturdyc.Client[[]Suggestion]
	metrics *metrics.CacheMetrics
}

func NewSuggestionCache(cfg CacheConfig, m *metrics.CacheMetrics) *SuggestionCache {
	return &SuggestionCache{client: newClient[[]Suggestion](cfg), metrics: m}
}

func (c *SuggestionCache) GetOrFetch(ctx context.Context, query string, fetch func(context.Context) ([]Suggestion, error)) ([]Suggestion, error) {
	key := "suggest:" + query
	if s, ok := c.client.Get(key); ok {
		c.metrics.Hit(suggestionCacheName)
		return s, nil
	}
	c.metrics.Miss(suggestionCacheName)
	return c.client.GetOrFetch(ctx, key, fetch)
}

// DropContaining removes cached suggestion lists that mention the product.
func (c *SuggestionCache) DropContaining(id uuid.UUID) {
	for _, key := range c.client.ScanKeys() {
		if !strings.HasPrefix(key, "suggest:") {
			continue
		}
		list, ok := c.client.Get(key)
		if !ok {
			continue
		}
		for _, s := range list {
			if s.ID == id {
				c.client.Delete(key)
				break
			}
		}
	}
}
