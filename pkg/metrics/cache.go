package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics counts lookups against the browse caches.
type CacheMetrics struct {
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec
}

// NewCacheMetrics registers the cache counters on the provided registerer.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	if reg == nil {
		return &CacheMetrics{}
	}
	hits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cache_hits_total",
		Help: "Cache lookups served from memory.",
	}, []string{"cache"})
	misses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cache_misses_total",
		Help: "Cache lookups that required a fetch.",
	}, []string{"cache"})
	reg.MustRegister(hits, misses)
	return &CacheMetrics{hits: hits, misses: misses}
}

func (c *CacheMetrics) Hit(cache string) {
	if c == nil || c.hits == nil {
		return
	}
	c.hits.WithLabelValues(normalizeLabel(cache)).Inc()
}

func (c *CacheMetrics) Miss(cache string) {
	if c == nil || c.misses == nil {
		return
	}
	c.misses.WithLabelValues(normalizeLabel(cache)).Inc()
}
