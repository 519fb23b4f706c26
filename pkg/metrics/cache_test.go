package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCacheMetricsCountsHitsAndMisses(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCacheMetrics(reg)
	m.Hit("results")
	m.Hit("results")
	m.Miss("results")
	m.Miss("")

	if got := testutil.ToFloat64(m.hits.WithLabelValues("results")); got != 2 {
		t.Fatalf("expected 2 hits, got %v", got)
	}
	if got := testutil.ToFloat64(m.misses.WithLabelValues("results")); got != 1 {
		t.Fatalf("expected 1 results miss, got %v", got)
	}
	if got := testutil.ToFloat64(m.misses.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected the empty cache name to count as unknown, got %v", got)
	}
	if n := testutil.CollectAndCount(m.misses); n != 2 {
		t.Fatalf("expected 2 miss series, got %d", n)
	}
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe(http.MethodGet, "/api/admin/get-all-products", http.StatusOK, 20*time.Millisecond)
	m.Observe(http.MethodGet, "/api/admin/get-all-products", http.StatusOK, 40*time.Millisecond)
	m.Observe(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	if n := testutil.CollectAndCount(m.duration, "storefront_http_request_duration_seconds"); n != 2 {
		t.Fatalf("expected one series per method, route and status, got %d", n)
	}
	if problems, err := testutil.GatherAndLint(reg); err != nil || len(problems) != 0 {
		t.Fatalf("lint: problems=%v err=%v", problems, err)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var cache *CacheMetrics
	cache.Hit("x")
	cache.Miss("x")
	var h *HTTPMetrics
	h.Observe("GET", "/", 200, time.Second)
	NewCacheMetrics(nil).Hit("x")
}
