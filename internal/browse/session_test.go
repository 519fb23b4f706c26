package browse

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

type fakeAPI struct {
	mu          sync.Mutex
	totalPages  int
	products    []*product.ProductDTO
	listCalls   int
	totalCalls  int
	detailCalls int
	updated     int
	deleted     []uuid.UUID
	// gates blocks ListProducts for a query until the channel is closed.
	gates   map[string]chan struct{}
	started chan string
}

func newFakeAPI(total int, products ...*product.ProductDTO) *fakeAPI {
	return &fakeAPI{totalPages: total, products: products, gates: map[string]chan struct{}{}}
}

func (f *fakeAPI) ListProducts(ctx context.Context, key FilterKey, limit int) (*product.ProductWithPage, error) {
	f.mu.Lock()
	f.listCalls++
	gate := f.gates[key.Query]
	started := f.started
	products := f.products
	f.mu.Unlock()

	if gate != nil {
		if started != nil {
			started <- key.Query
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &product.ProductWithPage{
		Products:       products,
		Page:           key.Page,
		Query:          key.Query,
		FilterCategory: key.Category,
		PriceOrder:     key.PriceOrder,
		PriceMin:       key.PriceMin,
		PriceMax:       key.PriceMax,
		UpdatedAtOrder: key.UpdatedAtOrder,
	}, nil
}

func (f *fakeAPI) TotalPages(ctx context.Context, limit int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.totalCalls++
	return f.totalPages, nil
}

func (f *fakeAPI) GetProduct(ctx context.Context, id uuid.UUID) (*product.ProductDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
}

func (f *fakeAPI) UpdateProduct(ctx context.Context, payload any) (*product.ProductDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated++
	return f.products[0], nil
}

func (f *fakeAPI) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) calls() (list, total, detail int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.totalCalls, f.detailCalls
}

func newTestSession(t *testing.T, api API) *Session {
	t.Helper()
	s, err := NewSession(SessionParams{API: api, Cache: CacheConfig{TTL: time.Hour, Capacity: 1000}, Limit: 20})
	require.NoError(t, err)
	return s
}

func TestSessionCacheHitSkipsTotalPagesRefresh(t *testing.T) {
	api := newFakeAPI(3, &product.ProductDTO{ID: uuid.New(), Title: "Boot"})
	s := newTestSession(t, api)
	ctx := context.Background()

	_, applied, err := s.Apply(ctx, DefaultKey())
	require.NoError(t, err)
	require.True(t, applied)

	state, applied, err := s.Apply(ctx, DefaultKey())
	require.NoError(t, err)
	require.True(t, applied)
	require.Len(t, state.Products, 1)
	require.Equal(t, 3, state.Pager.Total)

	list, total, _ := api.calls()
	require.Equal(t, 1, list)
	require.Equal(t, 1, total)
}

func TestSessionUpdatedAtOrderIsSeparateCacheEntry(t *testing.T) {
	api := newFakeAPI(1)
	s := newTestSession(t, api)
	ctx := context.Background()

	_, _, err := s.Apply(ctx, DefaultKey())
	require.NoError(t, err)
	_, _, err = s.Filter(ctx, func(k *FilterKey) { k.UpdatedAtOrder = enums.SortOrderDesc })
	require.NoError(t, err)

	list, _, _ := api.calls()
	require.Equal(t, 2, list)
	require.Equal(t, enums.SortOrderDesc, s.State().Key.UpdatedAtOrder)
}

func TestSessionPageBoundaries(t *testing.T) {
	api := newFakeAPI(3)
	s := newTestSession(t, api)
	ctx := context.Background()

	key := DefaultKey()
	key.Page = 0
	state, applied, err := s.Apply(ctx, key)
	require.NoError(t, err)
	require.True(t, applied)
	require.Equal(t, 1, state.Key.Page)
	require.Equal(t, 1, state.Pager.Current)
	require.False(t, state.Pager.CanPrev())
	require.True(t, state.Pager.CanNext())

	_, moved, err := s.Prev(ctx)
	require.NoError(t, err)
	require.False(t, moved)

	_, moved, err = s.GoTo(ctx, 4)
	require.NoError(t, err)
	require.False(t, moved)
	require.Equal(t, 1, s.State().Pager.Current)

	state, moved, err = s.Last(ctx)
	require.NoError(t, err)
	require.True(t, moved)
	require.Equal(t, 3, state.Pager.Current)
	require.False(t, state.Pager.CanNext())
	require.True(t, state.Pager.CanPrev())

	_, moved, err = s.Next(ctx)
	require.NoError(t, err)
	require.False(t, moved)

	key.Page = 9
	state, _, err = s.Apply(ctx, key)
	require.NoError(t, err)
	require.Equal(t, 3, state.Pager.Current)
	require.False(t, state.Pager.CanNext())
}

func TestSessionRejectsInvertedPriceRangeWithoutFetching(t *testing.T) {
	api := newFakeAPI(1)
	s := newTestSession(t, api)

	_, _, err := s.Filter(context.Background(), func(k *FilterKey) {
		k.PriceMin = "100"
		k.PriceMax = "10"
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	list, total, _ := api.calls()
	require.Zero(t, list)
	require.Zero(t, total)
}

func TestSessionLatestRequestWins(t *testing.T) {
	api := newFakeAPI(1)
	release := make(chan struct{})
	api.gates["slow"] = release
	api.started = make(chan string, 1)
	s := newTestSession(t, api)
	ctx := context.Background()

	type result struct {
		applied bool
		err     error
	}
	done := make(chan result, 1)
	go func() {
		_, applied, err := s.Filter(ctx, func(k *FilterKey) { k.Query = "slow" })
		done <- result{applied: applied, err: err}
	}()
	require.Equal(t, "slow", <-api.started)

	state, applied, err := s.Filter(ctx, func(k *FilterKey) { k.Query = "fast" })
	require.NoError(t, err)
	require.True(t, applied)
	require.Equal(t, "fast", state.Key.Query)

	close(release)
	res := <-done
	require.NoError(t, res.err)
	require.False(t, res.applied)
	require.Equal(t, "fast", s.State().Key.Query)
}

func TestSessionSubscribeReceivesLatestState(t *testing.T) {
	api := newFakeAPI(2)
	s := newTestSession(t, api)
	ctx := context.Background()

	ch, unsubscribe := s.Subscribe()
	_, _, err := s.Apply(ctx, DefaultKey())
	require.NoError(t, err)
	_, _, err = s.Filter(ctx, func(k *FilterKey) { k.Query = "hat" })
	require.NoError(t, err)

	got := <-ch
	require.Equal(t, "hat", got.Key.Query)

	unsubscribe()
	_, open := <-ch
	require.False(t, open)
}

func TestSessionInvalidateProductOnWrite(t *testing.T) {
	boot := &product.ProductDTO{ID: uuid.New(), Title: "Boot"}
	api := newFakeAPI(1, boot)
	s := newTestSession(t, api)
	ctx := context.Background()

	_, _, err := s.Apply(ctx, DefaultKey())
	require.NoError(t, err)
	_, err = s.Product(ctx, boot.ID)
	require.NoError(t, err)
	_, err = s.Product(ctx, boot.ID)
	require.NoError(t, err)

	list, _, detail := api.calls()
	require.Equal(t, 1, list)
	require.Equal(t, 1, detail)

	_, err = s.UpdateProduct(ctx, boot.ID, map[string]any{"id": boot.ID})
	require.NoError(t, err)

	_, _, err = s.Apply(ctx, DefaultKey())
	require.NoError(t, err)
	_, err = s.Product(ctx, boot.ID)
	require.NoError(t, err)

	list, _, detail = api.calls()
	require.Equal(t, 2, list)
	require.Equal(t, 2, detail)

	require.NoError(t, s.DeleteProduct(ctx, boot.ID))
	require.Equal(t, []uuid.UUID{boot.ID}, api.deleted)
}

func TestSessionSuggestCachesByQuery(t *testing.T) {
	api := newFakeAPI(1,
		&product.ProductDTO{ID: uuid.New(), Title: "Boot"},
		&product.ProductDTO{ID: uuid.New(), Title: "Boot Polish"},
	)
	s := newTestSession(t, api)
	ctx := context.Background()

	first, err := s.Suggest(ctx, "boo")
	require.NoError(t, err)
	require.Len(t, first, 2)
	_, err = s.Suggest(ctx, "boo")
	require.NoError(t, err)

	list, _, _ := api.calls()
	require.Equal(t, 1, list)

	empty, err := s.Suggest(ctx, "   ")
	require.NoError(t, err)
	require.Nil(t, empty)
}

func TestResultCacheCountsHitsAndMisses(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewCacheMetrics(reg)
	cache := NewResultCache(CacheConfig{TTL: time.Hour, Capacity: 100}, m)
	fetch := func(context.Context) (*product.ProductWithPage, error) {
		return &product.ProductWithPage{Page: 1}, nil
	}

	_, hit, err := cache.GetOrFetch(context.Background(), DefaultKey(), fetch)
	require.NoError(t, err)
	require.False(t, hit)
	_, hit, err = cache.GetOrFetch(context.Background(), DefaultKey(), fetch)
	require.NoError(t, err)
	require.True(t, hit)

	count, err := testutil.GatherAndCount(reg, "storefront_cache_hits_total", "storefront_cache_misses_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestNewSessionRequiresAPI(t *testing.T) {
	_, err := NewSession(SessionParams{})
	require.Error(t, err)
}
