package browse

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const suggestionLimit = 5

// API is the part of Client the session depends on.
type API interface {
	ListProducts(ctx context.Context, key FilterKey, limit int) (*product.ProductWithPage, error)
	TotalPages(ctx context.Context, limit int) (int, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*product.ProductDTO, error)
	UpdateProduct(ctx context.Context, payload any) (*product.ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// State is what a product grid renders.
type State struct {
	Key      FilterKey
	Products []*product.ProductDTO
	Pager    pagination.Controller
	// Seq is the token of the request that produced this state.
	Seq uint64
}

// SessionParams wires a Session.
type SessionParams struct {
	API     API
	Cache   CacheConfig
	Metrics *metrics.CacheMetrics
	Logger  *logger.Logger
	// Limit is the page size; zero uses the server default.
	Limit int
}

// Session owns the filter state of one browsing session. Fetches are tagged
// with increasing sequence tokens and only the latest issued token may update
// the visible state, so the last requested filter wins no matter which
// response lands first.
type Session struct {
	api         API
	results     *ResultCache
	products    *ProductCache
	suggestions *SuggestionCache
	logg        *logger.Logger
	limit       int

	mu      sync.Mutex
	seq     uint64
	total   int
	state   State
	subs    map[int]chan State
	nextSub int
}

func NewSession(p SessionParams) (*Session, error) {
	if p.API == nil {
		return nil, fmt.Errorf("browse api required")
	}
	return &Session{
		api:         p.API,
		results:     NewResultCache(p.Cache, p.Metrics),
		products:    NewProductCache(p.Cache, p.Metrics),
		suggestions: NewSuggestionCache(p.Cache, p.Metrics),
		logg:        p.Logger,
		limit:       p.Limit,
		state:       State{Key: DefaultKey(), Pager: pagination.NewController(1, 0)},
		subs:        map[int]chan State{},
	}, nil
}

// State returns a snapshot of the visible state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe returns a channel that receives every published state. Slow
// readers only see the latest one. The returned func unsubscribes.
func (s *Session) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan State, 1)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// Apply loads the page for key and publishes it if no newer request was
// issued meanwhile. applied is false when the response was superseded. A
// cache hit skips the total-pages refresh.
func (s *Session) Apply(ctx context.Context, key FilterKey) (state State, applied bool, err error) {
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return s.State(), false, err
	}

	s.mu.Lock()
	s.seq++
	token := s.seq
	s.mu.Unlock()

	page, hit, err := s.results.GetOrFetch(ctx, key, func(ctx context.Context) (*product.ProductWithPage, error) {
		return s.api.ListProducts(ctx, key, s.limit)
	})
	if err != nil {
		return s.State(), false, err
	}

	total := -1
	if !hit {
		total, err = s.api.TotalPages(ctx, s.limit)
		if err != nil {
			return s.State(), false, err
		}
	} else if s.logg != nil {
		s.logg.Debug(s.logg.WithField(ctx, "key", key.String()), "browse cache hit")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if total >= 0 {
		s.total = total
	}
	if token != s.seq {
		return s.state, false, nil
	}
	s.state = State{
		Key:      key,
		Products: page.Products,
		Pager:    pagination.NewController(key.Page, s.total),
		Seq:      token,
	}
	s.publishLocked()
	return s.state, true, nil
}

// Filter applies mutate to the current key and reloads from page 1.
func (s *Session) Filter(ctx context.Context, mutate func(k *FilterKey)) (State, bool, error) {
	key := s.State().Key
	if mutate != nil {
		mutate(&key)
	}
	key.Page = 1
	return s.Apply(ctx, key)
}

// GoTo moves to page p. Pages outside [1, total] leave the state untouched
// and report false.
func (s *Session) GoTo(ctx context.Context, p int) (State, bool, error) {
	current := s.State()
	if _, ok := current.Pager.Go(p); !ok {
		return current, false, nil
	}
	key := current.Key
	key.Page = p
	return s.Apply(ctx, key)
}

func (s *Session) Next(ctx context.Context) (State, bool, error) {
	return s.GoTo(ctx, s.State().Pager.Current+1)
}

func (s *Session) Prev(ctx context.Context) (State, bool, error) {
	return s.GoTo(ctx, s.State().Pager.Current-1)
}

func (s *Session) Last(ctx context.Context) (State, bool, error) {
	return s.GoTo(ctx, s.State().Pager.Last())
}

// Product returns product details, served from cache after the first load.
func (s *Session) Product(ctx context.Context, id uuid.UUID) (*product.ProductDTO, error) {
	return s.products.GetOrFetch(ctx, id, func(ctx context.Context) (*product.ProductDTO, error) {
		return s.api.GetProduct(ctx, id)
	})
}

// Suggest returns up to five titles matching query.
func (s *Session) Suggest(ctx context.Context, query string) ([]Suggestion, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	return s.suggestions.GetOrFetch(ctx, query, func(ctx context.Context) ([]Suggestion, error) {
		key := DefaultKey()
		key.Query = query
		page, err := s.api.ListProducts(ctx, key.Normalize(), suggestionLimit)
		if err != nil {
			return nil, err
		}
		out := make([]Suggestion, 0, len(page.Products))
		for _, p := range page.Products {
			if p == nil {
				continue
			}
			out = append(out, Suggestion{ID: p.ID, Title: p.Title})
			if len(out) == suggestionLimit {
				break
			}
		}
		return out, nil
	})
}

// UpdateProduct writes through the API and invalidates the product.
func (s *Session) UpdateProduct(ctx context.Context, id uuid.UUID, payload any) (*product.ProductDTO, error) {
	updated, err := s.api.UpdateProduct(ctx, payload)
	if err != nil {
		return nil, err
	}
	s.InvalidateProduct(ctx, id)
	return updated, nil
}

func (s *Session) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.api.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.InvalidateProduct(ctx, id)
	return nil
}

// InvalidateProduct drops the product from the detail cache and every cached
// page or suggestion list that includes it.
func (s *Session) InvalidateProduct(ctx context.Context, id uuid.UUID) {
	s.products.Invalidate(id)
	dropped := s.results.DropContaining(id)
	s.suggestions.DropContaining(id)
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"product_id": id.String(), "pages_dropped": dropped})
		s.logg.Debug(ctx, "browse product invalidated")
	}
}

func (s *Session) publishLocked() {
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s.state:
		default:
		}
	}
}
