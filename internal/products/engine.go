package product

import (
	"context"
	"fmt"
	"sort"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/observability"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// SearchQuery is the part of a FilterSpec pushed down to the database.
type SearchQuery struct {
	Query          string
	Category       string
	UpdatedAtOrder enums.SortOrder
	Offset         int
	Limit          int
}

type searcher interface {
	Search(ctx context.Context, q SearchQuery) ([]models.Product, error)
	CountAll(ctx context.Context) (int64, error)
}

// Item is a product with its precomputed price interval.
type Item struct {
	Product models.Product
	Range   PriceRange
}

// Result is one page of matches together with the spec that produced it.
type Result struct {
	Spec  FilterSpec
	Items []Item
}

// Engine runs the listing pipeline: text and category match plus updatedAt
// order and paging in the database, then price overlap and price order in memory.
type Engine struct {
	repo     searcher
	defaults Defaults
	logg     *logger.Logger
}

func NewEngine(repo searcher, defaults Defaults, logg *logger.Logger) *Engine {
	return &Engine{repo: repo, defaults: defaults, logg: logg}
}

func (e *Engine) Defaults() Defaults {
	return e.defaults
}

// Query normalizes and validates spec before touching the database.
func (e *Engine) Query(ctx context.Context, spec FilterSpec) (*Result, error) {
	spec = spec.Normalize(e.defaults)
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	span := observability.StartSpan(ctx, "products.search", "catalog query")
	rows, err := e.repo.Search(ctx, SearchQuery{
		Query:          spec.Query,
		Category:       spec.Category,
		UpdatedAtOrder: spec.UpdatedAtOrder,
		Offset:         pagination.Offset(spec.Page, spec.Limit),
		Limit:          spec.Limit,
	})
	span.Stop()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}

	items := make([]Item, 0, len(rows))
	for _, p := range rows {
		r := RangeOf(p.Variants)
		if r.Invalid > 0 && e.logg != nil {
			e.logg.Warn(e.logg.WithField(ctx, "product_id", p.ID.String()),
				fmt.Sprintf("%d variant prices could not be parsed", r.Invalid))
		}
		items = append(items, Item{Product: p, Range: r})
	}

	items = FilterByPrice(items, spec)
	SortByPrice(items, spec.PriceOrder)
	return &Result{Spec: spec, Items: items}, nil
}

// TotalPages is computed over every product, not over the filtered matches.
func (e *Engine) TotalPages(ctx context.Context, limit int) (int, error) {
	limit = normalizeLimit(limit, e.defaults)
	count, err := e.repo.CountAll(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count products")
	}
	return pagination.TotalPages(count, limit), nil
}

// FilterByPrice keeps items whose interval overlaps the spec's price bounds.
func FilterByPrice(items []Item, spec FilterSpec) []Item {
	out := items[:0]
	for _, it := range items {
		if it.Range.Overlaps(spec.PriceMin.Decimal, spec.PriceMax.Decimal) {
			out = append(out, it)
		}
	}
	return out
}

// SortByPrice is stable. Ascending compares minimum prices and descending
// compares maximum prices.
func SortByPrice(items []Item, order enums.SortOrder) {
	switch order {
	case enums.SortOrderAsc:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Range.Min.LessThan(items[j].Range.Min)
		})
	case enums.SortOrderDesc:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Range.Max.GreaterThan(items[j].Range.Max)
		})
	}
}
