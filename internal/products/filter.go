package product

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// FilterSpec is one product listing request. Unset price bounds fall back to
// the catalog defaults during Normalize.
type FilterSpec struct {
	Query          string
	Category       string
	PriceOrder     enums.SortOrder
	PriceMin       decimal.NullDecimal
	PriceMax       decimal.NullDecimal
	UpdatedAtOrder enums.SortOrder
	Page           int
	Limit          int
}

// Defaults are applied to fields a request leaves out.
type Defaults struct {
	Limit    int
	MaxLimit int
	PriceMin decimal.Decimal
	PriceMax decimal.Decimal
}

// DefaultDefaults matches the storefront query defaults: limit 20 and prices 1 to 1000000.
func DefaultDefaults() Defaults {
	return Defaults{
		Limit:    pagination.DefaultLimit,
		MaxLimit: pagination.MaxLimit,
		PriceMin: decimal.NewFromInt(1),
		PriceMax: decimal.NewFromInt(1_000_000),
	}
}

// DefaultsFromConfig reads the catalog section, keeping the built-in values for
// anything unset.
func DefaultsFromConfig(cfg config.CatalogConfig) (Defaults, error) {
	d := DefaultDefaults()
	if cfg.DefaultPageSize > 0 {
		d.Limit = cfg.DefaultPageSize
	}
	if cfg.MaxPageSize > 0 {
		d.MaxLimit = cfg.MaxPageSize
	}
	if cfg.DefaultPriceMin != "" {
		v, err := decimal.NewFromString(cfg.DefaultPriceMin)
		if err != nil {
			return Defaults{}, fmt.Errorf("catalog default price min: %w", err)
		}
		d.PriceMin = v
	}
	if cfg.DefaultPriceMax != "" {
		v, err := decimal.NewFromString(cfg.DefaultPriceMax)
		if err != nil {
			return Defaults{}, fmt.Errorf("catalog default price max: %w", err)
		}
		d.PriceMax = v
	}
	return d, nil
}

// Normalize fills defaults, trims and lower-cases the text filters and bounds
// page and limit.
func (f FilterSpec) Normalize(d Defaults) FilterSpec {
	out := f
	out.Query = strings.ToLower(strings.TrimSpace(f.Query))
	out.Category = strings.ToLower(strings.TrimSpace(f.Category))
	if !out.PriceOrder.IsValid() || out.PriceOrder == "" {
		out.PriceOrder = enums.SortOrderNone
	}
	if !out.UpdatedAtOrder.IsValid() || out.UpdatedAtOrder == "" {
		out.UpdatedAtOrder = enums.SortOrderNone
	}
	if !out.PriceMin.Valid {
		out.PriceMin = decimal.NewNullDecimal(d.PriceMin)
	}
	if !out.PriceMax.Valid {
		out.PriceMax = decimal.NewNullDecimal(d.PriceMax)
	}
	out.Page = pagination.NormalizePage(f.Page)
	out.Limit = normalizeLimit(f.Limit, d)
	return out
}

func normalizeLimit(limit int, d Defaults) int {
	if limit <= 0 {
		limit = d.Limit
	}
	if d.MaxLimit > 0 && limit > d.MaxLimit {
		limit = d.MaxLimit
	}
	return limit
}

// Validate rejects an inverted price range. It expects a normalized spec.
func (f FilterSpec) Validate() error {
	if f.PriceMin.Decimal.GreaterThan(f.PriceMax.Decimal) {
		return pkgerrors.New(pkgerrors.CodeValidation, "price_min must not exceed price_max").
			WithDetails(map[string]any{
				"price_min": f.PriceMin.Decimal.String(),
				"price_max": f.PriceMax.Decimal.String(),
			})
	}
	return nil
}
