package browse

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const (
	defaultPriceMin = "1"
	defaultPriceMax = "1000000"
)

// FilterKey identifies one listing page. Every field takes part in equality,
// so two keys that differ only in sort direction address different pages.
type FilterKey struct {
	Page           int
	Query          string
	Category       string
	PriceOrder     enums.SortOrder
	PriceMin       string
	PriceMax       string
	UpdatedAtOrder enums.SortOrder
}

// DefaultKey is the first page with no filters applied.
func DefaultKey() FilterKey {
	return FilterKey{
		Page:           1,
		PriceOrder:     enums.SortOrderNone,
		PriceMin:       defaultPriceMin,
		PriceMax:       defaultPriceMax,
		UpdatedAtOrder: enums.SortOrderNone,
	}
}

// Normalize fills blanks with the listing defaults and lifts page 0 to 1.
// Query and category are lower-cased because the server matches them
// case-insensitively, so "Boot" and "boot" share one cache entry.
func (k FilterKey) Normalize() FilterKey {
	if k.Page < 1 {
		k.Page = 1
	}
	k.Query = strings.ToLower(strings.TrimSpace(k.Query))
	k.Category = strings.ToLower(strings.TrimSpace(k.Category))
	if !k.PriceOrder.IsValid() {
		k.PriceOrder = enums.SortOrderNone
	}
	if !k.UpdatedAtOrder.IsValid() {
		k.UpdatedAtOrder = enums.SortOrderNone
	}
	k.PriceMin = strings.TrimSpace(k.PriceMin)
	if k.PriceMin == "" {
		k.PriceMin = defaultPriceMin
	}
	k.PriceMax = strings.TrimSpace(k.PriceMax)
	if k.PriceMax == "" {
		k.PriceMax = defaultPriceMax
	}
	return k
}

// Validate rejects malformed bounds and an inverted price range.
func (k FilterKey) Validate() error {
	lo, err := decimal.NewFromString(k.PriceMin)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "price_min must be a number")
	}
	hi, err := decimal.NewFromString(k.PriceMax)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "price_max must be a number")
	}
	if lo.GreaterThan(hi) {
		return pkgerrors.New(pkgerrors.CodeValidation, "price_min must not exceed price_max").
			WithDetails(map[string]any{"price_min": k.PriceMin, "price_max": k.PriceMax})
	}
	return nil
}

// String is the canonical encoding. Fields are written in a fixed order and
// escaped so that no two distinct keys share an encoding.
func (k FilterKey) String() string {
	var b strings.Builder
	write := func(name, value string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strconv.Quote(value))
	}
	write("page", strconv.Itoa(k.Page))
	write("query", k.Query)
	write("category", k.Category)
	write("price_order", string(k.PriceOrder))
	write("price_min", k.PriceMin)
	write("price_max", k.PriceMax)
	write("updateAt_order", string(k.UpdatedAtOrder))
	return b.String()
}

// Hash is the cache key derived from String.
func (k FilterKey) Hash() string {
	return "products:" + strconv.FormatUint(xxhash.Sum64String(k.String()), 16)
}
