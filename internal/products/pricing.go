package product

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// PriceRange is the [min, max] interval of a product's variant prices.
type PriceRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
	// Invalid counts variant prices that could not be parsed. They take no
	// part in the interval.
	Invalid int
	priced  int
}

// RangeOf computes the variant price interval over the prices that parse.
// A product without variants has the zero-width interval at 0.
func RangeOf(variants []models.ProductVariant) PriceRange {
	var r PriceRange
	for _, v := range variants {
		price, err := parsePrice(v.Price)
		if err != nil {
			r.Invalid++
			continue
		}
		if r.priced == 0 || price.LessThan(r.Min) {
			r.Min = price
		}
		if r.priced == 0 || price.GreaterThan(r.Max) {
			r.Max = price
		}
		r.priced++
	}
	return r
}

// Overlaps reports whether the interval touches [lo, hi]. Equal endpoints
// count. A product whose every price is unreadable is never filtered out.
func (r PriceRange) Overlaps(lo, hi decimal.Decimal) bool {
	if r.priced == 0 && r.Invalid > 0 {
		return true
	}
	return !lo.GreaterThan(r.Max) && !hi.LessThan(r.Min)
}

// DisplayPrice is "$P" when every variant shares one price and "$min - $max" otherwise.
func DisplayPrice(variants []models.ProductVariant) string {
	if len(variants) == 0 {
		return ""
	}
	r := RangeOf(variants)
	if r.Min.Equal(r.Max) {
		return "$" + r.Min.String()
	}
	return fmt.Sprintf("$%s - $%s", r.Min.String(), r.Max.String())
}

// IsDiscountActive holds when the expiry is strictly after now and a discount
// price was entered.
func IsDiscountActive(v models.ProductVariant, now time.Time) bool {
	if v.DiscountExpiry == nil || !v.DiscountExpiry.After(now) {
		return false
	}
	return v.DiscountPrice != nil && strings.TrimSpace(*v.DiscountPrice) != ""
}

func IsDiscounted(variants []models.ProductVariant, now time.Time) bool {
	for _, v := range variants {
		if IsDiscountActive(v, now) {
			return true
		}
	}
	return false
}

func parsePrice(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(raw))
}

func parseStock(raw string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(raw))
}
