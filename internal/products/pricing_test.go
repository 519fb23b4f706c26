package product

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

func variants(prices ...string) []models.ProductVariant {
	out := make([]models.ProductVariant, len(prices))
	for i, p := range prices {
		out[i] = models.ProductVariant{Name: p, Price: p, InStock: "1"}
	}
	return out
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestDisplayPrice(t *testing.T) {
	tests := []struct {
		name   string
		prices []string
		want   string
	}{
		{name: "single", prices: []string{"10"}, want: "$10"},
		{name: "all equal", prices: []string{"15.50", "15.5"}, want: "$15.5"},
		{name: "range", prices: []string{"40", "20", "25"}, want: "$20 - $40"},
		{name: "none", prices: nil, want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DisplayPrice(variants(tc.prices...)); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestRangeOfSkipsUnparseablePrices(t *testing.T) {
	r := RangeOf(variants("abc", "12", "30"))
	if !r.Min.Equal(decimal.NewFromInt(12)) || !r.Max.Equal(decimal.NewFromInt(30)) || r.Invalid != 1 {
		t.Fatalf("unexpected range %+v", r)
	}
	if r.Overlaps(decimal.NewFromInt(1), decimal.NewFromInt(5)) {
		t.Fatal("an unreadable price must not pull the minimum down")
	}
}

func TestRangeOfWithoutReadablePricesPassesEveryFilter(t *testing.T) {
	r := RangeOf(variants("abc", ""))
	if r.Invalid != 2 {
		t.Fatalf("expected 2 invalid prices, got %d", r.Invalid)
	}
	if !r.Overlaps(decimal.NewFromInt(500), decimal.NewFromInt(600)) {
		t.Fatal("expected a product with no readable price to pass the price filter")
	}
	if r := RangeOf(nil); r.Overlaps(decimal.NewFromInt(1), decimal.NewFromInt(5)) {
		t.Fatal("a product without variants sits at 0 and misses a range starting at 1")
	}
}

func TestPriceRangeOverlaps(t *testing.T) {
	d := decimal.NewFromInt
	r := PriceRange{Min: d(20), Max: d(40)}

	tests := []struct {
		name   string
		lo, hi int64
		want   bool
	}{
		{name: "inside", lo: 25, hi: 30, want: true},
		{name: "covers", lo: 1, hi: 100, want: true},
		{name: "touches max", lo: 40, hi: 50, want: true},
		{name: "touches min", lo: 10, hi: 20, want: true},
		{name: "below", lo: 1, hi: 19, want: false},
		{name: "above", lo: 41, hi: 100, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Overlaps(d(tc.lo), d(tc.hi)); got != tc.want {
				t.Fatalf("Overlaps(%d, %d) = %v, want %v", tc.lo, tc.hi, got, tc.want)
			}
		})
	}
}

func TestIsDiscountActive(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		variant models.ProductVariant
		want    bool
	}{
		{
			name:    "future expiry with price",
			variant: models.ProductVariant{DiscountPrice: strPtr("5"), DiscountExpiry: timePtr(now.Add(time.Hour))},
			want:    true,
		},
		{
			name:    "past expiry",
			variant: models.ProductVariant{DiscountPrice: strPtr("5"), DiscountExpiry: timePtr(now.Add(-time.Hour))},
		},
		{
			name:    "expiry equal to now",
			variant: models.ProductVariant{DiscountPrice: strPtr("5"), DiscountExpiry: timePtr(now)},
		},
		{
			name:    "empty discount price",
			variant: models.ProductVariant{DiscountPrice: strPtr("  "), DiscountExpiry: timePtr(now.Add(time.Hour))},
		},
		{
			name:    "missing discount price",
			variant: models.ProductVariant{DiscountExpiry: timePtr(now.Add(time.Hour))},
		},
		{
			name:    "no expiry",
			variant: models.ProductVariant{DiscountPrice: strPtr("5")},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsDiscountActive(tc.variant, now); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	if IsDiscounted([]models.ProductVariant{tests[1].variant, tests[3].variant}, now) {
		t.Fatal("product with only inactive discounts must not be discounted")
	}
	if !IsDiscounted([]models.ProductVariant{tests[1].variant, tests[0].variant}, now) {
		t.Fatal("one active discount marks the product discounted")
	}
}
