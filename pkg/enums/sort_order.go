package enums

import (
	"fmt"
	"strings"
)

// SortOrder is the direction requested for price and updatedAt ordering.
type SortOrder string

const (
	SortOrderNone SortOrder = "none"
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

var validSortOrders = []SortOrder{
	SortOrderNone,
	SortOrderAsc,
	SortOrderDesc,
}

// String implements fmt.Stringer.
func (s SortOrder) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SortOrder) IsValid() bool {
	for _, candidate := range validSortOrders {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSortOrder accepts any casing. Empty input maps to none.
func ParseSortOrder(value string) (SortOrder, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return SortOrderNone, nil
	}
	for _, candidate := range validSortOrders {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort order %q", value)
}
