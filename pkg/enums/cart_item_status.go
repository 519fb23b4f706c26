package enums

import "fmt"

// CartItemStatus tracks an order line through fulfillment. It only moves forward.
type CartItemStatus string

const (
	CartItemStatusUnverified CartItemStatus = "UNVERIFIED"
	CartItemStatusVerified   CartItemStatus = "VERIFIED"
	CartItemStatusShipped    CartItemStatus = "SHIPPED"
)

var validCartItemStatuses = []CartItemStatus{
	CartItemStatusUnverified,
	CartItemStatusVerified,
	CartItemStatusShipped,
}

// String implements fmt.Stringer.
func (c CartItemStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is known.
func (c CartItemStatus) IsValid() bool {
	return c.rank() >= 0
}

// CanTransitionTo reports whether next is the immediate successor of c.
func (c CartItemStatus) CanTransitionTo(next CartItemStatus) bool {
	from, to := c.rank(), next.rank()
	return from >= 0 && to == from+1
}

func (c CartItemStatus) rank() int {
	for i, candidate := range validCartItemStatuses {
		if candidate == c {
			return i
		}
	}
	return -1
}

// ParseCartItemStatus converts raw input into a CartItemStatus.
func ParseCartItemStatus(value string) (CartItemStatus, error) {
	for _, candidate := range validCartItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart item status %q", value)
}
