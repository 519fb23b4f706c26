package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod is how an order line is settled. Only cash on delivery is
// offered today.
type PaymentMethod string

const PaymentMethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"

var paymentMethodAliases = map[string]PaymentMethod{
	"CASH_ON_DELIVERY": PaymentMethodCashOnDelivery,
	"COD":              PaymentMethodCashOnDelivery,
	"CASH":             PaymentMethodCashOnDelivery,
}

func (p PaymentMethod) String() string { return string(p) }

func (p PaymentMethod) IsValid() bool {
	return p == PaymentMethodCashOnDelivery
}

// ParsePaymentMethod accepts the canonical value in any case, with spaces or
// hyphens for underscores, plus the short forms older clients send. Empty
// input selects cash on delivery.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	key := strings.ToUpper(strings.TrimSpace(value))
	if key == "" {
		return PaymentMethodCashOnDelivery, nil
	}
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if pm, ok := paymentMethodAliases[key]; ok {
		return pm, nil
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
