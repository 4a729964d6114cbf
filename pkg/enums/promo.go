package enums

import (
	"fmt"
	"strings"
)

// PromoType selects how a promo code discounts a subtotal.
type PromoType string

const (
	// PromoPercent values are fractions in [0, 1].
	PromoPercent PromoType = "percent"
	// PromoFixed values are currency amounts.
	PromoFixed PromoType = "fixed"
)

// IsValid reports whether the value is a known PromoType.
func (p PromoType) IsValid() bool {
	return p == PromoPercent || p == PromoFixed
}

// ParsePromoType converts raw input into a PromoType.
func ParsePromoType(value string) (PromoType, error) {
	normalized := PromoType(strings.ToLower(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid promo type %q", value)
}
