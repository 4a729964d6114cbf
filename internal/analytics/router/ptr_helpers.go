package router

import (
	"strings"

	"github.com/shopspring/decimal"
)

// stringPtr returns a trimmed pointer or nil when the input is empty.
func stringPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func int64Ptr(value int64) *int64 {
	return &value
}

// decimalPtr renders a money amount with two fractional digits.
func decimalPtr(value decimal.Decimal) *string {
	out := value.StringFixed(2)
	return &out
}
