package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
	"github.com/himalayan-naturals/storefront-backend/pkg/types"
)

// DefaultTaxRate is the VAT rate applied when no rate is configured.
var DefaultTaxRate = decimal.RequireFromString("0.13")

// ErrInvalidCoupon is returned for unknown or inactive codes.
var ErrInvalidCoupon = errors.New("Invalid or expired coupon code")

// Line is one priced cart line.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// LinesFromCart converts cart items into pricing lines using each item's effective unit price.
func LinesFromCart(items []types.CartItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, Line{UnitPrice: item.UnitPrice(), Quantity: item.Quantity})
	}
	return lines
}

// Coupon is an eligible promo code.
type Coupon struct {
	Code   string
	Type   enums.PromoType
	Value  decimal.Decimal
	Active bool
}

// Breakdown is the result of pricing a cart. Amounts are unrounded.
type Breakdown struct {
	Subtotal              decimal.Decimal `json:"subtotal"`
	Discount              decimal.Decimal `json:"discount"`
	SubtotalAfterDiscount decimal.Decimal `json:"subtotalAfterDiscount"`
	Tax                   decimal.Decimal `json:"tax"`
	Total                 decimal.Decimal `json:"total"`
	CouponCode            string          `json:"couponCode,omitempty"`
}

// Rounded returns the breakdown rounded to 2 places, as persisted on orders.
func (b Breakdown) Rounded() Breakdown {
	return Breakdown{
		Subtotal:              b.Subtotal.Round(2),
		Discount:              b.Discount.Round(2),
		SubtotalAfterDiscount: b.SubtotalAfterDiscount.Round(2),
		Tax:                   b.Tax.Round(2),
		Total:                 b.Total.Round(2),
		CouponCode:            b.CouponCode,
	}
}

// Quote prices lines with an optional coupon. The discount is clamped to [0, subtotal]
// so the total is never negative.
func Quote(lines []Line, coupon *Coupon, taxRate decimal.Decimal) Breakdown {
	subtotal := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	discount := decimal.Zero
	code := ""
	if coupon != nil && coupon.Active {
		code = coupon.Code
		switch coupon.Type {
		case enums.PromoPercent:
			discount = subtotal.Mul(coupon.Value)
		case enums.PromoFixed:
			discount = coupon.Value
		}
	}
	discount = clamp(discount, decimal.Zero, subtotal)

	after := subtotal.Sub(discount)
	tax := after.Mul(taxRate)
	return Breakdown{
		Subtotal:              subtotal,
		Discount:              discount,
		SubtotalAfterDiscount: after,
		Tax:                   tax,
		Total:                 after.Add(tax),
		CouponCode:            code,
	}
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

// NormalizeCode trims and uppercases a coupon code.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// LookupCoupon matches raw against the coupon set after normalization.
// Unknown and inactive codes both yield ErrInvalidCoupon.
func LookupCoupon(coupons []Coupon, raw string) (*Coupon, error) {
	code := NormalizeCode(raw)
	if code == "" {
		return nil, ErrInvalidCoupon
	}
	for i := range coupons {
		if coupons[i].Code == code {
			if !coupons[i].Active {
				return nil, ErrInvalidCoupon
			}
			found := coupons[i]
			return &found, nil
		}
	}
	return nil, ErrInvalidCoupon
}
