package pricing

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
	"github.com/himalayan-naturals/storefront-backend/pkg/types"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s: got %s want %s", label, got, want)
	}
}

func TestQuotePercentCoupon(t *testing.T) {
	lines := []Line{{UnitPrice: dec("250"), Quantity: 2}, {UnitPrice: dec("500"), Quantity: 1}}
	coupon := &Coupon{Code: "HIMALAYA10", Type: enums.PromoPercent, Value: dec("0.10"), Active: true}

	b := Quote(lines, coupon, DefaultTaxRate)

	assertDec(t, "subtotal", b.Subtotal, "1000")
	assertDec(t, "discount", b.Discount, "100")
	assertDec(t, "tax", b.Tax, "117")
	assertDec(t, "total", b.Total, "1017")
	if b.CouponCode != "HIMALAYA10" {
		t.Fatalf("unexpected coupon code %q", b.CouponCode)
	}
}

func TestQuoteFixedCouponClampsToSubtotal(t *testing.T) {
	lines := []Line{{UnitPrice: dec("500"), Quantity: 1}}
	coupon := &Coupon{Code: "BIG600", Type: enums.PromoFixed, Value: dec("600"), Active: true}

	b := Quote(lines, coupon, DefaultTaxRate)

	assertDec(t, "discount", b.Discount, "500")
	assertDec(t, "tax", b.Tax, "0")
	assertDec(t, "total", b.Total, "0")
}

func TestQuoteDiscountNeverExceedsSubtotal(t *testing.T) {
	subtotals := []string{"0", "0.01", "99.99", "500", "12345.67"}
	coupons := []Coupon{
		{Type: enums.PromoPercent, Value: dec("0"), Active: true},
		{Type: enums.PromoPercent, Value: dec("0.5"), Active: true},
		{Type: enums.PromoPercent, Value: dec("1"), Active: true},
		{Type: enums.PromoFixed, Value: dec("50"), Active: true},
		{Type: enums.PromoFixed, Value: dec("100000"), Active: true},
		{Type: enums.PromoFixed, Value: dec("-10"), Active: true},
	}
	for _, s := range subtotals {
		for i := range coupons {
			b := Quote([]Line{{UnitPrice: dec(s), Quantity: 1}}, &coupons[i], DefaultTaxRate)
			if b.Discount.GreaterThan(b.Subtotal) || b.Discount.IsNegative() {
				t.Fatalf("discount %s out of [0,%s]", b.Discount, b.Subtotal)
			}
			if b.Total.IsNegative() {
				t.Fatalf("negative total %s", b.Total)
			}
		}
	}
}

func TestQuoteTaxIsThirteenPercentOfDiscountedSubtotal(t *testing.T) {
	cases := []struct{ subtotal, discount string }{
		{"1000", "0"},
		{"1000", "250"},
		{"333.33", "33.33"},
		{"0.07", "0"},
	}
	for _, tc := range cases {
		coupon := &Coupon{Type: enums.PromoFixed, Value: dec(tc.discount), Active: true}
		b := Quote([]Line{{UnitPrice: dec(tc.subtotal), Quantity: 1}}, coupon, DefaultTaxRate)
		after := dec(tc.subtotal).Sub(dec(tc.discount))
		if !b.Tax.Equal(after.Mul(dec("0.13"))) {
			t.Fatalf("tax %s != (%s)*0.13", b.Tax, after)
		}
		if !b.Total.Equal(after.Mul(dec("1.13"))) {
			t.Fatalf("total %s != (%s)*1.13", b.Total, after)
		}
	}
}

func TestQuoteIgnoresInactiveCouponAndEmptyLines(t *testing.T) {
	coupon := &Coupon{Code: "OLD", Type: enums.PromoPercent, Value: dec("0.5"), Active: false}
	b := Quote([]Line{{UnitPrice: dec("100"), Quantity: 1}, {UnitPrice: dec("100"), Quantity: 0}}, coupon, DefaultTaxRate)
	assertDec(t, "subtotal", b.Subtotal, "100")
	assertDec(t, "discount", b.Discount, "0")
	if b.CouponCode != "" {
		t.Fatalf("inactive coupon should not be reported")
	}
}

func TestBreakdownRounded(t *testing.T) {
	b := Quote([]Line{{UnitPrice: dec("10.005"), Quantity: 1}}, nil, DefaultTaxRate).Rounded()
	assertDec(t, "subtotal", b.Subtotal, "10.01")
	assertDec(t, "tax", b.Tax, "1.30")
	assertDec(t, "total", b.Total, "11.31")
}

func TestLinesFromCartUsesCustomPrice(t *testing.T) {
	custom := dec("900")
	items := []types.CartItem{
		{Product: types.ProductSnapshot{ID: uuid.New(), Price: dec("450")}, Quantity: 2},
		{Product: types.ProductSnapshot{ID: uuid.New(), Price: dec("450")}, Quantity: 1, CustomPrice: &custom},
	}
	b := Quote(LinesFromCart(items), nil, DefaultTaxRate)
	assertDec(t, "subtotal", b.Subtotal, "1800")
}

func TestLookupCoupon(t *testing.T) {
	coupons := []Coupon{
		{Code: "NAMASTE20", Type: enums.PromoPercent, Value: dec("0.2"), Active: true},
		{Code: "EXPIRED", Type: enums.PromoFixed, Value: dec("100"), Active: false},
	}

	got, err := LookupCoupon(coupons, "  namaste20 ")
	if err != nil {
		t.Fatalf("LookupCoupon: %v", err)
	}
	if got.Code != "NAMASTE20" {
		t.Fatalf("unexpected coupon %+v", got)
	}

	for _, raw := range []string{"expired", "unknown", "", "NAMASTE"} {
		if _, err := LookupCoupon(coupons, raw); !errors.Is(err, ErrInvalidCoupon) {
			t.Fatalf("LookupCoupon(%q) expected ErrInvalidCoupon, got %v", raw, err)
		}
	}
}

func TestSessionFailedApplyClearsCoupon(t *testing.T) {
	coupons := []Coupon{{Code: "HIMALAYA10", Type: enums.PromoPercent, Value: dec("0.10"), Active: true}}
	session := NewSession(coupons, DefaultTaxRate)
	lines := []Line{{UnitPrice: dec("1000"), Quantity: 1}}

	if err := session.Apply("himalaya10"); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	assertDec(t, "discount", session.Quote(lines).Discount, "100")

	if err := session.Apply("BOGUS"); !errors.Is(err, ErrInvalidCoupon) {
		t.Fatalf("expected ErrInvalidCoupon, got %v", err)
	}
	if session.Applied() != nil {
		t.Fatal("failed apply must clear the previous coupon")
	}
	b := session.Quote(lines)
	plain := Quote(lines, nil, DefaultTaxRate)
	if !b.Total.Equal(plain.Total) || !b.Discount.IsZero() {
		t.Fatalf("quote after failed apply should equal uncouponed quote: %+v vs %+v", b, plain)
	}
}
