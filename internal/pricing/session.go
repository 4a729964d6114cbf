package pricing

import "github.com/shopspring/decimal"

// Session holds the coupon applied to a cart between quotes.
// A failed Apply clears whatever coupon was applied before.
type Session struct {
	coupons []Coupon
	taxRate decimal.Decimal
	applied *Coupon
}

func NewSession(coupons []Coupon, taxRate decimal.Decimal) *Session {
	return &Session{coupons: coupons, taxRate: taxRate}
}

func (s *Session) Apply(raw string) error {
	coupon, err := LookupCoupon(s.coupons, raw)
	if err != nil {
		s.applied = nil
		return err
	}
	s.applied = coupon
	return nil
}

func (s *Session) Clear() {
	s.applied = nil
}

// Applied returns the active coupon, or nil.
func (s *Session) Applied() *Coupon {
	return s.applied
}

func (s *Session) Quote(lines []Line) Breakdown {
	return Quote(lines, s.applied, s.taxRate)
}
