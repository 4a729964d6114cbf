package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
)

// OrderPlacedEvent is emitted once an order row and its wallet debit commit.
type OrderPlacedEvent struct {
	OrderID       string              `json:"orderId"`
	UserID        *uuid.UUID          `json:"userId,omitempty"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	CouponCode    string              `json:"couponCode,omitempty"`
	ItemCount     int                 `json:"itemCount"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Discount      decimal.Decimal     `json:"discount"`
	Tax           decimal.Decimal     `json:"tax"`
	Total         decimal.Decimal     `json:"total"`
}

// OrderStatusChangedEvent records an admin status transition.
type OrderStatusChangedEvent struct {
	OrderID      string            `json:"orderId"`
	From         enums.OrderStatus `json:"from"`
	To           enums.OrderStatus `json:"to"`
	RefundAmount *decimal.Decimal  `json:"refundAmount,omitempty"`
}

// WalletTransactionRecordedEvent mirrors a ledger row and the balance it produced.
type WalletTransactionRecordedEvent struct {
	TransactionID uuid.UUID                   `json:"transactionId"`
	UserID        uuid.UUID                   `json:"userId"`
	Type          enums.WalletTransactionType `json:"type"`
	Amount        decimal.Decimal             `json:"amount"`
	BalanceAfter  decimal.Decimal             `json:"balanceAfter"`
	Description   string                      `json:"description"`
}

type ReferralAppliedEvent struct {
	ReferrerID uuid.UUID       `json:"referrerId"`
	ReferredID uuid.UUID       `json:"referredId"`
	Code       string          `json:"code"`
	Bonus      decimal.Decimal `json:"bonus"`
}

type UserSignedUpEvent struct {
	UserID       uuid.UUID       `json:"userId"`
	ReferralCode string          `json:"referralCode"`
	SignupBonus  decimal.Decimal `json:"signupBonus"`
	Referred     bool            `json:"referred"`
}
