package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// OrderEventRow mirrors the order_events BigQuery schema. Money columns are
// NUMERIC and carried as decimal strings.
type OrderEventRow struct {
	EventID       string             `bigquery:"event_id"`
	EventType     string             `bigquery:"event_type"`
	OccurredAt    time.Time          `bigquery:"occurred_at"`
	OrderID       string             `bigquery:"order_id"`
	UserID        *string            `bigquery:"user_id"`
	PaymentMethod *string            `bigquery:"payment_method"`
	CouponCode    *string            `bigquery:"coupon_code"`
	ItemCount     *int64             `bigquery:"item_count"`
	FromStatus    *string            `bigquery:"from_status"`
	ToStatus      *string            `bigquery:"to_status"`
	Subtotal      *string            `bigquery:"subtotal"`
	Discount      *string            `bigquery:"discount"`
	Tax           *string            `bigquery:"tax"`
	Total         *string            `bigquery:"total"`
	RefundAmount  *string            `bigquery:"refund_amount"`
	Payload       cbigquery.NullJSON `bigquery:"payload"`
}

// WalletEventRow mirrors the wallet_events BigQuery schema.
type WalletEventRow struct {
	EventID       string             `bigquery:"event_id"`
	OccurredAt    time.Time          `bigquery:"occurred_at"`
	TransactionID string             `bigquery:"transaction_id"`
	UserID        string             `bigquery:"user_id"`
	Type          string             `bigquery:"type"`
	Amount        string             `bigquery:"amount"`
	BalanceAfter  string             `bigquery:"balance_after"`
	Description   *string            `bigquery:"description"`
	Payload       cbigquery.NullJSON `bigquery:"payload"`
}
