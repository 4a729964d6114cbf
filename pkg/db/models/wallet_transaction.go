package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
)

// WalletTransaction is an append-only wallet ledger entry. Amount is always
// positive; the sign comes from Type.
type WalletTransaction struct {
	ID          uuid.UUID                     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID                     `gorm:"column:user_id;type:uuid;not null;index"`
	Type        enums.WalletTransactionType   `gorm:"column:type;type:text;not null"`
	Amount      decimal.Decimal               `gorm:"column:amount;type:numeric(12,2);not null"`
	Description string                        `gorm:"column:description;not null"`
	Status      enums.WalletTransactionStatus `gorm:"column:status;type:text;not null;default:completed"`
	CreatedAt   time.Time                     `gorm:"column:created_at;autoCreateTime"`
}

// SignedAmount returns the balance delta of the entry.
func (t WalletTransaction) SignedAmount() decimal.Decimal {
	if t.Type.IsCredit() {
		return t.Amount
	}
	return t.Amount.Neg()
}
