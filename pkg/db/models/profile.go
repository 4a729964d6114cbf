package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
)

// Profile is the customer record. WalletBalance is a cached total of the
// wallet ledger and never goes negative.
type Profile struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name          string          `gorm:"column:name;not null"`
	Email         string          `gorm:"column:email;not null"`
	Phone         *string         `gorm:"column:phone"`
	Address       *string         `gorm:"column:address"`
	Role          enums.Role      `gorm:"column:role;type:text;not null;default:user"`
	WalletBalance decimal.Decimal `gorm:"column:wallet_balance;type:numeric(12,2);not null;default:0"`
	ReferralCode  *string         `gorm:"column:referral_code;uniqueIndex"`
	ReferredBy    *uuid.UUID      `gorm:"column:referred_by;type:uuid"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
