package promos

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/himalayan-naturals/storefront-backend/internal/pricing"
	"github.com/himalayan-naturals/storefront-backend/pkg/db/models"
	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
)

// CreateInput is the admin payload for a new promo code.
type CreateInput struct {
	Code     string          `json:"code" validate:"required,max=64"`
	Type     string          `json:"type" validate:"required,oneof=percent fixed"`
	Value    decimal.Decimal `json:"value"`
	IsActive *bool           `json:"isActive"`
}

// UpdateInput carries optional promo changes.
type UpdateInput struct {
	Code     *string          `json:"code" validate:"omitempty,max=64"`
	Type     *string          `json:"type" validate:"omitempty,oneof=percent fixed"`
	Value    *decimal.Decimal `json:"value"`
	IsActive *bool            `json:"isActive"`
}

// ValidateInput is the public coupon check body.
type ValidateInput struct {
	Code string `json:"code" validate:"required,max=64"`
}

// PromoDTO is the API shape of a promo code.
type PromoDTO struct {
	ID        uuid.UUID       `json:"id"`
	Code      string          `json:"code"`
	Type      enums.PromoType `json:"type"`
	Value     decimal.Decimal `json:"value"`
	IsActive  bool            `json:"isActive"`
	CreatedAt time.Time       `json:"createdAt"`
}

func toDTO(p models.PromoCode) PromoDTO {
	return PromoDTO{
		ID:        p.ID,
		Code:      p.Code,
		Type:      p.Type,
		Value:     p.Value,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
	}
}

func toCoupon(p models.PromoCode) pricing.Coupon {
	return pricing.Coupon{
		Code:   p.Code,
		Type:   p.Type,
		Value:  p.Value,
		Active: p.IsActive,
	}
}
