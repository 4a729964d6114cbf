package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/himalayan-naturals/storefront-backend/pkg/db/models"
	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
)

// ProfileDTO is the transport shape of a profile.
type ProfileDTO struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Phone         *string         `json:"phone,omitempty"`
	Address       *string         `json:"address,omitempty"`
	Role          enums.Role      `json:"role"`
	WalletBalance decimal.Decimal `json:"walletBalance"`
	ReferralCode  *string         `json:"referralCode,omitempty"`
	ReferredBy    *uuid.UUID      `json:"referredBy,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ReferredUserDTO is the public view of a referred signup.
type ReferredUserDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// UpdateMeInput carries the self-service profile fields.
type UpdateMeInput struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=120"`
	Phone   *string `json:"phone" validate:"omitempty,max=32"`
	Address *string `json:"address" validate:"omitempty,max=512"`
}

// AdminUpdateInput carries the fields an admin may change.
type AdminUpdateInput struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=120"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Role    *string `json:"role" validate:"omitempty,oneof=admin user"`
	Phone   *string `json:"phone" validate:"omitempty,max=32"`
	Address *string `json:"address" validate:"omitempty,max=512"`
}

// FromModel maps a profile row onto its transport shape.
func FromModel(p *models.Profile) *ProfileDTO {
	if p == nil {
		return nil
	}
	return &ProfileDTO{
		ID:            p.ID,
		Name:          p.Name,
		Email:         p.Email,
		Phone:         p.Phone,
		Address:       p.Address,
		Role:          p.Role,
		WalletBalance: p.WalletBalance,
		ReferralCode:  p.ReferralCode,
		ReferredBy:    p.ReferredBy,
		CreatedAt:     p.CreatedAt,
	}
}
