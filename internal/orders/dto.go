package orders

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/himalayan-naturals/storefront-backend/internal/pricing"
	"github.com/himalayan-naturals/storefront-backend/pkg/db/models"
	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
	"github.com/himalayan-naturals/storefront-backend/pkg/pagination"
	"github.com/himalayan-naturals/storefront-backend/pkg/types"
)

// Actor is the caller placing or reading orders. Guests carry a random id
// that owns their cart but never a wallet.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
}

// IsGuest reports whether the actor has no persisted profile.
func (a Actor) IsGuest() bool {
	return a.Role == enums.RoleGuest
}

func (a Actor) payer() *uuid.UUID {
	if a.IsGuest() || a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}

// Draft is a fully priced order ready to persist.
type Draft struct {
	Customer      types.CustomerDetails
	Items         []types.CartItem
	Breakdown     pricing.Breakdown
	PaymentMethod enums.PaymentMethod
}

// CheckoutInput is the checkout request body.
type CheckoutInput struct {
	CustomerDetails types.CustomerDetails `json:"customerDetails"`
	PaymentMethod   string                `json:"paymentMethod" validate:"required"`
	CouponCode      string                `json:"couponCode,omitempty"`
}

// AdminUpdateInput lets an admin change status and payment method only.
type AdminUpdateInput struct {
	Status        *string `json:"status,omitempty"`
	PaymentMethod *string `json:"paymentMethod,omitempty"`
}

// AdminListParams filters the admin order listing.
type AdminListParams struct {
	Status string
	pagination.Params
}

// OrderDTO is the API view of an order.
type OrderDTO struct {
	ID              string                `json:"id"`
	UserID          *uuid.UUID            `json:"userId,omitempty"`
	CustomerDetails types.CustomerDetails `json:"customerDetails"`
	Items           []types.CartItem      `json:"items"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	Discount        decimal.Decimal       `json:"discount"`
	Tax             decimal.Decimal       `json:"tax"`
	Total           decimal.Decimal       `json:"total"`
	CouponCode      *string               `json:"couponCode,omitempty"`
	Status          enums.OrderStatus     `json:"status"`
	PaymentMethod   enums.PaymentMethod   `json:"paymentMethod"`
	Date            time.Time             `json:"date"`
}

// FromModel decodes the stored snapshots into an OrderDTO.
func FromModel(m models.Order) (OrderDTO, error) {
	dto := OrderDTO{
		ID:            m.ID,
		UserID:        m.UserID,
		Subtotal:      m.Subtotal,
		Discount:      m.Discount,
		Tax:           m.Tax,
		Total:         m.Total,
		CouponCode:    m.CouponCode,
		Status:        m.Status,
		PaymentMethod: m.PaymentMethod,
		Date:          m.Date,
	}
	if err := json.Unmarshal(m.CustomerDetails, &dto.CustomerDetails); err != nil {
		return OrderDTO{}, fmt.Errorf("decode customer details for %s: %w", m.ID, err)
	}
	if err := json.Unmarshal(m.Items, &dto.Items); err != nil {
		return OrderDTO{}, fmt.Errorf("decode items for %s: %w", m.ID, err)
	}
	if dto.Items == nil {
		dto.Items = []types.CartItem{}
	}
	return dto, nil
}

func orderCursor(m models.Order) pagination.Cursor {
	return pagination.Cursor{CreatedAt: m.Date, ID: m.ID}
}
