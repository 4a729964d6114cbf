package types

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSnapshot is the product state frozen into a cart line and later into an order.
type ProductSnapshot struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Category string          `json:"category"`
}

// CartItem is one cart line. Lines are identified by (product id, selected size).
type CartItem struct {
	Product      ProductSnapshot  `json:"product"`
	Quantity     int              `json:"quantity"`
	SelectedSize *string          `json:"selectedSize,omitempty"`
	CustomPrice  *decimal.Decimal `json:"customPrice,omitempty"`
}

// UnitPrice is the custom size price when set, otherwise the product price.
func (c CartItem) UnitPrice() decimal.Decimal {
	if c.CustomPrice != nil {
		return *c.CustomPrice
	}
	return c.Product.Price
}

// LineTotal is UnitPrice times Quantity.
func (c CartItem) LineTotal() decimal.Decimal {
	return c.UnitPrice().Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// SameLine reports whether both items address the same product and size.
func (c CartItem) SameLine(productID uuid.UUID, size *string) bool {
	return c.Product.ID == productID && normalizeSize(c.SelectedSize) == normalizeSize(size)
}

func normalizeSize(size *string) string {
	if size == nil {
		return ""
	}
	return strings.TrimSpace(*size)
}

// CustomerDetails is the contact snapshot stored on an order.
type CustomerDetails struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
}
