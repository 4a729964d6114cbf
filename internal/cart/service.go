package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/himalayan-naturals/storefront-backend/internal/pricing"
	pkgerrors "github.com/himalayan-naturals/storefront-backend/pkg/errors"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
	"github.com/himalayan-naturals/storefront-backend/pkg/types"
)

// MaxLineQuantity caps a single cart line.
const MaxLineQuantity = 99

// AddItemInput adds a product, optionally in a specific size.
type AddItemInput struct {
	ProductID    uuid.UUID `json:"productId" validate:"required"`
	Quantity     int       `json:"quantity" validate:"required,min=1,max=99"`
	SelectedSize *string   `json:"selectedSize,omitempty"`
}

// LineKey addresses one cart line.
type LineKey struct {
	ProductID    uuid.UUID `json:"productId" validate:"required"`
	SelectedSize *string   `json:"selectedSize,omitempty"`
}

// UpdateQuantityInput sets the quantity of a line. Zero removes it.
type UpdateQuantityInput struct {
	LineKey
	Quantity int `json:"quantity" validate:"min=0,max=99"`
}

// QuoteDTO prices the current cart. CouponError carries the reason an
// entered coupon was not applied.
type QuoteDTO struct {
	Items       []types.CartItem  `json:"items"`
	Breakdown   pricing.Breakdown `json:"breakdown"`
	CouponError string            `json:"couponError,omitempty"`
}

// Service manages carts and prices them.
type Service interface {
	Items(ctx context.Context, ownerID uuid.UUID) ([]types.CartItem, error)
	AddItem(ctx context.Context, owner Owner, input AddItemInput) ([]types.CartItem, error)
	UpdateQuantity(ctx context.Context, owner Owner, input UpdateQuantityInput) ([]types.CartItem, error)
	// RemoveItem drops the line matching both product and size.
	RemoveItem(ctx context.Context, owner Owner, key LineKey) ([]types.CartItem, error)
	Clear(ctx context.Context, ownerID uuid.UUID) error
	Quote(ctx context.Context, ownerID uuid.UUID, couponCode string) (*QuoteDTO, error)
}

type lineSource interface {
	CartLine(ctx context.Context, id uuid.UUID, size *string) (*types.CartItem, error)
}

type couponSource interface {
	ActiveCoupons(ctx context.Context) ([]pricing.Coupon, error)
}

type service struct {
	store   *Store
	lines   lineSource
	coupons couponSource
	taxRate decimal.Decimal
	logg    *logger.Logger
}

// ServiceParams groups the cart service dependencies.
type ServiceParams struct {
	Store   *Store
	Lines   lineSource
	Coupons couponSource
	TaxRate decimal.Decimal
	Logger  *logger.Logger
}

// NewService builds the cart service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Store == nil:
		return nil, fmt.Errorf("cart store required")
	case params.Lines == nil:
		return nil, fmt.Errorf("product line source required")
	case params.Coupons == nil:
		return nil, fmt.Errorf("coupon source required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		store:   params.Store,
		lines:   params.Lines,
		coupons: params.Coupons,
		taxRate: params.TaxRate,
		logg:    params.Logger,
	}, nil
}

func (s *service) Items(ctx context.Context, ownerID uuid.UUID) ([]types.CartItem, error) {
	items, err := s.store.Load(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return items, nil
}

// AddItem snapshots the product server side and merges into an existing line
// with the same product and size.
func (s *service) AddItem(ctx context.Context, owner Owner, input AddItemInput) ([]types.CartItem, error) {
	if input.Quantity < 1 || input.Quantity > MaxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 1 and %d", MaxLineQuantity))
	}
	line, err := s.lines.CartLine(ctx, input.ProductID, input.SelectedSize)
	if err != nil {
		return nil, err
	}

	items, err := s.Items(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	merged := false
	for i := range items {
		if items[i].SameLine(line.Product.ID, line.SelectedSize) {
			qty := items[i].Quantity + input.Quantity
			if qty > MaxLineQuantity {
				qty = MaxLineQuantity
			}
			line.Quantity = qty
			items[i] = *line
			merged = true
			break
		}
	}
	if !merged {
		line.Quantity = input.Quantity
		items = append(items, *line)
	}
	return s.save(ctx, owner, items)
}

func (s *service) UpdateQuantity(ctx context.Context, owner Owner, input UpdateQuantityInput) ([]types.CartItem, error) {
	if input.Quantity < 0 || input.Quantity > MaxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 0 and %d", MaxLineQuantity))
	}
	items, err := s.Items(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	idx := indexOf(items, input.LineKey)
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	if input.Quantity == 0 {
		items = append(items[:idx], items[idx+1:]...)
	} else {
		items[idx].Quantity = input.Quantity
	}
	return s.save(ctx, owner, items)
}

func (s *service) RemoveItem(ctx context.Context, owner Owner, key LineKey) ([]types.CartItem, error) {
	items, err := s.Items(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	idx := indexOf(items, key)
	if idx < 0 {
		return items, nil
	}
	items = append(items[:idx], items[idx+1:]...)
	return s.save(ctx, owner, items)
}

func (s *service) Clear(ctx context.Context, ownerID uuid.UUID) error {
	if err := s.store.Clear(ctx, ownerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// Quote prices the cart. An entered coupon that does not apply leaves the
// cart priced without any coupon.
func (s *service) Quote(ctx context.Context, ownerID uuid.UUID, couponCode string) (*QuoteDTO, error) {
	items, err := s.Items(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	coupons, err := s.coupons.ActiveCoupons(ctx)
	if err != nil {
		return nil, err
	}

	session := pricing.NewSession(coupons, s.taxRate)
	quote := &QuoteDTO{Items: items}
	if strings.TrimSpace(couponCode) != "" {
		if err := session.Apply(couponCode); err != nil {
			quote.CouponError = err.Error()
			s.logg.Info(s.logg.WithField(ctx, "coupon", pricing.NormalizeCode(couponCode)), "cart.quote.coupon_rejected")
		}
	}
	quote.Breakdown = session.Quote(pricing.LinesFromCart(items))
	return quote, nil
}

func (s *service) save(ctx context.Context, owner Owner, items []types.CartItem) ([]types.CartItem, error) {
	if err := s.store.Save(ctx, owner, items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	if items == nil {
		items = []types.CartItem{}
	}
	return items, nil
}

func indexOf(items []types.CartItem, key LineKey) int {
	for i := range items {
		if items[i].SameLine(key.ProductID, key.SelectedSize) {
			return i
		}
	}
	return -1
}
