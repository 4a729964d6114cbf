package promos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/himalayan-naturals/storefront-backend/internal/pricing"
	"github.com/himalayan-naturals/storefront-backend/pkg/db"
	"github.com/himalayan-naturals/storefront-backend/pkg/db/models"
	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
	pkgerrors "github.com/himalayan-naturals/storefront-backend/pkg/errors"
)

// Service manages promo codes and resolves coupons for pricing.
type Service interface {
	List(ctx context.Context) ([]PromoDTO, error)
	ActiveCoupons(ctx context.Context) ([]pricing.Coupon, error)
	Resolve(ctx context.Context, raw string) (*pricing.Coupon, error)
	Create(ctx context.Context, input CreateInput) (*PromoDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*PromoDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promo repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]PromoDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list promo codes")
	}
	out := make([]PromoDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out, nil
}

// ActiveCoupons returns the set pricing may apply.
func (s *service) ActiveCoupons(ctx context.Context) ([]pricing.Coupon, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load active promo codes")
	}
	coupons := make([]pricing.Coupon, 0, len(rows))
	for _, row := range rows {
		coupons = append(coupons, toCoupon(row))
	}
	return coupons, nil
}

// Resolve looks raw up in the active set. Unknown or inactive codes fail
// with INVALID_COUPON.
func (s *service) Resolve(ctx context.Context, raw string) (*pricing.Coupon, error) {
	coupons, err := s.ActiveCoupons(ctx)
	if err != nil {
		return nil, err
	}
	coupon, err := pricing.LookupCoupon(coupons, raw)
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidCoupon) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidCoupon, err, err.Error())
		}
		return nil, err
	}
	return coupon, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*PromoDTO, error) {
	promoType, err := enums.ParsePromoType(input.Type)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid promo type")
	}
	code := pricing.NormalizeCode(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if err := validateValue(promoType, input.Value); err != nil {
		return nil, err
	}

	promo := models.PromoCode{
		ID:       uuid.New(),
		Code:     code,
		Type:     promoType,
		Value:    input.Value,
		IsActive: true,
	}
	if input.IsActive != nil {
		promo.IsActive = *input.IsActive
	}
	if err := s.repo.Create(ctx, &promo); err != nil {
		return nil, mapWriteError(err)
	}
	dto := toDTO(promo)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*PromoDTO, error) {
	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load promo code")
	}

	if input.Code != nil {
		code := pricing.NormalizeCode(*input.Code)
		if code == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
		}
		promo.Code = code
	}
	if input.Type != nil {
		promoType, err := enums.ParsePromoType(*input.Type)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid promo type")
		}
		promo.Type = promoType
	}
	if input.Value != nil {
		promo.Value = *input.Value
	}
	if input.IsActive != nil {
		promo.IsActive = *input.IsActive
	}
	if err := validateValue(promo.Type, promo.Value); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, promo); err != nil {
		return nil, mapWriteError(err)
	}
	dto := toDTO(*promo)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete promo code")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
	}
	return nil
}

// validateValue keeps percent values in (0, 1] and fixed values positive.
func validateValue(promoType enums.PromoType, value decimal.Decimal) error {
	if !value.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "value must be greater than zero")
	}
	if promoType == enums.PromoPercent && value.GreaterThan(decimal.NewFromInt(1)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percent value must be a fraction no greater than 1")
	}
	return nil
}

func mapWriteError(err error) error {
	if db.IsUniqueViolation(err, CodeUniqueConstraint) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "promo code already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save promo code")
}
