package settings

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/himalayan-naturals/storefront-backend/pkg/db/models"
	pkgerrors "github.com/himalayan-naturals/storefront-backend/pkg/errors"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
)

// SettingsDTO is the public site configuration.
type SettingsDTO struct {
	ReferralBonusAmount decimal.Decimal `json:"referralBonusAmount"`
	SEOTitle            *string         `json:"seoTitle"`
	SEODescription      *string         `json:"seoDescription"`
	SEOKeywords         *string         `json:"seoKeywords"`
	ContactEmail        *string         `json:"contactEmail"`
	ContactPhone        *string         `json:"contactPhone"`
	Address             *string         `json:"address"`
	Announcement        *string         `json:"announcement"`
}

// UpdateInput replaces the editable settings. Nil fields keep their value.
type UpdateInput struct {
	ReferralBonusAmount *decimal.Decimal `json:"referralBonusAmount"`
	SEOTitle            *string          `json:"seoTitle" validate:"omitempty,max=255"`
	SEODescription      *string          `json:"seoDescription" validate:"omitempty,max=1024"`
	SEOKeywords         *string          `json:"seoKeywords" validate:"omitempty,max=1024"`
	ContactEmail        *string          `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone        *string          `json:"contactPhone" validate:"omitempty,max=64"`
	Address             *string          `json:"address" validate:"omitempty,max=512"`
	Announcement        *string          `json:"announcement" validate:"omitempty,max=1024"`
}

type Service interface {
	Get(ctx context.Context) (*SettingsDTO, error)
	Update(ctx context.Context, input UpdateInput) (*SettingsDTO, error)
	// ReferralBonus never fails: anything other than a readable positive
	// amount falls back to the configured value. Call it outside a ledger
	// transaction, since a failed read aborts a postgres transaction.
	ReferralBonus(ctx context.Context) decimal.Decimal
}

type service struct {
	repo     Repository
	fallback decimal.Decimal
	logg     *logger.Logger
}

func NewService(repo Repository, referralFallback decimal.Decimal, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if !referralFallback.IsPositive() {
		return nil, fmt.Errorf("referral bonus fallback must be positive")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, fallback: referralFallback, logg: logg}, nil
}

func (s *service) Get(ctx context.Context) (*SettingsDTO, error) {
	row, err := s.repo.Get(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load site settings")
	}
	if row == nil {
		return &SettingsDTO{ReferralBonusAmount: s.fallback}, nil
	}
	return toDTO(row), nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*SettingsDTO, error) {
	row, err := s.repo.Get(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load site settings")
	}
	if row == nil {
		row = &models.SiteSettings{ReferralBonusAmount: s.fallback}
	}

	if input.ReferralBonusAmount != nil {
		if !input.ReferralBonusAmount.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "referral bonus amount must be greater than zero")
		}
		row.ReferralBonusAmount = input.ReferralBonusAmount.Round(2)
	}
	assign(&row.SEOTitle, input.SEOTitle)
	assign(&row.SEODescription, input.SEODescription)
	assign(&row.SEOKeywords, input.SEOKeywords)
	assign(&row.ContactEmail, input.ContactEmail)
	assign(&row.ContactPhone, input.ContactPhone)
	assign(&row.Address, input.Address)
	assign(&row.Announcement, input.Announcement)

	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save site settings")
	}
	return toDTO(row), nil
}

func (s *service) ReferralBonus(ctx context.Context) decimal.Decimal {
	row, err := s.repo.Get(ctx)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "settings.referral_bonus.fallback")
		return s.fallback
	}
	if row == nil || !row.ReferralBonusAmount.IsPositive() {
		return s.fallback
	}
	return row.ReferralBonusAmount
}

func assign(dst **string, src *string) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func toDTO(row *models.SiteSettings) *SettingsDTO {
	return &SettingsDTO{
		ReferralBonusAmount: row.ReferralBonusAmount,
		SEOTitle:            row.SEOTitle,
		SEODescription:      row.SEODescription,
		SEOKeywords:         row.SEOKeywords,
		ContactEmail:        row.ContactEmail,
		ContactPhone:        row.ContactPhone,
		Address:             row.Address,
		Announcement:        row.Announcement,
	}
}
