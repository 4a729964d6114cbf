package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SiteSettingsID is the primary key of the single settings row.
const SiteSettingsID = 1

// SiteSettings holds storefront-wide settings. Only one row exists.
type SiteSettings struct {
	ID                  int             `gorm:"column:id;primaryKey"`
	ReferralBonusAmount decimal.Decimal `gorm:"column:referral_bonus_amount;type:numeric(12,2);not null;default:200"`
	SEOTitle            *string         `gorm:"column:seo_title"`
	SEODescription      *string         `gorm:"column:seo_description"`
	SEOKeywords         *string         `gorm:"column:seo_keywords"`
	ContactEmail        *string         `gorm:"column:contact_email"`
	ContactPhone        *string         `gorm:"column:contact_phone"`
	Address             *string         `gorm:"column:address"`
	Announcement        *string         `gorm:"column:announcement"`
	UpdatedAt           time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (SiteSettings) TableName() string { return "site_settings" }
