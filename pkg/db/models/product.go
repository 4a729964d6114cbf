package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a catalog listing. Rating and Reviews are maintained server side.
type Product struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string          `gorm:"column:name;not null"`
	Description    string          `gorm:"column:description;not null;default:''"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Category       string          `gorm:"column:category;not null"`
	Stock          int             `gorm:"column:stock;not null"`
	Discount       *string         `gorm:"column:discount"`
	Image          string          `gorm:"column:image;not null;default:''"`
	Images         pq.StringArray  `gorm:"column:images;type:text[];not null;default:'{}'"`
	Rating         decimal.Decimal `gorm:"column:rating;type:numeric(3,2);not null;default:0"`
	Reviews        int             `gorm:"column:reviews;not null;default:0"`
	Benefits       *string         `gorm:"column:benefits"`
	Usage          *string         `gorm:"column:usage"`
	Ingredients    *string         `gorm:"column:ingredients"`
	Certifications pq.StringArray  `gorm:"column:certifications;type:text[];not null;default:'{}'"`
	Tags           pq.StringArray  `gorm:"column:tags;type:text[];not null;default:'{}'"`
	BulkPrice      *string         `gorm:"column:bulk_price"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
