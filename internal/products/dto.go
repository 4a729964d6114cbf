package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/himalayan-naturals/storefront-backend/pkg/db/models"
)

// DefaultStock is applied when a product is created without a stock value.
const DefaultStock = 10

// ProductDTO represents the catalog payload returned to clients.
type ProductDTO struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	Category       string          `json:"category"`
	Stock          int             `json:"stock"`
	Discount       *string         `json:"discount,omitempty"`
	Image          string          `json:"image"`
	Images         []string        `json:"images"`
	Rating         decimal.Decimal `json:"rating"`
	Reviews        int             `json:"reviews"`
	Benefits       *string         `json:"benefits,omitempty"`
	Usage          *string         `json:"usage,omitempty"`
	Ingredients    *string         `json:"ingredients,omitempty"`
	Certifications []string        `json:"certifications"`
	Tags           []string        `json:"tags"`
	BulkPrice      *string         `json:"bulkPrice,omitempty"`
	Sizes          []SizeOption    `json:"sizes,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name           string          `json:"name" validate:"required,max=200"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	Category       string          `json:"category" validate:"required,max=100"`
	Stock          *int            `json:"stock" validate:"omitempty,min=0"`
	Discount       *string         `json:"discount"`
	Image          string          `json:"image"`
	Images         []string        `json:"images"`
	Benefits       *string         `json:"benefits"`
	Usage          *string         `json:"usage"`
	Ingredients    *string         `json:"ingredients"`
	Certifications []string        `json:"certifications"`
	Tags           []string        `json:"tags"`
	BulkPrice      *string         `json:"bulkPrice"`
}

// UpdateProductInput holds optional mutation values for a product. Rating and
// reviews are not writable.
type UpdateProductInput struct {
	Name           *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description    *string          `json:"description"`
	Price          *decimal.Decimal `json:"price"`
	Category       *string          `json:"category" validate:"omitempty,min=1,max=100"`
	Stock          *int             `json:"stock" validate:"omitempty,min=0"`
	Discount       *string          `json:"discount"`
	Image          *string          `json:"image"`
	Images         *[]string        `json:"images"`
	Benefits       *string          `json:"benefits"`
	Usage          *string          `json:"usage"`
	Ingredients    *string          `json:"ingredients"`
	Certifications *[]string        `json:"certifications"`
	Tags           *[]string        `json:"tags"`
	BulkPrice      *string          `json:"bulkPrice"`
}

// NewProductDTO maps a product row to its API shape.
func NewProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		Category:       p.Category,
		Stock:          p.Stock,
		Discount:       p.Discount,
		Image:          p.Image,
		Images:         nonNil(p.Images),
		Rating:         p.Rating,
		Reviews:        p.Reviews,
		Benefits:       p.Benefits,
		Usage:          p.Usage,
		Ingredients:    p.Ingredients,
		Certifications: nonNil(p.Certifications),
		Tags:           nonNil(p.Tags),
		BulkPrice:      p.BulkPrice,
		Sizes:          SizesFor(p.Category, p.Price),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
