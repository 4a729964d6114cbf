package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/himalayan-naturals/storefront-backend/pkg/db/models"
	pkgerrors "github.com/himalayan-naturals/storefront-backend/pkg/errors"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
	"github.com/himalayan-naturals/storefront-backend/pkg/pagination"
	"github.com/himalayan-naturals/storefront-backend/pkg/types"
)

// Service exposes catalog reads and admin product management.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (*pagination.Page[ProductDTO], error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	// CartLine snapshots the product for a cart line, pricing the selected size.
	CartLine(ctx context.Context, id uuid.UUID, size *string) (*types.CartItem, error)
}

type service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService constructs a product service instance.
func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*pagination.Page[ProductDTO], error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, input.Filters, pagination.LimitWithBuffer(input.Pagination.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	page := pagination.Trim(rows, input.Pagination.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID.String()}
	})
	items := make([]ProductDTO, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, *NewProductDTO(&page.Items[i]))
	}
	return &pagination.Page[ProductDTO]{Items: items, NextCursor: page.NextCursor}, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

// CreateProduct stores a new listing. Stock defaults to DefaultStock.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	stock := DefaultStock
	if input.Stock != nil {
		stock = *input.Stock
	}
	if stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}

	now := s.now().UTC()
	product := &models.Product{
		ID:             uuid.New(),
		Name:           name,
		Description:    input.Description,
		Price:          input.Price.Round(2),
		Category:       category,
		Stock:          stock,
		Discount:       input.Discount,
		Image:          input.Image,
		Images:         pq.StringArray(nonNil(input.Images)),
		Benefits:       input.Benefits,
		Usage:          input.Usage,
		Ingredients:    input.Ingredients,
		Certifications: pq.StringArray(nonNil(input.Certifications)),
		Tags:           pq.StringArray(nonNil(input.Tags)),
		BulkPrice:      input.BulkPrice,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", product.ID.String()), "products.created")
	return s.GetProduct(ctx, product.ID)
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	updates, err := updatesFrom(input)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return s.GetProduct(ctx, id)
	}
	updates["updated_at"] = s.now().UTC()
	if err := s.repo.Update(ctx, id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	return s.GetProduct(ctx, id)
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", id.String()), "products.deleted")
	return nil
}

func (s *service) CartLine(ctx context.Context, id uuid.UUID, size *string) (*types.CartItem, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	selected, custom, err := PriceForSize(product.Category, product.Price, size)
	if err != nil {
		return nil, err
	}
	return &types.CartItem{
		Product: types.ProductSnapshot{
			ID:       product.ID,
			Name:     product.Name,
			Price:    product.Price,
			Image:    product.Image,
			Category: product.Category,
		},
		SelectedSize: selected,
		CustomPrice:  custom,
	}, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func updatesFrom(input UpdateProductInput) (map[string]any, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		updates["name"] = name
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category must not be empty")
		}
		updates["category"] = category
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
		updates["price"] = input.Price.Round(2)
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
		}
		updates["stock"] = *input.Stock
	}
	setString(updates, "description", input.Description)
	setString(updates, "image", input.Image)
	setOptional(updates, "discount", input.Discount)
	setOptional(updates, "benefits", input.Benefits)
	setOptional(updates, "usage", input.Usage)
	setOptional(updates, "ingredients", input.Ingredients)
	setOptional(updates, "bulk_price", input.BulkPrice)
	setArray(updates, "images", input.Images)
	setArray(updates, "certifications", input.Certifications)
	setArray(updates, "tags", input.Tags)
	return updates, nil
}

func setString(updates map[string]any, column string, value *string) {
	if value != nil {
		updates[column] = *value
	}
}

// setOptional clears nullable columns when the new value is blank.
func setOptional(updates map[string]any, column string, value *string) {
	if value == nil {
		return
	}
	if strings.TrimSpace(*value) == "" {
		updates[column] = nil
		return
	}
	updates[column] = *value
}

func setArray(updates map[string]any, column string, value *[]string) {
	if value != nil {
		updates[column] = pq.StringArray(nonNil(*value))
	}
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
	}
	return nil
}
