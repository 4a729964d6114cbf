package wishlist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	product "github.com/himalayan-naturals/storefront-backend/internal/products"
	pkgerrors "github.com/himalayan-naturals/storefront-backend/pkg/errors"
	"github.com/himalayan-naturals/storefront-backend/pkg/types"
)

type jsonStore interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	WishlistKey(ownerID string) string
}

type productReader interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*product.ProductDTO, error)
}

// Service keeps a per-owner list of saved products.
type Service interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]types.ProductSnapshot, error)
	Add(ctx context.Context, ownerID uuid.UUID, guest bool, productID uuid.UUID) ([]types.ProductSnapshot, error)
	Remove(ctx context.Context, ownerID uuid.UUID, guest bool, productID uuid.UUID) ([]types.ProductSnapshot, error)
	Contains(ctx context.Context, ownerID, productID uuid.UUID) (bool, error)
}

type service struct {
	kv       jsonStore
	products productReader
	guestTTL time.Duration
}

// NewService builds a wishlist service. guestTTL applies to guest lists only.
func NewService(kv jsonStore, products productReader, guestTTL time.Duration) (Service, error) {
	if kv == nil {
		return nil, fmt.Errorf("wishlist store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	return &service{kv: kv, products: products, guestTTL: guestTTL}, nil
}

// List returns saved products. A missing or unreadable list is empty.
func (s *service) List(ctx context.Context, ownerID uuid.UUID) ([]types.ProductSnapshot, error) {
	var items []types.ProductSnapshot
	found, err := s.kv.GetJSON(ctx, s.kv.WishlistKey(ownerID.String()), &items)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
	}
	if !found {
		return []types.ProductSnapshot{}, nil
	}
	valid := make([]types.ProductSnapshot, 0, len(items))
	for _, item := range items {
		if item.ID != uuid.Nil {
			valid = append(valid, item)
		}
	}
	return valid, nil
}

// Add saves a product once; adding it again is a no-op.
func (s *service) Add(ctx context.Context, ownerID uuid.UUID, guest bool, productID uuid.UUID) ([]types.ProductSnapshot, error) {
	items, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if indexOf(items, productID) >= 0 {
		return items, nil
	}
	dto, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	items = append(items, types.ProductSnapshot{
		ID:       dto.ID,
		Name:     dto.Name,
		Price:    dto.Price,
		Image:    dto.Image,
		Category: dto.Category,
	})
	return items, s.save(ctx, ownerID, guest, items)
}

func (s *service) Remove(ctx context.Context, ownerID uuid.UUID, guest bool, productID uuid.UUID) ([]types.ProductSnapshot, error) {
	items, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	idx := indexOf(items, productID)
	if idx < 0 {
		return items, nil
	}
	items = append(items[:idx], items[idx+1:]...)
	return items, s.save(ctx, ownerID, guest, items)
}

func (s *service) Contains(ctx context.Context, ownerID, productID uuid.UUID) (bool, error) {
	items, err := s.List(ctx, ownerID)
	if err != nil {
		return false, err
	}
	return indexOf(items, productID) >= 0, nil
}

func (s *service) save(ctx context.Context, ownerID uuid.UUID, guest bool, items []types.ProductSnapshot) error {
	key := s.kv.WishlistKey(ownerID.String())
	var err error
	if len(items) == 0 {
		err = s.kv.Del(ctx, key)
	} else {
		var ttl time.Duration
		if guest {
			ttl = s.guestTTL
		}
		err = s.kv.SetJSON(ctx, key, items, ttl)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wishlist")
	}
	return nil
}

func indexOf(items []types.ProductSnapshot, productID uuid.UUID) int {
	for i := range items {
		if items[i].ID == productID {
			return i
		}
	}
	return -1
}
