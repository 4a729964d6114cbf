package cart

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/himalayan-naturals/storefront-backend/pkg/types"
)

// Owner identifies whose cart is addressed. Guest carts expire.
type Owner struct {
	ID    uuid.UUID
	Guest bool
}

type jsonStore interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(ownerID string) string
}

// Store keeps each owner's cart as one JSON array. Missing or unreadable
// carts read as empty.
type Store struct {
	kv       jsonStore
	guestTTL time.Duration
}

// NewStore builds a cart store. guestTTL applies to guest carts only.
func NewStore(kv jsonStore, guestTTL time.Duration) *Store {
	return &Store{kv: kv, guestTTL: guestTTL}
}

func (s *Store) Load(ctx context.Context, ownerID uuid.UUID) ([]types.CartItem, error) {
	var items []types.CartItem
	found, err := s.kv.GetJSON(ctx, s.kv.CartKey(ownerID.String()), &items)
	if err != nil {
		return nil, err
	}
	if !found || items == nil {
		return []types.CartItem{}, nil
	}
	valid := items[:0]
	for _, item := range items {
		if item.Product.ID == uuid.Nil || item.Quantity < 1 {
			continue
		}
		valid = append(valid, item)
	}
	return valid, nil
}

func (s *Store) Save(ctx context.Context, owner Owner, items []types.CartItem) error {
	if len(items) == 0 {
		return s.Clear(ctx, owner.ID)
	}
	var ttl time.Duration
	if owner.Guest {
		ttl = s.guestTTL
	}
	return s.kv.SetJSON(ctx, s.kv.CartKey(owner.ID.String()), items, ttl)
}

func (s *Store) Clear(ctx context.Context, ownerID uuid.UUID) error {
	return s.kv.Del(ctx, s.kv.CartKey(ownerID.String()))
}
