package router

import (
	"context"

	"github.com/himalayan-naturals/storefront-backend/internal/analytics/types"
)

type fakeWriter struct {
	orders  []types.OrderEventRow
	wallets []types.WalletEventRow
}

func (f *fakeWriter) InsertOrderEvent(_ context.Context, row types.OrderEventRow) error {
	f.orders = append(f.orders, row)
	return nil
}

func (f *fakeWriter) InsertWalletEvent(_ context.Context, row types.WalletEventRow) error {
	f.wallets = append(f.wallets, row)
	return nil
}
