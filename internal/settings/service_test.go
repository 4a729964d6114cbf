package settings

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himalayan-naturals/storefront-backend/pkg/db/dbtest"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
)

func newSettingsService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(
		NewRepository(dbtest.Open(t)),
		decimal.NewFromInt(200),
		logger.New(logger.Options{ServiceName: "settings-test", Output: io.Discard}),
	)
	require.NoError(t, err)
	return svc
}

func TestGetWithoutRowUsesFallback(t *testing.T) {
	svc := newSettingsService(t)

	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, got.ReferralBonusAmount.Equal(decimal.NewFromInt(200)))
	assert.True(t, svc.ReferralBonus(context.Background()).Equal(decimal.NewFromInt(200)))
}

func TestUpdateUpsertsSingleRow(t *testing.T) {
	svc := newSettingsService(t)
	ctx := context.Background()
	title := "Himalayan Naturals"
	bonus := decimal.NewFromInt(350)

	_, err := svc.Update(ctx, UpdateInput{SEOTitle: &title})
	require.NoError(t, err)
	got, err := svc.Update(ctx, UpdateInput{ReferralBonusAmount: &bonus})
	require.NoError(t, err)

	require.NotNil(t, got.SEOTitle)
	assert.Equal(t, title, *got.SEOTitle)
	assert.True(t, svc.ReferralBonus(ctx).Equal(bonus))
}

func TestUpdateRejectsNonPositiveBonus(t *testing.T) {
	svc := newSettingsService(t)
	zero := decimal.Zero

	_, err := svc.Update(context.Background(), UpdateInput{ReferralBonusAmount: &zero})
	require.Error(t, err)
}
