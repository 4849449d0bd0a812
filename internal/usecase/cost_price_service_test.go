package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wbreport/internal/domain"
	"wbreport/internal/infrastructure"
	"wbreport/pkg/logger"
)

func newCostPriceFixture(market *fakeMarketplace) (*CostPriceService, *infrastructure.CostPriceRepository) {
	repo := infrastructure.NewCostPriceRepository(logger.Discard())
	return NewCostPriceService(repo, market, logger.Discard()), repo
}

func TestCostPriceUpsertTrimsAndStores(t *testing.T) {
	service, _ := newCostPriceFixture(&fakeMarketplace{})
	ctx := context.Background()

	err := service.Upsert(ctx, []domain.CostPrice{
		{NMID: " 100 ", Barcode: "b1 ", Price: 200},
		{NMID: "200", Price: 0},
	})
	require.NoError(t, err)

	prices, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, "100-b1", prices[0].Key())
	assert.Equal(t, 200.0, prices[0].Price)
	assert.Equal(t, "200", prices[1].NMID)
}

func TestCostPriceUpsertRejectsWholeBatch(t *testing.T) {
	tests := []struct {
		name   string
		prices []domain.CostPrice
	}{
		{
			name:   "missing nm id",
			prices: []domain.CostPrice{{NMID: "100", Price: 1}, {NMID: "  ", Price: 2}},
		},
		{
			name:   "negative price",
			prices: []domain.CostPrice{{NMID: "100", Price: 1}, {NMID: "200", Price: -5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newCostPriceFixture(&fakeMarketplace{})
			ctx := context.Background()

			err := service.Upsert(ctx, tt.prices)
			assert.ErrorIs(t, err, domain.ErrInvalidCostPrice)

			prices, listErr := service.List(ctx)
			require.NoError(t, listErr)
			assert.Empty(t, prices)
		})
	}
}

func TestCostPriceTemplate(t *testing.T) {
	var cards []domain.ProductCard
	require.NoError(t, json.Unmarshal([]byte(`[
		{"nmID": 200, "vendorCode": "XYZ", "title": "Кружка", "sizes": [{"skus": ["c1"]}]},
		{"nmID": 100, "vendorCode": "ABC-1", "title": "Футболка", "sizes": [{"skus": ["b2", "b1"]}, {"skus": []}]}
	]`), &cards))

	market := &fakeMarketplace{cards: cards}
	service, repo := newCostPriceFixture(market)
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, []domain.CostPrice{{NMID: "100", Barcode: "b1", Price: 350}}))

	rows, err := service.Template(ctx, "token")
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "100-b1", rows[0].Key())
	assert.Equal(t, 350.0, rows[0].Price)
	assert.Equal(t, "ABC-1", rows[0].VendorCode)
	assert.Equal(t, "Футболка", rows[0].Title)
	assert.Equal(t, "100-b2", rows[1].Key())
	assert.Zero(t, rows[1].Price)
	assert.Equal(t, "200-c1", rows[2].Key())
	assert.Equal(t, []string{"token"}, market.tokens)
}

func TestCostPriceTemplateErrors(t *testing.T) {
	service, _ := newCostPriceFixture(&fakeMarketplace{})
	_, err := service.Template(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrMissingToken)

	upstream := errors.New("content API down")
	service, _ = newCostPriceFixture(&fakeMarketplace{errs: map[string]error{"product_cards": upstream}})
	_, err = service.Template(context.Background(), "token")
	assert.ErrorIs(t, err, upstream)
}
