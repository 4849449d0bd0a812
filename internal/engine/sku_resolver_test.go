package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wbreport/internal/domain"
	"wbreport/pkg/logger"
)

type lookupStub struct {
	calls   [][]int64
	respond func(call int, ids []int64) ([]domain.Campaign, error)
}

func (s *lookupStub) lookup(_ context.Context, ids []int64) ([]domain.Campaign, error) {
	batch := append([]int64(nil), ids...)
	s.calls = append(s.calls, batch)
	return s.respond(len(s.calls), batch)
}

func autoCampaign(id int64, nm string) domain.Campaign {
	return domain.Campaign{
		CampaignID: id,
		Type:       domain.CampaignTypeAuto,
		AutoParams: &domain.AutoParams{NMs: []domain.Text{domain.Text(nm)}},
	}
}

func newTestResolver(stub *lookupStub, cfg SKUResolverConfig) (*SKUResolver, *[]time.Duration) {
	var waits []time.Duration
	r := NewSKUResolver(stub.lookup, cfg, logger.Discard())
	r.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return r, &waits
}

func TestCampaignSKU(t *testing.T) {
	tests := []struct {
		name     string
		campaign domain.Campaign
		want     string
		ok       bool
	}{
		{
			name:     "auto campaign",
			campaign: autoCampaign(1, "12345"),
			want:     "12345",
			ok:       true,
		},
		{
			name:     "search card without bids",
			campaign: domain.Campaign{CampaignID: 2, Type: domain.CampaignTypeSearchCard},
			ok:       false,
		},
		{
			name: "search card",
			campaign: domain.Campaign{
				CampaignID:       3,
				Type:             domain.CampaignTypeSearchCard,
				AuctionMultibids: []domain.AuctionBid{{NM: "777", Bid: 250}, {NM: "778", Bid: 300}},
			},
			want: "777",
			ok:   true,
		},
		{
			name: "united params",
			campaign: domain.Campaign{
				CampaignID:   4,
				Type:         6,
				UnitedParams: []domain.UnitedParams{{NMs: []domain.Text{"555", "556"}}},
			},
			want: "555",
			ok:   true,
		},
		{
			name:     "auto campaign without params",
			campaign: domain.Campaign{CampaignID: 5, Type: domain.CampaignTypeAuto},
			ok:       false,
		},
		{
			name: "auto params ignored for search card",
			campaign: domain.Campaign{
				CampaignID: 6,
				Type:       domain.CampaignTypeSearchCard,
				AutoParams: &domain.AutoParams{NMs: []domain.Text{"999"}},
			},
			ok: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sku, ok := CampaignSKU(tt.campaign)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, sku)
		})
	}
}

func TestResolveMapsCampaignsByType(t *testing.T) {
	stub := &lookupStub{respond: func(int, []int64) ([]domain.Campaign, error) {
		return []domain.Campaign{
			autoCampaign(10, "12345"),
			{CampaignID: 11, Type: domain.CampaignTypeSearchCard},
		}, nil
	}}
	resolver, _ := newTestResolver(stub, DefaultSKUResolverConfig())

	result := resolver.Resolve(context.Background(), []int64{10, 11})

	assert.Equal(t, map[int64]string{10: "12345"}, result.SKUs)
	assert.Len(t, result.Campaigns, 2)
	assert.Equal(t, 2, result.Requested)
	assert.InDelta(t, 50.0, result.Completeness(), 1e-9)
}

func TestResolveBatchesSequentially(t *testing.T) {
	stub := &lookupStub{respond: func(_ int, ids []int64) ([]domain.Campaign, error) {
		campaigns := make([]domain.Campaign, 0, len(ids))
		for _, id := range ids {
			campaigns = append(campaigns, autoCampaign(id, fmt.Sprint(id*10)))
		}
		return campaigns, nil
	}}
	cfg := DefaultSKUResolverConfig()
	resolver, waits := newTestResolver(stub, cfg)

	ids := make([]int64, 0, 121)
	for i := int64(1); i <= 120; i++ {
		ids = append(ids, i)
	}
	ids = append(ids, 5, 0, -3)

	result := resolver.Resolve(context.Background(), ids)

	require.Len(t, stub.calls, 3)
	assert.Len(t, stub.calls[0], 50)
	assert.Len(t, stub.calls[1], 50)
	assert.Len(t, stub.calls[2], 20)
	assert.Equal(t, []time.Duration{cfg.BatchDelay, cfg.BatchDelay}, *waits)
	assert.Len(t, result.SKUs, 120)
	assert.Equal(t, "1200", result.SKUs[120])
	assert.InDelta(t, 100.0, result.Completeness(), 1e-9)
}

func TestResolveRetriesRateLimitWithExponentialBackoff(t *testing.T) {
	stub := &lookupStub{respond: func(call int, ids []int64) ([]domain.Campaign, error) {
		if call <= 3 {
			return nil, fmt.Errorf("campaign details: %w", domain.ErrRateLimited)
		}
		return []domain.Campaign{autoCampaign(ids[0], "1")}, nil
	}}
	cfg := DefaultSKUResolverConfig()
	cfg.RateLimitBackoff = time.Second
	cfg.RateLimitCeiling = 3 * time.Second
	resolver, waits := newTestResolver(stub, cfg)

	result := resolver.Resolve(context.Background(), []int64{42})

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, *waits)
	assert.Equal(t, "1", result.SKUs[42])
	assert.Zero(t, result.SkippedBatches)
}

func TestResolveSkipsBatchAfterTransientFailures(t *testing.T) {
	stub := &lookupStub{respond: func(call int, ids []int64) ([]domain.Campaign, error) {
		if ids[0] == 1 {
			return nil, errors.New("connection reset")
		}
		return []domain.Campaign{autoCampaign(ids[0], "ok")}, nil
	}}
	cfg := DefaultSKUResolverConfig()
	cfg.BatchSize = 1
	cfg.MaxRetries = 2
	cfg.RetryBackoff = time.Second
	resolver, waits := newTestResolver(stub, cfg)

	result := resolver.Resolve(context.Background(), []int64{1, 2})

	assert.Len(t, stub.calls, 4)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, cfg.BatchDelay}, *waits)
	assert.Equal(t, 1, result.SkippedBatches)
	assert.Equal(t, map[int64]string{2: "ok"}, result.SKUs)
	assert.InDelta(t, 50.0, result.Completeness(), 1e-9)
}

func TestResolveGivesUpAfterRateLimitRetries(t *testing.T) {
	stub := &lookupStub{respond: func(int, []int64) ([]domain.Campaign, error) {
		return nil, domain.ErrRateLimited
	}}
	cfg := DefaultSKUResolverConfig()
	cfg.RateLimitRetries = 2
	resolver, _ := newTestResolver(stub, cfg)

	result := resolver.Resolve(context.Background(), []int64{7})

	assert.Len(t, stub.calls, 3)
	assert.Equal(t, 1, result.SkippedBatches)
	assert.Empty(t, result.SKUs)
	assert.Zero(t, result.Completeness())
}

func TestResolveStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stub := &lookupStub{respond: func(_ int, ids []int64) ([]domain.Campaign, error) {
		cancel()
		return []domain.Campaign{autoCampaign(ids[0], "first")}, nil
	}}
	cfg := DefaultSKUResolverConfig()
	cfg.BatchSize = 2
	resolver, _ := newTestResolver(stub, cfg)

	result := resolver.Resolve(ctx, []int64{1, 2, 3, 4, 5})

	assert.Len(t, stub.calls, 1)
	assert.Equal(t, 2, result.SkippedBatches)
	assert.Equal(t, map[int64]string{1: "first"}, result.SKUs)
}

func TestResolveWithNoCampaigns(t *testing.T) {
	stub := &lookupStub{respond: func(int, []int64) ([]domain.Campaign, error) {
		t.Fatal("lookup must not be called")
		return nil, nil
	}}
	resolver, _ := newTestResolver(stub, DefaultSKUResolverConfig())

	result := resolver.Resolve(context.Background(), nil)

	assert.Empty(t, result.SKUs)
	assert.InDelta(t, 100.0, result.Completeness(), 1e-9)
}

func TestExponentialBackoff(t *testing.T) {
	assert.Equal(t, 2*time.Second, exponentialBackoff(2*time.Second, 0, time.Minute))
	assert.Equal(t, 16*time.Second, exponentialBackoff(2*time.Second, 3, time.Minute))
	assert.Equal(t, time.Minute, exponentialBackoff(2*time.Second, 10, time.Minute))
	assert.Equal(t, 5*time.Second, exponentialBackoff(10*time.Second, 0, 5*time.Second))
}
