package infrastructure

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wbreport/internal/domain"
	"wbreport/pkg/logger"
)

func TestReportRepositoryStoreAndGet(t *testing.T) {
	repo := NewReportRepository(10, logger.Discard())
	ctx := context.Background()

	report := &domain.Report{ID: "r1", GeneratedAt: time.Now()}
	require.NoError(t, repo.Store(ctx, report))

	got, err := repo.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Same(t, report, got)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrReportNotFound)

	assert.Error(t, repo.Store(ctx, &domain.Report{}))
}

func TestReportRepositoryEvictsOldest(t *testing.T) {
	repo := NewReportRepository(2, logger.Discard())
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		require.NoError(t, repo.Store(ctx, &domain.Report{
			ID:          fmt.Sprintf("r%d", i),
			GeneratedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	_, err := repo.Get(ctx, "r1")
	assert.ErrorIs(t, err, domain.ErrReportNotFound)

	summaries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "r3", summaries[0].ID)
	assert.Equal(t, "r2", summaries[1].ID)
}

func TestReportRepositoryReplaceKeepsSlot(t *testing.T) {
	repo := NewReportRepository(2, logger.Discard())
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, &domain.Report{ID: "a"}))
	require.NoError(t, repo.Store(ctx, &domain.Report{ID: "a"}))
	require.NoError(t, repo.Store(ctx, &domain.Report{ID: "b"}))

	summaries, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, summaries, 2)
}

func TestCostPriceRepositoryUpsert(t *testing.T) {
	repo := NewCostPriceRepository(logger.Discard())
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, []domain.CostPrice{
		{NMID: "2", Barcode: "b", Price: 20},
		{NMID: "1", Barcode: "a", Price: 10},
	}))
	require.NoError(t, repo.Upsert(ctx, []domain.CostPrice{
		{NMID: "1", Barcode: "a", Price: 11, VendorCode: "V-1"},
	}))

	prices, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, "1-a", prices[0].Key())
	assert.Equal(t, 11.0, prices[0].Price)
	assert.Equal(t, "V-1", prices[0].VendorCode)
	assert.Equal(t, "2-b", prices[1].Key())
}
