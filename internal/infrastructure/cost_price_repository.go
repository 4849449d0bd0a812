package infrastructure

import (
	"context"
	"sort"
	"sync"

	"wbreport/internal/domain"
	"wbreport/pkg/logger"
)

// implements domain.CostPriceRepository interface, keyed "{nmId}-{barcode}"
type CostPriceRepository struct {
	data   map[string]domain.CostPrice
	mutex  sync.RWMutex
	logger *logger.Logger
}

func NewCostPriceRepository(logger *logger.Logger) *CostPriceRepository {
	return &CostPriceRepository{
		data:   make(map[string]domain.CostPrice),
		logger: logger,
	}
}

// Upsert replaces entries with the same key and keeps the rest.
func (r *CostPriceRepository) Upsert(ctx context.Context, prices []domain.CostPrice) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, price := range prices {
		r.data[price.Key()] = price
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"count": len(prices),
		"total": len(r.data),
	}).Info("Stored cost prices in memory")
	return nil
}

// All returns every entry ordered by key.
func (r *CostPriceRepository) All(ctx context.Context) ([]domain.CostPrice, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	prices := make([]domain.CostPrice, 0, len(r.data))
	for _, price := range r.data {
		prices = append(prices, price)
	}
	sort.Slice(prices, func(i, j int) bool {
		return prices[i].Key() < prices[j].Key()
	})
	return prices, nil
}
