package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"wbreport/internal/domain"
	"wbreport/pkg/logger"
)

type CostPriceService struct {
	repo   domain.CostPriceRepository
	client domain.MarketplaceClient
	logger *logger.Logger
}

func NewCostPriceService(repo domain.CostPriceRepository, client domain.MarketplaceClient, logger *logger.Logger) *CostPriceService {
	return &CostPriceService{
		repo:   repo,
		client: client,
		logger: logger,
	}
}

// Upsert validates and stores cost prices. The whole batch is rejected
// when one entry is invalid.
func (s *CostPriceService) Upsert(ctx context.Context, prices []domain.CostPrice) error {
	cleaned := make([]domain.CostPrice, 0, len(prices))
	for i, price := range prices {
		price.NMID = strings.TrimSpace(price.NMID)
		price.Barcode = strings.TrimSpace(price.Barcode)
		price.VendorCode = strings.TrimSpace(price.VendorCode)

		if price.NMID == "" {
			return fmt.Errorf("%w: entry %d has no nm_id", domain.ErrInvalidCostPrice, i)
		}
		if price.Price < 0 {
			return fmt.Errorf("%w: entry %d (%s) has negative price", domain.ErrInvalidCostPrice, i, price.Key())
		}
		cleaned = append(cleaned, price)
	}

	if err := s.repo.Upsert(ctx, cleaned); err != nil {
		return fmt.Errorf("failed to store cost prices: %w", err)
	}
	return nil
}

func (s *CostPriceService) List(ctx context.Context) ([]domain.CostPrice, error) {
	return s.repo.All(ctx)
}

// Template lists one row per catalog barcode with the currently known
// cost price filled in, ready to be completed by the seller.
func (s *CostPriceService) Template(ctx context.Context, token string) ([]domain.CostPrice, error) {
	if token == "" {
		return nil, domain.ErrMissingToken
	}

	cards, err := s.client.FetchProductCards(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product cards: %w", err)
	}

	known, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cost prices: %w", err)
	}
	byKey := make(map[string]float64, len(known))
	for _, price := range known {
		byKey[price.Key()] = price.Price
	}

	var rows []domain.CostPrice
	for _, card := range cards {
		nmID := strconv.FormatInt(card.NMID, 10)
		for _, size := range card.Sizes {
			for _, barcode := range size.SKUs {
				row := domain.CostPrice{
					NMID:       nmID,
					Barcode:    barcode,
					VendorCode: card.VendorCode,
					Title:      card.Title,
				}
				row.Price = byKey[row.Key()]
				rows = append(rows, row)
			}
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Key() < rows[j].Key()
	})

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"cards": len(cards),
		"rows":  len(rows),
	}).Info("Built cost price template")

	return rows, nil
}
