package usecase

import (
	"context"
	"sync"

	"wbreport/internal/domain"
)

type fakeMarketplace struct {
	mu sync.Mutex

	transactions []domain.TransactionRecord
	ledger       []domain.FinancialRecord
	storage      []domain.StorageRecord
	acceptance   []domain.AcceptanceRecord
	payments     []domain.AdvertisingPayment
	campaignIDs  []int64
	campaigns    map[int64]domain.Campaign
	cards        []domain.ProductCard
	errs         map[string]error

	periods       map[string]domain.Period
	campaignCalls [][]int64
	tokens        []string
}

func (f *fakeMarketplace) record(dataset, token string, period domain.Period) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.periods == nil {
		f.periods = make(map[string]domain.Period)
	}
	f.periods[dataset] = period
	f.tokens = append(f.tokens, token)
	return f.errs[dataset]
}

func (f *fakeMarketplace) FetchRealization(_ context.Context, token string, period domain.Period) ([]domain.TransactionRecord, error) {
	if err := f.record("realization", token, period); err != nil {
		return nil, err
	}
	return f.transactions, nil
}

func (f *fakeMarketplace) FetchStorage(_ context.Context, token string, period domain.Period) ([]domain.StorageRecord, error) {
	if err := f.record("storage", token, period); err != nil {
		return nil, err
	}
	return f.storage, nil
}

func (f *fakeMarketplace) FetchAcceptance(_ context.Context, token string, period domain.Period) ([]domain.AcceptanceRecord, error) {
	if err := f.record("acceptance", token, period); err != nil {
		return nil, err
	}
	return f.acceptance, nil
}

func (f *fakeMarketplace) FetchCampaignIDs(_ context.Context, token string) ([]int64, error) {
	if err := f.record("campaigns", token, domain.Period{}); err != nil {
		return nil, err
	}
	return f.campaignIDs, nil
}

func (f *fakeMarketplace) FetchCampaigns(_ context.Context, _ string, ids []int64) ([]domain.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.campaignCalls = append(f.campaignCalls, append([]int64(nil), ids...))
	if err := f.errs["campaign_details"]; err != nil {
		return nil, err
	}

	var out []domain.Campaign
	for _, id := range ids {
		if c, ok := f.campaigns[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeMarketplace) FetchAdvertisingLedger(_ context.Context, token string, period domain.Period) ([]domain.FinancialRecord, error) {
	if err := f.record("advertising_ledger", token, period); err != nil {
		return nil, err
	}
	return f.ledger, nil
}

func (f *fakeMarketplace) FetchAdvertisingPayments(_ context.Context, token string, period domain.Period) ([]domain.AdvertisingPayment, error) {
	if err := f.record("advertising_payments", token, period); err != nil {
		return nil, err
	}
	return f.payments, nil
}

func (f *fakeMarketplace) FetchProductCards(_ context.Context, token string) ([]domain.ProductCard, error) {
	if err := f.record("product_cards", token, domain.Period{}); err != nil {
		return nil, err
	}
	return f.cards, nil
}

type fakeExporter struct {
	exported []string
	err      error
}

func (f *fakeExporter) Export(_ context.Context, report *domain.Report) error {
	if f.err != nil {
		return f.err
	}
	f.exported = append(f.exported, report.ID)
	return nil
}
