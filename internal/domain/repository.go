package domain

import (
	"context"
)

// interface for generated reports
type ReportRepository interface {
	Store(ctx context.Context, report *Report) error
	Get(ctx context.Context, id string) (*Report, error)
	List(ctx context.Context) ([]ReportSummary, error)
}

// the interface for the locally maintained cost prices
type CostPriceRepository interface {
	Upsert(ctx context.Context, prices []CostPrice) error
	All(ctx context.Context) ([]CostPrice, error)
}

// interface for the Wildberries seller APIs. Every call carries the
// seller's API token.
type MarketplaceClient interface {
	FetchRealization(ctx context.Context, token string, period Period) ([]TransactionRecord, error)
	FetchStorage(ctx context.Context, token string, period Period) ([]StorageRecord, error)
	FetchAcceptance(ctx context.Context, token string, period Period) ([]AcceptanceRecord, error)
	FetchCampaignIDs(ctx context.Context, token string) ([]int64, error)
	FetchCampaigns(ctx context.Context, token string, ids []int64) ([]Campaign, error)
	FetchAdvertisingLedger(ctx context.Context, token string, period Period) ([]FinancialRecord, error)
	FetchAdvertisingPayments(ctx context.Context, token string, period Period) ([]AdvertisingPayment, error)
	FetchProductCards(ctx context.Context, token string) ([]ProductCard, error)
}

// interface for handing finished reports to the report writer
type ExportClient interface {
	Export(ctx context.Context, report *Report) error
}
