package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wbreport/internal/domain"
	"wbreport/internal/engine"
	"wbreport/pkg/logger"
	"wbreport/pkg/metrics"

	"github.com/google/uuid"
)

type ReportOptions struct {
	CreditFallback     engine.CreditFallback
	TaxRatePercent     float64
	PrevBufferMinLines int
	SKU                engine.SKUResolverConfig
}

type ReportService struct {
	client     domain.MarketplaceClient
	reports    domain.ReportRepository
	costPrices domain.CostPriceRepository
	exporter   domain.ExportClient
	logger     *logger.Logger
	metrics    *metrics.Metrics
	opts       ReportOptions

	now      func() time.Time
	resolver func(engine.CampaignLookup) *engine.SKUResolver
}

func NewReportService(
	client domain.MarketplaceClient,
	reports domain.ReportRepository,
	costPrices domain.CostPriceRepository,
	exporter domain.ExportClient,
	logger *logger.Logger,
	metrics *metrics.Metrics,
	opts ReportOptions,
) *ReportService {
	s := &ReportService{
		client:     client,
		reports:    reports,
		costPrices: costPrices,
		exporter:   exporter,
		logger:     logger,
		metrics:    metrics,
		opts:       opts,
		now:        time.Now,
	}
	s.resolver = func(lookup engine.CampaignLookup) *engine.SKUResolver {
		return engine.NewSKUResolver(lookup, s.opts.SKU, s.logger)
	}
	return s
}

// fetched holds every upstream dataset of one report. Realization and
// ledger cover the padded window.
type fetched struct {
	transactions []domain.TransactionRecord
	ledger       []domain.FinancialRecord
	storage      []domain.StorageRecord
	acceptance   []domain.AcceptanceRecord
	payments     []domain.AdvertisingPayment
	campaignIDs  []int64

	errs map[string]error
}

// GenerateReport runs the whole pipeline for one period: fetch,
// reconcile, resolve SKUs, aggregate and store.
func (s *ReportService) GenerateReport(ctx context.Context, req domain.ReportRequest) (*domain.Report, error) {
	if req.Token == "" {
		return nil, domain.ErrMissingToken
	}
	period, err := domain.ParsePeriod(req.DateFrom, req.DateTo)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	s.metrics.IncReportJobsInProgress()
	defer s.metrics.DecReportJobsInProgress()

	log := s.logger.WithContext(ctx).WithField("period", period.String())
	log.Info("Starting report generation")

	// Extract
	data := s.extract(ctx, req.Token, period)
	if err := data.errs["realization"]; err != nil {
		s.metrics.RecordReportJob("failed", "extract", time.Since(start))
		return nil, fmt.Errorf("failed to extract realization report: %w", err)
	}

	// Reconcile
	reconcileOpts := engine.ReconcileOptions{PrevBufferMinLines: s.opts.PrevBufferMinLines}
	transactions := engine.Reconcile(data.transactions, period, reconcileOpts)
	ledger := engine.Reconcile(data.ledger, period, reconcileOpts)
	s.recordReconciliation("realization", len(transactions.Outside), transactions.Dropped())
	s.recordReconciliation("advertising_ledger", len(ledger.Outside), ledger.Dropped())

	// Resolve
	resolution := s.resolveSKUs(ctx, req.Token, data.campaignIDs, ledger.Records)
	stampedLedger := engine.StampSKUs(ledger.Records, resolution.SKUs)

	// Aggregate
	prices, err := s.costPrices.All(ctx)
	if err != nil {
		s.metrics.RecordReportJob("failed", "cost_prices", time.Since(start))
		return nil, fmt.Errorf("failed to load cost prices: %w", err)
	}
	book := engine.NewCostPriceBook(prices)

	periods := engine.AggregatePeriods(engine.PeriodsInput{
		Transactions: transactions.Records,
		Ledger:       stampedLedger,
		CostPrices:   book,
	}, engine.PeriodsOptions{
		CreditFallback: s.opts.CreditFallback,
		TaxRatePercent: s.opts.TaxRatePercent,
	})

	products := engine.AggregateByProduct(engine.ProductInput{
		Transactions:               transactions.Records,
		AdvertisingSpendByCampaign: engine.AdvertisingSpendByCampaign(stampedLedger),
		CampaignSKUs:               resolution.SKUs,
		CostPrices:                 book,
	})

	diagnostics := domain.Diagnostics{
		CategoryCounts:        make(map[string]int, len(periods.Categories)),
		CreditFallbackUsed:    periods.CreditFallbackUsed,
		TransactionsDropped:   transactions.Dropped() + len(transactions.Outside),
		LedgerDropped:         ledger.Dropped() + len(ledger.Outside),
		CampaignsTotal:        resolution.Requested,
		CampaignsResolved:     len(resolution.SKUs),
		SKUCompleteness:       resolution.Completeness(),
		CostPriceCompleteness: engine.CostPriceCompleteness(products),
	}
	for category, count := range periods.Categories {
		diagnostics.CategoryCounts[category.String()] = count
		s.metrics.RecordClassified(category.String(), count)
	}
	if len(data.errs) > 0 {
		diagnostics.DatasetErrors = make(map[string]string, len(data.errs))
		for dataset, err := range data.errs {
			diagnostics.DatasetErrors[dataset] = err.Error()
		}
	}

	if periods.CreditFallbackUsed {
		s.metrics.RecordCreditFallback()
		log.WithFields(map[string]any{
			"credit_body":     s.opts.CreditFallback.Body,
			"credit_interest": s.opts.CreditFallback.Interest,
		}).Warn("No credit records in period, using fallback constants")
	}
	s.metrics.SetCompleteness(diagnostics.SKUCompleteness/100, diagnostics.CostPriceCompleteness/100)

	report := &domain.Report{
		ID:           uuid.New().String(),
		Period:       period,
		GeneratedAt:  s.now().UTC(),
		Transactions: transactions.Records,
		Storage:      data.storage,
		Acceptance:   data.acceptance,
		Campaigns:    resolution.Campaigns,
		Ledger:       stampedLedger,
		Payments:     data.payments,
		CostPrices:   prices,
		Periods:      periods.Metrics,
		Products:     products,
		Diagnostics:  diagnostics,
	}

	// Load
	if err := s.reports.Store(ctx, report); err != nil {
		s.metrics.RecordReportJob("failed", "store", time.Since(start))
		return nil, fmt.Errorf("failed to store report: %w", err)
	}

	duration := time.Since(start)
	s.metrics.RecordReportJob("success", "complete", duration)

	log.WithFields(map[string]any{
		"report_id":               report.ID,
		"duration":                duration,
		"transactions":            len(report.Transactions),
		"ledger":                  len(report.Ledger),
		"products":                len(report.Products),
		"sku_completeness":        diagnostics.SKUCompleteness,
		"cost_price_completeness": diagnostics.CostPriceCompleteness,
		"dataset_errors":          len(diagnostics.DatasetErrors),
	}).Info("Report generation completed successfully")

	return report, nil
}

// extract fetches the independent datasets concurrently. Only the
// realization report is mandatory; other failures end up in errs and the
// report is built without that dataset.
func (s *ReportService) extract(ctx context.Context, token string, period domain.Period) fetched {
	log := s.logger.WithContext(ctx)
	log.Info("Extracting data from Wildberries APIs")

	padded := period.Padded()
	data := fetched{errs: make(map[string]error)}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	run := func(dataset string, fetch func() (int, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			count, err := fetch()
			if err != nil {
				log.WithError(err).WithField("dataset", dataset).Error("Failed to fetch dataset")
				mu.Lock()
				data.errs[dataset] = err
				mu.Unlock()
				return
			}
			s.metrics.RecordFetched(dataset, count)
		}()
	}

	run("realization", func() (n int, err error) {
		data.transactions, err = s.client.FetchRealization(ctx, token, padded)
		return len(data.transactions), err
	})
	run("advertising_ledger", func() (n int, err error) {
		data.ledger, err = s.client.FetchAdvertisingLedger(ctx, token, padded)
		return len(data.ledger), err
	})
	run("storage", func() (n int, err error) {
		data.storage, err = s.client.FetchStorage(ctx, token, period)
		return len(data.storage), err
	})
	run("acceptance", func() (n int, err error) {
		data.acceptance, err = s.client.FetchAcceptance(ctx, token, period)
		return len(data.acceptance), err
	})
	run("advertising_payments", func() (n int, err error) {
		data.payments, err = s.client.FetchAdvertisingPayments(ctx, token, period)
		return len(data.payments), err
	})
	run("campaigns", func() (n int, err error) {
		data.campaignIDs, err = s.client.FetchCampaignIDs(ctx, token)
		return len(data.campaignIDs), err
	})

	wg.Wait()

	log.WithFields(map[string]any{
		"transactions": len(data.transactions),
		"ledger":       len(data.ledger),
		"storage":      len(data.storage),
		"acceptance":   len(data.acceptance),
		"payments":     len(data.payments),
		"campaigns":    len(data.campaignIDs),
		"failed":       len(data.errs),
	}).Info("Data extraction completed")

	return data
}

// resolveSKUs looks up every campaign of the cabinet plus any campaign
// that only appears in the ledger.
func (s *ReportService) resolveSKUs(ctx context.Context, token string, listed []int64, ledger []domain.FinancialRecord) engine.SKUResolution {
	ids := make([]int64, 0, len(listed)+len(ledger))
	ids = append(ids, listed...)
	for _, entry := range ledger {
		ids = append(ids, entry.CampaignID)
	}

	lookup := func(ctx context.Context, batch []int64) ([]domain.Campaign, error) {
		return s.client.FetchCampaigns(ctx, token, batch)
	}
	return s.resolver(lookup).Resolve(ctx, ids)
}

func (s *ReportService) recordReconciliation(dataset string, outside, dropped int) {
	s.metrics.RecordDropped(dataset, "outside_window", outside)
	s.metrics.RecordDropped(dataset, "buffer_reconciliation", dropped)
}

func (s *ReportService) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	return s.reports.Get(ctx, id)
}

func (s *ReportService) ListReports(ctx context.Context) ([]domain.ReportSummary, error) {
	return s.reports.List(ctx)
}

// ExportReport sends a stored report to the report writer.
func (s *ReportService) ExportReport(ctx context.Context, id string) error {
	report, err := s.reports.Get(ctx, id)
	if err != nil {
		return err
	}
	if s.exporter == nil {
		return domain.ErrSinkNotConfigured
	}

	start := time.Now()
	if err := s.exporter.Export(ctx, report); err != nil {
		s.metrics.RecordReportJob("failed", "export", time.Since(start))
		return fmt.Errorf("failed to export report %s: %w", id, err)
	}
	s.metrics.RecordReportJob("success", "export", time.Since(start))
	return nil
}
