package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"wbreport/internal/domain"
	"wbreport/pkg/config"
	"wbreport/pkg/logger"
)

const (
	realizationPath     = "/api/v5/supplier/reportDetailByPeriod"
	storagePath         = "/api/v1/paid_storage"
	acceptancePath      = "/api/v1/acceptance_report"
	campaignCountPath   = "/adv/v1/promotion/count"
	campaignDetailsPath = "/adv/v1/promotion/adverts"
	ledgerPath          = "/adv/v1/upd"
	paymentsPath        = "/adv/v1/payments"
	cardsPath           = "/content/v2/get/cards/list"
)

// Span limits of the upstream endpoints, in days.
const (
	realizationMaxDays = 30
	storageMaxDays     = 8
	acceptanceMaxDays  = 31
	ledgerMaxDays      = 31
)

const (
	campaignBatchSize = 50
	cardsPageSize     = 100
)

// implements domain.MarketplaceClient
type WildberriesClient struct {
	http   *HTTPClient
	logger *logger.Logger

	statisticsURL string
	advertURL     string
	analyticsURL  string
	contentURL    string

	pollInterval time.Duration
	pollAttempts int
	pageSize     int
}

func NewWildberriesClient(cfg config.WildberriesConfig, httpClient *HTTPClient, logger *logger.Logger) *WildberriesClient {
	return &WildberriesClient{
		http:          httpClient,
		logger:        logger,
		statisticsURL: cfg.StatisticsURL,
		advertURL:     cfg.AdvertURL,
		analyticsURL:  cfg.AnalyticsURL,
		contentURL:    cfg.ContentURL,
		pollInterval:  cfg.TaskPollInterval,
		pollAttempts:  cfg.TaskPollAttempts,
		pageSize:      100000,
	}
}

// FetchRealization pages through reportDetailByPeriod by rrdid.
func (c *WildberriesClient) FetchRealization(ctx context.Context, token string, period domain.Period) ([]domain.TransactionRecord, error) {
	records, err := fetchChunks(ctx, period, realizationMaxDays, func(ctx context.Context, chunk domain.Period) ([]domain.TransactionRecord, error) {
		var (
			records []domain.TransactionRecord
			rrdID   int64
		)
		for {
			query := dateRange("dateFrom", "dateTo", chunk)
			query.Set("limit", strconv.Itoa(c.pageSize))
			query.Set("rrdid", strconv.FormatInt(rrdID, 10))

			var page []domain.TransactionRecord
			err := c.http.do(ctx, apiRequest{
				api:    "realization",
				method: http.MethodGet,
				url:    c.statisticsURL + realizationPath,
				query:  query,
				token:  token,
			}, &page)
			if err != nil {
				return nil, err
			}
			if len(page) == 0 {
				break
			}
			records = append(records, page...)

			next := page[len(page)-1].RRDID
			if len(page) < c.pageSize || next == rrdID {
				break
			}
			rrdID = next
		}
		return records, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch realization report: %w", err)
	}

	c.logFetched(ctx, "realization", period, len(records))
	return records, nil
}

func (c *WildberriesClient) FetchStorage(ctx context.Context, token string, period domain.Period) ([]domain.StorageRecord, error) {
	records, err := fetchChunks(ctx, period, storageMaxDays, func(ctx context.Context, chunk domain.Period) ([]domain.StorageRecord, error) {
		var records []domain.StorageRecord
		err := c.runTask(ctx, "storage", c.analyticsURL+storagePath, token, dateRange("dateFrom", "dateTo", chunk), &records)
		return records, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch storage report: %w", err)
	}

	c.logFetched(ctx, "storage", period, len(records))
	return records, nil
}

func (c *WildberriesClient) FetchAcceptance(ctx context.Context, token string, period domain.Period) ([]domain.AcceptanceRecord, error) {
	records, err := fetchChunks(ctx, period, acceptanceMaxDays, func(ctx context.Context, chunk domain.Period) ([]domain.AcceptanceRecord, error) {
		var records []domain.AcceptanceRecord
		err := c.runTask(ctx, "acceptance", c.analyticsURL+acceptancePath, token, dateRange("dateFrom", "dateTo", chunk), &records)
		return records, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch acceptance report: %w", err)
	}

	c.logFetched(ctx, "acceptance", period, len(records))
	return records, nil
}

func (c *WildberriesClient) FetchCampaignIDs(ctx context.Context, token string) ([]int64, error) {
	var list domain.CampaignList
	err := c.http.do(ctx, apiRequest{
		api:    "campaign_list",
		method: http.MethodGet,
		url:    c.advertURL + campaignCountPath,
		token:  token,
	}, &list)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch campaign list: %w", err)
	}
	return list.IDs(), nil
}

// FetchCampaigns loads campaign details at most 50 ids per call. A 429 is
// returned as domain.ErrRateLimited so callers can back off themselves.
func (c *WildberriesClient) FetchCampaigns(ctx context.Context, token string, ids []int64) ([]domain.Campaign, error) {
	var campaigns []domain.Campaign
	for start := 0; start < len(ids); start += campaignBatchSize {
		end := min(start+campaignBatchSize, len(ids))

		var batch []domain.Campaign
		err := c.http.do(ctx, apiRequest{
			api:              "campaign_details",
			method:           http.MethodPost,
			url:              c.advertURL + campaignDetailsPath,
			token:            token,
			body:             ids[start:end],
			surfaceRateLimit: true,
		}, &batch)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch campaign details: %w", err)
		}
		campaigns = append(campaigns, batch...)
	}
	return campaigns, nil
}

func (c *WildberriesClient) FetchAdvertisingLedger(ctx context.Context, token string, period domain.Period) ([]domain.FinancialRecord, error) {
	records, err := fetchChunks(ctx, period, ledgerMaxDays, func(ctx context.Context, chunk domain.Period) ([]domain.FinancialRecord, error) {
		var records []domain.FinancialRecord
		err := c.http.do(ctx, apiRequest{
			api:    "advertising_ledger",
			method: http.MethodGet,
			url:    c.advertURL + ledgerPath,
			query:  dateRange("from", "to", chunk),
			token:  token,
		}, &records)
		return records, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch advertising ledger: %w", err)
	}

	c.logFetched(ctx, "advertising_ledger", period, len(records))
	return records, nil
}

func (c *WildberriesClient) FetchAdvertisingPayments(ctx context.Context, token string, period domain.Period) ([]domain.AdvertisingPayment, error) {
	payments, err := fetchChunks(ctx, period, ledgerMaxDays, func(ctx context.Context, chunk domain.Period) ([]domain.AdvertisingPayment, error) {
		var payments []domain.AdvertisingPayment
		err := c.http.do(ctx, apiRequest{
			api:    "advertising_payments",
			method: http.MethodGet,
			url:    c.advertURL + paymentsPath,
			query:  dateRange("from", "to", chunk),
			token:  token,
		}, &payments)
		return payments, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch advertising payments: %w", err)
	}

	c.logFetched(ctx, "advertising_payments", period, len(payments))
	return payments, nil
}

type cardsCursor struct {
	Limit     int    `json:"limit"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	NMID      int64  `json:"nmID,omitempty"`
}

type cardsRequest struct {
	Settings struct {
		Cursor cardsCursor `json:"cursor"`
		Filter struct {
			WithPhoto int `json:"withPhoto"`
		} `json:"filter"`
	} `json:"settings"`
}

type cardsResponse struct {
	Cards  []domain.ProductCard `json:"cards"`
	Cursor struct {
		UpdatedAt string `json:"updatedAt"`
		NMID      int64  `json:"nmID"`
		Total     int    `json:"total"`
	} `json:"cursor"`
}

// FetchProductCards walks the whole catalog with the content API cursor.
func (c *WildberriesClient) FetchProductCards(ctx context.Context, token string) ([]domain.ProductCard, error) {
	var (
		cards []domain.ProductCard
		req   cardsRequest
	)
	req.Settings.Cursor.Limit = cardsPageSize
	req.Settings.Filter.WithPhoto = -1

	for {
		var page cardsResponse
		err := c.http.do(ctx, apiRequest{
			api:    "product_cards",
			method: http.MethodPost,
			url:    c.contentURL + cardsPath,
			token:  token,
			body:   req,
		}, &page)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch product cards: %w", err)
		}

		cards = append(cards, page.Cards...)
		if len(page.Cards) == 0 || page.Cursor.Total < cardsPageSize {
			break
		}
		req.Settings.Cursor.UpdatedAt = page.Cursor.UpdatedAt
		req.Settings.Cursor.NMID = page.Cursor.NMID
	}

	c.logger.WithContext(ctx).WithField("cards", len(cards)).Info("Successfully fetched product cards")
	return cards, nil
}

type taskCreated struct {
	Data struct {
		TaskID string `json:"taskId"`
	} `json:"data"`
}

type taskStatus struct {
	Data struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"data"`
}

// runTask drives the create/poll/download cycle of the asynchronous
// analytics reports.
func (c *WildberriesClient) runTask(ctx context.Context, api, base, token string, query url.Values, out any) error {
	var created taskCreated
	err := c.http.do(ctx, apiRequest{
		api:    api,
		method: http.MethodGet,
		url:    base,
		query:  query,
		token:  token,
	}, &created)
	if err != nil {
		return err
	}
	if created.Data.TaskID == "" {
		return fmt.Errorf("%w: %s returned no task id", domain.ErrUpstreamStatus, api)
	}

	taskURL := base + "/tasks/" + url.PathEscape(created.Data.TaskID)
	for attempt := 1; ; attempt++ {
		var status taskStatus
		err := c.http.do(ctx, apiRequest{
			api:    api + "_status",
			method: http.MethodGet,
			url:    taskURL + "/status",
			token:  token,
		}, &status)
		if err != nil {
			return err
		}

		switch status.Data.Status {
		case "done":
			return c.http.do(ctx, apiRequest{
				api:    api + "_download",
				method: http.MethodGet,
				url:    taskURL + "/download",
				token:  token,
			}, out)
		case "canceled", "purged", "error":
			return fmt.Errorf("%w: %s task %s finished with status %q", domain.ErrUpstreamStatus, api, created.Data.TaskID, status.Data.Status)
		}

		if attempt >= c.pollAttempts {
			return fmt.Errorf("%s task %s not ready after %d polls", api, created.Data.TaskID, attempt)
		}
		if err := c.http.sleep(ctx, c.pollInterval); err != nil {
			return err
		}
	}
}

func (c *WildberriesClient) logFetched(ctx context.Context, dataset string, period domain.Period, count int) {
	c.logger.WithContext(ctx).WithFields(map[string]any{
		"dataset": dataset,
		"period":  period.String(),
		"records": count,
	}).Info("Successfully fetched dataset")
}

// fetchChunks splits period into spans the endpoint accepts and
// concatenates the results in order.
func fetchChunks[T any](ctx context.Context, period domain.Period, maxDays int, fetch func(context.Context, domain.Period) ([]T, error)) ([]T, error) {
	var all []T
	for _, chunk := range period.Split(maxDays) {
		items, err := fetch(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("period %s: %w", chunk, err)
		}
		all = append(all, items...)
	}
	return all, nil
}

func dateRange(fromKey, toKey string, period domain.Period) url.Values {
	return url.Values{
		fromKey: {period.From.Format(domain.DateLayout)},
		toKey:   {period.To.Format(domain.DateLayout)},
	}
}
