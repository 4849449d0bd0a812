package domain

import (
	"fmt"
	"time"
)

// Period is the caller's primary window, both ends inclusive.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ParsePeriod validates a pair of YYYY-MM-DD dates.
func ParsePeriod(from, to string) (Period, error) {
	start, err := time.Parse(DateLayout, from)
	if err != nil {
		return Period{}, fmt.Errorf("%w: date_from %q must be in YYYY-MM-DD format", ErrInvalidPeriod, from)
	}
	end, err := time.Parse(DateLayout, to)
	if err != nil {
		return Period{}, fmt.Errorf("%w: date_to %q must be in YYYY-MM-DD format", ErrInvalidPeriod, to)
	}
	if end.Before(start) {
		return Period{}, fmt.Errorf("%w: date_to %s is before date_from %s", ErrInvalidPeriod, to, from)
	}
	return Period{From: start, To: end}, nil
}

// Padded widens the window by one buffer day on each side.
func (p Period) Padded() Period {
	return Period{From: p.From.AddDate(0, 0, -1), To: p.To.AddDate(0, 0, 1)}
}

func (p Period) String() string {
	return p.From.Format(DateLayout) + ".." + p.To.Format(DateLayout)
}

// Split cuts the period into consecutive chunks of at most maxDays days,
// matching the span limits of the upstream report endpoints.
func (p Period) Split(maxDays int) []Period {
	if maxDays <= 0 {
		return []Period{p}
	}
	var chunks []Period
	for start := p.From; !start.After(p.To); start = start.AddDate(0, 0, maxDays) {
		end := start.AddDate(0, 0, maxDays-1)
		if end.After(p.To) {
			end = p.To
		}
		chunks = append(chunks, Period{From: start, To: end})
	}
	return chunks
}

type ReportRequest struct {
	Token    string
	DateFrom string
	DateTo   string
}

// StorageRecord is one line of the paid storage report.
type StorageRecord struct {
	Date           string `json:"date"`
	Warehouse      string `json:"warehouse"`
	NMID           Text   `json:"nmId"`
	VendorCode     string `json:"vendorCode"`
	Barcode        Text   `json:"barcode"`
	Subject        string `json:"subject"`
	Brand          string `json:"brand"`
	Volume         Number `json:"volume"`
	BarcodesCount  Number `json:"barcodesCount"`
	WarehousePrice Number `json:"warehousePrice"`
	CalcType       string `json:"calcType"`
}

// AcceptanceRecord is one line of the paid acceptance report.
type AcceptanceRecord struct {
	GICreateDate  string `json:"giCreateDate"`
	IncomeID      int64  `json:"incomeId"`
	NMID          Text   `json:"nmID"`
	SubjectName   string `json:"subjectName"`
	ShkCreateDate string `json:"shkCreateDate"`
	Count         Number `json:"count"`
	Total         Number `json:"total"`
}

// ProductCard is a catalog card (content/v2/get/cards/list).
type ProductCard struct {
	NMID        int64  `json:"nmID"`
	VendorCode  string `json:"vendorCode"`
	Brand       string `json:"brand"`
	Title       string `json:"title"`
	SubjectName string `json:"subjectName"`
	UpdatedAt   string `json:"updatedAt"`
	Sizes       []struct {
		ChrtID   int64    `json:"chrtID"`
		TechSize string   `json:"techSize"`
		SKUs     []string `json:"skus"`
	} `json:"sizes"`
}

// CostPrice is one entry of the locally maintained cost-price sheet.
type CostPrice struct {
	NMID       string  `json:"nm_id" binding:"required"`
	Barcode    string  `json:"barcode"`
	VendorCode string  `json:"vendor_code"`
	Title      string  `json:"title,omitempty"`
	Price      float64 `json:"price"`
}

func (c CostPrice) Key() string {
	return CostPriceKey(c.NMID, c.Barcode)
}

func CostPriceKey(nmID, barcode string) string {
	return nmID + "-" + barcode
}

// Diagnostics are the data-quality counters of one report. They never
// fail a report; they only describe how complete it is.
type Diagnostics struct {
	CategoryCounts        map[string]int    `json:"category_counts"`
	CreditFallbackUsed    bool              `json:"credit_fallback_used"`
	TransactionsDropped   int               `json:"transactions_dropped"`
	LedgerDropped         int               `json:"ledger_dropped"`
	CampaignsTotal        int               `json:"campaigns_total"`
	CampaignsResolved     int               `json:"campaigns_resolved"`
	SKUCompleteness       float64           `json:"sku_completeness"`
	CostPriceCompleteness float64           `json:"cost_price_completeness"`
	DatasetErrors         map[string]string `json:"dataset_errors,omitempty"`
}

// Report is everything the report writer needs, one sheet per slice.
type Report struct {
	ID          string    `json:"id"`
	Period      Period    `json:"period"`
	GeneratedAt time.Time `json:"generated_at"`

	Transactions []TransactionRecord   `json:"transactions"`
	Storage      []StorageRecord       `json:"storage"`
	Acceptance   []AcceptanceRecord    `json:"acceptance"`
	Campaigns    []Campaign            `json:"campaigns"`
	Ledger       []FinancialRecord     `json:"ledger"`
	Payments     []AdvertisingPayment  `json:"payments"`
	CostPrices   []CostPrice           `json:"cost_prices"`
	Periods      *MetricSet            `json:"periods"`
	Products     []ProductAnalyticsRow `json:"products"`
	Diagnostics  Diagnostics           `json:"diagnostics"`
}

// ReportSummary is the listing view of a stored report.
type ReportSummary struct {
	ID           string    `json:"id"`
	Period       Period    `json:"period"`
	GeneratedAt  time.Time `json:"generated_at"`
	Transactions int       `json:"transactions"`
	Products     int       `json:"products"`
}

func (r *Report) Summary() ReportSummary {
	return ReportSummary{
		ID:           r.ID,
		Period:       r.Period,
		GeneratedAt:  r.GeneratedAt,
		Transactions: len(r.Transactions),
		Products:     len(r.Products),
	}
}
