package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Report metrics
	ReportJobsTotal       *prometheus.CounterVec
	ReportJobDuration     *prometheus.HistogramVec
	ReportJobsInProgress  prometheus.Gauge
	ReportRecordsFetched  *prometheus.CounterVec
	ReportRecordsDropped  *prometheus.CounterVec
	RecordsClassified     *prometheus.CounterVec
	CreditFallbacks       prometheus.Counter
	SKUResolutionRatio    prometheus.Gauge
	CostPriceResolveRatio prometheus.Gauge

	// External API metrics
	ExternalAPICalls    *prometheus.CounterVec
	ExternalAPIDuration *prometheus.HistogramVec
	ExternalAPIFailures *prometheus.CounterVec
}

// New registers the collectors on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		ReportJobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "report_jobs_total",
				Help: "Total number of report generations",
			},
			[]string{"status", "stage"},
		),

		ReportJobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "report_job_duration_seconds",
				Help:    "Report generation duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"stage"},
		),

		ReportJobsInProgress: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "report_jobs_in_progress",
				Help: "Number of reports currently being generated",
			},
		),

		ReportRecordsFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "report_records_fetched_total",
				Help: "Total number of upstream records fetched per dataset",
			},
			[]string{"dataset"},
		),

		ReportRecordsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "report_records_dropped_total",
				Help: "Records removed by buffer-day reconciliation",
			},
			[]string{"dataset", "reason"},
		),

		RecordsClassified: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "report_records_classified_total",
				Help: "Realization records per classifier category",
			},
			[]string{"category"},
		),

		CreditFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "report_credit_fallback_total",
				Help: "Reports where credit metrics used the configured fallback constants",
			},
		),

		SKUResolutionRatio: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "report_sku_resolution_ratio",
				Help: "Share of advertising campaigns resolved to a SKU in the last report",
			},
		),

		CostPriceResolveRatio: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "report_cost_price_resolution_ratio",
				Help: "Share of product rows with a known cost price in the last report",
			},
		),

		ExternalAPICalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "external_api_calls_total",
				Help: "Total number of external API calls",
			},
			[]string{"api", "status"},
		),

		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "external_api_duration_seconds",
				Help:    "External API call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"api"},
		),

		ExternalAPIFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "external_api_failures_total",
				Help: "Total number of external API failures",
			},
			[]string{"api", "error_type"},
		),
	}
}

// HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// Report job metrics
func (m *Metrics) RecordReportJob(status, stage string, duration time.Duration) {
	m.ReportJobsTotal.WithLabelValues(status, stage).Inc()
	m.ReportJobDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

func (m *Metrics) RecordFetched(dataset string, count int) {
	m.ReportRecordsFetched.WithLabelValues(dataset).Add(float64(count))
}

func (m *Metrics) RecordDropped(dataset, reason string, count int) {
	m.ReportRecordsDropped.WithLabelValues(dataset, reason).Add(float64(count))
}

func (m *Metrics) RecordClassified(category string, count int) {
	m.RecordsClassified.WithLabelValues(category).Add(float64(count))
}

func (m *Metrics) RecordCreditFallback() {
	m.CreditFallbacks.Inc()
}

// Completeness ratios, 0..1
func (m *Metrics) SetCompleteness(skuRatio, costPriceRatio float64) {
	m.SKUResolutionRatio.Set(skuRatio)
	m.CostPriceResolveRatio.Set(costPriceRatio)
}

// External API call metrics
func (m *Metrics) RecordExternalAPICall(api, status string, duration time.Duration) {
	m.ExternalAPICalls.WithLabelValues(api, status).Inc()
	m.ExternalAPIDuration.WithLabelValues(api).Observe(duration.Seconds())
}

// External API failure metrics
func (m *Metrics) RecordExternalAPIFailure(api, errorType string) {
	m.ExternalAPIFailures.WithLabelValues(api, errorType).Inc()
}

func (m *Metrics) IncReportJobsInProgress() {
	m.ReportJobsInProgress.Inc()
}

func (m *Metrics) DecReportJobsInProgress() {
	m.ReportJobsInProgress.Dec()
}

// HTTP requests in flight counter
func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// HTTP requests in flight counter
func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}
