package delivery

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"wbreport/internal/domain"
	"wbreport/pkg/logger"

	"github.com/gin-gonic/gin"
)

const serviceVersion = "1.0.0"

type ReportService interface {
	GenerateReport(ctx context.Context, req domain.ReportRequest) (*domain.Report, error)
	GetReport(ctx context.Context, id string) (*domain.Report, error)
	ListReports(ctx context.Context) ([]domain.ReportSummary, error)
	ExportReport(ctx context.Context, id string) error
}

type CostPriceService interface {
	Upsert(ctx context.Context, prices []domain.CostPrice) error
	List(ctx context.Context) ([]domain.CostPrice, error)
	Template(ctx context.Context, token string) ([]domain.CostPrice, error)
}

// handles HTTP requests
type HTTPHandlers struct {
	reports    ReportService
	costPrices CostPriceService
	logger     *logger.Logger
}

// creates new HTTP handlers
func NewHTTPHandlers(reports ReportService, costPrices CostPriceService, logger *logger.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		reports:    reports,
		costPrices: costPrices,
		logger:     logger,
	}
}

type generateReportRequest struct {
	DateFrom string `json:"date_from" binding:"required"`
	DateTo   string `json:"date_to" binding:"required"`
}

// GenerateReport builds a report for the requested period with the caller's
// API token.
func (h *HTTPHandlers) GenerateReport(c *gin.Context) {
	var body generateReportRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "Invalid request body", err)
		return
	}

	report, err := h.reports.GenerateReport(c.Request.Context(), domain.ReportRequest{
		Token:    apiToken(c),
		DateFrom: body.DateFrom,
		DateTo:   body.DateTo,
	})
	if err != nil {
		h.fail(c, "Report generation failed", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"report":      report.Summary(),
		"diagnostics": report.Diagnostics,
		"request_id":  c.GetString("request_id"),
	})
}

func (h *HTTPHandlers) ListReports(c *gin.Context) {
	summaries, err := h.reports.ListReports(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to list reports", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       summaries,
		"total":      len(summaries),
		"request_id": c.GetString("request_id"),
	})
}

func (h *HTTPHandlers) GetReport(c *gin.Context) {
	report, ok := h.loadReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetReportPeriods returns the by-periods summary in sheet order.
func (h *HTTPHandlers) GetReportPeriods(c *gin.Context) {
	report, ok := h.loadReport(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report_id":  report.ID,
		"period":     report.Period,
		"metrics":    report.Periods,
		"request_id": c.GetString("request_id"),
	})
}

func (h *HTTPHandlers) GetReportProducts(c *gin.Context) {
	report, ok := h.loadReport(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report_id":  report.ID,
		"period":     report.Period,
		"data":       report.Products,
		"total":      len(report.Products),
		"request_id": c.GetString("request_id"),
	})
}

// ExportReport sends a stored report to the report writer.
func (h *HTTPHandlers) ExportReport(c *gin.Context) {
	id := c.Param("id")
	if err := h.reports.ExportReport(c.Request.Context(), id); err != nil {
		h.fail(c, "Report export failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Report exported successfully",
		"report_id":  id,
		"request_id": c.GetString("request_id"),
	})
}

func (h *HTTPHandlers) ListCostPrices(c *gin.Context) {
	prices, err := h.costPrices.List(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to list cost prices", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       prices,
		"total":      len(prices),
		"request_id": c.GetString("request_id"),
	})
}

// UpsertCostPrices accepts a JSON array of cost prices.
func (h *HTTPHandlers) UpsertCostPrices(c *gin.Context) {
	var prices []domain.CostPrice
	if err := c.ShouldBindJSON(&prices); err != nil {
		h.badRequest(c, "Invalid request body", err)
		return
	}

	if err := h.costPrices.Upsert(c.Request.Context(), prices); err != nil {
		h.fail(c, "Failed to store cost prices", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Cost prices stored successfully",
		"count":      len(prices),
		"request_id": c.GetString("request_id"),
	})
}

// CostPriceTemplate lists every catalog barcode with its known cost price.
func (h *HTTPHandlers) CostPriceTemplate(c *gin.Context) {
	rows, err := h.costPrices.Template(c.Request.Context(), apiToken(c))
	if err != nil {
		h.fail(c, "Failed to build cost price template", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       rows,
		"total":      len(rows),
		"request_id": c.GetString("request_id"),
	})
}

// GetAPIInfo returns API v1 information and available endpoints
func (h *HTTPHandlers) GetAPIInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"api_version": "v1",
		"service":     "Wildberries report service",
		"version":     serviceVersion,
		"description": "Builds financial reports of a Wildberries seller account",
		"endpoints": gin.H{
			"reports": gin.H{
				"description": "Generate and read seller reports",
				"methods":     []string{"GET", "POST"},
				"endpoints": gin.H{
					"generate": gin.H{
						"path":        "/api/v1/reports",
						"method":      "POST",
						"description": "Build a report for a period with the token from the Authorization header",
						"body": gin.H{
							"date_from": "Required: Start date (YYYY-MM-DD)",
							"date_to":   "Required: End date (YYYY-MM-DD)",
						},
					},
					"list":     gin.H{"path": "/api/v1/reports", "method": "GET"},
					"get":      gin.H{"path": "/api/v1/reports/:id", "method": "GET"},
					"periods":  gin.H{"path": "/api/v1/reports/:id/periods", "method": "GET"},
					"products": gin.H{"path": "/api/v1/reports/:id/products", "method": "GET"},
					"export":   gin.H{"path": "/api/v1/reports/:id/export", "method": "POST"},
				},
			},
			"cost_prices": gin.H{
				"description": "Maintain the cost-price sheet",
				"methods":     []string{"GET", "PUT"},
				"endpoints": gin.H{
					"list":     gin.H{"path": "/api/v1/cost-prices", "method": "GET"},
					"upsert":   gin.H{"path": "/api/v1/cost-prices", "method": "PUT"},
					"template": gin.H{"path": "/api/v1/cost-prices/template", "method": "GET"},
				},
			},
		},
		"request_id": c.GetString("request_id"),
	})
}

// HealthCheck returns the health status of the service
func (h *HTTPHandlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"service":    "wbreport",
		"version":    serviceVersion,
		"request_id": c.GetString("request_id"),
	})
}

func (h *HTTPHandlers) loadReport(c *gin.Context) (*domain.Report, bool) {
	report, err := h.reports.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to load report", err)
		return nil, false
	}
	return report, true
}

func (h *HTTPHandlers) badRequest(c *gin.Context, message string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":      message,
		"message":    err.Error(),
		"request_id": c.GetString("request_id"),
	})
}

func (h *HTTPHandlers) fail(c *gin.Context, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithContext(c.Request.Context()).WithError(err).Error(message)
	}

	c.JSON(status, gin.H{
		"error":      message,
		"message":    err.Error(),
		"request_id": c.GetString("request_id"),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidPeriod), errors.Is(err, domain.ErrInvalidCostPrice):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMissingToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrReportNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrSinkNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrUpstreamStatus):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// apiToken reads the seller's API token. Both the raw token and the
// "Bearer <token>" form are accepted.
func apiToken(c *gin.Context) string {
	token := strings.TrimSpace(c.GetHeader("Authorization"))
	return strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
}
