package infrastructure

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"wbreport/internal/domain"
	"wbreport/pkg/logger"
)

// implements domain.ExportClient. The sink is the report writer that turns
// a report into spreadsheet sheets.
type SinkClient struct {
	http   *HTTPClient
	url    string
	secret string
	logger *logger.Logger
}

func NewSinkClient(httpClient *HTTPClient, sinkURL, sinkSecret string, logger *logger.Logger) *SinkClient {
	return &SinkClient{
		http:   httpClient,
		url:    sinkURL,
		secret: sinkSecret,
		logger: logger,
	}
}

func (c *SinkClient) Export(ctx context.Context, report *domain.Report) error {
	if c.url == "" {
		return domain.ErrSinkNotConfigured
	}

	start := time.Now()

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	header := map[string]string{"X-Report-ID": report.ID}
	// Add HMAC signature if secret is provided
	if c.secret != "" {
		header["X-Signature"] = SignPayload(c.secret, payload)
	}

	err = c.http.do(ctx, apiRequest{
		api:     "sink",
		method:  http.MethodPost,
		url:     c.url,
		payload: payload,
		header:  header,
	}, nil)
	if err != nil {
		return err
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"url":          c.url,
		"duration":     time.Since(start),
		"report_id":    report.ID,
		"period":       report.Period.String(),
		"transactions": len(report.Transactions),
		"products":     len(report.Products),
	}).Info("Successfully exported report")

	return nil
}

// SignPayload is the hex HMAC-SHA256 of payload, sent as X-Signature.
func SignPayload(secret string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
