package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"wbreport/internal/domain"
	"wbreport/pkg/config"
	"wbreport/pkg/logger"
	"wbreport/pkg/metrics"

	"golang.org/x/time/rate"
)

// HTTPClient is the shared transport of the upstream clients: rate
// limiting, retries, metrics and JSON decoding.
type HTTPClient struct {
	client       *http.Client
	logger       *logger.Logger
	metrics      *metrics.Metrics
	rateLimiter  *rate.Limiter
	maxRetries   int
	retryBackoff time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
}

// creates a new HTTP client
func NewHTTPClient(cfg config.WildberriesConfig, logger *logger.Logger, metrics *metrics.Metrics) *HTTPClient {
	perSecond := cfg.RateLimitPerSecond
	if perSecond <= 0 {
		perSecond = 1
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.HTTPTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger:       logger,
		metrics:      metrics,
		rateLimiter:  rate.NewLimiter(rate.Limit(perSecond), perSecond),
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		sleep:        sleepContext,
	}
}

type apiRequest struct {
	api    string // metrics label
	method string
	url    string
	query  url.Values
	token  string
	body   any
	header map[string]string

	// payload is sent verbatim instead of marshalling body.
	payload []byte

	// surfaceRateLimit returns 429 to the caller as domain.ErrRateLimited
	// instead of retrying it here.
	surfaceRateLimit bool
}

type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// do sends the request and decodes a JSON answer into out. Network errors,
// 5xx and (unless surfaced) 429 are retried with linear backoff. A nil out
// or an empty body leaves out untouched.
func (c *HTTPClient) do(ctx context.Context, req apiRequest, out any) error {
	payload := req.payload
	if payload == nil && req.body != nil {
		var err error
		payload, err = json.Marshal(req.body)
		if err != nil {
			c.metrics.RecordExternalAPIFailure(req.api, "json_marshal")
			return fmt.Errorf("failed to marshal %s request: %w", req.api, err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.retryBackoff * time.Duration(attempt)
			c.logger.WithContext(ctx).WithError(lastErr).WithFields(map[string]any{
				"api":     req.api,
				"attempt": attempt,
				"wait":    wait,
			}).Warn("Retrying upstream request")
			if err := c.sleep(ctx, wait); err != nil {
				return fmt.Errorf("%s: %w", req.api, err)
			}
		}

		body, err := c.send(ctx, req, payload)
		if err == nil {
			return decodeBody(req.api, body, out, c.metrics)
		}

		var retryable *retryableError
		if !errors.As(err, &retryable) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%s failed after %d attempts: %w", req.api, c.maxRetries+1, lastErr)
}

func (c *HTTPClient) send(ctx context.Context, req apiRequest, payload []byte) ([]byte, error) {
	start := time.Now()

	// Apply rate limiting
	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.metrics.RecordExternalAPIFailure(req.api, "rate_limit")
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	target := req.url
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, reader)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(req.api, "request_creation")
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", req.token)
	}
	for key, value := range req.header {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(req.api, "network_error")
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", req.api, ctx.Err())
		}
		return nil, &retryableError{err: fmt.Errorf("failed to call %s: %w", req.api, err)}
	}
	defer resp.Body.Close()

	duration := time.Since(start)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(req.api, "read_body")
		return nil, &retryableError{err: fmt.Errorf("failed to read %s response body: %w", req.api, err)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.metrics.RecordExternalAPICall(req.api, "error_429", duration)
		err := fmt.Errorf("%s: %w", req.api, domain.ErrRateLimited)
		if req.surfaceRateLimit {
			return nil, err
		}
		return nil, &retryableError{err: err}
	case resp.StatusCode >= http.StatusInternalServerError:
		c.metrics.RecordExternalAPICall(req.api, fmt.Sprintf("error_%d", resp.StatusCode), duration)
		return nil, &retryableError{err: fmt.Errorf("%w: %s returned %d", domain.ErrUpstreamStatus, req.api, resp.StatusCode)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.metrics.RecordExternalAPICall(req.api, fmt.Sprintf("error_%d", resp.StatusCode), duration)
		return nil, fmt.Errorf("%w: %s returned %d: %s", domain.ErrUpstreamStatus, req.api, resp.StatusCode, truncate(body, 256))
	}

	c.metrics.RecordExternalAPICall(req.api, "success", duration)

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"api":      req.api,
		"url":      req.url,
		"duration": duration,
		"bytes":    len(body),
	}).Debug("Upstream request completed")

	return body, nil
}

func decodeBody(api string, body []byte, out any, m *metrics.Metrics) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		m.RecordExternalAPIFailure(api, "json_parse")
		return fmt.Errorf("failed to parse %s response: %w", api, err)
	}
	return nil
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
