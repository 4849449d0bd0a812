package domain

import "errors"

var (
	ErrInvalidPeriod     = errors.New("invalid period")
	ErrReportNotFound    = errors.New("report not found")
	ErrUpstreamStatus    = errors.New("upstream returned unexpected status")
	ErrRateLimited       = errors.New("upstream rate limit exceeded")
	ErrMissingToken      = errors.New("api token is required")
	ErrSinkNotConfigured = errors.New("sink URL not configured")
	ErrInvalidCostPrice  = errors.New("invalid cost price")
)
