package engine

import (
	"context"
	"errors"
	"time"

	"wbreport/internal/domain"
	"wbreport/pkg/logger"
)

// CampaignLookup fetches campaign details for at most one batch of ids.
type CampaignLookup func(ctx context.Context, ids []int64) ([]domain.Campaign, error)

type SKUResolverConfig struct {
	BatchSize  int
	BatchDelay time.Duration

	// 429 handling: exponential backoff capped at RateLimitCeiling
	RateLimitRetries int
	RateLimitBackoff time.Duration
	RateLimitCeiling time.Duration

	// other failures: linear backoff
	MaxRetries   int
	RetryBackoff time.Duration
}

func DefaultSKUResolverConfig() SKUResolverConfig {
	return SKUResolverConfig{
		BatchSize:        50,
		BatchDelay:       time.Second,
		RateLimitRetries: 5,
		RateLimitBackoff: 2 * time.Second,
		RateLimitCeiling: time.Minute,
		MaxRetries:       3,
		RetryBackoff:     2 * time.Second,
	}
}

// SKUResolution is the partial-by-design outcome of a resolution run.
type SKUResolution struct {
	SKUs           map[int64]string
	Campaigns      []domain.Campaign
	Requested      int
	SkippedBatches int
}

// Completeness is the resolved share of requested campaigns, in percent.
func (s SKUResolution) Completeness() float64 {
	if s.Requested == 0 {
		return 100
	}
	return float64(len(s.SKUs)) / float64(s.Requested) * 100
}

type SKUResolver struct {
	lookup CampaignLookup
	cfg    SKUResolverConfig
	logger *logger.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewSKUResolver(lookup CampaignLookup, cfg SKUResolverConfig, logger *logger.Logger) *SKUResolver {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &SKUResolver{
		lookup: lookup,
		cfg:    cfg,
		logger: logger,
		sleep:  sleepContext,
	}
}

// Resolve maps campaign ids to a representative product SKU. Batches run
// sequentially with a delay between them. A batch that keeps failing is
// skipped; Resolve never fails and returns whatever was resolved.
func (r *SKUResolver) Resolve(ctx context.Context, campaignIDs []int64) SKUResolution {
	ids := uniqueIDs(campaignIDs)
	result := SKUResolution{
		SKUs:      make(map[int64]string, len(ids)),
		Requested: len(ids),
	}

	log := r.logger.WithContext(ctx)

	for start := 0; start < len(ids); start += r.cfg.BatchSize {
		end := min(start+r.cfg.BatchSize, len(ids))
		batch := ids[start:end]

		if start > 0 {
			if err := r.sleep(ctx, r.cfg.BatchDelay); err != nil {
				result.SkippedBatches += (len(ids) - start + r.cfg.BatchSize - 1) / r.cfg.BatchSize
				break
			}
		}

		campaigns, err := r.fetchBatch(ctx, batch)
		if err != nil {
			result.SkippedBatches++
			log.WithError(err).WithFields(map[string]any{
				"batch_start": start,
				"batch_size":  len(batch),
			}).Warn("Skipping campaign batch after exhausting retries")
			continue
		}

		for _, campaign := range campaigns {
			result.Campaigns = append(result.Campaigns, campaign)
			if sku, ok := CampaignSKU(campaign); ok {
				result.SKUs[campaign.CampaignID] = sku
			}
		}
	}

	log.WithFields(map[string]any{
		"requested":       result.Requested,
		"resolved":        len(result.SKUs),
		"skipped_batches": result.SkippedBatches,
		"completeness":    result.Completeness(),
	}).Info("Resolved campaign SKUs")

	return result
}

func (r *SKUResolver) fetchBatch(ctx context.Context, batch []int64) ([]domain.Campaign, error) {
	rateLimited, failures := 0, 0

	for {
		campaigns, err := r.lookup(ctx, batch)
		if err == nil {
			return campaigns, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var wait time.Duration
		if errors.Is(err, domain.ErrRateLimited) {
			if rateLimited >= r.cfg.RateLimitRetries {
				return nil, err
			}
			wait = exponentialBackoff(r.cfg.RateLimitBackoff, rateLimited, r.cfg.RateLimitCeiling)
			rateLimited++
		} else {
			if failures >= r.cfg.MaxRetries {
				return nil, err
			}
			failures++
			wait = r.cfg.RetryBackoff * time.Duration(failures)
		}

		r.logger.WithContext(ctx).WithError(err).WithField("wait", wait).Debug("Retrying campaign batch")
		if err := r.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// CampaignSKU extracts the representative SKU from the nested structure
// that matches the campaign type.
func CampaignSKU(c domain.Campaign) (string, bool) {
	switch c.Type {
	case domain.CampaignTypeSearchCard:
		if len(c.AuctionMultibids) > 0 && c.AuctionMultibids[0].NM != "" {
			return c.AuctionMultibids[0].NM.String(), true
		}
	case domain.CampaignTypeAuto:
		if c.AutoParams != nil && len(c.AutoParams.NMs) > 0 && c.AutoParams.NMs[0] != "" {
			return c.AutoParams.NMs[0].String(), true
		}
	default:
		if len(c.UnitedParams) > 0 && len(c.UnitedParams[0].NMs) > 0 && c.UnitedParams[0].NMs[0] != "" {
			return c.UnitedParams[0].NMs[0].String(), true
		}
	}
	return "", false
}

func exponentialBackoff(base time.Duration, attempt int, ceiling time.Duration) time.Duration {
	wait := base
	for i := 0; i < attempt; i++ {
		wait *= 2
		if ceiling > 0 && wait >= ceiling {
			return ceiling
		}
	}
	if ceiling > 0 && wait > ceiling {
		return ceiling
	}
	return wait
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
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
