package infrastructure

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"wbreport/internal/domain"
	"wbreport/pkg/logger"
)

// implements domain.ReportRepository interface. Only the newest
// maxReports reports are kept.
type ReportRepository struct {
	data       map[string]*domain.Report
	order      []string
	maxReports int
	mutex      sync.RWMutex
	logger     *logger.Logger
}

// creates a new report repository
func NewReportRepository(maxReports int, logger *logger.Logger) *ReportRepository {
	if maxReports <= 0 {
		maxReports = 50
	}
	return &ReportRepository{
		data:       make(map[string]*domain.Report),
		maxReports: maxReports,
		logger:     logger,
	}
}

func (r *ReportRepository) Store(ctx context.Context, report *domain.Report) error {
	if report == nil || report.ID == "" {
		return fmt.Errorf("report without id cannot be stored")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.data[report.ID]; !exists {
		r.order = append(r.order, report.ID)
	}
	r.data[report.ID] = report

	for len(r.order) > r.maxReports {
		evicted := r.order[0]
		r.order = r.order[1:]
		delete(r.data, evicted)
		r.logger.WithContext(ctx).WithField("report_id", evicted).Debug("Evicted oldest report")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"report_id": report.ID,
		"period":    report.Period.String(),
		"stored":    len(r.data),
	}).Info("Stored report in memory")
	return nil
}

func (r *ReportRepository) Get(ctx context.Context, id string) (*domain.Report, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	report, ok := r.data[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrReportNotFound, id)
	}
	return report, nil
}

// List returns summaries, newest first.
func (r *ReportRepository) List(ctx context.Context) ([]domain.ReportSummary, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	summaries := make([]domain.ReportSummary, 0, len(r.data))
	for _, report := range r.data {
		summaries = append(summaries, report.Summary())
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].GeneratedAt.Equal(summaries[j].GeneratedAt) {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].GeneratedAt.After(summaries[j].GeneratedAt)
	})

	return summaries, nil
}
