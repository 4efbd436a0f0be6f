package brainygraph

import (
	"context"

	"github.com/brainygraph/brainygraph/internal/stats"
)

// Statistics is the aggregate counters-plus-throttle-history report
// returned by GetStatistics.
type Statistics = stats.WithThrottling

// GetStatistics reports live entity counts by noun and verb type, index
// sizes, discovered field names, and (when service is non-empty) that
// service's hourly throttle bucket history; an empty service reports
// every service's history.
func (e *Engine) GetStatistics(ctx context.Context, service string) (Statistics, error) {
	if err := e.ensureOpen(); err != nil {
		return Statistics{}, err
	}
	return stats.Aggregate(e.counters, e.throttle, service), nil
}

// FlushStatistics persists the in-memory counter snapshot to storage,
// normally left to the periodic flush cleanup's ticker drives.
func (e *Engine) FlushStatistics(ctx context.Context) error {
	if err := e.ensureOpen(); err != nil {
		return err
	}
	if err := e.checkMode(true, false, false); err != nil {
		return err
	}
	if err := e.storage.FlushStatisticsToStorage(ctx); err != nil {
		return newError(KindTransient, "FlushStatistics", "failed to flush statistics", err)
	}
	return nil
}
