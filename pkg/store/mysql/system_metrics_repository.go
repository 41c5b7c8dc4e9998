package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/TasksFlow/TasksFlowBackend/pkg/store/mysql/model"
)

// DefaultRangeLimit caps history queries when the caller does not provide one
const DefaultRangeLimit = 1000

// SystemMetricsRepository handles host-level metric persistence
type SystemMetricsRepository struct {
	ds *Datastore
}

// NewSystemMetricsRepository creates a new system metrics repository
func NewSystemMetricsRepository(ds *Datastore) *SystemMetricsRepository {
	return &SystemMetricsRepository{ds: ds}
}

// Create appends a snapshot row. A zero timestamp is assigned server-side.
func (r *SystemMetricsRepository) Create(ctx context.Context, m *model.SystemMetrics) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return r.ds.DB(ctx).Create(m).Error
}

// Latest returns the most recent snapshot, or ErrNotFound when none exist yet
func (r *SystemMetricsRepository) Latest(ctx context.Context) (*model.SystemMetrics, error) {
	var m model.SystemMetrics
	err := r.ds.DB(ctx).Order("timestamp DESC").First(&m).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &m, nil
}

// Range returns snapshots within [start, end], newest first, truncated at limit
func (r *SystemMetricsRepository) Range(ctx context.Context, start, end time.Time, limit int) ([]*model.SystemMetrics, error) {
	if limit <= 0 {
		limit = DefaultRangeLimit
	}
	var rows []*model.SystemMetrics
	err := r.ds.DB(ctx).
		Where("timestamp >= ? AND timestamp <= ?", start, end).
		Order("timestamp DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query system metrics range: %w", err)
	}
	return rows, nil
}

// Aggregate groups snapshots in [start, end] into fixed-width time buckets and
// computes per-field avg/max. Buckets without rows are omitted.
func (r *SystemMetricsRepository) Aggregate(ctx context.Context, start, end time.Time, bucket time.Duration) ([]*AggregatedBucket, error) {
	var rows []*model.SystemMetrics
	err := r.ds.DB(ctx).
		Where("timestamp >= ? AND timestamp <= ?", start, end).
		Order("timestamp ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query system metrics for aggregation: %w", err)
	}
	return BucketSystemMetrics(rows, bucket), nil
}

// CleanupBefore deletes snapshots strictly older than cutoff and returns the
// number of rows removed. A row stamped exactly at cutoff is preserved.
func (r *SystemMetricsRepository) CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.ds.DB(ctx).Where("timestamp < ?", cutoff).Delete(&model.SystemMetrics{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clean up system metrics: %w", result.Error)
	}
	return result.RowsAffected, nil
}
