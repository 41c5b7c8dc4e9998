package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/TasksFlow/TasksFlowBackend/pkg/store/mysql/model"
)

// DefaultGPURangeLimit caps per-GPU history queries
const DefaultGPURangeLimit = 1000

// GPUMetricsRepository handles per-GPU metric persistence
type GPUMetricsRepository struct {
	ds *Datastore
}

// NewGPUMetricsRepository creates a new GPU metrics repository
func NewGPUMetricsRepository(ds *Datastore) *GPUMetricsRepository {
	return &GPUMetricsRepository{ds: ds}
}

// Create appends a GPU snapshot row. A zero timestamp is assigned server-side.
func (r *GPUMetricsRepository) Create(ctx context.Context, m *model.GPUMetrics) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return r.ds.DB(ctx).Create(m).Error
}

// LatestByGPU returns the most recent snapshot for one GPU index
func (r *GPUMetricsRepository) LatestByGPU(ctx context.Context, gpuIndex int) (*model.GPUMetrics, error) {
	var m model.GPUMetrics
	err := r.ds.DB(ctx).
		Where("gpu_index = ?", gpuIndex).
		Order("timestamp DESC").
		First(&m).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &m, nil
}

// LatestPerGPU returns the most recent snapshot for every GPU index seen.
// Ties on timestamp are broken by the highest row id (insertion order).
func (r *GPUMetricsRepository) LatestPerGPU(ctx context.Context) ([]*model.GPUMetrics, error) {
	var rows []*model.GPUMetrics
	err := r.ds.DB(ctx).Raw(`
		SELECT g.* FROM gpu_metrics g
		JOIN (
			SELECT gpu_index, MAX(id) AS max_id
			FROM gpu_metrics
			GROUP BY gpu_index
		) latest ON g.id = latest.max_id
		ORDER BY g.gpu_index ASC
	`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query latest GPU metrics: %w", err)
	}
	return rows, nil
}

// RangeByGPU returns snapshots for one GPU within [start, end], newest first
func (r *GPUMetricsRepository) RangeByGPU(ctx context.Context, gpuIndex int, start, end time.Time, limit int) ([]*model.GPUMetrics, error) {
	if limit <= 0 {
		limit = DefaultGPURangeLimit
	}
	var rows []*model.GPUMetrics
	err := r.ds.DB(ctx).
		Where("gpu_index = ? AND timestamp >= ? AND timestamp <= ?", gpuIndex, start, end).
		Order("timestamp DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query GPU %d metrics range: %w", gpuIndex, err)
	}
	return rows, nil
}

// GPUUsageSummary holds per-GPU statistics over a trailing window
type GPUUsageSummary struct {
	GPUIndex       int     `gorm:"column:gpu_index" json:"gpu_index"`
	AvgUsage       float64 `gorm:"column:avg_usage" json:"avg_usage"`
	MaxUsage       float64 `gorm:"column:max_usage" json:"max_usage"`
	AvgMemory      float64 `gorm:"column:avg_memory" json:"avg_memory"`
	MaxMemory      float64 `gorm:"column:max_memory" json:"max_memory"`
	AvgTemperature float64 `gorm:"column:avg_temperature" json:"avg_temperature"`
	MaxTemperature float64 `gorm:"column:max_temperature" json:"max_temperature"`
	DataPoints     int     `gorm:"column:data_points" json:"data_points"`
}

// UsageSummary returns avg/max usage, memory and temperature per GPU over the
// trailing window of the given number of hours.
func (r *GPUMetricsRepository) UsageSummary(ctx context.Context, hours int) ([]*GPUUsageSummary, error) {
	if hours <= 0 {
		hours = 24
	}
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	var rows []*GPUUsageSummary
	err := r.ds.DB(ctx).Raw(`
		SELECT
			gpu_index,
			COALESCE(AVG(gpu_usage_percent), 0) AS avg_usage,
			COALESCE(MAX(gpu_usage_percent), 0) AS max_usage,
			COALESCE(AVG(gpu_memory_usage_percent), 0) AS avg_memory,
			COALESCE(MAX(gpu_memory_usage_percent), 0) AS max_memory,
			COALESCE(AVG(gpu_temperature), 0) AS avg_temperature,
			COALESCE(MAX(gpu_temperature), 0) AS max_temperature,
			COUNT(*) AS data_points
		FROM gpu_metrics
		WHERE timestamp >= ?
		GROUP BY gpu_index
		ORDER BY gpu_index ASC
	`, since).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query GPU usage summary: %w", err)
	}
	return rows, nil
}

// CleanupBefore deletes GPU snapshots strictly older than cutoff
func (r *GPUMetricsRepository) CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.ds.DB(ctx).Where("timestamp < ?", cutoff).Delete(&model.GPUMetrics{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clean up GPU metrics: %w", result.Error)
	}
	return result.RowsAffected, nil
}
