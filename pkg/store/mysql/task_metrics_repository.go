package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/TasksFlow/TasksFlowBackend/pkg/store/mysql/model"
)

// ActiveTaskWindow bounds how far back a task row still counts as active
const ActiveTaskWindow = 5 * time.Minute

// TaskMetricsRepository handles per-task resource usage persistence
type TaskMetricsRepository struct {
	ds *Datastore
}

// NewTaskMetricsRepository creates a new task metrics repository
func NewTaskMetricsRepository(ds *Datastore) *TaskMetricsRepository {
	return &TaskMetricsRepository{ds: ds}
}

// Create appends a task usage row. A zero timestamp is assigned server-side.
func (r *TaskMetricsRepository) Create(ctx context.Context, m *model.TaskMetrics) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return r.ds.DB(ctx).Create(m).Error
}

// HistoryByTask returns usage rows for one task, newest first
func (r *TaskMetricsRepository) HistoryByTask(ctx context.Context, taskID string, limit int) ([]*model.TaskMetrics, error) {
	if limit <= 0 {
		limit = DefaultRangeLimit
	}
	var rows []*model.TaskMetrics
	err := r.ds.DB(ctx).
		Where("task_id = ?", taskID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query task %s metrics: %w", taskID, err)
	}
	return rows, nil
}

// ActiveTasks returns the latest row per task among rows recorded inside the
// active window. Tasks that stopped reporting fall out automatically.
func (r *TaskMetricsRepository) ActiveTasks(ctx context.Context) ([]*model.TaskMetrics, error) {
	since := time.Now().UTC().Add(-ActiveTaskWindow)

	var rows []*model.TaskMetrics
	err := r.ds.DB(ctx).Raw(`
		SELECT t.* FROM task_metrics t
		JOIN (
			SELECT task_id, MAX(id) AS max_id
			FROM task_metrics
			WHERE timestamp >= ?
			GROUP BY task_id
		) latest ON t.id = latest.max_id
		ORDER BY t.timestamp DESC
	`, since).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query active tasks: %w", err)
	}
	return rows, nil
}

// TaskResourceSummary aggregates one task's resource usage over its lifetime
type TaskResourceSummary struct {
	TaskID          string  `gorm:"column:task_id" json:"task_id"`
	AvgCPUUsage     float64 `gorm:"column:avg_cpu_usage" json:"avg_cpu_usage"`
	MaxCPUUsage     float64 `gorm:"column:max_cpu_usage" json:"max_cpu_usage"`
	AvgMemoryGB     float64 `gorm:"column:avg_memory_gb" json:"avg_memory_gb"`
	MaxMemoryGB     float64 `gorm:"column:max_memory_gb" json:"max_memory_gb"`
	TotalRuntimeSec float64 `gorm:"column:total_runtime_sec" json:"total_runtime_sec"`
	DataPoints      int     `gorm:"column:data_points" json:"data_points"`
}

// ResourceSummary returns aggregate usage for one task across all its rows
func (r *TaskMetricsRepository) ResourceSummary(ctx context.Context, taskID string) (*TaskResourceSummary, error) {
	var summary TaskResourceSummary
	err := r.ds.DB(ctx).Raw(`
		SELECT
			task_id,
			COALESCE(AVG(task_cpu_usage), 0) AS avg_cpu_usage,
			COALESCE(MAX(task_cpu_usage), 0) AS max_cpu_usage,
			COALESCE(AVG(task_memory_usage_gb), 0) AS avg_memory_gb,
			COALESCE(MAX(task_memory_usage_gb), 0) AS max_memory_gb,
			COALESCE(MAX(task_execution_sec), 0) AS total_runtime_sec,
			COUNT(*) AS data_points
		FROM task_metrics
		WHERE task_id = ?
		GROUP BY task_id
	`, taskID).Scan(&summary).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query task %s summary: %w", taskID, err)
	}
	if summary.DataPoints == 0 {
		return nil, ErrNotFound
	}
	return &summary, nil
}

// CleanupBefore deletes task rows strictly older than cutoff
func (r *TaskMetricsRepository) CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.ds.DB(ctx).Where("timestamp < ?", cutoff).Delete(&model.TaskMetrics{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clean up task metrics: %w", result.Error)
	}
	return result.RowsAffected, nil
}
