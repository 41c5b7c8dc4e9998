package monitoring

import (
	"context"
	"time"

	"github.com/TasksFlow/TasksFlowBackend/pkg/config"
	"github.com/TasksFlow/TasksFlowBackend/pkg/store/mysql/model"
)

// Thresholds holds the alerting limits in percent (temperature in Celsius).
// A value crosses a threshold only when strictly greater.
type Thresholds struct {
	CPUUsage       float64 `json:"cpu_usage"`
	MemoryUsage    float64 `json:"memory_usage"`
	DiskUsage      float64 `json:"disk_usage"`
	GPUUsage       float64 `json:"gpu_usage"`
	GPUMemory      float64 `json:"gpu_memory"`
	GPUTemperature float64 `json:"gpu_temperature"`
}

// DefaultThresholds returns the built-in alerting limits
func DefaultThresholds() Thresholds {
	return Thresholds{
		CPUUsage:       80,
		MemoryUsage:    85,
		DiskUsage:      90,
		GPUUsage:       90,
		GPUMemory:      90,
		GPUTemperature: 80,
	}
}

// ThresholdsFromConfig overlays configured limits on the defaults. Zero values
// in the config keep the default.
func ThresholdsFromConfig(cfg config.ThresholdsConfig) Thresholds {
	th := DefaultThresholds()
	if cfg.CPUUsage > 0 {
		th.CPUUsage = cfg.CPUUsage
	}
	if cfg.MemoryUsage > 0 {
		th.MemoryUsage = cfg.MemoryUsage
	}
	if cfg.DiskUsage > 0 {
		th.DiskUsage = cfg.DiskUsage
	}
	if cfg.GPUUsage > 0 {
		th.GPUUsage = cfg.GPUUsage
	}
	if cfg.GPUMemory > 0 {
		th.GPUMemory = cfg.GPUMemory
	}
	if cfg.GPUTemperature > 0 {
		th.GPUTemperature = cfg.GPUTemperature
	}
	return th
}

// Status reports the collection loop state for the status endpoint
type Status struct {
	Running         bool       `json:"running"`
	IntervalSeconds int        `json:"interval_seconds"`
	Thresholds      Thresholds `json:"thresholds"`
	GPUAvailable    bool       `json:"gpu_available"`
	Timestamp       time.Time  `json:"timestamp"`
}

// SystemStore persists and serves host-level samples
type SystemStore interface {
	Create(ctx context.Context, m *model.SystemMetrics) error
	Latest(ctx context.Context) (*model.SystemMetrics, error)
	CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// GPUStore persists and serves per-GPU samples
type GPUStore interface {
	Create(ctx context.Context, m *model.GPUMetrics) error
	LatestPerGPU(ctx context.Context) ([]*model.GPUMetrics, error)
	CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// TaskStore persists per-task samples
type TaskStore interface {
	Create(ctx context.Context, m *model.TaskMetrics) error
	CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AlertStore persists and serves alerts
type AlertStore interface {
	Create(ctx context.Context, a *model.MonitoringAlert) error
	Active(ctx context.Context, limit int) ([]*model.MonitoringAlert, error)
}
