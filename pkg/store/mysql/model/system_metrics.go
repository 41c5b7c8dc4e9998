package model

import "time"

// SystemMetrics is one host-level sample per collection cycle. Rows are
// append-only; nil pointer fields mean the sensor was unavailable at sample time.
type SystemMetrics struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp time.Time `gorm:"not null;index:idx_system_timestamp" json:"timestamp"`

	// CPU
	CPUUsagePercent float64        `gorm:"type:decimal(5,2)" json:"cpu_usage_percent"`
	CPUTemperature  *float64       `json:"cpu_temperature,omitempty"`
	CPUFrequencyMHz *float64       `json:"cpu_frequency_mhz,omitempty"`
	CPUCores        int            `json:"cpu_cores"`
	LoadAverage1m   float64        `json:"load_average_1m"`
	LoadAverage5m   float64        `json:"load_average_5m"`
	LoadAverage15m  float64        `json:"load_average_15m"`
	CPUPerCoreUsage JSONFloatArray `gorm:"type:json" json:"cpu_per_core_usage"`

	// Memory (GiB, 1024-based)
	MemoryUsagePercent float64 `gorm:"type:decimal(5,2)" json:"memory_usage_percent"`
	MemoryUsedGB       float64 `json:"memory_used_gb"`
	MemoryTotalGB      float64 `json:"memory_total_gb"`
	MemoryAvailableGB  float64 `json:"memory_available_gb"`
	MemoryCachedGB     float64 `json:"memory_cached_gb"`
	SwapUsedGB         float64 `json:"swap_used_gb"`
	SwapTotalGB        float64 `json:"swap_total_gb"`

	// Disk: per-partition used percent keyed by friendly label; IO figures are
	// cumulative counters at sample time, rate computation is up to the consumer
	DiskUsagePercent JSONFloatMap `gorm:"type:json" json:"disk_usage_percent"`
	DiskReadMB       float64      `json:"disk_read_mb"`
	DiskWriteMB      float64      `json:"disk_write_mb"`
	DiskReadOps      float64      `json:"disk_read_ops"`
	DiskWriteOps     float64      `json:"disk_write_ops"`

	// Network: cumulative counters at sample time
	NetworkUploadMB    float64 `json:"network_upload_mb"`
	NetworkDownloadMB  float64 `json:"network_download_mb"`
	NetworkConnections int     `json:"network_connections"`

	// System-wide
	SystemUptimeSec  float64 `json:"system_uptime_sec"`
	ProcessCount     int     `json:"process_count"`
	TaskQueueLength  int     `json:"task_queue_length"`
	ActiveTasksCount int     `json:"active_tasks_count"`
}

func (SystemMetrics) TableName() string { return "system_metrics" }

// GPUMetrics is one sample per GPU per collection cycle, keyed by
// (gpu_index, timestamp). Power and fan speed require extended driver access
// and stay nil when unavailable.
type GPUMetrics struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp time.Time `gorm:"not null;index:idx_gpu_timestamp" json:"timestamp"`

	GPUIndex int    `gorm:"not null;index:idx_gpu_index" json:"gpu_index"`
	GPUName  string `gorm:"size:255" json:"gpu_name"`

	GPUUsagePercent       float64  `gorm:"type:decimal(5,2)" json:"gpu_usage_percent"`
	GPUMemoryUsagePercent float64  `gorm:"type:decimal(5,2)" json:"gpu_memory_usage_percent"`
	GPUMemoryUsedGB       float64  `json:"gpu_memory_used_gb"`
	GPUMemoryTotalGB      float64  `json:"gpu_memory_total_gb"`
	GPUTemperature        float64  `json:"gpu_temperature"`
	GPUPowerUsageW        *float64 `json:"gpu_power_usage_w,omitempty"`
	GPUFanSpeedPercent    *float64 `json:"gpu_fan_speed_percent,omitempty"`
}

func (GPUMetrics) TableName() string { return "gpu_metrics" }

// TaskMetrics is one sample per monitored task per collection cycle, keyed by
// (task_id, timestamp). Populated from the task-manager collaborator.
type TaskMetrics struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp time.Time `gorm:"not null;index:idx_task_timestamp" json:"timestamp"`

	TaskID     string `gorm:"size:255;not null;index:idx_task_id" json:"task_id"`
	TaskName   string `gorm:"size:255" json:"task_name"`
	TaskStatus string `gorm:"size:50" json:"task_status"`

	TaskCPUUsage      float64 `gorm:"type:decimal(5,2)" json:"task_cpu_usage"`
	TaskMemoryUsageGB float64 `json:"task_memory_usage_gb"`
	TaskExecutionSec  float64 `json:"task_execution_sec"`

	ProcessID      int    `json:"process_id"`
	ProcessCommand string `gorm:"type:text" json:"process_command"`
}

func (TaskMetrics) TableName() string { return "task_metrics" }
