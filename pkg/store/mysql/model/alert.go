package model

import "time"

// AlertType identifies the metric family an alert was raised for
type AlertType string

const (
	AlertTypeCPU     AlertType = "cpu"
	AlertTypeMemory  AlertType = "memory"
	AlertTypeGPU     AlertType = "gpu"
	AlertTypeDisk    AlertType = "disk"
	AlertTypeNetwork AlertType = "network"
	AlertTypeSystem  AlertType = "system"
)

// AlertLevel severity of an alert
type AlertLevel string

const (
	AlertLevelInfo     AlertLevel = "info"
	AlertLevelWarning  AlertLevel = "warning"
	AlertLevelCritical AlertLevel = "critical"
)

// AlertStatus resolution state; the active->resolved transition is one-way
type AlertStatus string

const (
	AlertStatusActive   AlertStatus = "active"
	AlertStatusResolved AlertStatus = "resolved"
)

// MonitoringAlert is raised each cycle a sampled value crosses its threshold.
// Rows are append-only; resolution is the only mutation.
type MonitoringAlert struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp time.Time `gorm:"not null;index:idx_alert_timestamp" json:"timestamp"`

	AlertType      AlertType  `gorm:"size:50;not null" json:"alert_type"`
	AlertLevel     AlertLevel `gorm:"size:20;not null" json:"alert_level"`
	AlertMessage   string     `gorm:"type:text;not null" json:"alert_message"`
	AlertValue     float64    `json:"alert_value"`
	ThresholdValue float64    `json:"threshold_value"`

	Status     AlertStatus `gorm:"size:20;default:active" json:"status"`
	ResolvedAt *time.Time  `json:"resolved_at,omitempty"`
}

func (MonitoringAlert) TableName() string { return "monitoring_alerts" }
