package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/TasksFlow/TasksFlowBackend/pkg/store/mysql/model"
)

// DefaultAlertListLimit caps alert listings when the caller passes no limit
const DefaultAlertListLimit = 50

// AlertRepository handles monitoring alert persistence
type AlertRepository struct {
	ds *Datastore
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(ds *Datastore) *AlertRepository {
	return &AlertRepository{ds: ds}
}

// Create records a new alert. A zero timestamp is assigned server-side and an
// empty status defaults to active.
func (r *AlertRepository) Create(ctx context.Context, a *model.MonitoringAlert) error {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	if a.Status == "" {
		a.Status = model.AlertStatusActive
	}
	return r.ds.DB(ctx).Create(a).Error
}

// Active returns unresolved alerts, newest first
func (r *AlertRepository) Active(ctx context.Context, limit int) ([]*model.MonitoringAlert, error) {
	if limit <= 0 {
		limit = DefaultAlertListLimit
	}
	var rows []*model.MonitoringAlert
	err := r.ds.DB(ctx).
		Where("status = ?", model.AlertStatusActive).
		Order("timestamp DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query active alerts: %w", err)
	}
	return rows, nil
}

// AlertFilter narrows alert listings. Zero-valued fields are ignored.
type AlertFilter struct {
	Type   model.AlertType
	Level  model.AlertLevel
	Status model.AlertStatus
	Limit  int
}

// List returns alerts matching the filter, newest first
func (r *AlertRepository) List(ctx context.Context, filter AlertFilter) ([]*model.MonitoringAlert, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultAlertListLimit
	}

	query := r.ds.DB(ctx).Model(&model.MonitoringAlert{})
	if filter.Type != "" {
		query = query.Where("alert_type = ?", filter.Type)
	}
	if filter.Level != "" {
		query = query.Where("alert_level = ?", filter.Level)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var rows []*model.MonitoringAlert
	err := query.Order("timestamp DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	return rows, nil
}

// markResolved transitions an alert to resolved at the given instant and
// reports whether the row changed. An already-resolved alert keeps its
// original resolution time.
func markResolved(a *model.MonitoringAlert, now time.Time) bool {
	if a.Status == model.AlertStatusResolved {
		return false
	}
	a.Status = model.AlertStatusResolved
	a.ResolvedAt = &now
	return true
}

// Resolve marks an alert resolved. Resolving an already-resolved alert keeps
// its original resolution time. A missing id returns ErrNotFound.
func (r *AlertRepository) Resolve(ctx context.Context, id int64) (*model.MonitoringAlert, error) {
	var alert model.MonitoringAlert
	if err := r.ds.DB(ctx).First(&alert, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	if !markResolved(&alert, time.Now().UTC()) {
		return &alert, nil
	}
	if err := r.ds.DB(ctx).Save(&alert).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve alert %d: %w", id, err)
	}
	return &alert, nil
}

// AlertStatistics summarizes alert volume over a trailing window
type AlertStatistics struct {
	Total    int64            `json:"total"`
	ByType   map[string]int64 `json:"by_type"`
	ByLevel  map[string]int64 `json:"by_level"`
	ByStatus map[string]int64 `json:"by_status"`
	Days     int              `json:"period_days"`
}

type alertCountRow struct {
	Key   string `gorm:"column:k"`
	Count int64  `gorm:"column:c"`
}

// Statistics returns alert counts grouped by type, level and status for the
// trailing window of the given number of days.
func (r *AlertRepository) Statistics(ctx context.Context, days int) (*AlertStatistics, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	stats := &AlertStatistics{
		ByType:   make(map[string]int64),
		ByLevel:  make(map[string]int64),
		ByStatus: make(map[string]int64),
		Days:     days,
	}

	groupings := []struct {
		column string
		into   map[string]int64
	}{
		{"alert_type", stats.ByType},
		{"alert_level", stats.ByLevel},
		{"status", stats.ByStatus},
	}
	for _, g := range groupings {
		var rows []alertCountRow
		err := r.ds.DB(ctx).Raw(fmt.Sprintf(`
			SELECT %s AS k, COUNT(*) AS c
			FROM monitoring_alerts
			WHERE timestamp >= ?
			GROUP BY %s
		`, g.column, g.column), since).Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to query alert statistics by %s: %w", g.column, err)
		}
		for _, row := range rows {
			g.into[row.Key] = row.Count
		}
	}

	err := r.ds.DB(ctx).Model(&model.MonitoringAlert{}).
		Where("timestamp >= ?", since).
		Count(&stats.Total).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}
	return stats, nil
}
