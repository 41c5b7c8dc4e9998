package monitoring

import (
	"context"
	"errors"
	"time"

	"github.com/TasksFlow/TasksFlowBackend/pkg/logger"
	"github.com/TasksFlow/TasksFlowBackend/pkg/store/mysql"
	"github.com/TasksFlow/TasksFlowBackend/pkg/store/mysql/model"
)

// Health states of the overview summary
const (
	HealthHealthy  = "healthy"
	HealthWarning  = "warning"
	HealthCritical = "critical"
	HealthError    = "error"
)

const activeAlertsLimit = 100

// OverviewResponse is the dashboard landing payload. Collections are never
// nil so the frontend can iterate without guards.
type OverviewResponse struct {
	Status       string                   `json:"status"`
	Timestamp    time.Time                `json:"timestamp"`
	System       *model.SystemMetrics     `json:"system"`
	GPUs         []*model.GPUMetrics      `json:"gpus"`
	ActiveAlerts []*model.MonitoringAlert `json:"active_alerts"`
	AlertCount   int                      `json:"alert_count"`
	GPUCount     int                      `json:"gpu_count"`
}

// OverviewCache is an optional read-through cache for the overview payload
type OverviewCache interface {
	SaveOverview(ctx context.Context, overview any) error
	LoadOverview(ctx context.Context, dst any) error
}

// OverviewService assembles the dashboard overview from the stores
type OverviewService struct {
	system SystemStore
	gpu    GPUStore
	alert  AlertStore
	cache  OverviewCache
}

// NewOverviewService creates an overview service; cache may be nil
func NewOverviewService(system SystemStore, gpu GPUStore, alert AlertStore, cache OverviewCache) *OverviewService {
	return &OverviewService{system: system, gpu: gpu, alert: alert, cache: cache}
}

// Overview assembles the current dashboard payload. Store failures degrade to
// a structurally valid response with status "error" and empty collections
// rather than a transport error.
func (s *OverviewService) Overview(ctx context.Context) *OverviewResponse {
	if s.cache != nil {
		var cached OverviewResponse
		if err := s.cache.LoadOverview(ctx, &cached); err == nil {
			return &cached
		}
	}

	resp := s.assemble(ctx)

	if s.cache != nil && resp.Status != HealthError {
		if err := s.cache.SaveOverview(ctx, resp); err != nil {
			logger.Warnf("failed to cache overview: %v", err)
		}
	}
	return resp
}

func (s *OverviewService) assemble(ctx context.Context) *OverviewResponse {
	resp := &OverviewResponse{
		Status:       HealthHealthy,
		Timestamp:    time.Now().UTC(),
		GPUs:         []*model.GPUMetrics{},
		ActiveAlerts: []*model.MonitoringAlert{},
	}

	sys, err := s.system.Latest(ctx)
	if err != nil && !isNotFound(err) {
		logger.Errorf("overview: failed to load latest system metrics: %v", err)
		resp.Status = HealthError
		return resp
	}
	resp.System = sys

	gpus, err := s.gpu.LatestPerGPU(ctx)
	if err != nil {
		logger.Errorf("overview: failed to load GPU metrics: %v", err)
		resp.Status = HealthError
		return resp
	}
	if gpus != nil {
		resp.GPUs = gpus
	}
	resp.GPUCount = len(resp.GPUs)

	alerts, err := s.alert.Active(ctx, activeAlertsLimit)
	if err != nil {
		logger.Errorf("overview: failed to load active alerts: %v", err)
		resp.Status = HealthError
		return resp
	}
	if alerts != nil {
		resp.ActiveAlerts = alerts
	}
	resp.AlertCount = len(resp.ActiveAlerts)
	resp.Status = healthFromAlerts(resp.ActiveAlerts)

	return resp
}

// isNotFound separates an empty store from a failing one; no rows yet is a
// valid state for a freshly started instance.
func isNotFound(err error) bool {
	return errors.Is(err, mysql.ErrNotFound)
}

// healthFromAlerts derives the summary status: any critical alert makes the
// whole system critical, any alert at all makes it warning.
func healthFromAlerts(alerts []*model.MonitoringAlert) string {
	status := HealthHealthy
	for _, a := range alerts {
		if a.AlertLevel == model.AlertLevelCritical {
			return HealthCritical
		}
		status = HealthWarning
	}
	return status
}
