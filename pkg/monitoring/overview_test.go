package monitoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TasksFlow/TasksFlowBackend/pkg/store/mysql/model"
)

func TestOverview_EmptyStoresAreHealthy(t *testing.T) {
	svc := NewOverviewService(&memSystemStore{}, &memGPUStore{}, &memAlertStore{}, nil)

	resp := svc.Overview(context.Background())
	assert.Equal(t, HealthHealthy, resp.Status)
	assert.Nil(t, resp.System)
	assert.NotNil(t, resp.GPUs)
	assert.NotNil(t, resp.ActiveAlerts)
	assert.Equal(t, 0, resp.AlertCount)
	assert.Equal(t, 0, resp.GPUCount)
}

func TestOverview_AssemblesLatestState(t *testing.T) {
	system := &memSystemStore{}
	gpus := &memGPUStore{}
	alerts := &memAlertStore{}
	ctx := context.Background()

	require.NoError(t, system.Create(ctx, &model.SystemMetrics{CPUUsagePercent: 12}))
	require.NoError(t, system.Create(ctx, &model.SystemMetrics{CPUUsagePercent: 34}))
	require.NoError(t, gpus.Create(ctx, &model.GPUMetrics{GPUIndex: 0}))
	require.NoError(t, gpus.Create(ctx, &model.GPUMetrics{GPUIndex: 1}))

	svc := NewOverviewService(system, gpus, alerts, nil)
	resp := svc.Overview(ctx)

	assert.Equal(t, HealthHealthy, resp.Status)
	require.NotNil(t, resp.System)
	assert.Equal(t, 34.0, resp.System.CPUUsagePercent)
	assert.Equal(t, 2, resp.GPUCount)
}

func TestOverview_AlertsDriveStatus(t *testing.T) {
	tests := []struct {
		name   string
		levels []model.AlertLevel
		want   string
	}{
		{"no alerts", nil, HealthHealthy},
		{"warning only", []model.AlertLevel{model.AlertLevelWarning}, HealthWarning},
		{"critical wins", []model.AlertLevel{model.AlertLevelWarning, model.AlertLevelCritical}, HealthCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := &memAlertStore{}
			for _, level := range tt.levels {
				require.NoError(t, alerts.Create(context.Background(), &model.MonitoringAlert{
					AlertLevel: level,
					Status:     model.AlertStatusActive,
				}))
			}

			svc := NewOverviewService(&memSystemStore{}, &memGPUStore{}, alerts, nil)
			resp := svc.Overview(context.Background())
			assert.Equal(t, tt.want, resp.Status)
			assert.Equal(t, len(tt.levels), resp.AlertCount)
		})
	}
}

func TestOverview_StoreFailureDegrades(t *testing.T) {
	gpus := &memGPUStore{latestErr: errors.New("connection refused")}
	svc := NewOverviewService(&memSystemStore{}, gpus, &memAlertStore{}, nil)

	resp := svc.Overview(context.Background())
	assert.Equal(t, HealthError, resp.Status)
	assert.NotNil(t, resp.GPUs)
	assert.NotNil(t, resp.ActiveAlerts)
	assert.Empty(t, resp.GPUs)
}

type stubOverviewCache struct {
	saved  int
	cached *OverviewResponse
}

func (c *stubOverviewCache) SaveOverview(ctx context.Context, overview any) error {
	c.saved++
	resp := overview.(*OverviewResponse)
	cp := *resp
	c.cached = &cp
	return nil
}

func (c *stubOverviewCache) LoadOverview(ctx context.Context, dst any) error {
	if c.cached == nil {
		return errors.New("miss")
	}
	*dst.(*OverviewResponse) = *c.cached
	return nil
}

func TestOverview_CacheReadThrough(t *testing.T) {
	system := &memSystemStore{}
	cache := &stubOverviewCache{}
	svc := NewOverviewService(system, &memGPUStore{}, &memAlertStore{}, cache)
	ctx := context.Background()

	first := svc.Overview(ctx)
	assert.Equal(t, 1, cache.saved)

	// New data lands, but the cached payload is still served
	require.NoError(t, system.Create(ctx, &model.SystemMetrics{CPUUsagePercent: 99}))
	second := svc.Overview(ctx)
	assert.Equal(t, first.Timestamp, second.Timestamp)
	assert.Nil(t, second.System)
}

func TestOverview_ErrorResponseNotCached(t *testing.T) {
	cache := &stubOverviewCache{}
	gpus := &memGPUStore{latestErr: errors.New("down")}
	svc := NewOverviewService(&memSystemStore{}, gpus, &memAlertStore{}, cache)

	resp := svc.Overview(context.Background())
	assert.Equal(t, HealthError, resp.Status)
	assert.Equal(t, 0, cache.saved)
}
