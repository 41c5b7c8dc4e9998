package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TasksFlow/TasksFlowBackend/pkg/monitoring"
	"github.com/TasksFlow/TasksFlowBackend/pkg/store/mysql"
	"github.com/TasksFlow/TasksFlowBackend/pkg/store/mysql/model"
)

const (
	defaultLookbackHours      = 24
	defaultAggregationMinutes = 5
)

// MonitoringHandler serves the monitoring API
type MonitoringHandler struct {
	repo      *mysql.Repository
	collector *monitoring.Collector
	overview  *monitoring.OverviewService
	retention int
}

// NewMonitoringHandler creates a monitoring handler
func NewMonitoringHandler(repo *mysql.Repository, collector *monitoring.Collector, overview *monitoring.OverviewService, retentionDays int) *MonitoringHandler {
	return &MonitoringHandler{
		repo:      repo,
		collector: collector,
		overview:  overview,
		retention: retentionDays,
	}
}

// timeRange resolves start/end query params. Explicit RFC3339 bounds win;
// otherwise an hours lookback from now is used.
func timeRange(c *gin.Context) (time.Time, time.Time, error) {
	end := time.Now().UTC()
	hours := intQuery(c, "hours", defaultLookbackHours)
	start := end.Add(-time.Duration(hours) * time.Hour)

	if s := c.Query("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return start, end, errors.New("start must be RFC3339")
		}
		start = t
	}
	if s := c.Query("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return start, end, errors.New("end must be RFC3339")
		}
		end = t
	}
	if end.Before(start) {
		return start, end, errors.New("end must not precede start")
	}
	return start, end, nil
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// GetOverview returns the dashboard landing payload
// GET /api/v1/monitoring/overview
func (h *MonitoringHandler) GetOverview(c *gin.Context) {
	c.JSON(http.StatusOK, h.overview.Overview(c.Request.Context()))
}

// GetLatestSystem returns the most recent host sample
// GET /api/v1/monitoring/system/latest
func (h *MonitoringHandler) GetLatestSystem(c *gin.Context) {
	m, err := h.repo.SystemMetrics.Latest(c.Request.Context())
	if err != nil {
		if errors.Is(err, mysql.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no system metrics collected yet"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, m)
}

// GetSystemHistory returns host samples within a time range, newest first
// GET /api/v1/monitoring/system/history
func (h *MonitoringHandler) GetSystemHistory(c *gin.Context) {
	start, end, err := timeRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := h.repo.SystemMetrics.Range(c.Request.Context(), start, end, intQuery(c, "limit", 0))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"start":   start,
		"end":     end,
		"count":   len(rows),
		"metrics": rows,
	})
}

// GetAggregatedSystem returns bucketed avg/max statistics
// GET /api/v1/monitoring/system/aggregated
func (h *MonitoringHandler) GetAggregatedSystem(c *gin.Context) {
	start, end, err := timeRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bucket := time.Duration(intQuery(c, "interval", defaultAggregationMinutes)) * time.Minute
	buckets, err := h.repo.SystemMetrics.Aggregate(c.Request.Context(), start, end, bucket)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"start":            start,
		"end":              end,
		"interval_minutes": int(bucket / time.Minute),
		"buckets":          buckets,
	})
}

// GetLatestGPUs returns the most recent sample of every GPU
// GET /api/v1/monitoring/gpu/latest
func (h *MonitoringHandler) GetLatestGPUs(c *gin.Context) {
	rows, err := h.repo.GPUMetrics.LatestPerGPU(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(rows), "gpus": rows})
}

// GetGPUSummary returns per-GPU usage statistics over a trailing window
// GET /api/v1/monitoring/gpu/summary
func (h *MonitoringHandler) GetGPUSummary(c *gin.Context) {
	hours := intQuery(c, "hours", defaultLookbackHours)
	rows, err := h.repo.GPUMetrics.UsageSummary(c.Request.Context(), hours)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"period_hours": hours, "gpus": rows})
}

func gpuIndexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("gpu_index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "gpu_index must be a non-negative integer"})
		return 0, false
	}
	return index, true
}

// GetLatestGPU returns the most recent sample for one GPU
// GET /api/v1/monitoring/gpu/:gpu_index/latest
func (h *MonitoringHandler) GetLatestGPU(c *gin.Context) {
	index, ok := gpuIndexParam(c)
	if !ok {
		return
	}

	m, err := h.repo.GPUMetrics.LatestByGPU(c.Request.Context(), index)
	if err != nil {
		if errors.Is(err, mysql.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "gpu not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, m)
}

// GetGPUHistory returns samples for one GPU within a time range
// GET /api/v1/monitoring/gpu/:gpu_index/history
func (h *MonitoringHandler) GetGPUHistory(c *gin.Context) {
	index, ok := gpuIndexParam(c)
	if !ok {
		return
	}
	start, end, err := timeRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := h.repo.GPUMetrics.RangeByGPU(c.Request.Context(), index, start, end, intQuery(c, "limit", 0))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"gpu_index": index,
		"start":     start,
		"end":       end,
		"count":     len(rows),
		"metrics":   rows,
	})
}

// GetActiveTasks returns the latest sample of each recently seen task
// GET /api/v1/monitoring/tasks/active
func (h *MonitoringHandler) GetActiveTasks(c *gin.Context) {
	rows, err := h.repo.TaskMetrics.ActiveTasks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(rows), "tasks": rows})
}

// GetTaskHistory returns usage samples for one task
// GET /api/v1/monitoring/tasks/:task_id
func (h *MonitoringHandler) GetTaskHistory(c *gin.Context) {
	taskID := c.Param("task_id")
	rows, err := h.repo.TaskMetrics.HistoryByTask(c.Request.Context(), taskID, intQuery(c, "limit", 0))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"task_id": taskID,
		"count":   len(rows),
		"metrics": rows,
	})
}

// GetTaskSummary returns aggregate usage for one task
// GET /api/v1/monitoring/tasks/:task_id/summary
func (h *MonitoringHandler) GetTaskSummary(c *gin.Context) {
	summary, err := h.repo.TaskMetrics.ResourceSummary(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		if errors.Is(err, mysql.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ListAlerts returns alerts matching the optional type/level/status filters
// GET /api/v1/monitoring/alerts
func (h *MonitoringHandler) ListAlerts(c *gin.Context) {
	filter := mysql.AlertFilter{
		Type:   model.AlertType(c.Query("type")),
		Level:  model.AlertLevel(c.Query("level")),
		Status: model.AlertStatus(c.Query("status")),
		Limit:  intQuery(c, "limit", 0),
	}

	rows, err := h.repo.Alert.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(rows), "alerts": rows})
}

// ResolveAlert marks one alert resolved; resolving twice is harmless
// PUT /api/v1/monitoring/alerts/:alert_id/resolve
func (h *MonitoringHandler) ResolveAlert(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("alert_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "alert_id must be an integer"})
		return
	}

	alert, err := h.repo.Alert.Resolve(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, mysql.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, alert)
}

// GetAlertStatistics returns alert volume grouped by type/level/status
// GET /api/v1/monitoring/alerts/statistics
func (h *MonitoringHandler) GetAlertStatistics(c *gin.Context) {
	stats, err := h.repo.Alert.Statistics(c.Request.Context(), intQuery(c, "days", 7))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// TriggerCollect runs one collection cycle on demand
// POST /api/v1/monitoring/collect
func (h *MonitoringHandler) TriggerCollect(c *gin.Context) {
	result := h.collector.CollectOnce(c.Request.Context())
	c.JSON(http.StatusOK, result)
}

// TriggerCleanup removes metric rows older than the retention window
// DELETE /api/v1/monitoring/cleanup
func (h *MonitoringHandler) TriggerCleanup(c *gin.Context) {
	days := intQuery(c, "days", h.retention)
	result, err := h.collector.Cleanup(c.Request.Context(), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"retention_days": days, "result": result})
}

// GetStatus reports the collection loop state
// GET /api/v1/monitoring/status
func (h *MonitoringHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.collector.Status())
}
