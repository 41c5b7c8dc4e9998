package monitoring

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/TasksFlow/TasksFlowBackend/pkg/logger"
	"github.com/TasksFlow/TasksFlowBackend/pkg/store/mysql/model"
)

// Collector runs the periodic collection cycle: sample, evaluate, persist.
// One sequential goroutine owns the cycle; readers go through the stores.
type Collector struct {
	sampler    *Sampler
	thresholds Thresholds
	interval   time.Duration

	system SystemStore
	gpu    GPUStore
	task   TaskStore
	alert  AlertStore

	notifier AlertNotifier

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// AlertNotifier delivers critical alerts out of band; nil disables delivery
type AlertNotifier interface {
	SendAlert(ctx context.Context, alert *model.MonitoringAlert) error
}

// NewCollector wires a collector over the sampler and stores
func NewCollector(sampler *Sampler, thresholds Thresholds, interval time.Duration,
	system SystemStore, gpu GPUStore, task TaskStore, alert AlertStore) *Collector {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Collector{
		sampler:    sampler,
		thresholds: thresholds,
		interval:   interval,
		system:     system,
		gpu:        gpu,
		task:       task,
		alert:      alert,
	}
}

// SetNotifier attaches an out-of-band delivery channel for critical alerts
func (c *Collector) SetNotifier(n AlertNotifier) {
	c.notifier = n
}

// Start launches the collection loop. Calling Start on a running collector
// is a warning no-op.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		logger.Warnf("monitoring collector already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true

	go c.loop(ctx)
	logger.Infof("monitoring collector started, interval %s", c.interval)
}

// Stop signals the loop and waits for the current cycle to finish
func (c *Collector) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel, done := c.cancel, c.done
	c.running = false
	c.mu.Unlock()

	cancel()
	<-done
	logger.Infof("monitoring collector stopped")
}

// Running reports whether the loop is active
func (c *Collector) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Status reports loop state for the status endpoint
func (c *Collector) Status() Status {
	return Status{
		Running:         c.Running(),
		IntervalSeconds: int(c.interval / time.Second),
		Thresholds:      c.thresholds,
		GPUAvailable:    c.sampler.GPUAvailable(),
		Timestamp:       time.Now().UTC(),
	}
}

func (c *Collector) loop(ctx context.Context) {
	defer close(c.done)

	for {
		started := time.Now()
		c.runCycle(ctx)

		sleep := c.interval - time.Since(started)
		if sleep < 0 {
			logger.Warnf("collection cycle overran interval by %s", -sleep)
			sleep = 0
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// runCycle recovers panics so a bad sensor read cannot kill the loop
func (c *Collector) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("collection cycle panicked: %v\n%s", r, debug.Stack())
		}
	}()
	c.CollectOnce(ctx)
}

// CollectOnce runs a single cycle: sample, evaluate, persist. Persistence is
// best-effort per table; a failed insert is logged and the cycle moves on so
// one unhealthy table cannot suppress the rest of the data.
func (c *Collector) CollectOnce(ctx context.Context) *CycleResult {
	result := &CycleResult{Timestamp: time.Now().UTC()}

	sys := c.sampler.SystemSnapshot(ctx)
	gpus := c.sampler.GPUSnapshots(ctx)
	tasks := c.sampler.TaskSnapshots(ctx)
	alerts := Evaluate(sys, gpus, c.thresholds)

	if err := c.system.Create(ctx, sys); err != nil {
		logger.Errorf("failed to store system metrics: %v", err)
	} else {
		result.SystemStored = true
	}

	for _, gpu := range gpus {
		if err := c.gpu.Create(ctx, gpu); err != nil {
			logger.Errorf("failed to store GPU %d metrics: %v", gpu.GPUIndex, err)
			continue
		}
		result.GPUsStored++
	}

	for _, task := range tasks {
		if err := c.task.Create(ctx, task); err != nil {
			logger.Errorf("failed to store task %s metrics: %v", task.TaskID, err)
			continue
		}
		result.TasksStored++
	}

	for _, alert := range alerts {
		if err := c.alert.Create(ctx, alert); err != nil {
			logger.Errorf("failed to store alert: %v", err)
			continue
		}
		result.AlertsRaised++

		if c.notifier != nil && alert.AlertLevel == model.AlertLevelCritical {
			if err := c.notifier.SendAlert(ctx, alert); err != nil {
				logger.Warnf("failed to notify critical alert: %v", err)
			}
		}
	}
	if result.AlertsRaised > 0 {
		logger.Warnf("collection cycle raised %d alert(s)", result.AlertsRaised)
	}

	return result
}

// CycleResult summarizes what one collection cycle persisted
type CycleResult struct {
	Timestamp    time.Time `json:"timestamp"`
	SystemStored bool      `json:"system_stored"`
	GPUsStored   int       `json:"gpus_stored"`
	TasksStored  int       `json:"tasks_stored"`
	AlertsRaised int       `json:"alerts_raised"`
}

// CleanupResult reports per-table deletion counts for one retention run
type CleanupResult struct {
	Cutoff     time.Time `json:"cutoff"`
	SystemRows int64     `json:"system_rows_deleted"`
	GPURows    int64     `json:"gpu_rows_deleted"`
	TaskRows   int64     `json:"task_rows_deleted"`
}

// Cleanup removes metric rows older than the retention window from all three
// metric tables. Alerts are never cleaned; they are the audit trail.
func (c *Collector) Cleanup(ctx context.Context, retentionDays int) (*CleanupResult, error) {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return c.cleanupBefore(ctx, time.Now().UTC().AddDate(0, 0, -retentionDays))
}

// cleanupBefore deletes rows strictly older than cutoff from each metric
// table; a row stamped exactly at the cutoff survives.
func (c *Collector) cleanupBefore(ctx context.Context, cutoff time.Time) (*CleanupResult, error) {
	result := &CleanupResult{Cutoff: cutoff}

	var err error
	if result.SystemRows, err = c.system.CleanupBefore(ctx, cutoff); err != nil {
		return nil, err
	}
	if result.GPURows, err = c.gpu.CleanupBefore(ctx, cutoff); err != nil {
		return nil, err
	}
	if result.TaskRows, err = c.task.CleanupBefore(ctx, cutoff); err != nil {
		return nil, err
	}

	logger.Infof("retention cleanup removed %d system, %d gpu, %d task rows older than %s",
		result.SystemRows, result.GPURows, result.TaskRows, cutoff.Format(time.RFC3339))
	return result, nil
}
