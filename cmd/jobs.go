package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/TasksFlow/TasksFlowBackend/internal/jobs"
	"github.com/TasksFlow/TasksFlowBackend/pkg/lock"
	"github.com/TasksFlow/TasksFlowBackend/pkg/logger"
	"github.com/TasksFlow/TasksFlowBackend/pkg/monitoring"
)

func (app *Application) initJobs() error {
	manager := jobs.NewManager(app.ctx)

	// The retention lock prevents multiple replicas from deleting the same
	// rows; with no Redis it degrades to single-instance mode.
	var redisClient *redis.Client
	if app.redisClient != nil {
		redisClient = app.redisClient.GetClient()
	}
	retentionLock := lock.NewRedisLock(redisClient, "monitoring:retention-lock")

	manager.Register(newRetentionCleanupJob(
		24*time.Hour,
		app.collector,
		app.config.Monitoring.RetentionDays,
		retentionLock,
	))

	app.jobsManager = manager
	return nil
}

// retentionCleanupJob purges metric rows past the retention window once a day
type retentionCleanupJob struct {
	interval      time.Duration
	collector     *monitoring.Collector
	retentionDays int
	lock          lock.Lock
}

func newRetentionCleanupJob(interval time.Duration, collector *monitoring.Collector, retentionDays int, l lock.Lock) jobs.Job {
	return &retentionCleanupJob{
		interval:      interval,
		collector:     collector,
		retentionDays: retentionDays,
		lock:          l,
	}
}

func (j *retentionCleanupJob) Name() string {
	return "metric-retention-cleanup"
}

func (j *retentionCleanupJob) Interval() time.Duration {
	return j.interval
}

// AlignToInterval runs the purge at day boundaries instead of process start
func (j *retentionCleanupJob) AlignToInterval() bool {
	return true
}

func (j *retentionCleanupJob) Run(ctx context.Context) error {
	if j.collector == nil {
		return fmt.Errorf("collector not configured")
	}

	if j.lock != nil {
		acquired, err := j.lock.TryLock(ctx)
		if err != nil || !acquired {
			logger.DebugCtx(ctx, "another instance is running retention cleanup, skipping this cycle")
			return nil
		}
		defer j.lock.Unlock(ctx)
	}

	_, err := j.collector.Cleanup(ctx, j.retentionDays)
	return err
}
