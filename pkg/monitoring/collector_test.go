package monitoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TasksFlow/TasksFlowBackend/pkg/store/mysql"
	"github.com/TasksFlow/TasksFlowBackend/pkg/store/mysql/model"
	"github.com/TasksFlow/TasksFlowBackend/pkg/taskmanager"
)

type memSystemStore struct {
	mu          sync.Mutex
	rows        []*model.SystemMetrics
	createdAt   []time.Time
	createErr   error
	createDelay time.Duration
}

func (s *memSystemStore) Create(ctx context.Context, m *model.SystemMetrics) error {
	s.mu.Lock()
	s.createdAt = append(s.createdAt, time.Now())
	s.mu.Unlock()

	if s.createDelay > 0 {
		time.Sleep(s.createDelay)
	}
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, m)
	return nil
}

func (s *memSystemStore) Latest(ctx context.Context) (*model.SystemMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rows) == 0 {
		return nil, mysql.ErrNotFound
	}
	return s.rows[len(s.rows)-1], nil
}

func (s *memSystemStore) CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rows[:0]
	var deleted int64
	for _, r := range s.rows {
		if r.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	s.rows = kept
	return deleted, nil
}

func (s *memSystemStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *memSystemStore) createTimes() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.createdAt...)
}

type memGPUStore struct {
	mu        sync.Mutex
	rows      []*model.GPUMetrics
	latestErr error
}

func (s *memGPUStore) Create(ctx context.Context, m *model.GPUMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, m)
	return nil
}

func (s *memGPUStore) LatestPerGPU(ctx context.Context) ([]*model.GPUMetrics, error) {
	if s.latestErr != nil {
		return nil, s.latestErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	latest := map[int]*model.GPUMetrics{}
	for _, r := range s.rows {
		latest[r.GPUIndex] = r
	}
	out := make([]*model.GPUMetrics, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	return out, nil
}

func (s *memGPUStore) CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type memTaskStore struct {
	mu   sync.Mutex
	rows []*model.TaskMetrics
}

func (s *memTaskStore) Create(ctx context.Context, m *model.TaskMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, m)
	return nil
}

func (s *memTaskStore) CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type memAlertStore struct {
	mu        sync.Mutex
	rows      []*model.MonitoringAlert
	activeErr error
}

func (s *memAlertStore) Create(ctx context.Context, a *model.MonitoringAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, a)
	return nil
}

func (s *memAlertStore) Active(ctx context.Context, limit int) ([]*model.MonitoringAlert, error) {
	if s.activeErr != nil {
		return nil, s.activeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.MonitoringAlert
	for _, a := range s.rows {
		if a.Status == "" || a.Status == model.AlertStatusActive {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeGPUBackend struct {
	gpus []*model.GPUMetrics
	err  error
}

func (b *fakeGPUBackend) Available() bool { return true }

func (b *fakeGPUBackend) Snapshots(ctx context.Context) ([]*model.GPUMetrics, error) {
	return b.gpus, b.err
}

type fakeTaskManager struct {
	queueLen int
	active   int
	tasks    []taskmanager.TaskInfo
	err      error
}

func (m *fakeTaskManager) QueueStats(ctx context.Context) (int, int, error) {
	return m.queueLen, m.active, m.err
}

func (m *fakeTaskManager) ActiveTasks(ctx context.Context) ([]taskmanager.TaskInfo, error) {
	return m.tasks, m.err
}

func (m *fakeTaskManager) Close() error { return nil }

func newTestCollector(gpu GPUBackend, tm taskmanager.TaskManager) (*Collector, *memSystemStore, *memGPUStore, *memTaskStore, *memAlertStore) {
	system := &memSystemStore{}
	gpus := &memGPUStore{}
	tasks := &memTaskStore{}
	alerts := &memAlertStore{}
	sampler := NewSampler(gpu, tm)
	c := NewCollector(sampler, DefaultThresholds(), 50*time.Millisecond, system, gpus, tasks, alerts)
	return c, system, gpus, tasks, alerts
}

func TestCollectOnce_PersistsAllCategories(t *testing.T) {
	gpu := &fakeGPUBackend{gpus: []*model.GPUMetrics{
		{GPUIndex: 0, GPUUsagePercent: 95},
		{GPUIndex: 1, GPUUsagePercent: 10},
	}}
	tm := &fakeTaskManager{
		queueLen: 3,
		active:   1,
		tasks:    []taskmanager.TaskInfo{{TaskID: "t1", TaskName: "task:submit", Status: "running"}},
	}

	c, system, gpus, tasks, alerts := newTestCollector(gpu, tm)
	result := c.CollectOnce(context.Background())

	assert.True(t, result.SystemStored)
	assert.Equal(t, 2, result.GPUsStored)
	assert.Equal(t, 1, result.TasksStored)
	assert.Equal(t, 1, result.AlertsRaised) // GPU 0 over the usage threshold

	assert.Equal(t, 1, system.count())
	assert.Len(t, gpus.rows, 2)
	assert.Len(t, tasks.rows, 1)
	require.Len(t, alerts.rows, 1)
	assert.Equal(t, model.AlertTypeGPU, alerts.rows[0].AlertType)

	sys, err := system.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sys.TaskQueueLength)
	assert.Equal(t, 1, sys.ActiveTasksCount)
	assert.False(t, sys.Timestamp.IsZero())
}

func TestCollectOnce_SystemStoreFailureDoesNotBlockOthers(t *testing.T) {
	gpu := &fakeGPUBackend{gpus: []*model.GPUMetrics{{GPUIndex: 0}}}
	c, system, gpus, _, _ := newTestCollector(gpu, &fakeTaskManager{})
	system.createErr = errors.New("table full")

	result := c.CollectOnce(context.Background())

	assert.False(t, result.SystemStored)
	assert.Equal(t, 1, result.GPUsStored)
	assert.Len(t, gpus.rows, 1)
}

func TestCollectOnce_GPUBackendFailureDegrades(t *testing.T) {
	gpu := &fakeGPUBackend{err: errors.New("driver wedged")}
	c, system, gpus, _, _ := newTestCollector(gpu, &fakeTaskManager{})

	result := c.CollectOnce(context.Background())

	assert.True(t, result.SystemStored)
	assert.Equal(t, 0, result.GPUsStored)
	assert.Empty(t, gpus.rows)
	assert.Equal(t, 1, system.count())
}

func TestCollector_StartIsIdempotent(t *testing.T) {
	c, system, _, _, _ := newTestCollector(NewNullGPUBackend(), &fakeTaskManager{})

	c.Start()
	c.Start() // no-op with warning
	assert.True(t, c.Running())

	assert.Eventually(t, func() bool { return system.count() >= 1 },
		2*time.Second, 10*time.Millisecond)

	c.Stop()
	assert.False(t, c.Running())

	// a second Stop must not block or panic
	c.Stop()
}

func TestCollector_OverrunCycleStartsImmediately(t *testing.T) {
	c, system, _, _, _ := newTestCollector(NewNullGPUBackend(), &fakeTaskManager{})
	c.interval = 100 * time.Millisecond
	system.createDelay = 250 * time.Millisecond // every cycle overruns the interval

	c.Start()
	assert.Eventually(t, func() bool { return system.count() >= 2 },
		5*time.Second, 10*time.Millisecond)
	c.Stop()

	starts := system.createTimes()
	require.GreaterOrEqual(t, len(starts), 2)

	// An overrun cycle starts the next one immediately: the gap between
	// consecutive cycle starts is the cycle duration, not duration+interval.
	gap := starts[1].Sub(starts[0])
	assert.GreaterOrEqual(t, gap, system.createDelay)
	assert.Less(t, gap, system.createDelay+c.interval)
}

func TestCollector_Status(t *testing.T) {
	c, _, _, _, _ := newTestCollector(NewNullGPUBackend(), &fakeTaskManager{})

	status := c.Status()
	assert.False(t, status.Running)
	assert.Equal(t, 0, status.IntervalSeconds) // sub-second test interval
	assert.False(t, status.GPUAvailable)
	assert.Equal(t, DefaultThresholds(), status.Thresholds)
}

func TestCollector_Cleanup(t *testing.T) {
	c, system, _, _, _ := newTestCollector(NewNullGPUBackend(), &fakeTaskManager{})

	old := &model.SystemMetrics{Timestamp: time.Now().UTC().AddDate(0, 0, -40)}
	fresh := &model.SystemMetrics{Timestamp: time.Now().UTC()}
	require.NoError(t, system.Create(context.Background(), old))
	require.NoError(t, system.Create(context.Background(), fresh))

	result, err := c.Cleanup(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.SystemRows)
	assert.Equal(t, 1, system.count())
}

func TestCollector_CleanupKeepsRowAtCutoff(t *testing.T) {
	c, system, _, _, _ := newTestCollector(NewNullGPUBackend(), &fakeTaskManager{})

	cutoff := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	older := &model.SystemMetrics{Timestamp: cutoff.Add(-time.Second)}
	atCutoff := &model.SystemMetrics{Timestamp: cutoff}
	newer := &model.SystemMetrics{Timestamp: cutoff.Add(time.Second)}
	for _, m := range []*model.SystemMetrics{older, atCutoff, newer} {
		require.NoError(t, system.Create(context.Background(), m))
	}

	result, err := c.cleanupBefore(context.Background(), cutoff)
	require.NoError(t, err)

	// Only the strictly-older row goes; the row stamped exactly at the
	// cutoff stays.
	assert.Equal(t, int64(1), result.SystemRows)
	require.Equal(t, 2, system.count())
	assert.Equal(t, cutoff, system.rows[0].Timestamp)
}
