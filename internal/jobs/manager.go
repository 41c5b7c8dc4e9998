package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/TasksFlow/TasksFlowBackend/pkg/logger"
)

// Job is a periodic background task owned by the Manager.
type Job interface {
	Name() string
	Interval() time.Duration
	Run(ctx context.Context) error
}

// AlignedJob defers its first run to the next interval boundary instead of
// running at process start. A daily job with AlignToInterval true fires at
// midnight, not at whatever time the process happened to come up.
type AlignedJob interface {
	Job
	AlignToInterval() bool
}

// Manager runs each registered job on its own ticker until stopped.
type Manager struct {
	ctx     context.Context
	cancel  context.CancelFunc
	jobs    []Job
	started bool

	mu sync.Mutex
	wg sync.WaitGroup
}

func NewManager(parent context.Context) *Manager {
	ctx, cancel := context.WithCancel(parent)
	return &Manager{ctx: ctx, cancel: cancel}
}

// Register adds a job. Registrations after Start are ignored.
func (m *Manager) Register(job Job) {
	if job == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		logger.Warnf("job %s registered after start, ignored", job.Name())
		return
	}
	m.jobs = append(m.jobs, job)
}

// Start launches one goroutine per registered job. Calling Start twice is a
// no-op.
func (m *Manager) Start() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	jobs := m.jobs
	m.mu.Unlock()

	for _, job := range jobs {
		m.wg.Add(1)
		go func(j Job) {
			defer m.wg.Done()
			m.run(j)
		}(job)
	}
	logger.InfoCtx(m.ctx, "started %d background jobs", len(jobs))
}

// Stop signals all jobs to exit. Use Wait to block until they have.
func (m *Manager) Stop() {
	m.cancel()
}

// Wait blocks until every job goroutine has returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) run(job Job) {
	interval := job.Interval()
	if interval <= 0 {
		interval = time.Minute
	}

	if aligned, ok := job.(AlignedJob); ok && aligned.AlignToInterval() {
		next := time.Now().Truncate(interval).Add(interval)
		wait := time.Until(next)
		logger.InfoCtx(m.ctx, "job %s aligned, first run at %s (in %v)", job.Name(), next.Format("15:04:05"), wait)

		select {
		case <-m.ctx.Done():
			return
		case <-time.After(wait):
		}
	}
	m.runOnce(job)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.runOnce(job)
		}
	}
}

func (m *Manager) runOnce(job Job) {
	started := time.Now()
	if err := job.Run(m.ctx); err != nil {
		logger.WarnCtx(m.ctx, "background job %s failed after %v: %v", job.Name(), time.Since(started).Round(time.Millisecond), err)
	}
}
