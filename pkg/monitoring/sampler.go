package monitoring

import (
	"context"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/sensors"

	"github.com/TasksFlow/TasksFlowBackend/pkg/logger"
	"github.com/TasksFlow/TasksFlowBackend/pkg/store/mysql/model"
	"github.com/TasksFlow/TasksFlowBackend/pkg/taskmanager"
)

const (
	bytesPerMiB = float64(1 << 20)
	bytesPerGiB = float64(1 << 30)
)

// Sampler reads host, GPU and task-queue state. Collection never fails as a
// whole: each metric category degrades independently to zero/nil fields with
// a warning, so one broken sensor cannot blind the rest of the system.
type Sampler struct {
	gpu   GPUBackend
	tasks taskmanager.TaskManager
}

// NewSampler creates a sampler over the given GPU backend and task manager
func NewSampler(gpu GPUBackend, tasks taskmanager.TaskManager) *Sampler {
	if gpu == nil {
		gpu = NewNullGPUBackend()
	}
	if tasks == nil {
		tasks = taskmanager.NewNullTaskManager()
	}
	return &Sampler{gpu: gpu, tasks: tasks}
}

// SystemSnapshot collects one host-level sample
func (s *Sampler) SystemSnapshot(ctx context.Context) *model.SystemMetrics {
	m := &model.SystemMetrics{Timestamp: time.Now().UTC()}

	s.collectCPU(ctx, m)
	s.collectMemory(ctx, m)
	s.collectDisk(ctx, m)
	s.collectNetwork(ctx, m)
	s.collectHost(ctx, m)
	s.collectQueue(ctx, m)

	return m
}

// GPUSnapshots collects one sample per visible GPU
func (s *Sampler) GPUSnapshots(ctx context.Context) []*model.GPUMetrics {
	if !s.gpu.Available() {
		return nil
	}
	gpus, err := s.gpu.Snapshots(ctx)
	if err != nil {
		logger.Warnf("failed to collect GPU metrics: %v", err)
		return nil
	}
	return gpus
}

// TaskSnapshots collects one sample per active task
func (s *Sampler) TaskSnapshots(ctx context.Context) []*model.TaskMetrics {
	tasks, err := s.tasks.ActiveTasks(ctx)
	if err != nil {
		logger.Warnf("failed to list active tasks: %v", err)
		return nil
	}

	now := time.Now().UTC()
	rows := make([]*model.TaskMetrics, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, &model.TaskMetrics{
			Timestamp:      now,
			TaskID:         t.TaskID,
			TaskName:       t.TaskName,
			TaskStatus:     t.Status,
			ProcessCommand: t.Command,
		})
	}
	return rows
}

// GPUAvailable reports whether a GPU backend was detected at startup
func (s *Sampler) GPUAvailable() bool {
	return s.gpu.Available()
}

func (s *Sampler) collectCPU(ctx context.Context, m *model.SystemMetrics) {
	if total, err := cpu.PercentWithContext(ctx, 0, false); err != nil {
		logger.Warnf("failed to read cpu usage: %v", err)
	} else if len(total) > 0 {
		m.CPUUsagePercent = total[0]
	}

	if perCore, err := cpu.PercentWithContext(ctx, 0, true); err == nil {
		m.CPUPerCoreUsage = perCore
	}

	if cores, err := cpu.CountsWithContext(ctx, true); err == nil {
		m.CPUCores = cores
	}

	if info, err := cpu.InfoWithContext(ctx); err == nil && len(info) > 0 && info[0].Mhz > 0 {
		mhz := info[0].Mhz
		m.CPUFrequencyMHz = &mhz
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		m.LoadAverage1m = avg.Load1
		m.LoadAverage5m = avg.Load5
		m.LoadAverage15m = avg.Load15
	}

	m.CPUTemperature = cpuTemperature(ctx)
}

// cpuTemperature picks the first sensor that looks like a CPU package or core
// probe. Most VMs and containers expose none; nil means unavailable.
func cpuTemperature(ctx context.Context) *float64 {
	temps, err := sensors.TemperaturesWithContext(ctx)
	if err != nil || len(temps) == 0 {
		return nil
	}
	for _, t := range temps {
		key := strings.ToLower(t.SensorKey)
		if strings.Contains(key, "coretemp") || strings.Contains(key, "cpu") || strings.Contains(key, "core") {
			v := t.Temperature
			return &v
		}
	}
	return nil
}

func (s *Sampler) collectMemory(ctx context.Context, m *model.SystemMetrics) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		logger.Warnf("failed to read memory stats: %v", err)
	} else {
		m.MemoryUsagePercent = vm.UsedPercent
		m.MemoryUsedGB = float64(vm.Used) / bytesPerGiB
		m.MemoryTotalGB = float64(vm.Total) / bytesPerGiB
		m.MemoryAvailableGB = float64(vm.Available) / bytesPerGiB
		m.MemoryCachedGB = float64(vm.Cached) / bytesPerGiB
	}

	if swap, err := mem.SwapMemoryWithContext(ctx); err == nil {
		m.SwapUsedGB = float64(swap.Used) / bytesPerGiB
		m.SwapTotalGB = float64(swap.Total) / bytesPerGiB
	}
}

func (s *Sampler) collectDisk(ctx context.Context, m *model.SystemMetrics) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		logger.Warnf("failed to list disk partitions: %v", err)
	} else {
		usage := make(model.JSONFloatMap)
		for _, p := range partitions {
			u, err := disk.UsageWithContext(ctx, p.Mountpoint)
			if err != nil {
				continue
			}
			label, keep := partitionLabel(diskPartition{
				Device:     p.Device,
				Mountpoint: p.Mountpoint,
				Fstype:     p.Fstype,
				TotalBytes: u.Total,
			})
			if !keep {
				continue
			}
			usage[label] = u.UsedPercent
		}
		if len(usage) > 0 {
			m.DiskUsagePercent = usage
		}
	}

	if counters, err := disk.IOCountersWithContext(ctx); err == nil {
		var readBytes, writeBytes, readOps, writeOps uint64
		for _, c := range counters {
			readBytes += c.ReadBytes
			writeBytes += c.WriteBytes
			readOps += c.ReadCount
			writeOps += c.WriteCount
		}
		m.DiskReadMB = float64(readBytes) / bytesPerMiB
		m.DiskWriteMB = float64(writeBytes) / bytesPerMiB
		m.DiskReadOps = float64(readOps)
		m.DiskWriteOps = float64(writeOps)
	}
}

func (s *Sampler) collectNetwork(ctx context.Context, m *model.SystemMetrics) {
	counters, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		logger.Warnf("failed to read network counters: %v", err)
	} else if len(counters) > 0 {
		m.NetworkUploadMB = float64(counters[0].BytesSent) / bytesPerMiB
		m.NetworkDownloadMB = float64(counters[0].BytesRecv) / bytesPerMiB
	}

	// Connection listing needs elevated permissions on some platforms; zero
	// is the degraded value, not an error.
	if conns, err := net.ConnectionsWithContext(ctx, "inet"); err == nil {
		m.NetworkConnections = len(conns)
	}
}

func (s *Sampler) collectHost(ctx context.Context, m *model.SystemMetrics) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		logger.Warnf("failed to read host info: %v", err)
		return
	}
	m.SystemUptimeSec = float64(info.Uptime)
	m.ProcessCount = int(info.Procs)
}

func (s *Sampler) collectQueue(ctx context.Context, m *model.SystemMetrics) {
	queueLen, active, err := s.tasks.QueueStats(ctx)
	if err != nil {
		logger.Warnf("failed to read task queue stats: %v", err)
		return
	}
	m.TaskQueueLength = queueLen
	m.ActiveTasksCount = active
}
