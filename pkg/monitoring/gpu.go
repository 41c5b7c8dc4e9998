package monitoring

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/TasksFlow/TasksFlowBackend/pkg/logger"
	"github.com/TasksFlow/TasksFlowBackend/pkg/store/mysql/model"
)

const (
	smiBinary  = "nvidia-smi"
	smiTimeout = 5 * time.Second
	smiQuery   = "index,name,utilization.gpu,memory.used,memory.total,temperature.gpu,power.draw,fan.speed"
)

// GPUBackend reads per-GPU state. The backend is chosen once at startup;
// an unavailable backend is represented by NullGPUBackend, not by per-cycle
// probing.
type GPUBackend interface {
	Available() bool
	Snapshots(ctx context.Context) ([]*model.GPUMetrics, error)
}

// NullGPUBackend is used on hosts without GPU tooling
type NullGPUBackend struct{}

// NewNullGPUBackend creates a backend that reports no GPUs
func NewNullGPUBackend() *NullGPUBackend {
	return &NullGPUBackend{}
}

func (*NullGPUBackend) Available() bool { return false }

func (*NullGPUBackend) Snapshots(ctx context.Context) ([]*model.GPUMetrics, error) {
	return nil, nil
}

// SMIGPUBackend shells out to nvidia-smi. The CSV query interface is stable
// across driver generations, unlike the NVML shared-library ABI.
type SMIGPUBackend struct {
	binary  string
	timeout time.Duration
}

// NewSMIGPUBackend creates an nvidia-smi backed GPU reader
func NewSMIGPUBackend() *SMIGPUBackend {
	return &SMIGPUBackend{binary: smiBinary, timeout: smiTimeout}
}

func (*SMIGPUBackend) Available() bool { return true }

// Snapshots queries all GPUs in one nvidia-smi invocation. A line that fails
// to parse is skipped with a warning so one misbehaving GPU cannot hide the
// others.
func (b *SMIGPUBackend) Snapshots(ctx context.Context) ([]*model.GPUMetrics, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, b.binary,
		"--query-gpu="+smiQuery,
		"--format=csv,noheader,nounits",
	).Output()
	if err != nil {
		return nil, fmt.Errorf("nvidia-smi query failed: %w", err)
	}

	now := time.Now().UTC()
	var gpus []*model.GPUMetrics
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		gpu, err := parseSMILine(line)
		if err != nil {
			logger.Warnf("skipping unparseable nvidia-smi line %q: %v", line, err)
			continue
		}
		gpu.Timestamp = now
		gpus = append(gpus, gpu)
	}
	return gpus, nil
}

func parseSMILine(line string) (*model.GPUMetrics, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 8 {
		return nil, fmt.Errorf("expected 8 fields, got %d", len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	index, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("bad gpu index %q: %w", fields[0], err)
	}
	usage, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return nil, fmt.Errorf("bad utilization %q: %w", fields[2], err)
	}
	memUsed, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return nil, fmt.Errorf("bad memory.used %q: %w", fields[3], err)
	}
	memTotal, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return nil, fmt.Errorf("bad memory.total %q: %w", fields[4], err)
	}
	temp, err := strconv.ParseFloat(fields[5], 64)
	if err != nil {
		return nil, fmt.Errorf("bad temperature %q: %w", fields[5], err)
	}

	gpu := &model.GPUMetrics{
		GPUIndex:         index,
		GPUName:          fields[1],
		GPUUsagePercent:  usage,
		GPUMemoryUsedGB:  memUsed / 1024,
		GPUMemoryTotalGB: memTotal / 1024,
		GPUTemperature:   temp,
	}
	if memTotal > 0 {
		gpu.GPUMemoryUsagePercent = memUsed / memTotal * 100
	}

	// Power and fan speed are optional; laptops and passively cooled cards
	// report "[N/A]" or "[Not Supported]".
	gpu.GPUPowerUsageW = optionalFloat(fields[6])
	gpu.GPUFanSpeedPercent = optionalFloat(fields[7])

	return gpu, nil
}

func optionalFloat(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ProbeGPUBackend detects GPU tooling once at startup. Unavailability is
// logged here, not on every cycle.
func ProbeGPUBackend(ctx context.Context, enabled bool) GPUBackend {
	if !enabled {
		logger.Infof("GPU monitoring disabled by config")
		return NewNullGPUBackend()
	}
	if _, err := exec.LookPath(smiBinary); err != nil {
		logger.Infof("GPU monitoring unavailable: %s not found", smiBinary)
		return NewNullGPUBackend()
	}

	backend := NewSMIGPUBackend()
	gpus, err := backend.Snapshots(ctx)
	if err != nil {
		logger.Warnf("GPU monitoring unavailable: probe query failed: %v", err)
		return NewNullGPUBackend()
	}
	logger.Infof("GPU monitoring enabled, %d device(s) detected", len(gpus))
	return backend
}
