package monitoring

import (
	"fmt"
	"sort"

	"github.com/TasksFlow/TasksFlowBackend/pkg/store/mysql/model"
)

// criticalCutoff escalates usage-percent alerts from warning to critical
const criticalCutoff = 95.0

// gpuTempCritical escalates GPU temperature alerts above this Celsius value
const gpuTempCritical = 85.0

// Evaluate compares one collection cycle against the thresholds and returns
// the alerts it raises. Pure: no clock, no store, no dedup against earlier
// cycles. A nil system sample skips the host-level rules; absent sensor
// values never fire.
func Evaluate(sys *model.SystemMetrics, gpus []*model.GPUMetrics, th Thresholds) []*model.MonitoringAlert {
	var alerts []*model.MonitoringAlert

	if sys != nil {
		if sys.CPUUsagePercent > th.CPUUsage {
			alerts = append(alerts, &model.MonitoringAlert{
				AlertType:      model.AlertTypeCPU,
				AlertLevel:     usageLevel(sys.CPUUsagePercent),
				AlertMessage:   fmt.Sprintf("CPU usage at %.1f%%", sys.CPUUsagePercent),
				AlertValue:     sys.CPUUsagePercent,
				ThresholdValue: th.CPUUsage,
			})
		}
		if sys.MemoryUsagePercent > th.MemoryUsage {
			alerts = append(alerts, &model.MonitoringAlert{
				AlertType:      model.AlertTypeMemory,
				AlertLevel:     usageLevel(sys.MemoryUsagePercent),
				AlertMessage:   fmt.Sprintf("Memory usage at %.1f%%", sys.MemoryUsagePercent),
				AlertValue:     sys.MemoryUsagePercent,
				ThresholdValue: th.MemoryUsage,
			})
		}
		for _, mount := range sortedKeys(sys.DiskUsagePercent) {
			used := sys.DiskUsagePercent[mount]
			if used > th.DiskUsage {
				alerts = append(alerts, &model.MonitoringAlert{
					AlertType:      model.AlertTypeDisk,
					AlertLevel:     usageLevel(used),
					AlertMessage:   fmt.Sprintf("Disk usage on %s at %.1f%%", mount, used),
					AlertValue:     used,
					ThresholdValue: th.DiskUsage,
				})
			}
		}
	}

	for _, gpu := range gpus {
		if gpu == nil {
			continue
		}
		if gpu.GPUUsagePercent > th.GPUUsage {
			alerts = append(alerts, &model.MonitoringAlert{
				AlertType:      model.AlertTypeGPU,
				AlertLevel:     model.AlertLevelWarning,
				AlertMessage:   fmt.Sprintf("GPU %d usage at %.1f%%", gpu.GPUIndex, gpu.GPUUsagePercent),
				AlertValue:     gpu.GPUUsagePercent,
				ThresholdValue: th.GPUUsage,
			})
		}
		if gpu.GPUMemoryUsagePercent > th.GPUMemory {
			alerts = append(alerts, &model.MonitoringAlert{
				AlertType:      model.AlertTypeGPU,
				AlertLevel:     model.AlertLevelWarning,
				AlertMessage:   fmt.Sprintf("GPU %d memory at %.1f%%", gpu.GPUIndex, gpu.GPUMemoryUsagePercent),
				AlertValue:     gpu.GPUMemoryUsagePercent,
				ThresholdValue: th.GPUMemory,
			})
		}
		if gpu.GPUTemperature > th.GPUTemperature {
			level := model.AlertLevelWarning
			if gpu.GPUTemperature > gpuTempCritical {
				level = model.AlertLevelCritical
			}
			alerts = append(alerts, &model.MonitoringAlert{
				AlertType:      model.AlertTypeGPU,
				AlertLevel:     level,
				AlertMessage:   fmt.Sprintf("GPU %d temperature at %.1f°C", gpu.GPUIndex, gpu.GPUTemperature),
				AlertValue:     gpu.GPUTemperature,
				ThresholdValue: th.GPUTemperature,
			})
		}
	}

	return alerts
}

func usageLevel(value float64) model.AlertLevel {
	if value >= criticalCutoff {
		return model.AlertLevelCritical
	}
	return model.AlertLevelWarning
}

// sortedKeys keeps alert ordering stable across cycles
func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
