package monitoring

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/TasksFlow/TasksFlowBackend/pkg/store/mysql/model"
)

func TestEvaluateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	th := DefaultThresholds()
	genPercent := gen.Float64Range(0, 100)

	properties.Property("values at or below threshold never fire", prop.ForAll(
		func(cpu, mem float64) bool {
			sys := &model.SystemMetrics{
				CPUUsagePercent:    cpu,
				MemoryUsagePercent: mem,
			}
			return len(Evaluate(sys, nil, th)) == 0
		},
		gen.Float64Range(0, DefaultThresholds().CPUUsage),
		gen.Float64Range(0, DefaultThresholds().MemoryUsage),
	))

	properties.Property("values above threshold always fire", prop.ForAll(
		func(excess float64) bool {
			sys := &model.SystemMetrics{CPUUsagePercent: th.CPUUsage + excess}
			alerts := Evaluate(sys, nil, th)
			return len(alerts) == 1 && alerts[0].AlertType == model.AlertTypeCPU
		},
		gen.Float64Range(0.01, 100-DefaultThresholds().CPUUsage),
	))

	properties.Property("alert count equals crossed rule count", prop.ForAll(
		func(cpu, mem, gpuUsage, gpuTemp float64) bool {
			sys := &model.SystemMetrics{
				CPUUsagePercent:    cpu,
				MemoryUsagePercent: mem,
			}
			gpus := []*model.GPUMetrics{{
				GPUUsagePercent: gpuUsage,
				GPUTemperature:  gpuTemp,
			}}

			want := 0
			if cpu > th.CPUUsage {
				want++
			}
			if mem > th.MemoryUsage {
				want++
			}
			if gpuUsage > th.GPUUsage {
				want++
			}
			if gpuTemp > th.GPUTemperature {
				want++
			}
			return len(Evaluate(sys, gpus, th)) == want
		},
		genPercent, genPercent, genPercent, gen.Float64Range(0, 110),
	))

	properties.Property("every alert carries value and threshold", prop.ForAll(
		func(cpu float64) bool {
			sys := &model.SystemMetrics{CPUUsagePercent: cpu}
			for _, a := range Evaluate(sys, nil, th) {
				if a.AlertValue != cpu || a.ThresholdValue != th.CPUUsage || a.AlertMessage == "" {
					return false
				}
			}
			return true
		},
		genPercent,
	))

	properties.TestingRun(t)
}
