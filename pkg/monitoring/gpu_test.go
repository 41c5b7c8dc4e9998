package monitoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullGPUBackend(t *testing.T) {
	backend := NewNullGPUBackend()
	assert.False(t, backend.Available())

	gpus, err := backend.Snapshots(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, gpus)
}

func TestParseSMILine(t *testing.T) {
	gpu, err := parseSMILine("0, NVIDIA GeForce RTX 4090, 35, 4096, 24564, 55, 250.50, 30")
	require.NoError(t, err)

	assert.Equal(t, 0, gpu.GPUIndex)
	assert.Equal(t, "NVIDIA GeForce RTX 4090", gpu.GPUName)
	assert.Equal(t, 35.0, gpu.GPUUsagePercent)
	assert.InDelta(t, 4.0, gpu.GPUMemoryUsedGB, 0.01)
	assert.InDelta(t, 23.99, gpu.GPUMemoryTotalGB, 0.01)
	assert.InDelta(t, 16.67, gpu.GPUMemoryUsagePercent, 0.01)
	assert.Equal(t, 55.0, gpu.GPUTemperature)
	require.NotNil(t, gpu.GPUPowerUsageW)
	assert.Equal(t, 250.5, *gpu.GPUPowerUsageW)
	require.NotNil(t, gpu.GPUFanSpeedPercent)
	assert.Equal(t, 30.0, *gpu.GPUFanSpeedPercent)
}

func TestParseSMILine_OptionalFieldsAbsent(t *testing.T) {
	gpu, err := parseSMILine("1, Tesla T4, 0, 0, 15360, 38, [N/A], [Not Supported]")
	require.NoError(t, err)

	assert.Equal(t, 1, gpu.GPUIndex)
	assert.Equal(t, 0.0, gpu.GPUMemoryUsagePercent)
	assert.Nil(t, gpu.GPUPowerUsageW)
	assert.Nil(t, gpu.GPUFanSpeedPercent)
}

func TestParseSMILine_Malformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few fields", "0, gpu, 35"},
		{"bad index", "x, gpu, 35, 100, 1000, 55, 100, 30"},
		{"bad utilization", "0, gpu, n/a, 100, 1000, 55, 100, 30"},
		{"bad temperature", "0, gpu, 35, 100, 1000, cold, 100, 30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSMILine(tt.line)
			assert.Error(t, err)
		})
	}
}

func TestProbeGPUBackend_Disabled(t *testing.T) {
	backend := ProbeGPUBackend(context.Background(), false)
	assert.False(t, backend.Available())
}
