package mysql

import (
	"time"

	"github.com/TasksFlow/TasksFlowBackend/pkg/store/mysql/model"
)

// DefaultAggregationBucket is the bucket width used when the caller does not
// specify one.
const DefaultAggregationBucket = 5 * time.Minute

// AggregatedBucket holds avg/max statistics for one time bucket of
// system snapshots.
type AggregatedBucket struct {
	Timestamp      time.Time `json:"timestamp"`
	SampleCount    int       `json:"sample_count"`
	AvgCPUUsage    float64   `json:"avg_cpu_usage"`
	MaxCPUUsage    float64   `json:"max_cpu_usage"`
	AvgMemoryUsage float64   `json:"avg_memory_usage"`
	MaxMemoryUsage float64   `json:"max_memory_usage"`
	AvgDiskRead    float64   `json:"avg_disk_read"`
	AvgDiskWrite   float64   `json:"avg_disk_write"`
	AvgNetworkUp   float64   `json:"avg_network_up"`
	AvgNetworkDown float64   `json:"avg_network_down"`
}

// BucketSystemMetrics groups snapshots into fixed-width buckets aligned to
// minute boundaries. Rows must be sorted ascending by timestamp; buckets with
// no rows are omitted rather than zero-filled.
func BucketSystemMetrics(rows []*model.SystemMetrics, bucket time.Duration) []*AggregatedBucket {
	if bucket <= 0 {
		bucket = DefaultAggregationBucket
	}
	bucket = bucket.Truncate(time.Minute)
	if bucket < time.Minute {
		bucket = time.Minute
	}

	var out []*AggregatedBucket
	var cur *AggregatedBucket

	flush := func() {
		if cur == nil {
			return
		}
		n := float64(cur.SampleCount)
		cur.AvgCPUUsage /= n
		cur.AvgMemoryUsage /= n
		cur.AvgDiskRead /= n
		cur.AvgDiskWrite /= n
		cur.AvgNetworkUp /= n
		cur.AvgNetworkDown /= n
		out = append(out, cur)
		cur = nil
	}

	for _, row := range rows {
		bucketStart := row.Timestamp.Truncate(bucket)
		if cur == nil || !bucketStart.Equal(cur.Timestamp) {
			flush()
			cur = &AggregatedBucket{Timestamp: bucketStart}
		}
		cur.SampleCount++
		cur.AvgCPUUsage += row.CPUUsagePercent
		cur.AvgMemoryUsage += row.MemoryUsagePercent
		cur.AvgDiskRead += row.DiskReadMB
		cur.AvgDiskWrite += row.DiskWriteMB
		cur.AvgNetworkUp += row.NetworkUploadMB
		cur.AvgNetworkDown += row.NetworkDownloadMB
		if row.CPUUsagePercent > cur.MaxCPUUsage {
			cur.MaxCPUUsage = row.CPUUsagePercent
		}
		if row.MemoryUsagePercent > cur.MaxMemoryUsage {
			cur.MaxMemoryUsage = row.MemoryUsagePercent
		}
	}
	flush()

	return out
}
