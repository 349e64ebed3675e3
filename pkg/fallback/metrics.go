package fallback

import (
	"math"
	"sync"
	"time"

	"github.com/volli/core/internal/constants"
	"github.com/volli/core/pkg/metrics"
)

// OperationSample records one guarded call's outcome for the rolling
// metrics ring.
type OperationSample struct {
	UsedPrimary bool
	Success     bool
	DurationMs  float64
	Timestamp   time.Time
}

// latencyBucketsMs are the histogram bucket boundaries for guarded
// operation latency, spanning sub-millisecond provider calls up to
// multi-second fallback timeouts.
var latencyBucketsMs = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Metrics accumulates statistics for one guarded operation: latency mean
// and percentiles via a pkg/metrics.Histogram, a bounded ring tracking
// which recent calls used the primary path, and an uptime EMA
// (0.9*prev + 0.1*healthWeight*100) used to drive the health check's
// HealthStatus classification.
type Metrics struct {
	mu sync.Mutex

	latency *metrics.Histogram

	primaryUsed []bool
	next        int
	count       int
	capacity    int

	uptimeEMA float64 // 0-100
}

// NewMetrics creates a Metrics instance with the given primary-usage ring
// capacity. Zero means constants.MetricRingCapacity.
func NewMetrics(capacity int) *Metrics {
	if capacity <= 0 {
		capacity = constants.MetricRingCapacity
	}
	return &Metrics{
		latency:     metrics.NewHistogram(latencyBucketsMs),
		primaryUsed: make([]bool, capacity),
		capacity:    capacity,
		uptimeEMA:   100,
	}
}

// Record adds a sample, observing its latency in the histogram and
// updating the primary-usage ring and the uptime EMA. healthWeight is 1.0
// for a success and 0.0 for a failure; the EMA therefore decays toward 0
// under sustained failures and recovers toward 100 under sustained
// successes.
func (m *Metrics) Record(s OperationSample) {
	m.latency.Observe(s.DurationMs)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.primaryUsed[m.next] = s.UsedPrimary
	m.next = (m.next + 1) % m.capacity
	if m.count < m.capacity {
		m.count++
	}

	healthWeight := 0.0
	if s.Success {
		healthWeight = 1.0
	}
	m.uptimeEMA = 0.9*m.uptimeEMA + 0.1*healthWeight*100
}

// AverageLatencyMs returns the mean latency observed across all recorded
// samples, via the underlying Histogram.
func (m *Metrics) AverageLatencyMs() float64 {
	return m.latency.Mean()
}

// UptimeScore returns the current uptime EMA (0-100).
func (m *Metrics) UptimeScore() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uptimeEMA
}

// Health classifies the current uptime EMA into a HealthStatus: >=90
// healthy, >=50 degraded, otherwise unhealthy.
func (m *Metrics) Health() constants.HealthStatus {
	score := m.UptimeScore()
	switch {
	case score >= 90:
		return constants.HealthHealthy
	case score >= 50:
		return constants.HealthDegraded
	default:
		return constants.HealthUnhealthy
	}
}

// PrimaryUsageRatio returns the fraction of samples currently in the ring
// that used the primary path, for rollout/health dashboards.
func (m *Metrics) PrimaryUsageRatio() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.count == 0 {
		return 0
	}
	used := 0
	for i := 0; i < m.count; i++ {
		if m.primaryUsed[i] {
			used++
		}
	}
	return float64(used) / float64(m.count)
}

// ApproximatePercentile returns an approximate latency percentile (0-100)
// across all recorded samples, using the underlying Histogram's
// bucket-interpolated estimator. The Histogram tracks p50/p90/p95/p99;
// any other p is satisfied by its nearest tracked neighbor.
func (m *Metrics) ApproximatePercentile(p float64) float64 {
	summary := m.latency.Summary()
	if len(summary.Percentiles) == 0 {
		return 0
	}

	q := p / 100
	if v, ok := summary.Percentiles[q]; ok {
		return v
	}

	var nearest float64
	bestDiff := math.MaxFloat64
	for tracked, v := range summary.Percentiles {
		if diff := math.Abs(q - tracked); diff < bestDiff {
			bestDiff = diff
			nearest = v
		}
	}
	return nearest
}
