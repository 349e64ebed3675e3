package metrics

import (
	"sync/atomic"
	"time"

	"github.com/volli/core/pkg/provider"
)

// PoolMetricsObserver implements provider.PoolObserver and records batch
// worker-pool metrics: how many batches ran, how many jobs they carried,
// and how long they took.
type PoolMetricsObserver struct {
	batchesTotal   atomic.Uint64
	batchesFailed  atomic.Uint64
	queueFullTotal atomic.Uint64
	jobsTotal      atomic.Uint64

	batchLatency *Histogram

	logger   *Logger
	poolName string
}

// PoolAcquireLatencyBuckets (retained name) buckets batch duration in
// milliseconds.
var PoolAcquireLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000}

// PoolMetricsObserverConfig configures a pool metrics observer.
type PoolMetricsObserverConfig struct {
	Logger   *Logger
	PoolName string
}

// NewPoolMetricsObserver creates a new pool metrics observer.
func NewPoolMetricsObserver(cfg PoolMetricsObserverConfig) *PoolMetricsObserver {
	if cfg.Logger == nil {
		cfg.Logger = GetLogger()
	}
	if cfg.PoolName == "" {
		cfg.PoolName = "default"
	}

	return &PoolMetricsObserver{
		batchLatency: NewHistogram(PoolAcquireLatencyBuckets),
		logger:       cfg.Logger.Named("pool").With(Fields{"pool": cfg.PoolName}),
		poolName:     cfg.PoolName,
	}
}

var _ provider.PoolObserver = (*PoolMetricsObserver)(nil)

// OnBatchStart implements provider.PoolObserver.
func (o *PoolMetricsObserver) OnBatchStart(n, workers int) {
	o.batchesTotal.Add(1)
	o.jobsTotal.Add(uint64(n))
	o.logger.Debug("batch started", Fields{"jobs": n, "workers": workers})
}

// OnBatchComplete implements provider.PoolObserver.
func (o *PoolMetricsObserver) OnBatchComplete(d time.Duration, failed bool) {
	o.batchLatency.Observe(float64(d.Milliseconds()))
	if failed {
		o.batchesFailed.Add(1)
		o.logger.Warn("batch completed with failures", Fields{"duration_ms": d.Milliseconds()})
		return
	}
	o.logger.Debug("batch completed", Fields{"duration_ms": d.Milliseconds()})
}

// OnQueueFull implements provider.PoolObserver.
func (o *PoolMetricsObserver) OnQueueFull(n, queueSize int) {
	o.queueFullTotal.Add(1)
	o.logger.Warn("batch rejected: queue full", Fields{"requested": n, "queue_size": queueSize})
}

// PoolMetricsSnapshot is a snapshot of pool metrics.
type PoolMetricsSnapshot struct {
	BatchesTotal   uint64
	BatchesFailed  uint64
	QueueFullTotal uint64
	JobsTotal      uint64

	BatchLatency HistogramSummary

	PoolName string
}

// Snapshot returns a point-in-time snapshot of pool metrics.
func (o *PoolMetricsObserver) Snapshot() PoolMetricsSnapshot {
	return PoolMetricsSnapshot{
		BatchesTotal:   o.batchesTotal.Load(),
		BatchesFailed:  o.batchesFailed.Load(),
		QueueFullTotal: o.queueFullTotal.Load(),
		JobsTotal:      o.jobsTotal.Load(),
		BatchLatency:   o.batchLatency.Summary(),
		PoolName:       o.poolName,
	}
}

// Reset clears all metrics (useful for testing).
func (o *PoolMetricsObserver) Reset() {
	o.batchesTotal.Store(0)
	o.batchesFailed.Store(0)
	o.queueFullTotal.Store(0)
	o.jobsTotal.Store(0)
	o.batchLatency.Reset()
}
