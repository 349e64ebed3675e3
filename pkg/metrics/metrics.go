// Package metrics provides observability primitives for the hybrid
// cryptographic core and identity vault.
//
// The package includes:
//   - the Collector (atomic counters) and Histogram metric types
//   - Prometheus-compatible metrics export
//   - OpenTelemetry tracing support
//   - Structured logging with levels
//   - Health check functionality
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector aggregates metrics from the hybrid KEM, hybrid signature, AEAD,
// vault, and emergency-access layers.
type Collector struct {
	// Hybrid KEM metrics
	encapsulations       atomic.Uint64
	encapsulationsFailed atomic.Uint64
	decapsulations       atomic.Uint64
	decapsulationsFailed atomic.Uint64
	kemLatency           *Histogram

	// Hybrid signature metrics
	signs            atomic.Uint64
	signsFailed      atomic.Uint64
	verifies         atomic.Uint64
	verifiesFailed   atomic.Uint64
	signatureLatency *Histogram

	// Security-level metrics: how often operations degrade below full
	// hybrid protection.
	degradedClassicalOnly  atomic.Uint64
	degradedPostQuantumOnly atomic.Uint64
	securityLevelFailed    atomic.Uint64

	// AEAD metrics
	aeadSeals       atomic.Uint64
	aeadOpens       atomic.Uint64
	aeadOpenFailed  atomic.Uint64
	aeadLatency     *Histogram

	// Vault metrics
	backupsCreated     atomic.Uint64
	recoveriesSucceeded atomic.Uint64
	recoveriesFailed    atomic.Uint64

	// Emergency-access metrics
	emergencySessionsActivated atomic.Uint64
	emergencySessionsDenied    atomic.Uint64
	emergencySessionsExpired   atomic.Uint64

	// Circuit breaker / fallback metrics
	breakerTrips      atomic.Uint64
	breakerHalfOpens  atomic.Uint64
	fallbacksUsed     atomic.Uint64

	// Creation time for uptime tracking
	createdAt time.Time

	// Labels for this collector instance
	labels Labels
}

// Labels represents key-value pairs for metric labeling.
type Labels map[string]string

// NewCollector creates a new metrics collector.
func NewCollector(labels Labels) *Collector {
	if labels == nil {
		labels = make(Labels)
	}

	return &Collector{
		kemLatency:       NewHistogram(LatencyBuckets),
		signatureLatency: NewHistogram(LatencyBuckets),
		aeadLatency:      NewHistogram(LatencyBuckets),
		createdAt:        time.Now(),
		labels:           labels,
	}
}

// Default bucket configurations for histograms.
var (
	// LatencyBuckets for crypto operations (microseconds).
	LatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000}
)

// --- Hybrid KEM Metrics ---

// RecordEncapsulation records a hybrid KEM encapsulation attempt.
func (c *Collector) RecordEncapsulation(d time.Duration, err error) {
	c.encapsulations.Add(1)
	c.kemLatency.Observe(float64(d.Microseconds()))
	if err != nil {
		c.encapsulationsFailed.Add(1)
	}
}

// RecordDecapsulation records a hybrid KEM decapsulation attempt.
func (c *Collector) RecordDecapsulation(d time.Duration, err error) {
	c.decapsulations.Add(1)
	c.kemLatency.Observe(float64(d.Microseconds()))
	if err != nil {
		c.decapsulationsFailed.Add(1)
	}
}

// --- Hybrid Signature Metrics ---

// RecordSign records a hybrid signature attempt.
func (c *Collector) RecordSign(d time.Duration, err error) {
	c.signs.Add(1)
	c.signatureLatency.Observe(float64(d.Microseconds()))
	if err != nil {
		c.signsFailed.Add(1)
	}
}

// RecordVerify records a hybrid signature verification attempt.
func (c *Collector) RecordVerify(d time.Duration, err error) {
	c.verifies.Add(1)
	c.signatureLatency.Observe(float64(d.Microseconds()))
	if err != nil {
		c.verifiesFailed.Add(1)
	}
}

// --- Security Level Metrics ---

// RecordSecurityLevel tallies the explicit degradation level an operation
// reported, per the FULL / CLASSICAL_ONLY / POST_QUANTUM_ONLY / FAILED
// levels surfaced by pkg/hybrid.
func (c *Collector) RecordSecurityLevel(level string) {
	switch level {
	case "CLASSICAL_ONLY":
		c.degradedClassicalOnly.Add(1)
	case "POST_QUANTUM_ONLY":
		c.degradedPostQuantumOnly.Add(1)
	case "FAILED":
		c.securityLevelFailed.Add(1)
	}
}

// --- AEAD Metrics ---

// RecordAEADSeal records an AEAD seal operation.
func (c *Collector) RecordAEADSeal(d time.Duration) {
	c.aeadSeals.Add(1)
	c.aeadLatency.Observe(float64(d.Microseconds()))
}

// RecordAEADOpen records an AEAD open operation.
func (c *Collector) RecordAEADOpen(d time.Duration, err error) {
	c.aeadOpens.Add(1)
	c.aeadLatency.Observe(float64(d.Microseconds()))
	if err != nil {
		c.aeadOpenFailed.Add(1)
	}
}

// --- Vault Metrics ---

// RecordBackupCreated increments the portable-backup counter.
func (c *Collector) RecordBackupCreated() {
	c.backupsCreated.Add(1)
}

// RecordRecovery records the outcome of a vault recovery attempt.
func (c *Collector) RecordRecovery(success bool) {
	if success {
		c.recoveriesSucceeded.Add(1)
		return
	}
	c.recoveriesFailed.Add(1)
}

// --- Emergency-Access Metrics ---

// RecordEmergencyActivation records the outcome of an emergency-session
// activation attempt.
func (c *Collector) RecordEmergencyActivation(allowed bool) {
	if allowed {
		c.emergencySessionsActivated.Add(1)
		return
	}
	c.emergencySessionsDenied.Add(1)
}

// RecordEmergencySessionExpired records a session that ran past its
// time limit instead of being explicitly terminated.
func (c *Collector) RecordEmergencySessionExpired() {
	c.emergencySessionsExpired.Add(1)
}

// --- Circuit Breaker / Fallback Metrics ---

// RecordBreakerTrip records the breaker moving CLOSED/HALF_OPEN -> OPEN.
func (c *Collector) RecordBreakerTrip() {
	c.breakerTrips.Add(1)
}

// RecordBreakerHalfOpen records the breaker moving OPEN -> HALF_OPEN.
func (c *Collector) RecordBreakerHalfOpen() {
	c.breakerHalfOpens.Add(1)
}

// RecordFallbackUsed records an Engine.Execute call that used the
// fallback path instead of the primary.
func (c *Collector) RecordFallbackUsed() {
	c.fallbacksUsed.Add(1)
}

// --- Snapshot ---

// Snapshot returns a point-in-time snapshot of all metrics.
type Snapshot struct {
	// Timestamp of the snapshot
	Timestamp time.Time

	// Uptime since collector creation
	Uptime time.Duration

	// Hybrid KEM metrics
	Encapsulations       uint64
	EncapsulationsFailed uint64
	Decapsulations       uint64
	DecapsulationsFailed uint64

	// Hybrid signature metrics
	Signs          uint64
	SignsFailed    uint64
	Verifies       uint64
	VerifiesFailed uint64

	// Security-level metrics
	DegradedClassicalOnly   uint64
	DegradedPostQuantumOnly uint64
	SecurityLevelFailed     uint64

	// AEAD metrics
	AEADSeals      uint64
	AEADOpens      uint64
	AEADOpenFailed uint64

	// Vault metrics
	BackupsCreated      uint64
	RecoveriesSucceeded uint64
	RecoveriesFailed    uint64

	// Emergency-access metrics
	EmergencySessionsActivated uint64
	EmergencySessionsDenied    uint64
	EmergencySessionsExpired   uint64

	// Circuit breaker / fallback metrics
	BreakerTrips     uint64
	BreakerHalfOpens uint64
	FallbacksUsed    uint64

	// Histogram summaries
	KEMLatency       HistogramSummary
	SignatureLatency HistogramSummary
	AEADLatency      HistogramSummary

	// Labels
	Labels Labels
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:                  time.Now(),
		Uptime:                     time.Since(c.createdAt),
		Encapsulations:             c.encapsulations.Load(),
		EncapsulationsFailed:       c.encapsulationsFailed.Load(),
		Decapsulations:             c.decapsulations.Load(),
		DecapsulationsFailed:       c.decapsulationsFailed.Load(),
		Signs:                      c.signs.Load(),
		SignsFailed:                c.signsFailed.Load(),
		Verifies:                   c.verifies.Load(),
		VerifiesFailed:             c.verifiesFailed.Load(),
		DegradedClassicalOnly:      c.degradedClassicalOnly.Load(),
		DegradedPostQuantumOnly:    c.degradedPostQuantumOnly.Load(),
		SecurityLevelFailed:        c.securityLevelFailed.Load(),
		AEADSeals:                  c.aeadSeals.Load(),
		AEADOpens:                  c.aeadOpens.Load(),
		AEADOpenFailed:             c.aeadOpenFailed.Load(),
		BackupsCreated:             c.backupsCreated.Load(),
		RecoveriesSucceeded:        c.recoveriesSucceeded.Load(),
		RecoveriesFailed:           c.recoveriesFailed.Load(),
		EmergencySessionsActivated: c.emergencySessionsActivated.Load(),
		EmergencySessionsDenied:    c.emergencySessionsDenied.Load(),
		EmergencySessionsExpired:   c.emergencySessionsExpired.Load(),
		BreakerTrips:               c.breakerTrips.Load(),
		BreakerHalfOpens:           c.breakerHalfOpens.Load(),
		FallbacksUsed:              c.fallbacksUsed.Load(),
		KEMLatency:                 c.kemLatency.Summary(),
		SignatureLatency:           c.signatureLatency.Summary(),
		AEADLatency:                c.aeadLatency.Summary(),
		Labels:                     c.labels,
	}
}

// Reset clears all metrics (useful for testing).
func (c *Collector) Reset() {
	c.encapsulations.Store(0)
	c.encapsulationsFailed.Store(0)
	c.decapsulations.Store(0)
	c.decapsulationsFailed.Store(0)
	c.signs.Store(0)
	c.signsFailed.Store(0)
	c.verifies.Store(0)
	c.verifiesFailed.Store(0)
	c.degradedClassicalOnly.Store(0)
	c.degradedPostQuantumOnly.Store(0)
	c.securityLevelFailed.Store(0)
	c.aeadSeals.Store(0)
	c.aeadOpens.Store(0)
	c.aeadOpenFailed.Store(0)
	c.backupsCreated.Store(0)
	c.recoveriesSucceeded.Store(0)
	c.recoveriesFailed.Store(0)
	c.emergencySessionsActivated.Store(0)
	c.emergencySessionsDenied.Store(0)
	c.emergencySessionsExpired.Store(0)
	c.breakerTrips.Store(0)
	c.breakerHalfOpens.Store(0)
	c.fallbacksUsed.Store(0)
	c.kemLatency.Reset()
	c.signatureLatency.Reset()
	c.aeadLatency.Reset()
	c.createdAt = time.Now()
}

// --- Global Collector ---

var (
	globalCollector     *Collector
	globalCollectorOnce sync.Once
)

// Global returns the global metrics collector.
// Creates one with default settings if not already initialized.
func Global() *Collector {
	globalCollectorOnce.Do(func() {
		globalCollector = NewCollector(Labels{"instance": "default"})
	})
	return globalCollector
}

// SetGlobal sets the global metrics collector.
// Should be called during initialization before any metrics are recorded.
func SetGlobal(c *Collector) {
	globalCollector = c
}
