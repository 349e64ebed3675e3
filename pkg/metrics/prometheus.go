package metrics

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
)

// PrometheusExporter exports metrics in Prometheus text format.
type PrometheusExporter struct {
	collector *Collector
	namespace string
}

// NewPrometheusExporter creates a new Prometheus exporter for the given collector.
// The namespace is prepended to all metric names (e.g., "volli_core").
func NewPrometheusExporter(c *Collector, namespace string) *PrometheusExporter {
	return &PrometheusExporter{
		collector: c,
		namespace: namespace,
	}
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (e *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		e.WriteMetrics(w)
	})
}

// WriteMetrics writes all metrics in Prometheus text format to the writer.
func (e *PrometheusExporter) WriteMetrics(w io.Writer) {
	snap := e.collector.Snapshot()
	labels := e.formatLabels(snap.Labels)

	// --- Hybrid KEM Metrics ---
	e.writeHelp(w, "kem_encapsulations_total", "Total hybrid KEM encapsulations")
	e.writeType(w, "kem_encapsulations_total", "counter")
	e.writeMetric(w, "kem_encapsulations_total", labels, float64(snap.Encapsulations))

	e.writeHelp(w, "kem_encapsulations_failed_total", "Total hybrid KEM encapsulations that failed")
	e.writeType(w, "kem_encapsulations_failed_total", "counter")
	e.writeMetric(w, "kem_encapsulations_failed_total", labels, float64(snap.EncapsulationsFailed))

	e.writeHelp(w, "kem_decapsulations_total", "Total hybrid KEM decapsulations")
	e.writeType(w, "kem_decapsulations_total", "counter")
	e.writeMetric(w, "kem_decapsulations_total", labels, float64(snap.Decapsulations))

	e.writeHelp(w, "kem_decapsulations_failed_total", "Total hybrid KEM decapsulations that failed")
	e.writeType(w, "kem_decapsulations_failed_total", "counter")
	e.writeMetric(w, "kem_decapsulations_failed_total", labels, float64(snap.DecapsulationsFailed))

	// --- Hybrid Signature Metrics ---
	e.writeHelp(w, "signatures_total", "Total hybrid signatures produced")
	e.writeType(w, "signatures_total", "counter")
	e.writeMetric(w, "signatures_total", labels, float64(snap.Signs))

	e.writeHelp(w, "signatures_failed_total", "Total hybrid signatures that failed")
	e.writeType(w, "signatures_failed_total", "counter")
	e.writeMetric(w, "signatures_failed_total", labels, float64(snap.SignsFailed))

	e.writeHelp(w, "verifications_total", "Total hybrid signature verifications")
	e.writeType(w, "verifications_total", "counter")
	e.writeMetric(w, "verifications_total", labels, float64(snap.Verifies))

	e.writeHelp(w, "verifications_failed_total", "Total hybrid signature verifications that failed")
	e.writeType(w, "verifications_failed_total", "counter")
	e.writeMetric(w, "verifications_failed_total", labels, float64(snap.VerifiesFailed))

	// --- Security Level Metrics ---
	e.writeHelp(w, "degraded_classical_only_total", "Total operations that degraded to classical-only security")
	e.writeType(w, "degraded_classical_only_total", "counter")
	e.writeMetric(w, "degraded_classical_only_total", labels, float64(snap.DegradedClassicalOnly))

	e.writeHelp(w, "degraded_post_quantum_only_total", "Total operations that degraded to post-quantum-only security")
	e.writeType(w, "degraded_post_quantum_only_total", "counter")
	e.writeMetric(w, "degraded_post_quantum_only_total", labels, float64(snap.DegradedPostQuantumOnly))

	e.writeHelp(w, "security_level_failed_total", "Total operations that reported both security halves failed")
	e.writeType(w, "security_level_failed_total", "counter")
	e.writeMetric(w, "security_level_failed_total", labels, float64(snap.SecurityLevelFailed))

	// --- AEAD Metrics ---
	e.writeHelp(w, "aead_seals_total", "Total AEAD seal operations")
	e.writeType(w, "aead_seals_total", "counter")
	e.writeMetric(w, "aead_seals_total", labels, float64(snap.AEADSeals))

	e.writeHelp(w, "aead_opens_total", "Total AEAD open operations")
	e.writeType(w, "aead_opens_total", "counter")
	e.writeMetric(w, "aead_opens_total", labels, float64(snap.AEADOpens))

	e.writeHelp(w, "aead_open_failed_total", "Total AEAD open operations that failed authentication")
	e.writeType(w, "aead_open_failed_total", "counter")
	e.writeMetric(w, "aead_open_failed_total", labels, float64(snap.AEADOpenFailed))

	// --- Vault Metrics ---
	e.writeHelp(w, "vault_backups_created_total", "Total portable encrypted backups created")
	e.writeType(w, "vault_backups_created_total", "counter")
	e.writeMetric(w, "vault_backups_created_total", labels, float64(snap.BackupsCreated))

	e.writeHelp(w, "vault_recoveries_succeeded_total", "Total successful vault recovery attempts")
	e.writeType(w, "vault_recoveries_succeeded_total", "counter")
	e.writeMetric(w, "vault_recoveries_succeeded_total", labels, float64(snap.RecoveriesSucceeded))

	e.writeHelp(w, "vault_recoveries_failed_total", "Total failed vault recovery attempts")
	e.writeType(w, "vault_recoveries_failed_total", "counter")
	e.writeMetric(w, "vault_recoveries_failed_total", labels, float64(snap.RecoveriesFailed))

	// --- Emergency Access Metrics ---
	e.writeHelp(w, "emergency_sessions_activated_total", "Total emergency-access sessions activated")
	e.writeType(w, "emergency_sessions_activated_total", "counter")
	e.writeMetric(w, "emergency_sessions_activated_total", labels, float64(snap.EmergencySessionsActivated))

	e.writeHelp(w, "emergency_sessions_denied_total", "Total emergency-access activation attempts denied")
	e.writeType(w, "emergency_sessions_denied_total", "counter")
	e.writeMetric(w, "emergency_sessions_denied_total", labels, float64(snap.EmergencySessionsDenied))

	e.writeHelp(w, "emergency_sessions_expired_total", "Total emergency-access sessions that expired rather than terminating explicitly")
	e.writeType(w, "emergency_sessions_expired_total", "counter")
	e.writeMetric(w, "emergency_sessions_expired_total", labels, float64(snap.EmergencySessionsExpired))

	// --- Circuit Breaker / Fallback Metrics ---
	e.writeHelp(w, "breaker_trips_total", "Total circuit breaker trips to OPEN")
	e.writeType(w, "breaker_trips_total", "counter")
	e.writeMetric(w, "breaker_trips_total", labels, float64(snap.BreakerTrips))

	e.writeHelp(w, "breaker_half_opens_total", "Total circuit breaker transitions to HALF_OPEN")
	e.writeType(w, "breaker_half_opens_total", "counter")
	e.writeMetric(w, "breaker_half_opens_total", labels, float64(snap.BreakerHalfOpens))

	e.writeHelp(w, "fallbacks_used_total", "Total Engine.Execute calls that used the fallback path")
	e.writeType(w, "fallbacks_used_total", "counter")
	e.writeMetric(w, "fallbacks_used_total", labels, float64(snap.FallbacksUsed))

	// --- Uptime ---
	e.writeHelp(w, "uptime_seconds", "Time since the collector was created")
	e.writeType(w, "uptime_seconds", "gauge")
	e.writeMetric(w, "uptime_seconds", labels, snap.Uptime.Seconds())

	// --- Histograms ---
	e.writeHistogram(w, "kem_duration_microseconds", "Hybrid KEM operation duration in microseconds", labels, snap.KEMLatency)
	e.writeHistogram(w, "signature_duration_microseconds", "Hybrid signature operation duration in microseconds", labels, snap.SignatureLatency)
	e.writeHistogram(w, "aead_duration_microseconds", "AEAD operation duration in microseconds", labels, snap.AEADLatency)
}

// writeHelp writes a HELP line.
func (e *PrometheusExporter) writeHelp(w io.Writer, name, help string) {
	fmt.Fprintf(w, "# HELP %s_%s %s\n", e.namespace, name, help)
}

// writeType writes a TYPE line.
func (e *PrometheusExporter) writeType(w io.Writer, name, typ string) {
	fmt.Fprintf(w, "# TYPE %s_%s %s\n", e.namespace, name, typ)
}

// writeMetric writes a single metric line.
func (e *PrometheusExporter) writeMetric(w io.Writer, name, labels string, value float64) {
	if labels != "" {
		fmt.Fprintf(w, "%s_%s{%s} %g\n", e.namespace, name, labels, value)
	} else {
		fmt.Fprintf(w, "%s_%s %g\n", e.namespace, name, value)
	}
}

// writeHistogram writes a histogram in Prometheus format.
func (e *PrometheusExporter) writeHistogram(w io.Writer, name, help, labels string, h HistogramSummary) {
	e.writeHelp(w, name, help)
	e.writeType(w, name, "histogram")

	fullName := e.namespace + "_" + name

	// Write bucket counts
	for _, b := range h.Buckets {
		le := fmt.Sprintf("%g", b.UpperBound)
		if math.IsInf(b.UpperBound, 1) {
			le = "+Inf"
		}
		if labels != "" {
			fmt.Fprintf(w, "%s_bucket{%s,le=\"%s\"} %d\n", fullName, labels, le, b.Count)
		} else {
			fmt.Fprintf(w, "%s_bucket{le=\"%s\"} %d\n", fullName, le, b.Count)
		}
	}

	// Write sum and count
	if labels != "" {
		fmt.Fprintf(w, "%s_sum{%s} %g\n", fullName, labels, h.Sum)
		fmt.Fprintf(w, "%s_count{%s} %d\n", fullName, labels, h.Count)
	} else {
		fmt.Fprintf(w, "%s_sum %g\n", fullName, h.Sum)
		fmt.Fprintf(w, "%s_count %d\n", fullName, h.Count)
	}
}

// formatLabels converts Labels to Prometheus label format.
func (e *PrometheusExporter) formatLabels(labels Labels) string {
	if len(labels) == 0 {
		return ""
	}

	// Sort keys for consistent output
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		// Escape label values
		v := escapePromValue(labels[k])
		parts = append(parts, fmt.Sprintf("%s=\"%s\"", k, v))
	}

	return strings.Join(parts, ",")
}

// escapePromValue escapes a string for use as a Prometheus label value.
func escapePromValue(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// --- Convenience Functions ---

// ServePrometheus starts an HTTP server serving Prometheus metrics.
// This is a convenience function for simple use cases.
func ServePrometheus(addr string, c *Collector, namespace string) error {
	exp := NewPrometheusExporter(c, namespace)
	http.Handle("/metrics", exp.Handler())
	return http.ListenAndServe(addr, nil)
}
