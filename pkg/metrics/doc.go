// Package metrics provides observability primitives for the crypto core
// and identity vault: counters and histograms for hybrid KEM and
// signature operations, AEAD operations, vault backup/recovery outcomes,
// emergency-access sessions, and fallback-engine circuit breaker state,
// plus Prometheus export, structured logging, tracing, and health checks.
//
// # Quick Start
//
// Basic usage with the global collector:
//
//	import "github.com/volli/core/pkg/metrics"
//
//	start := time.Now()
//	_, _, err := hybrid.Encapsulate(peerPublic)
//	metrics.Global().RecordEncapsulation(time.Since(start), err)
//
//	// Start a Prometheus server
//	go metrics.ServePrometheus(":9090", metrics.Global(), "volli")
//
// # Metrics Collection
//
// The Collector type aggregates metrics from crypto and vault operations:
//
//	collector := metrics.NewCollector(metrics.Labels{
//		"instance": "node-1",
//		"region":   "us-west-2",
//	})
//
//	// KEM and signature metrics
//	collector.RecordEncapsulation(d, err)
//	collector.RecordDecapsulation(d, err)
//	collector.RecordSign(d, err)
//	collector.RecordVerify(d, err)
//	collector.RecordSecurityLevel(level.String())
//
//	// AEAD metrics
//	collector.RecordAEADSeal(d)
//	collector.RecordAEADOpen(d, err)
//
//	// Vault and emergency-access metrics
//	collector.RecordBackupCreated()
//	collector.RecordRecovery(success)
//	collector.RecordEmergencyActivation(allowed)
//	collector.RecordEmergencySessionExpired()
//
//	// Fallback engine metrics
//	collector.RecordBreakerTrip()
//	collector.RecordBreakerHalfOpen()
//	collector.RecordFallbackUsed()
//
//	// Get a point-in-time snapshot
//	snap := collector.Snapshot()
//
// # Observers
//
// PoolMetricsObserver attaches to a provider.WorkerPool to record batch
// lifecycle metrics, and BreakerObserver attaches to a
// fallback.CircuitBreaker's OnStateChange to record state transitions:
//
//	observer := metrics.NewPoolMetricsObserver(metrics.PoolMetricsObserverConfig{PoolName: "recovery"})
//	pool := provider.NewWorkerPool(provider.WorkerPoolConfig{Observer: observer})
//
//	breakerObserver := metrics.NewBreakerObserver(collector, logger)
//	breaker.OnStateChange = breakerObserver.OnStateChange
//
// # Prometheus Export
//
// Export metrics in Prometheus text format:
//
//	exporter := metrics.NewPrometheusExporter(collector, "volli")
//	http.Handle("/metrics", exporter.Handler())
//
// # Tracing
//
// The package provides a Tracer interface compatible with OpenTelemetry:
//
//	tracer := metrics.NewSimpleTracer()
//	metrics.SetTracer(tracer)
//
//	// OpenTelemetry adapter (uses the global provider)
//	otelTracer := metrics.NewOTelTracer("volli-core")
//	metrics.SetTracer(otelTracer)
//	// Build with -tags otel to enable the adapter.
//
//	ctx, end := metrics.StartSpan(ctx, metrics.SpanEncapsulate)
//	defer end(nil) // or end(err) on failure
//
// # Structured Logging
//
// The Logger provides structured logging with levels:
//
//	logger := metrics.NewLogger(
//		metrics.WithLevel(metrics.LevelInfo),
//		metrics.WithFormat(metrics.FormatJSON),
//		metrics.WithFields(metrics.Fields{"service": "volli-vault"}),
//	)
//
//	logger.Info("backup created", metrics.Fields{
//		"identity_id": identityID,
//	})
//
//	// Child loggers
//	vaultLog := logger.Named("vault").With(metrics.Fields{"identity_id": identityID})
//	vaultLog.Debug("encrypting bundle")
//
// # Health Checks
//
// Provide health check endpoints for Kubernetes and load balancers:
//
//	health := metrics.NewHealthCheck(collector, "1.0.0")
//	health.AddCheck("crypto", func() error {
//		return nil
//	})
//
//	http.Handle("/health", health.Handler())
//	http.Handle("/healthz", health.LivenessHandler())
//	http.Handle("/readyz", health.ReadinessHandler())
//
// # Observability Server
//
// Start a complete observability server:
//
//	server := metrics.NewServer(metrics.ServerConfig{
//		Collector:        collector,
//		Version:          "1.0.0",
//		Namespace:        "volli",
//		EnablePrometheus: true,
//		EnableHealth:     true,
//	})
//
//	go server.ListenAndServe(":9090")
//
// This provides:
//   - /metrics - Prometheus metrics
//   - /health  - detailed health status
//   - /healthz - Kubernetes liveness probe
//   - /readyz  - Kubernetes readiness probe
package metrics
