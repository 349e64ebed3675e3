package fallback

import "github.com/volli/core/internal/constants"

// EngineConfig configures an Engine's timeouts, retry policy, and rollout
// gating. NewEngine uses every field as given, zero included;
// DefaultEngineConfig supplies the default values.
type EngineConfig struct {
	PrimaryTimeoutMs        int64
	FallbackTimeoutMs       int64
	MaxRetries              int
	RetryDelayMs            int64
	PerformanceThresholdPct int
	HealthCheckIntervalMs   int64
	Breaker                 CircuitBreakerConfig
}

// DefaultEngineConfig returns sensible default timeout/retry/threshold
// values (internal/constants.Default*).
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		PrimaryTimeoutMs:        constants.DefaultPrimaryTimeoutMs,
		FallbackTimeoutMs:       constants.DefaultFallbackTimeoutMs,
		MaxRetries:              constants.DefaultMaxRetries,
		RetryDelayMs:            constants.DefaultRetryDelayMs,
		PerformanceThresholdPct: constants.DefaultPerformanceThresholdPct,
		HealthCheckIntervalMs:   constants.DefaultHealthCheckIntervalMs,
		Breaker:                 DefaultCircuitBreakerConfig(),
	}
}
