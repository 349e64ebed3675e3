package fallback

import (
	"context"
	"math/rand"
	"time"

	"github.com/volli/core/internal/constants"
	cerrors "github.com/volli/core/internal/errors"
)

// Operation is a guarded unit of work: an implementation of a primary or
// fallback path for some provider operation (key generation, encapsulation,
// signing, ...). It must respect ctx's deadline.
type Operation func(ctx context.Context) (interface{}, error)

// Engine runs an Operation against a primary implementation, falling back
// to a secondary implementation when the primary's circuit breaker is open,
// the engine's recorded health (Metrics.Health) is UNHEALTHY, or the
// primary itself fails. Each path gets its
// own timeout. The primary is attempted once per call — the breaker governs
// its retry cadence across calls — while the fallback path retries with a
// constant delay between attempts (exponential backoff is also supported —
// set Backoff to opt into it).
type Engine struct {
	cfg     EngineConfig
	breaker *CircuitBreaker
	metrics *Metrics
	rollout *ABTest

	// Backoff computes the delay before retry attempt n (1-indexed).
	// Defaults to a constant RetryDelayMs.
	Backoff func(cfg EngineConfig, attempt int) time.Duration

	sleep func(time.Duration)
	rand  func() float64
}

// NewEngine creates an Engine with the given configuration. rollout may be
// nil to always prefer the primary path (subject to the breaker and the
// health gate).
func NewEngine(cfg EngineConfig, rollout *ABTest) *Engine {
	return &Engine{
		cfg:     cfg,
		breaker: NewCircuitBreaker(cfg.Breaker),
		metrics: NewMetrics(0),
		rollout: rollout,
		Backoff: constantBackoff,
		sleep:   time.Sleep,
		rand:    rand.Float64,
	}
}

func constantBackoff(cfg EngineConfig, attempt int) time.Duration {
	return time.Duration(cfg.RetryDelayMs) * time.Millisecond
}

// ExponentialBackoff doubles the retry delay on each attempt, for callers
// that opt in via Engine.Backoff = fallback.ExponentialBackoff.
func ExponentialBackoff(cfg EngineConfig, attempt int) time.Duration {
	base := time.Duration(cfg.RetryDelayMs) * time.Millisecond
	for i := 1; i < attempt; i++ {
		base *= 2
	}
	return base
}

// Breaker exposes the engine's circuit breaker, e.g. for dashboards or a
// manual operator reset.
func (e *Engine) Breaker() *CircuitBreaker { return e.breaker }

// Metrics exposes the engine's rolling operation metrics.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// usePrimary decides, for this call, whether the primary path should be
// attempted: the breaker must allow it, the engine's health must not be
// UNHEALTHY, and — if a rollout test is configured — the user must be
// bucketed into the test.
func (e *Engine) usePrimary(userID string) bool {
	if !e.breaker.Allow() {
		return false
	}
	if e.metrics.Health() == constants.HealthUnhealthy {
		return false
	}
	if e.rollout != nil && !e.rollout.InTest(userID) {
		return false
	}
	return true
}

// Execute attempts primary once (subject to the breaker, health and rollout
// gates),
// falling back to fallbackOp — with retries and backoff — if the primary
// path is skipped or fails. It returns the result and whether the primary
// path produced it. When the primary path is skipped or fails and
// fallbackOp is nil or fails on every attempt, it returns
// ErrAllProvidersFailed.
func (e *Engine) Execute(ctx context.Context, userID string, primary, fallbackOp Operation) (interface{}, bool, error) {
	if e.usePrimary(userID) {
		result, err := e.runOnce(ctx, primary, e.cfg.PrimaryTimeoutMs, true)
		if err == nil {
			e.breaker.RecordSuccess()
			return result, true, nil
		}
		e.breaker.RecordFailure()
	}

	if fallbackOp == nil {
		return nil, false, cerrors.ErrAllProvidersFailed
	}

	result, err := e.runWithRetries(ctx, fallbackOp, e.cfg.FallbackTimeoutMs, false)
	if err != nil {
		return nil, false, cerrors.ErrAllProvidersFailed
	}
	return result, false, nil
}

func (e *Engine) runWithRetries(ctx context.Context, op Operation, timeoutMs int64, usedPrimary bool) (interface{}, error) {
	var lastErr error
	for attempt := 1; attempt <= e.cfg.MaxRetries; attempt++ {
		result, err := e.runOnce(ctx, op, timeoutMs, usedPrimary)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt < e.cfg.MaxRetries {
			delay := e.Backoff(e.cfg, attempt)
			select {
			case <-ctx.Done():
				return nil, cerrors.ErrCancelled
			default:
				e.sleep(delay)
			}
		}
	}
	return nil, lastErr
}

func (e *Engine) runOnce(ctx context.Context, op Operation, timeoutMs int64, usedPrimary bool) (interface{}, error) {
	start := time.Now()

	opCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	result, err := op(opCtx)

	e.metrics.Record(OperationSample{
		UsedPrimary: usedPrimary,
		Success:     err == nil,
		DurationMs:  float64(time.Since(start).Milliseconds()),
		Timestamp:   start,
	})

	if err != nil {
		if opCtx.Err() != nil {
			return nil, cerrors.ErrTimeout
		}
		return nil, err
	}
	return result, nil
}
