package fallback_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/volli/core/internal/constants"
	"github.com/volli/core/pkg/fallback"
)

func TestCircuitBreakerTripsAfterThreshold(t *testing.T) {
	b := fallback.NewCircuitBreaker(fallback.CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		CooldownMs:       1000,
	})

	if b.State() != constants.CircuitClosed {
		t.Fatalf("expected CLOSED initially")
	}

	b.RecordFailure()
	b.RecordFailure()
	if b.State() != constants.CircuitClosed {
		t.Fatalf("expected CLOSED after 2 failures")
	}

	b.RecordFailure()
	if b.State() != constants.CircuitOpen {
		t.Fatalf("expected OPEN after 3rd consecutive failure")
	}
	if b.Allow() {
		t.Fatalf("expected Allow() false while OPEN")
	}
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	b := fallback.NewCircuitBreaker(fallback.CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		CooldownMs:       1,
	})

	b.RecordFailure()
	if b.State() != constants.CircuitOpen {
		t.Fatalf("expected OPEN after single failure")
	}

	time.Sleep(5 * time.Millisecond)
	if b.State() != constants.CircuitHalfOpen {
		t.Fatalf("expected HALF_OPEN after cooldown elapsed")
	}

	b.RecordSuccess()
	if b.State() != constants.CircuitHalfOpen {
		t.Fatalf("expected still HALF_OPEN after 1 of 2 successes")
	}
	b.RecordSuccess()
	if b.State() != constants.CircuitClosed {
		t.Fatalf("expected CLOSED after SuccessThreshold successes")
	}
}

func TestCircuitBreakerHalfOpenReopensOnFailure(t *testing.T) {
	b := fallback.NewCircuitBreaker(fallback.CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		CooldownMs:       1,
	})

	b.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	_ = b.State() // resolve cooldown -> HALF_OPEN

	b.RecordFailure()
	if b.State() != constants.CircuitOpen {
		t.Fatalf("expected a HALF_OPEN failure to reopen the breaker")
	}
}

func TestMetricsRollingAverageAndUptime(t *testing.T) {
	m := fallback.NewMetrics(10)

	m.Record(fallback.OperationSample{Success: true, DurationMs: 10})
	m.Record(fallback.OperationSample{Success: true, DurationMs: 20})
	avg := m.AverageLatencyMs()
	if avg != 15 {
		t.Fatalf("expected rolling average 15, got %v", avg)
	}

	for i := 0; i < 20; i++ {
		m.Record(fallback.OperationSample{Success: false, DurationMs: 5})
	}
	if m.Health() != constants.HealthUnhealthy {
		t.Fatalf("expected UNHEALTHY after sustained failures, got %v", m.Health())
	}
}

func TestABTestDeterministicBucketing(t *testing.T) {
	test := fallback.NewABTest("new-kem-path", 50, nil)

	first := test.InTest("user-42")
	for i := 0; i < 10; i++ {
		if test.InTest("user-42") != first {
			t.Fatalf("expected stable assignment for the same user across calls")
		}
	}
}

func TestABTestTargetCriteriaExcludes(t *testing.T) {
	test := fallback.NewABTest("new-kem-path", 100, func(userID string) bool {
		return userID == "eligible-user"
	})

	if test.InTest("someone-else") {
		t.Fatalf("expected non-matching user excluded from test regardless of rollout percent")
	}
	if !test.InTest("eligible-user") {
		t.Fatalf("expected eligible user in test at 100%% rollout")
	}
}

func TestABTestSafeguardAutoStop(t *testing.T) {
	test := fallback.NewABTest("risky-path", 100, nil, func(m *fallback.Metrics) bool {
		return m.Health() == constants.HealthUnhealthy
	})

	for i := 0; i < 20; i++ {
		test.Metrics().Record(fallback.OperationSample{Success: false, DurationMs: 1})
	}

	if !test.EvaluateSafeguards() {
		t.Fatalf("expected safeguard to trip on sustained failures")
	}
	if !test.Stopped() {
		t.Fatalf("expected test stopped after safeguard trip")
	}
	if test.InTest("any-user") {
		t.Fatalf("expected stopped test to exclude all users")
	}
}

func TestEngineFallsBackWhenPrimaryFails(t *testing.T) {
	cfg := fallback.DefaultEngineConfig()
	cfg.MaxRetries = 1
	engine := fallback.NewEngine(cfg, nil)

	primary := func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("primary unavailable")
	}
	secondary := func(ctx context.Context) (interface{}, error) {
		return "fallback-result", nil
	}

	result, usedPrimary, err := engine.Execute(context.Background(), "user-1", primary, secondary)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if usedPrimary {
		t.Fatalf("expected fallback path to be used")
	}
	if result != "fallback-result" {
		t.Fatalf("expected fallback-result, got %v", result)
	}
}

func TestEngineUsesPrimaryWhenHealthy(t *testing.T) {
	cfg := fallback.DefaultEngineConfig()
	engine := fallback.NewEngine(cfg, nil)

	primary := func(ctx context.Context) (interface{}, error) {
		return "primary-result", nil
	}

	result, usedPrimary, err := engine.Execute(context.Background(), "user-1", primary, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !usedPrimary {
		t.Fatalf("expected primary path to be used")
	}
	if result != "primary-result" {
		t.Fatalf("expected primary-result, got %v", result)
	}
}

func TestEngineRetriesFallbackNotPrimary(t *testing.T) {
	cfg := fallback.DefaultEngineConfig()
	cfg.MaxRetries = 3
	cfg.RetryDelayMs = 0
	engine := fallback.NewEngine(cfg, nil)

	primaryAttempts := 0
	primary := func(ctx context.Context) (interface{}, error) {
		primaryAttempts++
		return nil, errors.New("primary unavailable")
	}

	fallbackAttempts := 0
	fallbackOp := func(ctx context.Context) (interface{}, error) {
		fallbackAttempts++
		if fallbackAttempts < 3 {
			return nil, errors.New("fallback transiently unavailable")
		}
		return "fallback-result", nil
	}

	result, usedPrimary, err := engine.Execute(context.Background(), "user-1", primary, fallbackOp)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if usedPrimary {
		t.Fatalf("expected fallback path to be used")
	}
	if result != "fallback-result" {
		t.Fatalf("expected fallback-result, got %v", result)
	}
	if primaryAttempts != 1 {
		t.Fatalf("expected primary attempted exactly once, got %d", primaryAttempts)
	}
	if fallbackAttempts != 3 {
		t.Fatalf("expected fallback retried until success, got %d attempts", fallbackAttempts)
	}
}

func TestEngineOpensCircuitAfterRepeatedFailures(t *testing.T) {
	cfg := fallback.DefaultEngineConfig()
	cfg.MaxRetries = 1
	cfg.Breaker.FailureThreshold = 2
	engine := fallback.NewEngine(cfg, nil)

	primary := func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("boom")
	}
	secondary := func(ctx context.Context) (interface{}, error) {
		return "fallback-result", nil
	}

	for i := 0; i < 2; i++ {
		if _, _, err := engine.Execute(context.Background(), "user-1", primary, secondary); err != nil {
			t.Fatalf("Execute iteration %d: %v", i, err)
		}
	}

	if engine.Breaker().State() != constants.CircuitOpen {
		t.Fatalf("expected breaker OPEN after repeated primary failures")
	}
}
