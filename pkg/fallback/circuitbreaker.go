// Package fallback implements the circuit-breaker-gated primary/fallback
// execution engine, A/B rollout bucketing, and rolling operation metrics
// that sit in front of pkg/provider's registry.
package fallback

import (
	"sync"
	"time"

	"github.com/volli/core/internal/constants"
)

// CircuitBreakerConfig configures a CircuitBreaker's transition thresholds.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that trips
	// CLOSED -> OPEN.
	FailureThreshold int

	// SuccessThreshold is the number of consecutive successes in
	// HALF_OPEN that closes the breaker again.
	SuccessThreshold int

	// CooldownMs is how long the breaker stays OPEN before it moves to
	// HALF_OPEN.
	CooldownMs int64
}

// DefaultCircuitBreakerConfig returns sensible default thresholds.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: constants.DefaultFailureThreshold,
		SuccessThreshold: constants.DefaultSuccessThreshold,
		CooldownMs:       constants.DefaultCooldownMs,
	}
}

// CircuitBreaker tracks consecutive failures for one guarded operation and
// decides whether a call is allowed to proceed. State transitions:
//
//	CLOSED -> OPEN:      FailureThreshold consecutive failures
//	OPEN -> HALF_OPEN:   CooldownMs has elapsed since tripping
//	HALF_OPEN -> CLOSED: SuccessThreshold consecutive successes
//	HALF_OPEN -> OPEN:   any failure while probing
//
// The mutex's critical sections are kept short: compute outside the
// lock, mutate inside it.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu              sync.Mutex
	state           constants.CircuitState
	consecutiveFail int
	consecutiveOK   int
	openedAt        time.Time
	now             func() time.Time

	// OnStateChange, if set, is invoked after every state transition with
	// the prior and new state. Called outside the breaker's lock.
	OnStateChange func(from, to constants.CircuitState)
}

// NewCircuitBreaker creates a breaker in the CLOSED state.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg, state: constants.CircuitClosed, now: time.Now}
}

// State returns the breaker's current state, resolving an elapsed cooldown
// into HALF_OPEN as a side effect: time alone moves OPEN to HALF_OPEN,
// no background goroutine required.
func (b *CircuitBreaker) State() constants.CircuitState {
	b.mu.Lock()
	before := b.state
	b.resolveCooldownLocked()
	after := b.state
	b.mu.Unlock()
	b.notify(before, after)
	return after
}

func (b *CircuitBreaker) resolveCooldownLocked() {
	if b.state != constants.CircuitOpen {
		return
	}
	elapsed := b.now().Sub(b.openedAt)
	if elapsed.Milliseconds() >= b.cfg.CooldownMs {
		b.state = constants.CircuitHalfOpen
		b.consecutiveOK = 0
	}
}

// notify invokes OnStateChange if the state actually moved, outside the lock.
func (b *CircuitBreaker) notify(from, to constants.CircuitState) {
	if from != to && b.OnStateChange != nil {
		b.OnStateChange(from, to)
	}
}

// Allow reports whether a call may proceed right now: false while OPEN,
// true while CLOSED or HALF_OPEN. In HALF_OPEN every caller is let
// through; the number of concurrent probing calls is not limited.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	before := b.state
	b.resolveCooldownLocked()
	after := b.state
	b.mu.Unlock()
	b.notify(before, after)
	return after != constants.CircuitOpen
}

// RecordSuccess registers a successful call outcome.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	before := b.state
	b.resolveCooldownLocked()

	b.consecutiveFail = 0

	switch b.state {
	case constants.CircuitHalfOpen:
		b.consecutiveOK++
		if b.consecutiveOK >= b.cfg.SuccessThreshold {
			b.state = constants.CircuitClosed
			b.consecutiveOK = 0
		}
	case constants.CircuitClosed:
		// no-op, already healthy
	}
	after := b.state
	b.mu.Unlock()
	b.notify(before, after)
}

// RecordFailure registers a failed call outcome.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	before := b.state
	b.resolveCooldownLocked()

	b.consecutiveOK = 0

	switch b.state {
	case constants.CircuitHalfOpen:
		b.trip()
	case constants.CircuitClosed:
		b.consecutiveFail++
		if b.consecutiveFail >= b.cfg.FailureThreshold {
			b.trip()
		}
	}
	after := b.state
	b.mu.Unlock()
	b.notify(before, after)
}

func (b *CircuitBreaker) trip() {
	b.state = constants.CircuitOpen
	b.openedAt = b.now()
	b.consecutiveFail = 0
}

// Reset forces the breaker back to CLOSED, clearing all counters. Intended
// for an operator-triggered manual reset or test setup.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = constants.CircuitClosed
	b.consecutiveFail = 0
	b.consecutiveOK = 0
}
