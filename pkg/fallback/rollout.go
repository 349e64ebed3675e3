package fallback

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/volli/core/internal/constants"
)

// TargetCriteria decides whether a user is eligible for a rollout test at
// all, independent of the percentage bucketing (e.g. "only devices on
// firmware >= 2.0").
type TargetCriteria func(userID string) bool

// SafeguardCheck inspects a test's metrics and reports whether the test
// should auto-stop (e.g. error rate regression vs. the control path).
type SafeguardCheck func(m *Metrics) bool

// ABTest describes one rollout experiment: a named feature gated to a
// percentage of users, deterministically bucketed so the same user always
// lands on the same side for the lifetime of the test.
type ABTest struct {
	Name           string
	Enabled        bool
	RolloutPercent int // 0-100
	TargetCriteria TargetCriteria
	Safeguards     []SafeguardCheck

	metrics *Metrics

	mu      sync.Mutex
	stopped bool
}

// NewABTest creates a test with its own metrics ring, initially enabled at
// the given rollout percentage; a rolloutPercent of 0 selects
// constants.DefaultRolloutPercent.
func NewABTest(name string, rolloutPercent int, target TargetCriteria, safeguards ...SafeguardCheck) *ABTest {
	if rolloutPercent == 0 {
		rolloutPercent = constants.DefaultRolloutPercent
	}
	return &ABTest{
		Name:           name,
		Enabled:        true,
		RolloutPercent: rolloutPercent,
		TargetCriteria: target,
		Safeguards:     safeguards,
		metrics:        NewMetrics(0),
	}
}

// bucket deterministically assigns userID to [0,100) via
// H(userId||testName) mod 100, using xxhash as a stable, fast,
// non-cryptographic hash for load distribution.
func (t *ABTest) bucket(userID string) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(userID)
	_, _ = h.WriteString(t.Name)
	return h.Sum64() % 100
}

// InTest reports whether userID is assigned to this test's treatment
// group: the test is enabled, not auto-stopped, the user passes
// TargetCriteria (if set), and the user's deterministic bucket falls
// under RolloutPercent.
func (t *ABTest) InTest(userID string) bool {
	t.mu.Lock()
	stopped := t.stopped
	t.mu.Unlock()

	if !t.Enabled || stopped {
		return false
	}
	if t.TargetCriteria != nil && !t.TargetCriteria(userID) {
		return false
	}
	return t.bucket(userID) < uint64(t.RolloutPercent)
}

// Metrics returns the test's metrics ring for recording outcomes.
func (t *ABTest) Metrics() *Metrics {
	return t.metrics
}

// EvaluateSafeguards runs every configured SafeguardCheck against the
// test's current metrics and stops the test (Stopped() becomes true) if
// any one trips. Nothing in this package calls it; the caller decides
// when to run it.
func (t *ABTest) EvaluateSafeguards() bool {
	for _, check := range t.Safeguards {
		if check(t.metrics) {
			t.mu.Lock()
			t.stopped = true
			t.mu.Unlock()
			return true
		}
	}
	return false
}

// Stopped reports whether a safeguard has auto-stopped this test.
func (t *ABTest) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
