package metrics

import "github.com/volli/core/internal/constants"

// BreakerObserver records circuit breaker state transitions. Attach it via
// CircuitBreaker.OnStateChange = observer.OnStateChange.
type BreakerObserver struct {
	collector *Collector
	logger    *Logger
}

// NewBreakerObserver creates a breaker observer that records metrics and
// logs state transitions.
func NewBreakerObserver(collector *Collector, logger *Logger) *BreakerObserver {
	if collector == nil {
		collector = Global()
	}
	if logger == nil {
		logger = GetLogger()
	}

	return &BreakerObserver{
		collector: collector,
		logger:    logger.Named("breaker"),
	}
}

// OnStateChange records a circuit breaker transition. Assign this method
// directly to a CircuitBreaker's OnStateChange field.
func (o *BreakerObserver) OnStateChange(from, to constants.CircuitState) {
	switch to {
	case constants.CircuitOpen:
		o.collector.RecordBreakerTrip()
		o.logger.Warn("circuit breaker opened", Fields{"from": from.String()})
	case constants.CircuitHalfOpen:
		o.collector.RecordBreakerHalfOpen()
		o.logger.Info("circuit breaker half-open probe", Fields{"from": from.String()})
	case constants.CircuitClosed:
		o.logger.Info("circuit breaker closed", Fields{"from": from.String()})
	}
}
