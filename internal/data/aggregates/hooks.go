package aggregates

import (
	"time"

	"github.com/OpenSundsvall/api-service-case-data/internal/observability"
)

// Hooks receives one ObserveOperation per write attempt. IncConflict fires
// when the attempt lost to a concurrent writer and IncRetry when
// executeWithRetry starts another attempt because of it.
type Hooks interface {
	ObserveOperation(op, status string, dur time.Duration)
	IncConflict(op string)
	IncRetry(op string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

type metricsHooks struct{ m *observability.Metrics }

// NewObservabilityHooks reports aggregate writes to m. A nil m, the case when
// metrics are disabled, yields hooks that do nothing.
func NewObservabilityHooks(m *observability.Metrics) Hooks {
	if m == nil {
		return noopHooks{}
	}
	return metricsHooks{m: m}
}

func (h metricsHooks) ObserveOperation(op, status string, dur time.Duration) {
	h.m.ObserveAggregateOperation(op, status, dur)
}

func (h metricsHooks) IncConflict(op string) { h.m.IncAggregateConflict(op) }
func (h metricsHooks) IncRetry(op string)    { h.m.IncAggregateRetry(op) }
