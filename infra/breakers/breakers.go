// Package breakers implements the circuit breaker guarding the Reasoner
// Adapter's call to its injected LLM client, per SPEC_FULL.md §4.3's
// resilience requirement: once the call path trips, the engine degrades to
// rules-only mode instead of piling up latency against a backend that keeps
// failing or stalling.
package breakers

import (
	"time"

	cb "github.com/sony/gobreaker"
)

// Policy is the trip/reset policy for a single named breaker.
type Policy struct {
	// ConsecutiveFailures trips the breaker immediately after this many
	// back-to-back failed reasoner calls — catches a hard outage fast,
	// without waiting for enough volume to judge a failure rate.
	ConsecutiveFailures uint32
	// MinRequests is the minimum call volume within Interval before
	// FailureRate is evaluated at all, so a handful of unlucky early
	// calls can't trip the breaker on their own.
	MinRequests uint32
	// FailureRate trips the breaker once MinRequests has been reached
	// and the failure ratio within Interval exceeds this fraction.
	FailureRate float64
	// Interval is the rolling window the counts above are measured over.
	Interval time.Duration
	// OpenTimeout is how long the breaker stays open before letting a
	// single trial call through (half-open).
	OpenTimeout time.Duration
}

// ReasonerPolicy is the Reasoner Adapter's default trip policy: 3
// consecutive failures, or a failure rate over 5% once at least 20 calls
// have passed through a 60-second window, reopening for a trial call after
// another 60 seconds. internal/config overrides this via ReasonerConfig's
// Breaker* fields.
func ReasonerPolicy() Policy {
	return Policy{
		ConsecutiveFailures: 3,
		MinRequests:         20,
		FailureRate:         0.05,
		Interval:            60 * time.Second,
		OpenTimeout:         60 * time.Second,
	}
}

// Breaker guards a single named call path.
type Breaker struct {
	name string
	cb   *cb.CircuitBreaker
}

// New constructs a Breaker named name enforcing policy p.
func New(name string, p Policy) *Breaker {
	st := cb.Settings{Name: name}
	st.Interval = p.Interval
	st.Timeout = p.OpenTimeout
	st.ReadyToTrip = func(counts cb.Counts) bool {
		if counts.ConsecutiveFailures >= p.ConsecutiveFailures {
			return true
		}
		if counts.Requests < p.MinRequests {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > p.FailureRate
	}
	return &Breaker{name: name, cb: cb.NewCircuitBreaker(st)}
}

// Execute runs fn through the circuit, failing fast with gobreaker's own
// open-state error once the breaker has tripped.
func (b *Breaker) Execute(fn func() (any, error)) (any, error) { return b.cb.Execute(fn) }

// Name returns the breaker's configured name, the label telemetry records
// its state gauge under.
func (b *Breaker) Name() string { return b.name }

// StateValue reports the breaker's current state as the gauge value the
// telemetry registry's breaker-state metric expects: 0 closed, 1
// half-open, 2 open.
func (b *Breaker) StateValue() float64 {
	switch b.cb.State() {
	case cb.StateHalfOpen:
		return 1
	case cb.StateOpen:
		return 2
	default:
		return 0
	}
}
