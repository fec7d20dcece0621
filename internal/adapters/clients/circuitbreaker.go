package clients

import (
	"sync"
	"time"
)

// State represents the current state of the circuit breaker.
type State int

const (
	// StateClosed lets every request through.
	StateClosed State = iota

	// StateOpen blocks requests until the open timeout passes.
	StateOpen

	// StateHalfOpen lets a limited number of probe requests through.
	StateHalfOpen
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker behavior.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures int

	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration

	// HalfOpenLimit is both the number of concurrent probes allowed while
	// half-open and the number of consecutive probe successes that close the
	// circuit.
	HalfOpenLimit int
}

// CircuitBreaker stops calling the remote after repeated failures.
//
//	closed    --MaxFailures failures-->   open
//	open      --Timeout elapsed-->        half-open
//	half-open --HalfOpenLimit successes--> closed
//	half-open --any failure-->            open
type CircuitBreaker struct {
	mu        sync.Mutex
	cfg       CircuitBreakerConfig
	state     State
	failures  int
	successes int
	inFlight  int
	openedAt  time.Time

	onStateChange func(from, to State)
	now           func() time.Time
}

// NewCircuitBreaker creates a closed circuit breaker. Non-positive limits
// are raised to 1.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures < 1 {
		cfg.MaxFailures = 1
	}

	if cfg.HalfOpenLimit < 1 {
		cfg.HalfOpenLimit = 1
	}

	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// OnStateChange registers fn to run after every transition. fn runs on the
// goroutine that caused the transition, outside the breaker's lock.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.onStateChange = fn
}

// Allow reports whether a request may proceed. An allowed request must be
// followed by exactly one of RecordSuccess, RecordFailure or Release.
func (cb *CircuitBreaker) Allow() bool {
	var allowed bool

	cb.update(func() {
		switch cb.state {
		case StateClosed:
			allowed = true

		case StateOpen:
			if cb.now().Sub(cb.openedAt) < cb.cfg.Timeout {
				return
			}

			cb.setState(StateHalfOpen)
			cb.inFlight = 1
			allowed = true

		case StateHalfOpen:
			if cb.inFlight >= cb.cfg.HalfOpenLimit {
				return
			}

			cb.inFlight++
			allowed = true
		}
	})

	return allowed
}

// RecordSuccess records a successful request.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.update(func() {
		switch cb.state {
		case StateClosed:
			cb.failures = 0

		case StateHalfOpen:
			cb.release()
			cb.successes++

			if cb.successes >= cb.cfg.HalfOpenLimit {
				cb.setState(StateClosed)
			}
		}
	})
}

// RecordFailure records a failed request.
func (cb *CircuitBreaker) RecordFailure() {
	cb.update(func() {
		switch cb.state {
		case StateClosed:
			cb.failures++

			if cb.failures >= cb.cfg.MaxFailures {
				cb.setState(StateOpen)
			}

		case StateHalfOpen:
			cb.release()
			cb.setState(StateOpen)
		}
	})
}

// Release returns an allowed request that neither succeeded nor failed,
// such as one cancelled by its caller.
func (cb *CircuitBreaker) Release() {
	cb.update(func() {
		if cb.state == StateHalfOpen {
			cb.release()
		}
	})
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// update runs fn under the lock and fires the state change callback after
// unlocking.
func (cb *CircuitBreaker) update(fn func()) {
	cb.mu.Lock()

	from := cb.state
	fn()
	to := cb.state
	notify := cb.onStateChange

	cb.mu.Unlock()

	if from != to && notify != nil {
		notify(from, to)
	}
}

// setState must be called with the lock held.
func (cb *CircuitBreaker) setState(s State) {
	cb.state = s
	cb.failures = 0
	cb.successes = 0

	switch s {
	case StateOpen:
		cb.openedAt = cb.now()
		cb.inFlight = 0
	case StateClosed:
		cb.inFlight = 0
	}
}

func (cb *CircuitBreaker) release() {
	if cb.inFlight > 0 {
		cb.inFlight--
	}
}
