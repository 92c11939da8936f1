// Package resilience guards the candle source against repeated failures.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState string

const (
	CircuitClosed   CircuitState = "CLOSED"    // Normal operation
	CircuitOpen     CircuitState = "OPEN"      // Failing, rejecting calls
	CircuitHalfOpen CircuitState = "HALF_OPEN" // Probing after the cooldown
)

// ErrCircuitOpen is returned while the circuit rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig holds circuit breaker configuration.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit
	FailureThreshold int
	// SuccessThreshold is the number of half-open successes that close it again
	SuccessThreshold int
	// Cooldown is how long the circuit stays open before probing
	Cooldown time.Duration
}

// DefaultCircuitBreakerConfig returns the watch-loop defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		Cooldown:         time.Minute,
	}
}

// CircuitBreaker stops calling a failing dependency for a cooldown period.
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig
	now    func() time.Time

	// OnStateChange, when set, is called with the lock released.
	OnStateChange func(name string, from, to CircuitState)

	mu         sync.Mutex
	state      CircuitState
	failures   int
	successes  int
	openedAt   time.Time
	totalCalls int64
	rejected   int64
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 1
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	return &CircuitBreaker{
		name:   name,
		config: config,
		now:    time.Now,
		state:  CircuitClosed,
	}
}

// Execute calls fn unless the circuit is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	_, err := ExecuteWithResult(cb, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// ExecuteWithResult calls fn unless the circuit is open and records the outcome.
func ExecuteWithResult[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	if err := cb.allow(); err != nil {
		return zero, err
	}

	v, err := fn()
	if err != nil {
		cb.record(false)
		return zero, err
	}
	cb.record(true)
	return v, nil
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	cb.totalCalls++
	if cb.state == CircuitOpen {
		if cb.now().Sub(cb.openedAt) < cb.config.Cooldown {
			cb.rejected++
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		from := cb.transitionTo(CircuitHalfOpen)
		cb.mu.Unlock()
		cb.notify(from, CircuitHalfOpen)
		return nil
	}
	cb.mu.Unlock()
	return nil
}

func (cb *CircuitBreaker) record(success bool) {
	cb.mu.Lock()
	from := cb.state
	to := from

	switch {
	case success && cb.state == CircuitHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			to = CircuitClosed
		}
	case success:
		cb.failures = 0
	case cb.state == CircuitHalfOpen:
		to = CircuitOpen
	default:
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			to = CircuitOpen
		}
	}

	if to != from {
		cb.transitionTo(to)
		if to == CircuitOpen {
			cb.openedAt = cb.now()
		}
	}
	cb.mu.Unlock()

	if to != from {
		cb.notify(from, to)
	}
}

// transitionTo must be called with mu held. It returns the previous state.
func (cb *CircuitBreaker) transitionTo(state CircuitState) CircuitState {
	from := cb.state
	cb.state = state
	cb.failures = 0
	cb.successes = 0
	return from
}

func (cb *CircuitBreaker) notify(from, to CircuitState) {
	if cb.OnStateChange != nil {
		cb.OnStateChange(cb.name, from, to)
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Name returns the circuit breaker name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Stats returns circuit breaker statistics.
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return CircuitBreakerStats{
		Name:            cb.name,
		State:           cb.state,
		TotalCalls:      cb.totalCalls,
		TotalRejected:   cb.rejected,
		CurrentFailures: cb.failures,
		OpenedAt:        cb.openedAt,
	}
}

// Reset closes the circuit.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transitionTo(CircuitClosed)
}

// CircuitBreakerStats holds circuit breaker statistics.
type CircuitBreakerStats struct {
	Name            string       `json:"name"`
	State           CircuitState `json:"state"`
	TotalCalls      int64        `json:"total_calls"`
	TotalRejected   int64        `json:"total_rejected"`
	CurrentFailures int          `json:"current_failures"`
	OpenedAt        time.Time    `json:"opened_at"`
}
