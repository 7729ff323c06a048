package retrieval

import (
	"context"
	"errors"
	"sync"
	"time"
)

// circuitState mirrors the closed/open/half-open machine, grounded in
// haasonsaas-nexus's internal/infra.CircuitBreaker.
type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

// ErrCircuitOpen is returned by Execute while the breaker is open; callers
// fall through to the lexical fallback (spec §4.4 degraded path).
var ErrCircuitOpen = errors.New("retrieval: circuit breaker is open")

// BreakerConfig configures a CircuitBreaker.
type BreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
}

// CircuitBreaker trips after FailureThreshold consecutive embedding or
// vector-store failures, short-circuiting retrieval straight to the lexical fallback
// until OpenTimeout elapses and a trial request succeeds.
type CircuitBreaker struct {
	cfg BreakerConfig

	mu              sync.Mutex
	state           circuitState
	failures        int
	successes       int
	lastStateChange time.Time
}

func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	return &CircuitBreaker{cfg: cfg, state: circuitClosed, lastStateChange: time.Now()}
}

// Execute runs fn if the breaker permits it, recording the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.canExecute(); err != nil {
		return err
	}
	err := fn(ctx)
	cb.recordResult(err)
	return err
}

func (cb *CircuitBreaker) canExecute() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case circuitOpen:
		if time.Since(cb.lastStateChange) >= cb.cfg.OpenTimeout {
			cb.transitionTo(circuitHalfOpen)
			return nil
		}
		return ErrCircuitOpen
	default:
		return nil
	}
}

func (cb *CircuitBreaker) recordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.failures++
		cb.successes = 0
		if cb.state == circuitHalfOpen || cb.failures >= cb.cfg.FailureThreshold {
			cb.transitionTo(circuitOpen)
		}
		return
	}
	switch cb.state {
	case circuitClosed:
		cb.failures = 0
	case circuitHalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.transitionTo(circuitClosed)
		}
	}
}

func (cb *CircuitBreaker) transitionTo(s circuitState) {
	cb.state = s
	cb.lastStateChange = time.Now()
	cb.failures = 0
	cb.successes = 0
}

func (cb *CircuitBreaker) State() circuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
