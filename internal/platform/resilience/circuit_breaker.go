// internal/platform/resilience/circuit_breaker.go
package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// State representa el estado del circuit breaker.
type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Failing, rejecting calls
	StateHalfOpen              // Probing whether the backend recovered
)

// BreakerConfig configura un CircuitBreaker.
type BreakerConfig struct {
	// FailureThreshold fallos consecutivos para abrir el circuito
	FailureThreshold int `yaml:"failure_threshold" validate:"gte=0"`

	// OpenTimeout tiempo en abierto antes de pasar a half-open
	OpenTimeout time.Duration `yaml:"open_timeout" validate:"gte=0"`

	// HalfOpenMax llamadas de prueba permitidas en half-open
	HalfOpenMax int `yaml:"half_open_max" validate:"gte=0"`
}

// CircuitBreaker protege un backend externo (WHOIS, inferencia) de
// recibir llamadas mientras está caído.
type CircuitBreaker struct {
	mu              sync.Mutex
	state           State
	failures        int
	probes          int
	successes       int
	lastFailureTime time.Time
	lastSuccessTime time.Time

	failureThreshold int
	openTimeout      time.Duration
	halfOpenMax      int
	now              func() time.Time
	onStateChange    func(from, to State)
}

// NewCircuitBreaker crea un circuit breaker; valores <= 0 toman defaults
// (5 fallos, 60s, 1 sonda).
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 60 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 1
	}

	return &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: cfg.FailureThreshold,
		openTimeout:      cfg.OpenTimeout,
		halfOpenMax:      cfg.HalfOpenMax,
		now:              time.Now,
	}
}

// OnStateChange registra un callback invocado en cada transición.
// Se llama con el lock tomado: no debe volver a entrar en el breaker.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

// Allow reports whether a call may proceed. In half-open state only
// halfOpenMax probes are let through.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true

	case StateOpen:
		if cb.now().Sub(cb.lastFailureTime) < cb.openTimeout {
			return false
		}
		cb.transition(StateHalfOpen)
		cb.probes = 1
		return true

	case StateHalfOpen:
		if cb.probes < cb.halfOpenMax {
			cb.probes++
			return true
		}
		return false

	default:
		return false
	}
}

// RecordSuccess registra una llamada exitosa.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastSuccessTime = cb.now()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.halfOpenMax {
			cb.transition(StateClosed)
		}
	}
}

// RecordFailure registra una llamada fallida.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailureTime = cb.now()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			cb.transition(StateOpen)
		}
	case StateHalfOpen:
		// una sola sonda fallida reabre el circuito
		cb.transition(StateOpen)
	}
}

// Execute runs fn when the breaker allows it and records the outcome.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}
	if err := fn(); err != nil {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return nil
}

// State retorna el estado actual del circuit breaker.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset vuelve al estado cerrado.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transition(StateClosed)
}

// Stats retorna estadísticas del circuit breaker.
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerStats{
		State:           cb.state,
		FailureCount:    cb.failures,
		SuccessCount:    cb.successes,
		LastFailureTime: cb.lastFailureTime,
		LastSuccessTime: cb.lastSuccessTime,
	}
}

// must hold cb.mu
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	cb.state = to
	cb.failures = 0
	cb.successes = 0
	cb.probes = 0
	if from != to && cb.onStateChange != nil {
		cb.onStateChange(from, to)
	}
}

// CircuitBreakerStats contiene estadísticas del circuit breaker.
type CircuitBreakerStats struct {
	State           State
	FailureCount    int
	SuccessCount    int
	LastFailureTime time.Time
	LastSuccessTime time.Time
}

// String retorna una representación legible del estado.
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
