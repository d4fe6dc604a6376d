// Package breaker wraps failsafe-go's circuit breaker for calls into backing stores.
package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"

	"bookshelf/pkg/logging"
)

// ErrOpen is returned without running the call while the circuit is open.
var ErrOpen = circuitbreaker.ErrOpen

// State represents the state of the circuit breaker.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Config configures the circuit breaker.
type Config struct {
	// Name identifies this circuit breaker in logs
	Name string

	// SuccessThreshold is the number of successful calls needed in half-open
	// state before transitioning to closed. Default: 1
	SuccessThreshold uint

	// Delay is how long the circuit stays open before transitioning to
	// half-open. Default: 15 seconds.
	Delay time.Duration

	// FailureRatio trips the circuit when failures/MinRequests exceeds it.
	// Default: 0.5
	FailureRatio float64

	// MinRequests is the sample window the failure ratio is evaluated over.
	// Default: 10
	MinRequests uint

	// IsFailure decides which errors count against the circuit. Default: any non-nil error.
	IsFailure func(error) bool

	Logger logging.Logger
}

// DefaultConfig returns the defaults used for store calls.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		SuccessThreshold: 1,
		Delay:            15 * time.Second,
		FailureRatio:     0.5,
		MinRequests:      10,
	}
}

// CircuitBreaker guards calls to a single backend.
type CircuitBreaker struct {
	cb   circuitbreaker.CircuitBreaker[any]
	name string
}

// New creates a circuit breaker, filling zero fields with defaults.
func New(cfg Config) *CircuitBreaker {
	defaults := DefaultConfig(cfg.Name)
	if cfg.Name == "" {
		cfg.Name = "circuit-breaker"
	}
	if cfg.Delay == 0 {
		cfg.Delay = defaults.Delay
	}
	if cfg.FailureRatio == 0 {
		cfg.FailureRatio = defaults.FailureRatio
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = defaults.MinRequests
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = defaults.SuccessThreshold
	}
	isFailure := cfg.IsFailure
	if isFailure == nil {
		isFailure = func(err error) bool { return err != nil }
	}

	failureThreshold := uint(float64(cfg.MinRequests) * cfg.FailureRatio)
	if failureThreshold < 1 {
		failureThreshold = 1
	}

	builder := circuitbreaker.NewBuilder[any]().
		HandleIf(func(_ any, err error) bool { return isFailure(err) }).
		WithFailureThresholdRatio(failureThreshold, cfg.MinRequests).
		WithDelay(cfg.Delay).
		WithSuccessThreshold(cfg.SuccessThreshold)

	if cfg.Logger != nil {
		logger := cfg.Logger
		name := cfg.Name
		builder = builder.OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			logger.WithFields(logging.Fields{
				"circuit_breaker": name,
				"from_state":      convertState(event.OldState).String(),
				"to_state":        convertState(event.NewState).String(),
			}).Warn("circuit breaker state change")
		})
	}

	return &CircuitBreaker{
		cb:   builder.Build(),
		name: cfg.Name,
	}
}

func convertState(state circuitbreaker.State) State {
	switch state {
	case circuitbreaker.ClosedState:
		return StateClosed
	case circuitbreaker.HalfOpenState:
		return StateHalfOpen
	case circuitbreaker.OpenState:
		return StateOpen
	default:
		return StateClosed
	}
}

// Execute runs fn through the circuit breaker. It never retries.
func (b *CircuitBreaker) Execute(ctx context.Context, fn func() (any, error)) (any, error) {
	return failsafe.With[any](b.cb).WithContext(ctx).Get(fn)
}

// State returns the current state of the circuit breaker.
func (b *CircuitBreaker) State() State {
	return convertState(b.cb.State())
}

// Name returns the name of the circuit breaker.
func (b *CircuitBreaker) Name() string {
	return b.name
}

// IsOpenError reports whether err was produced by an open circuit.
func IsOpenError(err error) bool {
	return errors.Is(err, ErrOpen)
}
