// Package circuitbreaker stops calling an upstream that keeps failing and
// probes it again after a cool-down.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the current state of the circuit breaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

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

var (
	// ErrCircuitOpen is returned while the circuit rejects calls.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests is returned when the half-open probe budget is used up.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// Config holds circuit breaker configuration.
type Config struct {
	Name string
	// FailureThreshold consecutive failures open the circuit. Default: 5.
	FailureThreshold int
	// SuccessThreshold consecutive half-open successes close it. Default: 2.
	SuccessThreshold int
	// Timeout is the open period before probing. Default: 30s.
	Timeout time.Duration
	// MaxHalfOpenRequests bounds concurrent probes. Default: 1.
	MaxHalfOpenRequests int
	OnStateChange       func(name string, from, to State)
	// IsFailure filters which errors count. Nil counts every error.
	IsFailure func(error) bool
	// Now is the clock; tests replace it.
	Now func() time.Time
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(name string) Config {
	return Config{
		Name:                name,
		FailureThreshold:    5,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		MaxHalfOpenRequests: 1,
		Now:                 time.Now,
	}
}

// Option is a functional option for configuring the circuit breaker.
type Option func(*Config)

func WithFailureThreshold(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.FailureThreshold = n
		}
	}
}

func WithSuccessThreshold(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.SuccessThreshold = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.Timeout = d
		}
	}
}

func WithMaxHalfOpenRequests(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxHalfOpenRequests = n
		}
	}
}

func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(c *Config) { c.OnStateChange = fn }
}

func WithIsFailure(fn func(error) bool) Option {
	return func(c *Config) { c.IsFailure = fn }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		if now != nil {
			c.Now = now
		}
	}
}

// CircuitBreaker is safe for concurrent use.
type CircuitBreaker struct {
	config Config

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time
	probes    int
}

// New creates a new CircuitBreaker with the given name and options.
func New(name string, opts ...Option) *CircuitBreaker {
	config := DefaultConfig(name)
	for _, opt := range opts {
		opt(&config)
	}
	return &CircuitBreaker{config: config, state: StateClosed}
}

// Execute runs fn if the circuit allows it and records the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.allow(); err != nil {
		return err
	}
	err := fn(ctx)
	cb.record(err)
	return err
}

// ExecuteWithFallback calls fallback instead of failing when the circuit rejects the call.
func (cb *CircuitBreaker) ExecuteWithFallback(ctx context.Context, fn func(context.Context) error, fallback func(error) error) error {
	err := cb.Execute(ctx, fn)
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests) {
		return fallback(err)
	}
	return err
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		if cb.config.Now().Sub(cb.openedAt) < cb.config.Timeout {
			return ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
		cb.probes = 1
		return nil
	case StateHalfOpen:
		if cb.probes >= cb.config.MaxHalfOpenRequests {
			return ErrTooManyRequests
		}
		cb.probes++
		return nil
	default:
		return ErrCircuitOpen
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failed := err != nil
	if failed && cb.config.IsFailure != nil {
		failed = cb.config.IsFailure(err)
	}

	if !failed {
		cb.failures = 0
		cb.successes++
		if cb.state == StateHalfOpen {
			cb.probes--
			if cb.successes >= cb.config.SuccessThreshold {
				cb.transition(StateClosed)
			}
		}
		return
	}

	cb.successes = 0
	cb.failures++
	if cb.state == StateHalfOpen || cb.failures >= cb.config.FailureThreshold {
		cb.transition(StateOpen)
		cb.openedAt = cb.config.Now()
	}
}

// transition must be called with mu held.
func (cb *CircuitBreaker) transition(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	cb.failures = 0
	cb.successes = 0
	cb.probes = 0
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Name returns the name of the circuit breaker.
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// Reset closes the circuit and clears counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failures, cb.successes, cb.probes = 0, 0, 0
}

// ReasoningBreaker guards the reasoning API. Rate-limit and caller
// cancellation errors are excluded through isFailure.
func ReasoningBreaker(isFailure func(error) bool, onStateChange func(name string, from, to State)) *CircuitBreaker {
	return New(
		"reasoning-api",
		WithFailureThreshold(5),
		WithSuccessThreshold(1),
		WithTimeout(30*time.Second),
		WithIsFailure(isFailure),
		WithOnStateChange(onStateChange),
	)
}

// ExtractorBreaker guards the document text extraction service.
func ExtractorBreaker(onStateChange func(name string, from, to State)) *CircuitBreaker {
	return New(
		"text-extractor",
		WithFailureThreshold(3),
		WithSuccessThreshold(1),
		WithTimeout(15*time.Second),
		WithMaxHalfOpenRequests(2),
		WithOnStateChange(onStateChange),
	)
}
