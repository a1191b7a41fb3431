// Package retry runs an operation again with exponential backoff when it
// fails with an error the caller considers transient.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryableError marks an error as transient.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err so that the default policy retries it.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err was marked with Retryable.
func IsRetryable(err error) bool {
	var target *RetryableError
	return errors.As(err, &target)
}

// PermanentError stops the retry loop immediately.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so that it is returned without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var target *PermanentError
	return errors.As(err, &target)
}

// Config holds retry configuration.
type Config struct {
	// MaxAttempts counts the first call too. Default: 3.
	MaxAttempts int
	// InitialDelay is the wait before the first retry. Default: 100ms.
	InitialDelay time.Duration
	// MaxDelay caps a single wait. Default: 30s.
	MaxDelay time.Duration
	// Multiplier grows the delay after each attempt. Default: 2.0.
	Multiplier float64
	// JitterFactor randomizes delays by ±factor. Default: 0.1.
	JitterFactor float64
	// RetryIf decides whether an error is transient.
	// If nil, only errors wrapped with Retryable are retried.
	RetryIf func(error) bool
	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, delay time.Duration)
	// Sleep waits between attempts; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
		Sleep:        sleepContext,
	}
}

// Option is a functional option for configuring retries.
type Option func(*Config)

func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.InitialDelay = d
		}
	}
}

func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.MaxDelay = d
		}
	}
}

func WithMultiplier(m float64) Option {
	return func(c *Config) {
		if m >= 1.0 {
			c.Multiplier = m
		}
	}
}

// WithJitter sets the jitter factor (0.0 to 1.0).
func WithJitter(j float64) Option {
	return func(c *Config) {
		if j >= 0 && j <= 1.0 {
			c.JitterFactor = j
		}
	}
}

func WithRetryIf(fn func(error) bool) Option {
	return func(c *Config) { c.RetryIf = fn }
}

func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(c *Config) { c.OnRetry = fn }
}

// WithSleep replaces the wait function.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Config) {
		if fn != nil {
			c.Sleep = fn
		}
	}
}

// Retrier manages retry operations.
type Retrier struct {
	config Config
}

// New creates a new Retrier with the given options.
func New(opts ...Option) *Retrier {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &Retrier{config: config}
}

// Do executes operation until it succeeds, returns a non-transient error,
// runs out of attempts or ctx is done. Marker wrappers are stripped from
// the returned error.
func (r *Retrier) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = unwrapMarker(err)

		if IsPermanent(err) || !r.shouldRetry(err) || attempt == r.config.MaxAttempts {
			return lastErr
		}

		delay := r.Delay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, lastErr, delay)
		}
		if err := r.config.Sleep(ctx, delay); err != nil {
			return lastErr
		}
	}

	return lastErr
}

func (r *Retrier) shouldRetry(err error) bool {
	if r.config.RetryIf != nil {
		return r.config.RetryIf(err)
	}
	return IsRetryable(err)
}

// Delay returns the wait before the retry that follows the given attempt:
// InitialDelay * Multiplier^(attempt-1), capped and jittered.
func (r *Retrier) Delay(attempt int) time.Duration {
	d := float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(attempt-1))
	if d > float64(r.config.MaxDelay) {
		d = float64(r.config.MaxDelay)
	}
	if r.config.JitterFactor > 0 {
		d += d * r.config.JitterFactor * (rand.Float64()*2 - 1)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

func unwrapMarker(err error) error {
	var p *PermanentError
	if errors.As(err, &p) && p == err {
		return p.Err
	}
	var rt *RetryableError
	if errors.As(err, &rt) && rt == err {
		return rt.Err
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do is a convenience function that creates a Retrier and executes the operation.
func Do(ctx context.Context, operation func(ctx context.Context) error, opts ...Option) error {
	return New(opts...).Do(ctx, operation)
}

// DoWithData is Do for operations that return a value.
func DoWithData[T any](ctx context.Context, operation func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var result T
	err := New(opts...).Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = operation(ctx)
		return opErr
	})
	return result, err
}

// RateLimitOptions returns the policy used against rate-limited upstreams:
// maxRetries retries after the first call, waiting base, base*2, base*4...
// with no jitter. Only errors accepted by isRateLimited are retried.
func RateLimitOptions(base time.Duration, maxRetries int, isRateLimited func(error) bool) []Option {
	return []Option{
		WithMaxAttempts(maxRetries + 1),
		WithInitialDelay(base),
		WithMaxDelay(base * time.Duration(1<<maxRetries)),
		WithMultiplier(2.0),
		WithJitter(0),
		WithRetryIf(isRateLimited),
	}
}

// DatabaseOptions returns a short policy for transient database failures.
func DatabaseOptions() []Option {
	return []Option{
		WithMaxAttempts(3),
		WithInitialDelay(50 * time.Millisecond),
		WithMaxDelay(time.Second),
		WithJitter(0.05),
	}
}
