// Package retry provides a small retry mechanism with configurable backoff
// strategies, jitter, context cancellation, and per-attempt observation.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Func defines a retryable function.
// The function must respect the provided context.
type Func func(ctx context.Context) error

// RetryIf determines whether an error should trigger a retry.
// Return true to retry, false to stop immediately.
type RetryIf func(error) bool

// OnRetry is invoked before each backoff wait. attempt counts from 1 and names
// the attempt that just failed; wait is the upcoming backoff duration.
type OnRetry func(attempt int, err error, wait time.Duration)

// Backoff defines how long to wait before the next retry.
// attempt starts from 0 (first retry after the first failure).
type Backoff interface {
	Next(attempt int) time.Duration
}

// Fixed backoff strategy.
type fixedBackoff struct {
	interval time.Duration
}

func (b fixedBackoff) Next(int) time.Duration {
	return b.interval
}

// Fixed returns a fixed backoff strategy.
func Fixed(interval time.Duration) Backoff {
	return fixedBackoff{interval: interval}
}

// Exponential backoff strategy.
type exponentialBackoff struct {
	base time.Duration
	max  time.Duration
}

func (b exponentialBackoff) Next(attempt int) time.Duration {
	d := b.base * time.Duration(1<<attempt)
	if b.max > 0 && d > b.max {
		return b.max
	}
	return d
}

// Exponential returns an exponential backoff strategy.
func Exponential(base time.Duration, max ...time.Duration) Backoff {
	var m time.Duration
	if len(max) > 0 {
		m = max[0]
	}
	return exponentialBackoff{base: base, max: m}
}

// Jitter modifies the backoff duration to avoid thundering herd problems.
type Jitter func(time.Duration) time.Duration

// NoJitter applies no jitter.
func NoJitter(d time.Duration) time.Duration {
	return d
}

// FullJitter applies full jitter: random duration in [0, d).
func FullJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d)))
}

// Config defines retry behavior.
// It is immutable during execution.
type Config struct {
	maxAttempts int
	backoff     Backoff
	jitter      Jitter
	retryIf     RetryIf
	onRetry     OnRetry
}

func defaultConfig() *Config {
	return &Config{
		maxAttempts: 4,
		backoff:     Exponential(2 * time.Second),
		jitter:      NoJitter,
		retryIf:     IsRetryableError,
	}
}

// Option configures retry behavior.
type Option func(*Config)

// WithMaxAttempts sets the maximum number of attempts (including the first attempt).
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff sets the backoff strategy.
func WithBackoff(b Backoff) Option {
	return func(c *Config) {
		if b != nil {
			c.backoff = b
		}
	}
}

// WithJitter sets the jitter strategy.
func WithJitter(j Jitter) Option {
	return func(c *Config) {
		if j != nil {
			c.jitter = j
		}
	}
}

// WithRetryIf sets the retry condition function.
func WithRetryIf(fn RetryIf) Option {
	return func(c *Config) {
		if fn != nil {
			c.retryIf = fn
		}
	}
}

// WithOnRetry sets the per-retry observer.
func WithOnRetry(fn OnRetry) Option {
	return func(c *Config) {
		c.onRetry = fn
	}
}

// Do executes fn with retry logic.
// The provided context controls cancellation and timeout.
func Do(ctx context.Context, fn Func, opts ...Option) error {
	_, err := DoWithReport(ctx, fn, opts...)
	return err
}

// DoWithReport behaves like Do and additionally reports the number of attempts
// consumed, including the first one. A successful first attempt reports 1.
func DoWithReport(ctx context.Context, fn Func, opts ...Option) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	var lastErr error
	attempts := 0

	for attempt := 0; attempt < cfg.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempts, err
		}

		attempts++
		err := fn(ctx)
		if err == nil {
			return attempts, nil
		}

		lastErr = err

		if !cfg.retryIf(err) {
			return attempts, err
		}

		// Last attempt, do not sleep
		if attempt == cfg.maxAttempts-1 {
			break
		}

		wait := cfg.jitter(cfg.backoff.Next(attempt))
		if cfg.onRetry != nil {
			cfg.onRetry(attempts, err, wait)
		}

		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return attempts, ctx.Err()
			}
		}
	}

	return attempts, lastErr
}

// IsRetryableError is the default retry condition.
// It retries all errors except context cancellation or deadline exceeded.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
