// Package retry retries transient notification failures with exponential
// backoff. The message service itself never retries; retry is used by
// delivery adapters such as notify/sns whose downstream may blip.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Default policy values.
const (
	DefaultAttempts       = 3
	DefaultInitialBackoff = 100 * time.Millisecond
	DefaultMaxBackoff     = 5 * time.Second
	DefaultMultiplier     = 2.0
	DefaultJitter         = 0.1
)

// Sentinel errors.
var (
	// ErrNotRetryable marks a failure the predicate refused to retry.
	ErrNotRetryable = errors.New("retry: error is not retryable")

	// ErrExhausted is returned when every attempt failed.
	ErrExhausted = errors.New("retry: attempts exhausted")

	// ErrCanceled is returned when the context ends between attempts.
	ErrCanceled = errors.New("retry: context canceled")
)

// Policy controls how often and how fast an operation is retried.
type Policy struct {
	attempts       int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	multiplier     float64
	jitter         float64
	retryIf        func(error) bool
	wait           func(ctx context.Context, d time.Duration) error
}

// Option configures a Policy.
type Option func(*Policy)

// NewPolicy returns a policy with defaults overridden by opts.
func NewPolicy(opts ...Option) Policy {
	p := Policy{
		attempts:       DefaultAttempts,
		initialBackoff: DefaultInitialBackoff,
		maxBackoff:     DefaultMaxBackoff,
		multiplier:     DefaultMultiplier,
		jitter:         DefaultJitter,
		retryIf:        IsRetryable,
		wait:           sleep,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// WithAttempts sets the total number of attempts, including the first one.
// Values below 1 are ignored.
func WithAttempts(n int) Option {
	return func(p *Policy) {
		if n >= 1 {
			p.attempts = n
		}
	}
}

// WithBackoff sets the delay before the first retry and its upper bound.
func WithBackoff(initial, maxBackoff time.Duration) Option {
	return func(p *Policy) {
		if initial > 0 {
			p.initialBackoff = initial
		}
		if maxBackoff >= initial && maxBackoff > 0 {
			p.maxBackoff = maxBackoff
		}
	}
}

// WithMultiplier sets the backoff growth factor. Values below 1 are ignored.
func WithMultiplier(m float64) Option {
	return func(p *Policy) {
		if m >= 1 {
			p.multiplier = m
		}
	}
}

// WithJitter sets the random spread applied to every delay, as a fraction in [0, 1].
func WithJitter(j float64) Option {
	return func(p *Policy) {
		p.jitter = math.Min(math.Max(j, 0), 1)
	}
}

// WithRetryIf sets the predicate deciding whether an error is retried.
func WithRetryIf(fn func(error) bool) Option {
	return func(p *Policy) {
		if fn != nil {
			p.retryIf = fn
		}
	}
}

// WithWait replaces the function that pauses between attempts.
// Tests use it to avoid real sleeps.
func WithWait(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Policy) {
		if fn != nil {
			p.wait = fn
		}
	}
}

// Attempts returns the total number of attempts.
func (p Policy) Attempts() int { return p.attempts }

// Backoff returns the delay before retry n (0-based), without jitter.
func (p Policy) Backoff(n int) time.Duration {
	d := float64(p.initialBackoff) * math.Pow(p.multiplier, float64(n))
	if d > float64(p.maxBackoff) {
		d = float64(p.maxBackoff)
	}
	return time.Duration(d)
}

func (p Policy) jittered(n int) time.Duration {
	d := float64(p.Backoff(n))
	if p.jitter > 0 {
		spread := d * p.jitter
		d = d - spread + rand.Float64()*2*spread
	}
	return time.Duration(d)
}

// Do calls fn until it succeeds, the predicate rejects its error, the
// attempts run out or ctx ends. Failures are returned as *Error.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.wait == nil {
		p = NewPolicy()
	}

	var last error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if last == nil {
				return err
			}
			return &Error{Cause: last, Attempts: attempt - 1, Err: ErrCanceled}
		}

		last = fn(ctx)
		if last == nil {
			return nil
		}
		if !p.retryIf(last) {
			return &Error{Cause: last, Attempts: attempt, Err: ErrNotRetryable}
		}
		if attempt >= p.attempts {
			return &Error{Cause: last, Attempts: attempt, Err: ErrExhausted}
		}
		if err := p.wait(ctx, p.jittered(attempt-1)); err != nil {
			return &Error{Cause: last, Attempts: attempt, Err: ErrCanceled}
		}
	}
}

// Do runs fn under a policy built from opts.
func Do(ctx context.Context, fn func(ctx context.Context) error, opts ...Option) error {
	return NewPolicy(opts...).Do(ctx, fn)
}

// Error describes a failed retried operation.
type Error struct {
	// Cause is the last error returned by the operation.
	Cause error
	// Attempts is the number of calls made.
	Attempts int
	// Err is ErrExhausted, ErrNotRetryable or ErrCanceled.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s after %d attempts: %s", e.Err, e.Attempts, e.Cause)
}

func (e *Error) Unwrap() []error {
	return []error{e.Err, e.Cause}
}

// IsRetryable is the default predicate. Errors marked with Permanent and
// context errors are not retried; everything else is.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var perm *permanentError
	return !errors.As(err, &perm)
}

// Permanent marks err so the default predicate does not retry it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{cause: err}
}

type permanentError struct {
	cause error
}

func (e *permanentError) Error() string { return e.cause.Error() }
func (e *permanentError) Unwrap() error { return e.cause }

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
