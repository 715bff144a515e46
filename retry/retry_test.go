package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func noWait(calls *[]time.Duration) Option {
	return WithWait(func(_ context.Context, d time.Duration) error {
		*calls = append(*calls, d)
		return nil
	})
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	var waits []time.Duration
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	}, WithAttempts(5), WithJitter(0), noWait(&waits))

	if err != nil {
		t.Fatalf("Do() = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(waits) != len(want) {
		t.Fatalf("waits = %v, want %v", waits, want)
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Errorf("waits[%d] = %v, want %v", i, waits[i], want[i])
		}
	}
}

func TestDoExhausted(t *testing.T) {
	var waits []time.Duration
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return errBoom
	}, WithAttempts(3), noWait(&waits))

	var rerr *Error
	if !errors.As(err, &rerr) {
		t.Fatalf("Do() = %v, want *Error", err)
	}
	if rerr.Attempts != 3 || calls != 3 {
		t.Errorf("attempts = %d, calls = %d, want 3", rerr.Attempts, calls)
	}
	if !errors.Is(err, ErrExhausted) || !errors.Is(err, errBoom) {
		t.Errorf("err = %v, want ErrExhausted wrapping cause", err)
	}
	if len(waits) != 2 {
		t.Errorf("waited %d times, want 2", len(waits))
	}
}

func TestDoPermanent(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(errBoom)
	}, noWait(new([]time.Duration)))

	if !errors.Is(err, ErrNotRetryable) || !errors.Is(err, errBoom) {
		t.Fatalf("Do() = %v, want ErrNotRetryable wrapping cause", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoCustomPredicate(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return errBoom
	}, WithRetryIf(func(error) bool { return false }))

	if !errors.Is(err, ErrNotRetryable) {
		t.Fatalf("Do() = %v, want ErrNotRetryable", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errBoom
	}, WithWait(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }))

	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("Do() = %v, want ErrCanceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}

	// Already canceled: fn is never called.
	calls = 0
	err = Do(ctx, func(context.Context) error { calls++; return nil })
	if !errors.Is(err, context.Canceled) || calls != 0 {
		t.Errorf("Do(canceled) = %v after %d calls", err, calls)
	}
}

func TestBackoffCapped(t *testing.T) {
	p := NewPolicy(WithBackoff(time.Second, 3*time.Second), WithMultiplier(2))
	tests := []struct {
		n    int
		want time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 3 * time.Second},
		{10, 3 * time.Second},
	}
	for _, tt := range tests {
		if got := p.Backoff(tt.n); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errBoom, true},
		{"permanent", Permanent(errBoom), false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
