package privmsg

import (
	"context"
	"fmt"
	"time"

	"github.com/rbaliyan/privmsg/store"
)

// SendCounter counts the messages a sender created at or after since.
// Every store.Store is a SendCounter.
type SendCounter interface {
	CountSentSince(ctx context.Context, senderID string, since time.Time) (int64, error)
}

// SentRecorder is implemented by counters that keep their own record of
// sends. RecordSent is called once per message, only after it was persisted.
type SentRecorder interface {
	RecordSent(ctx context.Context, msg *store.Message) error
}

// RetentionReporter is implemented by counters that forget sends after a
// while. The service refuses a counter whose retention is shorter than the
// rate limit window.
type RetentionReporter interface {
	Retention() time.Duration
}

// RateLimiter enforces a per-sender quota over a trailing window.
//
// The window is closed at both ends: a message sent exactly at now-window
// still counts. The check is best effort; two concurrent creates from the
// same sender may both pass before either is persisted.
type RateLimiter struct {
	counter SendCounter
	quota   int
	window  time.Duration
}

// NewRateLimiter creates a limiter counting through counter.
// A negative quota disables the limit for users without their own quota.
func NewRateLimiter(counter SendCounter, quota int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = DefaultRateLimitWindow
	}
	return &RateLimiter{counter: counter, quota: quota, window: window}
}

// Window returns the length of the trailing window.
func (r *RateLimiter) Window() time.Duration { return r.window }

// QuotaFor returns the number of messages u may send per window.
// A negative result means unlimited.
func (r *RateLimiter) QuotaFor(u *User) int {
	if u != nil && u.MaxMessagesPerHour > 0 {
		return u.MaxMessagesPerHour
	}
	return r.quota
}

// Allow returns an error wrapping ErrRateLimitExceeded when sender already
// created quota messages in [now-window, now].
func (r *RateLimiter) Allow(ctx context.Context, sender *User, now time.Time) error {
	quota := r.QuotaFor(sender)
	if quota < 0 {
		return nil
	}

	count, err := r.counter.CountSentSince(ctx, sender.ID, now.Add(-r.window))
	if err != nil {
		return fmt.Errorf("count sent messages: %w", err)
	}
	if count >= int64(quota) {
		return fmt.Errorf("%w: %d of %d messages in %s", ErrRateLimitExceeded, count, quota, r.window)
	}
	return nil
}
