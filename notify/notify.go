// Package notify provides Notifier decorators for privmsg.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/rbaliyan/privmsg"
	"github.com/rbaliyan/privmsg/store"
	"golang.org/x/time/rate"
)

// ErrThrottled is returned when a notification was dropped by a Throttle.
var ErrThrottled = errors.New("notify: throttled")

// Default throttle values.
const (
	DefaultRate              = rate.Limit(50) // notifications per second
	DefaultBurst             = 100
	DefaultPerRecipientRate  = rate.Limit(1.0 / 60) // one per minute
	DefaultPerRecipientBurst = 5
)

type throttleOptions struct {
	limit        rate.Limit
	burst        int
	perRecipient bool
	rcptLimit    rate.Limit
	rcptBurst    int
	logger       *slog.Logger
}

// ThrottleOption configures a Throttle.
type ThrottleOption func(*throttleOptions)

// WithRate sets the overall notification rate.
func WithRate(r rate.Limit, burst int) ThrottleOption {
	return func(o *throttleOptions) {
		if r > 0 && burst > 0 {
			o.limit, o.burst = r, burst
		}
	}
}

// WithPerRecipientRate additionally limits notifications per recipient, so a
// flood of messages to one user cannot starve everyone else.
func WithPerRecipientRate(r rate.Limit, burst int) ThrottleOption {
	return func(o *throttleOptions) {
		if r > 0 && burst > 0 {
			o.perRecipient = true
			o.rcptLimit, o.rcptBurst = r, burst
		}
	}
}

// WithLogger sets a custom logger for dropped notifications.
func WithLogger(l *slog.Logger) ThrottleOption {
	return func(o *throttleOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Throttle drops notifications above a configured rate instead of delaying
// the create that triggered them.
//
// Per-recipient limiters are forgotten once idle for as long as they take to
// refill, since a full limiter behaves exactly like a new one.
type Throttle struct {
	next    privmsg.Notifier
	opts    throttleOptions
	limiter *rate.Limiter
	now     func() time.Time

	mu         sync.Mutex
	recipients map[string]*recipientLimiter
	idle       time.Duration
	lastSweep  time.Time
}

type recipientLimiter struct {
	limiter *rate.Limiter
	seen    time.Time
}

var _ privmsg.Notifier = (*Throttle)(nil)

// NewThrottle wraps next.
func NewThrottle(next privmsg.Notifier, opts ...ThrottleOption) *Throttle {
	o := throttleOptions{
		limit:     DefaultRate,
		burst:     DefaultBurst,
		rcptLimit: DefaultPerRecipientRate,
		rcptBurst: DefaultPerRecipientBurst,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Throttle{
		next:       next,
		opts:       o,
		limiter:    rate.NewLimiter(o.limit, o.burst),
		now:        time.Now,
		recipients: make(map[string]*recipientLimiter),
		idle:       refillTime(o.rcptLimit, o.rcptBurst),
		lastSweep:  time.Now(),
	}
}

// Notify forwards msg unless a limit is exhausted, in which case it returns
// ErrThrottled without calling the wrapped notifier.
func (t *Throttle) Notify(ctx context.Context, msg *store.Message) error {
	now := t.now()
	if t.opts.perRecipient && !t.allowRecipient(msg.RecipientID, now) {
		t.opts.logger.Debug("notification dropped", "reason", "recipient", "recipient_id", msg.RecipientID)
		return fmt.Errorf("%w: recipient %s", ErrThrottled, msg.RecipientID)
	}
	if !t.limiter.AllowN(now, 1) {
		t.opts.logger.Debug("notification dropped", "reason", "global", "recipient_id", msg.RecipientID)
		return ErrThrottled
	}
	return t.next.Notify(ctx, msg)
}

func (t *Throttle) allowRecipient(id string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if now.Sub(t.lastSweep) >= t.idle {
		t.sweep(now)
	}

	r, ok := t.recipients[id]
	if !ok {
		r = &recipientLimiter{limiter: rate.NewLimiter(t.opts.rcptLimit, t.opts.rcptBurst)}
		t.recipients[id] = r
	}
	r.seen = now
	return r.limiter.AllowN(now, 1)
}

// sweep drops limiters idle for a full refill. Caller holds mu.
func (t *Throttle) sweep(now time.Time) {
	for id, r := range t.recipients {
		if now.Sub(r.seen) >= t.idle {
			delete(t.recipients, id)
		}
	}
	t.lastSweep = now
}

// tracked returns the number of live per-recipient limiters.
func (t *Throttle) tracked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.recipients)
}

// refillTime is how long an empty limiter takes to fill up to burst.
func refillTime(limit rate.Limit, burst int) time.Duration {
	if limit == rate.Inf {
		return 0
	}
	secs := float64(burst) / float64(limit)
	if secs >= float64(math.MaxInt64)/float64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(math.Round(secs * float64(time.Second)))
}

// Multi notifies every sink in order and joins their errors.
func Multi(notifiers ...privmsg.Notifier) privmsg.Notifier {
	return privmsg.NotifierFunc(func(ctx context.Context, msg *store.Message) error {
		var errs []error
		for _, n := range notifiers {
			if n == nil {
				continue
			}
			if err := n.Notify(ctx, msg); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
