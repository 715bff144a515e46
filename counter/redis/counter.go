// Package redis provides a Redis-backed send counter for the privmsg rate
// limiter, so the quota check does not hit the message store on every create.
//
// Each sender has a sorted set of message IDs scored by sent_on in
// milliseconds. Entries older than the retention are trimmed on write.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/rbaliyan/privmsg"
	"github.com/rbaliyan/privmsg/store"
	"github.com/redis/go-redis/v9"
)

// Default configuration values.
const (
	DefaultKeyPrefix = "privmsg:sent:"
	DefaultRetention = privmsg.DefaultRateLimitWindow
)

var (
	_ privmsg.SendCounter  = (*Counter)(nil)
	_ privmsg.SentRecorder = (*Counter)(nil)

	_ privmsg.RetentionReporter = (*Counter)(nil)
)

type options struct {
	prefix    string
	retention time.Duration
	logger    *slog.Logger
}

// Option configures a Counter.
type Option func(*options)

// WithKeyPrefix sets the prefix of the per-sender keys.
func WithKeyPrefix(p string) Option {
	return func(o *options) {
		if p != "" {
			o.prefix = p
		}
	}
}

// WithRetention sets how long sends are kept. privmsg.NewService rejects a
// counter whose retention is shorter than the rate limit window.
func WithRetention(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.retention = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Counter implements privmsg.SendCounter and privmsg.SentRecorder.
type Counter struct {
	client redis.UniversalClient
	opts   options
}

// New creates a counter on client.
func New(client redis.UniversalClient, opts ...Option) *Counter {
	o := options{
		prefix:    DefaultKeyPrefix,
		retention: DefaultRetention,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Counter{client: client, opts: o}
}

// Retention returns how long sends are kept.
func (c *Counter) Retention() time.Duration {
	return c.opts.retention
}

func (c *Counter) key(senderID string) string {
	return c.opts.prefix + senderID
}

// RecordSent adds msg to its sender's set. Recording the same message twice
// counts it once.
func (c *Counter) RecordSent(ctx context.Context, msg *store.Message) error {
	key := c.key(msg.SenderID)
	sentMs := msg.SentOn.UnixMilli()
	cutoff := msg.SentOn.Add(-c.opts.retention).UnixMilli()

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(sentMs), Member: strconv.FormatInt(msg.ID, 10)})
		pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
		pipe.Expire(ctx, key, c.opts.retention)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record sent %d: %w", msg.ID, err)
	}
	return nil
}

// CountSentSince returns the number of recorded sends of senderID at or
// after since.
func (c *Counter) CountSentSince(ctx context.Context, senderID string, since time.Time) (int64, error) {
	n, err := c.client.ZCount(ctx, c.key(senderID), strconv.FormatInt(since.UnixMilli(), 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("count sent: %w", err)
	}
	return n, nil
}

// Reset forgets every send of senderID.
func (c *Counter) Reset(ctx context.Context, senderID string) error {
	if err := c.client.Del(ctx, c.key(senderID)).Err(); err != nil {
		return fmt.Errorf("reset %s: %w", senderID, err)
	}
	c.opts.logger.Debug("send counter reset", "sender_id", senderID)
	return nil
}
