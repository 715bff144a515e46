package sqlite

import (
	"log/slog"
	"time"
)

// Default configuration values.
const (
	DefaultTable       = "messages"
	DefaultTimeout     = 10 * time.Second
	DefaultBusyTimeout = 5 * time.Minute
)

// options holds SQLite store configuration.
type options struct {
	table       string
	timeout     time.Duration
	busyTimeout time.Duration
	logger      *slog.Logger
}

func newOptions(opts ...Option) *options {
	o := &options{
		table:       DefaultTable,
		timeout:     DefaultTimeout,
		busyTimeout: DefaultBusyTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option configures a SQLite store.
type Option func(*options)

// WithTable sets the table name.
func WithTable(name string) Option {
	return func(o *options) {
		if name != "" {
			o.table = name
		}
	}
}

// WithTimeout sets the operation timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithBusyTimeout sets how long SQLite polls a locked database before
// giving up. Only used by Open.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.busyTimeout = d
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
