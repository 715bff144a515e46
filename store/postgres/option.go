package postgres

import (
	"log/slog"
	"time"
)

// Default configuration values.
const (
	DefaultTable   = "messages"
	DefaultTimeout = 10 * time.Second
)

// options holds PostgreSQL store configuration.
type options struct {
	table        string
	timeout      time.Duration
	manageSchema bool
	logger       *slog.Logger
}

func newOptions(opts ...Option) *options {
	o := &options{
		table:        DefaultTable,
		timeout:      DefaultTimeout,
		manageSchema: true,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option configures a PostgreSQL store.
type Option func(*options)

// WithTable sets the messages table name.
func WithTable(name string) Option {
	return func(o *options) {
		if name != "" {
			o.table = name
		}
	}
}

// WithTimeout sets the per-statement timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithoutSchema stops Connect from creating the table and its indexes,
// for deployments where migrations own the schema.
func WithoutSchema() Option {
	return func(o *options) {
		o.manageSchema = false
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
