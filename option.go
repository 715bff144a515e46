package privmsg

import (
	"log/slog"
	"time"

	"github.com/rbaliyan/event/v3/transport"
	"github.com/rbaliyan/privmsg/store"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Default configuration values.
const (
	DefaultServiceName     = "privmsg"
	DefaultShutdownTimeout = 30 * time.Second // default graceful shutdown timeout
	MinShutdownTimeout     = 1 * time.Second  // minimum shutdown timeout

	// Query limits
	DefaultMaxQueryLimit = 100 // max messages per listing
	DefaultQueryLimit    = 100 // messages per listing when no limit is given

	// Rate limiting
	DefaultMaxMessagesPerHour = 60
	DefaultRateLimitWindow    = time.Hour

	// Concurrency limits
	DefaultMaxConcurrentCreates = 10 // max concurrent create operations per service

	// DefaultNotifyTimeout bounds a single background notification.
	DefaultNotifyTimeout = 30 * time.Second

	// BodyFormatMarkdown tags every body created through the service.
	BodyFormatMarkdown = "markdown"
)

// options holds service configuration.
type options struct {
	store     store.Store
	directory Directory
	notifier  Notifier
	logger    *slog.Logger
	clock     Clock

	plugins []Plugin

	// Query limits
	maxQueryLimit     int
	defaultQueryLimit int

	// Rate limiting
	maxMessagesPerHour int
	rateLimitWindow    time.Duration
	sendCounter        SendCounter

	// Concurrency limits
	maxConcurrentCreates int

	// Shutdown
	shutdownTimeout time.Duration

	notifyTimeout time.Duration

	// OpenTelemetry
	tracingEnabled bool
	metricsEnabled bool
	serviceName    string
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	// Event handling
	eventTransport        transport.Transport     // Event transport (optional, uses noop if nil)
	redisClient           redis.UniversalClient   // Redis client for event transport (optional)
	onEventPublishFailure EventPublishFailureFunc // Callback for event publish failures (always set)
}

// EventPublishFailureFunc is called when an event fails to publish.
// The eventName is the name of the event (e.g., "MessageCreated"), and err is the publish error.
type EventPublishFailureFunc func(eventName string, err error)

// safeEventPublishFailure calls the event failure callback with panic recovery.
// If the callback panics, the panic is logged and suppressed.
func (o *options) safeEventPublishFailure(eventName string, err error) {
	if o.onEventPublishFailure == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("panic in event publish failure handler",
				"event", eventName,
				"original_error", err,
				"panic", r,
			)
		}
	}()
	o.onEventPublishFailure(eventName, err)
}

// newOptions creates options with defaults and applies provided options.
func newOptions(opts ...Option) *options {
	o := &options{
		logger:               slog.Default(),
		clock:                SystemClock(),
		maxQueryLimit:        DefaultMaxQueryLimit,
		defaultQueryLimit:    DefaultQueryLimit,
		maxMessagesPerHour:   DefaultMaxMessagesPerHour,
		rateLimitWindow:      DefaultRateLimitWindow,
		maxConcurrentCreates: DefaultMaxConcurrentCreates,
		shutdownTimeout:      DefaultShutdownTimeout,
		notifyTimeout:        DefaultNotifyTimeout,
		serviceName:          DefaultServiceName,
	}
	for _, opt := range opts {
		opt(o)
	}

	// Validate query limits consistency
	if o.defaultQueryLimit > o.maxQueryLimit {
		o.defaultQueryLimit = o.maxQueryLimit
	}

	// Ensure event failure callback is always set
	if o.onEventPublishFailure == nil {
		o.onEventPublishFailure = func(eventName string, err error) {
			o.logger.Warn("failed to publish event", "event", eventName, "error", err)
		}
	}

	return o
}

// Option configures a message service.
type Option func(*options)

// --- Core Options ---

// WithStore sets the storage backend (required).
func WithStore(s store.Store) Option {
	return func(o *options) {
		if s != nil {
			o.store = s
		}
	}
}

// WithDirectory sets the user directory used to resolve recipients and
// sender quotas (required).
func WithDirectory(d Directory) Option {
	return func(o *options) {
		if d != nil {
			o.directory = d
		}
	}
}

// WithNotifier sets the sink told about new messages for recipients that
// asked to be notified. Without one no notifications are sent.
func WithNotifier(n Notifier) Option {
	return func(o *options) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithNotifyTimeout bounds each background notification.
// Default is 30 seconds.
func WithNotifyTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.notifyTimeout = d
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

// WithClock sets the time source for sent_on and the rate-limit window.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// --- Plugin/Extension Options ---

// WithPlugin registers a plugin with the service.
// Multiple plugins can be registered by calling this option multiple times.
func WithPlugin(p Plugin) Option {
	return func(o *options) {
		if p != nil {
			o.plugins = append(o.plugins, p)
		}
	}
}

// WithPlugins registers multiple plugins at once.
func WithPlugins(plugins ...Plugin) Option {
	return func(o *options) {
		for _, p := range plugins {
			if p != nil {
				o.plugins = append(o.plugins, p)
			}
		}
	}
}

// --- Query Limit Options ---

// WithMaxQueryLimit sets the largest accepted listing limit.
// Default is 100.
func WithMaxQueryLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxQueryLimit = n
		}
	}
}

// WithDefaultQueryLimit sets the listing limit used when none is given.
// Capped to the max query limit. Default is 100.
func WithDefaultQueryLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.defaultQueryLimit = n
		}
	}
}

// --- Rate Limit Options ---

// WithMaxMessagesPerHour sets the quota for users without their own.
// A negative value disables the limit for those users. Default is 60.
func WithMaxMessagesPerHour(n int) Option {
	return func(o *options) {
		o.maxMessagesPerHour = n
	}
}

// WithRateLimitWindow sets the trailing window the quota applies to.
// Default is one hour.
func WithRateLimitWindow(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.rateLimitWindow = d
		}
	}
}

// WithSendCounter replaces the store as the source of send counts, for
// example with counter/redis. Counters that also implement SentRecorder are
// told about every persisted message.
func WithSendCounter(c SendCounter) Option {
	return func(o *options) {
		if c != nil {
			o.sendCounter = c
		}
	}
}

// --- OTel Options ---

// WithTracing enables or disables OpenTelemetry tracing.
// Default is disabled.
func WithTracing(enabled bool) Option {
	return func(o *options) {
		o.tracingEnabled = enabled
	}
}

// WithMetrics enables or disables OpenTelemetry metrics.
// Default is disabled.
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.metricsEnabled = enabled
	}
}

// WithOTel enables both OpenTelemetry tracing and metrics.
func WithOTel(enabled bool) Option {
	return func(o *options) {
		o.tracingEnabled = enabled
		o.metricsEnabled = enabled
	}
}

// WithServiceName sets the service name used for metric names and the
// event bus. Default is "privmsg".
func WithServiceName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.serviceName = name
		}
	}
}

// WithTracerProvider sets a custom OpenTelemetry tracer provider.
// Default uses the global tracer provider from otel.GetTracerProvider().
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracerProvider = tp
		}
	}
}

// WithMeterProvider sets a custom OpenTelemetry meter provider.
// Default uses the global meter provider from otel.GetMeterProvider().
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		if mp != nil {
			o.meterProvider = mp
		}
	}
}

// --- Concurrency Options ---

// WithMaxConcurrentCreates sets the maximum number of concurrent creates.
// Default is 10.
func WithMaxConcurrentCreates(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConcurrentCreates = n
		}
	}
}

// WithShutdownTimeout sets the maximum time Close waits for in-flight
// creates and pending notifications. Default is 30 seconds. Minimum is 1 second.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= MinShutdownTimeout {
			o.shutdownTimeout = d
		}
	}
}

// --- Event Options ---

// WithEventTransport sets the event transport for publishing and subscribing.
// If not provided, a noop transport is used (events are silently dropped).
//
// Example with Redis:
//
//	transport, _ := redis.New(redisClient)
//	svc, _ := privmsg.NewService(privmsg.WithEventTransport(transport))
func WithEventTransport(t transport.Transport) Option {
	return func(o *options) {
		if t != nil {
			o.eventTransport = t
		}
	}
}

// WithRedisClient sets a Redis client for the event transport.
// When provided, events are published to Redis Streams.
//
// Compatible with *redis.Client, *redis.ClusterClient, and redis.UniversalClient.
func WithRedisClient(client redis.UniversalClient) Option {
	return func(o *options) {
		if client != nil {
			o.redisClient = client
		}
	}
}

// WithEventPublishFailureHandler sets a callback for event publishing failures.
// By default, failures are logged as warnings using the configured logger.
func WithEventPublishFailureHandler(fn EventPublishFailureFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.onEventPublishFailure = fn
		}
	}
}
