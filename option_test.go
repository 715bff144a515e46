package privmsg

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestNewOptions(t *testing.T) {
	t.Run("returns defaults without options", func(t *testing.T) {
		opts := newOptions()

		if opts.maxQueryLimit != DefaultMaxQueryLimit {
			t.Errorf("expected maxQueryLimit %v, got %v", DefaultMaxQueryLimit, opts.maxQueryLimit)
		}
		if opts.defaultQueryLimit != DefaultQueryLimit {
			t.Errorf("expected defaultQueryLimit %v, got %v", DefaultQueryLimit, opts.defaultQueryLimit)
		}
		if opts.maxMessagesPerHour != DefaultMaxMessagesPerHour {
			t.Errorf("expected maxMessagesPerHour %v, got %v", DefaultMaxMessagesPerHour, opts.maxMessagesPerHour)
		}
		if opts.rateLimitWindow != DefaultRateLimitWindow {
			t.Errorf("expected rateLimitWindow %v, got %v", DefaultRateLimitWindow, opts.rateLimitWindow)
		}
		if opts.maxConcurrentCreates != DefaultMaxConcurrentCreates {
			t.Errorf("expected maxConcurrentCreates %v, got %v", DefaultMaxConcurrentCreates, opts.maxConcurrentCreates)
		}
		if opts.shutdownTimeout != DefaultShutdownTimeout {
			t.Errorf("expected shutdownTimeout %v, got %v", DefaultShutdownTimeout, opts.shutdownTimeout)
		}
		if opts.serviceName != DefaultServiceName {
			t.Errorf("expected serviceName %q, got %q", DefaultServiceName, opts.serviceName)
		}
		if opts.clock == nil || opts.logger == nil || opts.onEventPublishFailure == nil {
			t.Error("expected clock, logger and publish failure handler to be set")
		}
	})
}

func TestWithLogger(t *testing.T) {
	custom := slog.New(slog.DiscardHandler)
	if opts := newOptions(WithLogger(custom)); opts.logger != custom {
		t.Error("expected custom logger to be set")
	}
	if opts := newOptions(WithLogger(nil)); opts.logger == nil {
		t.Error("nil logger should be ignored")
	}
}

func TestQueryLimitOptions(t *testing.T) {
	t.Run("default capped to max", func(t *testing.T) {
		opts := newOptions(WithMaxQueryLimit(10), WithDefaultQueryLimit(25))
		if opts.defaultQueryLimit != 10 {
			t.Errorf("expected defaultQueryLimit 10, got %d", opts.defaultQueryLimit)
		}
	})

	t.Run("non-positive values ignored", func(t *testing.T) {
		opts := newOptions(WithMaxQueryLimit(0), WithDefaultQueryLimit(-5))
		if opts.maxQueryLimit != DefaultMaxQueryLimit || opts.defaultQueryLimit != DefaultQueryLimit {
			t.Errorf("got max=%d default=%d", opts.maxQueryLimit, opts.defaultQueryLimit)
		}
	})
}

func TestRateLimitOptions(t *testing.T) {
	opts := newOptions(WithMaxMessagesPerHour(-1), WithRateLimitWindow(10*time.Minute))
	if opts.maxMessagesPerHour != -1 {
		t.Errorf("expected unlimited quota, got %d", opts.maxMessagesPerHour)
	}
	if opts.rateLimitWindow != 10*time.Minute {
		t.Errorf("expected 10m window, got %v", opts.rateLimitWindow)
	}

	if opts := newOptions(WithRateLimitWindow(0)); opts.rateLimitWindow != DefaultRateLimitWindow {
		t.Errorf("zero window should be ignored, got %v", opts.rateLimitWindow)
	}
}

func TestWithShutdownTimeout(t *testing.T) {
	if opts := newOptions(WithShutdownTimeout(5 * time.Second)); opts.shutdownTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %v", opts.shutdownTimeout)
	}
	if opts := newOptions(WithShutdownTimeout(time.Millisecond)); opts.shutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("timeout below minimum should be ignored, got %v", opts.shutdownTimeout)
	}
}

func TestWithOTel(t *testing.T) {
	opts := newOptions(WithOTel(true))
	if !opts.tracingEnabled || !opts.metricsEnabled {
		t.Error("expected tracing and metrics enabled")
	}
	opts = newOptions(WithOTel(true), WithMetrics(false))
	if !opts.tracingEnabled || opts.metricsEnabled {
		t.Error("expected only tracing enabled")
	}
	if opts := newOptions(WithServiceName("")); opts.serviceName != DefaultServiceName {
		t.Errorf("empty service name should be ignored, got %q", opts.serviceName)
	}
}

func TestWithPlugins(t *testing.T) {
	p1, p2 := &muteTitle{}, &muteTitle{}
	opts := newOptions(WithPlugin(p1), WithPlugin(nil), WithPlugins(p2, nil))
	if len(opts.plugins) != 2 {
		t.Errorf("expected 2 plugins, got %d", len(opts.plugins))
	}
}

func TestSafeEventPublishFailure(t *testing.T) {
	var gotName string
	var gotErr error
	boom := errors.New("boom")

	opts := newOptions(WithEventPublishFailureHandler(func(name string, err error) {
		gotName, gotErr = name, err
	}))
	opts.safeEventPublishFailure("MessageCreated", boom)
	if gotName != "MessageCreated" || !errors.Is(gotErr, boom) {
		t.Errorf("handler got %q, %v", gotName, gotErr)
	}

	panicking := newOptions(
		WithLogger(slog.New(slog.DiscardHandler)),
		WithEventPublishFailureHandler(func(string, error) { panic("handler bug") }),
	)
	panicking.safeEventPublishFailure("MessageRead", boom) // must not panic
}

func TestServiceWithOTel(t *testing.T) {
	env := setupTestService(t, WithOTel(true))
	env.send(t, "alice", "bob", "traced")
	if _, err := env.svc.Client("bob").Inbox(t.Context(), ListParams{}); err != nil {
		t.Fatalf("inbox with otel: %v", err)
	}
}
