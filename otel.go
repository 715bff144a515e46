package privmsg

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/rbaliyan/privmsg"
)

// otelInstrumentation holds OpenTelemetry instrumentation for the message service.
type otelInstrumentation struct {
	enabled bool

	// Tracing
	tracingEnabled bool
	tracer         trace.Tracer

	// Metrics
	metricsEnabled bool

	createLatency metric.Float64Histogram
	createCount   metric.Int64Counter
	createErrors  metric.Int64Counter
	rateLimited   metric.Int64Counter
	showLatency   metric.Float64Histogram
	showCount     metric.Int64Counter
	showErrors    metric.Int64Counter
	listLatency   metric.Float64Histogram
	listCount     metric.Int64Counter
	listErrors    metric.Int64Counter
	updateLatency metric.Float64Histogram
	updateCount   metric.Int64Counter
	updateErrors  metric.Int64Counter
}

// newOtelInstrumentation creates new OTel instrumentation from options.
func newOtelInstrumentation(opts *options) (*otelInstrumentation, error) {
	o := &otelInstrumentation{
		enabled:        opts.tracingEnabled || opts.metricsEnabled,
		tracingEnabled: opts.tracingEnabled,
		metricsEnabled: opts.metricsEnabled,
	}

	if !o.enabled {
		return o, nil
	}

	if opts.tracingEnabled {
		tp := opts.tracerProvider
		if tp == nil {
			tp = otel.GetTracerProvider()
		}
		o.tracer = tp.Tracer(instrumentationName)
	}

	if opts.metricsEnabled {
		mp := opts.meterProvider
		if mp == nil {
			mp = otel.GetMeterProvider()
		}
		if err := o.initMetrics(mp, opts.serviceName); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// initMetrics initializes all metric instruments under the given prefix.
func (o *otelInstrumentation) initMetrics(mp metric.MeterProvider, prefix string) error {
	meter := mp.Meter(instrumentationName)

	var err error
	op := func(name string, latency *metric.Float64Histogram, count, errs *metric.Int64Counter) {
		if err != nil {
			return
		}
		if *latency, err = meter.Float64Histogram(
			prefix+"."+name+".duration",
			metric.WithDescription("Duration of "+name+" operations"),
			metric.WithUnit("s"),
		); err != nil {
			return
		}
		if *count, err = meter.Int64Counter(
			prefix+"."+name+".count",
			metric.WithDescription("Number of "+name+" operations"),
		); err != nil {
			return
		}
		*errs, err = meter.Int64Counter(
			prefix+"."+name+".errors",
			metric.WithDescription("Number of "+name+" errors"),
		)
	}

	op("create", &o.createLatency, &o.createCount, &o.createErrors)
	op("show", &o.showLatency, &o.showCount, &o.showErrors)
	op("list", &o.listLatency, &o.listCount, &o.listErrors)
	op("update", &o.updateLatency, &o.updateCount, &o.updateErrors)
	if err != nil {
		return err
	}

	o.rateLimited, err = meter.Int64Counter(
		prefix+".create.rate_limited",
		metric.WithDescription("Number of creates rejected by the rate limit"),
	)
	return err
}

// startSpan starts a new span if tracing is enabled.
// The returned function ends the span, recording err when non-nil.
func (o *otelInstrumentation) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	if !o.tracingEnabled || o.tracer == nil {
		return ctx, func(error) {}
	}
	ctx, span := o.tracer.Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// recordCreate records create operation metrics.
func (o *otelInstrumentation) recordCreate(ctx context.Context, duration time.Duration, err error) {
	if !o.metricsEnabled {
		return
	}

	o.createLatency.Record(ctx, duration.Seconds())
	o.createCount.Add(ctx, 1)
	if err != nil {
		o.createErrors.Add(ctx, 1)
	}
}

// recordRateLimited counts a create rejected by the rate limit.
func (o *otelInstrumentation) recordRateLimited(ctx context.Context) {
	if !o.metricsEnabled {
		return
	}
	o.rateLimited.Add(ctx, 1)
}

// recordShow records show operation metrics.
func (o *otelInstrumentation) recordShow(ctx context.Context, duration time.Duration, err error) {
	if !o.metricsEnabled {
		return
	}

	o.showLatency.Record(ctx, duration.Seconds())
	o.showCount.Add(ctx, 1)
	if err != nil {
		o.showErrors.Add(ctx, 1)
	}
}

// recordList records list operation metrics.
func (o *otelInstrumentation) recordList(ctx context.Context, duration time.Duration, box string, resultCount int, err error) {
	if !o.metricsEnabled {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("box", box),
		attribute.Int("result_count", resultCount),
	)

	o.listLatency.Record(ctx, duration.Seconds(), attrs)
	o.listCount.Add(ctx, 1, attrs)
	if err != nil {
		o.listErrors.Add(ctx, 1, attrs)
	}
}

// recordUpdate records read-status and destroy metrics.
func (o *otelInstrumentation) recordUpdate(ctx context.Context, duration time.Duration, operation string, err error) {
	if !o.metricsEnabled {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
	)

	o.updateLatency.Record(ctx, duration.Seconds(), attrs)
	o.updateCount.Add(ctx, 1, attrs)
	if err != nil {
		o.updateErrors.Add(ctx, 1, attrs)
	}
}
