package core

import (
	"context"
	"time"
)

// Logger is the structured logger accepted by the stores. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MetricsRecorder observes the outcome of store actions.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer starts spans around store actions.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is ended exactly once with the action's error, if any.
type TraceSpan interface {
	End(err error)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// observer bundles the ambient hooks shared by every store.
type observer struct {
	log     Logger
	metrics MetricsRecorder
	tracer  Tracer
	clock   Clock
}

func defaultObserver() observer {
	return observer{log: noopLogger{}, metrics: noopMetrics{}, tracer: noopTracer{}, clock: RealClock{}}
}

// run wraps a store action with a span, a metrics observation and an error log.
func (o observer) run(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := o.tracer.Start(ctx, operation)
	started := time.Now()
	err := fn(ctx)
	o.metrics.Observe(ctx, operation, err == nil, time.Since(started))
	span.End(err)
	if err != nil {
		o.log.Warn("store action failed", "operation", operation, "error", err)
	} else {
		o.log.Debug("store action completed", "operation", operation)
	}
	return err
}

// StoreOption configures the ambient hooks of a store.
type StoreOption func(*observer)

// WithLogger sets the structured logger.
func WithLogger(l Logger) StoreOption {
	return func(o *observer) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) StoreOption {
	return func(o *observer) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(t Tracer) StoreOption {
	return func(o *observer) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithClock sets the clock used for cache windows and timestamps.
func WithClock(c Clock) StoreOption {
	return func(o *observer) {
		if c != nil {
			o.clock = c
		}
	}
}

func buildObserver(opts []StoreOption) observer {
	o := defaultObserver()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
