package engine

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type Option func(*Engine)

// WithWorkers sets the pool size. Zero runs every task inline.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n < 0 {
			n = 0
		}
		e.workers = n
	}
}

// WithQueueSize bounds the number of tasks waiting for a worker.
func WithQueueSize(n int) Option {
	return func(e *Engine) {
		e.queueSize = n
	}
}

func WithDebug(debug bool) Option {
	return func(e *Engine) {
		e.debug = debug
	}
}

func WithRegistry(r *Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithCodec(c Codec) Option {
	return func(e *Engine) {
		if c != nil {
			e.codec = c
		}
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		if tp != nil {
			e.tracer = tp.Tracer(instrumentationName)
		}
	}
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Engine) {
		if mp != nil {
			e.meter = mp.Meter(instrumentationName)
		}
	}
}
