package engine

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/ib-77/flowgraph/engine"

// instruments holds the engine metrics. They are created on first use.
type instruments struct {
	once sync.Once
	err  error

	taskTotal    metric.Int64Counter
	taskFailures metric.Int64Counter
	taskDuration metric.Float64Histogram
	tasksActive  metric.Int64UpDownCounter
	runTotal     metric.Int64Counter
	runDuration  metric.Float64Histogram
}

func (in *instruments) init(meter metric.Meter) error {
	in.once.Do(func() {
		var err error

		in.taskTotal, err = meter.Int64Counter(
			"flowgraph_tasks_total",
			metric.WithDescription("Total number of executed tasks"),
		)
		if err != nil {
			in.err = err
			return
		}

		in.taskFailures, err = meter.Int64Counter(
			"flowgraph_task_failures_total",
			metric.WithDescription("Total number of tasks that produced a failure"),
		)
		if err != nil {
			in.err = err
			return
		}

		in.taskDuration, err = meter.Float64Histogram(
			"flowgraph_task_duration_seconds",
			metric.WithDescription("Duration of task execution"),
			metric.WithUnit("s"),
		)
		if err != nil {
			in.err = err
			return
		}

		in.tasksActive, err = meter.Int64UpDownCounter(
			"flowgraph_tasks_active",
			metric.WithDescription("Number of tasks currently executing"),
		)
		if err != nil {
			in.err = err
			return
		}

		in.runTotal, err = meter.Int64Counter(
			"flowgraph_runs_total",
			metric.WithDescription("Total number of graph runs"),
		)
		if err != nil {
			in.err = err
			return
		}

		in.runDuration, err = meter.Float64Histogram(
			"flowgraph_run_duration_seconds",
			metric.WithDescription("Duration of graph runs"),
			metric.WithUnit("s"),
		)
		if err != nil {
			in.err = err
			return
		}
	})
	return in.err
}

func (e *Engine) taskStarted(ctx context.Context, kind string) {
	if err := e.metrics.init(e.meter); err != nil {
		return
	}
	e.metrics.tasksActive.Add(ctx, 1, metric.WithAttributes(attribute.String("task", kind)))
}

func (e *Engine) taskFinished(ctx context.Context, kind string, d time.Duration, failed bool) {
	if err := e.metrics.init(e.meter); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("task", kind))
	e.metrics.tasksActive.Add(ctx, -1, attrs)
	e.metrics.taskTotal.Add(ctx, 1, attrs)
	e.metrics.taskDuration.Record(ctx, d.Seconds(), attrs)
	if failed {
		e.metrics.taskFailures.Add(ctx, 1, attrs)
	}
}

func (e *Engine) runFinished(ctx context.Context, d time.Duration, interrupted bool) {
	if err := e.metrics.init(e.meter); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("interrupted", interrupted))
	e.metrics.runTotal.Add(ctx, 1, attrs)
	e.metrics.runDuration.Record(ctx, d.Seconds(), attrs)
}
