package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/core"
	"github.com/ib-77/flowgraph/pkg/flow/graph"
	"github.com/ib-77/flowgraph/pkg/flow/solo"
)

// Engine dispatches graph tasks to a worker pool and runs graphs to completion.
type Engine struct {
	registry  *Registry
	codec     Codec
	workers   int
	queueSize int
	debug     bool

	pool     *Pool
	stopOnce sync.Once

	logger  *slog.Logger
	tracer  trace.Tracer
	meter   metric.Meter
	metrics instruments
}

var _ graph.Dispatcher = (*Engine)(nil)

// New creates an engine. The worker count defaults to the value stored by
// core.WithWorkerOptions in ctx, or runtime.NumCPU when there is none.
// ctx bounds the lifetime of the pool workers.
func New(ctx context.Context, opts ...Option) *Engine {
	e := &Engine{
		workers:   core.GetWorkerMaxCount(ctx, runtime.NumCPU()),
		queueSize: -1,
		codec:     GobCodec{},
		logger:    slog.Default(),
		tracer:    otel.Tracer(instrumentationName),
		meter:     otel.Meter(instrumentationName),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = DefaultRegistry()
	}
	if e.workers < 0 {
		e.workers = 0
	}
	if e.workers > 0 {
		e.pool = NewPool(ctx, e.workers, e.queueSize, e.logger)
	}
	return e
}

func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

func (e *Engine) Registry() *Registry {
	return e.registry
}

// Register adds a task kind to the engine's registry.
func (e *Engine) Register(kind string, fn flow.TaskFunc) error {
	return e.registry.Register(kind, fn)
}

func (e *Engine) Workers() int {
	return e.workers
}

// RunAsync executes task and hands its result to callback exactly once.
// The callback runs on a pool worker, or inline for local, debug or
// zero-worker dispatch.
func (e *Engine) RunAsync(ctx context.Context, task flow.Task, callback func(flow.Result[any])) {
	opts := core.GetDispatchOptions(ctx)

	switch {
	case e.debug || opts.Debug:
		callback(e.executeDebug(ctx, task))
	case opts.Local || e.pool == nil:
		callback(e.execute(ctx, task))
	default:
		err := e.pool.Submit(ctx, job{
			run: func(context.Context) {
				callback(e.execute(ctx, task))
			},
			abort: func() {
				callback(flow.FromFailure[any](
					flow.Interruption("engine terminated").WithTask(task.Kind)))
			},
		})
		if err != nil {
			callback(flow.FromFailure[any](
				flow.AsFailure(err, flow.KindInterruption).WithTask(task.Kind)))
		}
	}
}

func (e *Engine) execute(ctx context.Context, task flow.Task) flow.Result[any] {
	fn, ok := e.registry.Lookup(task.Kind)
	if !ok {
		return flow.FromFailure[any](flow.AsFailure(
			fmt.Errorf("%w: %q", flow.ErrUnknownTask, task.Kind), flow.KindError).WithTask(task.Kind))
	}

	ctx, span := e.tracer.Start(ctx, "flowgraph.task",
		trace.WithAttributes(
			attribute.String("task.kind", task.Kind),
			attribute.String("node.name", task.Node),
			attribute.Int("task.args", len(task.Args)),
		),
	)
	defer span.End()

	e.taskStarted(ctx, task.Kind)
	start := time.Now()

	res := solo.Invoke(ctx, task.Kind, fn, task.Args)
	if res.IsSuccess() && task.Shape == flow.ShapeList {
		res = flow.ToList(res.Result())
		if res.IsFailure() {
			res = flow.FromFailure[any](res.Failure().WithTask(task.Kind))
		}
	}

	e.taskFinished(ctx, task.Kind, time.Since(start), res.IsFailure())

	onFailure := func(kind string) func(context.Context, error) {
		return func(_ context.Context, err error) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			e.logger.Debug("task failed",
				slog.String("task", task.Kind),
				slog.String("node", task.Node),
				slog.String("kind", kind),
				slog.String("error", err.Error()),
			)
		}
	}
	return solo.DoubleTee(ctx, res,
		func(context.Context, any) { span.SetStatus(codes.Ok, "") },
		onFailure(flow.KindError.String()),
		onFailure(flow.KindInterruption.String()))
}

// executeDebug runs task inline after passing it, and then its result,
// through the codec.
func (e *Engine) executeDebug(ctx context.Context, task flow.Task) flow.Result[any] {
	payload, err := e.codec.EncodeTask(task)
	if err != nil {
		return flow.FromFailure[any](flow.AsFailure(err, flow.KindError).WithTask(task.Kind))
	}
	decoded, err := e.codec.DecodeTask(payload)
	if err != nil {
		return flow.FromFailure[any](flow.AsFailure(err, flow.KindError).WithTask(task.Kind))
	}

	res := e.execute(ctx, decoded)

	out, err := e.codec.EncodeResult(res)
	if err != nil {
		return flow.FromFailure[any](flow.AsFailure(err, flow.KindError).WithTask(task.Kind))
	}
	back, err := e.codec.DecodeResult(out)
	if err != nil {
		return flow.FromFailure[any](flow.AsFailure(err, flow.KindError).WithTask(task.Kind))
	}
	return back
}

// Run executes the graph feeding out and blocks until every position of
// out holds a result.
func (e *Engine) Run(ctx context.Context, out *graph.Output) error {
	runID := uuid.NewString()

	ctx, span := e.tracer.Start(ctx, "flowgraph.run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("output.name", out.Name()),
			attribute.Int64("output.size", int64(out.Size())),
			attribute.Int("engine.workers", e.workers),
		),
	)
	defer span.End()

	logger := e.logger.With(slog.String("run_id", runID))
	logger.Info("run started",
		slog.String("output", out.Name()),
		slog.Uint64("size", out.Size()),
		slog.Int("workers", e.workers),
	)

	start := time.Now()
	err := out.Run(ctx, e)
	elapsed := time.Since(start)
	e.runFinished(ctx, elapsed, out.Interrupted())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("run failed", slog.String("error", err.Error()))
		return err
	}

	span.SetAttributes(attribute.Bool("run.interrupted", out.Interrupted()))
	span.SetStatus(codes.Ok, "")
	logger.Info("run completed",
		slog.Duration("elapsed", elapsed),
		slog.Bool("interrupted", out.Interrupted()),
	)
	return nil
}

// ShutDown waits for queued tasks and stops the workers.
func (e *Engine) ShutDown() {
	e.stopOnce.Do(func() {
		if e.pool != nil {
			e.pool.Close()
		}
	})
}

// Terminate stops the workers without running queued tasks. Their
// callbacks receive interruptions.
func (e *Engine) Terminate() {
	e.stopOnce.Do(func() {
		if e.pool != nil {
			e.pool.Terminate()
		}
	})
}

// Stats reports pool activity. Zero-worker engines report zero values.
func (e *Engine) Stats() PoolStats {
	if e.pool == nil {
		return PoolStats{}
	}
	return e.pool.Stats()
}

// RunOnce builds an engine with the given worker count, runs out and
// returns its values. Failures stay in the list as *flow.Failure unless
// reRaise is set, in which case the first task error is returned.
func RunOnce(ctx context.Context, out *graph.Output, workers int, reRaise bool, opts ...Option) ([]any, error) {
	e := New(ctx, append([]Option{WithWorkers(workers)}, opts...)...)
	defer e.ShutDown()

	if err := e.Run(ctx, out); err != nil {
		return nil, err
	}
	return out.Values(reRaise)
}
