package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/core"
	"github.com/ib-77/flowgraph/pkg/flow/graph"
)

// dispatch runs task through e and waits for its callback.
func dispatch(t *testing.T, ctx context.Context, e *Engine, task flow.Task) flow.Result[any] {
	t.Helper()
	ch := make(chan flow.Result[any], 1)
	e.RunAsync(ctx, task, func(r flow.Result[any]) { ch <- r })

	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("callback not called")
		return flow.Result[any]{}
	}
}

func TestEngine_RunAsync(t *testing.T) {
	t.Parallel()

	for _, workers := range []int{0, 3} {
		e := New(context.Background(), WithWorkers(workers))

		r := dispatch(t, context.Background(), e, flow.Task{Kind: "add", Args: []any{2, 3}})
		require.True(t, r.IsSuccess(), "workers=%d", workers)
		assert.Equal(t, 5, r.Result())
		e.ShutDown()
	}
}

func TestEngine_UnknownTask(t *testing.T) {
	t.Parallel()
	e := New(context.Background(), WithWorkers(0))

	r := dispatch(t, context.Background(), e, flow.Task{Kind: "nope"})
	require.True(t, r.IsFailure())
	assert.ErrorIs(t, r.Err(), flow.ErrUnknownTask)
}

func TestEngine_ListShape(t *testing.T) {
	t.Parallel()
	e := New(context.Background(), WithWorkers(0))

	r := dispatch(t, context.Background(), e, flow.Task{Kind: "range", Args: []any{3}, Shape: flow.ShapeList})
	require.True(t, r.IsList())
	assert.Equal(t, []any{0, 1, 2}, r.Items())

	bad := dispatch(t, context.Background(), e, flow.Task{Kind: "add", Args: []any{1}, Shape: flow.ShapeList})
	require.True(t, bad.IsFailure())
	assert.ErrorIs(t, bad.Err(), flow.ErrNotList)
	assert.Equal(t, "add", bad.Failure().Task)
}

func TestEngine_PanicKeepsTrace(t *testing.T) {
	t.Parallel()
	reg := NewRegistry().MustRegister("explode", func(context.Context, []any) (any, error) {
		panic("kaboom")
	})
	e := New(context.Background(), WithWorkers(2), WithRegistry(reg))
	defer e.ShutDown()

	r := dispatch(t, context.Background(), e, flow.Task{Kind: "explode"})
	require.True(t, r.IsFailure())
	assert.ErrorIs(t, r.Err(), flow.ErrPanic)
	assert.Contains(t, r.Failure().Trace, "engine_test.go")
}

func TestEngine_DebugRoundTrip(t *testing.T) {
	t.Parallel()
	reg := DefaultRegistry().MustRegister("boom", func(context.Context, []any) (any, error) {
		return nil, errors.New("boom")
	})
	e := New(context.Background(), WithWorkers(4), WithDebug(true), WithRegistry(reg))
	defer e.ShutDown()

	ok := dispatch(t, context.Background(), e, flow.Task{Kind: "sum", Args: []any{[]any{1, 2, 3}}})
	require.True(t, ok.IsSuccess())
	assert.Equal(t, 6, ok.Result())

	// decoded failures keep message and trace but lose the in-process cause
	failed := dispatch(t, context.Background(), e, flow.Task{Kind: "boom"})
	require.True(t, failed.IsFailure())
	assert.Equal(t, "boom", failed.Failure().Message)
	assert.NotEmpty(t, failed.Failure().Trace)
	assert.NoError(t, errors.Unwrap(failed.Err()))

	bad := dispatch(t, context.Background(), e, flow.Task{Kind: "identity", Args: []any{struct{ X int }{1}}})
	require.True(t, bad.IsFailure())
	assert.ErrorIs(t, bad.Err(), ErrCodec)
}

func TestEngine_DebugPerCall(t *testing.T) {
	t.Parallel()
	e := New(context.Background(), WithWorkers(0))

	ctx := core.WithDispatchOptions(context.Background(), false, true)
	r := dispatch(t, ctx, e, flow.Task{Kind: "identity", Args: []any{func() {}}})
	require.True(t, r.IsFailure())
	assert.ErrorIs(t, r.Err(), ErrCodec)
}

func TestEngine_TerminateInterruptsQueued(t *testing.T) {
	t.Parallel()
	e := New(context.Background(), WithWorkers(1), WithQueueSize(8))

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, e.Register("block", func(context.Context, []any) (any, error) {
		close(started)
		<-release
		return "done", nil
	}))

	first := make(chan flow.Result[any], 1)
	e.RunAsync(context.Background(), flow.Task{Kind: "block"}, func(r flow.Result[any]) { first <- r })
	<-started

	queued := make(chan flow.Result[any], 3)
	for range 3 {
		e.RunAsync(context.Background(), flow.Task{Kind: "add", Args: []any{1}},
			func(r flow.Result[any]) { queued <- r })
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()
	e.Terminate()

	assert.Equal(t, "done", (<-first).Result())
	for range 3 {
		r := <-queued
		assert.True(t, r.IsCancel())
	}

	after := dispatch(t, context.Background(), e, flow.Task{Kind: "add", Args: []any{1}})
	assert.True(t, after.IsCancel())
}

func TestEngine_StopDoesNotWaitForQueueSpace(t *testing.T) {
	t.Parallel()
	e := New(context.Background(), WithWorkers(2), WithQueueSize(2))
	defer e.Terminate()

	// Cancelled before Terminate so the running sleeps return.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	values := make([]any, 100)
	for i := range values {
		values[i] = i
	}
	slow, err := graph.NewZip("sleep", []graph.Node{graph.NewSource([]any{2000}), graph.NewSource(values)})
	require.NoError(t, err)
	out, err := graph.NewOutput(slow)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		out.Stop()
	}()

	start := time.Now()
	require.NoError(t, e.Run(ctx, out))
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, out.Interrupted())

	results := out.Results()
	require.Len(t, results, 100)
	for _, r := range results {
		assert.True(t, r.IsCancel())
	}
}

func TestEngine_Telemetry(t *testing.T) {
	t.Parallel()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	ctx := context.Background()
	e := New(ctx, WithWorkers(2), WithTracerProvider(tp), WithMeterProvider(mp))
	defer e.ShutDown()

	src := graph.NewSource([]any{1, 2, 3})
	inc, err := graph.NewZip("inc", []graph.Node{src})
	require.NoError(t, err)
	out, err := graph.NewOutput(inc)
	require.NoError(t, err)

	require.NoError(t, e.Run(ctx, out))

	names := map[string]int{}
	for _, s := range sr.Ended() {
		names[s.Name()]++
	}
	assert.Equal(t, 1, names["flowgraph.run"])
	assert.Equal(t, 3, names["flowgraph.task"])

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	metrics := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			metrics[m.Name] = true
		}
	}
	assert.True(t, metrics["flowgraph_tasks_total"])
	assert.True(t, metrics["flowgraph_task_duration_seconds"])
	assert.True(t, metrics["flowgraph_runs_total"])
}

func TestRunOnce_PoolSizeDoesNotChangeResults(t *testing.T) {
	t.Parallel()
	build := func() *graph.Output {
		xs := graph.NewSource([]any{1, 2, 3, 4})
		ys := graph.NewSource([]any{10, 20})
		j, err := graph.NewJoin("mul", []graph.Node{xs, ys})
		require.NoError(t, err)
		out, err := graph.NewOutput(j)
		require.NoError(t, err)
		return out
	}

	inline, err := RunOnce(context.Background(), build(), 0, true)
	require.NoError(t, err)
	pooled, err := RunOnce(context.Background(), build(), 4, true)
	require.NoError(t, err)

	assert.Equal(t, []any{10, 20, 20, 40, 30, 60, 40, 80}, inline)
	assert.Equal(t, inline, pooled)
}

func TestEngine_WorkersFromContext(t *testing.T) {
	t.Parallel()
	ctx := core.WithWorkerOptions(context.Background(), 3)

	e := New(ctx)
	defer e.ShutDown()
	assert.Equal(t, 3, e.Workers())
	assert.Equal(t, 3, e.Stats().Workers)
}
