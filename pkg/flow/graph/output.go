package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/core"
	"github.com/ib-77/flowgraph/pkg/flow/solo"
)

// Output is the terminal node of a graph. It is the single listener of its
// input and returns that input's items ordered by sequence number.
type Output struct {
	*stream
	input Node
	edge  ListenerID

	mu          sync.Mutex
	results     []flow.Result[any]
	interrupted bool
}

func NewOutput(input Node, opts ...Option) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("output: %w", ErrNilNode)
	}

	o := buildOptions(opts)
	out := &Output{
		stream: newStream(o.name, "output", []Node{input}),
		input:  input,
	}
	out.edge = ListenerID(out.id)
	if err := input.Register(out.edge); err != nil {
		return nil, err
	}
	return out, nil
}

func (o *Output) Kind() string {
	return "output"
}

func (o *Output) Size() uint64 {
	return o.input.Size()
}

// Input is the node whose items the output collects.
func (o *Output) Input() Node {
	return o.input
}

// Run starts every node upstream of the output, inputs first, and blocks
// until Size items were collected or the run was stopped. Cancelling ctx
// stops the graph. The returned error is structural; task failures are
// part of the results.
func (o *Output) Run(ctx context.Context, d Dispatcher) error {
	if d == nil {
		return ErrNilDispatcher
	}
	if err := o.markStarted(); err != nil {
		return err
	}

	logger := d.Logger().With(slog.String("output", o.name))
	start := time.Now()

	stopAfter := context.AfterFunc(ctx, o.Stop)
	defer stopAfter()

	g, gctx := errgroup.WithContext(ctx)
	err := Walk(o.input, func(n Node) error {
		return n.launch(gctx, d, g)
	})
	if err != nil {
		o.Stop()
		_ = g.Wait()
		return err
	}

	n := o.Size()
	results := make([]flow.Result[any], n)
	filled := make([]bool, n)
	interrupted := false

	for got := uint64(0); got < n; {
		it := o.input.Get(gctx, o.edge)
		if it.Result.IsPill() {
			interrupted = true
			break
		}
		if it.Seq >= n {
			o.Stop()
			_ = g.Wait()
			return fmt.Errorf("output %q: %w: seq %d size %d", o.name, ErrBadSequence, it.Seq, n)
		}
		if filled[it.Seq] {
			continue
		}
		filled[it.Seq] = true
		results[it.Seq] = it.Result
		got++
	}

	if interrupted {
		core.CancelMissing(results, filled, fmt.Sprintf("output %q interrupted", o.name))
		o.Stop()
	}
	if rel, ok := o.input.(interface{ release(ListenerID) }); ok {
		rel.release(o.edge)
	}

	err = g.Wait()

	o.mu.Lock()
	o.results = results
	o.interrupted = interrupted
	o.mu.Unlock()

	logger.Debug("output collected",
		slog.Uint64("size", n),
		slog.Bool("interrupted", interrupted),
		slog.Duration("duration", time.Since(start)),
	)
	return err
}

// Results returns the collected results ordered by sequence number.
func (o *Output) Results() []flow.Result[any] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]flow.Result[any](nil), o.results...)
}

// Interrupted reports whether the run was stopped before every item arrived.
func (o *Output) Interrupted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.interrupted
}

// Values returns the ordered values. Failures stay in the list as
// *flow.Failure unless reRaise is set, in which case the first failure that
// is not an interruption is returned as the error.
func (o *Output) Values(reRaise bool) ([]any, error) {
	results := o.Results()
	values := make([]any, len(results))
	for i, r := range results {
		values[i] = r.Value()
	}

	if reRaise {
		if err := firstFailure(results, false); err != nil {
			return values, err
		}
	}
	return values, nil
}

// Err returns the first failure that is not an interruption. With
// surfaceInterruptions set, an interruption is returned when nothing
// else failed.
func (o *Output) Err(surfaceInterruptions bool) error {
	return firstFailure(o.Results(), surfaceInterruptions)
}

func firstFailure(results []flow.Result[any], interruptions bool) error {
	var interruption *flow.Failure
	for _, r := range results {
		f := r.Failure()
		if f == nil {
			continue
		}
		if !flow.IsInterruption(f) {
			return f
		}
		if interruption == nil {
			interruption = f
		}
	}
	if interruptions && interruption != nil {
		return interruption
	}
	return nil
}

type FinallyHandlers[Out any] struct {
	OnSuccess func(ctx context.Context, v any) Out
	OnError   func(ctx context.Context, err error) Out
	OnCancel  func(ctx context.Context, err error) Out
}

// Finally maps every ordered result of o through handlers.
func Finally[Out any](ctx context.Context, o *Output, handlers FinallyHandlers[Out]) []Out {
	results := o.Results()
	out := make([]Out, len(results))
	for i, r := range results {
		out[i] = solo.Finally(ctx, r, handlers.OnSuccess, handlers.OnError, handlers.OnCancel)
	}
	return out
}
