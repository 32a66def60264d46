package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/core"
	"github.com/ib-77/flowgraph/pkg/flow/solo"
)

// job is one fully assembled task invocation.
type job struct {
	seq  uint64
	args []flow.Result[any]
}

// assembler turns arriving input items into jobs. Implementations are only
// ever used from the node's own goroutine.
type assembler interface {
	accept(k int, it Item) ([]job, error)
	// finish runs after every input was drained.
	finish() []job
}

// computation is the part shared by every combinator: listener edges on the
// inputs, the node loop, and task dispatch.
type computation struct {
	*stream
	kind  string
	task  string
	local bool
	shape flow.Shape

	asm  assembler
	emit func(seq uint64, res flow.Result[any])

	d       Dispatcher
	logger  *slog.Logger
	aborted bool
	pending atomic.Int64
}

func newComputation(kind, task string, inputs []Node, opts []Option) (*computation, error) {
	if task == "" {
		return nil, ErrNoTask
	}
	if err := checkInputs(inputs); err != nil {
		return nil, fmt.Errorf("%s %q: %w", kind, task, err)
	}

	o := buildOptions(opts)
	c := &computation{
		stream: newStream(o.name, kind, inputs),
		kind:   kind,
		task:   task,
		local:  o.local,
	}
	c.emit = c.emitScalar
	return c, nil
}

// listen registers this node on every input. Called once the concrete
// combinator validated its sizes.
func (c *computation) listen() error {
	for k, in := range c.inputs {
		if err := in.Register(c.edge(k)); err != nil {
			return err
		}
	}
	return nil
}

func (c *computation) edge(k int) ListenerID {
	return ListenerID(fmt.Sprintf("%s/%d", c.id, k))
}

func (c *computation) Kind() string {
	return c.kind
}

// Task is the registered task kind this node dispatches.
func (c *computation) Task() string {
	return c.task
}

func (c *computation) launch(ctx context.Context, d Dispatcher, g *errgroup.Group) error {
	if err := c.markStarted(); err != nil {
		return err
	}

	c.d = d
	c.logger = d.Logger().With(slog.String("node", c.name), slog.String("task", c.task))

	counts := make([]uint64, len(c.inputs))
	for k, in := range c.inputs {
		counts[k] = in.Size()
	}

	inputCh := core.FanIn(ctx, counts,
		func(ctx context.Context, k int) (Item, bool) {
			it := c.inputs[k].Get(ctx, c.edge(k))
			return it, !it.Result.IsPill()
		},
		func(k int) {
			if rel, ok := c.inputs[k].(interface{ release(ListenerID) }); ok {
				rel.release(c.edge(k))
			}
		})

	g.Go(func() error {
		return core.Locomotive(ctx, inputCh, c.accept, core.CancellationHandlers[core.Indexed[Item]]{
			OnCancel: func(ctx context.Context, _ <-chan core.Indexed[Item]) {
				c.abort("context done")
			},
			OnDone: func(ctx context.Context) error {
				if c.aborted {
					return nil
				}
				for _, j := range c.asm.finish() {
					c.dispatch(ctx, j)
				}
				c.logger.Debug("inputs drained", slog.Int64("in_flight", c.pending.Load()))
				return nil
			},
		})
	})

	return nil
}

func (c *computation) accept(ctx context.Context, in core.Indexed[Item]) error {
	if c.aborted {
		return nil
	}
	if in.Stopped {
		c.abort(fmt.Sprintf("input %q stopped", c.inputs[in.Index].Name()))
		return nil
	}

	jobs, err := c.asm.accept(in.Index, in.Value)
	if err != nil {
		return fmt.Errorf("%s %q: %w", c.kind, c.name, err)
	}
	for _, j := range jobs {
		c.dispatch(ctx, j)
	}
	return nil
}

// abort stops the node after an input delivered the pill. Items still
// queued are ignored; consumers receive the pill once drained.
func (c *computation) abort(reason string) {
	if c.aborted {
		return
	}
	c.aborted = true
	c.logger.Debug("node aborted", slog.String("reason", reason))
	c.Stop()
}

// dispatch runs j's task, or forwards a failure when the node is stopped or
// an argument already failed.
func (c *computation) dispatch(ctx context.Context, j job) {
	if c.Stopped() {
		c.emit(j.seq, flow.FromFailure[any](flow.Interruption(fmt.Sprintf("node %q stopped", c.name))))
		return
	}

	prepared := solo.Switch(ctx, j.args, func(_ context.Context, values []any) flow.Result[flow.Task] {
		return flow.Success(flow.Task{
			Kind:  c.task,
			Args:  values,
			Shape: c.shape,
			Node:  c.name,
		})
	})
	if !prepared.IsSuccess() {
		c.emit(j.seq, flow.FailFrom[flow.Task, any](prepared))
		return
	}
	task := prepared.Result()
	if c.local {
		ctx = core.WithDispatchOptions(ctx, true, core.GetDispatchOptions(ctx).Debug)
	}
	// A stopped node must not stay parked on a full worker queue.
	ctx = core.WithStopSignal(ctx, c.stopCh)

	c.pending.Add(1)
	c.d.RunAsync(ctx, task, func(res flow.Result[any]) {
		c.pending.Add(-1)
		c.emit(j.seq, res)
	})
}

func (c *computation) emitScalar(seq uint64, res flow.Result[any]) {
	c.put(flow.Tag(seq, res))
}
