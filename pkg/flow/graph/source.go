package graph

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/core"
)

// Source emits a fixed list of values.
type Source struct {
	*stream
	values []flow.Result[any]
}

// NewSource builds a source over values. A value that already is a
// flow.Result[any] is emitted unchanged, which lets callers seed failures.
func NewSource(values []any, opts ...Option) *Source {
	o := buildOptions(opts)
	return &Source{
		stream: newStream(o.name, "source", nil),
		values: wrapValues(values),
	}
}

func wrapValues(values []any) []flow.Result[any] {
	out := make([]flow.Result[any], len(values))
	for i, v := range values {
		if r, ok := v.(flow.Result[any]); ok {
			out[i] = r
			continue
		}
		out[i] = flow.Success(v)
	}
	return out
}

func (s *Source) Kind() string {
	return "source"
}

func (s *Source) Size() uint64 {
	return uint64(len(s.values))
}

func (s *Source) launch(_ context.Context, d Dispatcher, _ *errgroup.Group) error {
	if err := s.markStarted(); err != nil {
		return err
	}

	n := s.Size()
	for i := range n {
		if s.Stopped() {
			core.CancelRemaining(i, n, fmt.Sprintf("source %q stopped", s.name), s.put)
			d.Logger().Debug("source stopped",
				"node", s.name,
				"emitted", i,
				"size", n,
			)
			return nil
		}
		s.put(flow.Tag(i, s.values[i]))
	}

	d.Logger().Debug("source emitted", "node", s.name, "size", n)
	return nil
}

// ComputedSource is a source whose values come from a single call made at
// construction time.
type ComputedSource struct {
	Source
}

// NewComputedSource calls fn once, synchronously. If fn fails the node has
// size 1 and emits the failure.
func NewComputedSource(ctx context.Context, fn func(ctx context.Context) ([]any, error),
	opts ...Option) *ComputedSource {

	o := buildOptions(opts)
	values, err := generate(ctx, fn)
	if err != nil {
		values = []any{flow.FromFailure[any](flow.AsFailure(err, flow.KindError))}
	}

	return &ComputedSource{Source: Source{
		stream: newStream(o.name, "computed", nil),
		values: wrapValues(values),
	}}
}

func generate(ctx context.Context, fn func(ctx context.Context) ([]any, error)) (values []any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = flow.Panicked(r, debug.Stack())
		}
	}()
	return fn(ctx)
}

func (s *ComputedSource) Kind() string {
	return "computed"
}
