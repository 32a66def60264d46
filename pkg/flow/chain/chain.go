package chain

import (
	"context"
	"errors"

	"github.com/ib-77/flowgraph/pkg/flow/engine"
	"github.com/ib-77/flowgraph/pkg/flow/graph"
)

var ErrEmptyChain = errors.New("chain: no node")

// Chain wraps a graph node, or the first error met while building it.
type Chain struct {
	node graph.Node
	err  error
}

// From starts a chain at an existing node.
func From(n graph.Node) *Chain {
	if n == nil {
		return &Chain{err: graph.ErrNilNode}
	}
	return &Chain{node: n}
}

// FromValues starts a chain at a constant source.
func FromValues(values []any, opts ...graph.Option) *Chain {
	return &Chain{node: graph.NewSource(values, opts...)}
}

// FromValue starts a chain at a size-1 source, usable as a Zip constant.
func FromValue(value any, opts ...graph.Option) *Chain {
	return FromValues([]any{value}, opts...)
}

// Computed starts a chain at a source whose values fn produces once.
func Computed(ctx context.Context, fn func(ctx context.Context) ([]any, error), opts ...graph.Option) *Chain {
	return &Chain{node: graph.NewComputedSource(ctx, fn, opts...)}
}

// Node returns the node built so far.
func (c *Chain) Node() (graph.Node, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.node == nil {
		return nil, ErrEmptyChain
	}
	return c.node, nil
}

func (c *Chain) Err() error {
	return c.err
}

// Then applies task element-wise to this chain's stream.
func (c *Chain) Then(task string, opts ...graph.Option) *Chain {
	return c.Zip(task, nil, opts...)
}

// Zip combines this chain with others element-wise. Size-1 chains act as
// constants broadcast to every position.
func (c *Chain) Zip(task string, others []*Chain, opts ...graph.Option) *Chain {
	return c.combine(others, func(inputs []graph.Node) (graph.Node, error) {
		return graph.NewZip(task, inputs, opts...)
	})
}

// Join applies task to every combination of this chain and others.
func (c *Chain) Join(task string, others []*Chain, opts ...graph.Option) *Chain {
	return c.combine(others, func(inputs []graph.Node) (graph.Node, error) {
		return graph.NewJoin(task, inputs, opts...)
	})
}

// Summarize collapses this chain into one value. consts must be size 1.
func (c *Chain) Summarize(task string, consts []*Chain, opts ...graph.Option) *Chain {
	return c.combine(consts, func(inputs []graph.Node) (graph.Node, error) {
		return graph.NewSummarize(task, inputs[0], inputs[1:], opts...)
	})
}

// Expand runs task once over the whole stream; the returned list becomes
// the new stream, element for element.
func (c *Chain) Expand(task string, consts []*Chain, opts ...graph.Option) *Chain {
	return c.combine(consts, func(inputs []graph.Node) (graph.Node, error) {
		return graph.NewFullStream(task, inputs[0], inputs[1:], opts...)
	})
}

func (c *Chain) combine(others []*Chain, build func(inputs []graph.Node) (graph.Node, error)) *Chain {
	inputs := make([]graph.Node, 0, len(others)+1)
	for _, ch := range append([]*Chain{c}, others...) {
		if ch == nil {
			return &Chain{err: graph.ErrNilNode}
		}
		n, err := ch.Node()
		if err != nil {
			return &Chain{err: err}
		}
		inputs = append(inputs, n)
	}

	n, err := build(inputs)
	if err != nil {
		return &Chain{err: err}
	}
	return &Chain{node: n}
}

// Output terminates the chain.
func (c *Chain) Output(opts ...graph.Option) (*graph.Output, error) {
	n, err := c.Node()
	if err != nil {
		return nil, err
	}
	return graph.NewOutput(n, opts...)
}

// Run builds an engine with the given worker count and returns the
// ordered values. See engine.RunOnce for reRaise.
func (c *Chain) Run(ctx context.Context, workers int, reRaise bool, opts ...engine.Option) ([]any, error) {
	out, err := c.Output()
	if err != nil {
		return nil, err
	}
	return engine.RunOnce(ctx, out, workers, reRaise, opts...)
}

// Finally runs the chain on e and maps every ordered result through handlers.
func Finally[Out any](ctx context.Context, c *Chain, e *engine.Engine, handlers graph.FinallyHandlers[Out]) ([]Out, error) {
	out, err := c.Output()
	if err != nil {
		return nil, err
	}
	if err := e.Run(ctx, out); err != nil {
		return nil, err
	}
	return graph.Finally(ctx, out, handlers), nil
}
