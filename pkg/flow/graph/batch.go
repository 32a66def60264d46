package graph

import (
	"fmt"

	"github.com/ib-77/flowgraph/pkg/flow"
)

// Summarize calls its task once with the whole primary input, ordered by
// sequence number, followed by the constant inputs.
type Summarize struct {
	*computation
}

// NewSummarize builds a summarize node. Every input after primary must have
// size 1.
func NewSummarize(task string, primary Node, consts []Node, opts ...Option) (*Summarize, error) {
	c, err := newBatch("summarize", task, primary, consts, opts)
	if err != nil {
		return nil, err
	}
	return &Summarize{computation: c}, nil
}

func (s *Summarize) Size() uint64 {
	return 1
}

// FullStream is a Summarize whose task returns a list; element i of that
// list is emitted with sequence number i.
type FullStream struct {
	*computation
	size uint64
}

// NewFullStream builds a full stream node. The task must return exactly
// primary.Size() items.
func NewFullStream(task string, primary Node, consts []Node, opts ...Option) (*FullStream, error) {
	c, err := newBatch("fullstream", task, primary, consts, opts)
	if err != nil {
		return nil, err
	}

	f := &FullStream{computation: c, size: primary.Size()}
	c.shape = flow.ShapeList
	c.emit = f.expand
	return f, nil
}

func (f *FullStream) Size() uint64 {
	return f.size
}

// expand re-emits a list result item by item. Anything else, including a
// list of the wrong length, is broadcast to every slot.
func (f *FullStream) expand(_ uint64, res flow.Result[any]) {
	if res.IsFailure() {
		f.broadcast(res)
		return
	}
	if !res.IsList() {
		f.broadcast(f.fail(fmt.Errorf("%w: node %q", flow.ErrNotList, f.name)))
		return
	}

	items := res.Items()
	if uint64(len(items)) != f.size {
		f.broadcast(f.fail(fmt.Errorf("%w: node %q got %d, want %d",
			flow.ErrListLength, f.name, len(items), f.size)))
		return
	}
	for i, v := range items {
		f.put(flow.Tag(uint64(i), flow.Success(v)))
	}
}

func (f *FullStream) fail(err error) flow.Result[any] {
	return flow.FromFailure[any](flow.AsFailure(err, flow.KindError).WithTask(f.task))
}

func (f *FullStream) broadcast(res flow.Result[any]) {
	for seq := range f.size {
		f.put(flow.Tag(seq, res))
	}
}

func newBatch(kind, task string, primary Node, consts []Node, opts []Option) (*computation, error) {
	inputs := append([]Node{primary}, consts...)
	c, err := newComputation(kind, task, inputs, opts)
	if err != nil {
		return nil, err
	}

	for _, in := range consts {
		if n := in.Size(); n != 1 {
			return nil, fmt.Errorf("%s %q: %w: %q has %d", kind, c.name, ErrNotConstant, in.Name(), n)
		}
	}

	c.asm = newBatchState(primary.Size(), len(consts), kind == "fullstream")
	if err := c.listen(); err != nil {
		return nil, err
	}
	return c, nil
}

type batchState struct {
	primary []flow.Result[any]
	filled  []bool
	got     uint64

	consts    []flow.Result[any]
	constSeen []bool
	constGot  int

	// skipEmpty suppresses the call when the primary input is empty.
	skipEmpty bool
	done      bool
}

func newBatchState(size uint64, consts int, skipEmpty bool) *batchState {
	return &batchState{
		primary:   make([]flow.Result[any], size),
		filled:    make([]bool, size),
		consts:    make([]flow.Result[any], consts),
		constSeen: make([]bool, consts),
		skipEmpty: skipEmpty,
	}
}

func (b *batchState) accept(k int, it Item) ([]job, error) {
	if k == 0 {
		if it.Seq >= uint64(len(b.primary)) {
			return nil, fmt.Errorf("%w: seq %d size %d", ErrBadSequence, it.Seq, len(b.primary))
		}
		if b.filled[it.Seq] {
			return nil, nil
		}
		b.filled[it.Seq] = true
		b.primary[it.Seq] = it.Result
		b.got++
	} else {
		if b.constSeen[k-1] {
			return nil, nil
		}
		b.constSeen[k-1] = true
		b.consts[k-1] = it.Result
		b.constGot++
	}

	return b.complete(), nil
}

func (b *batchState) finish() []job {
	return b.complete()
}

func (b *batchState) complete() []job {
	if b.done || b.got < uint64(len(b.primary)) || b.constGot < len(b.consts) {
		return nil
	}
	b.done = true
	if b.skipEmpty && len(b.primary) == 0 {
		return nil
	}

	args := make([]flow.Result[any], 0, 1+len(b.consts))
	args = append(args, b.collect())
	args = append(args, b.consts...)
	return []job{{seq: 0, args: args}}
}

// collect folds the ordered primary items into one list argument, or the
// first failure among them.
func (b *batchState) collect() flow.Result[any] {
	values := make([]any, len(b.primary))
	for i, r := range b.primary {
		if r.IsFailure() || r.IsPill() {
			return r
		}
		values[i] = r.Result()
	}
	return flow.List(values)
}
