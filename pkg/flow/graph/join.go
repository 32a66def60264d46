package graph

import (
	"fmt"
	"math/bits"

	"github.com/ib-77/flowgraph/pkg/flow"
)

// Join dispatches the cross product of its inputs: every item of each input
// meets every item of every other input exactly once.
type Join struct {
	*computation
	size uint64
}

// NewJoin builds a join over inputs. Its size is the product of the input
// sizes; any empty input makes the join empty.
func NewJoin(task string, inputs []Node, opts ...Option) (*Join, error) {
	c, err := newComputation("join", task, inputs, opts)
	if err != nil {
		return nil, err
	}

	sizes := make([]uint64, len(inputs))
	for k, in := range inputs {
		sizes[k] = in.Size()
	}
	size, err := joinSize(sizes)
	if err != nil {
		return nil, fmt.Errorf("join %q: %w", c.name, err)
	}

	j := &Join{computation: c, size: size}
	c.asm = newJoinState(sizes)
	if err := c.listen(); err != nil {
		return nil, err
	}
	return j, nil
}

func joinSize(sizes []uint64) (uint64, error) {
	var size uint64 = 1
	for _, n := range sizes {
		if n == 0 {
			return 0, nil
		}
	}
	for _, n := range sizes {
		hi, lo := bits.Mul64(size, n)
		if hi != 0 {
			return 0, ErrSizeOverflow
		}
		size = lo
	}
	return size, nil
}

func (j *Join) Size() uint64 {
	return j.size
}

type joinState struct {
	sizes   []uint64
	strides []uint64
	data    [][]flow.Result[any]
	filled  [][]bool
	arrived [][]uint64
}

func newJoinState(sizes []uint64) *joinState {
	j := &joinState{
		sizes:   sizes,
		strides: make([]uint64, len(sizes)),
		data:    make([][]flow.Result[any], len(sizes)),
		filled:  make([][]bool, len(sizes)),
		arrived: make([][]uint64, len(sizes)),
	}

	var stride uint64 = 1
	for k := len(sizes) - 1; k >= 0; k-- {
		j.strides[k] = stride
		stride *= sizes[k]
		j.data[k] = make([]flow.Result[any], sizes[k])
		j.filled[k] = make([]bool, sizes[k])
	}
	return j
}

// seq is the mixed-radix encoding of idx, first input most significant.
func (j *joinState) seq(idx []uint64) uint64 {
	var s uint64
	for k, i := range idx {
		s += i * j.strides[k]
	}
	return s
}

func (j *joinState) accept(k int, it Item) ([]job, error) {
	if it.Seq >= j.sizes[k] {
		return nil, fmt.Errorf("%w: input %d seq %d size %d", ErrBadSequence, k, it.Seq, j.sizes[k])
	}
	if j.filled[k][it.Seq] {
		return nil, nil
	}
	j.filled[k][it.Seq] = true
	j.data[k][it.Seq] = it.Result
	j.arrived[k] = append(j.arrived[k], it.Seq)

	for m := range j.sizes {
		if len(j.arrived[m]) == 0 {
			return nil, nil
		}
	}

	// Every combination completed by this item: input k fixed at it.Seq,
	// every other input over the items it already received.
	var jobs []job
	idx := make([]uint64, len(j.sizes))
	idx[k] = it.Seq

	var walk func(m int)
	walk = func(m int) {
		if m == len(j.sizes) {
			args := make([]flow.Result[any], len(j.sizes))
			for n, i := range idx {
				args[n] = j.data[n][i]
			}
			jobs = append(jobs, job{seq: j.seq(idx), args: args})
			return
		}
		if m == k {
			walk(m + 1)
			return
		}
		for _, i := range j.arrived[m] {
			idx[m] = i
			walk(m + 1)
		}
	}
	walk(0)

	return jobs, nil
}

func (j *joinState) finish() []job {
	return nil
}
