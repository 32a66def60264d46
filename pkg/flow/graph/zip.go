package graph

import (
	"fmt"

	"github.com/ib-77/flowgraph/pkg/flow"
)

// Zip combines its inputs position by position. Inputs of size 1 are
// broadcast constants paired with every position.
type Zip struct {
	*computation
	size uint64
}

// NewZip builds a zip over inputs. All inputs whose size is not 1 must have
// the same size.
func NewZip(task string, inputs []Node, opts ...Option) (*Zip, error) {
	c, err := newComputation("zip", task, inputs, opts)
	if err != nil {
		return nil, err
	}

	size, constant, err := zipSize(inputs)
	if err != nil {
		return nil, fmt.Errorf("zip %q: %w", c.name, err)
	}

	z := &Zip{computation: c, size: size}
	c.asm = newZipState(constant)
	if err := c.listen(); err != nil {
		return nil, err
	}
	return z, nil
}

func zipSize(inputs []Node) (uint64, []bool, error) {
	constant := make([]bool, len(inputs))
	var size uint64 = 1
	varying := false

	for k, in := range inputs {
		n := in.Size()
		if n == 1 {
			constant[k] = true
			continue
		}
		if varying && n != size {
			return 0, nil, fmt.Errorf("%w: %q has %d, expected %d", ErrSizeMismatch, in.Name(), n, size)
		}
		varying = true
		size = n
	}
	return size, constant, nil
}

func (z *Zip) Size() uint64 {
	return z.size
}

type zipSlot struct {
	args   []flow.Result[any]
	filled []bool
	have   int
}

type zipState struct {
	constant  []bool
	consts    []flow.Result[any]
	constSeen []bool
	constLeft int
	varying   int

	slots map[uint64]*zipSlot
	ready []uint64
}

func newZipState(constant []bool) *zipState {
	z := &zipState{
		constant:  constant,
		consts:    make([]flow.Result[any], len(constant)),
		constSeen: make([]bool, len(constant)),
		slots:     make(map[uint64]*zipSlot),
	}
	for _, c := range constant {
		if c {
			z.constLeft++
		} else {
			z.varying++
		}
	}
	return z
}

func (z *zipState) accept(k int, it Item) ([]job, error) {
	if z.constant[k] {
		if it.Seq != 0 {
			return nil, fmt.Errorf("%w: input %d seq %d", ErrBadSequence, k, it.Seq)
		}
		if z.constSeen[k] {
			return nil, nil
		}
		z.constSeen[k] = true
		z.consts[k] = it.Result
		z.constLeft--
		if z.constLeft > 0 {
			return nil, nil
		}
		if z.varying == 0 {
			return []job{z.build(0, nil)}, nil
		}
		jobs := make([]job, 0, len(z.ready))
		for _, seq := range z.ready {
			jobs = append(jobs, z.build(seq, z.slots[seq]))
			delete(z.slots, seq)
		}
		z.ready = nil
		return jobs, nil
	}

	slot, ok := z.slots[it.Seq]
	if !ok {
		slot = &zipSlot{
			args:   make([]flow.Result[any], len(z.constant)),
			filled: make([]bool, len(z.constant)),
		}
		z.slots[it.Seq] = slot
	}
	if slot.filled[k] {
		return nil, nil
	}
	slot.filled[k] = true
	slot.args[k] = it.Result
	slot.have++

	if slot.have < z.varying {
		return nil, nil
	}
	if z.constLeft > 0 {
		z.ready = append(z.ready, it.Seq)
		return nil, nil
	}
	delete(z.slots, it.Seq)
	return []job{z.build(it.Seq, slot)}, nil
}

func (z *zipState) build(seq uint64, slot *zipSlot) job {
	args := make([]flow.Result[any], len(z.constant))
	for k := range args {
		if z.constant[k] {
			args[k] = z.consts[k]
		} else {
			args[k] = slot.args[k]
		}
	}
	return job{seq: seq, args: args}
}

func (z *zipState) finish() []job {
	return nil
}
