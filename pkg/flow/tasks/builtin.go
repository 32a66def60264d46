package tasks

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/ib-77/flowgraph/pkg/flow"
)

// Registrar accepts task registrations. *engine.Registry implements it.
type Registrar interface {
	Register(kind string, fn flow.TaskFunc) error
}

// Builtins returns the built-in task kinds by name.
func Builtins() map[string]flow.TaskFunc {
	return map[string]flow.TaskFunc{
		"identity": Identity,
		"add":      Add,
		"sum":      Add,
		"mul":      Mul,
		"inc":      Inc,
		"square":   Square,
		"negate":   Negate,
		"count":    Count,
		"sort":     Sort,
		"reverse":  Reverse,
		"range":    Range,
		"fail":     Fail,
		"sleep":    Sleep,
	}
}

// Register adds every built-in kind to r in sorted order.
func Register(r Registrar) error {
	all := Builtins()
	kinds := make([]string, 0, len(all))
	for k := range all {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	for _, k := range kinds {
		if err := r.Register(k, all[k]); err != nil {
			return err
		}
	}
	return nil
}

// Identity returns its single argument, or all of them as a list.
func Identity(_ context.Context, args []any) (any, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	return slices.Clone(args), nil
}

// Add sums every operand.
func Add(_ context.Context, args []any) (any, error) {
	ns, err := numbers(args)
	if err != nil {
		return nil, err
	}
	return fold(ns, 0,
		func(a, b int64) int64 { return a + b },
		func(a, b float64) float64 { return a + b }).value(), nil
}

// Mul multiplies every operand.
func Mul(_ context.Context, args []any) (any, error) {
	ns, err := numbers(args)
	if err != nil {
		return nil, err
	}
	return fold(ns, 1,
		func(a, b int64) int64 { return a * b },
		func(a, b float64) float64 { return a * b }).value(), nil
}

func Inc(_ context.Context, args []any) (any, error) {
	n, err := unary(args)
	if err != nil {
		return nil, err
	}
	if n.isFloat {
		return n.f + 1, nil
	}
	return int(n.i + 1), nil
}

func Square(_ context.Context, args []any) (any, error) {
	n, err := unary(args)
	if err != nil {
		return nil, err
	}
	if n.isFloat {
		return n.f * n.f, nil
	}
	return int(n.i * n.i), nil
}

func Negate(_ context.Context, args []any) (any, error) {
	n, err := unary(args)
	if err != nil {
		return nil, err
	}
	if n.isFloat {
		return -n.f, nil
	}
	return int(-n.i), nil
}

// Count returns the number of flattened operands.
func Count(_ context.Context, args []any) (any, error) {
	return len(flatten(args)), nil
}

// Sort returns the flattened operands in ascending numeric order.
func Sort(_ context.Context, args []any) (any, error) {
	ns, err := numbers(args)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(ns, func(i, j int) bool { return ns[i].float() < ns[j].float() })

	out := make([]any, len(ns))
	for i, n := range ns {
		out[i] = n.value()
	}
	return out, nil
}

// Reverse returns the flattened operands in reverse order.
func Reverse(_ context.Context, args []any) (any, error) {
	out := flatten(args)
	slices.Reverse(out)
	return out, nil
}

// Range returns [0, n) for a single argument and [lo, hi) for two.
func Range(_ context.Context, args []any) (any, error) {
	var lo, hi number
	var err error
	switch len(args) {
	case 1:
		hi, err = toNumber(args[0])
	case 2:
		if lo, err = toNumber(args[0]); err == nil {
			hi, err = toNumber(args[1])
		}
	default:
		return nil, fmt.Errorf("%w: want 1 or 2, got %d", ErrArgs, len(args))
	}
	if err != nil {
		return nil, err
	}
	if lo.isFloat || hi.isFloat {
		return nil, fmt.Errorf("%w: range bounds must be integers", ErrNotNumber)
	}

	out := make([]any, 0, max(hi.i-lo.i, 0))
	for i := lo.i; i < hi.i; i++ {
		out = append(out, int(i))
	}
	return out, nil
}

// Fail always returns an error carrying its arguments.
func Fail(_ context.Context, args []any) (any, error) {
	return nil, fmt.Errorf("%w: %v", ErrFailed, args)
}

// Sleep waits for args[0] milliseconds and returns args[1], if any.
// It returns early with the context error when ctx is cancelled.
func Sleep(ctx context.Context, args []any) (any, error) {
	if len(args) == 0 || len(args) > 2 {
		return nil, fmt.Errorf("%w: want 1 or 2, got %d", ErrArgs, len(args))
	}
	ms, err := toNumber(args[0])
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(time.Duration(ms.float() * float64(time.Millisecond)))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	if len(args) == 2 {
		return args[1], nil
	}
	return ms.value(), nil
}
