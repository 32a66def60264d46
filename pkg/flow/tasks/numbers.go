package tasks

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrNotNumber = errors.New("tasks: operand is not a number")
	ErrArgs      = errors.New("tasks: wrong number of arguments")
	ErrFailed    = errors.New("tasks: failed on request")
)

// number is an operand normalised to int64 or float64.
type number struct {
	i       int64
	f       float64
	isFloat bool
}

func (n number) float() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

func (n number) value() any {
	if n.isFloat {
		return n.f
	}
	return int(n.i)
}

func toNumber(v any) (number, error) {
	switch x := v.(type) {
	case int:
		return number{i: int64(x)}, nil
	case int64:
		return number{i: x}, nil
	case int32:
		return number{i: int64(x)}, nil
	case uint64:
		return number{i: int64(x)}, nil
	case uint:
		return number{i: int64(x)}, nil
	case float64:
		return number{f: x, isFloat: true}, nil
	case float32:
		return number{f: float64(x), isFloat: true}, nil
	}
	return number{}, fmt.Errorf("%w: %T", ErrNotNumber, v)
}

// flatten expands slice arguments one level deep.
func flatten(args []any) []any {
	out := make([]any, 0, len(args))
	for _, a := range args {
		if a == nil {
			out = append(out, a)
			continue
		}
		rv := reflect.ValueOf(a)
		if rv.Kind() == reflect.Slice {
			for i := range rv.Len() {
				out = append(out, rv.Index(i).Interface())
			}
			continue
		}
		out = append(out, a)
	}
	return out
}

func numbers(args []any) ([]number, error) {
	flat := flatten(args)
	ns := make([]number, len(flat))
	for i, v := range flat {
		n, err := toNumber(v)
		if err != nil {
			return nil, err
		}
		ns[i] = n
	}
	return ns, nil
}

func fold(ns []number, start int64, opI func(a, b int64) int64, opF func(a, b float64) float64) number {
	acc := number{i: start}
	for _, n := range ns {
		if acc.isFloat || n.isFloat {
			acc = number{f: opF(acc.float(), n.float()), isFloat: true}
			continue
		}
		acc = number{i: opI(acc.i, n.i)}
	}
	return acc
}

func unary(args []any) (number, error) {
	if len(args) != 1 {
		return number{}, fmt.Errorf("%w: want 1, got %d", ErrArgs, len(args))
	}
	return toNumber(args[0])
}
