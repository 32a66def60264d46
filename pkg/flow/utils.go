package flow

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

func IsNil(i interface{}) bool {
	if i == nil || (reflect.ValueOf(i).Kind() == reflect.Ptr && reflect.ValueOf(i).IsNil()) {
		return true
	}
	return false
}

func IsCancellationError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, ErrInterrupted)
}

// AsSlice converts any slice value to []any. It reports false for non-slices.
func AsSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	if IsNil(v) {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// ToList converts the return value of a list-shaped task into a list result.
func ToList(v any) Result[any] {
	items, ok := AsSlice(v)
	if !ok {
		return Fail[any](fmt.Errorf("%w: got %T", ErrNotList, v))
	}
	return List(items)
}
