package solo

import (
	"context"
	"runtime/debug"

	"github.com/ib-77/flowgraph/pkg/flow"
)

// Invoke calls fn with args. A returned error or a panic becomes a Failure
// attributed to kind, with the stack captured at the failure site.
func Invoke(ctx context.Context, kind string, fn flow.TaskFunc, args []any) (res flow.Result[any]) {
	defer func() {
		if r := recover(); r != nil {
			res = flow.FromFailure[any](flow.Panicked(r, debug.Stack()).WithTask(kind))
		}
	}()

	out, err := fn(ctx, args)
	if err != nil {
		f := flow.AsFailure(err, flow.KindError)
		if f.Task == "" {
			f = f.WithTask(kind)
		}
		return flow.FromFailure[any](f)
	}

	return flow.Success(out)
}

// FirstFailure returns the first failed argument, scanning in input order.
func FirstFailure[T any](args []flow.Result[T]) (flow.Result[T], bool) {
	for _, a := range args {
		if a.IsFailure() || a.IsPill() {
			return a, true
		}
	}
	return flow.Result[T]{}, false
}

// Values unwraps the successful arguments. List results are passed on as
// their item slice.
func Values[T any](args []flow.Result[T]) []any {
	out := make([]any, len(args))
	for i, a := range args {
		if a.IsList() {
			out[i] = a.Items()
			continue
		}
		out[i] = a.Result()
	}
	return out
}

// Switch calls onSuccess with the unwrapped arguments only when every
// argument succeeded; otherwise the first failure is passed on unchanged.
func Switch[In, Out any](ctx context.Context,
	args []flow.Result[In],
	onSuccess func(ctx context.Context, values []any) flow.Result[Out]) flow.Result[Out] {

	if failed, ok := FirstFailure(args); ok {
		if failed.IsPill() {
			return flow.Cancel[Out](flow.ErrInterrupted)
		}
		return flow.FailFrom[In, Out](failed)
	}
	return onSuccess(ctx, Values(args))
}

func Finally[In, Out any](ctx context.Context, input flow.Result[In],
	onSuccess func(ctx context.Context, r In) Out,
	onError func(ctx context.Context, err error) Out,
	onCancel func(ctx context.Context, err error) Out) Out {

	if input.IsSuccess() {
		return onSuccess(ctx, input.Result())
	} else if input.IsCancel() || input.IsPill() {
		return onCancel(ctx, input.Err())
	} else {
		return onError(ctx, input.Err())
	}
}

func DoubleTee[T any](ctx context.Context, input flow.Result[T],
	onSuccess func(ctx context.Context, r T),
	onError func(ctx context.Context, err error),
	onCancel func(ctx context.Context, err error)) flow.Result[T] {

	if input.IsSuccess() {
		if onSuccess != nil {
			onSuccess(ctx, input.Result())
		}
	} else if input.IsCancel() {
		if onCancel != nil {
			onCancel(ctx, input.Err())
		}
	} else if onError != nil {
		onError(ctx, input.Err())
	}

	return input
}
