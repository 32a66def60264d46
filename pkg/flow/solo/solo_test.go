package solo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ib-77/flowgraph/pkg/flow"
)

func TestInvoke_Success(t *testing.T) {
	t.Parallel()
	res := Invoke(context.Background(), "add", func(_ context.Context, args []any) (any, error) {
		return args[0].(int) + args[1].(int), nil
	}, []any{2, 3})

	require.True(t, res.IsSuccess())
	assert.Equal(t, 5, res.Result())
}

func TestInvoke_ErrorIsAttributed(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	res := Invoke(context.Background(), "explode", func(context.Context, []any) (any, error) {
		return nil, boom
	}, nil)

	require.True(t, res.IsFailure())
	assert.ErrorIs(t, res.Err(), boom)
	assert.Equal(t, "explode", res.Failure().Task)
	assert.NotEmpty(t, res.Failure().Trace)
}

func TestInvoke_PanicBecomesFailure(t *testing.T) {
	t.Parallel()
	res := Invoke(context.Background(), "index", func(_ context.Context, args []any) (any, error) {
		return args[3], nil
	}, []any{})

	require.True(t, res.IsFailure())
	assert.False(t, res.IsCancel())
	assert.ErrorIs(t, res.Err(), flow.ErrPanic)
	assert.Contains(t, res.Failure().Trace, "solo_test.go")
}

func TestInvoke_ContextErrorIsInterruption(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := Invoke(ctx, "wait", func(ctx context.Context, _ []any) (any, error) {
		return nil, ctx.Err()
	}, nil)

	assert.True(t, res.IsCancel())
}

func TestFirstFailure(t *testing.T) {
	t.Parallel()
	bad := flow.Fail[any](errors.New("first"))
	args := []flow.Result[any]{flow.Success[any](1), bad, flow.Fail[any](errors.New("second"))}

	got, ok := FirstFailure(args)
	require.True(t, ok)
	assert.Same(t, bad.Failure(), got.Failure())

	_, ok = FirstFailure([]flow.Result[any]{flow.Success[any](1)})
	assert.False(t, ok)
}

func TestValues_UnwrapsLists(t *testing.T) {
	t.Parallel()
	args := []flow.Result[any]{flow.List([]any{1, 2}), flow.Success[any]("c")}
	assert.Equal(t, []any{[]any{1, 2}, "c"}, Values(args))
}

func TestSwitch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sum := func(_ context.Context, v []any) flow.Result[int] {
		return flow.Success(v[0].(int) + v[1].(int))
	}

	ok := Switch(ctx, []flow.Result[any]{flow.Success[any](1), flow.Success[any](2)}, sum)
	assert.Equal(t, 3, ok.Result())

	called := false
	failed := Switch(ctx, []flow.Result[any]{flow.Success[any](1), flow.Fail[any](errors.New("no"))},
		func(context.Context, []any) flow.Result[int] {
			called = true
			return flow.Success(0)
		})
	assert.True(t, failed.IsFailure())
	assert.False(t, called)

	pill := Switch(ctx, []flow.Result[any]{flow.Pill[any]()}, sum)
	assert.True(t, pill.IsCancel())
}

func TestFinally(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	onSuccess := func(_ context.Context, v int) string { return "ok" }
	onError := func(_ context.Context, err error) string { return "err" }
	onCancel := func(_ context.Context, err error) string { return "cancel" }

	assert.Equal(t, "ok", Finally(ctx, flow.Success(1), onSuccess, onError, onCancel))
	assert.Equal(t, "err", Finally(ctx, flow.Fail[int](errors.New("x")), onSuccess, onError, onCancel))
	assert.Equal(t, "cancel", Finally(ctx, flow.Cancel[int](errors.New("x")), onSuccess, onError, onCancel))
	assert.Equal(t, "cancel", Finally(ctx, flow.Pill[int](), onSuccess, onError, onCancel))
}

func TestDoubleTee(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	var calls []string

	in := flow.Fail[int](errors.New("x"))
	out := DoubleTee(ctx, in,
		func(context.Context, int) { calls = append(calls, "success") },
		func(context.Context, error) { calls = append(calls, "error") },
		func(context.Context, error) { calls = append(calls, "cancel") })

	assert.Equal(t, []string{"error"}, calls)
	assert.Same(t, in.Failure(), out.Failure())
}
