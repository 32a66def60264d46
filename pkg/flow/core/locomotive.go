package core

import (
	"context"
)

type CancellationHandlers[T any] struct {
	// OnCancel runs when ctx is done before the input channel closed.
	OnCancel func(ctx context.Context, inputCh <-chan T)
	// OnDone runs after the input channel closed.
	OnDone func(ctx context.Context) error
}

// Locomotive drives a node: it feeds every value of inputCh to engine until
// the channel closes, ctx is done, or engine returns an error.
func Locomotive[T any](ctx context.Context, inputCh <-chan T,
	engine func(ctx context.Context, input T) error,
	handlers CancellationHandlers[T]) error {

	for {
		select {
		case <-ctx.Done():
			if handlers.OnCancel != nil {
				handlers.OnCancel(ctx, inputCh)
			}
			return nil
		case in, ok := <-inputCh:
			if !ok {
				if handlers.OnDone != nil {
					return handlers.OnDone(ctx)
				}
				return nil
			}

			if err := engine(ctx, in); err != nil {
				return err
			}
		}
	}
}
