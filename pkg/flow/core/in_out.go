package core

import (
	"context"
	"sync"
)

// Indexed is an item received on input edge Index. Stopped is set on the
// last message of an edge whose producer stopped before delivering all
// of its items.
type Indexed[T any] struct {
	Index   int
	Value   T
	Stopped bool
}

// Puller receives the next item of input k, false when the producer stopped.
type Puller[T any] func(ctx context.Context, k int) (T, bool)

// FanIn pumps counts[k] items from every input k into one channel so a node
// can wait on all of its inputs with a single receive. The channel is closed
// once every pump finished or ctx is done.
func FanIn[T any](ctx context.Context, counts []uint64, pull Puller[T],
	onDrained func(k int)) <-chan Indexed[T] {

	out := make(chan Indexed[T])
	wg := &sync.WaitGroup{}

	for k, n := range counts {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for range n {
				v, ok := pull(ctx, k)
				select {
				case out <- Indexed[T]{Index: k, Value: v, Stopped: !ok}:
				case <-ctx.Done():
					return
				}
				if !ok {
					return
				}
			}

			if onDrained != nil {
				onDrained(k)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
