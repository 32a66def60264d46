package core

import (
	"context"
	"sync"
)

// Mailbox is an unbounded FIFO owned by one listener edge. Put never blocks,
// so producers (including pool workers running callbacks) cannot deadlock on
// a slow consumer.
type Mailbox[T any] struct {
	mu     sync.Mutex
	queue  []T
	notify chan struct{}
}

func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{notify: make(chan struct{}, 1)}
}

func (m *Mailbox[T]) Put(v T) {
	m.mu.Lock()
	m.queue = append(m.queue, v)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *Mailbox[T]) TryPop() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	if len(m.queue) == 0 {
		return zero, false
	}
	v := m.queue[0]
	m.queue[0] = zero
	m.queue = m.queue[1:]
	return v, true
}

// Pop blocks until an item is available. It returns false once stop is
// closed or ctx is done and the queue is empty; queued items are always
// handed out first.
func (m *Mailbox[T]) Pop(ctx context.Context, stop <-chan struct{}) (T, bool) {
	for {
		if v, ok := m.TryPop(); ok {
			return v, true
		}

		select {
		case <-m.notify:
		case <-stop:
			return m.TryPop()
		case <-ctx.Done():
			return m.TryPop()
		}
	}
}

func (m *Mailbox[T]) Empty() bool {
	return m.Len() == 0
}

func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
