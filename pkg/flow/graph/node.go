package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/core"
)

// ListenerID identifies one consumer edge of a stream.
type ListenerID string

// Item is a tagged value travelling on a graph edge.
type Item = flow.Tagged[any]

// Dispatcher executes tasks for the graph. The callback always receives a
// result, never a panic.
type Dispatcher interface {
	RunAsync(ctx context.Context, task flow.Task, callback func(flow.Result[any]))
	Logger() *slog.Logger
}

// Node is a stream in the graph. Nodes are created through the New*
// constructors; the set of node kinds is closed.
type Node interface {
	ID() string
	Name() string
	Kind() string
	// Size is the total number of items the node emits, known before start.
	Size() uint64
	Inputs() []Node

	// Register creates a mailbox for id. Only allowed before start.
	Register(id ListenerID) error
	// Get blocks until an item for id is available. It returns a pill
	// once the node is stopped (or ctx is done) and the mailbox is empty.
	Get(ctx context.Context, id ListenerID) Item
	// Empty reports whether id's mailbox currently holds no items.
	Empty(id ListenerID) bool
	// Stop suppresses further dispatch here and in every input. In-flight
	// tasks are not interrupted.
	Stop()
	Stopped() bool

	launch(ctx context.Context, d Dispatcher, g *errgroup.Group) error
}

type stream struct {
	id     string
	name   string
	inputs []Node

	mu        sync.Mutex
	listeners map[ListenerID]*core.Mailbox[Item]
	started   bool

	stopped  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
}

func newStream(name, kind string, inputs []Node) *stream {
	id := uuid.NewString()
	if name == "" {
		name = fmt.Sprintf("%s-%s", kind, id[:8])
	}
	return &stream{
		id:        id,
		name:      name,
		inputs:    inputs,
		listeners: make(map[ListenerID]*core.Mailbox[Item]),
		stopCh:    make(chan struct{}),
	}
}

func (s *stream) ID() string {
	return s.id
}

func (s *stream) Name() string {
	return s.name
}

func (s *stream) Inputs() []Node {
	return s.inputs
}

func (s *stream) Register(id ListenerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("register %q on %q: %w", id, s.name, ErrAlreadyStarted)
	}
	if _, ok := s.listeners[id]; ok {
		return fmt.Errorf("register %q on %q: %w", id, s.name, ErrDuplicateListener)
	}
	s.listeners[id] = core.NewMailbox[Item]()
	return nil
}

func (s *stream) mailbox(id ListenerID) *core.Mailbox[Item] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listeners[id]
}

func (s *stream) Get(ctx context.Context, id ListenerID) Item {
	mb := s.mailbox(id)
	if mb == nil {
		return flow.Tag(0, flow.Pill[any]())
	}
	it, ok := mb.Pop(ctx, s.stopCh)
	if !ok {
		return flow.Tag(0, flow.Pill[any]())
	}
	return it
}

func (s *stream) Empty(id ListenerID) bool {
	mb := s.mailbox(id)
	return mb == nil || mb.Empty()
}

func (s *stream) put(it Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, mb := range s.listeners {
		mb.Put(it)
	}
}

// release drops id's mailbox once its consumer drained the stream.
func (s *stream) release(id ListenerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listeners, id)
}

func (s *stream) Stop() {
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		close(s.stopCh)
		for _, in := range s.inputs {
			in.Stop()
		}
	})
}

func (s *stream) Stopped() bool {
	return s.stopped.Load()
}

func (s *stream) markStarted() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("start %q: %w", s.name, ErrAlreadyStarted)
	}
	s.started = true
	return nil
}

// Walk visits root and everything upstream of it exactly once, inputs
// before the nodes that consume them.
func Walk(root Node, visit func(Node) error) error {
	seen := make(map[string]bool)

	var walk func(n Node) error
	walk = func(n Node) error {
		if seen[n.ID()] {
			return nil
		}
		seen[n.ID()] = true
		for _, in := range n.Inputs() {
			if err := walk(in); err != nil {
				return err
			}
		}
		return visit(n)
	}

	return walk(root)
}

func checkInputs(inputs []Node) error {
	if len(inputs) == 0 {
		return ErrNoInputs
	}
	for i, in := range inputs {
		if in == nil {
			return fmt.Errorf("input %d: %w", i, ErrNilNode)
		}
	}
	return nil
}
