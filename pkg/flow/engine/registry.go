package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/tasks"
)

// Registry maps task kinds to their functions. Graphs only ever name a
// kind; the function itself never travels with the payload.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]flow.TaskFunc
}

func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]flow.TaskFunc)}
}

// DefaultRegistry returns a registry holding the built-in task kinds.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	if err := tasks.Register(r); err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Register(kind string, fn flow.TaskFunc) error {
	if kind == "" || fn == nil {
		return fmt.Errorf("%w: kind %q", ErrInvalidTask, kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[kind]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateTask, kind)
	}
	r.tasks[kind] = fn
	return nil
}

// MustRegister is Register that panics, for package-level setup.
func (r *Registry) MustRegister(kind string, fn flow.TaskFunc) *Registry {
	if err := r.Register(kind, fn); err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Lookup(kind string) (flow.TaskFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.tasks[kind]
	return fn, ok
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.tasks))
	for k := range r.tasks {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
