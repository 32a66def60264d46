package flow

import "context"

// Shape tells the engine what a task must return.
type Shape int

const (
	// ShapeScalar tasks return one value per invocation.
	ShapeScalar Shape = iota
	// ShapeList tasks return a slice that is re-expanded into a stream.
	ShapeList
)

// TaskFunc is the body of a registered task kind.
type TaskFunc func(ctx context.Context, args []any) (any, error)

// Task is the payload shipped to a worker: a registered kind and its arguments.
type Task struct {
	Kind  string
	Args  []any
	Shape Shape
	// Node names the graph node that dispatched the task, for logs and spans.
	Node string
}

// Tagged pairs a result with its index in the producer's emission order.
type Tagged[T any] struct {
	Seq    uint64
	Result Result[T]
}

func Tag[T any](seq uint64, r Result[T]) Tagged[T] {
	return Tagged[T]{Seq: seq, Result: r}
}
