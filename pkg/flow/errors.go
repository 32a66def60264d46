package flow

import "errors"

var (
	// ErrInterrupted marks work that was suppressed by a stop or cancellation.
	ErrInterrupted = errors.New("interrupted")

	// ErrPanic wraps values recovered from a panicking task.
	ErrPanic = errors.New("task panicked")

	// ErrUnknownTask is returned when a task kind is not registered.
	ErrUnknownTask = errors.New("unknown task kind")

	// ErrNotList is returned when a list-shaped task returns a scalar.
	ErrNotList = errors.New("task result is not a list")

	// ErrListLength is returned when a list-shaped task returns the wrong number of items.
	ErrListLength = errors.New("task result has wrong length")
)
