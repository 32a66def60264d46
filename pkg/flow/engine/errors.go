package engine

import "errors"

var (
	// ErrPoolClosed is returned by Submit once the pool was closed or terminated.
	ErrPoolClosed = errors.New("engine: pool is closed")

	// ErrDispatchStopped is returned by Submit when the dispatching node was
	// stopped while it waited for queue space.
	ErrDispatchStopped = errors.New("engine: dispatch stopped")

	// ErrDuplicateTask is returned when a task kind is registered twice.
	ErrDuplicateTask = errors.New("engine: task kind already registered")

	// ErrInvalidTask is returned for an empty kind or nil function.
	ErrInvalidTask = errors.New("engine: invalid task registration")

	// ErrCodec wraps payload encoding and decoding failures in debug mode.
	ErrCodec = errors.New("engine: task payload codec")
)
