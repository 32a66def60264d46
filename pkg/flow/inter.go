package flow

import "time"

type ResultProvider[T any] interface {
	// Result returns the successful scalar value
	Result() T
	// CreatedAt time creation (UTC)
	CreatedAt() time.Time
}

// WithError defines an interface for types that can return a result or an error
type WithError[T any] interface {
	ResultProvider[T]
	// Err returns the *Failure if the operation failed
	Err() error
	// IsSuccess returns true if the operation was successful
	IsSuccess() bool
}

// WithCancel extends WithError with cancellation support
type WithCancel[T any] interface {
	WithError[T]
	// IsCancel returns true if the operation was interrupted
	IsCancel() bool
}

// WithPill extends WithCancel with the stream-stopped sentinel and the list shape
type WithPill[T any] interface {
	WithCancel[T]
	IsPill() bool
	IsList() bool
	Items() []T
}

var _ WithPill[int] = Result[int]{}
