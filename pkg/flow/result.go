package flow

import (
	"time"

	"github.com/google/uuid"
)

// Result is the tagged variant carried on every graph edge: a scalar value,
// a list of values, a Failure, or the DeadlyPill.
type Result[T any] struct {
	id        uuid.UUID
	createdAt time.Time
	result    T
	items     []T
	failure   *Failure
	isSuccess bool
	isList    bool
	isPill    bool
	hasResult bool
}

func Success[T any](r T) Result[T] {
	return Result[T]{
		result:    r,
		isSuccess: true,
		createdAt: time.Now().UTC(),
		hasResult: true,
		id:        uuid.New(),
	}
}

// List wraps the outcome of a task that produces a whole stream.
func List[T any](items []T) Result[T] {
	return Result[T]{
		items:     items,
		isSuccess: true,
		isList:    true,
		createdAt: time.Now().UTC(),
		hasResult: true,
		id:        uuid.New(),
	}
}

func Fail[T any](err error) Result[T] {
	return Result[T]{
		failure:   AsFailure(err, KindError),
		createdAt: time.Now().UTC(),
		id:        uuid.New(),
	}
}

func Cancel[T any](err error) Result[T] {
	f := AsFailure(err, KindInterruption)
	if f.Kind != KindInterruption {
		f = &Failure{Kind: KindInterruption, Message: f.Message, Trace: f.Trace, Task: f.Task, cause: f.cause}
	}
	return Result[T]{
		failure:   f,
		createdAt: time.Now().UTC(),
		id:        uuid.New(),
	}
}

// FromFailure keeps the kind recorded on f.
func FromFailure[T any](f *Failure) Result[T] {
	return Result[T]{
		failure:   f,
		createdAt: time.Now().UTC(),
		id:        uuid.New(),
	}
}

// Pill is the DeadlyPill: the producing stream stopped and nothing else will arrive.
func Pill[T any]() Result[T] {
	return Result[T]{
		isPill:    true,
		createdAt: time.Now().UTC(),
		id:        uuid.New(),
	}
}

// FailFrom moves a failed or cancelled result to another value type.
func FailFrom[In, Out any](from Result[In]) Result[Out] {
	return Result[Out]{
		failure:   from.failure,
		isPill:    from.isPill,
		createdAt: from.createdAt,
		id:        from.id,
	}
}

func (r Result[T]) Result() T {
	return r.result
}

func (r Result[T]) Items() []T {
	return r.items
}

func (r Result[T]) Err() error {
	if r.failure == nil {
		return nil
	}
	return r.failure
}

func (r Result[T]) Failure() *Failure {
	return r.failure
}

func (r Result[T]) IsSuccess() bool {
	return r.isSuccess
}

func (r Result[T]) IsFailure() bool {
	return r.failure != nil
}

func (r Result[T]) IsCancel() bool {
	return r.failure != nil && r.failure.Kind == KindInterruption
}

func (r Result[T]) IsList() bool {
	return r.isList
}

func (r Result[T]) IsPill() bool {
	return r.isPill
}

func (r Result[T]) HasResult() bool {
	return r.hasResult
}

func (r Result[T]) CreatedAt() time.Time {
	return r.createdAt
}

func (r Result[T]) IsEmpty() bool {
	return r.failure == nil && !r.isSuccess && !r.isPill
}

func (r Result[T]) Id() uuid.UUID {
	return r.id
}

// Value returns the scalar value, the item list, or the *Failure, whichever
// the result holds. A pill yields nil.
func (r Result[T]) Value() any {
	switch {
	case r.failure != nil:
		return r.failure
	case r.isList:
		return r.items
	case r.isSuccess:
		return r.result
	default:
		return nil
	}
}
