package flow

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
)

// FailureKind tells a task error apart from a cancellation.
type FailureKind int

const (
	KindError FailureKind = iota
	KindInterruption
)

func (k FailureKind) String() string {
	switch k {
	case KindError:
		return "error"
	case KindInterruption:
		return "interruption"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// Failure is an error captured as data so it can cross a worker boundary
// and be re-raised later. Trace is the stack text recorded where the
// failure was captured.
type Failure struct {
	Kind    FailureKind
	Message string
	Trace   string
	// Task names the task kind that failed, empty for cancellations
	// raised by the graph itself.
	Task string

	cause error
}

func (f *Failure) Error() string {
	if f.Task == "" {
		return f.Message
	}
	return fmt.Sprintf("task %q: %s", f.Task, f.Message)
}

// Unwrap returns the in-process cause. Failures decoded from a task
// payload have none.
func (f *Failure) Unwrap() error {
	return f.cause
}

func (f *Failure) Is(target error) bool {
	return target == ErrInterrupted && f.Kind == KindInterruption
}

// StackTrace returns the trace captured at the failure site.
func (f *Failure) StackTrace() string {
	return f.Trace
}

// Format prints the trace with %+v.
func (f *Failure) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "%s (%s)\n%s", f.Error(), f.Kind, f.Trace)
			return
		}
		_, _ = fmt.Fprint(s, f.Error())
	case 's':
		_, _ = fmt.Fprint(s, f.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", f.Error())
	}
}

// WithTask returns a copy of f attributed to task.
func (f *Failure) WithTask(task string) *Failure {
	cp := *f
	cp.Task = task
	return &cp
}

// Capture wraps err with the current goroutine stack.
func Capture(err error, kind FailureKind) *Failure {
	return &Failure{
		Kind:    kind,
		Message: err.Error(),
		Trace:   string(debug.Stack()),
		cause:   err,
	}
}

// AsFailure returns err as a *Failure, capturing the stack if err is not
// one already. Context cancellation errors are always interruptions.
func AsFailure(err error, kind FailureKind) *Failure {
	if err == nil {
		err = errors.New("unknown failure")
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	if IsCancellationError(err) {
		kind = KindInterruption
	}
	return Capture(err, kind)
}

// Interruption builds the failure substituted for work suppressed by a stop.
func Interruption(reason string) *Failure {
	return &Failure{
		Kind:    KindInterruption,
		Message: reason,
		cause:   ErrInterrupted,
	}
}

// Panicked converts a recovered panic value into a Failure. stack should be
// taken inside the deferred recover so it points at the panic site.
func Panicked(v any, stack []byte) *Failure {
	err, ok := v.(error)
	if !ok {
		err = fmt.Errorf("%w: %v", ErrPanic, v)
	} else {
		err = fmt.Errorf("%w: %w", ErrPanic, err)
	}
	kind := KindError
	if IsCancellationError(err) {
		kind = KindInterruption
	}
	return &Failure{
		Kind:    kind,
		Message: err.Error(),
		Trace:   string(stack),
		cause:   err,
	}
}

// NewFailure rebuilds a failure from its wire form.
func NewFailure(kind FailureKind, message, trace, task string) *Failure {
	return &Failure{Kind: kind, Message: message, Trace: trace, Task: task}
}

// IsInterruption reports whether err is, or wraps, an interruption.
func IsInterruption(err error) bool {
	return errors.Is(err, ErrInterrupted) || errors.Is(err, context.Canceled)
}
