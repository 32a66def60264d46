package core

import "context"

type OptionKey string

const (
	DispatchOptionKey OptionKey = "dispatch_options"
	WorkerOptionKey   OptionKey = "worker_options"
	StopSignalKey     OptionKey = "stop_signal"
)

type MaxLimitOption struct {
	Value int
}
type WorkerOptions struct {
	MaxCount MaxLimitOption
}

// DispatchOptions select how a single task is executed.
type DispatchOptions struct {
	// Local runs the task inline on the dispatching goroutine.
	Local bool
	// Debug round-trips the task through the payload codec and runs it inline.
	Debug bool
}

func WithDispatchOptions(ctx context.Context, local, debug bool) context.Context {
	return context.WithValue(ctx, DispatchOptionKey, DispatchOptions{Local: local, Debug: debug})
}

func WithWorkerOptions(ctx context.Context, maxWorkers int) context.Context {
	return context.WithValue(ctx, WorkerOptionKey, WorkerOptions{MaxLimitOption{Value: maxWorkers}})
}

func GetWorkerMaxCount(ctx context.Context, defaultMaxWorkers int) int {
	options, ok := ctx.Value(WorkerOptionKey).(WorkerOptions)
	if ok {
		return options.MaxCount.Value
	}
	return defaultMaxWorkers
}

func GetDispatchOptions(ctx context.Context) DispatchOptions {
	options, ok := ctx.Value(DispatchOptionKey).(DispatchOptions)
	if ok {
		return options
	}
	return DispatchOptions{}
}

// WithStopSignal attaches a channel that is closed once the caller no longer
// wants new work dispatched. Unlike cancelling ctx it leaves running tasks
// alone.
func WithStopSignal(ctx context.Context, stop <-chan struct{}) context.Context {
	return context.WithValue(ctx, StopSignalKey, stop)
}

// GetStopSignal returns the channel stored by WithStopSignal, or nil.
func GetStopSignal(ctx context.Context) <-chan struct{} {
	stop, _ := ctx.Value(StopSignalKey).(<-chan struct{})
	return stop
}
