package engine

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/ib-77/flowgraph/pkg/flow/core"
)

// job is a unit of pool work. abort runs instead of run when the pool is
// terminated before the job was picked up.
type job struct {
	run   func(ctx context.Context)
	abort func()
}

// Pool is a fixed set of worker goroutines fed through a bounded queue.
type Pool struct {
	tasks  chan job
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
	logger *slog.Logger

	submitted atomic.Int64
	completed atomic.Int64
	aborted   atomic.Int64
	panicked  atomic.Int64
	inFlight  atomic.Int64
	workers   int
}

// PoolStats provides a point-in-time snapshot of pool activity.
type PoolStats struct {
	Submitted  int64 // total jobs accepted
	Completed  int64 // jobs that ran to completion
	Panicked   int64 // jobs whose run panicked
	Aborted    int64 // jobs dropped before they ran
	InFlight   int64 // jobs currently executing
	QueueDepth int   // jobs waiting in the queue
	Workers    int   // worker count (fixed at creation)
}

// NewPool starts n workers. Panics if n <= 0.
func NewPool(ctx context.Context, n, queueSize int, logger *slog.Logger) *Pool {
	if n <= 0 {
		panic("engine: NewPool requires n > 0")
	}
	if queueSize < 0 {
		queueSize = n * 2
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pool{
		tasks:   make(chan job, queueSize),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
		workers: n,
	}

	p.wg.Add(n)
	for range n {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			p.drain()
			return
		case j, ok := <-p.tasks:
			if !ok {
				return
			}
			if p.ctx.Err() != nil {
				p.abortJob(j)
				continue
			}
			p.runJob(j)
		}
	}
}

func (p *Pool) runJob(j job) {
	p.inFlight.Add(1)
	defer func() {
		p.inFlight.Add(-1)
		if r := recover(); r != nil {
			p.panicked.Add(1)
			p.logger.Error("pool job panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	j.run(p.ctx)
	p.completed.Add(1)
}

func (p *Pool) abortJob(j job) {
	p.aborted.Add(1)
	if j.abort != nil {
		j.abort()
	}
}

// drain aborts whatever is queued right now without waiting for more.
func (p *Pool) drain() {
	for {
		select {
		case j, ok := <-p.tasks:
			if !ok {
				return
			}
			p.abortJob(j)
		default:
			return
		}
	}
}

// Submit queues j, blocking while the queue is full. It gives up when ctx
// is done or the stop signal carried by ctx (core.WithStopSignal) fires.
func (p *Pool) Submit(ctx context.Context, j job) (err error) {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	// Close may close the queue between the check above and the send.
	defer func() {
		if r := recover(); r != nil {
			err = ErrPoolClosed
		}
	}()

	select {
	case p.tasks <- j:
		p.submitted.Add(1)
		if p.ctx.Err() != nil {
			// The workers may already be gone.
			p.drain()
		}
		return nil
	case <-p.ctx.Done():
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-core.GetStopSignal(ctx):
		return ErrDispatchStopped
	}
}

// Close stops accepting jobs and waits for queued and running jobs.
// Jobs left behind by workers that exited on context cancellation are
// aborted. Safe to call multiple times.
func (p *Pool) Close() {
	if p.closed.CompareAndSwap(false, true) {
		close(p.tasks)
	}
	p.wg.Wait()
	p.cancel()
	for j := range p.tasks {
		p.abortJob(j)
	}
}

// Terminate stops the workers without running queued jobs; their abort
// hooks run instead. Running jobs are not interrupted beyond the
// cancellation of the context they were given.
func (p *Pool) Terminate() {
	p.cancel()
	if p.closed.CompareAndSwap(false, true) {
		close(p.tasks)
	}
	p.wg.Wait()
	for j := range p.tasks {
		p.abortJob(j)
	}
}

func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Submitted:  p.submitted.Load(),
		Completed:  p.completed.Load(),
		Panicked:   p.panicked.Load(),
		Aborted:    p.aborted.Load(),
		InFlight:   p.inFlight.Load(),
		QueueDepth: len(p.tasks),
		Workers:    p.workers,
	}
}
