package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ib-77/flowgraph/pkg/flow/core"
)

func TestPool_RunsEverySubmittedJob(t *testing.T) {
	t.Parallel()
	p := NewPool(context.Background(), 4, 8, nil)

	var n atomic.Int64
	for range 100 {
		require.NoError(t, p.Submit(context.Background(), job{
			run: func(context.Context) { n.Add(1) },
		}))
	}
	p.Close()

	assert.Equal(t, int64(100), n.Load())
	stats := p.Stats()
	assert.Equal(t, int64(100), stats.Submitted)
	assert.Equal(t, int64(100), stats.Completed)
	assert.Equal(t, 4, stats.Workers)
}

func TestPool_SubmitAfterClose(t *testing.T) {
	t.Parallel()
	p := NewPool(context.Background(), 1, 1, nil)
	p.Close()

	err := p.Submit(context.Background(), job{run: func(context.Context) {}})
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPool_TerminateAbortsQueued(t *testing.T) {
	t.Parallel()
	p := NewPool(context.Background(), 1, 16, nil)

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), job{
		run: func(context.Context) {
			close(started)
			<-release
		},
	}))
	<-started

	var ran, aborted atomic.Int64
	for range 5 {
		require.NoError(t, p.Submit(context.Background(), job{
			run:   func(context.Context) { ran.Add(1) },
			abort: func() { aborted.Add(1) },
		}))
	}

	done := make(chan struct{})
	go func() {
		p.Terminate()
		close(done)
	}()

	// Terminate waits for the running job.
	time.Sleep(20 * time.Millisecond)
	close(release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("terminate did not return")
	}

	assert.Zero(t, ran.Load())
	assert.Equal(t, int64(5), aborted.Load())
	assert.Equal(t, int64(5), p.Stats().Aborted)
}

func TestPool_JobPanicDoesNotKillWorker(t *testing.T) {
	t.Parallel()
	p := NewPool(context.Background(), 1, 4, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, p.Submit(context.Background(), job{run: func(context.Context) { panic("bad job") }}))
	require.NoError(t, p.Submit(context.Background(), job{run: func(context.Context) { wg.Done() }}))

	wg.Wait()
	p.Close()
	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(1), stats.Panicked)
}

func TestPool_SubmitHonoursCallerContext(t *testing.T) {
	t.Parallel()
	p := NewPool(context.Background(), 1, 0, nil)
	defer p.Terminate()

	block := make(chan struct{})
	defer close(block)
	require.NoError(t, p.Submit(context.Background(), job{run: func(context.Context) { <-block }}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// The single worker is busy and the queue is unbuffered.
	err := p.Submit(ctx, job{run: func(context.Context) {}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPool_SubmitGivesUpOnStopSignal(t *testing.T) {
	t.Parallel()
	p := NewPool(context.Background(), 1, 0, nil)
	defer p.Terminate()

	block := make(chan struct{})
	defer close(block)
	require.NoError(t, p.Submit(context.Background(), job{run: func(context.Context) { <-block }}))

	stop := make(chan struct{})
	ctx := core.WithStopSignal(context.Background(), stop)
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(stop)
	}()

	err := p.Submit(ctx, job{run: func(context.Context) {}})
	assert.ErrorIs(t, err, ErrDispatchStopped)
}

func TestPool_CancelledContextAbortsQueued(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(ctx, 1, 8, nil)
	defer p.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), job{
		run: func(context.Context) {
			close(started)
			<-release
		},
	}))
	<-started

	var ran, aborted atomic.Int64
	for range 3 {
		require.NoError(t, p.Submit(context.Background(), job{
			run:   func(context.Context) { ran.Add(1) },
			abort: func() { aborted.Add(1) },
		}))
	}

	cancel()
	close(release)

	// No Close or Terminate: the workers abort what they leave behind.
	assert.Eventually(t, func() bool { return aborted.Load() == 3 }, 5*time.Second, 5*time.Millisecond)
	assert.Zero(t, ran.Load())
}

func TestNewPool_PanicsOnZeroWorkers(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewPool(context.Background(), 0, 0, nil) })
}
