package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerOptions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	assert.Equal(t, 3, GetWorkerMaxCount(ctx, 3))
	assert.Equal(t, 8, GetWorkerMaxCount(WithWorkerOptions(ctx, 8), 3))
}

func TestDispatchOptions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	assert.Equal(t, DispatchOptions{}, GetDispatchOptions(ctx))
	assert.Equal(t, DispatchOptions{Local: true}, GetDispatchOptions(WithDispatchOptions(ctx, true, false)))
}

func TestStopSignal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	assert.Nil(t, GetStopSignal(ctx))

	stop := make(chan struct{})
	got := GetStopSignal(WithStopSignal(ctx, stop))
	close(stop)

	select {
	case <-got:
	default:
		t.Fatal("stop signal not carried by ctx")
	}
}
