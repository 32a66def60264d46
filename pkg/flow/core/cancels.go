package core

import (
	"github.com/ib-77/flowgraph/pkg/flow"
)

// CancelRemaining publishes an interruption for every sequence number in
// [from, to) so consumers still receive the full size of the stream.
func CancelRemaining[T any](from, to uint64, reason string, put func(flow.Tagged[T])) {
	f := flow.Interruption(reason)
	for seq := from; seq < to; seq++ {
		put(flow.Tag(seq, flow.FromFailure[T](f)))
	}
}

// CancelMissing fills every slot of results that was never set.
func CancelMissing[T any](results []flow.Result[T], filled []bool, reason string) {
	f := flow.Interruption(reason)
	for i := range results {
		if !filled[i] {
			results[i] = flow.FromFailure[T](f)
			filled[i] = true
		}
	}
}
