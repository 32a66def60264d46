// Package engine executes the tasks of a dataflow graph.
//
// An Engine owns a fixed-size worker pool (zero workers runs everything
// inline on the dispatching goroutine) and a Registry of named task kinds.
// Graph nodes hand it flow.Task payloads through RunAsync; the callback
// always receives a flow.Result, with task errors and panics converted to
// flow.Failure values that keep the stack captured where they happened.
//
// Debug mode runs tasks inline but round-trips every payload and result
// through the Codec, so values that could not cross a process boundary
// show up as failures during development.
//
//	out, _ := graph.NewOutput(node)
//	values, err := engine.RunOnce(ctx, out, 4, true)
package engine
