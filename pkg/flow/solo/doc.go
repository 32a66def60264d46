// Package solo contains single-invocation, synchronous primitives that
// operate on Result values. They form the building blocks the engine and
// the graph combinators use to call a task and to keep failures flowing
// without ever invoking a task on failed input.
//
// Highlights:
// - Invoke: call a task, converting errors and panics into Failures with traces
// - Switch: call a function only when every argument succeeded
// - FirstFailure/Values: inspect an argument tuple
// - Finally: reduce a result to a concrete value via success/error/cancel handlers
// - DoubleTee: run side effects for a result and pass it on unchanged
package solo
