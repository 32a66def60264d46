// Package flow holds the value types shared by every part of the dataflow
// engine: the tagged Result variant carried on graph edges, the Failure
// wrapper that lets task errors cross worker boundaries with their stack
// trace, and the Task payload resolved by the engine's registry.
//
// Subpackages:
// - core: mailboxes, fan-in, the node loop and context-carried options
// - solo: synchronous task invocation and failure short-circuiting
// - graph: streams, sources and combinators (zip, join, summarize, full stream)
// - engine: worker pool, task registry and graph runs
// - chain: fluent graph construction
// - blueprint: YAML graph descriptions
// - tasks: built-in task kinds
// - config: engine and run configuration
package flow
