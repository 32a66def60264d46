// Package chain offers a fluent way to build dataflow graphs.
//
// Every step wraps the node built so far. The first construction error
// short-circuits the rest of the chain and is reported by Node, Output
// or Run, so a pipeline can be written without checking each step:
//
//	values, err := chain.FromValues([]any{1, 2, 3}).
//		Then("square").
//		Summarize("sum", nil).
//		Run(ctx, 4, true)
package chain
