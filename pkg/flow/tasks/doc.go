// Package tasks holds the built-in task kinds used by blueprints, the CLI
// and tests. Arithmetic tasks keep integer results when every operand is an
// integer and fall back to float64 otherwise. List arguments are flattened,
// so "sum" works both on a Summarize batch and on plain scalars.
package tasks
