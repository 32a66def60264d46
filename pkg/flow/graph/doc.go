// Package graph implements the nodes of a dataflow graph and the rules that
// turn tagged input items into task invocations.
//
// Every node is a stream: it owns one mailbox per registered listener and
// knows, before anything runs, exactly how many tagged items it will emit
// (Size). Sources emit a fixed list of values. Computations listen on their
// inputs and combine arriving items into tasks:
//
//   - Zip pairs the i-th item of every input, broadcasting size-1 inputs.
//   - Join dispatches the full cross product of its inputs.
//   - Summarize calls its task once with the whole ordered primary input.
//   - FullStream does the same and re-expands the returned list.
//
// An Output node starts the graph upstream-first, waits for Size items,
// and returns them sorted by sequence number, so results come back in the
// order the source values were declared no matter which worker finished
// first.
//
// Failures travel as data. A task whose arguments contain a failure is not
// invoked; the failure is forwarded instead, and Summarize/FullStream poison
// their entire batch. Stop is cooperative: it flows upstream, suppresses
// further dispatch, and makes blocked consumers receive the DeadlyPill.
package graph
