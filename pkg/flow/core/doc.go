// Package core contains graph plumbing utilities: per-listener mailboxes,
// fan-in of several input edges into one channel, the locomotive loop that
// drives a node, and dispatch configuration carried in the context. It does
// not define combinator semantics; package graph builds those on top.
package core
