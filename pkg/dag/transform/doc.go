// Package transform provides checks and repairs over a breeding graph.
//
// # Cycles
//
// Breeding data is expected to be acyclic, but real mod data occasionally
// contains mutations that lead back to an ancestor. [FindCycles] reports the
// back edges found by a white/gray/black depth-first search without touching
// the graph; the hierarchy builder names them when it has to force a
// generation.
//
// # Generation Order
//
// [CheckGenerations] verifies that every edge points from a parent to an
// offspring in a strictly later row. Nodes can be excluded, which is how
// forced generations are kept out of the check.
//
// # Subgraphs
//
// [Induced] copies the part of a graph spanned by a set of nodes, e.g. one
// species and its ancestors, for rendering.
package transform
