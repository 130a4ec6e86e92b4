// Package dag provides the breeding graph: species as nodes, parent→offspring
// edges, and nodes grouped into rows by generation.
//
// # Basic Usage
//
// Create a new graph with [New], add nodes with [DAG.AddNode], and edges with
// [DAG.AddEdge]. Node IDs must be unique and edges can only connect existing
// nodes. Adding the same edge twice is a no-op:
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "Forestry:Forest", Row: 0})
//	g.AddNode(dag.Node{ID: "Forestry:Common", Row: 1})
//	g.AddEdge(dag.Edge{From: "Forestry:Forest", To: "Forestry:Common"})
//
// Query the structure with [DAG.Children], [DAG.Parents], [DAG.NodesInRow]
// and related methods.
//
// # Lineage Queries
//
// [DAG.Ancestors] and [DAG.Descendants] return the transitive closure in
// either direction. Both walk the graph iteratively with a per-call visited
// set, so they are safe on deep graphs and on graphs that contain cycles,
// which breeding data occasionally does.
//
// # Validation
//
// [DAG.Validate] reports edges that do not point to a later row and cycles.
// The hierarchy builder tolerates both (they are recorded as diagnostics),
// so Validate is a check, not a precondition of any other operation.
//
// # Metadata
//
// Both nodes and the graph itself support arbitrary metadata via [Metadata]
// maps, used for display names, mods and render options. Metadata maps are
// never nil after creation.
//
// # Concurrency
//
// DAG instances are not safe for concurrent mutation. A fully built graph
// that is no longer modified may be queried from several goroutines.
//
// # Related Packages
//
// The [transform] subpackage finds cycles, checks generation order and
// extracts induced subgraphs.
//
// [transform]: github.com/matzehuels/beetree/pkg/dag/transform
package dag
