package transform

import "github.com/matzehuels/beetree/pkg/dag"

// Violation is an edge whose offspring is not in a strictly later row than
// its parent.
type Violation struct {
	From, To       string
	FromRow, ToRow int
}

// CheckGenerations reports every edge parent→child with child.Row <= parent.Row,
// in edge insertion order. Edges touching a node for which skip returns true
// are ignored; the hierarchy builder uses this to exclude nodes whose
// generation was forced.
//
// For a graph whose rows were assigned by longest-path relaxation the result
// is empty; anything else indicates an inconsistency in the assignment.
func CheckGenerations(g *dag.DAG, skip func(*dag.Node) bool) []Violation {
	var out []Violation
	for _, e := range g.Edges() {
		from, okF := g.Node(e.From)
		to, okT := g.Node(e.To)
		if !okF || !okT {
			continue
		}
		if skip != nil && (skip(from) || skip(to)) {
			continue
		}
		if to.Row <= from.Row {
			out = append(out, Violation{From: from.ID, To: to.ID, FromRow: from.Row, ToRow: to.Row})
		}
	}
	return out
}
