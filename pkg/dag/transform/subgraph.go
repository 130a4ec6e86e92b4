package transform

import (
	"maps"

	"github.com/matzehuels/beetree/pkg/dag"
)

// Induced returns a new graph holding only the nodes in keep and the edges
// between them. Rows and metadata are copied; unknown ids are ignored.
func Induced(g *dag.DAG, keep []string) *dag.DAG {
	out := dag.New(maps.Clone(g.Meta()))
	set := make(map[string]bool, len(keep))
	for _, id := range keep {
		n, ok := g.Node(id)
		if !ok || set[id] {
			continue
		}
		set[id] = true
		_ = out.AddNode(dag.Node{ID: n.ID, Row: n.Row, Meta: maps.Clone(n.Meta)})
	}
	for _, e := range g.Edges() {
		if set[e.From] && set[e.To] {
			_ = out.AddEdge(e)
		}
	}
	return out
}
