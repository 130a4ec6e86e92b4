package transform

import "github.com/matzehuels/beetree/pkg/dag"

// FindCycles returns the back edges found by a depth-first search, one per
// cycle closed during the walk. The graph is not modified. The walk starts
// from sources and then from any node not yet visited, both in ID order, so
// the result is deterministic.
func FindCycles(g *dag.DAG) [][2]string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int)
	var backEdges [][2]string

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, child := range g.Children(node) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				backEdges = append(backEdges, [2]string{node, child})
			}
		}
		color[node] = black
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	return backEdges
}
