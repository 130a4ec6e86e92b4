package dag

import "slices"

// Ancestors returns every node from which id can be reached, sorted, not
// including id itself. It returns ErrUnknownNode if id is not in the graph.
func (d *DAG) Ancestors(id string) ([]string, error) {
	return d.closure(id, d.incoming)
}

// Descendants returns every node reachable from id, sorted, not including
// id itself. It returns ErrUnknownNode if id is not in the graph.
func (d *DAG) Descendants(id string) ([]string, error) {
	return d.closure(id, d.outgoing)
}

// closure walks adj from start with an explicit stack. Each node is expanded
// at most once, so cycles terminate. start is never part of the result, even
// when a cycle leads back to it.
func (d *DAG) closure(start string, adj map[string][]string) ([]string, error) {
	if _, ok := d.nodes[start]; !ok {
		return nil, ErrUnknownNode
	}

	visited := map[string]bool{start: true}
	stack := []string{start}
	var out []string
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range adj[id] {
			if visited[next] {
				continue
			}
			visited[next] = true
			out = append(out, next)
			stack = append(stack, next)
		}
	}
	slices.Sort(out)
	return out, nil
}

// ByRow groups ids by the row of their node, for lineage listings that read
// generation by generation. Unknown ids are skipped.
func (d *DAG) ByRow(ids []string) map[int][]string {
	out := make(map[int][]string)
	for _, id := range ids {
		if n, ok := d.nodes[id]; ok {
			out[n.Row] = append(out[n.Row], id)
		}
	}
	return out
}
