package hierarchy

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/beetree/pkg/dag"
	"github.com/matzehuels/beetree/pkg/dag/transform"
	"github.com/matzehuels/beetree/pkg/dataset"
	"github.com/matzehuels/beetree/pkg/diag"
	"github.com/matzehuels/beetree/pkg/errors"
)

// DefaultCap bounds the number of relaxation passes.
const DefaultCap = 20

// Metadata keys set on graph nodes.
const (
	MetaName   = "name"
	MetaMod    = "mod"
	MetaForced = "forced"
)

// Options configures Build.
type Options struct {
	// Cap is the maximum number of relaxation passes. Zero means DefaultCap.
	Cap int
}

// Node is one species in the hierarchy.
type Node struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	Mod                string      `json:"mod"`
	Generation         int         `json:"generation"`
	ParentCombinations [][2]string `json:"parentCombinations"`
	Parents            []string    `json:"parents"` // every id of every combination, missing species included
	Children           []string    `json:"children"`

	// Forced is set when the generation is the degraded fallback rather than
	// the result of relaxation.
	Forced bool `json:"forced,omitempty"`
}

// Edge is a parent→offspring link.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Hierarchy is the built lineage graph.
type Hierarchy struct {
	Nodes []*Node          `json:"nodes"` // ordered by generation, then id
	Edges []Edge           `json:"edges"` // ordered by from, then to
	ByID  map[string]*Node `json:"-"`

	// Passes is the number of relaxation passes that changed something.
	Passes int `json:"passes"`

	graph *dag.DAG
}

// FromDataset builds the hierarchy of a merged dataset.
func FromDataset(d *dataset.Dataset, opts Options, report *diag.Report) *Hierarchy {
	return Build(d.Bees, dataset.ParentIndex(d.Mutations), opts, report)
}

// Build assigns generations to every bee and links parents to offspring.
// parents maps an offspring id to its alternative parent pairs. Problems are
// recorded in report (which may be nil) and never abort the build.
func Build(bees map[string]dataset.Bee, parents map[string][][2]string, opts Options, report *diag.Report) *Hierarchy {
	if opts.Cap <= 0 {
		opts.Cap = DefaultCap
	}
	if report == nil {
		report = &diag.Report{}
	}

	ids := slices.Sorted(maps.Keys(bees))
	h := &Hierarchy{ByID: make(map[string]*Node, len(ids))}
	for _, id := range ids {
		b := bees[id]
		h.ByID[id] = &Node{
			ID:                 id,
			Name:               b.Name,
			Mod:                b.Mod,
			Generation:         -1,
			ParentCombinations: slices.Clone(parents[id]),
		}
	}

	h.Passes = relax(h, ids, opts.Cap)
	h.link(ids, report)
	h.buildGraph()
	h.fallback(ids, opts.Cap, report)
	slices.SortStableFunc(h.Nodes, func(a, b *Node) int { return a.Generation - b.Generation })
	h.checkOrder(report)
	return h
}

// relax runs snapshot passes until nothing changes or the cap is reached.
// Each pass raises a node to 1 + the worse parent of its deepest ready
// combination whenever that is above its current generation, so generations
// only grow and settle on the longest path. Within a pass every node reads
// the generations of earlier passes only, so the outcome does not depend on
// iteration order. It returns the number of passes that changed a node.
func relax(h *Hierarchy, ids []string, limit int) int {
	for _, id := range ids {
		if n := h.ByID[id]; len(n.ParentCombinations) == 0 {
			n.Generation = 0
		}
	}

	passes := 0
	for pass := 0; pass < limit; pass++ {
		next := make(map[string]int)
		for _, id := range ids {
			n := h.ByID[id]
			if g := h.candidate(n); g > n.Generation {
				next[id] = g
			}
		}
		if len(next) == 0 {
			break
		}
		for id, g := range next {
			h.ByID[id].Generation = g
		}
		passes++
	}
	return passes
}

// candidate is one more than the worse parent of the deepest ready
// combination of n, or -1 when no combination is ready.
func (h *Hierarchy) candidate(n *Node) int {
	best := -1
	for _, combo := range n.ParentCombinations {
		g0, ok0 := h.generation(combo[0])
		g1, ok1 := h.generation(combo[1])
		if !ok0 || !ok1 {
			continue
		}
		best = max(best, g0, g1)
	}
	if best < 0 {
		return -1
	}
	return best + 1
}

func (h *Hierarchy) generation(id string) (int, bool) {
	n, ok := h.ByID[id]
	if !ok || n.Generation < 0 {
		return 0, false
	}
	return n.Generation, true
}

// fallback forces to generation 0 every node that relaxation left
// unassigned or that would still rise after the last pass. A node still
// rising sits on or below a cycle, so its descendants are forced with it.
func (h *Hierarchy) fallback(ids []string, limit int, report *diag.Report) {
	reasons := make(map[string]string)
	for _, id := range ids {
		if h.ByID[id].Generation < 0 {
			reasons[id] = "no parent combination became ready"
		}
	}
	for _, id := range ids {
		n := h.ByID[id]
		if n.Generation < 0 || h.candidate(n) <= n.Generation {
			continue
		}
		reasons[id] = "generation was still rising"
		desc, _ := h.graph.Descendants(id)
		for _, d := range desc {
			if _, ok := reasons[d]; !ok {
				reasons[d] = "descends from a species whose generation was still rising"
			}
		}
	}
	if len(reasons) == 0 {
		return
	}

	cycles := transform.FindCycles(h.graph)
	rows := make(map[string]int, len(reasons))
	for _, id := range ids {
		reason, ok := reasons[id]
		if !ok {
			continue
		}
		n := h.ByID[id]
		report.Add(diag.Diagnostic{
			Kind:    diag.NonTerminatingRelaxation,
			Subject: id,
			Message: fmt.Sprintf("%s within %d passes; forced to generation 0 (%s)",
				reason, limit, h.blockedBy(n, reasons, cycles)),
			Mods: []string{n.Mod},
		})
		rows[id] = 0
	}
	for id := range rows {
		n := h.ByID[id]
		n.Generation = 0
		n.Forced = true
		if gn, ok := h.graph.Node(id); ok {
			gn.Meta[MetaForced] = true
		}
	}
	h.graph.SetRows(rows)
}

// blockedBy explains why n did not settle: a missing parent, a cycle among
// its ancestry (named by its back edges), or a forced parent.
func (h *Hierarchy) blockedBy(n *Node, forced map[string]string, cycles [][2]string) string {
	var missing, waiting []string
	for _, combo := range n.ParentCombinations {
		for _, p := range combo {
			if _, ok := h.ByID[p]; !ok {
				if !slices.Contains(missing, p) {
					missing = append(missing, p)
				}
				continue
			}
			if _, ok := forced[p]; ok && p != n.ID && !slices.Contains(waiting, p) {
				waiting = append(waiting, p)
			}
		}
	}
	if len(missing) > 0 {
		return "missing parent " + strings.Join(missing, ", ")
	}

	lineage, _ := h.graph.Ancestors(n.ID)
	lineage = append(lineage, n.ID)
	var loops []string
	for _, e := range cycles {
		if slices.Contains(lineage, e[0]) && slices.Contains(lineage, e[1]) {
			loops = append(loops, e[0]+" -> "+e[1])
		}
	}
	if len(loops) > 0 {
		return "cycle through " + strings.Join(loops, ", ")
	}
	if len(waiting) > 0 {
		slices.Sort(waiting)
		return "waits on forced parent " + strings.Join(waiting, ", ")
	}
	return "parent chain is deeper than the pass limit"
}

// link derives edges and the parent/child lists. Parents lists every id of
// every combination, species or not. Every distinct parent that is a species
// gets one edge, so a self-mutation yields a single edge. Parents that are
// not species produce no edge and are reported once per offspring.
func (h *Hierarchy) link(ids []string, report *diag.Report) {
	children := make(map[string][]string)
	for _, id := range ids {
		n := h.ByID[id]
		for _, combo := range n.ParentCombinations {
			for _, p := range combo {
				if slices.Contains(n.Parents, p) {
					continue
				}
				n.Parents = append(n.Parents, p)
				if _, ok := h.ByID[p]; !ok {
					report.Add(diag.Diagnostic{
						Kind:    diag.DanglingParentReference,
						Subject: id,
						Message: fmt.Sprintf("parent combination names unknown species %s", p),
						Mods:    []string{n.Mod},
					})
					continue
				}
				children[p] = append(children[p], id)
			}
		}
		slices.Sort(n.Parents)
	}

	for _, id := range ids {
		n := h.ByID[id]
		n.Children = children[id]
		for _, p := range n.Parents {
			if _, ok := h.ByID[p]; ok {
				h.Edges = append(h.Edges, Edge{From: p, To: id})
			}
		}
		h.Nodes = append(h.Nodes, n)
	}

	slices.SortFunc(h.Edges, func(a, b Edge) int {
		if c := strings.Compare(a.From, b.From); c != 0 {
			return c
		}
		return strings.Compare(a.To, b.To)
	})
}

func (h *Hierarchy) buildGraph() {
	g := dag.New(nil)
	for _, n := range h.Nodes {
		_ = g.AddNode(dag.Node{ID: n.ID, Row: n.Generation, Meta: dag.Metadata{
			MetaName:   n.Name,
			MetaMod:    n.Mod,
			MetaForced: n.Forced,
		}})
	}
	for _, e := range h.Edges {
		_ = g.AddEdge(dag.Edge{From: e.From, To: e.To})
	}
	h.graph = g
}

// checkOrder flags edges whose offspring is not in a later generation. After
// relaxation this only happens when a combination naming a deeper parent
// never became ready because its other parent is missing.
func (h *Hierarchy) checkOrder(report *diag.Report) {
	forced := func(n *dag.Node) bool { return n.Meta[MetaForced] == true }
	for _, v := range transform.CheckGenerations(h.graph, forced) {
		report.Add(diag.Diagnostic{
			Kind:    diag.GenerationOrder,
			Subject: v.To,
			Message: fmt.Sprintf("generation %d is not after parent %s (generation %d)", v.ToRow, v.From, v.FromRow),
		})
	}
}

// Graph returns the underlying graph, with generations as rows.
func (h *Hierarchy) Graph() *dag.DAG { return h.graph }

// Node returns the node for id.
func (h *Hierarchy) Node(id string) (*Node, bool) {
	n, ok := h.ByID[id]
	return n, ok
}

// Ancestors returns every species id id descends from, sorted, excluding id.
func (h *Hierarchy) Ancestors(id string) ([]string, error) {
	out, err := h.graph.Ancestors(id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSpeciesNotFound, err, "ancestors of %s", id)
	}
	return out, nil
}

// Descendants returns every species id that descends from id, sorted,
// excluding id.
func (h *Hierarchy) Descendants(id string) ([]string, error) {
	out, err := h.graph.Descendants(id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSpeciesNotFound, err, "descendants of %s", id)
	}
	return out, nil
}

// Generations groups ids by generation.
func (h *Hierarchy) Generations(ids []string) map[int][]string {
	return h.graph.ByRow(ids)
}

// MaxGeneration returns the deepest generation in the hierarchy.
func (h *Hierarchy) MaxGeneration() int { return h.graph.MaxRow() }
