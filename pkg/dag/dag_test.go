package dag

import (
	"errors"
	"maps"
	"slices"
	"strconv"
	"testing"
)

func build(t *testing.T, rows map[string]int, edges ...[2]string) *DAG {
	t.Helper()
	g := New(nil)
	for _, id := range slices.Sorted(maps.Keys(rows)) {
		if err := g.AddNode(Node{ID: id, Row: rows[id]}); err != nil {
			t.Fatalf("AddNode(%s) error: %v", id, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatalf("AddEdge(%v) error: %v", e, err)
		}
	}
	return g
}

func TestAddNode(t *testing.T) {
	g := New(nil)
	if err := g.AddNode(Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty) = %v, want ErrInvalidNodeID", err)
	}
	if err := g.AddNode(Node{ID: "a"}); err != nil {
		t.Fatalf("AddNode() error: %v", err)
	}
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(dup) = %v, want ErrDuplicateNodeID", err)
	}
	n, _ := g.Node("a")
	if n.Meta == nil {
		t.Error("Meta should be initialized")
	}
}

func TestAddEdge(t *testing.T) {
	g := build(t, map[string]int{"a": 0, "b": 1})

	if err := g.AddEdge(Edge{From: "x", To: "b"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("AddEdge() = %v, want ErrUnknownSourceNode", err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "x"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("AddEdge() = %v, want ErrUnknownTargetNode", err)
	}
	_ = g.AddEdge(Edge{From: "a", To: "b"})
	_ = g.AddEdge(Edge{From: "a", To: "b"})
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1 after duplicate add", g.EdgeCount())
	}
	if got := g.InDegree("b"); got != 1 {
		t.Errorf("InDegree(b) = %d, want 1", got)
	}
}

func TestRows(t *testing.T) {
	g := build(t, map[string]int{"b": 0, "a": 0, "c": 2})

	if got := NodeIDs(g.NodesInRow(0)); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("NodesInRow(0) = %v, want [a b]", got)
	}
	if got := g.RowIDs(); !slices.Equal(got, []int{0, 2}) {
		t.Errorf("RowIDs() = %v, want [0 2]", got)
	}
	if g.MaxRow() != 2 {
		t.Errorf("MaxRow() = %d, want 2", g.MaxRow())
	}

	g.SetRows(map[string]int{"c": 1})
	if got := g.RowIDs(); !slices.Equal(got, []int{0, 1}) {
		t.Errorf("RowIDs() after SetRows = %v, want [0 1]", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		rows  map[string]int
		edges [][2]string
		want  error
	}{
		{"ok", map[string]int{"a": 0, "b": 1, "c": 3}, [][2]string{{"a", "b"}, {"a", "c"}}, nil},
		{"same row", map[string]int{"a": 1, "b": 1}, [][2]string{{"a", "b"}}, ErrRowOrder},
		{"backwards", map[string]int{"a": 2, "b": 1}, [][2]string{{"a", "b"}}, ErrRowOrder},
		{"cycle", map[string]int{"a": 0, "b": 0}, [][2]string{{"a", "b"}, {"b", "a"}}, ErrGraphHasCycle},
		{"self loop", map[string]int{"a": 0}, [][2]string{{"a", "a"}}, ErrGraphHasCycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.rows, tt.edges...)
			if err := g.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClosure(t *testing.T) {
	// depth 4 with a diamond in the middle: R -> A, A -> B, A -> C, B -> D, C -> D
	g := build(t, map[string]int{"R": 0, "A": 1, "B": 2, "C": 2, "D": 3, "X": 0},
		[2]string{"R", "A"}, [2]string{"A", "B"}, [2]string{"A", "C"},
		[2]string{"B", "D"}, [2]string{"C", "D"})

	tests := []struct {
		name string
		fn   func(string) ([]string, error)
		id   string
		want []string
	}{
		{"ancestors of D", g.Ancestors, "D", []string{"A", "B", "C", "R"}},
		{"descendants of A", g.Descendants, "A", []string{"B", "C", "D"}},
		{"ancestors of root", g.Ancestors, "R", nil},
		{"descendants of leaf", g.Descendants, "D", nil},
		{"isolated", g.Descendants, "X", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.id)
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClosureCycle(t *testing.T) {
	g := build(t, map[string]int{"a": 0, "b": 0, "c": 0},
		[2]string{"a", "b"}, [2]string{"b", "c"}, [2]string{"c", "a"})

	got, err := g.Descendants("a")
	if err != nil {
		t.Fatalf("Descendants() error: %v", err)
	}
	if !slices.Equal(got, []string{"b", "c"}) {
		t.Errorf("Descendants(a) = %v, want [b c] without the start node", got)
	}
	got, _ = g.Ancestors("a")
	if !slices.Equal(got, []string{"b", "c"}) {
		t.Errorf("Ancestors(a) = %v, want [b c]", got)
	}
}

func TestClosureUnknown(t *testing.T) {
	g := New(nil)
	if _, err := g.Ancestors("missing"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Ancestors() = %v, want ErrUnknownNode", err)
	}
}

func TestClosureDeep(t *testing.T) {
	g := New(nil)
	const depth = 50000
	ids := make([]string, depth)
	for i := range ids {
		ids[i] = "n" + strconv.Itoa(i)
		_ = g.AddNode(Node{ID: ids[i], Row: i})
		if i > 0 {
			_ = g.AddEdge(Edge{From: ids[i-1], To: ids[i]})
		}
	}
	got, err := g.Descendants(ids[0])
	if err != nil {
		t.Fatalf("Descendants() error: %v", err)
	}
	if len(got) != depth-1 {
		t.Errorf("len(Descendants) = %d, want %d", len(got), depth-1)
	}
}

func TestByRow(t *testing.T) {
	g := build(t, map[string]int{"a": 0, "b": 1, "c": 1})
	got := g.ByRow([]string{"a", "b", "c", "missing"})
	if len(got[0]) != 1 || len(got[1]) != 2 {
		t.Errorf("ByRow() = %v", got)
	}
}
