package transform

import (
	"testing"

	"github.com/matzehuels/beetree/pkg/dag"
)

func TestCheckGenerations(t *testing.T) {
	g := dag.New(nil)
	g.AddNode(dag.Node{ID: "forest", Row: 0})
	g.AddNode(dag.Node{ID: "meadows", Row: 0})
	g.AddNode(dag.Node{ID: "common", Row: 1})
	g.AddNode(dag.Node{ID: "loop", Row: 0, Meta: dag.Metadata{"forced": true}})
	g.AddEdge(dag.Edge{From: "forest", To: "common"})
	g.AddEdge(dag.Edge{From: "meadows", To: "common"})
	g.AddEdge(dag.Edge{From: "common", To: "loop"})
	g.AddEdge(dag.Edge{From: "common", To: "meadows"})

	got := CheckGenerations(g, nil)
	if len(got) != 2 {
		t.Fatalf("CheckGenerations() = %v, want 2 violations", got)
	}
	want := Violation{From: "common", To: "loop", FromRow: 1, ToRow: 0}
	if got[0] != want {
		t.Errorf("first violation = %+v, want %+v", got[0], want)
	}

	forced := func(n *dag.Node) bool { return n.Meta["forced"] == true }
	got = CheckGenerations(g, forced)
	if len(got) != 1 || got[0].To != "meadows" {
		t.Errorf("CheckGenerations(skip forced) = %v, want only common->meadows", got)
	}
}

func TestCheckGenerations_Empty(t *testing.T) {
	if got := CheckGenerations(dag.New(nil), nil); got != nil {
		t.Errorf("CheckGenerations() = %v, want nil", got)
	}
}
