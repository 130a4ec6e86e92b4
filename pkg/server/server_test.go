package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/beetree/pkg/dataset"
	"github.com/matzehuels/beetree/pkg/diag"
	"github.com/matzehuels/beetree/pkg/hierarchy"
	"github.com/matzehuels/beetree/pkg/observability"
)

// diamond: Forest x Meadows -> Common, Forest x Common -> Cultivated,
// Meadows x Common -> Diligent, Cultivated x Diligent -> Noble (secret).
func testSnapshot() *Snapshot {
	d := dataset.New()
	for _, name := range []string{"Forest", "Meadows", "Common", "Cultivated", "Diligent", "Noble"} {
		d.Bees["Forestry:"+name] = dataset.Bee{Mod: "Forestry", Name: name}
	}
	noble := d.Bees["Forestry:Noble"]
	noble.IsSecret = true
	d.Bees["Forestry:Noble"] = noble
	d.Bees["ExtraBees:Rocky"] = dataset.Bee{Mod: "ExtraBees", Name: "Rocky"}
	d.Combs["forestry:honey"] = dataset.Comb{Name: "Honey Comb", Producers: []dataset.Producer{{Bee: "Forestry:Forest", Chance: 0.3}}}
	d.Mutations = []dataset.MutationGroup{
		{Parents: [2]string{"Forestry:Common", "Forestry:Forest"}, Children: []dataset.Child{{Species: "Forestry:Cultivated", Probability: 0.12}}},
		{Parents: [2]string{"Forestry:Common", "Forestry:Meadows"}, Children: []dataset.Child{{Species: "Forestry:Diligent", Probability: 0.1}}},
		{Parents: [2]string{"Forestry:Cultivated", "Forestry:Diligent"}, Children: []dataset.Child{{Species: "Forestry:Noble", Probability: 0.1, IsSecret: true}}},
		{Parents: [2]string{"Forestry:Forest", "Forestry:Meadows"}, Children: []dataset.Child{{Species: "Forestry:Common", Probability: 0.15}}},
	}
	report := &diag.Report{}
	report.Addf(diag.UnresolvedReference, "unknownmod.ghost", "parent1 could not be resolved")
	return &Snapshot{
		Dataset:   d,
		Hierarchy: hierarchy.FromDataset(d, hierarchy.Options{}, report),
		Report:    report,
	}
}

func get(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if out != nil && w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("GET %s: decode %q: %v", path, w.Body.String(), err)
		}
	}
	return w.Code
}

func TestBees(t *testing.T) {
	s := New(testSnapshot(), Options{})

	var all map[string]dataset.Bee
	if code := get(t, s, "/api/bees", &all); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(all) != 7 {
		t.Errorf("len(bees) = %d, want 7", len(all))
	}

	var extra map[string]dataset.Bee
	get(t, s, "/api/bees?mod=ExtraBees", &extra)
	if len(extra) != 1 {
		t.Errorf("len(bees?mod=ExtraBees) = %d, want 1", len(extra))
	}
}

func TestMutations(t *testing.T) {
	s := New(testSnapshot(), Options{})
	tests := []struct {
		path string
		want int
	}{
		{"/api/mutations", 4},
		{"/api/mutations?child=Forestry:Noble", 1},
		{"/api/mutations?parent=Forestry:Common", 2},
		{"/api/mutations?child=Forestry:Forest", 0},
	}
	for _, tt := range tests {
		var groups []dataset.MutationGroup
		if code := get(t, s, tt.path, &groups); code != http.StatusOK {
			t.Fatalf("GET %s status = %d", tt.path, code)
		}
		if groups == nil || len(groups) != tt.want {
			t.Errorf("GET %s = %d groups (nil=%v), want %d", tt.path, len(groups), groups == nil, tt.want)
		}
	}
}

func TestCombsAndHierarchy(t *testing.T) {
	s := New(testSnapshot(), Options{})

	var combs map[string]dataset.Comb
	get(t, s, "/api/combs", &combs)
	if combs["forestry:honey"].Name != "Honey Comb" {
		t.Errorf("combs = %v", combs)
	}

	var h struct {
		Nodes []hierarchy.Node `json:"nodes"`
		Edges []hierarchy.Edge `json:"edges"`
	}
	get(t, s, "/api/hierarchy", &h)
	if len(h.Nodes) != 7 {
		t.Errorf("len(nodes) = %d, want 7", len(h.Nodes))
	}
	if len(h.Edges) != 8 {
		t.Errorf("len(edges) = %d, want 8", len(h.Edges))
	}
}

func TestSpecies(t *testing.T) {
	s := New(testSnapshot(), Options{})

	var resp speciesResponse
	if code := get(t, s, "/api/species/Forestry:Common", &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if resp.Node == nil || resp.Node.Generation != 1 {
		t.Errorf("node = %+v, want generation 1", resp.Node)
	}
	if len(resp.ProducedBy) != 1 || len(resp.UsedIn) != 2 {
		t.Errorf("producedBy = %d, usedIn = %d; want 1, 2", len(resp.ProducedBy), len(resp.UsedIn))
	}

	if code := get(t, s, "/api/species/Forestry:Nope", nil); code != http.StatusNotFound {
		t.Errorf("unknown species status = %d, want 404", code)
	}
}

func TestLineage(t *testing.T) {
	s := New(testSnapshot(), Options{})
	tests := []struct {
		path string
		want []string
	}{
		{"/api/species/Forestry:Noble/ancestors", []string{
			"Forestry:Common", "Forestry:Cultivated", "Forestry:Diligent", "Forestry:Forest", "Forestry:Meadows",
		}},
		{"/api/species/Forestry:Forest/descendants", []string{
			"Forestry:Common", "Forestry:Cultivated", "Forestry:Diligent", "Forestry:Noble",
		}},
		{"/api/species/Forestry:Forest/descendants?hideSecret=true", []string{
			"Forestry:Common", "Forestry:Cultivated", "Forestry:Diligent",
		}},
		{"/api/species/ExtraBees:Rocky/descendants", []string{}},
	}
	for _, tt := range tests {
		var resp lineageResponse
		if code := get(t, s, tt.path, &resp); code != http.StatusOK {
			t.Fatalf("GET %s status = %d", tt.path, code)
		}
		if !slices.Equal(resp.IDs, tt.want) {
			t.Errorf("GET %s = %v, want %v", tt.path, resp.IDs, tt.want)
		}
	}

	var resp lineageResponse
	get(t, s, "/api/species/Forestry:Noble/ancestors", &resp)
	if got := resp.Generations[0]; !slices.Equal(got, []string{"Forestry:Forest", "Forestry:Meadows"}) {
		t.Errorf("generation 0 = %v", got)
	}

	if code := get(t, s, "/api/species/Forestry:Nope/ancestors", nil); code != http.StatusNotFound {
		t.Errorf("unknown species status = %d, want 404", code)
	}
}

func TestDiagnostics(t *testing.T) {
	s := New(testSnapshot(), Options{})
	var resp struct {
		Summary     string            `json:"summary"`
		Diagnostics []diag.Diagnostic `json:"diagnostics"`
	}
	get(t, s, "/api/diagnostics", &resp)
	if len(resp.Diagnostics) != 1 || resp.Diagnostics[0].Kind != diag.UnresolvedReference {
		t.Errorf("diagnostics = %+v", resp.Diagnostics)
	}
	if resp.Summary != "UNRESOLVED_REFERENCE=1" {
		t.Errorf("summary = %q", resp.Summary)
	}
}

func TestSwap(t *testing.T) {
	s := New(testSnapshot(), Options{})
	d := dataset.New()
	d.Bees["Forestry:Forest"] = dataset.Bee{Mod: "Forestry", Name: "Forest"}
	s.Swap(&Snapshot{Dataset: d, Hierarchy: hierarchy.FromDataset(d, hierarchy.Options{}, nil)})

	var bees map[string]dataset.Bee
	get(t, s, "/api/bees", &bees)
	if len(bees) != 1 {
		t.Errorf("after Swap len(bees) = %d, want 1", len(bees))
	}
	var resp struct {
		Summary string `json:"summary"`
	}
	get(t, s, "/api/diagnostics", &resp)
	if resp.Summary != "none" {
		t.Errorf("summary after Swap = %q, want none", resp.Summary)
	}
}

func TestMetricsRoute(t *testing.T) {
	if code := get(t, New(testSnapshot(), Options{}), "/metrics", nil); code != http.StatusNotFound {
		t.Errorf("/metrics without handler = %d, want 404", code)
	}

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if code := get(t, New(testSnapshot(), Options{Metrics: metrics}), "/metrics", nil); code != http.StatusOK {
		t.Errorf("/metrics = %d, want 200", code)
	}
}

type recordingHooks struct {
	routes []string
}

func (h *recordingHooks) OnRequest(_ context.Context, _, route string, _ int, _ time.Duration) {
	h.routes = append(h.routes, route)
}

func TestInstrumentUsesRoutePattern(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetServerHooks(hooks)
	t.Cleanup(observability.Reset)

	s := New(testSnapshot(), Options{})
	get(t, s, "/api/species/Forestry:Common/ancestors", nil)

	if len(hooks.routes) != 1 || hooks.routes[0] != "/api/species/{id}/ancestors" {
		t.Errorf("routes = %v, want [/api/species/{id}/ancestors]", hooks.routes)
	}
}
