package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/beetree/pkg/cache"
	"github.com/matzehuels/beetree/pkg/diag"
	"github.com/matzehuels/beetree/pkg/errors"
	"github.com/matzehuels/beetree/pkg/merge"
	"github.com/matzehuels/beetree/pkg/records"
)

const testdata = "../records/testdata"

func testInputs() []Input {
	return []Input{
		{Mod: records.Mod{Name: "Forestry", Namespace: "forestry"}, Path: filepath.Join(testdata, "forestry.jsonc")},
		{Mod: records.Mod{Name: "ExtraBees", Namespace: "extrabees"}, Path: filepath.Join(testdata, "extrabees.json")},
		{Mod: records.Mod{Name: "MagicBees", Namespace: "magicbees"}, Path: filepath.Join(testdata, "magicbees.yaml")},
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	forestry := records.Mod{Name: "Forestry", Namespace: "forestry"}
	tests := []struct {
		name     string
		opts     Options
		wantCode errors.Code
	}{
		{"valid", Options{Inputs: []Input{{Mod: forestry, Path: "f.json"}}}, ""},
		{"no inputs", Options{}, errors.ErrCodeInvalidInput},
		{"empty path", Options{Inputs: []Input{{Mod: forestry}}}, errors.ErrCodeInvalidPath},
		{"bad namespace", Options{Inputs: []Input{{Mod: records.Mod{Name: "Forestry", Namespace: "Forestry"}, Path: "f.json"}}}, errors.ErrCodeInvalidInput},
		{"duplicate mod", Options{Inputs: []Input{{Mod: forestry, Path: "a.json"}, {Mod: forestry, Path: "b.json"}}}, errors.ErrCodeInvalidInput},
		{"bad policy", Options{Inputs: []Input{{Mod: forestry, Path: "f.json"}}, Policy: "merge"}, errors.ErrCodeInvalidConfig},
		{"negative cap", Options{Inputs: []Input{{Mod: forestry, Path: "f.json"}}, Cap: -1}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("ValidateAndSetDefaults() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("ValidateAndSetDefaults() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestValidateAndSetDefaultsDefaults(t *testing.T) {
	opts := Options{Inputs: testInputs()}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Policy != merge.DefaultPolicy {
		t.Errorf("Policy = %q, want %q", opts.Policy, merge.DefaultPolicy)
	}
	if opts.Cap != 20 {
		t.Errorf("Cap = %d, want 20", opts.Cap)
	}
	if opts.MaxSuggestions != DefaultMaxSuggestions {
		t.Errorf("MaxSuggestions = %d", opts.MaxSuggestions)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	// Idempotent: a second call must not fail or change anything.
	opts.Cap = 5
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Cap != 5 {
		t.Errorf("second call changed Cap to %d", opts.Cap)
	}
}

func TestExecute(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{Inputs: testInputs()})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if res.RunID == "" {
		t.Error("RunID should be set")
	}
	if res.CacheHit {
		t.Error("CacheHit with a null cache")
	}

	d := res.Dataset
	if len(d.Bees) != 8 {
		t.Errorf("len(Bees) = %d, want 8", len(d.Bees))
	}
	if len(d.Mutations) != 5 {
		t.Errorf("len(Mutations) = %d, want 5", len(d.Mutations))
	}
	if res.Stats.Aggregate.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Stats.Aggregate.Skipped)
	}
	if res.Stats.Aggregate.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1 (swapped parents)", res.Stats.Aggregate.Duplicates)
	}

	unresolved := res.Report.Filter(diag.UnresolvedReference)
	if len(unresolved) != 1 || unresolved[0].Subject != "unknownmod.ghost" {
		t.Fatalf("unresolved diagnostics = %v", unresolved)
	}
	for _, g := range d.Mutations {
		for _, p := range g.Parents {
			if strings.Contains(p, "ghost") {
				t.Errorf("dropped record leaked into group %v", g.Parents)
			}
		}
	}

	gens := map[string]int{
		"Forestry:Forest":         0,
		"Forestry:Meadows":        0,
		"ExtraBees:Rocky":         0,
		"Forestry:Common":         1,
		"Forestry:Cultivated":     2,
		"ExtraBees:Ancient Stone": 2,
		"Forestry:Noble":          3,
		"MagicBees:Eldritch":      4,
	}
	for id, want := range gens {
		n, ok := res.Hierarchy.Node(id)
		if !ok {
			t.Errorf("node %q missing", id)
			continue
		}
		if n.Generation != want {
			t.Errorf("generation(%s) = %d, want %d", id, n.Generation, want)
		}
	}
	common, _ := res.Hierarchy.Node("Forestry:Common")
	if len(common.ParentCombinations) != 1 || common.ParentCombinations[0] != [2]string{"Forestry:Forest", "Forestry:Meadows"} {
		t.Errorf("ParentCombinations = %v", common.ParentCombinations)
	}
	if res.Stats.Generations != 4 {
		t.Errorf("Stats.Generations = %d, want 4", res.Stats.Generations)
	}
}

func TestExecuteStripsSymbols(t *testing.T) {
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{Inputs: testInputs()})
	if err != nil {
		t.Fatal(err)
	}
	files, err := res.Dataset.Files()
	if err != nil {
		t.Fatal(err)
	}
	for name, data := range files {
		if bytes.Contains(data, []byte(`"symbol"`)) {
			t.Errorf("%s contains resolver-assist symbols", name)
		}
	}
}

func TestExecuteDeterministic(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	var outputs []map[string][]byte
	for range 3 {
		res, err := r.Execute(context.Background(), Options{Inputs: testInputs()})
		if err != nil {
			t.Fatal(err)
		}
		files, err := res.Dataset.Files()
		if err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, files)
	}
	for name, want := range outputs[0] {
		for i, out := range outputs[1:] {
			if !bytes.Equal(out[name], want) {
				t.Errorf("run %d produced a different %s", i+2, name)
			}
		}
	}
}

func TestExecuteCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	ctx := context.Background()

	first, err := r.Execute(ctx, Options{Inputs: testInputs()})
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheHit {
		t.Fatal("first run should miss the cache")
	}

	second, err := r.Execute(ctx, Options{Inputs: testInputs()})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheHit {
		t.Fatal("second run should hit the cache")
	}
	if second.RunID == first.RunID {
		t.Error("each run needs its own id")
	}
	if second.Report.Len() != first.Report.Len() {
		t.Errorf("cached report has %d diagnostics, want %d", second.Report.Len(), first.Report.Len())
	}
	a, _ := first.Dataset.Marshal()
	b, _ := second.Dataset.Marshal()
	if !bytes.Equal(a, b) {
		t.Error("cached dataset differs from the built one")
	}
	if len(second.Hierarchy.Nodes) != len(first.Hierarchy.Nodes) {
		t.Errorf("cached hierarchy has %d nodes, want %d", len(second.Hierarchy.Nodes), len(first.Hierarchy.Nodes))
	}

	refreshed, err := r.Execute(ctx, Options{Inputs: testInputs(), Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheHit {
		t.Error("Refresh should bypass the cache")
	}

	// A different policy is a different result.
	other, err := r.Execute(ctx, Options{Inputs: testInputs(), Policy: merge.PolicyOverwrite})
	if err != nil {
		t.Fatal(err)
	}
	if other.CacheHit {
		t.Error("changing the policy should miss the cache")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const collidingCommon = `{
  "bees": {
    "forestry.speciesCommon": {
      "name": "Common", "binomial": "vulgaris",
      "colors": {"primary": "#b2b2b2", "secondary": "#ffdc16"}
    }
  },
  "mutations": []
}`

func TestExecuteCollision(t *testing.T) {
	dir := t.TempDir()
	inputs := append(testInputs()[:1], Input{
		Mod:  records.Mod{Name: "GregTech", Namespace: "gregtech"},
		Path: writeFile(t, dir, "gregtech.json", collidingCommon),
	})

	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{Inputs: inputs})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	collisions := res.Report.Filter(diag.IDCollision)
	if len(collisions) == 0 {
		t.Fatal("expected an ID_COLLISION diagnostic")
	}
	if collisions[0].Subject != "forestry.speciesCommon" {
		t.Errorf("Subject = %q", collisions[0].Subject)
	}
	if got := res.Dataset.Bees["Forestry:Common"].Binomial; got != "cerveris" {
		t.Errorf("keep-first kept binomial %q, want cerveris", got)
	}

	_, err = NewRunner(nil, nil, nil).Execute(context.Background(), Options{Inputs: inputs, Policy: merge.PolicyReject})
	if !errors.Is(err, errors.ErrCodeIDCollision) {
		t.Errorf("reject policy error = %v, want ID_COLLISION", err)
	}
}

func TestExecuteErrors(t *testing.T) {
	forestry := records.Mod{Name: "Forestry", Namespace: "forestry"}
	tests := []struct {
		name     string
		path     string
		wantCode errors.Code
	}{
		{"missing file", filepath.Join(t.TempDir(), "nope.json"), errors.ErrCodeFileNotFound},
		{"invalid record", filepath.Join(testdata, "invalid_mutation.json"), errors.ErrCodeInvalidRecord},
		{"unknown extension", filepath.Join(testdata, "forestry.txt"), errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{
				Inputs: []Input{{Mod: forestry, Path: tt.path}},
			})
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("Execute() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRunner(nil, nil, nil).Execute(ctx, Options{Inputs: testInputs()}); err == nil {
		t.Error("Execute() with a cancelled context should fail")
	}
}

func TestIndex(t *testing.T) {
	ix, merged, err := NewRunner(nil, nil, nil).Index(context.Background(), Options{Inputs: testInputs()})
	if err != nil {
		t.Fatalf("Index() error: %v", err)
	}
	tests := []struct {
		ref, scope string
		wantPublic string
	}{
		{"ExtraBees:Rocky", "", "ExtraBees:Rocky"},
		{"COMMON", "Forestry", "Forestry:Common"},
		{"Forestry:Common", "MagicBees", "Forestry:Common"},
		{"MagicBees:Eldritch", "", "MagicBees:Eldritch"},
	}
	for _, tt := range tests {
		res, ok := ix.Resolve(tt.ref, tt.scope)
		if !ok {
			t.Errorf("Resolve(%q) did not match", tt.ref)
			continue
		}
		if got := merged.PublicID(res.ID); got != tt.wantPublic {
			t.Errorf("Resolve(%q) = %s, want %s", tt.ref, got, tt.wantPublic)
		}
	}
	if _, ok := ix.Resolve("unknownmod.ghost", ""); ok {
		t.Error("unknownmod.ghost should not resolve")
	}
}
