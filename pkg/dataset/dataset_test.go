package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sample() *Dataset {
	d := New()
	d.Bees["Forestry:Forest"] = Bee{Mod: "Forestry", Name: "Forest", Branch: "honey", Dominant: true,
		Colors:   Colors{Primary: "#19d0ec", Secondary: "#ffdc16"},
		Products: []Product{{Item: "forestry:beeCombs.honey", Chance: 0.3}}}
	d.Bees["Forestry:Meadows"] = Bee{Mod: "Forestry", Name: "Meadows", Branch: "honey", Dominant: true}
	d.Bees["Forestry:Common"] = Bee{Mod: "Forestry", Name: "Common", Branch: "honey"}
	d.Bees["Forestry:Cultivated"] = Bee{Mod: "Forestry", Name: "Cultivated", Branch: "honey"}
	warm := []string{"WARM"}
	d.Mutations = []MutationGroup{
		{Parents: [2]string{"Forestry:Common", "Forestry:Forest"}, Children: []Child{
			{Species: "Forestry:Cultivated", Probability: 0.12},
		}},
		{Parents: [2]string{"Forestry:Forest", "Forestry:Meadows"}, Children: []Child{
			{Species: "Forestry:Cultivated", Probability: 0.05, Requirements: &Requirements{Temperature: warm}},
			{Species: "Forestry:Common", Probability: 0.15},
			{Species: "Forestry:Cultivated", Probability: 0.02},
		}},
	}
	d.Combs["forestry:beeCombs.honey"] = Comb{Name: "Honey Comb", Producers: []Producer{
		{Bee: "Forestry:Meadows", Chance: 0.3},
		{Bee: "Forestry:Forest", Chance: 0.3},
	}}
	d.Branches["honey"] = Branch{Name: "Honey", Scientific: "Apis"}
	return d
}

func TestSortGroups(t *testing.T) {
	d := sample()
	d.Sort()

	if d.Mutations[0].Parents[0] != "Forestry:Common" {
		t.Errorf("first group = %v, want Forestry:Common pair first", d.Mutations[0].Parents)
	}
	children := d.Mutations[1].Children
	got := []string{children[0].Species, children[1].Species, children[2].Species}
	want := []string{"Forestry:Common", "Forestry:Cultivated", "Forestry:Cultivated"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("children order = %v, want %v", got, want)
		}
	}
	// stable: the conditioned entry stays ahead of the unconditioned duplicate
	if children[1].Requirements == nil {
		t.Error("sort should be stable for equal species")
	}
	if d.Combs["forestry:beeCombs.honey"].Producers[0].Bee != "Forestry:Forest" {
		t.Error("producers should be sorted by bee id")
	}
}

func TestWriteDeterministic(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	if err := sample().Write(dirA); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if err := sample().Write(dirB); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	for _, name := range []string{BeesFile, MutationsFile, CombsFile, BranchesFile} {
		a, err := os.ReadFile(filepath.Join(dirA, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		b, _ := os.ReadFile(filepath.Join(dirB, name))
		if !bytes.Equal(a, b) {
			t.Errorf("%s differs between runs", name)
		}
		if !strings.HasPrefix(string(a), "// Code generated by beetree") {
			t.Errorf("%s missing generated header", name)
		}
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	orig := sample()
	if err := orig.Write(dir); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	got, err := Read(dir)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(got.Bees) != 4 {
		t.Errorf("len(Bees) = %d, want 4", len(got.Bees))
	}
	if len(got.Mutations) != 2 {
		t.Fatalf("len(Mutations) = %d, want 2", len(got.Mutations))
	}
	req := got.Mutations[1].Children[1].Requirements
	if req == nil || len(req.Temperature) != 1 || req.Temperature[0] != "WARM" {
		t.Errorf("Requirements = %+v, want temperature [WARM]", req)
	}
	if got.Mutations[0].Children[0].Requirements != nil {
		t.Error("absent requirements should stay nil")
	}
	if got.Branches["honey"].Scientific != "Apis" {
		t.Errorf("Branches = %+v", got.Branches)
	}
}

func TestWriteOmitsAbsentFields(t *testing.T) {
	files, err := sample().Files()
	if err != nil {
		t.Fatalf("Files() error: %v", err)
	}
	m := string(files[MutationsFile])
	if strings.Contains(m, "null") {
		t.Errorf("mutations file should not contain null:\n%s", m)
	}
	if strings.Count(m, "requirements") != 1 {
		t.Errorf("only one child carries requirements:\n%s", m)
	}
}

func TestReadToleratesComments(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write(BeesFile, `{
  // hand-annotated
  "Forestry:Forest": {"mod": "Forestry", "name": "Forest", "colors": {"primary": "", "secondary": ""},},
}`)
	write(MutationsFile, `[]`)
	write(CombsFile, `{}`)

	d, err := Read(dir)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if d.Bees["Forestry:Forest"].Name != "Forest" {
		t.Errorf("Bees = %+v", d.Bees)
	}
	if d.Branches == nil {
		t.Error("missing branches file should yield an empty map")
	}
}

func TestReadMissing(t *testing.T) {
	if _, err := Read(t.TempDir()); err == nil {
		t.Error("Read() of an empty dir should fail")
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	data, err := sample().Marshal()
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if bytes.HasPrefix(data, []byte("//")) {
		t.Error("Marshal() output must be plain JSON")
	}
	d, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if len(d.Mutations) != 2 || len(d.Bees) != 4 {
		t.Errorf("Unmarshal() = %d groups, %d bees", len(d.Mutations), len(d.Bees))
	}
}

func TestParentIndex(t *testing.T) {
	d := sample()
	idx := ParentIndex(d.Mutations)

	cultivated := idx["Forestry:Cultivated"]
	if len(cultivated) != 2 {
		t.Fatalf("combinations for Cultivated = %v, want 2 distinct pairs", cultivated)
	}
	if cultivated[0] != [2]string{"Forestry:Common", "Forestry:Forest"} {
		t.Errorf("first pair = %v, want sorted order", cultivated[0])
	}
	if _, ok := idx["Forestry:Forest"]; ok {
		t.Error("Forest has no parents and must not appear in the index")
	}
}

func TestProducedByUsedIn(t *testing.T) {
	d := sample()
	if got := len(d.ProducedBy("Forestry:Cultivated")); got != 2 {
		t.Errorf("ProducedBy() = %d groups, want 2", got)
	}
	if got := len(d.UsedIn("Forestry:Forest")); got != 2 {
		t.Errorf("UsedIn() = %d groups, want 2", got)
	}
	if got := len(d.UsedIn("Forestry:Cultivated")); got != 0 {
		t.Errorf("UsedIn() = %d groups, want 0", got)
	}
}

func TestPublicID(t *testing.T) {
	id := PublicID("MagicBees", "Time Warp")
	if id != "MagicBees:Time Warp" {
		t.Errorf("PublicID() = %q", id)
	}
}
