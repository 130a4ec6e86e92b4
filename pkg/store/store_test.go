package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/matzehuels/beetree/pkg/dataset"
	"github.com/matzehuels/beetree/pkg/hierarchy"
)

func testDataset() *dataset.Dataset {
	warm := []string{"WARM"}
	d := dataset.New()
	d.Bees["Forestry:Forest"] = dataset.Bee{Mod: "Forestry", Name: "Forest", Dominant: true,
		Products: []dataset.Product{{Item: "forestry:beeCombs.honey", Chance: 0.3}}}
	d.Bees["Forestry:Meadows"] = dataset.Bee{Mod: "Forestry", Name: "Meadows",
		Products: []dataset.Product{{Item: "forestry:beeCombs.honey", Chance: 0.3}}}
	d.Bees["Forestry:Common"] = dataset.Bee{Mod: "Forestry", Name: "Common"}
	d.Combs["forestry:beeCombs.honey"] = dataset.Comb{Name: "Honey Comb", Producers: []dataset.Producer{
		{Bee: "Forestry:Forest", Chance: 0.3}, {Bee: "Forestry:Meadows", Chance: 0.3},
	}}
	d.Mutations = []dataset.MutationGroup{{
		Parents: [2]string{"Forestry:Forest", "Forestry:Meadows"},
		Children: []dataset.Child{
			{Species: "Forestry:Common", Probability: 0.15},
			{Species: "Forestry:Common", Probability: 0.05, Requirements: &dataset.Requirements{Temperature: warm}, IsSecret: true},
		},
	}}
	return d
}

func count(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("%s: %v", query, err)
	}
	return n
}

func TestExport(t *testing.T) {
	d := testDataset()
	h := hierarchy.FromDataset(d, hierarchy.Options{}, nil)
	path := filepath.Join(t.TempDir(), "out", "bees.db")

	if err := Export(context.Background(), path, d, h); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	tests := []struct {
		query string
		want  int
	}{
		{"SELECT COUNT(*) FROM bees", 3},
		{"SELECT COUNT(*) FROM products", 2},
		{"SELECT COUNT(*) FROM mutations", 1},
		{"SELECT COUNT(*) FROM mutation_children", 2},
		{"SELECT COUNT(*) FROM mutation_children WHERE requirements IS NULL", 1},
		{"SELECT COUNT(*) FROM mutation_children WHERE is_secret = 1", 1},
		{"SELECT COUNT(*) FROM nodes", 3},
		{"SELECT COUNT(*) FROM edges", 2},
		{"SELECT COUNT(*) FROM bees WHERE dominant = 1", 1},
	}
	for _, tt := range tests {
		if got := count(t, db, tt.query); got != tt.want {
			t.Errorf("%s = %d, want %d", tt.query, got, tt.want)
		}
	}

	var gen int
	if err := db.QueryRow("SELECT generation FROM nodes WHERE id = ?", "Forestry:Common").Scan(&gen); err != nil {
		t.Fatal(err)
	}
	if gen != 1 {
		t.Errorf("generation(Forestry:Common) = %d, want 1", gen)
	}

	var comb string
	if err := db.QueryRow("SELECT comb_name FROM products WHERE bee_id = ?", "Forestry:Forest").Scan(&comb); err != nil {
		t.Fatal(err)
	}
	if comb != "Honey Comb" {
		t.Errorf("comb_name = %q, want Honey Comb", comb)
	}
}

func TestExportReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bees.db")
	ctx := context.Background()
	for range 2 {
		if err := Export(ctx, path, testDataset(), nil); err != nil {
			t.Fatalf("Export() error: %v", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if got := count(t, db, "SELECT COUNT(*) FROM bees"); got != 3 {
		t.Errorf("bees after second export = %d, want 3", got)
	}
	if got := count(t, db, "SELECT COUNT(*) FROM nodes"); got != 0 {
		t.Errorf("nodes without hierarchy = %d, want 0", got)
	}
}

func TestExportOpenError(t *testing.T) {
	orig := openDB
	t.Cleanup(func() { openDB = orig })
	boom := errors.New("boom")
	openDB = func(driver, dsn string) (*sql.DB, error) { return nil, boom }

	err := Export(context.Background(), filepath.Join(t.TempDir(), "bees.db"), testDataset(), nil)
	if !errors.Is(err, boom) {
		t.Errorf("Export() error = %v, want %v", err, boom)
	}
}

func TestExportEmptyPath(t *testing.T) {
	if err := Export(context.Background(), "", testDataset(), nil); err == nil {
		t.Error("Export(\"\") should fail")
	}
}
