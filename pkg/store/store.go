// Package store exports a built dataset and its hierarchy to a SQLite
// database for ad hoc querying.
//
// Export always writes a fresh file; it is a snapshot, not an incremental
// store. Tables:
//
//	bees(id, mod, name, binomial, branch, dominant, primary_color, secondary_color,
//	     temperature, humidity, has_effect, is_secret)
//	products(bee_id, item, comb_name, chance, specialty)
//	mutations(id, parent1, parent2)
//	mutation_children(mutation_id, species, probability, requirements, is_secret)
//	nodes(id, name, mod, generation, forced)
//	edges(from_id, to_id)
//
// requirements is the JSON encoding of the child's requirement set, or NULL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/beetree/pkg/dataset"
	"github.com/matzehuels/beetree/pkg/hierarchy"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

const schema = `
CREATE TABLE bees (
	id              TEXT PRIMARY KEY,
	mod             TEXT NOT NULL,
	name            TEXT NOT NULL,
	binomial        TEXT,
	branch          TEXT,
	dominant        INTEGER NOT NULL,
	primary_color   TEXT,
	secondary_color TEXT,
	temperature     TEXT,
	humidity        TEXT,
	has_effect      INTEGER NOT NULL,
	is_secret       INTEGER NOT NULL
);
CREATE TABLE products (
	bee_id    TEXT NOT NULL REFERENCES bees(id),
	item      TEXT NOT NULL,
	comb_name TEXT,
	chance    REAL NOT NULL,
	specialty INTEGER NOT NULL
);
CREATE TABLE mutations (
	id      INTEGER PRIMARY KEY,
	parent1 TEXT NOT NULL,
	parent2 TEXT NOT NULL,
	UNIQUE (parent1, parent2)
);
CREATE TABLE mutation_children (
	mutation_id  INTEGER NOT NULL REFERENCES mutations(id),
	species      TEXT NOT NULL,
	probability  REAL NOT NULL,
	requirements TEXT,
	is_secret    INTEGER NOT NULL
);
CREATE TABLE nodes (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	mod        TEXT NOT NULL,
	generation INTEGER NOT NULL,
	forced     INTEGER NOT NULL
);
CREATE TABLE edges (
	from_id TEXT NOT NULL REFERENCES nodes(id),
	to_id   TEXT NOT NULL REFERENCES nodes(id),
	PRIMARY KEY (from_id, to_id)
);
CREATE INDEX idx_children_species ON mutation_children(species);
CREATE INDEX idx_edges_to ON edges(to_id);
`

// Export writes d and h to a new SQLite database at path, replacing any
// existing file. h may be nil, in which case nodes and edges stay empty.
func Export(ctx context.Context, path string, d *dataset.Dataset, h *hierarchy.Hierarchy) (retErr error) {
	if path == "" {
		return fmt.Errorf("export: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dirs: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove old export: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil && retErr == nil {
			retErr = err
		}
	}()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if err := insertBees(ctx, tx, d); err != nil {
		return err
	}
	if err := insertMutations(ctx, tx, d.Mutations); err != nil {
		return err
	}
	if h != nil {
		if err := insertHierarchy(ctx, tx, h); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertBees(ctx context.Context, tx *sql.Tx, d *dataset.Dataset) error {
	bee, err := tx.PrepareContext(ctx, `INSERT INTO bees
		(id, mod, name, binomial, branch, dominant, primary_color, secondary_color, temperature, humidity, has_effect, is_secret)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare bees: %w", err)
	}
	defer bee.Close()
	product, err := tx.PrepareContext(ctx, `INSERT INTO products (bee_id, item, comb_name, chance, specialty) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare products: %w", err)
	}
	defer product.Close()

	for _, id := range d.BeeIDs() {
		b := d.Bees[id]
		if _, err := bee.ExecContext(ctx, id, b.Mod, b.Name, b.Binomial, b.Branch, b.Dominant,
			b.Colors.Primary, b.Colors.Secondary, b.Temperature, b.Humidity, b.HasEffect, b.IsSecret); err != nil {
			return fmt.Errorf("insert bee %s: %w", id, err)
		}
		for _, p := range b.Products {
			if _, err := product.ExecContext(ctx, id, p.Item, d.Combs[p.Item].Name, p.Chance, p.Specialty); err != nil {
				return fmt.Errorf("insert product %s of %s: %w", p.Item, id, err)
			}
		}
	}
	return nil
}

func insertMutations(ctx context.Context, tx *sql.Tx, groups []dataset.MutationGroup) error {
	child, err := tx.PrepareContext(ctx, `INSERT INTO mutation_children (mutation_id, species, probability, requirements, is_secret) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare children: %w", err)
	}
	defer child.Close()

	for i, g := range groups {
		id := i + 1
		if _, err := tx.ExecContext(ctx, `INSERT INTO mutations (id, parent1, parent2) VALUES (?, ?, ?)`,
			id, g.Parents[0], g.Parents[1]); err != nil {
			return fmt.Errorf("insert mutation %v: %w", g.Parents, err)
		}
		for _, c := range g.Children {
			var reqs sql.NullString
			if c.Requirements != nil {
				data, err := json.Marshal(c.Requirements)
				if err != nil {
					return err
				}
				reqs = sql.NullString{String: string(data), Valid: true}
			}
			if _, err := child.ExecContext(ctx, id, c.Species, c.Probability, reqs, c.IsSecret); err != nil {
				return fmt.Errorf("insert child %s of %v: %w", c.Species, g.Parents, err)
			}
		}
	}
	return nil
}

func insertHierarchy(ctx context.Context, tx *sql.Tx, h *hierarchy.Hierarchy) error {
	for _, n := range h.Nodes {
		if _, err := tx.ExecContext(ctx, `INSERT INTO nodes (id, name, mod, generation, forced) VALUES (?, ?, ?, ?, ?)`,
			n.ID, n.Name, n.Mod, n.Generation, n.Forced); err != nil {
			return fmt.Errorf("insert node %s: %w", n.ID, err)
		}
	}
	for _, e := range h.Edges {
		if _, err := tx.ExecContext(ctx, `INSERT INTO edges (from_id, to_id) VALUES (?, ?)`, e.From, e.To); err != nil {
			return fmt.Errorf("insert edge %s -> %s: %w", e.From, e.To, err)
		}
	}
	return nil
}
