package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// File names inside a dataset directory.
const (
	BeesFile      = "bees.jsonc"
	MutationsFile = "mutations.jsonc"
	CombsFile     = "combs.jsonc"
	BranchesFile  = "branches.jsonc"
)

// header is prepended to every generated file.
const header = "// Code generated by beetree. DO NOT EDIT.\n"

// Files renders the dataset into its file contents keyed by file name.
// The dataset is sorted first.
func (d *Dataset) Files() (map[string][]byte, error) {
	d.Sort()
	mutations := d.Mutations
	if mutations == nil {
		mutations = []MutationGroup{}
	}
	parts := []struct {
		name string
		v    any
	}{
		{BeesFile, nonNil(d.Bees)},
		{MutationsFile, mutations},
		{CombsFile, nonNil(d.Combs)},
		{BranchesFile, nonNil(d.Branches)},
	}
	out := make(map[string][]byte, len(parts))
	for _, p := range parts {
		data, err := encode(p.v, true)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", p.name, err)
		}
		out[p.name] = data
	}
	return out, nil
}

// Write writes all dataset files into dir, creating it if needed.
func (d *Dataset) Write(dir string) error {
	files, err := d.Files()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for _, name := range []string{BeesFile, MutationsFile, CombsFile, BranchesFile} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, files[name], 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

// Read loads a dataset directory written by Write. The branches file is
// optional.
func Read(dir string) (*Dataset, error) {
	d := New()
	targets := []struct {
		name     string
		v        any
		optional bool
	}{
		{BeesFile, &d.Bees, false},
		{MutationsFile, &d.Mutations, false},
		{CombsFile, &d.Combs, false},
		{BranchesFile, &d.Branches, true},
	}
	for _, t := range targets {
		path := filepath.Join(dir, t.name)
		data, err := os.ReadFile(path)
		if err != nil {
			if t.optional && os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if err := decode(data, t.v); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if d.Bees == nil {
		d.Bees = make(map[string]Bee)
	}
	if d.Combs == nil {
		d.Combs = make(map[string]Comb)
	}
	if d.Branches == nil {
		d.Branches = make(map[string]Branch)
	}
	return d, nil
}

// Marshal encodes the whole dataset as a single plain JSON document, as
// used by the result cache.
func (d *Dataset) Marshal() ([]byte, error) {
	d.Sort()
	return encode(d, false)
}

// Unmarshal decodes a document produced by Marshal.
func Unmarshal(data []byte) (*Dataset, error) {
	d := New()
	if err := decode(data, d); err != nil {
		return nil, err
	}
	return d, nil
}

func encode(v any, withHeader bool) ([]byte, error) {
	var buf bytes.Buffer
	if withHeader {
		buf.WriteString(header)
	}
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, v any) error {
	std, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if err := json.Unmarshal(std, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func nonNil[M ~map[string]V, V any](m M) M {
	if m == nil {
		return M{}
	}
	return m
}
