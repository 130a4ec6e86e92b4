package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/beetree/pkg/errors"
)

// Format is the encoding of an extractor document.
type Format string

// Supported document formats.
const (
	FormatJSON  Format = "json"
	FormatJSONC Format = "jsonc"
	FormatYAML  Format = "yaml"
)

// FormatFromPath infers the document format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".jsonc":
		return FormatJSONC, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported record file extension: %q", filepath.Ext(path))
	}
}

// Load reads, decodes and validates the extractor document at path.
// The mod identity comes from the caller (the run configuration), not from
// the document.
func Load(path string, mod Mod) (*ModRecords, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "records for %s", mod.Name)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	recs, err := Read(f, format, mod)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	recs.Source = path
	return recs, nil
}

// Read decodes and validates an extractor document from r.
func Read(r io.Reader, format Format, mod Mod) (*ModRecords, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	recs, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	recs.Mod = mod
	recs.normalize()
	if err := recs.Validate(); err != nil {
		return nil, err
	}
	return recs, nil
}

// Decode parses a document without validating it.
// JSON input is standardized first, so comments and trailing commas are
// accepted regardless of whether the format is json or jsonc.
func Decode(data []byte, format Format) (*ModRecords, error) {
	var recs ModRecords
	switch format {
	case FormatJSON, FormatJSONC:
		std, err := hujson.Standardize(data)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", format)
		}
		dec := json.NewDecoder(bytes.NewReader(std))
		if err := dec.Decode(&recs); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s", format)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &recs); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", format)
	}
	return &recs, nil
}

// normalize fills derived fields: species ids mirror their map keys and
// species without an explicit mod inherit the record set's mod.
func (r *ModRecords) normalize() {
	if r.Species == nil {
		r.Species = make(map[string]Species)
	}
	if r.Branches == nil {
		r.Branches = make(map[string]Branch)
	}
	for id, sp := range r.Species {
		sp.ID = id
		if sp.Mod == "" {
			sp.Mod = r.Mod.Name
		}
		r.Species[id] = sp
	}
}
