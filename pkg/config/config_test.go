package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/beetree/pkg/errors"
	"github.com/matzehuels/beetree/pkg/merge"
)

func TestDefault(t *testing.T) {
	c := Default()

	if len(c.Mods) != 5 {
		t.Fatalf("len(Mods) = %d, want 5", len(c.Mods))
	}
	if c.Mods[0].Name != "Forestry" || c.Mods[4].Name != "GregTech" {
		t.Errorf("Mods order = %v", c.Mods)
	}
	if c.RelaxationCap != 20 {
		t.Errorf("RelaxationCap = %d, want 20", c.RelaxationCap)
	}
	if c.Policy() != merge.PolicyKeepFirst {
		t.Errorf("Policy() = %q, want keep-first", c.Policy())
	}
	if c.Cache.TTL.Duration != 24*time.Hour {
		t.Errorf("TTL = %v, want 24h", c.Cache.TTL)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestParse(t *testing.T) {
	c, err := Parse(`
output_dir = "out"
collision_policy = "overwrite"
relaxation_cap = 5

[[mods]]
name = "Forestry"
path = "recs/forestry.jsonc"

[[mods]]
name = "MagicBees"
namespace = "magicbees"

[cache]
backend = "redis"
ttl = "90m"

[server]
addr = "127.0.0.1:9000"
`)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if c.Policy() != merge.PolicyOverwrite {
		t.Errorf("Policy() = %q", c.Policy())
	}
	if len(c.Mods) != 2 {
		t.Fatalf("len(Mods) = %d, want 2", len(c.Mods))
	}
	if c.Mods[0].Namespace != "forestry" {
		t.Errorf("Namespace = %q, want derived forestry", c.Mods[0].Namespace)
	}
	if c.Mods[1].Path != filepath.Join("extracted", "magicbees.json") {
		t.Errorf("Path = %q, want default", c.Mods[1].Path)
	}
	if c.Cache.TTL.Duration != 90*time.Minute {
		t.Errorf("TTL = %v, want 90m", c.Cache.TTL)
	}
	if c.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q", c.Cache.RedisAddr)
	}
	if c.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %q", c.Server.Addr)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"syntax", `output_dir = `},
		{"unknown key", `outptu_dir = "x"`},
		{"bad policy", `collision_policy = "last-wins"`},
		{"bad cap", `relaxation_cap = -1`},
		{"bad backend", "[cache]\nbackend = \"memcached\""},
		{"bad ttl", "[cache]\nttl = \"soon\""},
		{"bad mod name", "[[mods]]\nname = \"extra bees\""},
		{"dup namespace", "[[mods]]\nname = \"A\"\nnamespace = \"x\"\n[[mods]]\nname = \"B\"\nnamespace = \"x\""},
		{"dup mod", "[[mods]]\nname = \"A\"\nnamespace = \"a\"\n[[mods]]\nname = \"A\"\nnamespace = \"b\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if err == nil {
				t.Fatal("Parse() succeeded, want error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Parse() error code = %s, want INVALID_CONFIG", errors.GetCode(err))
			}
		})
	}
}

func TestLoadResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	text := "output_dir = \"data\"\n[[mods]]\nname = \"Forestry\"\npath = \"forestry.json\"\n"
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.OutputDir != filepath.Join(dir, "data") {
		t.Errorf("OutputDir = %q", c.OutputDir)
	}
	if c.Mods[0].Path != filepath.Join(dir, "forestry.json") {
		t.Errorf("Path = %q", c.Mods[0].Path)
	}
	if c.Path != path {
		t.Errorf("Path = %q, want %q", c.Path, path)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestNamespaces(t *testing.T) {
	c, err := Parse("[[mods]]\nname = \"Apiculture\"\nnamespace = \"apiary\"")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	ns := c.Namespaces()
	if ns["apiculture"] != "apiary" {
		t.Errorf("Namespaces()[apiculture] = %q, want apiary", ns["apiculture"])
	}
	if ns["gt"] != "gregtech" {
		t.Error("built-in tokens should be kept")
	}
	if mods := c.RecordMods(); len(mods) != 1 || mods[0].Namespace != "apiary" {
		t.Errorf("RecordMods() = %v", mods)
	}
}
