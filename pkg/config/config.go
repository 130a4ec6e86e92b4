// Package config loads beetree.toml, the project file that names the mods to
// merge, where their extracted records live, and how a run behaves.
package config

import (
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/beetree/pkg/errors"
	"github.com/matzehuels/beetree/pkg/merge"
	"github.com/matzehuels/beetree/pkg/records"
	"github.com/matzehuels/beetree/pkg/resolve"
)

// FileName is the project file looked up in the working directory.
const FileName = "beetree.toml"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

const (
	defaultOutputDir = "data"
	defaultCap       = 20
	defaultRedisAddr = "localhost:6379"
	defaultTTL       = 24 * time.Hour
	defaultAddr      = ":8080"
)

// Config is the decoded project file.
type Config struct {
	OutputDir       string `toml:"output_dir"`
	CollisionPolicy string `toml:"collision_policy"`
	RelaxationCap   int    `toml:"relaxation_cap"`

	// Mods lists the record sources in merge order.
	Mods []Mod `toml:"mods"`

	Cache  Cache  `toml:"cache"`
	Server Server `toml:"server"`

	// Path is the file the config was loaded from; empty for Default.
	Path string `toml:"-"`
}

// Mod is one record source.
type Mod struct {
	Name      string `toml:"name"`
	Namespace string `toml:"namespace"`
	Path      string `toml:"path"`
}

// Cache configures the result cache.
type Cache struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	TTL       Duration `toml:"ttl"`
}

// Server configures `beetree serve`.
type Server struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a string ("24h") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultMods are the five supported mods, in merge order.
var DefaultMods = []Mod{
	{Name: "Forestry", Namespace: "forestry"},
	{Name: "ExtraBees", Namespace: "extrabees"},
	{Name: "CareerBees", Namespace: "careerbees"},
	{Name: "MagicBees", Namespace: "magicbees"},
	{Name: "GregTech", Namespace: "gregtech"},
}

// Default returns the configuration used when no project file exists.
// Records are expected under extracted/<namespace>.json.
func Default() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = defaultOutputDir
	}
	if c.CollisionPolicy == "" {
		c.CollisionPolicy = string(merge.DefaultPolicy)
	}
	if c.RelaxationCap == 0 {
		c.RelaxationCap = defaultCap
	}
	if len(c.Mods) == 0 {
		c.Mods = append([]Mod(nil), DefaultMods...)
	}
	for i := range c.Mods {
		m := &c.Mods[i]
		if m.Namespace == "" {
			m.Namespace = strings.ToLower(m.Name)
		}
		if m.Path == "" {
			m.Path = filepath.Join("extracted", m.Namespace+".json")
		}
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheFile
	}
	if c.Cache.RedisAddr == "" {
		c.Cache.RedisAddr = defaultRedisAddr
	}
	if c.Cache.TTL.Duration == 0 {
		c.Cache.TTL.Duration = defaultTTL
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
}

// Load reads and validates a project file. Relative paths inside it are
// resolved against the file's directory. Unknown keys are rejected so typos
// do not silently fall back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	c, err := Parse(string(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	c.Path = path
	c.resolvePaths(filepath.Dir(path))
	return c, nil
}

// LoadOrDefault loads path, or FileName from the working directory when
// path is empty. A missing default file yields Default().
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	c, err := Load(FileName)
	if errors.Is(err, errors.ErrCodeFileNotFound) {
		return Default(), nil
	}
	return c, err
}

// Parse decodes TOML text, applies defaults and validates the result.
func Parse(text string) (*Config, error) {
	var c Config
	md, err := toml.Decode(text, &c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode toml")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	c.setDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) resolvePaths(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.OutputDir = abs(c.OutputDir)
	c.Cache.Dir = abs(c.Cache.Dir)
	for i := range c.Mods {
		c.Mods[i].Path = abs(c.Mods[i].Path)
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if _, err := merge.ParsePolicy(c.CollisionPolicy); err != nil {
		return err
	}
	if c.RelaxationCap < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "relaxation_cap must be at least 1, got %d", c.RelaxationCap)
	}
	if len(c.Mods) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "no mods configured")
	}
	names := make(map[string]bool)
	namespaces := make(map[string]bool)
	for i, m := range c.Mods {
		if err := errors.ValidateModName(m.Name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "mods[%d]", i)
		}
		if err := errors.ValidateNamespace(m.Namespace); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "mods[%d]", i)
		}
		if names[m.Name] {
			return errors.New(errors.ErrCodeInvalidConfig, "duplicate mod %q", m.Name)
		}
		if namespaces[m.Namespace] {
			return errors.New(errors.ErrCodeInvalidConfig, "duplicate namespace %q", m.Namespace)
		}
		names[m.Name] = true
		namespaces[m.Namespace] = true
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	return nil
}

// Policy returns the parsed collision policy.
func (c *Config) Policy() merge.Policy {
	p, _ := merge.ParsePolicy(c.CollisionPolicy)
	return p
}

// Namespaces returns the mod token → namespace table for the resolver:
// the built-in table extended by every configured mod.
func (c *Config) Namespaces() map[string]string {
	out := maps.Clone(resolve.DefaultNamespaces)
	for _, m := range c.Mods {
		out[strings.ToLower(m.Name)] = m.Namespace
	}
	return out
}

// RecordMods returns the configured mods as record-set identities.
func (c *Config) RecordMods() []records.Mod {
	out := make([]records.Mod, len(c.Mods))
	for i, m := range c.Mods {
		out[i] = records.Mod{Name: m.Name, Namespace: m.Namespace}
	}
	return out
}
