// Package pipeline runs the beetree build: extractor records in, merged
// dataset and breeding hierarchy out.
//
// This package centralizes the stage order so the CLI and the HTTP server
// produce identical results from identical inputs.
//
// # Stages
//
//  1. Load: decode and validate every configured mod's record file
//  2. Merge: union the species of all mods under the collision policy
//  3. Aggregate: resolve mutation references and group them by parent pair
//  4. Assemble: build the public bees, mutations and combs maps
//  5. Hierarchy: assign generations and link parents to offspring
//
// Stages 1-4 are cached as a unit, keyed by the content of every input file
// and the options that affect the result. The hierarchy is always rebuilt
// from the (possibly cached) dataset.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.FromConfig(cfg))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Report.Summary())
//
// Data-quality problems never fail a run; they are collected in
// Result.Report. Only structurally invalid records, unreadable files and
// the reject collision policy return an error.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/beetree/pkg/config"
	"github.com/matzehuels/beetree/pkg/dataset"
	"github.com/matzehuels/beetree/pkg/diag"
	"github.com/matzehuels/beetree/pkg/errors"
	"github.com/matzehuels/beetree/pkg/hierarchy"
	"github.com/matzehuels/beetree/pkg/merge"
	"github.com/matzehuels/beetree/pkg/mutation"
	"github.com/matzehuels/beetree/pkg/records"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultMaxSuggestions bounds the near misses attached to an
	// unresolved reference.
	DefaultMaxSuggestions = 3

	// DefaultCacheTTL is how long a cached result stays valid.
	DefaultCacheTTL = 24 * time.Hour

	// SchemaVersion is part of every cache key. Bump it when the cached
	// entry layout or any stage's semantics change.
	SchemaVersion = 1
)

// Stage names reported to observability hooks.
const (
	StageLoad      = "load"
	StageMerge     = "merge"
	StageAggregate = "aggregate"
	StageAssemble  = "assemble"
	StageHierarchy = "hierarchy"
)

// =============================================================================
// Types
// =============================================================================

// Input is one mod's record file.
type Input struct {
	Mod  records.Mod `json:"mod"`
	Path string      `json:"path"`
}

// Options configures a pipeline run.
type Options struct {
	// Inputs are merged in order; earlier mods win collisions under the
	// keep-first policy.
	Inputs []Input `json:"inputs"`

	Policy         merge.Policy      `json:"policy,omitempty"`
	Cap            int               `json:"cap,omitempty"`
	Namespaces     map[string]string `json:"namespaces,omitempty"`
	MaxSuggestions int               `json:"max_suggestions,omitempty"`

	// Refresh skips the cache lookup but still stores the new result.
	Refresh  bool          `json:"refresh,omitempty"`
	CacheTTL time.Duration `json:"-"`

	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// FromConfig builds run options from a loaded configuration.
func FromConfig(cfg *config.Config) Options {
	opts := Options{
		Policy:     cfg.Policy(),
		Cap:        cfg.RelaxationCap,
		Namespaces: cfg.Namespaces(),
		CacheTTL:   cfg.Cache.TTL.Duration,
	}
	for _, m := range cfg.Mods {
		opts.Inputs = append(opts.Inputs, Input{
			Mod:  records.Mod{Name: m.Name, Namespace: m.Namespace},
			Path: m.Path,
		})
	}
	return opts
}

// Run is the per-execution context handed through every stage. It is
// created by Execute and discarded when the run returns.
type Run struct {
	ID      string
	Options Options
	Logger  *log.Logger
	Report  *diag.Report
	Started time.Time
}

func newRun(opts Options) *Run {
	return &Run{
		ID:      uuid.NewString(),
		Options: opts,
		Logger:  opts.Logger,
		Report:  &diag.Report{},
		Started: time.Now(),
	}
}

// Result contains the outputs of a pipeline run. It is only returned once
// every stage has finished, so consumers never see a partial hierarchy.
type Result struct {
	RunID     string
	Dataset   *dataset.Dataset
	Hierarchy *hierarchy.Hierarchy
	Report    *diag.Report
	Stats     Stats

	// CacheHit is set when stages load through assemble came from the cache.
	CacheHit bool
}

// Stats contains counts and timings of a run.
type Stats struct {
	Mods        int
	Species     int
	Combs       int
	Aggregate   mutation.Stats
	Generations int // highest generation in the hierarchy
	Passes      int // relaxation passes that assigned something

	LoadTime      time.Duration
	MergeTime     time.Duration
	AggregateTime time.Duration
	HierarchyTime time.Duration
	Total         time.Duration
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Inputs) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "at least one mod input is required")
	}
	seen := make(map[string]bool, len(o.Inputs))
	for i, in := range o.Inputs {
		if err := errors.ValidateModName(in.Mod.Name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "inputs[%d]", i)
		}
		if err := errors.ValidateNamespace(in.Mod.Namespace); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "inputs[%d]", i)
		}
		if in.Path == "" {
			return errors.New(errors.ErrCodeInvalidPath, "inputs[%d]: path is required", i)
		}
		if seen[in.Mod.Name] {
			return errors.New(errors.ErrCodeInvalidInput, "duplicate mod %q", in.Mod.Name)
		}
		seen[in.Mod.Name] = true
	}

	policy, err := merge.ParsePolicy(string(o.Policy))
	if err != nil {
		return err
	}
	o.Policy = policy

	if o.Cap < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "relaxation cap must not be negative, got %d", o.Cap)
	}
	if o.Cap == 0 {
		o.Cap = hierarchy.DefaultCap
	}
	if o.MaxSuggestions == 0 {
		o.MaxSuggestions = DefaultMaxSuggestions
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// ModNames returns the input mod names in merge order.
func (o *Options) ModNames() []string {
	out := make([]string, len(o.Inputs))
	for i, in := range o.Inputs {
		out[i] = in.Mod.Name
	}
	return out
}
