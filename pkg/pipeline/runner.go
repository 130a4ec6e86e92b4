package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/beetree/pkg/cache"
	"github.com/matzehuels/beetree/pkg/dataset"
	"github.com/matzehuels/beetree/pkg/diag"
	"github.com/matzehuels/beetree/pkg/errors"
	"github.com/matzehuels/beetree/pkg/hierarchy"
	"github.com/matzehuels/beetree/pkg/merge"
	"github.com/matzehuels/beetree/pkg/mutation"
	"github.com/matzehuels/beetree/pkg/observability"
	"github.com/matzehuels/beetree/pkg/records"
	"github.com/matzehuels/beetree/pkg/resolve"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// cacheKeyType labels cache hook events.
const cacheKeyType = "dataset"

// cachedResult is what the result cache stores: the assembled dataset and
// everything recorded before the hierarchy stage.
type cachedResult struct {
	Dataset     json.RawMessage   `json:"dataset"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
	Aggregate   mutation.Stats    `json:"aggregate"`
}

// input is a mod record file read into memory.
type input struct {
	Input
	format records.Format
	data   []byte
}

// Execute runs load → merge → aggregate → assemble → hierarchy.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	run := newRun(opts)
	run.Logger = run.Logger.With("run", run.ID[:8])

	result := &Result{RunID: run.ID, Report: run.Report}
	result.Stats.Mods = len(opts.Inputs)

	inputs, err := readInputs(opts.Inputs)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	key := r.cacheKey(opts, inputs)

	if !opts.Refresh {
		if cached, ok := r.lookup(ctx, key); ok {
			if err := r.restore(run, result, cached); err == nil {
				result.CacheHit = true
				run.Logger.Info("loaded dataset from cache",
					"species", len(result.Dataset.Bees),
					"groups", len(result.Dataset.Mutations))
			}
		}
	}

	if !result.CacheHit {
		if err := r.build(ctx, run, inputs, result); err != nil {
			return nil, err
		}
		r.store(ctx, key, result, opts.CacheTTL)
	}

	err = stage(ctx, StageHierarchy, &result.Stats.HierarchyTime, func() error {
		result.Hierarchy = hierarchy.FromDataset(result.Dataset, hierarchy.Options{Cap: opts.Cap}, run.Report)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("hierarchy: %w", err)
	}
	result.Stats.Generations = result.Hierarchy.MaxGeneration()
	result.Stats.Passes = result.Hierarchy.Passes
	run.Logger.Info("built hierarchy",
		"nodes", len(result.Hierarchy.Nodes),
		"edges", len(result.Hierarchy.Edges),
		"generations", result.Stats.Generations+1,
		"passes", result.Stats.Passes,
		"duration", result.Stats.HierarchyTime)

	counts := make(map[string]int)
	for kind, n := range run.Report.Counts() {
		counts[string(kind)] = n
	}
	observability.Pipeline().OnDiagnostics(ctx, counts)
	if !run.Report.Empty() {
		run.Logger.Warn("recorded diagnostics", "summary", run.Report.Summary())
	}

	result.Stats.Total = time.Since(run.Started)
	return result, nil
}

// build runs the cacheable stages into result.
func (r *Runner) build(ctx context.Context, run *Run, inputs []input, result *Result) error {
	opts := run.Options

	var mods []*records.ModRecords
	err := stage(ctx, StageLoad, &result.Stats.LoadTime, func() error {
		var err error
		mods, err = decodeInputs(inputs)
		return err
	})
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	raw := 0
	for _, m := range mods {
		raw += len(m.Species)
	}
	run.Logger.Info("loaded records",
		"mods", len(mods),
		"species", raw,
		"duration", result.Stats.LoadTime)

	var merged *merge.Merged
	err = stage(ctx, StageMerge, &result.Stats.MergeTime, func() error {
		var err error
		merged, err = merge.Merge(mods, opts.Policy, run.Report)
		return err
	})
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	run.Logger.Info("merged species",
		"species", len(merged.Species),
		"collisions", run.Report.Count(diag.IDCollision),
		"duration", result.Stats.MergeTime)

	var groups []dataset.MutationGroup
	err = stage(ctx, StageAggregate, &result.Stats.AggregateTime, func() error {
		agg := &mutation.Aggregator{
			Resolver:       merged.Index(opts.Namespaces),
			Rename:         merged.PublicID,
			Report:         run.Report,
			MaxSuggestions: opts.MaxSuggestions,
		}
		groups, result.Stats.Aggregate = agg.Aggregate(sources(mods))
		return nil
	})
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}
	run.Logger.Info("aggregated mutations",
		"records", result.Stats.Aggregate.Records,
		"groups", result.Stats.Aggregate.Groups,
		"skipped", result.Stats.Aggregate.Skipped,
		"duration", result.Stats.AggregateTime)

	// Resolution is complete; the resolver-assist fields must not leak.
	for _, m := range mods {
		m.StripSymbols()
	}
	merged.StripSymbols()

	var assembleTime time.Duration
	err = stage(ctx, StageAssemble, &assembleTime, func() error {
		result.Dataset = merged.Assemble(groups)
		return nil
	})
	if err != nil {
		return fmt.Errorf("assemble: %w", err)
	}
	result.Stats.Species = len(result.Dataset.Bees)
	result.Stats.Combs = len(result.Dataset.Combs)
	return nil
}

// Index loads and merges the inputs and returns the reference index the
// aggregate stage resolves against, together with the merged species for
// public-id lookups. Nothing is cached and no diagnostics are kept.
func (r *Runner) Index(ctx context.Context, opts Options) (*resolve.Index, *merge.Merged, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	inputs, err := readInputs(opts.Inputs)
	if err != nil {
		return nil, nil, fmt.Errorf("load: %w", err)
	}
	mods, err := decodeInputs(inputs)
	if err != nil {
		return nil, nil, fmt.Errorf("load: %w", err)
	}
	merged, err := merge.Merge(mods, opts.Policy, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("merge: %w", err)
	}
	return merged.Index(opts.Namespaces), merged, nil
}

// stage times fn and reports it to the pipeline hooks. A cancelled context
// stops the run between stages.
func stage(ctx context.Context, name string, elapsed *time.Duration, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	hooks := observability.Pipeline()
	hooks.OnStageStart(ctx, name)
	start := time.Now()
	err := fn()
	*elapsed = time.Since(start)
	hooks.OnStageComplete(ctx, name, *elapsed, err)
	return err
}

func sources(mods []*records.ModRecords) []mutation.Source {
	out := make([]mutation.Source, len(mods))
	for i, m := range mods {
		out[i] = mutation.Source{Mod: m.Mod.Name, File: m.Source, Mutations: m.Mutations}
	}
	return out
}

func readInputs(in []Input) ([]input, error) {
	out := make([]input, 0, len(in))
	for _, i := range in {
		format, err := records.FormatFromPath(i.Path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", i.Mod.Name, err)
		}
		data, err := os.ReadFile(i.Path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "records for %s", i.Mod.Name)
			}
			return nil, fmt.Errorf("read %s: %w", i.Path, err)
		}
		out = append(out, input{Input: i, format: format, data: data})
	}
	return out, nil
}

func decodeInputs(in []input) ([]*records.ModRecords, error) {
	out := make([]*records.ModRecords, 0, len(in))
	for _, i := range in {
		recs, err := records.Read(bytes.NewReader(i.data), i.format, i.Mod)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", i.Path, err)
		}
		recs.Source = i.Path
		out = append(out, recs)
	}
	return out, nil
}

// =============================================================================
// Result cache
// =============================================================================

func (r *Runner) cacheKey(opts Options, inputs []input) string {
	h := cache.NewHasher()
	for _, in := range inputs {
		h.Add(in.Mod.Name+"/"+in.Mod.Namespace, in.data)
	}
	if ns, err := json.Marshal(opts.Namespaces); err == nil {
		h.Add("namespaces", ns)
	}
	return r.Keyer.DatasetKey(h.Sum(), cache.DatasetKeyOpts{
		Mods:            opts.ModNames(),
		CollisionPolicy: string(opts.Policy),
		RelaxationCap:   opts.Cap,
		Schema:          SchemaVersion,
	})
}

func (r *Runner) lookup(ctx context.Context, key string) (*cachedResult, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache lookup failed", "err", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, cacheKeyType)
		return nil, false
	}
	var cached cachedResult
	if err := json.Unmarshal(data, &cached); err != nil {
		// Unreadable entries are treated as a miss and overwritten.
		observability.Cache().OnCacheMiss(ctx, cacheKeyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, cacheKeyType)
	return &cached, true
}

func (r *Runner) restore(run *Run, result *Result, cached *cachedResult) error {
	d, err := dataset.Unmarshal(cached.Dataset)
	if err != nil {
		return err
	}
	result.Dataset = d
	result.Stats.Aggregate = cached.Aggregate
	result.Stats.Species = len(d.Bees)
	result.Stats.Combs = len(d.Combs)
	for _, item := range cached.Diagnostics {
		run.Report.Add(item)
	}
	return nil
}

func (r *Runner) store(ctx context.Context, key string, result *Result, ttl time.Duration) {
	ds, err := result.Dataset.Marshal()
	if err != nil {
		return
	}
	data, err := json.Marshal(cachedResult{
		Dataset:     ds,
		Diagnostics: result.Report.Items(),
		Aggregate:   result.Stats.Aggregate,
	})
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache store failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, cacheKeyType, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
