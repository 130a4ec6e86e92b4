package mutation

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/beetree/pkg/dataset"
	"github.com/matzehuels/beetree/pkg/diag"
	"github.com/matzehuels/beetree/pkg/records"
	"github.com/matzehuels/beetree/pkg/resolve"
)

// Resolver maps a textual species reference to a species id.
// *resolve.Index satisfies it.
type Resolver interface {
	Resolve(ref, scope string) (resolve.Resolution, bool)
}

// Suggester proposes near-miss ids for a reference that did not resolve.
type Suggester interface {
	Suggest(ref string, n int) []string
}

// Source is the raw mutation list of one mod.
type Source struct {
	Mod       string // scope for symbolic-name lookups
	File      string // used when a record carries no location
	Mutations []records.Mutation
}

// Stats counts what happened to the raw records of one aggregation.
type Stats struct {
	Records    int // raw records seen
	Skipped    int // dropped because a reference did not resolve or the record is unusable
	Duplicates int // collapsed into an existing child entry
	Groups     int
	Children   int
}

// Aggregator folds raw mutation records into canonical groups.
type Aggregator struct {
	Resolver Resolver

	// Rename maps a resolved id to the id used in the output, e.g. an
	// extraction id to its public "Mod:Name" id. Nil keeps resolved ids.
	Rename func(id string) string

	// Report receives one diagnostic per dropped record, naming the first
	// reference that did not resolve. Nil discards them.
	Report *diag.Report

	// MaxSuggestions bounds the near misses attached to a diagnostic when
	// Resolver also implements Suggester.
	MaxSuggestions int
}

type group struct {
	parents  [2]string
	children []dataset.Child
	seen     map[string]struct{}
}

// Aggregate resolves and groups the mutations of all sources, in order.
func (a *Aggregator) Aggregate(sources []Source) ([]dataset.MutationGroup, Stats) {
	var stats Stats
	groups := make(map[[2]string]*group)
	var order [][2]string

	for _, src := range sources {
		for _, m := range src.Mutations {
			stats.Records++
			var ids [3]string
			ok := true
			for i, ref := range [3]string{m.Parent1, m.Parent2, m.Offspring} {
				if ids[i], ok = a.resolve(ref, src, m); !ok {
					break
				}
			}
			if !ok {
				stats.Skipped++
				continue
			}
			p1, p2, child := ids[0], ids[1], ids[2]
			c := NewChild(child, m)
			dedup, err := childKey(c)
			if err != nil {
				stats.Skipped++
				a.invalid(src, m, err)
				continue
			}

			key := ParentKey(p1, p2)
			g, ok := groups[key]
			if !ok {
				g = &group{parents: key, seen: make(map[string]struct{})}
				groups[key] = g
				order = append(order, key)
			}

			if _, dup := g.seen[dedup]; dup {
				stats.Duplicates++
				continue
			}
			g.seen[dedup] = struct{}{}
			g.children = append(g.children, c)
		}
	}

	out := make([]dataset.MutationGroup, 0, len(order))
	for _, key := range order {
		g := groups[key]
		out = append(out, dataset.MutationGroup{Parents: g.parents, Children: g.children})
		stats.Children += len(g.children)
	}
	dataset.SortGroups(out)
	stats.Groups = len(out)
	return out, stats
}

func (a *Aggregator) resolve(ref string, src Source, m records.Mutation) (string, bool) {
	res, ok := a.Resolver.Resolve(ref, src.Mod)
	if ok {
		if a.Rename != nil {
			return a.Rename(res.ID), true
		}
		return res.ID, true
	}
	if a.Report == nil {
		return "", false
	}

	d := diag.Diagnostic{
		Kind:    diag.UnresolvedReference,
		Subject: ref,
		Message: fmt.Sprintf("mutation %s + %s -> %s dropped", m.Parent1, m.Parent2, m.Offspring),
		Mods:    []string{src.Mod},
	}
	switch {
	case m.Source != nil:
		loc := *m.Source
		d.Source = &loc
	case src.File != "":
		d.Source = &diag.Location{File: src.File}
	}
	if s, ok := a.Resolver.(Suggester); ok && a.MaxSuggestions > 0 {
		d.Suggestions = s.Suggest(ref, a.MaxSuggestions)
	}
	a.Report.Add(d)
	return "", false
}

func (a *Aggregator) invalid(src Source, m records.Mutation, err error) {
	if a.Report == nil {
		return
	}
	d := diag.Diagnostic{
		Kind:    diag.InvalidRecord,
		Subject: m.Offspring,
		Message: fmt.Sprintf("mutation %s + %s -> %s dropped: %v", m.Parent1, m.Parent2, m.Offspring, err),
		Mods:    []string{src.Mod},
	}
	if m.Source != nil {
		loc := *m.Source
		d.Source = &loc
	} else if src.File != "" {
		d.Source = &diag.Location{File: src.File}
	}
	a.Report.Add(d)
}

// ParentKey returns the canonical, order-independent key of a parent pair.
func ParentKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

// NewChild converts a raw record into a child entry for species.
// The percent chance becomes a 0-1 probability.
func NewChild(species string, m records.Mutation) dataset.Child {
	c := dataset.Child{
		Species:      species,
		Probability:  m.Chance / 100,
		Requirements: Requirements(m.Conditions),
	}
	if m.Conditions != nil && m.Conditions.IsSecret != nil {
		c.IsSecret = *m.Conditions.IsSecret
	}
	return c
}

// Requirements copies the present fields of c. It returns nil when no
// constraint is set, so absent conditions never serialize as empty objects.
func Requirements(c *records.Conditions) *dataset.Requirements {
	if c == nil {
		return nil
	}
	r := &dataset.Requirements{
		Temperature:      nonEmpty(c.Temperature),
		Humidity:         nonEmpty(c.Humidity),
		Biome:            nonEmpty(c.Biome),
		Block:            nonEmpty(c.Block),
		MoonPhase:        nonEmpty(c.MoonPhase),
		MoonPhaseBonus:   c.MoonPhaseBonus,
		ThaumcraftVis:    c.ThaumcraftVis,
		RequireExplosion: c.RequireExplosion,
		RequirePlayer:    c.RequirePlayer,
		Dimension:        c.Dimension,
	}
	if empty(r) {
		return nil
	}
	return r
}

func empty(r *dataset.Requirements) bool {
	return r.Temperature == nil && r.Humidity == nil && r.Biome == nil &&
		r.Block == nil && r.MoonPhase == nil && r.MoonPhaseBonus == nil &&
		r.ThaumcraftVis == nil && r.RequireExplosion == nil &&
		r.RequirePlayer == nil && r.Dimension == nil
}

func nonEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return append([]string(nil), s...)
}

// childKey identifies duplicate child entries: same species under the same
// requirements. Probability is not part of the key; the first entry wins.
// Requirements that cannot be encoded (NaN or infinite numbers) are an
// error, since they could not be told apart.
func childKey(c dataset.Child) (string, error) {
	if c.Requirements == nil {
		return c.Species, nil
	}
	req, err := json.Marshal(c.Requirements)
	if err != nil {
		return "", fmt.Errorf("requirements: %w", err)
	}
	return c.Species + "\x00" + string(req), nil
}
