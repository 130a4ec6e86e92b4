package resolve

import (
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

type suggestion struct {
	name string
	dist int
}

// Suggest returns up to n known ids or aliases that are close to ref by edit
// distance, best first. Comparison is case-insensitive. It is meant for
// diagnostics only and never influences Resolve.
func (ix *Index) Suggest(ref string, n int) []string {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" || n <= 0 {
		return nil
	}

	names := slices.Collect(maps.Keys(ix.ids))
	names = append(names, slices.Collect(maps.Keys(ix.aliases))...)

	var cands []suggestion
	for _, name := range names {
		dist := levenshtein.ComputeDistance(ref, strings.ToLower(name))
		if dist > suggestLimit(len(name)) {
			continue
		}
		cands = append(cands, suggestion{name: name, dist: dist})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].dist == cands[j].dist {
			return cands[i].name < cands[j].name
		}
		return cands[i].dist < cands[j].dist
	})

	out := make([]string, 0, min(n, len(cands)))
	for _, c := range cands {
		if len(out) == n {
			break
		}
		out = append(out, c.name)
	}
	return out
}

func suggestLimit(length int) int {
	switch {
	case length <= 8:
		return 2
	case length <= 16:
		return 3
	default:
		return 4
	}
}
