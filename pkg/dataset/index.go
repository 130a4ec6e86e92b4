package dataset

import (
	"slices"
	"strings"
)

// ParentIndex derives, for every offspring, the list of alternative parent
// pairs that produce it. Pairs are deduplicated and sorted; an offspring that
// appears under several requirement sets of the same group yields one pair.
func ParentIndex(groups []MutationGroup) map[string][][2]string {
	idx := make(map[string][][2]string)
	for _, g := range groups {
		for _, c := range g.Children {
			if !slices.Contains(idx[c.Species], g.Parents) {
				idx[c.Species] = append(idx[c.Species], g.Parents)
			}
		}
	}
	for child := range idx {
		slices.SortFunc(idx[child], func(a, b [2]string) int {
			if c := strings.Compare(a[0], b[0]); c != 0 {
				return c
			}
			return strings.Compare(a[1], b[1])
		})
	}
	return idx
}

// ProducedBy returns the mutation groups that list id as a child.
func (d *Dataset) ProducedBy(id string) []MutationGroup {
	var out []MutationGroup
	for _, g := range d.Mutations {
		if slices.ContainsFunc(g.Children, func(c Child) bool { return c.Species == id }) {
			out = append(out, g)
		}
	}
	return out
}

// UsedIn returns the mutation groups in which id is a parent.
func (d *Dataset) UsedIn(id string) []MutationGroup {
	var out []MutationGroup
	for _, g := range d.Mutations {
		if g.Parents[0] == id || g.Parents[1] == id {
			out = append(out, g)
		}
	}
	return out
}
