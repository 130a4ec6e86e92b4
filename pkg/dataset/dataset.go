package dataset

import (
	"maps"
	"slices"
	"strings"
)

// Dataset is the merged result of a pipeline run.
type Dataset struct {
	Bees      map[string]Bee    `json:"bees"`
	Mutations []MutationGroup   `json:"mutations"`
	Combs     map[string]Comb   `json:"combs"`
	Branches  map[string]Branch `json:"branches"`
}

// New returns an empty dataset with initialized maps.
func New() *Dataset {
	return &Dataset{
		Bees:     make(map[string]Bee),
		Combs:    make(map[string]Comb),
		Branches: make(map[string]Branch),
	}
}

// Bee holds the public attributes of one species.
type Bee struct {
	Mod         string    `json:"mod"`
	Name        string    `json:"name"`
	Binomial    string    `json:"binomial,omitempty"`
	Branch      string    `json:"branch,omitempty"`
	Dominant    bool      `json:"dominant"`
	Colors      Colors    `json:"colors"`
	Temperature string    `json:"temperature,omitempty"`
	Humidity    string    `json:"humidity,omitempty"`
	HasEffect   bool      `json:"hasEffect,omitempty"`
	IsSecret    bool      `json:"isSecret,omitempty"`
	Products    []Product `json:"products,omitempty"`
}

// Colors holds the primary and secondary rendering colors.
type Colors struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// Product is an item a bee produces.
type Product struct {
	Item      string  `json:"item"`
	Chance    float64 `json:"chance"`
	Specialty bool    `json:"specialty,omitempty"`
}

// MutationGroup lists everything one unordered parent pair can produce.
// Parents are stored in ascending order.
type MutationGroup struct {
	Parents  [2]string `json:"parents"`
	Children []Child   `json:"children"`
}

// Child is one possible offspring of a mutation group.
type Child struct {
	Species      string        `json:"species"`
	Probability  float64       `json:"probability"` // 0-1
	Requirements *Requirements `json:"requirements,omitempty"`
	IsSecret     bool          `json:"isSecret,omitempty"`
}

// Requirements are the conditions under which a mutation can happen.
// Absent fields mean "no constraint of that kind".
type Requirements struct {
	Temperature      []string `json:"temperature,omitempty"`
	Humidity         []string `json:"humidity,omitempty"`
	Biome            []string `json:"biome,omitempty"`
	Block            []string `json:"block,omitempty"`
	MoonPhase        []string `json:"moonPhase,omitempty"`
	MoonPhaseBonus   *float64 `json:"moonPhaseBonus,omitempty"`
	ThaumcraftVis    *float64 `json:"thaumcraftVis,omitempty"`
	RequireExplosion *bool    `json:"requireExplosion,omitempty"`
	RequirePlayer    *string  `json:"requirePlayer,omitempty"`
	Dimension        *string  `json:"dimension,omitempty"`
}

// Comb is a product together with the bees that produce it.
type Comb struct {
	Name      string     `json:"name"`
	Producers []Producer `json:"producers"`
}

// Producer is one bee producing a comb at a chance.
type Producer struct {
	Bee    string  `json:"bee"`
	Chance float64 `json:"chance"`
}

// Branch is a taxonomic grouping.
type Branch struct {
	Name       string `json:"name"`
	Scientific string `json:"scientific,omitempty"`
}

// PublicID builds the public species id "Mod:DisplayName".
func PublicID(mod, name string) string {
	return mod + ":" + name
}

// BeeIDs returns the ids of all bees, sorted.
func (d *Dataset) BeeIDs() []string {
	return slices.Sorted(maps.Keys(d.Bees))
}

// Sort puts mutation groups, children and producers into canonical order.
// It is idempotent.
func (d *Dataset) Sort() {
	SortGroups(d.Mutations)
	for id, c := range d.Combs {
		slices.SortFunc(c.Producers, func(a, b Producer) int {
			if a.Bee != b.Bee {
				return strings.Compare(a.Bee, b.Bee)
			}
			switch {
			case a.Chance < b.Chance:
				return -1
			case a.Chance > b.Chance:
				return 1
			}
			return 0
		})
		d.Combs[id] = c
	}
}

// SortGroups orders groups by (first parent, second parent) and the children
// of every group by species id. Children with the same species keep their
// relative order.
func SortGroups(groups []MutationGroup) {
	slices.SortFunc(groups, func(a, b MutationGroup) int {
		if c := strings.Compare(a.Parents[0], b.Parents[0]); c != 0 {
			return c
		}
		return strings.Compare(a.Parents[1], b.Parents[1])
	})
	for i := range groups {
		slices.SortStableFunc(groups[i].Children, func(a, b Child) int {
			return strings.Compare(a.Species, b.Species)
		})
	}
}
