package records

import (
	"maps"
	"slices"

	"github.com/matzehuels/beetree/pkg/diag"
)

// Mod identifies the mod a record set belongs to.
type Mod struct {
	Name      string // display name used in public ids, e.g. "ExtraBees"
	Namespace string // extraction id prefix, e.g. "extrabees"
}

// ModRecords is everything one extractor emitted for one mod.
type ModRecords struct {
	Mod    Mod    `json:"-" yaml:"-"`
	Source string `json:"-" yaml:"-"` // file the records were loaded from

	Species   map[string]Species `json:"bees" yaml:"bees"`
	Mutations []Mutation         `json:"mutations" yaml:"mutations"`
	Branches  map[string]Branch  `json:"branches" yaml:"branches"`
}

// Species is one bee type as emitted by an extractor. The map key in
// [ModRecords.Species] is the extraction id; ID mirrors it after loading.
type Species struct {
	ID          string    `json:"-" yaml:"-"`
	Mod         string    `json:"mod" yaml:"mod"`
	Name        string    `json:"name" yaml:"name"`
	Binomial    string    `json:"binomial,omitempty" yaml:"binomial"`
	Branch      string    `json:"branch,omitempty" yaml:"branch"`
	Dominant    bool      `json:"dominant,omitempty" yaml:"dominant"`
	Colors      Colors    `json:"colors" yaml:"colors"`
	Temperature string    `json:"temperature,omitempty" yaml:"temperature"`
	Humidity    string    `json:"humidity,omitempty" yaml:"humidity"`
	HasEffect   bool      `json:"hasEffect,omitempty" yaml:"hasEffect"`
	IsSecret    bool      `json:"isSecret,omitempty" yaml:"isSecret"`
	Products    []Product `json:"products,omitempty" yaml:"products"`

	// Symbol is the resolver-assist field: the source-local name siblings
	// use to refer to this species. Cleared by StripSymbols.
	Symbol string `json:"symbol,omitempty" yaml:"symbol"`
}

// Colors holds the rendering colors of a species.
type Colors struct {
	Primary   string `json:"primary" yaml:"primary"`
	Secondary string `json:"secondary" yaml:"secondary"`
}

// Product is an item a species produces.
type Product struct {
	Item      string  `json:"item" yaml:"item"`
	Name      string  `json:"name,omitempty" yaml:"name"`
	Chance    float64 `json:"chance" yaml:"chance"`
	Specialty bool    `json:"specialty,omitempty" yaml:"specialty"`
}

// Mutation is one raw breeding recipe. The references are textual and not
// guaranteed to be canonical species ids.
type Mutation struct {
	Parent1    string         `json:"parent1" yaml:"parent1"`
	Parent2    string         `json:"parent2" yaml:"parent2"`
	Offspring  string         `json:"offspring" yaml:"offspring"`
	Chance     float64        `json:"chance" yaml:"chance"` // percent, 0-100
	Conditions *Conditions    `json:"conditions,omitempty" yaml:"conditions"`
	Source     *diag.Location `json:"source,omitempty" yaml:"source"`
}

// Conditions is the optional requirement set of a mutation. A nil or empty
// field means "no constraint of that kind".
type Conditions struct {
	Temperature      []string `json:"temperature,omitempty" yaml:"temperature"`
	Humidity         []string `json:"humidity,omitempty" yaml:"humidity"`
	Biome            []string `json:"biome,omitempty" yaml:"biome"`
	Block            []string `json:"block,omitempty" yaml:"block"`
	MoonPhase        []string `json:"moonPhase,omitempty" yaml:"moonPhase"`
	MoonPhaseBonus   *float64 `json:"moonPhaseBonus,omitempty" yaml:"moonPhaseBonus"`
	ThaumcraftVis    *float64 `json:"thaumcraftVis,omitempty" yaml:"thaumcraftVis"`
	RequireExplosion *bool    `json:"requireExplosion,omitempty" yaml:"requireExplosion"`
	RequirePlayer    *string  `json:"requirePlayer,omitempty" yaml:"requirePlayer"`
	Dimension        *string  `json:"dimension,omitempty" yaml:"dimension"`
	IsSecret         *bool    `json:"isSecret,omitempty" yaml:"isSecret"`
}

// Branch is a taxonomic grouping of species.
type Branch struct {
	Name       string `json:"name" yaml:"name"`
	Scientific string `json:"scientific,omitempty" yaml:"scientific"`
}

// SpeciesIDs returns the extraction ids of all species, sorted.
func (r *ModRecords) SpeciesIDs() []string {
	return slices.Sorted(maps.Keys(r.Species))
}

// Symbols returns the symbolic name → species id map built from the
// resolver-assist fields. Species without a symbol are skipped.
func (r *ModRecords) Symbols() map[string]string {
	out := make(map[string]string)
	for _, id := range r.SpeciesIDs() {
		if sym := r.Species[id].Symbol; sym != "" {
			if _, dup := out[sym]; !dup {
				out[sym] = id
			}
		}
	}
	return out
}

// StripSymbols clears the resolver-assist field of every species. It must
// only be called after all mutation resolution for the run has completed.
func (r *ModRecords) StripSymbols() {
	for id, sp := range r.Species {
		if sp.Symbol != "" {
			sp.Symbol = ""
			r.Species[id] = sp
		}
	}
}
