package merge

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/beetree/pkg/dataset"
	"github.com/matzehuels/beetree/pkg/diag"
	"github.com/matzehuels/beetree/pkg/errors"
	"github.com/matzehuels/beetree/pkg/records"
)

// Policy decides what happens when two mods declare the same species id.
// A diagnostic is recorded under every policy.
type Policy string

const (
	PolicyKeepFirst Policy = "keep-first" // earlier mod wins
	PolicyOverwrite Policy = "overwrite"  // later mod wins
	PolicyReject    Policy = "reject"     // merge fails with ID_COLLISION
)

// DefaultPolicy is used when no policy is configured.
const DefaultPolicy = PolicyKeepFirst

// ParsePolicy validates a policy name. The empty string yields DefaultPolicy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DefaultPolicy, nil
	case PolicyKeepFirst, PolicyOverwrite, PolicyReject:
		return p, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidConfig,
			"unknown collision policy %q (want keep-first, overwrite or reject)", s)
	}
}

// Merged is the union of all mod record sets.
type Merged struct {
	Mods     []records.Mod
	Species  map[string]records.Species // extraction id -> surviving record
	Owner    map[string]string          // extraction id -> mod that contributed the record
	Branches map[string]records.Branch

	public  map[string]string // extraction id -> public id
	primary map[string]string // public id -> extraction id that owns it
	symbols map[string]map[string]string
}

// Merge unions mods in order. Collisions are recorded in report; under
// PolicyReject the first collision is also returned as an error.
func Merge(mods []*records.ModRecords, policy Policy, report *diag.Report) (*Merged, error) {
	if policy == "" {
		policy = DefaultPolicy
	}
	if report == nil {
		report = &diag.Report{}
	}

	m := &Merged{
		Species:  make(map[string]records.Species),
		Owner:    make(map[string]string),
		Branches: make(map[string]records.Branch),
		public:   make(map[string]string),
		primary:  make(map[string]string),
		symbols:  make(map[string]map[string]string),
	}

	for _, mr := range mods {
		m.Mods = append(m.Mods, mr.Mod)
		m.addSymbols(mr)

		for _, id := range mr.SpeciesIDs() {
			sp := mr.Species[id]
			prev, exists := m.Species[id]
			if !exists {
				m.Species[id] = sp
				m.Owner[id] = mr.Mod.Name
				continue
			}

			first := m.Owner[id]
			d := diag.Diagnostic{
				Kind:    diag.IDCollision,
				Subject: id,
				Message: collisionMessage(first, mr.Mod.Name, prev, sp, policy),
				Mods:    []string{first, mr.Mod.Name},
			}
			report.Add(d)
			if policy == PolicyReject {
				return nil, d.Err()
			}
			if policy == PolicyOverwrite {
				m.Species[id] = sp
				m.Owner[id] = mr.Mod.Name
			}
		}

		for _, bid := range slices.Sorted(maps.Keys(mr.Branches)) {
			b := mr.Branches[bid]
			prev, exists := m.Branches[bid]
			if !exists {
				m.Branches[bid] = b
				continue
			}
			if prev != b {
				report.Add(diag.Diagnostic{
					Kind:    diag.BranchConflict,
					Subject: bid,
					Message: fmt.Sprintf("redeclared as %q (%s), keeping %q (%s)", b.Name, b.Scientific, prev.Name, prev.Scientific),
					Mods:    []string{mr.Mod.Name},
				})
			}
		}
	}

	if err := m.assignPublicIDs(policy, report); err != nil {
		return nil, err
	}
	return m, nil
}

// assignPublicIDs maps every surviving species to "Mod:Name". Walking mods
// in merge order, the first species to claim a public id owns it; later
// claimants alias to it so their mutations land on the same node.
func (m *Merged) assignPublicIDs(policy Policy, report *diag.Report) error {
	done := make(map[string]bool)
	for _, mod := range m.Mods {
		if done[mod.Name] {
			continue
		}
		done[mod.Name] = true
		for _, id := range m.IDs() {
			if m.Owner[id] != mod.Name {
				continue
			}
			sp := m.Species[id]
			pub := dataset.PublicID(sp.Mod, sp.Name)
			m.public[id] = pub

			owner, taken := m.primary[pub]
			if !taken {
				m.primary[pub] = id
				continue
			}
			d := diag.Diagnostic{
				Kind:    diag.IDCollision,
				Subject: pub,
				Message: fmt.Sprintf("public id claimed by %s and %s, keeping %s", owner, id, owner),
				Mods:    []string{m.Owner[owner], mod.Name},
			}
			report.Add(d)
			if policy == PolicyReject {
				return d.Err()
			}
		}
	}
	return nil
}

func (m *Merged) addSymbols(mr *records.ModRecords) {
	syms := mr.Symbols()
	if len(syms) == 0 {
		return
	}
	scope := m.symbols[mr.Mod.Name]
	if scope == nil {
		scope = make(map[string]string)
		m.symbols[mr.Mod.Name] = scope
	}
	for sym, id := range syms {
		if _, ok := scope[sym]; !ok {
			scope[sym] = id
		}
	}
}

// IDs returns the extraction ids of all surviving species, sorted.
func (m *Merged) IDs() []string {
	return slices.Sorted(maps.Keys(m.Species))
}

// PublicID returns the public id of an extraction id. Ids that were never
// merged are returned unchanged.
func (m *Merged) PublicID(id string) string {
	if pub, ok := m.public[id]; ok {
		return pub
	}
	return id
}

// PublicIDs returns the public id -> owning extraction id map.
func (m *Merged) PublicIDs() map[string]string {
	out := make(map[string]string, len(m.primary))
	for pub, id := range m.primary {
		out[pub] = id
	}
	return out
}

// Symbols returns the per-mod symbolic-name maps collected during the merge.
func (m *Merged) Symbols() map[string]map[string]string {
	return m.symbols
}

// StripSymbols clears the resolver-assist field of every merged species.
func (m *Merged) StripSymbols() {
	for id, sp := range m.Species {
		sp.Symbol = ""
		m.Species[id] = sp
	}
	m.symbols = make(map[string]map[string]string)
}

func collisionMessage(first, second string, a, b records.Species, policy Policy) string {
	keep := first
	if policy == PolicyOverwrite {
		keep = second
	}
	msg := fmt.Sprintf("declared by %s and %s, keeping %s", first, second, keep)
	if diff := differences(a, b); len(diff) > 0 {
		msg += " (differs in " + strings.Join(diff, ", ") + ")"
	}
	return msg
}

// differences names the identity-relevant fields on which a and b disagree.
func differences(a, b records.Species) []string {
	var out []string
	check := func(name string, equal bool) {
		if !equal {
			out = append(out, name)
		}
	}
	check("mod", a.Mod == b.Mod)
	check("name", a.Name == b.Name)
	check("binomial", a.Binomial == b.Binomial)
	check("branch", a.Branch == b.Branch)
	check("dominant", a.Dominant == b.Dominant)
	check("colors", a.Colors == b.Colors)
	check("temperature", a.Temperature == b.Temperature)
	check("humidity", a.Humidity == b.Humidity)
	check("hasEffect", a.HasEffect == b.HasEffect)
	check("isSecret", a.IsSecret == b.IsSecret)
	check("products", slices.Equal(a.Products, b.Products))
	return out
}
