package records

import (
	"math"

	"github.com/matzehuels/beetree/pkg/errors"
)

// Validate checks the structural contract of the record set. It stops at the
// first violation and reports it as INVALID_RECORD.
func (r *ModRecords) Validate() error {
	for _, id := range r.SpeciesIDs() {
		sp := r.Species[id]
		if err := errors.ValidateSpeciesID(id); err != nil {
			return err
		}
		if sp.Name == "" {
			return errors.New(errors.ErrCodeInvalidRecord, "species %s: missing name", id)
		}
		if sp.Mod == "" {
			return errors.New(errors.ErrCodeInvalidRecord, "species %s: missing mod", id)
		}
		for i, p := range sp.Products {
			if p.Item == "" {
				return errors.New(errors.ErrCodeInvalidRecord, "species %s: product %d: missing item", id, i)
			}
			if !finite(p.Chance) || p.Chance < 0 {
				return errors.New(errors.ErrCodeInvalidRecord, "species %s: product %s: invalid chance %v", id, p.Item, p.Chance)
			}
		}
	}

	for i, m := range r.Mutations {
		if m.Parent1 == "" || m.Parent2 == "" {
			return errors.New(errors.ErrCodeInvalidRecord, "mutation %d: missing parent reference", i)
		}
		if m.Offspring == "" {
			return errors.New(errors.ErrCodeInvalidRecord, "mutation %d: missing offspring reference", i)
		}
		if !finite(m.Chance) || m.Chance < 0 || m.Chance > 100 {
			return errors.New(errors.ErrCodeInvalidRecord, "mutation %d (%s): chance %v outside 0-100", i, m.Offspring, m.Chance)
		}
		if c := m.Conditions; c != nil {
			if c.MoonPhaseBonus != nil && !finite(*c.MoonPhaseBonus) {
				return errors.New(errors.ErrCodeInvalidRecord, "mutation %d (%s): invalid moonPhaseBonus", i, m.Offspring)
			}
			if c.ThaumcraftVis != nil && !finite(*c.ThaumcraftVis) {
				return errors.New(errors.ErrCodeInvalidRecord, "mutation %d (%s): invalid thaumcraftVis", i, m.Offspring)
			}
		}
	}

	for id, b := range r.Branches {
		if id == "" {
			return errors.New(errors.ErrCodeInvalidRecord, "branch with empty id")
		}
		if b.Name == "" {
			return errors.New(errors.ErrCodeInvalidRecord, "branch %s: missing name", id)
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
