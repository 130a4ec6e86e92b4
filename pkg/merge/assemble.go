package merge

import (
	"github.com/matzehuels/beetree/pkg/dataset"
	"github.com/matzehuels/beetree/pkg/records"
)

// Assemble builds the public dataset from the merged species and the
// aggregated mutation groups, which must already use public ids.
func (m *Merged) Assemble(groups []dataset.MutationGroup) *dataset.Dataset {
	d := dataset.New()

	for pub, id := range m.primary {
		sp := m.Species[id]
		d.Bees[pub] = bee(sp)

		for _, p := range sp.Products {
			c, ok := d.Combs[p.Item]
			if !ok {
				c = dataset.Comb{Name: p.Name}
			}
			if c.Name == "" {
				c.Name = p.Name
			}
			c.Producers = append(c.Producers, dataset.Producer{Bee: pub, Chance: p.Chance})
			d.Combs[p.Item] = c
		}
	}
	for id, c := range d.Combs {
		if c.Name == "" {
			c.Name = id
			d.Combs[id] = c
		}
	}

	for id, b := range m.Branches {
		d.Branches[id] = dataset.Branch{Name: b.Name, Scientific: b.Scientific}
	}

	d.Mutations = groups
	d.Sort()
	return d
}

func bee(sp records.Species) dataset.Bee {
	b := dataset.Bee{
		Mod:         sp.Mod,
		Name:        sp.Name,
		Binomial:    sp.Binomial,
		Branch:      sp.Branch,
		Dominant:    sp.Dominant,
		Colors:      dataset.Colors{Primary: sp.Colors.Primary, Secondary: sp.Colors.Secondary},
		Temperature: sp.Temperature,
		Humidity:    sp.Humidity,
		HasEffect:   sp.HasEffect,
		IsSecret:    sp.IsSecret,
	}
	for _, p := range sp.Products {
		b.Products = append(b.Products, dataset.Product{Item: p.Item, Chance: p.Chance, Specialty: p.Specialty})
	}
	return b
}
