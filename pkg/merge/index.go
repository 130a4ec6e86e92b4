package merge

import "github.com/matzehuels/beetree/pkg/resolve"

// Index builds the reference resolver over the merged species. Public ids
// are registered as aliases and every mod's symbols as its own scope.
// namespaces overrides resolve.DefaultNamespaces when non-nil.
func (m *Merged) Index(namespaces map[string]string) *resolve.Index {
	return resolve.NewIndex(m.IDs(), resolve.Options{
		Aliases:    m.PublicIDs(),
		Symbols:    m.symbols,
		Namespaces: namespaces,
	})
}
