package resolve

import (
	"maps"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rule names the convention that produced a match.
type Rule string

// Resolution rules in priority order.
const (
	RuleExact         Rule = "exact"          // known species id
	RuleAlias         Rule = "alias"          // registered alias (public id)
	RuleSymbol        Rule = "symbol"         // symbolic name in the referring mod
	RuleLower         Rule = "lower"          // namespace.lower(name)
	RuleSpeciesPrefix Rule = "species-prefix" // namespace.species<Name>
	RuleSpeciesDot    Rule = "species-dot"    // namespace.species.lower(name)
)

// Variant tells how the local name was rewritten before a pattern rule matched.
type Variant string

// Name rewrites tried for pattern rules.
const (
	VariantAsIs   Variant = ""
	VariantSpaced Variant = "spaced" // "ancient_stone" -> "Ancient Stone"
	VariantJoined Variant = "joined" // "ancient_stone" -> "AncientStone"
)

// ModSeparator separates the mod token from the local name in a qualified
// reference such as "ExtraBees:Rocky".
const ModSeparator = ":"

// DefaultNamespaces maps lowercase mod tokens of the supported mods to their
// extraction namespaces.
var DefaultNamespaces = map[string]string{
	"forestry":   "forestry",
	"extrabees":  "extrabees",
	"careerbees": "careerbees",
	"magicbees":  "magicbees",
	"gregtech":   "gregtech",
	"gt":         "gregtech",
}

// Resolution is a successful match.
type Resolution struct {
	ID      string  // canonical species id
	Rule    Rule    // convention that matched
	Variant Variant // name rewrite applied for pattern rules
}

// String describes the match, e.g. "species-prefix" or "joined/species-prefix".
func (r Resolution) String() string {
	if r.Variant == VariantAsIs {
		return string(r.Rule)
	}
	return string(r.Variant) + "/" + string(r.Rule)
}

// Index resolves references against a fixed species-id set.
type Index struct {
	ids        map[string]struct{}
	aliases    map[string]string            // alias -> id
	symbols    map[string]map[string]string // scope -> symbol -> id
	namespaces map[string]string            // lower(mod token) -> namespace
}

// Options configures an Index beyond its species-id set.
type Options struct {
	// Aliases are additional exact names, e.g. public "Mod:DisplayName" ids.
	Aliases map[string]string
	// Symbols holds, per scope (mod name), the symbolic-name map of that
	// mod's sources. A reference only sees the symbols of its own scope.
	Symbols map[string]map[string]string
	// Namespaces overrides DefaultNamespaces when non-nil. Keys are matched
	// case-insensitively.
	Namespaces map[string]string
}

// NewIndex builds an index over ids. The inputs are copied.
func NewIndex(ids []string, opts Options) *Index {
	ix := &Index{
		ids:        make(map[string]struct{}, len(ids)),
		aliases:    make(map[string]string, len(opts.Aliases)),
		symbols:    make(map[string]map[string]string, len(opts.Symbols)),
		namespaces: make(map[string]string),
	}
	for _, id := range ids {
		ix.ids[id] = struct{}{}
	}
	for alias, id := range opts.Aliases {
		if _, ok := ix.ids[id]; ok {
			ix.aliases[alias] = id
		}
	}
	for scope, syms := range opts.Symbols {
		ix.symbols[scope] = maps.Clone(syms)
	}
	ns := opts.Namespaces
	if ns == nil {
		ns = DefaultNamespaces
	}
	for token, prefix := range ns {
		ix.namespaces[strings.ToLower(token)] = prefix
	}
	return ix
}

// Len returns the number of known species ids.
func (ix *Index) Len() int { return len(ix.ids) }

// Has reports whether id is a known species id.
func (ix *Index) Has(id string) bool {
	_, ok := ix.ids[id]
	return ok
}

// Namespace returns the namespace registered for a mod token.
func (ix *Index) Namespace(mod string) (string, bool) {
	ns, ok := ix.namespaces[strings.ToLower(mod)]
	return ns, ok
}

// Resolve maps ref to a species id. scope is the name of the mod whose
// sources contain the reference; it selects the symbol table consulted and
// may be empty. The boolean is false when no rule matched.
func (ix *Index) Resolve(ref, scope string) (Resolution, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Resolution{}, false
	}
	if ix.Has(ref) {
		return Resolution{ID: ref, Rule: RuleExact}, true
	}
	if id, ok := ix.aliases[ref]; ok {
		return Resolution{ID: id, Rule: RuleAlias}, true
	}
	if id, ok := ix.symbols[scope][ref]; ok && ix.Has(id) {
		return Resolution{ID: id, Rule: RuleSymbol}, true
	}

	mod, name, qualified := strings.Cut(ref, ModSeparator)
	if !qualified || name == "" {
		return Resolution{}, false
	}
	prefix, ok := ix.Namespace(mod)
	if !ok {
		return Resolution{}, false
	}

	if res, ok := ix.matchPatterns(prefix, name, VariantAsIs); ok {
		return res, true
	}
	if !hasSeparator(name) {
		return Resolution{}, false
	}
	words := splitWords(name)
	if res, ok := ix.matchPatterns(prefix, strings.Join(words, " "), VariantSpaced); ok {
		return res, true
	}
	return ix.matchPatterns(prefix, strings.Join(words, ""), VariantJoined)
}

func (ix *Index) matchPatterns(prefix, name string, v Variant) (Resolution, bool) {
	candidates := []struct {
		id   string
		rule Rule
	}{
		{prefix + "." + strings.ToLower(name), RuleLower},
		{prefix + ".species" + name, RuleSpeciesPrefix},
		{prefix + ".species." + strings.ToLower(name), RuleSpeciesDot},
	}
	for _, c := range candidates {
		if ix.Has(c.id) {
			return Resolution{ID: c.id, Rule: c.rule, Variant: v}, true
		}
	}
	return Resolution{}, false
}

func hasSeparator(s string) bool {
	return strings.ContainsAny(s, "_ ")
}

// splitWords splits on underscores and spaces and capitalizes each word
// ("ANCIENT_STONE" -> ["Ancient", "Stone"]).
func splitWords(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == ' ' })
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		words = append(words, capitalize(f))
	}
	return words
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
}

// IDs returns the known species ids, sorted.
func (ix *Index) IDs() []string {
	return slices.Sorted(maps.Keys(ix.ids))
}
