// Package resolve maps loosely formatted species references to canonical
// species ids.
//
// Extractors emit mutation references in whatever form the mod source used:
// an enum constant ("COMMON"), an extraction id ("forestry.speciesCommon"),
// or a display-name shorthand with a mod qualifier ("ExtraBees:Rocky",
// "ExtraBees:Ancient_Stone"). An [Index] tries a fixed, priority-ordered list
// of naming conventions and reports which one matched:
//
//  1. exact match against a known species id (or a registered alias such as
//     the public "Mod:DisplayName" form)
//  2. a symbolic name declared by the referring mod's own sources
//  3. for "Mod:Name", the namespace of Mod followed by
//     lower(name), "species"+Name, "species."+lower(name)
//  4. the same three patterns with word separators in Name converted to
//     capitalized words, first space-separated and then joined
//
// Anything else is reported as not found. The index never guesses: the
// closest ids by edit distance are only offered through [Index.Suggest] so
// callers can attach them to a diagnostic.
//
// An Index is immutable once built and safe for concurrent reads; resolving
// the same reference twice yields the same result.
package resolve
