// Package dataset defines the merged, public dataset consumed by the
// presentation layer and provides deterministic import and export.
//
// # Files
//
// A dataset directory holds comment-tolerant JSON files:
//
//	bees.jsonc      map "Mod:DisplayName" -> species attributes
//	mutations.jsonc list of {parents: [a, b], children: [{species, probability, requirements?, isSecret?}]}
//	combs.jsonc     map productId -> {name, producers: [{bee, chance}]}
//	branches.jsonc  map branchId -> {name, scientific}
//
// # Determinism
//
// [Write] produces byte-identical files for equal datasets: object keys are
// sorted, mutation groups are ordered by parent pair, children by species id
// and producers by bee id. Regenerating from unchanged inputs therefore yields
// no diff.
//
// # Import
//
// [Read] accepts the files back, tolerating comments and trailing commas, so
// hand-annotated copies remain readable.
package dataset
