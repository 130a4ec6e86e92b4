// Package merge unions per-mod record sets into one namespace.
//
// [Merge] copies species and branches from each mod in the caller's order
// and records an IDCollision diagnostic whenever two mods declare the same
// species id, or two species end up with the same public "Mod:Name" id. The
// [Policy] decides which record survives. [Merged.Assemble] then turns the
// merged records and aggregated mutation groups into the public dataset.
package merge
