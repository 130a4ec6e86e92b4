// Package hierarchy assigns breeding generations and builds the lineage graph.
//
// A species that no mutation produces is generation 0. Every other species
// becomes available once one of its parent combinations has both parents
// assigned, and takes one more than the deeper parent of the deepest ready
// combination. [Build] computes this as a monotone fixed point with snapshot
// passes over the species in id order, capped at [DefaultCap] passes: a
// generation is raised whenever a deeper combination becomes ready and is
// never lowered, so it settles on the longest breeding path. Species that
// never become ready (missing parents, closed cycles), or that are still
// rising when the cap is reached (cycles), are forced to generation 0 and
// reported with a NonTerminatingRelaxation diagnostic naming the cause.
//
// The result is published whole: a [Hierarchy] is immutable once Build
// returns and can back any number of concurrent lineage queries.
package hierarchy
