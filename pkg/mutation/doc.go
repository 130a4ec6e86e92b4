// Package mutation turns raw breeding records into canonical mutation groups.
//
// Every raw record names two parents and an offspring with free-form
// references. The [Aggregator] resolves each reference, drops records it
// cannot resolve (recording an UnresolvedReference diagnostic), and folds the
// rest into one [dataset.MutationGroup] per unordered parent pair. Groups and
// children come out in canonical order so regenerated output diffs cleanly.
package mutation
