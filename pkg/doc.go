// Package pkg holds the beetree libraries: the pieces that turn per-mod bee
// extractions into one merged dataset and a generational breeding hierarchy.
//
// # Data Flow
//
//	extracted/<namespace>.json  (one record set per mod)
//	         ↓  records: decode and validate
//	         ↓  merge: union species under a collision policy
//	         ↓  mutation: resolve references, group by parent pair
//	         ↓  dataset: bees, mutations, combs, branches
//	         ↓  hierarchy: relaxation into generations, parent→offspring edges
//	    lineage queries, DOT/SVG, SQLite export, HTTP API
//
// [pipeline] runs these stages in order and caches the dataset through
// [cache]. Data-quality problems are collected in a [diag.Report] instead of
// failing the run.
//
// # Packages
//
//   - [records]: extractor output formats (JSON, JSONC, YAML) and validation
//   - [resolve]: reference resolution rules and near-miss suggestions
//   - [merge]: multi-mod species union and public ids
//   - [mutation]: mutation aggregation into parent-pair groups
//   - [dataset]: the merged dataset and its on-disk files
//   - [hierarchy]: generation assignment and lineage queries
//   - [dag]: the row-indexed graph beneath the hierarchy
//   - [render/dot]: Graphviz rendering of the hierarchy
//   - [store]: SQLite export
//   - [server]: HTTP API over a built dataset
//   - [config], [cache], [diag], [errors], [observability]: shared plumbing
//
// [records]: https://pkg.go.dev/github.com/matzehuels/beetree/pkg/records
// [resolve]: https://pkg.go.dev/github.com/matzehuels/beetree/pkg/resolve
// [merge]: https://pkg.go.dev/github.com/matzehuels/beetree/pkg/merge
// [mutation]: https://pkg.go.dev/github.com/matzehuels/beetree/pkg/mutation
// [dataset]: https://pkg.go.dev/github.com/matzehuels/beetree/pkg/dataset
// [hierarchy]: https://pkg.go.dev/github.com/matzehuels/beetree/pkg/hierarchy
// [dag]: https://pkg.go.dev/github.com/matzehuels/beetree/pkg/dag
// [render/dot]: https://pkg.go.dev/github.com/matzehuels/beetree/pkg/render/dot
// [store]: https://pkg.go.dev/github.com/matzehuels/beetree/pkg/store
// [server]: https://pkg.go.dev/github.com/matzehuels/beetree/pkg/server
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/beetree/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/beetree/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/beetree/pkg/config
// [diag]: https://pkg.go.dev/github.com/matzehuels/beetree/pkg/diag
// [diag.Report]: https://pkg.go.dev/github.com/matzehuels/beetree/pkg/diag#Report
// [errors]: https://pkg.go.dev/github.com/matzehuels/beetree/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/beetree/pkg/observability
package pkg
