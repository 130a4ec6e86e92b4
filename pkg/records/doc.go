// Package records defines the intermediate record schema emitted by the
// per-mod extractors and consumed by the reconciliation core.
//
// An extractor scrapes one mod's source files (Java enums, static-field
// classes, BACON configs) and emits a single document:
//
//	{
//	  "bees": {
//	    "forestry.speciesCommon": {
//	      "mod": "Forestry", "name": "Common", "binomial": "cultis",
//	      "branch": "honey", "dominant": true,
//	      "colors": {"primary": "#b2b2b2", "secondary": "#ffdc16"},
//	      "temperature": "NORMAL", "humidity": "NORMAL",
//	      "products": [{"item": "forestry:beeCombs.honey", "chance": 0.35}],
//	      "symbol": "COMMON"
//	    }
//	  },
//	  "mutations": [
//	    {"parent1": "FOREST", "parent2": "MEADOWS", "offspring": "COMMON", "chance": 15,
//	     "source": {"file": "BeeDefinition.java", "line": 120}}
//	  ],
//	  "branches": {"honey": {"name": "Honey", "scientific": "Apis"}}
//	}
//
// Documents may be plain JSON, comment-tolerant JSON (JSONC) or YAML. The
// optional "symbol" field maps a source-local symbolic name (an enum constant)
// to the species id; it only assists reference resolution and is removed by
// [ModRecords.StripSymbols] once all mutations of the run have been resolved.
//
// Load validates structure only. Malformed records (missing ids or names,
// mutations without parents, chances outside 0-100) abort loading with an
// INVALID_RECORD error. Data-quality problems such as references that do not
// resolve are left to the later stages.
package records
