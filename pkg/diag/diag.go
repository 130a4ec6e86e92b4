// Package diag collects data-quality diagnostics produced by a pipeline run.
//
// Problems such as an unresolved mutation reference or a species id declared
// by two mods never abort a run. Each stage records a [Diagnostic] in the run's
// [Report] and carries on, so a run always yields a usable dataset together
// with an account of what was skipped, collided or forced.
//
// Diagnostic kinds reuse the machine-readable codes from the errors package;
// [Diagnostic.Err] converts a diagnostic into a structured error when a caller
// wants to escalate it (for example under a strict collision policy).
package diag

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/beetree/pkg/errors"
)

// Kind identifies the category of a diagnostic.
type Kind = errors.Code

// Diagnostic kinds recorded by the pipeline.
const (
	UnresolvedReference      Kind = errors.ErrCodeUnresolvedReference
	IDCollision              Kind = errors.ErrCodeIDCollision
	BranchConflict           Kind = errors.ErrCodeBranchConflict
	DanglingParentReference  Kind = errors.ErrCodeDanglingParent
	NonTerminatingRelaxation Kind = errors.ErrCodeNonTerminatingRelaxation
	GenerationOrder          Kind = errors.ErrCodeGenerationOrder
	InvalidRecord            Kind = errors.ErrCodeInvalidRecord
)

// Location points at the source text an extractor read a record from.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line,omitempty"`
}

// String formats the location as file:line, or just file when the line is unknown.
func (l Location) String() string {
	if l.Line > 0 {
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
	return l.File
}

// Diagnostic is a single recovered data-quality problem.
type Diagnostic struct {
	Kind    Kind   `json:"kind"`
	Subject string `json:"subject"` // species id or reference the problem is about
	Message string `json:"message"`

	Source      *Location `json:"source,omitempty"`
	Mods        []string  `json:"mods,omitempty"`        // contributing mods (collisions)
	Suggestions []string  `json:"suggestions,omitempty"` // near misses for unresolved references
}

// String renders the diagnostic as a single log-friendly line.
func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", d.Kind, d.Subject, d.Message)
	if d.Source != nil {
		fmt.Fprintf(&b, " (%s)", d.Source)
	}
	if len(d.Suggestions) > 0 {
		fmt.Fprintf(&b, " [did you mean %s?]", strings.Join(d.Suggestions, ", "))
	}
	return b.String()
}

// Err converts the diagnostic into a structured error with the same code.
func (d Diagnostic) Err() error {
	return errors.New(d.Kind, "%s: %s", d.Subject, d.Message)
}

// Report accumulates diagnostics in the order they were recorded.
// The zero value is ready to use. A Report is owned by a single pipeline run
// and is not safe for concurrent use.
type Report struct {
	items []Diagnostic
}

// Add records a diagnostic.
func (r *Report) Add(d Diagnostic) {
	r.items = append(r.items, d)
}

// Addf records a diagnostic built from a kind, subject and formatted message.
func (r *Report) Addf(kind Kind, subject, format string, args ...any) {
	r.Add(Diagnostic{Kind: kind, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

// Merge appends all diagnostics from other.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.items = append(r.items, other.items...)
}

// Items returns a copy of the recorded diagnostics.
func (r *Report) Items() []Diagnostic { return slices.Clone(r.items) }

// Len returns the total number of diagnostics.
func (r *Report) Len() int { return len(r.items) }

// Empty reports whether nothing was recorded.
func (r *Report) Empty() bool { return len(r.items) == 0 }

// Count returns the number of diagnostics of the given kind.
func (r *Report) Count(kind Kind) int {
	n := 0
	for _, d := range r.items {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Filter returns the diagnostics of the given kind.
func (r *Report) Filter(kind Kind) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.items {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Counts returns the per-kind totals.
func (r *Report) Counts() map[Kind]int {
	counts := make(map[Kind]int)
	for _, d := range r.items {
		counts[d.Kind]++
	}
	return counts
}

// Summary renders the per-kind totals sorted by kind, e.g.
// "ID_COLLISION=1 UNRESOLVED_REFERENCE=3". Returns "none" for an empty report.
func (r *Report) Summary() string {
	if r.Empty() {
		return "none"
	}
	counts := r.Counts()
	parts := make([]string, 0, len(counts))
	for _, k := range slices.Sorted(maps.Keys(counts)) {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}
