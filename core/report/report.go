// Package report accumulates non-fatal issues encountered during an import
// or export pass. A pass either aborts on a structural read failure or runs
// to completion; everything recovered along the way lands here.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/textloom/textloom/core/tag"
)

// Code classifies a recovered issue.
type Code string

// Warning codes, one per recovered failure mode.
const (
	// CodeContainerSkipped indicates one paragraph or cell was unreadable
	// and was skipped; the import continued.
	CodeContainerSkipped Code = "CONTAINER_SKIPPED"

	// CodeReconstructionFallback indicates a segment's target text failed to
	// decode at export time and plain tag-stripped text was written instead.
	CodeReconstructionFallback Code = "RECONSTRUCTION_FALLBACK"

	// CodeStyleNotFound indicates the destination document lacks a style
	// name captured at import; the paragraph was left unstyled.
	CodeStyleNotFound Code = "STYLE_NOT_FOUND"

	// CodeTagCountMismatch indicates source and target disagree on per-tag
	// counts. Soft warning only: translations may legitimately add or drop
	// emphasis.
	CodeTagCountMismatch Code = "TAG_COUNT_MISMATCH"
)

// validCodes is the set of valid warning codes.
var validCodes = map[Code]bool{
	CodeContainerSkipped:       true,
	CodeReconstructionFallback: true,
	CodeStyleNotFound:          true,
	CodeTagCountMismatch:       true,
}

// IsValid returns true if the code is valid.
func (c Code) IsValid() bool {
	return validCodes[c]
}

// Warning describes a single recovered issue.
type Warning struct {
	// Code classifies the issue.
	Code Code `json:"code"`

	// SequenceIndex is the affected segment, or -1 when no segment had been
	// assigned yet (e.g. a container skipped before emission).
	SequenceIndex int `json:"sequence_index"`

	// Message is the human-readable detail.
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.SequenceIndex >= 0 {
		return fmt.Sprintf("[%s] segment %d: %s", w.Code, w.SequenceIndex, w.Message)
	}
	return fmt.Sprintf("[%s] %s", w.Code, w.Message)
}

// Report collects the warnings of one pass.
type Report struct {
	// Operation names the pass (e.g. "import", "export").
	Operation string `json:"operation"`

	// Warnings in the order they were recorded.
	Warnings []Warning `json:"warnings,omitempty"`
}

// New creates an empty report for the named operation.
func New(operation string) *Report {
	return &Report{Operation: operation}
}

// Add records a warning.
func (r *Report) Add(code Code, sequenceIndex int, format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, Warning{
		Code:          code,
		SequenceIndex: sequenceIndex,
		Message:       fmt.Sprintf(format, args...),
	})
}

// AddTagMismatches records source-vs-target tag-count differences for one
// segment. These are soft warnings: a translation may legitimately add or
// drop emphasis.
func (r *Report) AddTagMismatches(sequenceIndex int, mismatches []tag.Mismatch) {
	for _, m := range mismatches {
		r.Add(CodeTagCountMismatch, sequenceIndex,
			"tag <%s> count %d in source, %d in target", m.Tag, m.Source, m.Target)
	}
}

// HasWarnings returns true if any warning was recorded.
func (r *Report) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// CountByCode returns the number of warnings recorded per code.
func (r *Report) CountByCode() map[Code]int {
	counts := make(map[Code]int)
	for _, w := range r.Warnings {
		counts[w.Code]++
	}
	return counts
}

// AffectedSegments returns the sorted, deduplicated sequence indices of
// segments that produced warnings with the given code.
func (r *Report) AffectedSegments(code Code) []int {
	seen := make(map[int]bool)
	var out []int
	for _, w := range r.Warnings {
		if w.Code != code || w.SequenceIndex < 0 || seen[w.SequenceIndex] {
			continue
		}
		seen[w.SequenceIndex] = true
		out = append(out, w.SequenceIndex)
	}
	sort.Ints(out)
	return out
}

// Summary renders the end-of-pass report: per-code counts plus affected
// sequence indices.
func (r *Report) Summary() string {
	if !r.HasWarnings() {
		return fmt.Sprintf("%s: no warnings", r.Operation)
	}

	counts := r.CountByCode()
	codes := make([]string, 0, len(counts))
	for c := range counts {
		codes = append(codes, string(c))
	}
	sort.Strings(codes)

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d warning(s)", r.Operation, len(r.Warnings))
	for _, c := range codes {
		affected := r.AffectedSegments(Code(c))
		if len(affected) > 0 {
			fmt.Fprintf(&b, "\n  %s: %d (segments %s)", c, counts[Code(c)], joinInts(affected))
		} else {
			fmt.Fprintf(&b, "\n  %s: %d", c, counts[Code(c)])
		}
	}
	return b.String()
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}
