// Package rebuild implements the reconstructor: the inverse of the walk. It
// replays the walker's traversal over the original document skeleton and
// replaces each visited container's runs with the decoded target text of the
// segment that container produced at import.
package rebuild

import (
	"github.com/textloom/textloom/core/doc"
	apperrors "github.com/textloom/textloom/core/errors"
	"github.com/textloom/textloom/core/report"
	"github.com/textloom/textloom/core/segment"
	"github.com/textloom/textloom/core/tag"
	"github.com/textloom/textloom/core/walk"
)

// Policy decides what an untranslated (or empty-target) segment writes into
// its output container. The flag is required; there is no implicit default
// inside the engine.
type Policy string

// Policies.
const (
	// PolicyCopySource writes the source text.
	PolicyCopySource Policy = "copy-source"
	// PolicyLeaveEmpty clears the container.
	PolicyLeaveEmpty Policy = "leave-empty"
)

// IsValid returns true if the policy is one of the defined values.
func (p Policy) IsValid() bool {
	return p == PolicyCopySource || p == PolicyLeaveEmpty
}

// Options configures one export pass.
type Options struct {
	// Policy is required; Reconstruct rejects the zero value.
	Policy Policy
}

// Reconstruct rewrites the document skeleton in place from the edited store
// and returns the end-of-pass report. The traversal mirrors the walk exactly
// (same table-paragraph exclusion, same order), so container N receives
// segment N. Table layout and merges are never rewritten; only leaf text and
// paragraph styles change.
//
// A segment whose target fails to decode falls back to plain tag-stripped
// text and records a warning; only a missing document body aborts.
func Reconstruct(d *doc.Document, st *segment.Store, opts Options) (*report.Report, error) {
	if !opts.Policy.IsValid() {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput,
			"reconstruct: policy must be set explicitly (%q or %q)", PolicyCopySource, PolicyLeaveEmpty)
	}
	if st == nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "reconstruct: nil store")
	}

	trav, err := walk.Traverse(d)
	if err != nil {
		return nil, err
	}
	if len(trav.Containers) != st.Len() {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput,
			"reconstruct: document yields %d containers but store holds %d segments; re-import required",
			len(trav.Containers), st.Len())
	}

	rep := report.New("export")
	grammar := st.Grammar()

	for i, c := range trav.Containers {
		seg, ok := st.Get(i)
		if !ok {
			return nil, apperrors.NewNotFound("segment", c.Position.String())
		}

		text := outputText(seg, opts.Policy)
		runs, decodeErr := decodeForVersion(grammar, seg.GrammarVersion, text)
		if decodeErr != nil {
			rep.Add(report.CodeReconstructionFallback, seg.Index,
				"target does not decode (%v); wrote plain text", decodeErr)
			if plain := tag.Strip(text); plain != "" {
				runs = []*doc.Run{{Text: plain}}
			} else {
				runs = nil
			}
		}
		c.Paragraph.SetRuns(runs)

		applyStyle(d, c.Paragraph, seg, rep)
	}

	return rep, nil
}

// outputText selects target or source per the status and policy: segments
// with a non-empty target that have left Untranslated write the target;
// everything else follows the policy.
func outputText(seg *segment.Segment, policy Policy) string {
	effective := seg.Status
	if effective == segment.StatusLocked {
		effective = seg.PrevStatus
	}
	if effective != segment.StatusUntranslated && effective != "" && seg.Target != "" {
		return seg.Target
	}
	if policy == PolicyCopySource {
		return seg.Source
	}
	return ""
}

// decodeForVersion decodes text with the grammar version the segment was
// imported under, falling back to the store grammar when the version is the
// current one.
func decodeForVersion(current *tag.Grammar, version int, text string) ([]*doc.Run, error) {
	g := current
	if version != 0 && version != current.Version {
		hist, err := tag.ForVersion(version)
		if err != nil {
			return nil, err
		}
		g = hist
	}
	return g.Decode(text)
}

// applyStyle restores the style captured at import, best-effort: a style the
// destination does not define is skipped with a warning, never an error.
func applyStyle(d *doc.Document, p *doc.Paragraph, seg *segment.Segment, rep *report.Report) {
	if seg.Style == "" {
		return
	}
	if !d.HasStyle(seg.Style) {
		rep.Add(report.CodeStyleNotFound, seg.Index, "style %q not defined in destination", seg.Style)
		p.Style = ""
		return
	}
	p.Style = seg.Style
}
