package tag

import (
	"sort"

	apperrors "github.com/textloom/textloom/core/errors"
)

// Counts maps tag names to the number of opened spans of that tag.
type Counts map[string]int

// Validate checks that text contains only well-formed tags from the grammar:
// every opening tag has exactly one closing tag, a closing tag closes the
// most recently opened unclosed tag of the same name, and all names are
// known. It returns per-tag-name counts so callers can surface
// source-vs-target count drift as a soft warning.
//
// Validation is a hard precondition for promoting a segment to Translated or
// Approved; it never blocks saving a Draft.
func (g *Grammar) Validate(text string) (Counts, error) {
	tokens, err := g.scan(text)
	if err != nil {
		return nil, err
	}

	counts := make(Counts)
	type frame struct {
		name   string
		offset int
	}
	var stack []frame

	for _, tok := range tokens {
		switch tok.kind {
		case tokenOpen:
			counts[tok.name]++
			stack = append(stack, frame{name: tok.name, offset: tok.offset})
		case tokenClose:
			if len(stack) == 0 {
				return counts, apperrors.NewTagValidation(tok.name, tok.offset, "closing tag without matching opening tag")
			}
			top := stack[len(stack)-1]
			if top.name != tok.name {
				return counts, apperrors.NewTagValidation(tok.name, tok.offset,
					"closing tag does not match most recently opened tag <"+top.name+">")
			}
			stack = stack[:len(stack)-1]
		}
	}

	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return counts, apperrors.NewTagValidation(top.name, top.offset, "missing closing tag")
	}
	return counts, nil
}

// Mismatch reports a per-tag count difference between source and target.
type Mismatch struct {
	Tag    string
	Source int
	Target int
}

// CompareCounts returns the tags whose counts differ between source and
// target, sorted by tag name. An empty result means the tag profiles match.
func CompareCounts(source, target Counts) []Mismatch {
	names := make(map[string]bool)
	for n := range source {
		names[n] = true
	}
	for n := range target {
		names[n] = true
	}

	var out []Mismatch
	for n := range names {
		if source[n] != target[n] {
			out = append(out, Mismatch{Tag: n, Source: source[n], Target: target[n]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}
