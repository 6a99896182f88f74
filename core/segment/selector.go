package segment

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	apperrors "github.com/textloom/textloom/core/errors"
)

// Selector picks a subset of sequence indices from expressions like
// "3", "2-9" or "1, 4, 7-9". An empty expression selects every segment.
type Selector struct {
	all    bool
	ranges []indexRange
}

type indexRange struct {
	start, end int
}

// selRange is one parsed "N" or "N-M" term.
type selRange struct {
	Start int  `parser:"@Number"`
	End   *int `parser:"( '-' @Number )?"`
}

// selList is the full selector expression.
type selList struct {
	Ranges []*selRange `parser:"@@ ( ',' @@ )*"`
}

// selectorLexer tokenizes selector expressions.
var selectorLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `\d+`},
	{Name: "Dash", Pattern: `-`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// selectorParser parses selector expressions.
var selectorParser = participle.MustBuild[selList](
	participle.Lexer(selectorLexer),
	participle.Elide("Whitespace"),
)

// ParseSelector parses a segment range selector.
func ParseSelector(input string) (*Selector, error) {
	if input == "" {
		return &Selector{all: true}, nil
	}

	parsed, err := selectorParser.ParseString("", input)
	if err != nil {
		return nil, apperrors.NewParse("selector", "", err.Error())
	}

	sel := &Selector{}
	for _, r := range parsed.Ranges {
		end := r.Start
		if r.End != nil {
			end = *r.End
		}
		if end < r.Start {
			return nil, apperrors.NewParse("selector", "",
				"range end before start: "+input)
		}
		sel.ranges = append(sel.ranges, indexRange{start: r.Start, end: end})
	}
	return sel, nil
}

// All returns true if the selector matches every segment.
func (s *Selector) All() bool {
	return s.all
}

// Contains returns true if the sequence index is selected.
func (s *Selector) Contains(index int) bool {
	if s.all {
		return true
	}
	for _, r := range s.ranges {
		if index >= r.start && index <= r.end {
			return true
		}
	}
	return false
}

// Select returns the store's segments matched by the selector, in order.
func (s *Selector) Select(st *Store) []*Segment {
	var out []*Segment
	for _, seg := range st.All() {
		if s.Contains(seg.Index) {
			out = append(out, seg)
		}
	}
	return out
}
