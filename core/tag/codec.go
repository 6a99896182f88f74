package tag

import (
	"strings"

	"github.com/textloom/textloom/core/doc"
	apperrors "github.com/textloom/textloom/core/errors"
)

// tokenKind classifies scanner output.
type tokenKind int

const (
	tokenText tokenKind = iota
	tokenOpen
	tokenClose
)

// token is one lexical unit of tagged text.
type token struct {
	kind   tokenKind
	name   string // tag name for open/close tokens
	text   string // literal text for text tokens
	offset int    // byte offset in the input
}

// scan splits tagged text into text and tag tokens. A '<' that does not open
// a syntactically complete tag token is literal text; a complete tag token
// with a name outside the grammar is a hard error.
func (g *Grammar) scan(text string) ([]token, error) {
	var tokens []token
	var lit strings.Builder
	litStart := 0

	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, token{kind: tokenText, text: lit.String(), offset: litStart})
			lit.Reset()
		}
	}

	i := 0
	for i < len(text) {
		c := text[i]
		if c != '<' {
			if lit.Len() == 0 {
				litStart = i
			}
			lit.WriteByte(c)
			i++
			continue
		}

		name, closing, width, ok := lexTag(text[i:])
		if !ok {
			// Not tag-shaped: a literal angle bracket.
			if lit.Len() == 0 {
				litStart = i
			}
			lit.WriteByte(c)
			i++
			continue
		}
		if !g.Known(name) {
			return nil, apperrors.NewTagValidation(name, i, "unknown tag")
		}

		flush()
		kind := tokenOpen
		if closing {
			kind = tokenClose
		}
		tokens = append(tokens, token{kind: kind, name: name, offset: i})
		i += width
	}
	flush()
	return tokens, nil
}

// lexTag attempts to read a <name> or </name> token at the start of s.
// Returns the tag name, whether it is a closing tag, and the token width.
func lexTag(s string) (name string, closing bool, width int, ok bool) {
	if len(s) < 3 || s[0] != '<' {
		return "", false, 0, false
	}
	j := 1
	if s[j] == '/' {
		closing = true
		j++
	}
	start := j
	for j < len(s) && isTagNameByte(s[j]) {
		j++
	}
	if j == start || j >= len(s) || s[j] != '>' {
		return "", false, 0, false
	}
	return s[start:j], closing, j + 1, true
}

func isTagNameByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Encode converts a container's runs into tagged text. Adjacent runs with
// identical attribute sets merge into one tag span so human editors see the
// fewest tags possible. Runs with empty text are dropped.
func (g *Grammar) Encode(runs []*doc.Run) string {
	merged := MergeRuns(runs)

	var b strings.Builder
	for _, r := range merged {
		names := g.tagsFor(r.Attrs)
		for _, n := range names {
			b.WriteByte('<')
			b.WriteString(n)
			b.WriteByte('>')
		}
		b.WriteString(r.Text)
		for k := len(names) - 1; k >= 0; k-- {
			b.WriteString("</")
			b.WriteString(names[k])
			b.WriteByte('>')
		}
	}
	return b.String()
}

// MergeRuns collapses adjacent runs sharing one attribute set and drops
// empty runs. The concatenated text is preserved exactly.
func MergeRuns(runs []*doc.Run) []*doc.Run {
	var out []*doc.Run
	for _, r := range runs {
		if r == nil || r.Text == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Attrs == r.Attrs {
			out[n-1] = &doc.Run{Text: out[n-1].Text + r.Text, Attrs: r.Attrs}
			continue
		}
		out = append(out, &doc.Run{Text: r.Text, Attrs: r.Attrs})
	}
	return out
}

// Decode converts tagged text back into a run specification. Tags must be
// well-formed: every opening tag closed exactly once, stack discipline
// respected. Malformed input is rejected with an error naming the offending
// tag and its approximate offset.
func (g *Grammar) Decode(text string) ([]*doc.Run, error) {
	tokens, err := g.scan(text)
	if err != nil {
		return nil, err
	}

	type frame struct {
		name   string
		offset int
	}
	var stack []frame
	var runs []*doc.Run

	current := func() doc.Attrs {
		var a doc.Attrs
		for _, f := range stack {
			ta, _ := g.attrsFor(f.name)
			a.Bold = a.Bold || ta.Bold
			a.Italic = a.Italic || ta.Italic
			a.Underline = a.Underline || ta.Underline
		}
		return a
	}

	for _, tok := range tokens {
		switch tok.kind {
		case tokenOpen:
			stack = append(stack, frame{name: tok.name, offset: tok.offset})
		case tokenClose:
			if len(stack) == 0 {
				return nil, apperrors.NewTagValidation(tok.name, tok.offset, "closing tag without matching opening tag")
			}
			top := stack[len(stack)-1]
			if top.name != tok.name {
				return nil, apperrors.NewTagValidation(tok.name, tok.offset,
					"closing tag does not match most recently opened tag <"+top.name+">")
			}
			stack = stack[:len(stack)-1]
		case tokenText:
			attrs := current()
			if n := len(runs); n > 0 && runs[n-1].Attrs == attrs {
				runs[n-1].Text += tok.text
			} else {
				runs = append(runs, &doc.Run{Text: tok.text, Attrs: attrs})
			}
		}
	}

	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return nil, apperrors.NewTagValidation(top.name, top.offset, "missing closing tag")
	}
	return runs, nil
}

// Strip removes every tag-shaped token from text, balanced or not, leaving
// plain text. It is the export fallback for targets whose tags no longer
// decode.
func Strip(text string) string {
	var b strings.Builder
	i := 0
	for i < len(text) {
		if text[i] == '<' {
			if _, _, width, ok := lexTag(text[i:]); ok {
				i += width
				continue
			}
		}
		b.WriteByte(text[i])
		i++
	}
	return b.String()
}
