// Package tag implements the inline tag grammar: the versioned vocabulary of
// paired markup tags that carries run-level formatting through a text-only
// editing step, plus the encoder, decoder, and validator built on it.
//
// The tag alphabet is fixed and chosen to be disjoint from characters that
// legitimately occur in translated text: a '<' only forms a tag when it opens
// a syntactically complete <name> or </name> token. A tag-shaped token with
// an unknown name is always an error, never silently coerced.
package tag

import (
	"fmt"

	"github.com/textloom/textloom/core/doc"
)

// CurrentVersion is the grammar version applied to newly imported text.
const CurrentVersion = 1

// tagDef binds one tag name to one run attribute set.
type tagDef struct {
	Name  string
	Attrs doc.Attrs
}

// Grammar is an injective mapping between attribute sets and tag name pairs.
// Grammars are versioned so historical saved text stays decodable.
type Grammar struct {
	Version int

	defs    []tagDef
	byName  map[string]doc.Attrs
	special map[doc.Attrs]string // exact attribute sets with a combined tag
}

// v1 tag vocabulary: one tag per single attribute plus a combined name for
// the bold+italic pair. Other combinations nest multiple tags.
var v1Defs = []tagDef{
	{Name: "b", Attrs: doc.Attrs{Bold: true}},
	{Name: "i", Attrs: doc.Attrs{Italic: true}},
	{Name: "u", Attrs: doc.Attrs{Underline: true}},
	{Name: "bi", Attrs: doc.Attrs{Bold: true, Italic: true}},
}

var grammars = map[int]*Grammar{
	1: newGrammar(1, v1Defs),
}

func newGrammar(version int, defs []tagDef) *Grammar {
	g := &Grammar{
		Version: version,
		defs:    defs,
		byName:  make(map[string]doc.Attrs, len(defs)),
		special: make(map[doc.Attrs]string),
	}
	for _, d := range defs {
		g.byName[d.Name] = d.Attrs
	}
	// Combined tags cover exactly one multi-attribute set each.
	g.special[doc.Attrs{Bold: true, Italic: true}] = "bi"
	return g
}

// Default returns the grammar for CurrentVersion.
func Default() *Grammar {
	return grammars[CurrentVersion]
}

// ForVersion returns the grammar for a historical version.
func ForVersion(version int) (*Grammar, error) {
	g, ok := grammars[version]
	if !ok {
		return nil, fmt.Errorf("unknown tag grammar version %d", version)
	}
	return g, nil
}

// Known returns true if name belongs to the grammar.
func (g *Grammar) Known(name string) bool {
	_, ok := g.byName[name]
	return ok
}

// attrsFor returns the attribute set a tag name maps to.
func (g *Grammar) attrsFor(name string) (doc.Attrs, bool) {
	a, ok := g.byName[name]
	return a, ok
}

// tagsFor returns the ordered tag names that encode an attribute set.
// Bold+italic collapses to the combined tag; remaining attributes nest.
func (g *Grammar) tagsFor(a doc.Attrs) []string {
	var names []string
	if a.Bold && a.Italic {
		names = append(names, g.special[doc.Attrs{Bold: true, Italic: true}])
	} else {
		if a.Bold {
			names = append(names, "b")
		}
		if a.Italic {
			names = append(names, "i")
		}
	}
	if a.Underline {
		names = append(names, "u")
	}
	return names
}
