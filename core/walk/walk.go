// Package walk implements the structural walker: the single ordered
// traversal that decomposes a document into translation segments. The
// reconstructor replays the exact same traversal at export, so the Nth
// container visited on export is the container that produced segment N on
// import.
package walk

import (
	"strconv"

	"github.com/textloom/textloom/core/doc"
	apperrors "github.com/textloom/textloom/core/errors"
	"github.com/textloom/textloom/core/report"
	"github.com/textloom/textloom/core/segment"
	"github.com/textloom/textloom/core/tag"
)

// Container pairs a structural position with its paragraph.
type Container struct {
	Position  segment.Position
	Paragraph *doc.Paragraph
}

// Skip records a malformed container that was excluded from the traversal.
type Skip struct {
	Position segment.Position
	Reason   string
}

// Traversal is the deduplicated, ordered container stream of one document.
type Traversal struct {
	Containers []Container
	Skipped    []Skip
}

// Traverse produces the document's ordered container stream:
//
//  1. Record the structural handle of every paragraph reachable through
//     tables.
//  2. Flat pass: visit the document's body paragraph list in order, skipping
//     table paragraphs WITHOUT advancing any emission slot. Skipping must
//     never reserve a slot; a reserved slot here shifts every following
//     segment and silently corrupts the whole pass.
//  3. Visit tables, rows, cells in document order and take each cell
//     paragraph.
//
// Empty containers are never part of the stream. A malformed container is
// recorded as skipped and the traversal continues; only a missing document
// body fails the whole call.
func Traverse(d *doc.Document) (*Traversal, error) {
	if d == nil {
		return nil, apperrors.NewStructuralRead("", "nil document", nil)
	}
	d.EnsureHandles()
	tableHandles := d.TableParagraphHandles()

	trav := &Traversal{}

	ordinal := 0
	for _, p := range d.Paragraphs {
		if p != nil && tableHandles[p.Handle()] {
			continue
		}
		pos := segment.ParagraphAt(ordinal)
		ordinal++
		if reason := containerFault(p); reason != "" {
			trav.Skipped = append(trav.Skipped, Skip{Position: pos, Reason: reason})
			continue
		}
		if p.IsEmpty() {
			continue
		}
		trav.Containers = append(trav.Containers, Container{Position: pos, Paragraph: p})
	}

	for ti, t := range d.Tables {
		if t == nil {
			continue
		}
		for ri, row := range t.Rows {
			if row == nil {
				continue
			}
			for ci, cell := range row.Cells {
				if cell == nil {
					continue
				}
				for pi, p := range cell.Paragraphs {
					pos := segment.CellAt(ti, ri, ci, pi)
					if reason := containerFault(p); reason != "" {
						trav.Skipped = append(trav.Skipped, Skip{Position: pos, Reason: reason})
						continue
					}
					if p.IsEmpty() {
						continue
					}
					trav.Containers = append(trav.Containers, Container{Position: pos, Paragraph: p})
				}
			}
		}
	}

	return trav, nil
}

// containerFault reports why a container is unreadable, or "" if it is fine.
func containerFault(p *doc.Paragraph) string {
	if p == nil {
		return "nil paragraph"
	}
	for i, r := range p.Runs {
		if r == nil {
			return "nil run at index " + strconv.Itoa(i)
		}
	}
	return ""
}

// Walk decomposes a document into an ordered segment store. Each emitted
// container becomes exactly one segment; sequence indices are assigned in
// traversal order. Skipped containers become warnings in the report, never
// gaps in the index space.
func Walk(d *doc.Document, g *tag.Grammar) (*segment.Store, *report.Report, error) {
	trav, err := Traverse(d)
	if err != nil {
		return nil, nil, err
	}

	rep := report.New("import")
	for _, n := range d.Notices {
		rep.Add(report.CodeContainerSkipped, -1, "%s", n)
	}
	for _, sk := range trav.Skipped {
		rep.Add(report.CodeContainerSkipped, -1, "%s: %s", sk.Position, sk.Reason)
	}

	st := segment.NewStore(g)
	for i, c := range trav.Containers {
		source := g.Encode(c.Paragraph.Runs)
		seg := segment.New(i, c.Position, c.Paragraph.Style, source, g.Version)
		seg.ExternalID = c.Paragraph.ExternalID
		if err := st.Append(seg); err != nil {
			return nil, nil, apperrors.Wrap(err, "walk")
		}
	}
	return st, rep, nil
}
