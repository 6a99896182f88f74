// Package doc defines the shared in-memory document model the engine
// operates on: ordered paragraphs of formatted runs, plus tables of rows of
// cells of paragraphs. Every dialect adapter loads into and saves from this
// one shape, so the segmentation and reconstruction algorithms are written
// exactly once.
//
// Mirroring native word-processor enumeration, Document.Paragraphs lists ALL
// paragraphs in body order, including those physically nested inside table
// cells (the same *Paragraph appears both in the flat list and in its cell).
// Structural handles, not pointer identity, are how the walker tells the two
// apart.
package doc

import (
	"fmt"
	"strings"
)

// Attrs is the run-level formatting attribute set.
// The zero value means unformatted text.
type Attrs struct {
	Bold      bool `json:"bold,omitempty"`
	Italic    bool `json:"italic,omitempty"`
	Underline bool `json:"underline,omitempty"`
}

// IsZero returns true if no attribute is set.
func (a Attrs) IsZero() bool {
	return !a.Bold && !a.Italic && !a.Underline
}

// Run is a contiguous text span sharing one attribute set.
type Run struct {
	Text  string `json:"text"`
	Attrs Attrs  `json:"attrs,omitempty"`
}

// Paragraph is the atomic translatable container: an ordered run list and an
// optional paragraph style name. ExternalID carries a dialect-assigned
// segment identifier (e.g. an XLIFF trans-unit id) and must round-trip
// unchanged; it is empty for dialects that have none.
type Paragraph struct {
	Style      string
	Runs       []*Run
	ExternalID string

	// handle is the stable structural index assigned by the owning
	// Document. 0 means unassigned.
	handle int
}

// Handle returns the paragraph's structural handle (0 if unassigned).
func (p *Paragraph) Handle() int {
	return p.handle
}

// Text returns the concatenation of the paragraph's run texts.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// IsEmpty returns true if the paragraph holds no visible text.
func (p *Paragraph) IsEmpty() bool {
	return strings.TrimSpace(p.Text()) == ""
}

// SetRuns replaces the paragraph's runs.
func (p *Paragraph) SetRuns(runs []*Run) {
	p.Runs = runs
}

// Cell holds the ordered paragraphs of one table cell.
type Cell struct {
	Paragraphs []*Paragraph
}

// Text returns the cell's paragraphs joined by newlines.
func (c *Cell) Text() string {
	parts := make([]string, len(c.Paragraphs))
	for i, p := range c.Paragraphs {
		parts[i] = p.Text()
	}
	return strings.Join(parts, "\n")
}

// Row is one table row.
type Row struct {
	Cells []*Cell
}

// Table is an ordered grid of rows of cells. Row and column layout is never
// rewritten by the engine; only leaf paragraph text changes.
type Table struct {
	Rows []*Row
}

// Document is the shared document shape.
type Document struct {
	// Paragraphs is the flat body-order enumeration of every paragraph,
	// including paragraphs inside table cells.
	Paragraphs []*Paragraph

	// Tables in body order.
	Tables []*Table

	// Styles is the set of paragraph style names the document defines.
	Styles map[string]bool

	// Attributes carries dialect metadata (source path, language pair, ...).
	Attributes map[string]string

	// Notices records containers a dialect adapter could not read fully at
	// load time. The import walk turns each notice into a warning.
	Notices []string

	nextHandle int
}

// New creates an empty document.
func New() *Document {
	return &Document{
		Styles:     make(map[string]bool),
		Attributes: make(map[string]string),
	}
}

// AddNotice records a load-time container problem for the import report.
func (d *Document) AddNotice(format string, args ...any) {
	d.Notices = append(d.Notices, fmt.Sprintf(format, args...))
}

// DefineStyle registers a paragraph style name.
func (d *Document) DefineStyle(name string) {
	if name == "" {
		return
	}
	if d.Styles == nil {
		d.Styles = make(map[string]bool)
	}
	d.Styles[name] = true
}

// HasStyle returns true if the document defines the style name.
func (d *Document) HasStyle(name string) bool {
	return d.Styles[name]
}

// AddParagraph appends a body paragraph and returns it.
// The style name is registered as a document style.
func (d *Document) AddParagraph(style string, runs ...*Run) *Paragraph {
	p := &Paragraph{Style: style, Runs: runs}
	d.assignHandle(p)
	d.DefineStyle(style)
	d.Paragraphs = append(d.Paragraphs, p)
	return p
}

// AddTable appends an empty rows×cols table and returns it.
func (d *Document) AddTable(rows, cols int) *Table {
	t := &Table{}
	for r := 0; r < rows; r++ {
		row := &Row{}
		for c := 0; c < cols; c++ {
			row.Cells = append(row.Cells, &Cell{})
		}
		t.Rows = append(t.Rows, row)
	}
	d.Tables = append(d.Tables, t)
	return t
}

// AddCellParagraph appends a paragraph to a table cell. The paragraph also
// joins the flat Paragraphs list, matching native enumeration.
func (d *Document) AddCellParagraph(cell *Cell, style string, runs ...*Run) *Paragraph {
	p := &Paragraph{Style: style, Runs: runs}
	d.assignHandle(p)
	d.DefineStyle(style)
	cell.Paragraphs = append(cell.Paragraphs, p)
	d.Paragraphs = append(d.Paragraphs, p)
	return p
}

// EnsureHandles assigns structural handles to any paragraph that lacks one.
// Dialect adapters call this after building a document by hand.
func (d *Document) EnsureHandles() {
	for _, p := range d.Paragraphs {
		if p != nil && p.handle == 0 {
			d.assignHandle(p)
		}
	}
	for _, t := range d.Tables {
		for _, row := range t.Rows {
			for _, cell := range row.Cells {
				for _, p := range cell.Paragraphs {
					if p != nil && p.handle == 0 {
						d.assignHandle(p)
					}
				}
			}
		}
	}
}

func (d *Document) assignHandle(p *Paragraph) {
	d.nextHandle++
	p.handle = d.nextHandle
}

// TableParagraphHandles returns the set of structural handles belonging to
// paragraphs reachable through tables. The walker records this set before
// the flat pass so table paragraphs are excluded without reserving an
// emission slot.
func (d *Document) TableParagraphHandles() map[int]bool {
	set := make(map[int]bool)
	for _, t := range d.Tables {
		for _, row := range t.Rows {
			for _, cell := range row.Cells {
				for _, p := range cell.Paragraphs {
					if p != nil {
						set[p.handle] = true
					}
				}
			}
		}
	}
	return set
}
