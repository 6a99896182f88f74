// Package docjson implements the engine's native JSON document dialect: the
// shared paragraph/run shape serialized directly, with table cells
// referencing paragraphs by flat-list index so shared identity survives a
// round-trip.
package docjson

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/textloom/textloom/core/doc"
	apperrors "github.com/textloom/textloom/core/errors"
	"github.com/textloom/textloom/internal/formats"
)

// FormatMarker identifies a textloom document file.
const FormatMarker = "textloom/document"

// Handler implements the docjson dialect.
type Handler struct{}

// Register registers this dialect.
func Register() {
	formats.Register(&Handler{})
}

func init() {
	Register()
}

// Name implements Dialect.
func (h *Handler) Name() string { return "docjson" }

// fileDoc is the on-disk schema.
type fileDoc struct {
	Format     string            `json:"format"`
	Styles     []string          `json:"styles,omitempty"`
	Paragraphs []filePara        `json:"paragraphs"`
	Tables     []fileTable       `json:"tables,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type filePara struct {
	Style      string    `json:"style,omitempty"`
	ExternalID string    `json:"external_id,omitempty"`
	Runs       []fileRun `json:"runs"`
}

type fileRun struct {
	Text      string `json:"text"`
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
}

type fileTable struct {
	// Rows hold cells; each cell lists paragraph indices into the flat
	// paragraphs array.
	Rows [][]fileCell `json:"rows"`
}

type fileCell struct {
	Paragraphs []int `json:"paragraphs"`
}

// Detect implements Dialect.Detect.
func (h *Handler) Detect(path string) (*formats.DetectResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return &formats.DetectResult{Detected: false, Reason: "cannot stat: " + err.Error()}, nil
	}
	if info.IsDir() {
		return &formats.DetectResult{Detected: false, Reason: "path is a directory"}, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".docjson" {
		return &formats.DetectResult{Detected: false, Reason: "not a .json/.docjson file"}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return &formats.DetectResult{Detected: false, Reason: "cannot read: " + err.Error()}, nil
	}
	if !strings.Contains(string(data), FormatMarker) {
		return &formats.DetectResult{Detected: false, Reason: "format marker missing"}, nil
	}
	return &formats.DetectResult{Detected: true, Dialect: h.Name(), Reason: "textloom document marker detected"}, nil
}

// Load implements Dialect.Load.
func (h *Handler) Load(path string) (*doc.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewStructuralRead(path, "read failed", err)
	}

	var f fileDoc
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, apperrors.NewParse("docjson", path, err.Error())
	}
	if f.Format != FormatMarker {
		return nil, apperrors.NewParse("docjson", path, "not a textloom document")
	}

	d := doc.New()
	for _, s := range f.Styles {
		d.DefineStyle(s)
	}
	for k, v := range f.Attributes {
		d.Attributes[k] = v
	}

	paras := make([]*doc.Paragraph, len(f.Paragraphs))
	for i, fp := range f.Paragraphs {
		p := &doc.Paragraph{Style: fp.Style, ExternalID: fp.ExternalID}
		for _, fr := range fp.Runs {
			p.Runs = append(p.Runs, &doc.Run{
				Text:  fr.Text,
				Attrs: doc.Attrs{Bold: fr.Bold, Italic: fr.Italic, Underline: fr.Underline},
			})
		}
		d.DefineStyle(fp.Style)
		paras[i] = p
	}
	d.Paragraphs = paras

	for ti, ft := range f.Tables {
		t := &doc.Table{}
		for _, frow := range ft.Rows {
			row := &doc.Row{}
			for _, fc := range frow {
				cell := &doc.Cell{}
				for _, idx := range fc.Paragraphs {
					if idx < 0 || idx >= len(paras) {
						return nil, apperrors.NewParse("docjson", path,
							fmt.Sprintf("table %d references paragraph %d out of range", ti, idx))
					}
					cell.Paragraphs = append(cell.Paragraphs, paras[idx])
				}
				row.Cells = append(row.Cells, cell)
			}
			t.Rows = append(t.Rows, row)
		}
		d.Tables = append(d.Tables, t)
	}

	d.EnsureHandles()
	return d, nil
}

// Save implements Dialect.Save.
func (h *Handler) Save(path string, d *doc.Document) error {
	if d == nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "docjson: nil document")
	}

	f := fileDoc{Format: FormatMarker}
	if len(d.Attributes) > 0 {
		f.Attributes = d.Attributes
	}
	for s := range d.Styles {
		f.Styles = append(f.Styles, s)
	}
	sort.Strings(f.Styles)

	index := make(map[*doc.Paragraph]int, len(d.Paragraphs))
	for i, p := range d.Paragraphs {
		index[p] = i
		fp := filePara{Style: p.Style, ExternalID: p.ExternalID}
		for _, r := range p.Runs {
			fp.Runs = append(fp.Runs, fileRun{
				Text:      r.Text,
				Bold:      r.Attrs.Bold,
				Italic:    r.Attrs.Italic,
				Underline: r.Attrs.Underline,
			})
		}
		f.Paragraphs = append(f.Paragraphs, fp)
	}

	for _, t := range d.Tables {
		ft := fileTable{}
		for _, row := range t.Rows {
			var frow []fileCell
			for _, cell := range row.Cells {
				fc := fileCell{}
				for _, p := range cell.Paragraphs {
					idx, ok := index[p]
					if !ok {
						return apperrors.Wrap(apperrors.ErrInvalidInput,
							"docjson: cell paragraph missing from flat list")
					}
					fc.Paragraphs = append(fc.Paragraphs, idx)
				}
				frow = append(frow, fc)
			}
			ft.Rows = append(ft.Rows, frow)
		}
		f.Tables = append(f.Tables, ft)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, "docjson: marshal")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return apperrors.Wrap(err, "docjson: write")
	}
	return nil
}
