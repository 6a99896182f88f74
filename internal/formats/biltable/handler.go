// Package biltable implements the bilingual-table dialect: a tab-separated
// grid with an [id | source | target] header row, the interchange shape many
// translation tools export. Each data row maps to one paragraph; the row
// identifier rides on Paragraph.ExternalID.
package biltable

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/textloom/textloom/core/doc"
	apperrors "github.com/textloom/textloom/core/errors"
	"github.com/textloom/textloom/internal/formats"
)

var headerColumns = []string{"id", "source", "target"}

// Handler implements the biltable dialect.
type Handler struct{}

// Register registers this dialect.
func Register() {
	formats.Register(&Handler{})
}

func init() {
	Register()
}

// Name implements Dialect.
func (h *Handler) Name() string { return "biltable" }

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
	if ext != ".tsv" && ext != ".tab" {
		return &formats.DetectResult{Detected: false, Reason: "not a tab-separated file"}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return &formats.DetectResult{Detected: false, Reason: "cannot read: " + err.Error()}, nil
	}
	first, _, _ := strings.Cut(string(data), "\n")
	if matchesHeader(strings.Split(strings.TrimRight(first, "\r"), "\t")) {
		return &formats.DetectResult{Detected: true, Dialect: h.Name(), Reason: "bilingual table header detected"}, nil
	}
	return &formats.DetectResult{Detected: false, Reason: "missing id/source/target header"}, nil
}

func matchesHeader(cells []string) bool {
	if len(cells) < len(headerColumns) {
		return false
	}
	for i, want := range headerColumns {
		if !strings.EqualFold(strings.TrimSpace(cells[i]), want) {
			return false
		}
	}
	return true
}

// Load implements Dialect.Load. Source cells become paragraphs; when a row
// already carries a target, the target is the working text and the source is
// stashed for Save.
func (h *Handler) Load(path string) (*doc.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStructuralRead(path, "open failed", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, apperrors.NewParse("biltable", path, err.Error())
	}
	if len(rows) == 0 || !matchesHeader(rows[0]) {
		return nil, apperrors.NewParse("biltable", path, "missing id/source/target header row")
	}
	if len(rows) == 1 {
		return nil, apperrors.NewStructuralRead(path, "table has no data rows", nil)
	}

	d := doc.New()
	for i, row := range rows[1:] {
		if len(row) < 2 {
			return nil, apperrors.NewParse("biltable", path, fmt.Sprintf("row %d has %d columns, want at least 2", i+2, len(row)))
		}
		id := strings.TrimSpace(row[0])
		if id == "" {
			id = uuid.NewString()
		}
		source := row[1]
		target := ""
		if len(row) > 2 {
			target = row[2]
		}

		text := source
		if target != "" {
			text = target
		}
		p := &doc.Paragraph{
			ExternalID: id,
			Runs:       []*doc.Run{{Text: text}},
		}
		d.Paragraphs = append(d.Paragraphs, p)
		formats.StashSource(d, id, source)
	}

	d.EnsureHandles()
	return d, nil
}

// Save implements Dialect.Save. Rebuilds the full grid: stashed sources in
// the source column, each paragraph's current text in the target column.
func (h *Handler) Save(path string, d *doc.Document) error {
	if d == nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "biltable: nil document")
	}

	f, err := os.Create(path)
	if err != nil {
		return apperrors.Wrap(err, "biltable: create")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := w.Write(headerColumns); err != nil {
		return apperrors.Wrap(err, "biltable: write header")
	}
	for _, p := range d.Paragraphs {
		if p == nil {
			continue
		}
		id := p.ExternalID
		if id == "" {
			id = uuid.NewString()
		}
		source, ok := formats.StashedSource(d, id)
		if !ok {
			source = p.Text()
		}
		if err := w.Write([]string{id, source, p.Text()}); err != nil {
			return apperrors.Wrap(err, "biltable: write row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return apperrors.Wrap(err, "biltable: flush")
	}
	return nil
}
