package biltable

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/textloom/textloom/core/doc"
	"github.com/textloom/textloom/internal/formats"
)

const sampleTable = "id\tsource\ttarget\n" +
	"r1\tHello world\t\n" +
	"r2\tGood morning\tGuten Morgen\n" +
	"\tNo identifier\t\n"

func writeSample(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func TestDetect(t *testing.T) {
	h := &Handler{}

	tests := []struct {
		name     string
		filename string
		content  string
		want     bool
	}{
		{"tsv with header", "a.tsv", sampleTable, true},
		{"tab extension", "a.tab", sampleTable, true},
		{"header case insensitive", "a.tsv", "ID\tSource\tTarget\nr1\tx\t\n", true},
		{"tsv without header", "a.tsv", "one\ttwo\tthree\n", false},
		{"wrong extension", "a.csv", sampleTable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSample(t, tt.filename, tt.content)
			res, err := h.Detect(path)
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if res.Detected != tt.want {
				t.Errorf("Detect() = %v (%s), want %v", res.Detected, res.Reason, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	h := &Handler{}
	path := writeSample(t, "sample.tsv", sampleTable)

	d, err := h.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(d.Paragraphs) != 3 {
		t.Fatalf("got %d paragraphs, want 3", len(d.Paragraphs))
	}

	if got := d.Paragraphs[0].ExternalID; got != "r1" {
		t.Errorf("row 1 id = %q", got)
	}
	if got := d.Paragraphs[0].Text(); got != "Hello world" {
		t.Errorf("row 1 text = %q", got)
	}

	// A pre-translated row keeps its target as the working text.
	if got := d.Paragraphs[1].Text(); got != "Guten Morgen" {
		t.Errorf("row 2 text = %q, want target text", got)
	}
	src, ok := formats.StashedSource(d, "r2")
	if !ok || src != "Good morning" {
		t.Errorf("stashed source for r2 = %q (ok=%v)", src, ok)
	}

	if d.Paragraphs[2].ExternalID == "" {
		t.Error("expected a minted identifier for the id-less row")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	h := &Handler{}
	inPath := writeSample(t, "in.tsv", sampleTable)

	d, err := h.Load(inPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	d.Paragraphs[0].SetRuns([]*doc.Run{{Text: "Hallo Welt"}})

	outPath := filepath.Join(t.TempDir(), "out.tsv")
	if err := h.Save(outPath, d); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("saved file has %d lines, want 4", len(lines))
	}
	if lines[1] != "r1\tHello world\tHallo Welt" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "r2\tGood morning\tGuten Morgen" {
		t.Errorf("row 2 = %q", lines[2])
	}

	d2, err := h.Load(outPath)
	if err != nil {
		t.Fatalf("Load(saved) error = %v", err)
	}
	for i := range d.Paragraphs {
		if d2.Paragraphs[i].ExternalID != d.Paragraphs[i].ExternalID {
			t.Errorf("row %d identifier changed: %q -> %q", i, d.Paragraphs[i].ExternalID, d2.Paragraphs[i].ExternalID)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	h := &Handler{}

	if _, err := h.Load(filepath.Join(t.TempDir(), "missing.tsv")); err == nil {
		t.Error("expected error for missing file")
	}

	noHeader := writeSample(t, "bad.tsv", "one\ttwo\tthree\n")
	if _, err := h.Load(noHeader); err == nil {
		t.Error("expected error for missing header row")
	}

	headerOnly := writeSample(t, "empty.tsv", "id\tsource\ttarget\n")
	if _, err := h.Load(headerOnly); err == nil {
		t.Error("expected error for table without data rows")
	}

	shortRow := writeSample(t, "short.tsv", "id\tsource\ttarget\nr1\n")
	if _, err := h.Load(shortRow); err == nil {
		t.Error("expected error for a row with too few columns")
	}
}
