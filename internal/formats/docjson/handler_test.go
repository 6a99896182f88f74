package docjson

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/textloom/textloom/core/doc"
)

func sampleDocument() *doc.Document {
	d := doc.New()
	d.DefineStyle("Heading1")
	d.DefineStyle("Normal")
	d.AddParagraph("Heading1", &doc.Run{Text: "Title"})
	d.AddParagraph("Normal",
		&doc.Run{Text: "plain "},
		&doc.Run{Text: "bold", Attrs: doc.Attrs{Bold: true}},
	)
	tbl := d.AddTable(2, 2)
	d.AddCellParagraph(tbl.Rows[0].Cells[0], "Normal", &doc.Run{Text: "a1"})
	d.AddCellParagraph(tbl.Rows[0].Cells[1], "Normal", &doc.Run{Text: "b1"})
	d.AddCellParagraph(tbl.Rows[1].Cells[0], "Normal", &doc.Run{Text: "a2"})
	d.AddCellParagraph(tbl.Rows[1].Cells[1], "Normal", &doc.Run{Text: "b2"})
	d.AddParagraph("Normal", &doc.Run{Text: "after"})
	return d
}

func TestSaveLoadRoundTrip(t *testing.T) {
	h := &Handler{}
	path := filepath.Join(t.TempDir(), "doc.json")

	src := sampleDocument()
	if err := h.Save(path, src); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := h.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(got.Paragraphs) != len(src.Paragraphs) {
		t.Fatalf("flat paragraph count = %d, want %d", len(got.Paragraphs), len(src.Paragraphs))
	}
	for i := range src.Paragraphs {
		if got.Paragraphs[i].Text() != src.Paragraphs[i].Text() {
			t.Errorf("paragraph %d text = %q, want %q",
				i, got.Paragraphs[i].Text(), src.Paragraphs[i].Text())
		}
	}

	// Formatting attributes survive.
	runs := got.Paragraphs[1].Runs
	if len(runs) != 2 || !runs[1].Attrs.Bold {
		t.Errorf("formatting lost: %+v", runs)
	}

	if len(got.Tables) != 1 {
		t.Fatalf("got %d tables, want 1", len(got.Tables))
	}
	if text := got.Tables[0].Rows[1].Cells[1].Text(); text != "b2" {
		t.Errorf("cell (1,1) text = %q, want %q", text, "b2")
	}

	if !got.HasStyle("Heading1") || !got.HasStyle("Normal") {
		t.Error("styles lost in round trip")
	}
}

func TestCellParagraphIdentityPreserved(t *testing.T) {
	h := &Handler{}
	path := filepath.Join(t.TempDir(), "doc.json")

	if err := h.Save(path, sampleDocument()); err != nil {
		t.Fatal(err)
	}
	got, err := h.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	// A cell paragraph and its flat-list entry must be the same object, so
	// edits through either view stay in sync.
	cellPara := got.Tables[0].Rows[0].Cells[0].Paragraphs[0]
	found := false
	for _, p := range got.Paragraphs {
		if p == cellPara {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("cell paragraph is not shared with the flat list")
	}

	cellPara.SetRuns([]*doc.Run{{Text: "changed"}})
	if got.Tables[0].Rows[0].Cells[0].Text() != "changed" {
		t.Error("edit through the flat alias did not reach the cell")
	}
}

func TestDetect(t *testing.T) {
	h := &Handler{}

	docPath := filepath.Join(t.TempDir(), "doc.json")
	if err := h.Save(docPath, sampleDocument()); err != nil {
		t.Fatal(err)
	}
	res, err := h.Detect(docPath)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if !res.Detected {
		t.Errorf("Detect() = false (%s), want true", res.Reason)
	}

	otherPath := filepath.Join(t.TempDir(), "other.json")
	if err := os.WriteFile(otherPath, []byte(`{"format":"something-else"}`), 0644); err != nil {
		t.Fatal(err)
	}
	res, err = h.Detect(otherPath)
	if err != nil {
		t.Fatal(err)
	}
	if res.Detected {
		t.Error("Detect() should reject JSON without the format marker")
	}
}

func TestLoadErrors(t *testing.T) {
	h := &Handler{}

	if _, err := h.Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	badMarker := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(badMarker, []byte(`{"format":"nope"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Load(badMarker); err == nil {
		t.Error("expected error for wrong format marker")
	}

	badIndex := filepath.Join(t.TempDir(), "idx.json")
	content := `{"format":"textloom/document","paragraphs":[{"runs":[{"text":"x"}]}],` +
		`"tables":[{"rows":[[{"paragraphs":[5]}]]}]}`
	if err := os.WriteFile(badIndex, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := h.Load(badIndex)
	if err == nil {
		t.Fatal("expected error for out-of-range cell paragraph index")
	}
	if !strings.Contains(err.Error(), "5") {
		t.Errorf("error should name the bad index: %v", err)
	}
}
