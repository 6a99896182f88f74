package project

import (
	"errors"
	"path/filepath"
	"testing"

	apperrors "github.com/textloom/textloom/core/errors"
	"github.com/textloom/textloom/core/segment"
	"github.com/textloom/textloom/core/tag"
)

func newTestProject(t *testing.T) *Project {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.loomproj")
	p, err := Create(path, "manual.xlf", "xliff", tag.CurrentVersion)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func testStore(t *testing.T) *segment.Store {
	t.Helper()
	g := tag.Default()
	st := segment.NewStore(g)
	sources := []string{"first <b>bold</b>", "second", "cell text"}
	for i, src := range sources {
		pos := segment.ParagraphAt(i)
		if i == 2 {
			pos = segment.CellAt(0, 1, 0, 0)
		}
		seg := segment.New(i, pos, "Normal", src, g.Version)
		if i == 2 {
			seg.ExternalID = "u42"
		}
		if err := st.Append(seg); err != nil {
			t.Fatalf("Append(%d) error = %v", i, err)
		}
	}
	return st
}

func TestCreateWritesMetadata(t *testing.T) {
	p := newTestProject(t)

	id, err := p.ID()
	if err != nil {
		t.Fatalf("ID() error = %v", err)
	}
	if id == "" {
		t.Error("project id should be minted at create time")
	}

	dialect, err := p.Meta(MetaDialect)
	if err != nil || dialect != "xliff" {
		t.Errorf("dialect = %q, err = %v", dialect, err)
	}

	if _, err := p.Meta("no-such-key"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("missing key error = %v, want ErrNotFound", err)
	}
}

func TestOpenRejectsNonProject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.db")
	if _, err := Open(path); err == nil {
		t.Error("expected error opening a file without project metadata")
	}
}

func TestSaveAndLoadSegments(t *testing.T) {
	p := newTestProject(t)
	st := testStore(t)

	if err := st.SetTarget(0, "erste <b>fett</b>"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Confirm(0); err != nil {
		t.Fatal(err)
	}
	if err := st.SetNotes(1, "check terminology"); err != nil {
		t.Fatal(err)
	}

	if err := p.SaveSegments(st); err != nil {
		t.Fatalf("SaveSegments() error = %v", err)
	}

	loaded, err := p.LoadSegments()
	if err != nil {
		t.Fatalf("LoadSegments() error = %v", err)
	}
	if loaded.Len() != st.Len() {
		t.Fatalf("loaded %d segments, want %d", loaded.Len(), st.Len())
	}

	for _, want := range st.All() {
		got, ok := loaded.Get(want.Index)
		if !ok {
			t.Fatalf("segment %d missing after reload", want.Index)
		}
		if got.Source != want.Source || got.Target != want.Target {
			t.Errorf("segment %d text mismatch: %+v vs %+v", want.Index, got, want)
		}
		if got.Status != want.Status {
			t.Errorf("segment %d status = %s, want %s", want.Index, got.Status, want.Status)
		}
		if got.SourceHash != want.SourceHash {
			t.Errorf("segment %d hash changed across reload", want.Index)
		}
		if got.Position != want.Position {
			t.Errorf("segment %d position = %+v, want %+v", want.Index, got.Position, want.Position)
		}
		if got.Notes != want.Notes {
			t.Errorf("segment %d notes = %q, want %q", want.Index, got.Notes, want.Notes)
		}
		if got.ExternalID != want.ExternalID {
			t.Errorf("segment %d external id = %q, want %q", want.Index, got.ExternalID, want.ExternalID)
		}
	}
}

func TestSaveSegmentsReplacesLedger(t *testing.T) {
	p := newTestProject(t)
	st := testStore(t)

	if err := p.SaveSegments(st); err != nil {
		t.Fatal(err)
	}

	shorter := segment.NewStore(tag.Default())
	if err := shorter.Append(segment.New(0, segment.ParagraphAt(0), "", "only one", tag.CurrentVersion)); err != nil {
		t.Fatal(err)
	}
	if err := p.SaveSegments(shorter); err != nil {
		t.Fatal(err)
	}

	loaded, err := p.LoadSegments()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != 1 {
		t.Errorf("ledger should be replaced, got %d segments", loaded.Len())
	}
}

func TestDriverSelection(t *testing.T) {
	if DriverName() == "" || DriverType() == "" {
		t.Error("driver identification should never be empty")
	}
	if IsCGO() != (DriverType() == "cgo") {
		t.Error("IsCGO disagrees with DriverType")
	}
}
