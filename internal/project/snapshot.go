package project

import (
	"encoding/json"
	"os"
	"time"

	"github.com/ulikunitz/xz"

	apperrors "github.com/textloom/textloom/core/errors"
	"github.com/textloom/textloom/core/segment"
	"github.com/textloom/textloom/core/tag"
)

// Snapshot is a portable, xz-compressed JSON image of a project: metadata
// plus the complete segment ledger. Snapshots move projects between machines
// without carrying the SQLite file.
type Snapshot struct {
	ProjectID      string             `json:"project_id"`
	SourcePath     string             `json:"source_path,omitempty"`
	Dialect        string             `json:"dialect,omitempty"`
	GrammarVersion int                `json:"grammar_version"`
	TakenAt        string             `json:"taken_at"`
	Segments       []*segment.Segment `json:"segments"`
}

// WriteSnapshot captures the project's current state to an xz-compressed
// JSON file.
func (p *Project) WriteSnapshot(path string) error {
	st, err := p.LoadSegments()
	if err != nil {
		return err
	}

	snap := Snapshot{
		GrammarVersion: st.Grammar().Version,
		TakenAt:        time.Now().UTC().Format(time.RFC3339),
		Segments:       st.All(),
	}
	snap.ProjectID, _ = p.Meta(MetaProjectID)
	snap.SourcePath, _ = p.Meta(MetaSourcePath)
	snap.Dialect, _ = p.Meta(MetaDialect)

	f, err := os.Create(path)
	if err != nil {
		return apperrors.Wrap(err, "snapshot: create")
	}
	defer f.Close()

	xw, err := xz.NewWriter(f)
	if err != nil {
		return apperrors.Wrap(err, "snapshot: xz writer")
	}
	enc := json.NewEncoder(xw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&snap); err != nil {
		xw.Close()
		return apperrors.Wrap(err, "snapshot: encode")
	}
	if err := xw.Close(); err != nil {
		return apperrors.Wrap(err, "snapshot: finish")
	}
	return nil
}

// ReadSnapshot loads an xz-compressed snapshot file.
func ReadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStructuralRead(path, "open failed", err)
	}
	defer f.Close()

	xr, err := xz.NewReader(f)
	if err != nil {
		return nil, apperrors.NewParse("snapshot", path, "not an xz stream: "+err.Error())
	}
	var snap Snapshot
	if err := json.NewDecoder(xr).Decode(&snap); err != nil {
		return nil, apperrors.NewParse("snapshot", path, err.Error())
	}
	return &snap, nil
}

// RestoreSnapshot creates a new project file from a snapshot, preserving the
// original project identifier.
func RestoreSnapshot(snap *Snapshot, path string) (*Project, error) {
	if snap == nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "snapshot: nil snapshot")
	}
	if _, err := tag.ForVersion(snap.GrammarVersion); err != nil {
		return nil, err
	}

	p, err := Create(path, snap.SourcePath, snap.Dialect, snap.GrammarVersion)
	if err != nil {
		return nil, err
	}
	if snap.ProjectID != "" {
		if err := p.SetMeta(MetaProjectID, snap.ProjectID); err != nil {
			p.Close()
			return nil, err
		}
	}

	g, err := tag.ForVersion(snap.GrammarVersion)
	if err != nil {
		p.Close()
		return nil, err
	}
	st := segment.NewStore(g)
	for _, s := range snap.Segments {
		if err := st.Append(s); err != nil {
			p.Close()
			return nil, err
		}
	}
	if err := p.SaveSegments(st); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}
