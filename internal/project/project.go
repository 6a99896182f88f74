// Package project persists a translation project to a SQLite file: the full
// segment ledger plus project metadata. Two driver builds are supported:
//
//   - Default (CGO_ENABLED=0): pure Go modernc.org/sqlite
//   - CGO mode (-tags cgo_sqlite): mattn/go-sqlite3
//
// Use Create/Open instead of sql.Open so the right driver is selected.
package project

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/textloom/textloom/core/errors"
	"github.com/textloom/textloom/core/segment"
	"github.com/textloom/textloom/core/tag"
)

// Metadata keys in the meta table.
const (
	MetaProjectID      = "project_id"
	MetaSourcePath     = "source_path"
	MetaDialect        = "dialect"
	MetaGrammarVersion = "grammar_version"
	MetaCreatedAt      = "created_at"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS segments (
	sequence_index  INTEGER PRIMARY KEY,
	position        TEXT NOT NULL,
	style_name      TEXT NOT NULL DEFAULT '',
	source_text     TEXT NOT NULL,
	source_hash     TEXT NOT NULL,
	target_text     TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	prev_status     TEXT NOT NULL DEFAULT '',
	notes           TEXT NOT NULL DEFAULT '',
	external_id     TEXT NOT NULL DEFAULT '',
	grammar_version INTEGER NOT NULL
);
`

// DriverName returns the registered SQL driver name for this build.
func DriverName() string { return driverName }

// DriverType identifies the underlying implementation, "purego" or "cgo".
func DriverType() string { return driverType }

// IsCGO reports whether the mattn/go-sqlite3 build is active.
func IsCGO() bool { return driverType == "cgo" }

// Project is an open project database.
type Project struct {
	db   *sql.DB
	path string
}

// Create initializes a new project file, mints a project identifier and
// records where the source document came from.
func Create(path, sourcePath, dialect string, grammarVersion int) (*Project, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, apperrors.Wrap(err, "project: open")
	}
	p := &Project{db: db, path: path}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, apperrors.Wrap(err, "project: create schema")
	}

	meta := map[string]string{
		MetaProjectID:      uuid.NewString(),
		MetaSourcePath:     sourcePath,
		MetaDialect:        dialect,
		MetaGrammarVersion: strconv.Itoa(grammarVersion),
		MetaCreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if err := p.SetMeta(k, v); err != nil {
			db.Close()
			return nil, err
		}
	}
	return p, nil
}

// Open opens an existing project file.
func Open(path string) (*Project, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, apperrors.Wrap(err, "project: open")
	}
	p := &Project{db: db, path: path}

	// An openable file without our meta table is not a project.
	if _, err := p.Meta(MetaProjectID); err != nil {
		db.Close()
		return nil, apperrors.NewStructuralRead(path, "not a project file", err)
	}
	return p, nil
}

// Close closes the underlying database.
func (p *Project) Close() error {
	return p.db.Close()
}

// Path returns the project file's path.
func (p *Project) Path() string { return p.path }

// ID returns the project's identifier.
func (p *Project) ID() (string, error) {
	return p.Meta(MetaProjectID)
}

// Meta reads one metadata value.
func (p *Project) Meta(key string) (string, error) {
	var v string
	err := p.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", apperrors.NewNotFound("meta", key)
	}
	if err != nil {
		return "", apperrors.Wrapf(err, "project: read meta %s", key)
	}
	return v, nil
}

// SetMeta writes one metadata value.
func (p *Project) SetMeta(key, value string) error {
	_, err := p.db.Exec(
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return apperrors.Wrapf(err, "project: write meta %s", key)
	}
	return nil
}

// SaveSegments replaces the stored segment ledger with the store's contents
// in one transaction.
func (p *Project) SaveSegments(st *segment.Store) error {
	if st == nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "project: nil store")
	}

	tx, err := p.db.Begin()
	if err != nil {
		return apperrors.Wrap(err, "project: begin")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM segments`); err != nil {
		return apperrors.Wrap(err, "project: clear segments")
	}

	stmt, err := tx.Prepare(`
		INSERT INTO segments (
			sequence_index, position, style_name, source_text, source_hash,
			target_text, status, prev_status, notes, external_id, grammar_version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return apperrors.Wrap(err, "project: prepare insert")
	}
	defer stmt.Close()

	for _, s := range st.All() {
		pos, err := json.Marshal(s.Position)
		if err != nil {
			return apperrors.Wrapf(err, "project: encode position of segment %d", s.Index)
		}
		_, err = stmt.Exec(
			s.Index, string(pos), s.Style, s.Source, s.SourceHash,
			s.Target, string(s.Status), string(s.PrevStatus), s.Notes,
			s.ExternalID, s.GrammarVersion,
		)
		if err != nil {
			return apperrors.Wrapf(err, "project: insert segment %d", s.Index)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(err, "project: commit")
	}

	if err := p.SetMeta(MetaGrammarVersion, strconv.Itoa(st.Grammar().Version)); err != nil {
		return err
	}
	return nil
}

// LoadSegments reads the stored ledger back into a segment store bound to
// the project's recorded grammar version.
func (p *Project) LoadSegments() (*segment.Store, error) {
	verStr, err := p.Meta(MetaGrammarVersion)
	if err != nil {
		return nil, err
	}
	version, err := strconv.Atoi(verStr)
	if err != nil {
		return nil, apperrors.NewParse("project", p.path, "bad grammar version "+verStr)
	}
	g, err := tag.ForVersion(version)
	if err != nil {
		return nil, err
	}

	rows, err := p.db.Query(`
		SELECT sequence_index, position, style_name, source_text, source_hash,
		       target_text, status, prev_status, notes, external_id, grammar_version
		FROM segments ORDER BY sequence_index`)
	if err != nil {
		return nil, apperrors.Wrap(err, "project: query segments")
	}
	defer rows.Close()

	st := segment.NewStore(g)
	for rows.Next() {
		var (
			s       segment.Segment
			posJSON string
			status  string
			prev    string
		)
		err := rows.Scan(
			&s.Index, &posJSON, &s.Style, &s.Source, &s.SourceHash,
			&s.Target, &status, &prev, &s.Notes, &s.ExternalID, &s.GrammarVersion,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "project: scan segment")
		}
		if err := json.Unmarshal([]byte(posJSON), &s.Position); err != nil {
			return nil, apperrors.Wrapf(err, "project: decode position of segment %d", s.Index)
		}
		s.Status = segment.Status(status)
		if !s.Status.IsValid() {
			return nil, apperrors.NewParse("project", p.path,
				"segment "+strconv.Itoa(s.Index)+" has unknown status "+status)
		}
		s.PrevStatus = segment.Status(prev)
		if err := st.Append(&s); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "project: iterate segments")
	}
	return st, nil
}
