// Package segment defines the engine's segment record: the join of a
// structural position with source/target text and translation status, plus
// the ordered in-memory store that holds one import pass.
package segment

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Status is the translation state of a segment.
type Status string

// Status constants.
const (
	StatusUntranslated Status = "untranslated"
	StatusDraft        Status = "draft"
	StatusTranslated   Status = "translated"
	StatusApproved     Status = "approved"
	StatusLocked       Status = "locked"
)

// validStatuses is the set of valid statuses.
var validStatuses = map[Status]bool{
	StatusUntranslated: true,
	StatusDraft:        true,
	StatusTranslated:   true,
	StatusApproved:     true,
	StatusLocked:       true,
}

// IsValid returns true if the status is valid.
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// Editable returns true if the status permits target/notes edits.
func (s Status) Editable() bool {
	return s != StatusLocked
}

// PositionKind distinguishes the two container variants.
type PositionKind string

// Position kinds.
const (
	PositionParagraph PositionKind = "paragraph"
	PositionTableCell PositionKind = "table_cell"
)

// Position is the structural address of a segment's container.
type Position struct {
	Kind PositionKind `json:"kind"`

	// Ordinal is the paragraph's index in the document's flat body
	// enumeration, counted over non-table paragraphs. Paragraph kind only.
	Ordinal int `json:"ordinal,omitempty"`

	// Table, Row, Col address the cell; Para is the paragraph's index
	// within the cell. Table-cell kind only.
	Table int `json:"table,omitempty"`
	Row   int `json:"row,omitempty"`
	Col   int `json:"col,omitempty"`
	Para  int `json:"para,omitempty"`
}

// ParagraphAt returns a paragraph position.
func ParagraphAt(ordinal int) Position {
	return Position{Kind: PositionParagraph, Ordinal: ordinal}
}

// CellAt returns a table-cell paragraph position.
func CellAt(table, row, col, para int) Position {
	return Position{Kind: PositionTableCell, Table: table, Row: row, Col: col, Para: para}
}

func (p Position) String() string {
	switch p.Kind {
	case PositionParagraph:
		return fmt.Sprintf("p%d", p.Ordinal)
	case PositionTableCell:
		return fmt.Sprintf("t%d.r%d.c%d.p%d", p.Table, p.Row, p.Col, p.Para)
	default:
		return "?"
	}
}

// Segment joins one container's structural position to its source and target
// text. Index, Position, Style, Source and SourceHash are assigned once at
// walk time and never change; Target, Status and Notes are the only fields
// the editing collaborator mutates, and only through Store methods.
type Segment struct {
	// Index is the stable sequence index, strictly increasing across one
	// walk. It is the sole join key back to structural position.
	Index int `json:"sequence_index"`

	// Position is the structural address captured at walk time.
	Position Position `json:"position"`

	// Style is the paragraph style name captured at import (optional).
	Style string `json:"style_name,omitempty"`

	// Source is the tagged source text. Write-once.
	Source string `json:"source_text"`

	// SourceHash is the BLAKE3 hash of Source, used to detect source drift
	// across re-imports.
	SourceHash string `json:"source_hash,omitempty"`

	// Target is the tagged target text, mutable by the editor.
	Target string `json:"target_text,omitempty"`

	// Status is the translation state.
	Status Status `json:"status"`

	// Notes carries reviewer remarks.
	Notes string `json:"notes,omitempty"`

	// ExternalID is a dialect-assigned segment identifier that must
	// round-trip unchanged, when the dialect provides one.
	ExternalID string `json:"external_id,omitempty"`

	// GrammarVersion records the tag grammar the source was encoded with,
	// so historical saved text stays decodable.
	GrammarVersion int `json:"grammar_version"`

	// PrevStatus is the status to restore on unlock. Meaningful only while
	// Status is locked.
	PrevStatus Status `json:"prev_status,omitempty"`
}

// New creates a segment record for a freshly walked container.
func New(index int, pos Position, style, source string, grammarVersion int) *Segment {
	return &Segment{
		Index:          index,
		Position:       pos,
		Style:          style,
		Source:         source,
		SourceHash:     HashText(source),
		Status:         StatusUntranslated,
		GrammarVersion: grammarVersion,
	}
}

// HashText returns the hex BLAKE3 hash of text.
func HashText(text string) string {
	sum := blake3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// SourceDrifted returns true if the stored hash no longer matches Source.
func (s *Segment) SourceDrifted() bool {
	return s.SourceHash != "" && s.SourceHash != HashText(s.Source)
}
