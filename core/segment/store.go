package segment

import (
	"strconv"

	apperrors "github.com/textloom/textloom/core/errors"
	"github.com/textloom/textloom/core/tag"
)

// Store is the ordered, in-memory segment collection produced by one import
// walk. It provides O(1) get-by-sequence-index, ordered iteration,
// status filtering, and bulk target replacement.
//
// Segments are created once per walk and never reordered or individually
// deleted; replacing the document means a full re-walk into a new store.
// The store performs no locking: batch callers must ensure no two workers
// mutate the same segment concurrently.
type Store struct {
	grammar  *tag.Grammar
	segments []*Segment
	byIndex  map[int]*Segment
}

// NewStore creates an empty store bound to a tag grammar.
func NewStore(grammar *tag.Grammar) *Store {
	return &Store{
		grammar: grammar,
		byIndex: make(map[int]*Segment),
	}
}

// Grammar returns the tag grammar segments in this store were encoded with.
func (st *Store) Grammar() *tag.Grammar {
	return st.grammar
}

// Append adds a walked segment. Indices must be strictly increasing.
func (st *Store) Append(seg *Segment) error {
	if seg == nil {
		return apperrors.NewParse("segment", "", "nil segment")
	}
	if _, dup := st.byIndex[seg.Index]; dup {
		return apperrors.Wrapf(apperrors.ErrImmutable, "sequence index %d already assigned", seg.Index)
	}
	if n := len(st.segments); n > 0 && seg.Index <= st.segments[n-1].Index {
		return apperrors.Wrapf(apperrors.ErrInvalidInput,
			"sequence index %d not increasing (last %d)", seg.Index, st.segments[n-1].Index)
	}
	st.segments = append(st.segments, seg)
	st.byIndex[seg.Index] = seg
	return nil
}

// Get returns the segment with the given sequence index.
func (st *Store) Get(index int) (*Segment, bool) {
	s, ok := st.byIndex[index]
	return s, ok
}

// Len returns the number of segments.
func (st *Store) Len() int {
	return len(st.segments)
}

// All returns the segments in sequence order. The slice is a copy; the
// segments are shared.
func (st *Store) All() []*Segment {
	out := make([]*Segment, len(st.segments))
	copy(out, st.segments)
	return out
}

// FilterStatus returns the segments with the given status, in order.
func (st *Store) FilterStatus(status Status) []*Segment {
	var out []*Segment
	for _, s := range st.segments {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out
}

// SetTarget replaces a segment's target text. Any edit moves the segment to
// Draft; locked segments reject edits.
func (st *Store) SetTarget(index int, text string) error {
	s, ok := st.byIndex[index]
	if !ok {
		return apperrors.NewNotFound("segment", strconv.Itoa(index))
	}
	if !s.Status.Editable() {
		return apperrors.NewLocked(index, "set target")
	}
	s.Target = text
	s.Status = StatusDraft
	return nil
}

// SetNotes replaces a segment's notes without touching its status.
func (st *Store) SetNotes(index int, notes string) error {
	s, ok := st.byIndex[index]
	if !ok {
		return apperrors.NewNotFound("segment", strconv.Itoa(index))
	}
	if !s.Status.Editable() {
		return apperrors.NewLocked(index, "set notes")
	}
	s.Notes = notes
	return nil
}

// BulkSetTargets applies many target replacements. Each failure is recorded
// and the rest still apply; the returned slice is empty on full success.
func (st *Store) BulkSetTargets(targets map[int]string) []error {
	var errs []error
	for _, s := range st.segments {
		text, ok := targets[s.Index]
		if !ok {
			continue
		}
		if err := st.SetTarget(s.Index, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Confirm promotes a segment to Translated. The target's tags must validate;
// source-vs-target tag-count drift is returned as soft mismatches, never as
// an error.
func (st *Store) Confirm(index int) ([]tag.Mismatch, error) {
	s, ok := st.byIndex[index]
	if !ok {
		return nil, apperrors.NewNotFound("segment", strconv.Itoa(index))
	}
	if !s.Status.Editable() {
		return nil, apperrors.NewLocked(index, "confirm")
	}

	targetCounts, err := st.grammar.Validate(s.Target)
	if err != nil {
		return nil, apperrors.Wrapf(err, "segment %d target", index)
	}
	sourceCounts, err := st.grammar.Validate(s.Source)
	if err != nil {
		// Source text was produced by the encoder; a validation failure here
		// means the record was corrupted outside the engine.
		return nil, apperrors.Wrapf(err, "segment %d source", index)
	}

	s.Status = StatusTranslated
	return tag.CompareCounts(sourceCounts, targetCounts), nil
}

// Approve promotes a Translated segment to Approved.
func (st *Store) Approve(index int) error {
	s, ok := st.byIndex[index]
	if !ok {
		return apperrors.NewNotFound("segment", strconv.Itoa(index))
	}
	if !s.Status.Editable() {
		return apperrors.NewLocked(index, "approve")
	}
	if s.Status != StatusTranslated {
		return apperrors.Wrapf(apperrors.ErrInvalidInput,
			"segment %d: only translated segments can be approved (status %s)", index, s.Status)
	}
	s.Status = StatusApproved
	return nil
}

// Lock blocks edits on a segment. The prior status is kept for Unlock.
func (st *Store) Lock(index int) error {
	s, ok := st.byIndex[index]
	if !ok {
		return apperrors.NewNotFound("segment", strconv.Itoa(index))
	}
	if s.Status == StatusLocked {
		return nil
	}
	s.PrevStatus = s.Status
	s.Status = StatusLocked
	return nil
}

// Unlock restores the status a segment had when it was locked.
func (st *Store) Unlock(index int) error {
	s, ok := st.byIndex[index]
	if !ok {
		return apperrors.NewNotFound("segment", strconv.Itoa(index))
	}
	if s.Status != StatusLocked {
		return nil
	}
	s.Status = s.PrevStatus
	if s.Status == "" {
		s.Status = StatusUntranslated
	}
	s.PrevStatus = ""
	return nil
}

