package segment

import (
	"errors"
	"testing"

	apperrors "github.com/textloom/textloom/core/errors"
	"github.com/textloom/textloom/core/tag"
)

func TestPositionString(t *testing.T) {
	tests := []struct {
		pos  Position
		want string
	}{
		{ParagraphAt(12), "p12"},
		{CellAt(2, 1, 0, 0), "t2.r1.c0.p0"},
	}
	for _, tt := range tests {
		if got := tt.pos.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestNewSegment(t *testing.T) {
	s := New(0, ParagraphAt(0), "Heading 1", "<b>Title</b>", tag.CurrentVersion)
	if s.Status != StatusUntranslated {
		t.Errorf("Status = %s, want %s", s.Status, StatusUntranslated)
	}
	if s.SourceHash == "" {
		t.Error("SourceHash should be computed at creation")
	}
	if s.SourceDrifted() {
		t.Error("fresh segment must not report drift")
	}
	s.Source = "tampered"
	if !s.SourceDrifted() {
		t.Error("changed source must report drift")
	}
}

func TestStatusEditable(t *testing.T) {
	for _, s := range []Status{StatusUntranslated, StatusDraft, StatusTranslated, StatusApproved} {
		if !s.Editable() {
			t.Errorf("%s should be editable", s)
		}
	}
	if StatusLocked.Editable() {
		t.Error("locked should not be editable")
	}
}

func newTestStore(t *testing.T, sources ...string) *Store {
	t.Helper()
	st := NewStore(tag.Default())
	for i, src := range sources {
		if err := st.Append(New(i, ParagraphAt(i), "Normal", src, tag.CurrentVersion)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	return st
}

func TestStoreAppendOrdering(t *testing.T) {
	st := newTestStore(t, "one")
	err := st.Append(New(0, ParagraphAt(1), "", "dup", tag.CurrentVersion))
	if !errors.Is(err, apperrors.ErrImmutable) {
		t.Errorf("re-appending an assigned index = %v, want ErrImmutable", err)
	}
	if err := st.Append(New(-1, ParagraphAt(2), "", "back", tag.CurrentVersion)); err == nil {
		t.Error("non-increasing index should be rejected")
	}
}

func TestStoreGetAndIteration(t *testing.T) {
	st := newTestStore(t, "a", "b", "c")
	if st.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", st.Len())
	}
	s, ok := st.Get(1)
	if !ok || s.Source != "b" {
		t.Errorf("Get(1) = %+v, %v", s, ok)
	}
	all := st.All()
	for i, seg := range all {
		if seg.Index != i {
			t.Errorf("All()[%d].Index = %d", i, seg.Index)
		}
	}
}

func TestSetTargetMovesToDraft(t *testing.T) {
	st := newTestStore(t, "hello")
	if err := st.SetTarget(0, "hallo"); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}
	s, _ := st.Get(0)
	if s.Status != StatusDraft {
		t.Errorf("Status = %s, want %s", s.Status, StatusDraft)
	}
	if s.Target != "hallo" {
		t.Errorf("Target = %q", s.Target)
	}
}

func TestConfirmRequiresValidTags(t *testing.T) {
	st := newTestStore(t, "<b>hello</b>")
	if err := st.SetTarget(0, "<b>hallo"); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}

	if _, err := st.Confirm(0); !apperrors.Is(err, apperrors.ErrTagInvalid) {
		t.Errorf("Confirm with bad tags = %v, want ErrTagInvalid", err)
	}
	s, _ := st.Get(0)
	if s.Status != StatusDraft {
		t.Errorf("failed confirm must leave status draft, got %s", s.Status)
	}

	if err := st.SetTarget(0, "<b>hallo</b>"); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}
	mismatches, err := st.Confirm(0)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if len(mismatches) != 0 {
		t.Errorf("mismatches = %v, want none", mismatches)
	}
	if s.Status != StatusTranslated {
		t.Errorf("Status = %s, want %s", s.Status, StatusTranslated)
	}
}

func TestConfirmReportsSoftTagCountMismatch(t *testing.T) {
	st := newTestStore(t, "<b>hello</b> <i>world</i>")
	if err := st.SetTarget(0, "hallo welt"); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}
	mismatches, err := st.Confirm(0)
	if err != nil {
		t.Fatalf("dropping emphasis must not fail confirm: %v", err)
	}
	if len(mismatches) != 2 {
		t.Errorf("mismatches = %v, want b and i", mismatches)
	}
	s, _ := st.Get(0)
	if s.Status != StatusTranslated {
		t.Errorf("Status = %s, want %s", s.Status, StatusTranslated)
	}
}

func TestApproveOnlyFromTranslated(t *testing.T) {
	st := newTestStore(t, "x")
	if err := st.Approve(0); err == nil {
		t.Error("approving an untranslated segment should fail")
	}
	st.SetTarget(0, "y")
	if _, err := st.Confirm(0); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := st.Approve(0); err != nil {
		t.Errorf("Approve: %v", err)
	}
	s, _ := st.Get(0)
	if s.Status != StatusApproved {
		t.Errorf("Status = %s, want %s", s.Status, StatusApproved)
	}
}

func TestLockUnlockRestoresPriorStatus(t *testing.T) {
	st := newTestStore(t, "x")
	st.SetTarget(0, "y")
	if _, err := st.Confirm(0); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	if err := st.Lock(0); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if err := st.SetTarget(0, "z"); !apperrors.Is(err, apperrors.ErrLocked) {
		t.Errorf("edit on locked = %v, want ErrLocked", err)
	}
	if _, err := st.Confirm(0); !apperrors.Is(err, apperrors.ErrLocked) {
		t.Errorf("confirm on locked = %v, want ErrLocked", err)
	}

	if err := st.Unlock(0); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	s, _ := st.Get(0)
	if s.Status != StatusTranslated {
		t.Errorf("unlock restored %s, want %s", s.Status, StatusTranslated)
	}
}

func TestFilterStatus(t *testing.T) {
	st := newTestStore(t, "a", "b", "c")
	st.SetTarget(1, "B")
	drafts := st.FilterStatus(StatusDraft)
	if len(drafts) != 1 || drafts[0].Index != 1 {
		t.Errorf("FilterStatus(draft) = %v", drafts)
	}
	if got := len(st.FilterStatus(StatusUntranslated)); got != 2 {
		t.Errorf("untranslated count = %d, want 2", got)
	}
}

func TestBulkSetTargets(t *testing.T) {
	st := newTestStore(t, "a", "b", "c")
	st.Lock(2)
	errs := st.BulkSetTargets(map[int]string{0: "A", 2: "C", 9: "missing"})
	// Index 9 is absent from the store, so only the locked segment errors.
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want exactly the locked failure", errs)
	}
	if !apperrors.Is(errs[0], apperrors.ErrLocked) {
		t.Errorf("err = %v, want ErrLocked", errs[0])
	}
	s, _ := st.Get(0)
	if s.Target != "A" {
		t.Error("bulk apply should still update unlocked segments")
	}
}
