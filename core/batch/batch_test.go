package batch

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/textloom/textloom/core/segment"
	"github.com/textloom/textloom/core/tag"
)

func newStore(t *testing.T, n int) *segment.Store {
	t.Helper()
	st := segment.NewStore(tag.Default())
	for i := 0; i < n; i++ {
		if err := st.Append(segment.New(i, segment.ParagraphAt(i), "", "source", tag.CurrentVersion)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	return st
}

func TestRunTranslatesUntranslated(t *testing.T) {
	st := newStore(t, 10)
	res, err := Run(context.Background(), st, NewPseudo(), Options{Workers: 3})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Translated != 10 {
		t.Errorf("Translated = %d, want 10", res.Translated)
	}
	for _, seg := range st.All() {
		if seg.Target != "[[source]]" {
			t.Errorf("segment %d target = %q", seg.Index, seg.Target)
		}
		if seg.Status != segment.StatusDraft {
			t.Errorf("segment %d status = %s, want draft", seg.Index, seg.Status)
		}
	}
}

func TestRunSkipsEditedSegments(t *testing.T) {
	st := newStore(t, 4)
	st.SetTarget(1, "human edit")

	res, err := Run(context.Background(), st, NewPseudo(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Translated != 3 || res.Skipped != 1 {
		t.Errorf("Translated = %d, Skipped = %d", res.Translated, res.Skipped)
	}
	s, _ := st.Get(1)
	if s.Target != "human edit" {
		t.Error("batch must never clobber human drafts by default")
	}
}

func TestRunHonorsSelector(t *testing.T) {
	st := newStore(t, 6)
	sel, err := segment.ParseSelector("0-2")
	if err != nil {
		t.Fatalf("ParseSelector: %v", err)
	}
	res, err := Run(context.Background(), st, NewPseudo(), Options{Selector: sel})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Translated != 3 {
		t.Errorf("Translated = %d, want 3", res.Translated)
	}
	s, _ := st.Get(5)
	if s.Target != "" {
		t.Error("unselected segment was translated")
	}
}

// blockingTranslator cancels the shared context after a few calls.
type blockingTranslator struct {
	calls  atomic.Int32
	cancel context.CancelFunc
}

func (b *blockingTranslator) Translate(ctx context.Context, source string) (string, error) {
	n := b.calls.Add(1)
	if n == 3 {
		b.cancel()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return strings.ToUpper(source), nil
}

func TestRunCancellationKeepsCompletedWork(t *testing.T) {
	st := newStore(t, 50)
	ctx, cancel := context.WithCancel(context.Background())
	tr := &blockingTranslator{cancel: cancel}

	// A single worker makes the cut deterministic: calls 1 and 2 complete,
	// call 3 cancels and fails, no further segments start.
	res, err := Run(ctx, st, tr, Options{Workers: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v, want context.Canceled", err)
	}
	if res.Translated != 2 {
		t.Errorf("Translated = %d, want the 2 segments completed before cancel", res.Translated)
	}
	// Completed segments keep their Draft status; the rest stay untranslated.
	drafts := len(st.FilterStatus(segment.StatusDraft))
	if drafts != res.Translated {
		t.Errorf("drafts = %d, Translated = %d; statuses must match completed work", drafts, res.Translated)
	}
}

// failingTranslator errors on every call.
type failingTranslator struct{}

func (failingTranslator) Translate(ctx context.Context, source string) (string, error) {
	return "", errors.New("provider unavailable")
}

func TestRunCollectsFailures(t *testing.T) {
	st := newStore(t, 3)
	res, err := Run(context.Background(), st, failingTranslator{}, Options{Workers: 2})
	if err != nil {
		t.Fatalf("per-segment failures must not fail the run: %v", err)
	}
	if res.Failed != 3 || len(res.Errors) != 3 {
		t.Errorf("Failed = %d, Errors = %d", res.Failed, len(res.Errors))
	}
	if got := len(st.FilterStatus(segment.StatusUntranslated)); got != 3 {
		t.Errorf("failed segments must keep their status, untranslated = %d", got)
	}
}

func TestRunNilArguments(t *testing.T) {
	st := newStore(t, 1)
	if _, err := Run(context.Background(), nil, NewPseudo(), Options{}); err == nil {
		t.Error("nil store must error")
	}
	if _, err := Run(context.Background(), st, nil, Options{}); err == nil {
		t.Error("nil translator must error")
	}
}
