// Package batch drives a translation collaborator over the segment store.
// The engine itself never translates: callers supply a Translator and the
// runner fans segments out to workers. Each worker owns a disjoint stripe of
// segments; the store has no internal locking, so ownership is the whole
// concurrency contract.
package batch

import (
	"context"
	"sync"

	apperrors "github.com/textloom/textloom/core/errors"
	"github.com/textloom/textloom/core/segment"
)

// Translator is the external translation/editing collaborator. It reads
// source text and returns target text; it never sees sequence indices and can
// never alter them.
type Translator interface {
	Translate(ctx context.Context, source string) (string, error)
}

// Options configures one batch run.
type Options struct {
	// Workers is the fan-out width. Defaults to 4.
	Workers int

	// Selector optionally narrows the run to a subset of sequence indices.
	Selector *segment.Selector

	// Statuses lists the statuses eligible for translation. Defaults to
	// untranslated only, so re-running a batch never clobbers human edits.
	Statuses []segment.Status
}

// Result summarizes one batch run.
type Result struct {
	Translated int
	Failed     int
	Skipped    int
	Errors     []error
}

// Run translates eligible segments through tr. Cancellation is best-effort:
// a canceled context stops workers before their next segment, and segments
// already written keep their new target and Draft status.
func Run(ctx context.Context, st *segment.Store, tr Translator, opts Options) (*Result, error) {
	if st == nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "batch: nil store")
	}
	if tr == nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "batch: nil translator")
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	eligible := eligibleStatuses(opts.Statuses)

	var pending []*segment.Segment
	for _, seg := range st.All() {
		if opts.Selector != nil && !opts.Selector.Contains(seg.Index) {
			continue
		}
		if !eligible[seg.Status] {
			continue
		}
		pending = append(pending, seg)
	}
	if workers > len(pending) {
		workers = len(pending)
	}

	result := &Result{Skipped: st.Len() - len(pending)}
	if len(pending) == 0 {
		return result, nil
	}

	type workerResult struct {
		translated int
		failed     int
		errs       []error
	}
	results := make([]workerResult, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			// Striped ownership: worker w owns pending[w], pending[w+workers], ...
			for i := w; i < len(pending); i += workers {
				if ctx.Err() != nil {
					return
				}
				seg := pending[i]
				out, err := tr.Translate(ctx, seg.Source)
				if err != nil {
					results[w].failed++
					results[w].errs = append(results[w].errs,
						apperrors.Wrapf(err, "segment %d", seg.Index))
					continue
				}
				if err := st.SetTarget(seg.Index, out); err != nil {
					results[w].failed++
					results[w].errs = append(results[w].errs, err)
					continue
				}
				results[w].translated++
			}
		}(w)
	}
	wg.Wait()

	for _, r := range results {
		result.Translated += r.translated
		result.Failed += r.failed
		result.Errors = append(result.Errors, r.errs...)
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func eligibleStatuses(statuses []segment.Status) map[segment.Status]bool {
	set := make(map[segment.Status]bool)
	if len(statuses) == 0 {
		set[segment.StatusUntranslated] = true
		return set
	}
	for _, s := range statuses {
		set[s] = true
	}
	return set
}
