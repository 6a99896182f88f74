// Command loom is the CLI for the textloom translation engine. It imports
// documents into segment projects, edits and confirms targets, and exports
// translated documents back into their original shape.
package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/textloom/textloom/core/batch"
	"github.com/textloom/textloom/core/rebuild"
	"github.com/textloom/textloom/core/report"
	"github.com/textloom/textloom/core/segment"
	"github.com/textloom/textloom/core/tag"
	"github.com/textloom/textloom/core/walk"
	"github.com/textloom/textloom/internal/formats"
	"github.com/textloom/textloom/internal/logging"
	"github.com/textloom/textloom/internal/project"
	"github.com/textloom/textloom/internal/validation"

	// Register all built-in dialects.
	_ "github.com/textloom/textloom/internal/formats/all"
)

const version = "0.1.0"

// CLI defines the command-line interface for loom.
var CLI struct {
	LogLevel  string `name:"log-level" default:"info" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" default:"text" help:"Log format (text, json)"`

	Import    ImportCmd    `cmd:"" help:"Import a document into a new project"`
	Export    ExportCmd    `cmd:"" help:"Export the translated document"`
	Status    StatusCmd    `cmd:"" help:"Show project segment status counts"`
	Edit      EditCmd      `cmd:"" help:"Set a segment's target text or notes"`
	Validate  ValidateCmd  `cmd:"" help:"Check tag integrity of segment targets"`
	Confirm   ConfirmCmd   `cmd:"" help:"Confirm translated segments"`
	Approve   ApproveCmd   `cmd:"" help:"Approve confirmed segments"`
	Lock      LockCmd      `cmd:"" help:"Lock segments against editing"`
	Unlock    UnlockCmd    `cmd:"" help:"Unlock previously locked segments"`
	Translate TranslateCmd `cmd:"" help:"Machine-fill untranslated segments"`
	Snapshot  SnapshotCmd  `cmd:"" help:"Snapshot operations (save, restore)"`
	Dialects  DialectsCmd  `cmd:"" help:"List registered document dialects"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// openProject opens a project and loads its segment ledger.
func openProject(path string) (*project.Project, *segment.Store, error) {
	p, err := project.Open(path)
	if err != nil {
		return nil, nil, err
	}
	st, err := p.LoadSegments()
	if err != nil {
		p.Close()
		return nil, nil, err
	}
	return p, st, nil
}

// selectIndices resolves a selector expression against the store.
func selectIndices(st *segment.Store, expr string) ([]int, error) {
	sel, err := segment.ParseSelector(expr)
	if err != nil {
		return nil, err
	}
	segs := sel.Select(st)
	indices := make([]int, len(segs))
	for i, s := range segs {
		indices[i] = s.Index
	}
	return indices, nil
}

// ImportCmd imports a document into a new project.
type ImportCmd struct {
	Path    string `arg:"" help:"Path to source document" type:"existingfile"`
	Out     string `required:"" help:"Output project path" type:"path"`
	Dialect string `help:"Dialect name (default: detect by content)"`
}

func (c *ImportCmd) Run() error {
	if err := validation.ValidatePath(c.Out); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	if err := validation.ValidateImportSize(c.Path); err != nil {
		return err
	}

	var (
		d   formats.Dialect
		err error
	)
	if c.Dialect != "" {
		d, err = formats.Lookup(c.Dialect)
	} else {
		d, _, err = formats.DetectDialect(c.Path)
	}
	if err != nil {
		return err
	}

	docm, err := d.Load(c.Path)
	if err != nil {
		return fmt.Errorf("load %s: %w", c.Path, err)
	}

	g := tag.Default()
	st, rep, err := walk.Walk(docm, g)
	if err != nil {
		return fmt.Errorf("walk: %w", err)
	}

	p, err := project.Create(c.Out, c.Path, d.Name(), g.Version)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.SaveSegments(st); err != nil {
		return err
	}

	logging.ImportPass(d.Name(), c.Path, st.Len(), len(rep.Warnings))
	fmt.Printf("Imported: %s (%s)\n", c.Path, d.Name())
	fmt.Printf("  Segments: %d\n", st.Len())
	for _, w := range rep.Warnings {
		fmt.Printf("  Warning [%s]: %s\n", w.Code, w.Message)
	}
	fmt.Printf("Created: %s\n", c.Out)
	return nil
}

// ExportCmd reconstructs the translated document and saves it.
type ExportCmd struct {
	Project string `arg:"" help:"Path to project" type:"existingfile"`
	Out     string `required:"" help:"Output document path" type:"path"`
	Source  string `help:"Source document path (default: the imported path)" type:"path"`
	Policy  string `default:"copy-source" enum:"copy-source,leave-empty" help:"Untranslated segment policy"`
	Dialect string `help:"Output dialect (default: the import dialect)"`
}

func (c *ExportCmd) Run() error {
	if err := validation.ValidatePath(c.Out); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}

	p, st, err := openProject(c.Project)
	if err != nil {
		return err
	}
	defer p.Close()

	srcPath := c.Source
	if srcPath == "" {
		if srcPath, err = p.Meta(project.MetaSourcePath); err != nil {
			return err
		}
	}
	dialectName := c.Dialect
	if dialectName == "" {
		if dialectName, err = p.Meta(project.MetaDialect); err != nil {
			return err
		}
	}
	d, err := formats.Lookup(dialectName)
	if err != nil {
		return err
	}

	docm, err := d.Load(srcPath)
	if err != nil {
		return fmt.Errorf("load %s: %w", srcPath, err)
	}

	rep, err := rebuild.Reconstruct(docm, st, rebuild.Options{Policy: rebuild.Policy(c.Policy)})
	if err != nil {
		return fmt.Errorf("reconstruct: %w", err)
	}
	if err := d.Save(c.Out, docm); err != nil {
		return fmt.Errorf("save %s: %w", c.Out, err)
	}

	logging.ExportPass(dialectName, c.Out, st.Len(), len(rep.Warnings), c.Policy)
	fmt.Printf("Exported: %s (%s)\n", c.Out, dialectName)
	for _, w := range rep.Warnings {
		if w.SequenceIndex >= 0 {
			fmt.Printf("  Warning [%s] segment %d: %s\n", w.Code, w.SequenceIndex, w.Message)
		} else {
			fmt.Printf("  Warning [%s]: %s\n", w.Code, w.Message)
		}
	}
	return nil
}

// StatusCmd prints per-status segment counts.
type StatusCmd struct {
	Project string `arg:"" help:"Path to project" type:"existingfile"`
}

func (c *StatusCmd) Run() error {
	p, st, err := openProject(c.Project)
	if err != nil {
		return err
	}
	defer p.Close()

	id, _ := p.ID()
	fmt.Printf("Project: %s\n", id)
	fmt.Printf("Segments: %d\n", st.Len())

	counts := make(map[segment.Status]int)
	drifted := 0
	for _, s := range st.All() {
		counts[s.Status]++
		if s.SourceDrifted() {
			drifted++
		}
	}
	statuses := []segment.Status{
		segment.StatusUntranslated, segment.StatusDraft,
		segment.StatusTranslated, segment.StatusApproved, segment.StatusLocked,
	}
	for _, s := range statuses {
		if counts[s] > 0 {
			fmt.Printf("  %-12s %d\n", s, counts[s])
		}
	}
	if drifted > 0 {
		fmt.Printf("  source drift detected in %d segment(s)\n", drifted)
	}
	return nil
}

// EditCmd sets a segment's target text or notes.
type EditCmd struct {
	Project string `arg:"" help:"Path to project" type:"existingfile"`
	Index   int    `arg:"" help:"Sequence index"`
	Target  string `help:"New target text"`
	Notes   string `help:"New reviewer notes"`
}

func (c *EditCmd) Run() error {
	p, st, err := openProject(c.Project)
	if err != nil {
		return err
	}
	defer p.Close()

	if c.Target == "" && c.Notes == "" {
		return fmt.Errorf("nothing to do: pass --target or --notes")
	}
	if c.Target != "" {
		if err := st.SetTarget(c.Index, c.Target); err != nil {
			return err
		}
		logging.SegmentEvent("target_set", c.Index)
	}
	if c.Notes != "" {
		if err := st.SetNotes(c.Index, c.Notes); err != nil {
			return err
		}
		logging.SegmentEvent("notes_set", c.Index)
	}
	return p.SaveSegments(st)
}

// ValidateCmd reports tag integrity problems without changing status.
type ValidateCmd struct {
	Project  string `arg:"" help:"Path to project" type:"existingfile"`
	Segments string `help:"Segment selector, e.g. 1,4-7 (default: all)"`
}

func (c *ValidateCmd) Run() error {
	p, st, err := openProject(c.Project)
	if err != nil {
		return err
	}
	defer p.Close()

	indices, err := selectIndices(st, c.Segments)
	if err != nil {
		return err
	}

	g := st.Grammar()
	rep := report.New("validate")
	problems := 0
	for _, idx := range indices {
		s, _ := st.Get(idx)
		if s.Target == "" {
			continue
		}
		tgtCounts, err := g.Validate(s.Target)
		if err != nil {
			problems++
			fmt.Printf("segment %d: %v\n", idx, err)
			continue
		}
		srcCounts, err := g.Validate(s.Source)
		if err != nil {
			problems++
			fmt.Printf("segment %d: source text invalid: %v\n", idx, err)
			continue
		}
		rep.AddTagMismatches(idx, tag.CompareCounts(srcCounts, tgtCounts))
	}
	for _, w := range rep.Warnings {
		fmt.Printf("segment %d: %s\n", w.SequenceIndex, w.Message)
	}
	if problems == 0 {
		fmt.Printf("OK: %d segment(s) checked, %d soft warning(s)\n", len(indices), len(rep.Warnings))
		return nil
	}
	return fmt.Errorf("%d tag problem(s) found", problems)
}

// ConfirmCmd confirms segments, moving them to the translated state.
type ConfirmCmd struct {
	Project  string `arg:"" help:"Path to project" type:"existingfile"`
	Segments string `help:"Segment selector, e.g. 1,4-7 (default: all drafts)"`
}

func (c *ConfirmCmd) Run() error {
	p, st, err := openProject(c.Project)
	if err != nil {
		return err
	}
	defer p.Close()

	var indices []int
	if c.Segments == "" {
		for _, s := range st.FilterStatus(segment.StatusDraft) {
			indices = append(indices, s.Index)
		}
	} else {
		if indices, err = selectIndices(st, c.Segments); err != nil {
			return err
		}
	}

	rep := report.New("confirm")
	confirmed := 0
	for _, idx := range indices {
		mismatches, err := st.Confirm(idx)
		if err != nil {
			fmt.Printf("segment %d: %v\n", idx, err)
			continue
		}
		confirmed++
		logging.SegmentEvent("confirmed", idx)
		rep.AddTagMismatches(idx, mismatches)
	}
	for _, w := range rep.Warnings {
		fmt.Printf("segment %d: %s\n", w.SequenceIndex, w.Message)
	}
	fmt.Printf("Confirmed: %d segment(s), %d soft warning(s)\n", confirmed, len(rep.Warnings))
	return p.SaveSegments(st)
}

// ApproveCmd approves confirmed segments.
type ApproveCmd struct {
	Project  string `arg:"" help:"Path to project" type:"existingfile"`
	Segments string `help:"Segment selector (default: all translated)"`
}

func (c *ApproveCmd) Run() error {
	p, st, err := openProject(c.Project)
	if err != nil {
		return err
	}
	defer p.Close()

	var indices []int
	if c.Segments == "" {
		for _, s := range st.FilterStatus(segment.StatusTranslated) {
			indices = append(indices, s.Index)
		}
	} else {
		if indices, err = selectIndices(st, c.Segments); err != nil {
			return err
		}
	}

	approved := 0
	for _, idx := range indices {
		if err := st.Approve(idx); err != nil {
			fmt.Printf("segment %d: %v\n", idx, err)
			continue
		}
		approved++
		logging.SegmentEvent("approved", idx)
	}
	fmt.Printf("Approved: %d segment(s)\n", approved)
	return p.SaveSegments(st)
}

// LockCmd locks segments against editing.
type LockCmd struct {
	Project  string `arg:"" help:"Path to project" type:"existingfile"`
	Segments string `required:"" help:"Segment selector, e.g. 1,4-7"`
}

func (c *LockCmd) Run() error {
	p, st, err := openProject(c.Project)
	if err != nil {
		return err
	}
	defer p.Close()

	indices, err := selectIndices(st, c.Segments)
	if err != nil {
		return err
	}
	for _, idx := range indices {
		if err := st.Lock(idx); err != nil {
			return err
		}
		logging.SegmentEvent("locked", idx)
	}
	fmt.Printf("Locked: %d segment(s)\n", len(indices))
	return p.SaveSegments(st)
}

// UnlockCmd restores locked segments to their prior status.
type UnlockCmd struct {
	Project  string `arg:"" help:"Path to project" type:"existingfile"`
	Segments string `required:"" help:"Segment selector, e.g. 1,4-7"`
}

func (c *UnlockCmd) Run() error {
	p, st, err := openProject(c.Project)
	if err != nil {
		return err
	}
	defer p.Close()

	indices, err := selectIndices(st, c.Segments)
	if err != nil {
		return err
	}
	for _, idx := range indices {
		if err := st.Unlock(idx); err != nil {
			return err
		}
		logging.SegmentEvent("unlocked", idx)
	}
	fmt.Printf("Unlocked: %d segment(s)\n", len(indices))
	return p.SaveSegments(st)
}

// TranslateCmd fills untranslated segments with pseudo-translations. It is
// the integration point for machine translation backends; the built-in
// backend brackets the source so layout and tag handling can be exercised
// before a real engine is wired in.
type TranslateCmd struct {
	Project  string `arg:"" help:"Path to project" type:"existingfile"`
	Segments string `help:"Segment selector (default: all untranslated)"`
	Workers  int    `default:"4" help:"Concurrent translation workers"`
}

func (c *TranslateCmd) Run() error {
	p, st, err := openProject(c.Project)
	if err != nil {
		return err
	}
	defer p.Close()

	sel, err := segment.ParseSelector(c.Segments)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := batch.Run(context.Background(), st, batch.NewPseudo(), batch.Options{
		Workers:  c.Workers,
		Selector: sel,
	})
	if err != nil {
		return err
	}
	logging.BatchRun(res.Translated, res.Failed, res.Skipped, time.Since(start))

	fmt.Printf("Translated: %d, failed: %d, skipped: %d\n", res.Translated, res.Failed, res.Skipped)
	for _, e := range res.Errors {
		fmt.Printf("  %v\n", e)
	}
	return p.SaveSegments(st)
}

// SnapshotCmd groups snapshot operations.
type SnapshotCmd struct {
	Save    SnapshotSaveCmd    `cmd:"" help:"Write an xz-compressed project snapshot"`
	Restore SnapshotRestoreCmd `cmd:"" help:"Restore a project from a snapshot"`
}

// SnapshotSaveCmd writes a snapshot file.
type SnapshotSaveCmd struct {
	Project string `arg:"" help:"Path to project" type:"existingfile"`
	Out     string `required:"" help:"Output snapshot path" type:"path"`
}

func (c *SnapshotSaveCmd) Run() error {
	p, err := project.Open(c.Project)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.WriteSnapshot(c.Out); err != nil {
		return err
	}
	fmt.Printf("Snapshot: %s\n", c.Out)
	return nil
}

// SnapshotRestoreCmd creates a project from a snapshot file.
type SnapshotRestoreCmd struct {
	Snapshot string `arg:"" help:"Path to snapshot" type:"existingfile"`
	Out      string `required:"" help:"Output project path" type:"path"`
}

func (c *SnapshotRestoreCmd) Run() error {
	snap, err := project.ReadSnapshot(c.Snapshot)
	if err != nil {
		return err
	}
	p, err := project.RestoreSnapshot(snap, c.Out)
	if err != nil {
		return err
	}
	defer p.Close()

	fmt.Printf("Restored: %s (%d segments)\n", c.Out, len(snap.Segments))
	return nil
}

// DialectsCmd lists registered dialects.
type DialectsCmd struct{}

func (c *DialectsCmd) Run() error {
	names := formats.Names()
	sort.Strings(names)
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("loom %s\n", version)
	fmt.Printf("  grammar version: %d\n", tag.CurrentVersion)
	fmt.Printf("  sqlite driver: %s (%s)\n", project.DriverName(), project.DriverType())
	return nil
}

func main() {
	// A .env beside the binary can set LOOM_* defaults; absence is fine.
	_ = godotenv.Load()

	ctx := kong.Parse(&CLI,
		kong.Name("loom"),
		kong.Description("textloom - segment-based document translation engine"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.ParseFormat(CLI.LogFormat))

	ctx.FatalIfErrorf(ctx.Run(ctx))
}
