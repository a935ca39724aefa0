package transclude

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/olgasafonova/wikisource-mcp-server/internal/pageblock"
	"github.com/olgasafonova/wikisource-mcp-server/metrics"
	"github.com/olgasafonova/wikisource-mcp-server/tracing"
)

// Edit summaries
const (
	SubpageSummary = "Bot: Split large main page content"
	SplitSummary   = "Bot: Split oversized main page and added subpage transclusions."
)

// ErrEmptyPage is returned when there is no text to split.
var ErrEmptyPage = errors.New("page has no text to split")

// Config holds the settings of a split.
type Config struct {
	// Ceiling is the maximum subpage size in UTF-8 bytes. Zero means
	// pageblock.DefaultCeiling.
	Ceiling int

	// Marker recognises page markers. Nil means pageblock.DefaultMarker.
	Marker *pageblock.Marker

	// DryRun plans the split and writes nothing.
	DryRun bool
}

func (c Config) withDefaults() Config {
	if c.Ceiling <= 0 {
		c.Ceiling = pageblock.DefaultCeiling
	}
	if c.Marker == nil {
		c.Marker = pageblock.DefaultMarker
	}
	return c
}

// SubpageRef is one planned subpage.
type SubpageRef struct {
	Index     int    `json:"index"`
	Title     string `json:"title"`
	Text      string `json:"-"`
	Size      int    `json:"size_bytes"`
	Pages     string `json:"pages"`
	FirstPage int    `json:"first_page,omitempty"`
	LastPage  int    `json:"last_page,omitempty"`
	Oversized bool   `json:"oversized,omitempty"`
	Saved     bool   `json:"saved"`
}

// SplitResult describes a split, whether planned, finished or stopped
// part way.
type SplitResult struct {
	Parent     string                            `json:"parent"`
	Stage      Stage                             `json:"stage"`
	Ceiling    int                               `json:"ceiling_bytes"`
	DryRun     bool                              `json:"dry_run,omitempty"`
	Skipped    bool                              `json:"skipped,omitempty"`
	SkipReason string                            `json:"skip_reason,omitempty"`
	Subpages   []SubpageRef                      `json:"subpages,omitempty"`
	Document   string                            `json:"document,omitempty"`
	Warnings   []pageblock.OversizedBlockWarning `json:"warnings,omitempty"`
}

// SavedTitles lists the subpages written so far.
func (r *SplitResult) SavedTitles() []string {
	var titles []string
	for _, s := range r.Subpages {
		if s.Saved {
			titles = append(titles, s.Title)
		}
	}
	return titles
}

// Assembler turns an oversized page into subpages plus a transcluding parent.
type Assembler struct {
	store  PageStore
	cfg    Config
	logger *slog.Logger
}

// NewAssembler returns an Assembler that writes through store.
func NewAssembler(store PageStore, cfg Config, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{store: store, cfg: cfg.withDefaults(), logger: logger}
}

// Ceiling returns the effective size ceiling.
func (a *Assembler) Ceiling() int {
	return a.cfg.Ceiling
}

// SubpageTitle names the i-th (1-based) subpage of parent.
func SubpageTitle(parent string, i int) string {
	return parent + "/" + strconv.Itoa(i)
}

// TransclusionDocument renders one transclusion per line, in order.
func TransclusionDocument(titles []string) string {
	lines := make([]string, len(titles))
	for i, t := range titles {
		lines[i] = "{{:" + t + "}}"
	}
	return strings.Join(lines, "\n")
}

// IsTransclusionDocument reports whether text consists only of
// transclusions of parent's numbered subpages, i.e. parent is already split.
func IsTransclusionDocument(parent, text string) bool {
	found := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		inner, ok := strings.CutPrefix(line, "{{:"+parent+"/")
		if !ok {
			return false
		}
		num, ok := strings.CutSuffix(inner, "}}")
		if !ok {
			return false
		}
		if _, err := strconv.Atoi(num); err != nil {
			return false
		}
		found = true
	}
	return found
}

// Plan segments and packs text without touching the wiki.
func (a *Assembler) Plan(parent, text string) (*SplitResult, error) {
	res := &SplitResult{Parent: parent, Stage: StageNotStarted, Ceiling: a.cfg.Ceiling}
	if strings.TrimSpace(text) == "" {
		return res, ErrEmptyPage
	}

	blocks := pageblock.Segment(text, a.cfg.Marker)
	res.Stage = StageSegmented

	chunks, err := pageblock.Pack(blocks, a.cfg.Ceiling)
	if err != nil {
		return res, err
	}
	res.Stage = StagePacked

	titles := make([]string, len(chunks))
	for i, c := range chunks {
		ref := SubpageRef{
			Index:     i + 1,
			Title:     SubpageTitle(parent, i+1),
			Text:      c.Text(),
			Size:      c.Size,
			Pages:     c.RangeLabel(),
			Oversized: c.Oversized,
		}
		if first, last, ok := c.PageRange(); ok {
			ref.FirstPage, ref.LastPage = first, last
		}
		titles[i] = ref.Title
		res.Subpages = append(res.Subpages, ref)

		a.logger.Info("Planned subpage",
			"subpage", ref.Title,
			"pages", ref.Pages,
			"bytes", ref.Size)
	}
	res.Document = TransclusionDocument(titles)

	res.Warnings = pageblock.Warnings(chunks, a.cfg.Ceiling)
	for _, w := range res.Warnings {
		a.logger.Warn("Page block exceeds split ceiling", "parent", parent, "warning", w.String())
	}
	return res, nil
}

// Split saves text as numbered subpages of parent, then replaces the parent
// with transclusions of them. Subpages are written in order and the first
// failed save stops the run with *SubpageSaveError; the parent is only
// rewritten once every subpage is saved. A failed parent save returns
// *ParentSaveError. The result is always non-nil and reports the stage
// reached.
func (a *Assembler) Split(ctx context.Context, parent, text string) (*SplitResult, error) {
	ctx, span := tracing.StartSpan(ctx, "transclude.split")
	defer span.End()

	res, err := a.split(ctx, parent, text)
	tracing.AddSplitAttributes(span, parent, a.cfg.Ceiling, len(res.Subpages))
	tracing.RecordError(span, err)
	if !res.DryRun && !res.Skipped {
		metrics.RecordSplit(res.Stage.String(), len(res.SavedTitles()), len(res.Warnings))
	}
	return res, err
}

func (a *Assembler) split(ctx context.Context, parent, text string) (*SplitResult, error) {
	if IsTransclusionDocument(parent, text) {
		a.logger.Info("Parent already transcludes its subpages, skipping", "parent", parent)
		return &SplitResult{
			Parent:     parent,
			Stage:      StageDone,
			Ceiling:    a.cfg.Ceiling,
			Skipped:    true,
			SkipReason: "parent already transcludes its subpages",
		}, nil
	}

	res, err := a.Plan(parent, text)
	tracing.RecordStage(ctx, res.Stage.String())
	if err != nil {
		return res, err
	}

	if a.cfg.DryRun {
		res.DryRun = true
		a.logger.Info("Dry run, nothing saved",
			"parent", parent,
			"subpages", len(res.Subpages))
		return res, nil
	}

	setStage := func(s Stage) {
		res.Stage = s
		tracing.RecordStage(ctx, s.String())
	}

	setStage(StageSubpagesWriting)
	for i := range res.Subpages {
		sp := &res.Subpages[i]
		if err := a.store.SavePage(ctx, sp.Title, sp.Text, SubpageSummary); err != nil {
			tracing.RecordSubpageSave(ctx, sp.Title, sp.Index, sp.Size, false)
			setStage(StageFailed)
			a.logger.Error("Subpage save failed",
				"parent", parent,
				"subpage", sp.Title,
				"index", sp.Index,
				"error", err)
			return res, &SubpageSaveError{
				Index: sp.Index,
				Title: sp.Title,
				Saved: res.SavedTitles(),
				Err:   err,
			}
		}
		sp.Saved = true
		tracing.RecordSubpageSave(ctx, sp.Title, sp.Index, sp.Size, true)
		a.logger.Info("Subpage saved", "subpage", sp.Title, "pages", sp.Pages)
	}
	setStage(StageSubpagesDone)

	setStage(StageParentRewriting)
	if err := a.store.SavePage(ctx, parent, res.Document, SplitSummary); err != nil {
		setStage(StageFailed)
		a.logger.Error("Parent rewrite failed after subpages were saved",
			"parent", parent,
			"subpages", len(res.Subpages),
			"error", err)
		return res, &ParentSaveError{
			Parent:   parent,
			Subpages: res.SavedTitles(),
			Document: res.Document,
			Err:      err,
		}
	}
	setStage(StageDone)
	a.logger.Info("Main page split and saved with transclusions",
		"parent", parent,
		"subpages", len(res.Subpages))
	return res, nil
}

// SplitPage fetches parent and splits its current text.
func (a *Assembler) SplitPage(ctx context.Context, parent string) (*SplitResult, error) {
	text, exists, err := a.store.FetchPageText(ctx, parent)
	if err != nil {
		return &SplitResult{Parent: parent, Stage: StageNotStarted, Ceiling: a.cfg.Ceiling}, fmt.Errorf("fetching %q: %w", parent, err)
	}
	if !exists {
		return &SplitResult{Parent: parent, Stage: StageNotStarted, Ceiling: a.cfg.Ceiling}, &NotFoundError{Title: parent, Kind: "parent"}
	}
	return a.Split(ctx, parent, text)
}
