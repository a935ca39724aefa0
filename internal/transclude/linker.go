package transclude

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/olgasafonova/wikisource-mcp-server/internal/pageblock"
	"github.com/olgasafonova/wikisource-mcp-server/metrics"
	"github.com/olgasafonova/wikisource-mcp-server/tracing"
)

// LinkSummary is the edit summary of a page-link conversion.
const LinkSummary = "Bot: Converted 'Page no:' references to page links."

var (
	bareMarker   = regexp.MustCompile(`Page no:\s*(\d+)`)
	linkedMarker = regexp.MustCompile(`\[\[Page:[^/|\]]+/\d+\|Page no: \d+\]\]`)
)

// AlreadyLinked reports whether text already carries converted page links.
// Such text must not be converted or saved again.
func AlreadyLinked(text string) bool {
	return linkedMarker.MatchString(text)
}

// ConvertPageMarkers rewrites every bare "Page no: N" marker as a link to
// Page:<index>/N. index is the file name without the Index: prefix.
func ConvertPageMarkers(text, index string) string {
	return bareMarker.ReplaceAllString(text, "[[Page:"+escapeReplacement(index)+"/${1}|Page no: ${1}]]")
}

func escapeReplacement(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}

// IndexFileName strips the Index: namespace prefix from an index title.
func IndexFileName(indexTitle string) string {
	return strings.TrimPrefix(strings.TrimSpace(indexTitle), "Index:")
}

// LinkOutcome is what LinkPages did.
type LinkOutcome string

const (
	LinkSkipped   LinkOutcome = "skipped"
	LinkUnchanged LinkOutcome = "unchanged"
	LinkPlanned   LinkOutcome = "planned"
	LinkSaved     LinkOutcome = "saved"
	LinkSplit     LinkOutcome = "split"
)

// LinkRequest names the main page to convert and the Index it links into.
type LinkRequest struct {
	IndexTitle string
	MainTitle  string
	DryRun     bool
}

// LinkResult reports the outcome of LinkPages.
type LinkResult struct {
	MainTitle  string       `json:"main_title"`
	IndexTitle string       `json:"index_title"`
	Outcome    LinkOutcome  `json:"outcome"`
	Markers    int          `json:"markers_converted"`
	Size       int          `json:"size_bytes"`
	Split      *SplitResult `json:"split,omitempty"`
}

// Linker converts bare page markers on a main page into page links.
type Linker struct {
	store     PageStore
	assembler *Assembler
	logger    *slog.Logger

	// SplitOn decides whether a failed save should fall back to splitting
	// the converted text into subpages. Nil never splits.
	SplitOn func(error) bool
}

// NewLinker returns a Linker that falls back to assembler when a save is
// rejected and splitOn accepts the error.
func NewLinker(store PageStore, assembler *Assembler, splitOn func(error) bool, logger *slog.Logger) *Linker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Linker{store: store, assembler: assembler, logger: logger, SplitOn: splitOn}
}

func (l *Linker) splits() bool {
	return l.assembler != nil && l.SplitOn != nil
}

// LinkPages converts the markers on req.MainTitle. Text that is already
// linked is skipped without any write.
func (l *Linker) LinkPages(ctx context.Context, req LinkRequest) (*LinkResult, error) {
	ctx, span := tracing.StartSpan(ctx, "transclude.link_pages")
	defer span.End()
	tracing.AddWikiAttributes(span, "link_pages", req.MainTitle)

	res, err := l.linkPages(ctx, req)
	tracing.AddLinkAttributes(span, string(res.Outcome), res.Markers, res.Size)
	tracing.RecordError(span, err)
	return res, err
}

func (l *Linker) linkPages(ctx context.Context, req LinkRequest) (*LinkResult, error) {
	res := &LinkResult{MainTitle: req.MainTitle, IndexTitle: req.IndexTitle}
	index := IndexFileName(req.IndexTitle)
	if index == "" {
		return res, fmt.Errorf("index title is required")
	}

	text, exists, err := l.store.FetchPageText(ctx, req.MainTitle)
	if err != nil {
		return res, fmt.Errorf("fetching %q: %w", req.MainTitle, err)
	}
	if !exists {
		return res, &NotFoundError{Title: req.MainTitle, Kind: "main page"}
	}

	if AlreadyLinked(text) {
		l.logger.Info("Page links already present, skipping", "page", req.MainTitle)
		res.Outcome = LinkSkipped
		return res, nil
	}

	res.Markers = len(bareMarker.FindAllStringIndex(text, -1))
	converted := ConvertPageMarkers(text, index)
	res.Size = len(converted)
	if converted == text {
		l.logger.Info("No page markers to convert", "page", req.MainTitle)
		res.Outcome = LinkUnchanged
		return res, nil
	}

	if req.DryRun {
		res.Outcome = LinkPlanned
		if l.splits() && res.Size > pageblock.PlatformPageLimit {
			plan, err := l.assembler.Plan(req.MainTitle, converted)
			if err != nil {
				return res, err
			}
			plan.DryRun = true
			res.Split = plan
			l.logger.Info("Converted page exceeds the wiki limit, split planned",
				"page", req.MainTitle,
				"bytes", res.Size,
				"subpages", len(plan.Subpages))
		}
		return res, nil
	}

	saveErr := l.store.SavePage(ctx, req.MainTitle, converted, LinkSummary)
	if saveErr == nil {
		l.logger.Info("Converted page markers to links",
			"page", req.MainTitle,
			"markers", res.Markers,
			"bytes", res.Size)
		res.Outcome = LinkSaved
		return res, nil
	}

	if !l.splits() || !l.SplitOn(saveErr) {
		return res, fmt.Errorf("saving %q: %w", req.MainTitle, saveErr)
	}

	l.logger.Warn("Converted page too large, splitting into subpages",
		"page", req.MainTitle,
		"bytes", res.Size,
		"error", saveErr)
	metrics.RecordEdit("link_fallback_split", res.Size, false)

	split, err := l.assembler.Split(ctx, req.MainTitle, converted)
	res.Split = split
	if err != nil {
		return res, err
	}
	res.Outcome = LinkSplit
	return res, nil
}
