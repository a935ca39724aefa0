package transclude

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/olgasafonova/wikisource-mcp-server/internal/etext"
)

// Namespaces used by ProofreadPage on Wikisource.
const (
	NamespacePage  = 104
	NamespaceIndex = 106
)

// Edit summaries of the main-page chores.
const (
	MainPageSummary     = "Bot: Creating mainspace transclusion of Index pages"
	OrientationSummary  = "Bot: Adding margin styling and marking as proofread."
	UploadSummary       = "Bot: Adding OCR/provided text and marking as proofread."
	ExtendedMainSummary = "Bot: Creating main page with transclusion of text pages"
)

// DefaultUploadConcurrency bounds parallel Page: saves during an upload.
const DefaultUploadConcurrency = 4

var trailingNumber = regexp.MustCompile(`/(\d+)$`)

// PageNumberFromTitle returns the number after the last slash of a Page:
// title. ok is false for titles without one.
func PageNumberFromTitle(title string) (n int, ok bool) {
	m := trailingNumber.FindStringSubmatch(title)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// SortPageTitles orders titles by trailing page number. Titles without a
// number go last, keeping their relative order.
func SortPageTitles(titles []string) {
	key := func(t string) int {
		if n, ok := PageNumberFromTitle(t); ok {
			return n
		}
		return math.MaxInt
	}
	sort.SliceStable(titles, func(i, j int) bool {
		return key(titles[i]) < key(titles[j])
	})
}

// BaseTitle returns an index file name without its extension, the default
// main page title for that index.
func BaseTitle(fileName string) string {
	if i := strings.LastIndex(fileName, "."); i > 0 {
		return fileName[:i]
	}
	return fileName
}

// MainPages runs the chores around publishing an Index: transcluding it on
// a main page, styling its Page: pages and uploading e-text.
type MainPages struct {
	wiki        Wiki
	user        string
	concurrency int
	logger      *slog.Logger
}

// NewMainPages returns a MainPages that edits through wiki and credits
// proofreading to user.
func NewMainPages(wiki Wiki, user string, logger *slog.Logger) *MainPages {
	if logger == nil {
		logger = slog.Default()
	}
	return &MainPages{wiki: wiki, user: user, concurrency: DefaultUploadConcurrency, logger: logger}
}

// SetConcurrency changes the upload fan-out. Values below 1 are ignored.
func (m *MainPages) SetConcurrency(n int) {
	if n >= 1 {
		m.concurrency = n
	}
}

// indexPages lists the Page: titles of an index, sorted by page number.
func (m *MainPages) indexPages(ctx context.Context, indexTitle string) ([]string, error) {
	exists, err := m.wiki.PageExists(ctx, indexTitle)
	if err != nil {
		return nil, fmt.Errorf("checking %q: %w", indexTitle, err)
	}
	if !exists {
		return nil, &NotFoundError{Title: indexTitle, Kind: "index"}
	}

	prefix := IndexFileName(indexTitle) + "/"
	m.logger.Info("Looking for pages", "index", indexTitle, "prefix", prefix)
	titles, err := m.wiki.ListPageTitles(ctx, prefix, NamespacePage)
	if err != nil {
		return nil, fmt.Errorf("listing pages of %q: %w", indexTitle, err)
	}
	SortPageTitles(titles)
	m.logger.Info("Found pages", "index", indexTitle, "count", len(titles))
	return titles, nil
}

// CreateMainPageRequest describes a <pages> transclusion of an index.
type CreateMainPageRequest struct {
	IndexTitle string
	MainTitle  string // defaults to the index file name without extension
	From       int    // defaults to 1
	To         int    // defaults to the last page found
	DryRun     bool
}

// MainPageResult reports a main-page operation.
type MainPageResult struct {
	MainTitle string `json:"main_title"`
	Content   string `json:"content,omitempty"`
	Pages     int    `json:"pages_found"`
	Saved     bool   `json:"saved"`
	Skipped   bool   `json:"skipped,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// PagesTag renders the ProofreadPage <pages> tag for an index file.
func PagesTag(fileName string, from, to int) string {
	return fmt.Sprintf(`<pages index="%s" from=%d to=%d />`, fileName, from, to)
}

// CreateFromIndex creates a main page transcluding the index's pages. An
// existing main page is left alone.
func (m *MainPages) CreateFromIndex(ctx context.Context, req CreateMainPageRequest) (*MainPageResult, error) {
	fileName := IndexFileName(req.IndexTitle)
	mainTitle := req.MainTitle
	if mainTitle == "" {
		mainTitle = BaseTitle(fileName)
	}
	res := &MainPageResult{MainTitle: mainTitle}

	titles, err := m.indexPages(ctx, req.IndexTitle)
	if err != nil {
		return res, err
	}
	res.Pages = len(titles)
	if len(titles) == 0 {
		res.Skipped = true
		res.Reason = "no pages found for index"
		m.logger.Warn("No pages found for index", "index", req.IndexTitle)
		return res, nil
	}

	from := req.From
	if from <= 0 {
		from = 1
	}
	to := req.To
	if to <= 0 {
		n, ok := PageNumberFromTitle(titles[len(titles)-1])
		if !ok {
			return res, fmt.Errorf("last page %q of %q has no page number; pass an explicit end page", titles[len(titles)-1], req.IndexTitle)
		}
		to = n
	}
	res.Content = PagesTag(fileName, from, to)

	exists, err := m.wiki.PageExists(ctx, mainTitle)
	if err != nil {
		return res, fmt.Errorf("checking %q: %w", mainTitle, err)
	}
	if exists {
		res.Skipped = true
		res.Reason = "main page already exists"
		m.logger.Info("Main page already exists", "page", mainTitle)
		return res, nil
	}
	if req.DryRun {
		return res, nil
	}

	if err := m.wiki.SavePage(ctx, mainTitle, res.Content, MainPageSummary); err != nil {
		return res, fmt.Errorf("saving %q: %w", mainTitle, err)
	}
	res.Saved = true
	m.logger.Info("Mainspace page created", "page", mainTitle, "from", from, "to", to)
	return res, nil
}

// PageOutcome is the result of one Page: edit in a multi-page run.
type PageOutcome struct {
	Page   int    `json:"page,omitempty"`
	Title  string `json:"title"`
	Status string `json:"status"` // saved, planned, missing, failed
	Error  string `json:"error,omitempty"`
}

// OrientationRequest selects the index whose pages are restyled.
type OrientationRequest struct {
	IndexTitle string
	DryRun     bool
}

// OrientationResult reports a FormatOrientation run.
type OrientationResult struct {
	MainTitle string        `json:"main_title"`
	Skipped   bool          `json:"skipped,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Pages     []PageOutcome `json:"pages,omitempty"`
}

// FormatOrientation wraps every existing Page: page of an index in the
// margin div and marks it proofread. Nothing is touched once the main page
// exists. Failures are reported per page.
func (m *MainPages) FormatOrientation(ctx context.Context, req OrientationRequest) (*OrientationResult, error) {
	mainTitle := BaseTitle(IndexFileName(req.IndexTitle))
	res := &OrientationResult{MainTitle: mainTitle}

	exists, err := m.wiki.PageExists(ctx, mainTitle)
	if err != nil {
		return res, fmt.Errorf("checking %q: %w", mainTitle, err)
	}
	if exists {
		res.Skipped = true
		res.Reason = "main page already exists"
		m.logger.Warn("Main page already exists, pages not modified", "page", mainTitle)
		return res, nil
	}

	titles, err := m.indexPages(ctx, req.IndexTitle)
	if err != nil {
		return res, err
	}

	for _, title := range titles {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		n, _ := PageNumberFromTitle(title)
		out := PageOutcome{Page: n, Title: title}

		text, ok, err := m.wiki.FetchPageText(ctx, title)
		switch {
		case err != nil:
			out.Status, out.Error = "failed", err.Error()
		case !ok:
			out.Status = "missing"
		case req.DryRun:
			out.Status = "planned"
		default:
			if err := m.wiki.SavePage(ctx, title, etext.FormatOrientation(text, m.user), OrientationSummary); err != nil {
				out.Status, out.Error = "failed", err.Error()
			} else {
				out.Status = "saved"
			}
		}
		if out.Error != "" {
			m.logger.Error("Error processing page", "page", title, "error", out.Error)
		}
		res.Pages = append(res.Pages, out)
	}
	return res, nil
}

// ExtendedRequest builds a main page from e-text rather than a <pages> tag.
type ExtendedRequest struct {
	IndexTitle string
	MainTitle  string
	Pages      []etext.PageText
	Overwrite  bool
	DryRun     bool
}

// CreateExtended writes "== Page N ==" sections for each page of e-text to
// the main page. A main page with content is only replaced when Overwrite is
// set.
func (m *MainPages) CreateExtended(ctx context.Context, req ExtendedRequest) (*MainPageResult, error) {
	mainTitle := req.MainTitle
	if mainTitle == "" {
		mainTitle = BaseTitle(IndexFileName(req.IndexTitle))
	}
	res := &MainPageResult{MainTitle: mainTitle, Pages: len(req.Pages)}

	content, empty := etext.PrepareMainContent(req.Pages, IndexFileName(req.IndexTitle))
	for _, n := range empty {
		m.logger.Warn("Page has no text content", "page", n)
	}
	if content == "" {
		return res, fmt.Errorf("no page text to write to %q", mainTitle)
	}
	res.Content = content

	current, exists, err := m.wiki.FetchPageText(ctx, mainTitle)
	if err != nil {
		return res, fmt.Errorf("fetching %q: %w", mainTitle, err)
	}
	if exists && strings.TrimSpace(current) != "" && !req.Overwrite {
		res.Skipped = true
		res.Reason = "main page already exists"
		m.logger.Warn("Main page already exists, not overwriting", "page", mainTitle)
		return res, nil
	}
	if req.DryRun {
		return res, nil
	}

	if err := m.wiki.SavePage(ctx, mainTitle, content, ExtendedMainSummary); err != nil {
		return res, fmt.Errorf("saving %q: %w", mainTitle, err)
	}
	res.Saved = true
	m.logger.Info("Main page written", "page", mainTitle, "replaced", exists)
	return res, nil
}

// UploadRequest uploads e-text into the Page: pages of an index.
type UploadRequest struct {
	IndexTitle string
	Pages      []etext.PageText
	DryRun     bool
}

// UploadResult reports an upload, one outcome per page of e-text in page
// order.
type UploadResult struct {
	IndexTitle string        `json:"index_title"`
	Saved      int           `json:"saved"`
	Failed     int           `json:"failed"`
	Pages      []PageOutcome `json:"pages"`
}

// uploadTargets maps page numbers to the Page: titles an upload writes. The
// index's own page list decides which numbers exist when the wiki offers
// one; otherwise every parsed page gets Page:<file>/<N>.
func (m *MainPages) uploadTargets(ctx context.Context, indexTitle string, pages []etext.PageText) (map[int]string, error) {
	exists, err := m.wiki.PageExists(ctx, indexTitle)
	if err != nil {
		return nil, fmt.Errorf("checking %q: %w", indexTitle, err)
	}
	if !exists {
		return nil, &NotFoundError{Title: indexTitle, Kind: "index"}
	}

	byNumber := make(map[int]string, len(pages))
	if pager, ok := m.wiki.(IndexPager); ok {
		titles, err := pager.IndexPageTitles(ctx, indexTitle)
		if err != nil {
			return nil, fmt.Errorf("listing pages of %q: %w", indexTitle, err)
		}
		for _, t := range titles {
			if n, ok := PageNumberFromTitle(t); ok {
				byNumber[n] = t
			}
		}
		if len(byNumber) > 0 {
			m.logger.Info("Index defines pages", "index", indexTitle, "count", len(byNumber))
			return byNumber, nil
		}
	}

	fileName := IndexFileName(indexTitle)
	for _, p := range pages {
		byNumber[p.Number] = fmt.Sprintf("Page:%s/%d", fileName, p.Number)
	}
	return byNumber, nil
}

// UploadPageTexts saves each page of e-text into its Page: page, formatted
// as proofread. Pages the index does not have, and failed saves, are
// recorded per page and do not stop the run. Saves to different pages run
// concurrently.
func (m *MainPages) UploadPageTexts(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	res := &UploadResult{IndexTitle: req.IndexTitle}

	byNumber, err := m.uploadTargets(ctx, req.IndexTitle, req.Pages)
	if err != nil {
		return res, err
	}

	res.Pages = make([]PageOutcome, len(req.Pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for i, p := range req.Pages {
		title, ok := byNumber[p.Number]
		if !ok {
			res.Pages[i] = PageOutcome{Page: p.Number, Status: "missing", Error: "page number not found in index"}
			m.logger.Warn("Page number not found in index", "index", req.IndexTitle, "page", p.Number)
			continue
		}
		if req.DryRun {
			res.Pages[i] = PageOutcome{Page: p.Number, Title: title, Status: "planned"}
			continue
		}

		g.Go(func() error {
			out := PageOutcome{Page: p.Number, Title: title, Status: "saved"}
			if err := m.wiki.SavePage(gctx, title, etext.FormatProofread(p.Text, m.user), UploadSummary); err != nil {
				out.Status, out.Error = "failed", err.Error()
				m.logger.Error("Error uploading page", "page", title, "error", err)
			} else {
				m.logger.Info("Uploaded page text", "page", title)
			}
			res.Pages[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	for _, out := range res.Pages {
		switch out.Status {
		case "saved":
			res.Saved++
		case "missing", "failed":
			res.Failed++
		}
	}
	return res, nil
}
