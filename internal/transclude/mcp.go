package transclude

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/olgasafonova/wikisource-mcp-server/internal/etext"
)

// Service bundles the operations of this package behind Args/Result
// methods for the MCP tool layer and the batch runner.
type Service struct {
	wiki    Wiki
	cfg     Config
	splitOn func(error) bool
	pages   *MainPages
	logger  *slog.Logger
}

// NewService returns a Service editing through wiki. user is credited in
// pagequality tags; splitOn picks the save errors that make page-link
// conversion fall back to a split.
func NewService(wiki Wiki, cfg Config, user string, splitOn func(error) bool, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		wiki:    wiki,
		cfg:     cfg.withDefaults(),
		splitOn: splitOn,
		pages:   NewMainPages(wiki, user, logger),
		logger:  logger,
	}
}

// MainPages exposes the main-page chores, e.g. to tune upload concurrency.
func (s *Service) MainPages() *MainPages {
	return s.pages
}

func (s *Service) assembler(ceiling int, dryRun bool) *Assembler {
	cfg := s.cfg
	if ceiling > 0 {
		cfg.Ceiling = ceiling
	}
	cfg.DryRun = dryRun
	return NewAssembler(s.wiki, cfg, s.logger)
}

func (s *Service) linker(ceiling int) *Linker {
	return NewLinker(s.wiki, s.assembler(ceiling, false), s.splitOn, s.logger)
}

// PlanSplitMCP is the MCP wrapper for a dry-run SplitPage
func (s *Service) PlanSplitMCP(ctx context.Context, args PlanSplitArgs) (SplitPageResult, error) {
	if strings.TrimSpace(args.Title) == "" {
		return SplitPageResult{}, errors.New("title is required")
	}
	res, err := s.assembler(args.Ceiling, true).SplitPage(ctx, args.Title)
	if err != nil {
		return SplitPageResult{}, err
	}
	return SplitPageResult{Split: res}, nil
}

// SplitPageMCP is the MCP wrapper for SplitPage. On a partial failure the
// error text lists the subpages already saved.
func (s *Service) SplitPageMCP(ctx context.Context, args SplitPageArgs) (SplitPageResult, error) {
	if strings.TrimSpace(args.Title) == "" {
		return SplitPageResult{}, errors.New("title is required")
	}
	res, err := s.assembler(args.Ceiling, args.DryRun).SplitPage(ctx, args.Title)
	if err != nil {
		return SplitPageResult{Split: res}, err
	}
	return SplitPageResult{Split: res}, nil
}

// LinkPagesMCP is the MCP wrapper for Linker.LinkPages
func (s *Service) LinkPagesMCP(ctx context.Context, args LinkPagesArgs) (LinkPagesResult, error) {
	if strings.TrimSpace(args.IndexTitle) == "" {
		return LinkPagesResult{}, errors.New("index_title is required")
	}
	mainTitle := args.MainTitle
	if mainTitle == "" {
		mainTitle = BaseTitle(IndexFileName(args.IndexTitle))
	}
	res, err := s.linker(args.Ceiling).LinkPages(ctx, LinkRequest{
		IndexTitle: args.IndexTitle,
		MainTitle:  mainTitle,
		DryRun:     args.DryRun,
	})
	if err != nil {
		return LinkPagesResult{Link: res}, err
	}
	return LinkPagesResult{Link: res}, nil
}

// AddRefTagsMCP is the MCP wrapper for Linker.AddRefTags
func (s *Service) AddRefTagsMCP(ctx context.Context, args AddRefTagsArgs) (AddRefTagsResult, error) {
	if strings.TrimSpace(args.MainTitle) == "" {
		return AddRefTagsResult{}, errors.New("main_title is required")
	}
	res, err := s.linker(0).AddRefTags(ctx, RefTagRequest{MainTitle: args.MainTitle, DryRun: args.DryRun})
	if err != nil {
		return AddRefTagsResult{}, err
	}
	return AddRefTagsResult{RefTags: res}, nil
}

// CreateMainPageMCP is the MCP wrapper for MainPages.CreateFromIndex
func (s *Service) CreateMainPageMCP(ctx context.Context, args CreateMainPageArgs) (CreateMainPageResult, error) {
	if strings.TrimSpace(args.IndexTitle) == "" {
		return CreateMainPageResult{}, errors.New("index_title is required")
	}
	if args.From < 0 || args.To < 0 || (args.To > 0 && args.From > args.To) {
		return CreateMainPageResult{}, fmt.Errorf("invalid page range %d-%d", args.From, args.To)
	}
	res, err := s.pages.CreateFromIndex(ctx, CreateMainPageRequest{
		IndexTitle: args.IndexTitle,
		MainTitle:  args.MainTitle,
		From:       args.From,
		To:         args.To,
		DryRun:     args.DryRun,
	})
	if err != nil {
		return CreateMainPageResult{}, err
	}
	return CreateMainPageResult{MainPage: res}, nil
}

// FormatOrientationMCP is the MCP wrapper for MainPages.FormatOrientation
func (s *Service) FormatOrientationMCP(ctx context.Context, args FormatOrientationArgs) (FormatOrientationResult, error) {
	if strings.TrimSpace(args.IndexTitle) == "" {
		return FormatOrientationResult{}, errors.New("index_title is required")
	}
	res, err := s.pages.FormatOrientation(ctx, OrientationRequest{IndexTitle: args.IndexTitle, DryRun: args.DryRun})
	if err != nil {
		return FormatOrientationResult{}, err
	}
	return FormatOrientationResult{Orientation: res}, nil
}

// CreateExtendedMCP is the MCP wrapper for MainPages.CreateExtended
func (s *Service) CreateExtendedMCP(ctx context.Context, args CreateExtendedArgs) (CreateExtendedResult, error) {
	if strings.TrimSpace(args.IndexTitle) == "" {
		return CreateExtendedResult{}, errors.New("index_title is required")
	}
	pages, err := loadEText(args.Text, args.TextFile, etext.Options{})
	if err != nil {
		return CreateExtendedResult{}, err
	}
	res, err := s.pages.CreateExtended(ctx, ExtendedRequest{
		IndexTitle: args.IndexTitle,
		MainTitle:  args.MainTitle,
		Pages:      pages,
		Overwrite:  args.Overwrite,
		DryRun:     args.DryRun,
	})
	if err != nil {
		return CreateExtendedResult{}, err
	}
	return CreateExtendedResult{MainPage: res}, nil
}

// UploadETextMCP is the MCP wrapper for MainPages.UploadPageTexts
func (s *Service) UploadETextMCP(ctx context.Context, args UploadETextArgs) (UploadETextResult, error) {
	if strings.TrimSpace(args.IndexTitle) == "" {
		return UploadETextResult{}, errors.New("index_title is required")
	}
	pages, err := loadEText(args.Text, args.TextFile, etext.Options{StripNotes: true})
	if err != nil {
		return UploadETextResult{}, err
	}
	res, err := s.pages.UploadPageTexts(ctx, UploadRequest{IndexTitle: args.IndexTitle, Pages: pages, DryRun: args.DryRun})
	if err != nil {
		return UploadETextResult{}, err
	}
	return UploadETextResult{Upload: res}, nil
}

// ListIndexPagesMCP is the MCP wrapper for listing an index's Page: pages
func (s *Service) ListIndexPagesMCP(ctx context.Context, args ListIndexPagesArgs) (ListIndexPagesResult, error) {
	if strings.TrimSpace(args.IndexTitle) == "" {
		return ListIndexPagesResult{}, errors.New("index_title is required")
	}
	titles, err := s.pages.indexPages(ctx, args.IndexTitle)
	if err != nil {
		return ListIndexPagesResult{}, err
	}
	res := ListIndexPagesResult{IndexTitle: args.IndexTitle, Pages: titles, Count: len(titles)}
	for _, t := range titles {
		n, ok := PageNumberFromTitle(t)
		if !ok {
			continue
		}
		if res.FirstPage == 0 || n < res.FirstPage {
			res.FirstPage = n
		}
		if n > res.LastPage {
			res.LastPage = n
		}
	}
	return res, nil
}

func loadEText(text, path string, opts etext.Options) ([]etext.PageText, error) {
	var (
		pages []etext.PageText
		err   error
	)
	switch {
	case text != "":
		pages, err = etext.Parse(strings.NewReader(text), opts)
	case path != "":
		pages, err = etext.ParseFile(path, opts)
	default:
		return nil, errors.New("either text or text_file is required")
	}
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, errors.New("no 'Page no:' headers found in e-text")
	}
	return pages, nil
}
