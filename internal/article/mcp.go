package article

import "context"

// ArticleArgs contains parameters for writing a Wikipedia article
type ArticleArgs struct {
	Title   string `json:"title" jsonschema:"required" jsonschema_description:"Article title"`
	Content string `json:"content" jsonschema:"required" jsonschema_description:"Full article wikitext"`
	Summary string `json:"summary,omitempty" jsonschema_description:"Edit summary (default depends on the operation)"`
	Minor   bool   `json:"minor,omitempty" jsonschema_description:"Mark the edit as minor"`
	DryRun  bool   `json:"dry_run,omitempty" jsonschema_description:"Check the article state without saving"`
}

// ArticleResult wraps the outcome of an article write
type ArticleResult struct {
	Article *Result `json:"article"`
}

func (a ArticleArgs) request() Request {
	return Request{Title: a.Title, Content: a.Content, Summary: a.Summary, Minor: a.Minor, DryRun: a.DryRun}
}

// CreateArticleMCP is the MCP wrapper for creating an article
func (s *Service) CreateArticleMCP(ctx context.Context, args ArticleArgs) (ArticleResult, error) {
	res, err := s.Create(ctx, args.request())
	return ArticleResult{Article: res}, err
}

// EditArticleMCP is the MCP wrapper for editing an existing article
func (s *Service) EditArticleMCP(ctx context.Context, args ArticleArgs) (ArticleResult, error) {
	res, err := s.Edit(ctx, args.request())
	return ArticleResult{Article: res}, err
}

// PublishArticleMCP is the MCP wrapper for create-or-edit
func (s *Service) PublishArticleMCP(ctx context.Context, args ArticleArgs) (ArticleResult, error) {
	res, err := s.Publish(ctx, args.request())
	return ArticleResult{Article: res}, err
}
