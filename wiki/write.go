package wiki

import (
	"context"
	"fmt"
	"net/url"

	"github.com/olgasafonova/wikisource-mcp-server/metrics"
)

// EditPage creates or replaces the full text of a page
func (c *Client) EditPage(ctx context.Context, args EditPageArgs) (EditResult, error) {
	if args.Title == "" {
		return EditResult{}, &ValidationError{
			Field:   "title",
			Message: "page title is required",
			Suggestion: `Provide a title for the page you want to edit.

Example:
  Title: "Book title/2"
  Title: "Page:Book.pdf/14"`,
		}
	}
	if args.CreateOnly && args.NoCreate {
		return EditResult{}, &ValidationError{
			Field:   "create_only",
			Message: "create_only and no_create are mutually exclusive",
		}
	}
	if args.Content == "" {
		return EditResult{}, &ValidationError{
			Field:      "content",
			Message:    "page content is required",
			Suggestion: "Blanking pages is not supported; provide the wikitext to save.",
		}
	}

	if err := ValidateContentSize(args.Content, args.Title, MaxEditSize); err != nil {
		metrics.RecordEdit("edit", len(args.Content), false)
		return EditResult{}, err
	}

	result, err := c.edit(ctx, args)
	if isBadToken(err) {
		c.logger.Warn("CSRF token rejected, fetching a new one", "title", args.Title)
		c.dropCSRFToken()
		result, err = c.edit(ctx, args)
	}
	metrics.RecordEdit("edit", len(args.Content), err == nil && result.Success)
	if err != nil {
		return EditResult{}, err
	}

	c.cache.Delete("page:" + normalizePageTitle(args.Title))
	return result, nil
}

func (c *Client) edit(ctx context.Context, args EditPageArgs) (EditResult, error) {
	token, err := c.getCSRFToken(ctx)
	if err != nil {
		return EditResult{}, fmt.Errorf("authentication failed: %w", err)
	}

	params := url.Values{}
	params.Set("action", "edit")
	params.Set("title", args.Title)
	params.Set("text", args.Content)
	params.Set("token", token)

	if args.Summary != "" {
		params.Set("summary", args.Summary)
	}
	if args.Minor {
		params.Set("minor", "1")
	}
	if args.Bot {
		params.Set("bot", "1")
	}
	if args.CreateOnly {
		params.Set("createonly", "1")
	}
	if args.NoCreate {
		params.Set("nocreate", "1")
	}

	resp, err := c.apiRequest(ctx, params)
	if err != nil {
		return EditResult{}, err
	}

	edit := getMap(resp, "edit")
	if edit == nil {
		return EditResult{}, fmt.Errorf("unexpected edit response for %q", args.Title)
	}

	if result := getString(edit, "result"); result != "Success" {
		return EditResult{
			Success: false,
			Title:   args.Title,
			Message: fmt.Sprintf("Edit failed: %s", result),
		}, nil
	}

	editResult := EditResult{
		Success:    true,
		Title:      getString(edit, "title"),
		PageID:     getInt(edit, "pageid"),
		RevisionID: getInt(edit, "newrevid"),
		NewPage:    edit["new"] != nil,
		NoChange:   edit["nochange"] != nil,
		Message:    "Page edited successfully",
	}

	switch {
	case editResult.NewPage:
		editResult.Message = "Page created successfully"
	case editResult.NoChange:
		editResult.Message = "Page already had this content"
	}

	return editResult, nil
}
