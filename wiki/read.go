package wiki

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/olgasafonova/wikisource-mcp-server/metrics"
)

// GetPage retrieves the current wikitext of a page. A missing page yields
// *PageNotFoundError.
func (c *Client) GetPage(ctx context.Context, args GetPageArgs) (PageContent, error) {
	if args.Title == "" {
		return PageContent{}, &ValidationError{
			Field:   "title",
			Message: "page title is required",
		}
	}

	title := normalizePageTitle(args.Title)
	cacheKey := "page:" + title
	if cached, ok := c.cache.Get(cacheKey); ok {
		metrics.RecordCacheAccess(true)
		return cached, nil
	}
	metrics.RecordCacheAccess(false)

	// Concurrent reads of one title share a single request
	v, err, _ := c.reads.Do(cacheKey, func() (interface{}, error) {
		return c.fetchPage(ctx, title)
	})
	if err != nil {
		return PageContent{}, err
	}
	return v.(PageContent), nil
}

func (c *Client) fetchPage(ctx context.Context, title string) (PageContent, error) {
	cacheKey := "page:" + title
	if err := c.EnsureLoggedIn(ctx); err != nil {
		return PageContent{}, err
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("titles", title)
	params.Set("prop", "revisions")
	params.Set("rvprop", "content|ids|timestamp")
	params.Set("rvslots", "main")

	resp, err := c.apiRequest(ctx, params)
	if err != nil {
		return PageContent{}, fmt.Errorf("fetching %q: %w", title, err)
	}

	pages := getMap(getMap(resp, "query"), "pages")
	if pages == nil {
		return PageContent{}, fmt.Errorf("unexpected API response: missing 'pages' object")
	}

	for pageID, pageData := range pages {
		page, ok := pageData.(map[string]interface{})
		if !ok {
			continue
		}

		if _, missing := page["missing"]; missing {
			return PageContent{}, &PageNotFoundError{Title: title}
		}

		revisions := getSlice(page, "revisions")
		if len(revisions) == 0 {
			return PageContent{}, fmt.Errorf("no revisions found for page '%s'", title)
		}
		rev, _ := revisions[0].(map[string]interface{})
		main := getMap(getMap(rev, "slots"), "main")
		if main == nil {
			return PageContent{}, fmt.Errorf("invalid slot data for page '%s'", title)
		}

		// Older formats put the text under "*"
		content, ok := main["*"].(string)
		if !ok {
			content, ok = main["content"].(string)
			if !ok {
				return PageContent{}, fmt.Errorf("page '%s' has no text content", title)
			}
		}

		id, _ := strconv.Atoi(pageID)
		pageTitle := getString(page, "title")
		if pageTitle == "" {
			pageTitle = title
		}

		result := PageContent{
			Title:     pageTitle,
			PageID:    id,
			Content:   content,
			Revision:  getInt(rev, "revid"),
			Timestamp: getString(rev, "timestamp"),
		}
		c.cache.Set(cacheKey, result, PageCacheTTL)
		metrics.SetCacheSize(int64(c.cache.Len()))
		return result, nil
	}

	return PageContent{}, fmt.Errorf("page '%s' not found in API response", title)
}

// PageExists reports whether a page exists on the wiki
func (c *Client) PageExists(ctx context.Context, title string) (bool, error) {
	if title == "" {
		return false, &ValidationError{Field: "title", Message: "page title is required"}
	}
	title = normalizePageTitle(title)

	if _, ok := c.cache.Get("page:" + title); ok {
		return true, nil
	}

	if err := c.EnsureLoggedIn(ctx); err != nil {
		return false, err
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("titles", title)

	resp, err := c.apiRequest(ctx, params)
	if err != nil {
		return false, fmt.Errorf("checking %q: %w", title, err)
	}

	pages := getMap(getMap(resp, "query"), "pages")
	for _, pageData := range pages {
		page, ok := pageData.(map[string]interface{})
		if !ok {
			continue
		}
		_, missing := page["missing"]
		_, invalid := page["invalid"]
		return !missing && !invalid, nil
	}
	return false, nil
}

// ListPages returns one batch of pages in a namespace, optionally filtered by
// title prefix. The prefix excludes the namespace name.
func (c *Client) ListPages(ctx context.Context, args ListPagesArgs) (ListPagesResult, error) {
	if err := c.EnsureLoggedIn(ctx); err != nil {
		return ListPagesResult{}, err
	}

	limit := normalizeLimit(args.Limit, DefaultLimit, MaxLimit)

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "allpages")
	params.Set("aplimit", strconv.Itoa(limit))
	params.Set("apnamespace", strconv.Itoa(args.Namespace))

	if args.Prefix != "" {
		params.Set("apprefix", args.Prefix)
	}
	if args.ContinueFrom != "" {
		params.Set("apcontinue", args.ContinueFrom)
	}

	resp, err := c.apiRequest(ctx, params)
	if err != nil {
		return ListPagesResult{}, err
	}

	query := getMap(resp, "query")
	if query == nil {
		return ListPagesResult{}, fmt.Errorf("unexpected response format: missing query")
	}

	allpages := getSlice(query, "allpages")
	pages := make([]PageSummary, 0, len(allpages))
	for _, p := range allpages {
		page, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		pages = append(pages, PageSummary{
			PageID: getInt(page, "pageid"),
			Title:  getString(page, "title"),
		})
	}

	result := ListPagesResult{Pages: pages}
	if apcontinue := getString(getMap(resp, "continue"), "apcontinue"); apcontinue != "" {
		result.HasMore = true
		result.ContinueFrom = apcontinue
	}
	return result, nil
}

// ListPageTitles follows continuation until every page matching prefix in the
// namespace has been listed.
func (c *Client) ListPageTitles(ctx context.Context, prefix string, namespace int) ([]string, error) {
	var titles []string
	args := ListPagesArgs{Prefix: prefix, Namespace: namespace, Limit: MaxLimit}
	for {
		res, err := c.ListPages(ctx, args)
		if err != nil {
			return nil, err
		}
		for _, p := range res.Pages {
			titles = append(titles, p.Title)
		}
		if !res.HasMore {
			return titles, nil
		}
		args.ContinueFrom = res.ContinueFrom
	}
}

// IndexPageTitles returns the Page: titles an Index defines, in index order,
// using ProofreadPage's proofreadpagesinindex list. Unlike ListPageTitles it
// includes pages that have not been created yet.
func (c *Client) IndexPageTitles(ctx context.Context, indexTitle string) ([]string, error) {
	if indexTitle == "" {
		return nil, &ValidationError{Field: "index_title", Message: "index title is required"}
	}
	if err := c.EnsureLoggedIn(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "proofreadpagesinindex")
	params.Set("prppiititle", normalizePageTitle(indexTitle))
	params.Set("prppiiprop", "title")

	resp, err := c.apiRequest(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("listing pages of %q: %w", indexTitle, err)
	}

	entries := getSlice(getMap(resp, "query"), "proofreadpagesinindex")
	titles := make([]string, 0, len(entries))
	for _, e := range entries {
		entry, ok := e.(map[string]interface{})
		if !ok {
			continue
		}
		if title := getString(entry, "title"); title != "" {
			titles = append(titles, title)
		}
	}
	return titles, nil
}

// normalizeLimit ensures limit is within bounds
func normalizeLimit(limit, defaultVal, maxVal int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit > maxVal {
		return maxVal
	}
	return limit
}
