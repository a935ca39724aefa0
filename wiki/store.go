package wiki

import (
	"context"
	"fmt"
)

// FetchPageText returns the page's wikitext. exists is false, with a nil
// error, when the page does not exist.
func (c *Client) FetchPageText(ctx context.Context, title string) (text string, exists bool, err error) {
	page, err := c.GetPage(ctx, GetPageArgs{Title: title})
	if err != nil {
		if IsPageNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return page.Content, true, nil
}

// SavePage replaces the page text as a bot edit.
func (c *Client) SavePage(ctx context.Context, title, text, summary string) error {
	res, err := c.EditPage(ctx, EditPageArgs{
		Title:   title,
		Content: text,
		Summary: summary,
		Bot:     true,
	})
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("saving %q: %s", title, res.Message)
	}
	c.logger.Debug("Page saved", "title", title, "bytes", len(text), "new", res.NewPage)
	return nil
}

// SaveArticle writes an article edit as a regular user edit. create selects
// createonly, so an existing page is never overwritten; otherwise nocreate,
// so a missing page is never created.
func (c *Client) SaveArticle(ctx context.Context, title, text, summary string, minor, create bool) error {
	res, err := c.EditPage(ctx, EditPageArgs{
		Title:      title,
		Content:    text,
		Summary:    summary,
		Minor:      minor,
		CreateOnly: create,
		NoCreate:   !create,
	})
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("saving %q: %s", title, res.Message)
	}
	c.logger.Debug("Article saved", "title", title, "bytes", len(text), "new", res.NewPage)
	return nil
}
