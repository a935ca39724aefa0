// Package transclude splits oversized Wikisource main pages into subpages,
// rewrites the parent as a list of transclusions, and runs the related
// main-page chores that go with publishing an Index.
package transclude

import "context"

// PageStore is the wiki as seen by the split and link operations. All reads
// and writes go through it; everything else in this package is pure.
type PageStore interface {
	// FetchPageText returns the current text. exists is false, with a nil
	// error, for a missing page.
	FetchPageText(ctx context.Context, title string) (text string, exists bool, err error)
	PageExists(ctx context.Context, title string) (bool, error)
	SavePage(ctx context.Context, title, text, summary string) error
}

// PageLister enumerates pages by title prefix within a namespace.
type PageLister interface {
	ListPageTitles(ctx context.Context, prefix string, namespace int) ([]string, error)
}

// Wiki is a store that can also list pages.
type Wiki interface {
	PageStore
	PageLister
}

// IndexPager lists the Page: titles an Index defines, including pages that
// have not been created yet. Wikis without it get titles derived from the
// index file name.
type IndexPager interface {
	IndexPageTitles(ctx context.Context, indexTitle string) ([]string, error)
}
