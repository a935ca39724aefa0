package transclude

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olgasafonova/wikisource-mcp-server/internal/etext"
)

func indexedWiki() *fakeWiki {
	w := newFakeWiki(map[string]string{
		"Index:Book.pdf":   "index",
		"Page:Book.pdf/1":  "<b>one</b>",
		"Page:Book.pdf/2":  "",
		"Page:Book.pdf/10": "ten",
	})
	w.indexes["Index:Book.pdf"] = []string{"Page:Book.pdf/1", "Page:Book.pdf/2", "Page:Book.pdf/10"}
	return w
}

func TestPageNumberFromTitle(t *testing.T) {
	n, ok := PageNumberFromTitle("Page:Book.pdf/12")
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	_, ok = PageNumberFromTitle("Page:Book.pdf/cover")
	assert.False(t, ok)
}

func TestSortPageTitles(t *testing.T) {
	titles := []string{"P/10", "P/cover", "P/2", "P/1"}
	SortPageTitles(titles)
	assert.Equal(t, []string{"P/1", "P/2", "P/10", "P/cover"}, titles)
}

func TestBaseTitle(t *testing.T) {
	assert.Equal(t, "Book", BaseTitle("Book.pdf"))
	assert.Equal(t, "Vol. 1", BaseTitle("Vol. 1.pdf"))
	assert.Equal(t, "Book", BaseTitle("Book"))
}

func TestCreateFromIndex(t *testing.T) {
	wiki := indexedWiki()
	m := NewMainPages(wiki, "Bot", quietLogger())

	res, err := m.CreateFromIndex(context.Background(), CreateMainPageRequest{IndexTitle: "Index:Book.pdf"})
	require.NoError(t, err)
	assert.True(t, res.Saved)
	assert.Equal(t, "Book", res.MainTitle)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, `<pages index="Book.pdf" from=1 to=10 />`, wiki.pages["Book"])
	assert.Equal(t, MainPageSummary, wiki.saves[0].Summary)

	res, err = m.CreateFromIndex(context.Background(), CreateMainPageRequest{IndexTitle: "Index:Book.pdf"})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Len(t, wiki.saves, 1)
}

func TestCreateFromIndex_ExplicitRange(t *testing.T) {
	wiki := indexedWiki()
	m := NewMainPages(wiki, "Bot", quietLogger())

	res, err := m.CreateFromIndex(context.Background(), CreateMainPageRequest{
		IndexTitle: "Index:Book.pdf", MainTitle: "Custom", From: 2, To: 5, DryRun: true,
	})
	require.NoError(t, err)
	assert.Equal(t, `<pages index="Book.pdf" from=2 to=5 />`, res.Content)
	assert.False(t, res.Saved)
	assert.Empty(t, wiki.saves)
}

func TestCreateFromIndex_MissingIndex(t *testing.T) {
	m := NewMainPages(newFakeWiki(nil), "Bot", quietLogger())

	_, err := m.CreateFromIndex(context.Background(), CreateMainPageRequest{IndexTitle: "Index:None.pdf"})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "index", nf.Kind)
}

func TestFormatOrientation(t *testing.T) {
	wiki := indexedWiki()
	m := NewMainPages(wiki, "Bot", quietLogger())

	res, err := m.FormatOrientation(context.Background(), OrientationRequest{IndexTitle: "Index:Book.pdf"})
	require.NoError(t, err)
	require.Len(t, res.Pages, 3)
	for _, p := range res.Pages {
		assert.Equal(t, "saved", p.Status, p.Title)
	}
	assert.Equal(t, etext.FormatOrientation("one", "Bot"), wiki.pages["Page:Book.pdf/1"])
	assert.Contains(t, wiki.pages["Page:Book.pdf/2"], "&nbsp;")
	assert.Equal(t, OrientationSummary, wiki.saves[0].Summary)
}

func TestFormatOrientation_SkipsWhenMainPageExists(t *testing.T) {
	wiki := indexedWiki()
	wiki.pages["Book"] = "published"
	m := NewMainPages(wiki, "Bot", quietLogger())

	res, err := m.FormatOrientation(context.Background(), OrientationRequest{IndexTitle: "Index:Book.pdf"})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, wiki.saves)
}

func TestFormatOrientation_PerPageFailure(t *testing.T) {
	wiki := indexedWiki()
	wiki.failOn["Page:Book.pdf/2"] = errors.New("blocked")
	m := NewMainPages(wiki, "Bot", quietLogger())

	res, err := m.FormatOrientation(context.Background(), OrientationRequest{IndexTitle: "Index:Book.pdf"})
	require.NoError(t, err)
	statuses := map[string]string{}
	for _, p := range res.Pages {
		statuses[p.Title] = p.Status
	}
	assert.Equal(t, map[string]string{
		"Page:Book.pdf/1":  "saved",
		"Page:Book.pdf/2":  "failed",
		"Page:Book.pdf/10": "saved",
	}, statuses)
}

func TestCreateExtended(t *testing.T) {
	pages := []etext.PageText{{Number: 1, Text: "alpha"}, {Number: 2, Text: ""}, {Number: 3, Text: "gamma"}}

	t.Run("creates", func(t *testing.T) {
		wiki := newFakeWiki(nil)
		m := NewMainPages(wiki, "Bot", quietLogger())
		res, err := m.CreateExtended(context.Background(), ExtendedRequest{IndexTitle: "Index:Book.pdf", Pages: pages})
		require.NoError(t, err)
		assert.True(t, res.Saved)
		want, _ := etext.PrepareMainContent(pages, "Book.pdf")
		assert.Equal(t, want, wiki.pages["Book"])
		assert.Equal(t, ExtendedMainSummary, wiki.saves[0].Summary)
	})

	t.Run("keeps existing", func(t *testing.T) {
		wiki := newFakeWiki(map[string]string{"Book": "hand written"})
		m := NewMainPages(wiki, "Bot", quietLogger())
		res, err := m.CreateExtended(context.Background(), ExtendedRequest{IndexTitle: "Index:Book.pdf", Pages: pages})
		require.NoError(t, err)
		assert.True(t, res.Skipped)
		assert.Empty(t, wiki.saves)
	})

	t.Run("overwrites blank", func(t *testing.T) {
		wiki := newFakeWiki(map[string]string{"Book": "  "})
		m := NewMainPages(wiki, "Bot", quietLogger())
		res, err := m.CreateExtended(context.Background(), ExtendedRequest{IndexTitle: "Index:Book.pdf", Pages: pages})
		require.NoError(t, err)
		assert.True(t, res.Saved)
	})

	t.Run("overwrite flag", func(t *testing.T) {
		wiki := newFakeWiki(map[string]string{"Book": "hand written"})
		m := NewMainPages(wiki, "Bot", quietLogger())
		res, err := m.CreateExtended(context.Background(), ExtendedRequest{IndexTitle: "Index:Book.pdf", Pages: pages, Overwrite: true})
		require.NoError(t, err)
		assert.True(t, res.Saved)
	})
}

func TestUploadPageTexts(t *testing.T) {
	wiki := indexedWiki()
	wiki.failOn["Page:Book.pdf/10"] = errors.New("rate limited")
	m := NewMainPages(wiki, "Bot", quietLogger())
	m.SetConcurrency(2)

	res, err := m.UploadPageTexts(context.Background(), UploadRequest{
		IndexTitle: "Index:Book.pdf",
		Pages: []etext.PageText{
			{Number: 1, Text: "alpha"},
			{Number: 7, Text: "not in index"},
			{Number: 10, Text: "omega"},
		},
	})
	require.NoError(t, err)

	want := []PageOutcome{
		{Page: 1, Title: "Page:Book.pdf/1", Status: "saved"},
		{Page: 7, Status: "missing", Error: "page number not found in index"},
		{Page: 10, Title: "Page:Book.pdf/10", Status: "failed", Error: "rate limited"},
	}
	if diff := cmp.Diff(want, res.Pages); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, res.Saved)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, etext.FormatProofread("alpha", "Bot"), wiki.pages["Page:Book.pdf/1"])
}

func TestUploadPageTexts_FreshIndexCreatesPages(t *testing.T) {
	wiki := newFakeWiki(map[string]string{"Index:Book.pdf": "index"})
	m := NewMainPages(wiki, "Bot", quietLogger())

	res, err := m.UploadPageTexts(context.Background(), UploadRequest{
		IndexTitle: "Index:Book.pdf",
		Pages: []etext.PageText{
			{Number: 1, Text: "alpha"},
			{Number: 2, Text: "beta"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Saved)
	assert.Equal(t, 0, res.Failed)
	assert.ElementsMatch(t, []string{"Page:Book.pdf/1", "Page:Book.pdf/2"}, wiki.savedTitles())
	assert.Equal(t, etext.FormatProofread("beta", "Bot"), wiki.pages["Page:Book.pdf/2"])
}

func TestUploadPageTexts_IndexListIncludesUncreatedPages(t *testing.T) {
	wiki := newFakeWiki(map[string]string{"Index:Book.pdf": "index"})
	wiki.indexes["Index:Book.pdf"] = []string{"Page:Book.pdf/1", "Page:Book.pdf/2", "Page:Book.pdf/3"}
	m := NewMainPages(wiki, "Bot", quietLogger())

	res, err := m.UploadPageTexts(context.Background(), UploadRequest{
		IndexTitle: "Index:Book.pdf",
		Pages: []etext.PageText{
			{Number: 2, Text: "beta"},
			{Number: 5, Text: "beyond the scan"},
		},
	})
	require.NoError(t, err)

	want := []PageOutcome{
		{Page: 2, Title: "Page:Book.pdf/2", Status: "saved"},
		{Page: 5, Status: "missing", Error: "page number not found in index"},
	}
	if diff := cmp.Diff(want, res.Pages); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"Page:Book.pdf/2"}, wiki.savedTitles())
}

func TestUploadPageTexts_MissingIndex(t *testing.T) {
	wiki := newFakeWiki(nil)
	m := NewMainPages(wiki, "Bot", quietLogger())

	_, err := m.UploadPageTexts(context.Background(), UploadRequest{
		IndexTitle: "Index:Nope.pdf",
		Pages:      []etext.PageText{{Number: 1, Text: "alpha"}},
	})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "index", nf.Kind)
	assert.Empty(t, wiki.savedTitles())
}

func TestUploadPageTexts_DryRun(t *testing.T) {
	wiki := indexedWiki()
	m := NewMainPages(wiki, "Bot", quietLogger())

	res, err := m.UploadPageTexts(context.Background(), UploadRequest{
		IndexTitle: "Index:Book.pdf",
		Pages:      []etext.PageText{{Number: 1, Text: "alpha"}},
		DryRun:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, "planned", res.Pages[0].Status)
	assert.Empty(t, wiki.saves)
}
