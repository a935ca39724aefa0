package transclude

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

type saveCall struct {
	Title   string
	Text    string
	Summary string
}

// fakeWiki is an in-memory wiki. failOn maps a title to the error its save
// returns; indexes maps an Index title to the Page: titles it defines.
type fakeWiki struct {
	mu      sync.Mutex
	pages   map[string]string
	saves   []saveCall
	failOn  map[string]error
	indexes map[string][]string
}

func newFakeWiki(pages map[string]string) *fakeWiki {
	if pages == nil {
		pages = map[string]string{}
	}
	return &fakeWiki{pages: pages, failOn: map[string]error{}, indexes: map[string][]string{}}
}

func (f *fakeWiki) FetchPageText(_ context.Context, title string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	text, ok := f.pages[title]
	return text, ok, nil
}

func (f *fakeWiki) PageExists(_ context.Context, title string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.pages[title]
	return ok, nil
}

func (f *fakeWiki) SavePage(_ context.Context, title, text, summary string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, saveCall{Title: title, Text: text, Summary: summary})
	if err := f.failOn[title]; err != nil {
		return err
	}
	f.pages[title] = text
	return nil
}

func (f *fakeWiki) ListPageTitles(_ context.Context, prefix string, namespace int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if namespace != NamespacePage {
		return nil, errors.New("unexpected namespace")
	}
	var out []string
	for title := range f.pages {
		if strings.HasPrefix(title, "Page:"+prefix) {
			out = append(out, title)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeWiki) IndexPageTitles(_ context.Context, indexTitle string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.indexes[indexTitle]...), nil
}

func (f *fakeWiki) savedTitles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	titles := make([]string, len(f.saves))
	for i, s := range f.saves {
		titles[i] = s.Title
	}
	return titles
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
