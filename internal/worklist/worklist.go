// Package worklist reads the YAML file that drives batch runs: one entry
// per book, naming its Index, main page, e-text file and review status.
package worklist

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultReadyStatus marks a book as proofread ("proofreading done").
const DefaultReadyStatus = "ཞུ་དག་བྱས་ཟིན།"

// WorkList is the decoded work list file.
type WorkList struct {
	// ReadyStatus selects the entries Ready returns. Empty means
	// DefaultReadyStatus.
	ReadyStatus string `yaml:"ready_status"`

	// TextDir is where relative text_file paths are resolved. Relative
	// TextDir values are taken from the work list's own directory.
	TextDir string `yaml:"text_dir"`

	Entries []Entry `yaml:"entries"`

	dir string
}

// Entry is one book. Index and MainPage accept either a page title or a
// https://.../wiki/<Title> link.
type Entry struct {
	Index    string `yaml:"index"`
	MainPage string `yaml:"main_page"`
	TextFile string `yaml:"text_file"`
	Status   string `yaml:"status"`
}

// Load reads and validates the work list at path.
func Load(path string) (*WorkList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read work list: %w", err)
	}

	var wl WorkList
	if err := yaml.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("parse work list %s: %w", path, err)
	}
	for i, e := range wl.Entries {
		if strings.TrimSpace(e.Index) == "" && strings.TrimSpace(e.MainPage) == "" {
			return nil, fmt.Errorf("work list %s: entry %d has neither index nor main_page", path, i+1)
		}
	}
	wl.dir = filepath.Dir(path)
	return &wl, nil
}

// Ready returns the entries whose status matches the ready status.
func (w *WorkList) Ready() []Entry {
	want := strings.TrimSpace(w.ReadyStatus)
	if want == "" {
		want = DefaultReadyStatus
	}
	var out []Entry
	for _, e := range w.Entries {
		if strings.TrimSpace(e.Status) == want {
			out = append(out, e)
		}
	}
	return out
}

// TextPath resolves an entry's text file. It returns "" when the entry has
// none.
func (w *WorkList) TextPath(e Entry) string {
	if e.TextFile == "" {
		return ""
	}
	if filepath.IsAbs(e.TextFile) {
		return e.TextFile
	}
	dir := w.TextDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(w.dir, dir)
	}
	return filepath.Join(dir, e.TextFile)
}

// IndexTitle returns the entry's Index title.
func (e Entry) IndexTitle() string {
	return TitleFromURL(e.Index)
}

// MainTitle returns the entry's main page title, defaulting to the index
// file name without extension.
func (e Entry) MainTitle() string {
	if t := TitleFromURL(e.MainPage); t != "" {
		return t
	}
	name := strings.TrimPrefix(e.IndexTitle(), "Index:")
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}

// SameTitle reports whether the index, stripped of "Index:" and ".pdf",
// names the main page itself. Such entries were published without a
// separate main page and are skipped.
func (e Entry) SameTitle() bool {
	if e.MainPage == "" {
		return false
	}
	name := strings.TrimSuffix(strings.TrimPrefix(e.IndexTitle(), "Index:"), ".pdf")
	return name == e.MainTitle()
}

// TitleFromURL extracts the page title from a /wiki/ link, decoding
// percent escapes and underscores. Anything else is returned trimmed.
func TitleFromURL(link string) string {
	link = strings.TrimSpace(link)
	i := strings.LastIndex(link, "/wiki/")
	if i < 0 {
		return link
	}
	raw := link[i+len("/wiki/"):]
	if j := strings.IndexAny(raw, "?#"); j >= 0 {
		raw = raw[:j]
	}
	title, err := url.PathUnescape(raw)
	if err != nil {
		title = raw
	}
	return strings.ReplaceAll(title, "_", " ")
}
