// Package etext reads OCR/e-text files laid out as "Page no: N" headers
// followed by that page's text, and renders the wikitext written for them
// on Wikisource.
package etext

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const headerPrefix = "Page no:"

var parenNote = regexp.MustCompile(`\([^)]*\)`)

// PageText is the text of one source page.
type PageText struct {
	Number int
	Text   string
}

// Options tunes Parse.
type Options struct {
	// StripNotes removes parenthesised notes such as "(12a)" from body lines.
	StripNotes bool
}

// ParseError reports a header line whose page number is not an integer.
type ParseError struct {
	Line   int
	Header string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: page header %q has no numeric page number", e.Line, e.Header)
}

// Parse splits r into pages. A line whose trimmed text starts with
// "Page no:" opens a page; following lines up to the next header are its
// body, trimmed of surrounding whitespace. Text before the first header is
// ignored. When a page number repeats, the later body wins. Pages are
// returned in ascending page order.
func Parse(r io.Reader, opts Options) ([]PageText, error) {
	byNumber := make(map[int]string)

	var (
		current = -1
		body    []string
		lineNo  int
	)
	flush := func() {
		if current >= 0 {
			byNumber[current] = strings.TrimSpace(strings.Join(body, "\n"))
		}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lineNo++
		line := sc.Text()

		if trimmed := strings.TrimSpace(line); strings.HasPrefix(trimmed, headerPrefix) {
			flush()
			n, err := strconv.Atoi(strings.TrimSpace(trimmed[len(headerPrefix):]))
			if err != nil {
				return nil, &ParseError{Line: lineNo, Header: trimmed}
			}
			current, body = n, nil
			continue
		}

		if opts.StripNotes {
			line = parenNote.ReplaceAllString(line, "")
		}
		body = append(body, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading e-text: %w", err)
	}
	flush()

	pages := make([]PageText, 0, len(byNumber))
	for n, text := range byNumber {
		pages = append(pages, PageText{Number: n, Text: text})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	return pages, nil
}

// ParseFile parses the e-text file at path.
func ParseFile(path string, opts Options) ([]PageText, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages, err := Parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pages, nil
}
