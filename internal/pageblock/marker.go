// Package pageblock segments Wikisource page text into per-source-page blocks
// and packs those blocks into size-bounded chunks.
//
// Everything in this package is pure: no I/O, no shared state. The only place
// that knows about wiki markup is Marker.
package pageblock

import (
	"fmt"
	"regexp"
	"strconv"
)

// Default patterns for the "[[Page:<index>/N|Page no: N]]" links written by
// the page-link conversion.
const (
	DefaultMarkerPattern = `\[\[Page:[^|\]]+\|Page no:\s*\d+\]\]`
	DefaultNumberPattern = `Page no:\s*(\d+)`
)

// Marker recognises the annotation that starts each source page's content.
type Marker struct {
	start  *regexp.Regexp
	number *regexp.Regexp
}

// DefaultMarker matches page links of the form [[Page:Book.pdf/7|Page no: 7]].
var DefaultMarker = MustMarker(DefaultMarkerPattern, DefaultNumberPattern)

// NewMarker compiles a marker. numberPattern must have exactly one capture
// group holding the decimal page number.
func NewMarker(startPattern, numberPattern string) (*Marker, error) {
	start, err := regexp.Compile(startPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid marker pattern: %w", err)
	}
	number, err := regexp.Compile(numberPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid page number pattern: %w", err)
	}
	if number.NumSubexp() != 1 {
		return nil, fmt.Errorf("page number pattern must have one capture group, has %d", number.NumSubexp())
	}
	return &Marker{start: start, number: number}, nil
}

// MustMarker is like NewMarker but panics on invalid patterns.
func MustMarker(startPattern, numberPattern string) *Marker {
	m, err := NewMarker(startPattern, numberPattern)
	if err != nil {
		panic(err)
	}
	return m
}

// locate returns the [start, end) span of every marker in text.
func (m *Marker) locate(text string) [][]int {
	return m.start.FindAllStringIndex(text, -1)
}

// PageNumber extracts the first page number found in text.
func (m *Marker) PageNumber(text string) (int, bool) {
	match := m.number.FindStringSubmatch(text)
	if match == nil {
		return UnknownPage, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		// digits that overflow int
		return UnknownPage, false
	}
	return n, true
}
