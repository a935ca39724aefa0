package pageblock

import (
	"sort"
	"strings"
)

// UnknownPage is the page number of a block that carries no marker.
const UnknownPage = -1

// Block is a contiguous span of page text keyed to a source page number.
// Text includes the block's own marker.
type Block struct {
	// Index is the block's position in the segmented input.
	Index      int
	PageNumber int
	Text       string
}

// Known reports whether the block's page number was extracted from a marker.
func (b Block) Known() bool {
	return b.PageNumber != UnknownPage
}

// Size is the UTF-8 encoded length of the block text.
func (b Block) Size() int {
	return len(b.Text)
}

// Segment splits text into blocks, one per marker, in input order.
//
// A block runs from its marker to the next marker (exclusive); the last block
// runs to the end of text. Text before the first marker becomes a leading
// block with an unknown page number, so Join(Segment(text, m)) == text for
// every input. Without any marker the whole input is one unknown block.
func Segment(text string, m *Marker) []Block {
	if m == nil {
		m = DefaultMarker
	}

	spans := m.locate(text)
	if len(spans) == 0 {
		return []Block{{Index: 0, PageNumber: UnknownPage, Text: text}}
	}

	blocks := make([]Block, 0, len(spans)+1)
	if spans[0][0] > 0 {
		blocks = append(blocks, Block{PageNumber: UnknownPage, Text: text[:spans[0][0]]})
	}

	for i, span := range spans {
		end := len(text)
		if i+1 < len(spans) {
			end = spans[i+1][0]
		}
		n, ok := m.PageNumber(text[span[0]:span[1]])
		if !ok {
			n = UnknownPage
		}
		blocks = append(blocks, Block{
			Index:      len(blocks),
			PageNumber: n,
			Text:       text[span[0]:end],
		})
	}

	return blocks
}

// SortBlocks orders blocks by page number, unknown pages last. Equal page
// numbers keep their input order. The slice is sorted in place.
func SortBlocks(blocks []Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		a, b := blocks[i], blocks[j]
		if a.Known() != b.Known() {
			return a.Known()
		}
		return a.PageNumber < b.PageNumber
	})
}

// Join concatenates block texts in slice order.
func Join(blocks []Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(b.Text)
	}
	return sb.String()
}

// PageNumbers returns the known page numbers of blocks in slice order.
func PageNumbers(blocks []Block) []int {
	var nums []int
	for _, b := range blocks {
		if b.Known() {
			nums = append(nums, b.PageNumber)
		}
	}
	return nums
}
