package pageblock

import (
	"errors"
	"fmt"
	"strings"
)

// MediaWiki's default $wgMaxArticleSize is 2 MiB; chunks stay under 90% of it.
const (
	PlatformPageLimit = 2 * 1024 * 1024
	DefaultCeiling    = PlatformPageLimit * 9 / 10
)

var (
	// ErrNoBlocks is returned when there is nothing to pack.
	ErrNoBlocks = errors.New("no blocks to pack")

	// ErrInvalidCeiling is returned for a ceiling that is not positive.
	ErrInvalidCeiling = errors.New("size ceiling must be positive")
)

// Chunk is an ordered, non-empty run of consecutive blocks destined for one
// subpage.
type Chunk struct {
	Blocks []Block

	// Size is the UTF-8 byte length of the concatenated block texts.
	Size int

	// Oversized is set when the chunk holds a single block that alone
	// exceeds the ceiling.
	Oversized bool
}

// Text concatenates the chunk's blocks.
func (c Chunk) Text() string {
	var sb strings.Builder
	sb.Grow(c.Size)
	for _, b := range c.Blocks {
		sb.WriteString(b.Text)
	}
	return sb.String()
}

// PageRange returns the smallest and largest known page numbers in the chunk.
// ok is false when no block in the chunk has a known page number.
func (c Chunk) PageRange() (first, last int, ok bool) {
	for _, b := range c.Blocks {
		if !b.Known() {
			continue
		}
		if !ok {
			first, last, ok = b.PageNumber, b.PageNumber, true
			continue
		}
		first = min(first, b.PageNumber)
		last = max(last, b.PageNumber)
	}
	return first, last, ok
}

// RangeLabel renders PageRange for logs: "3-9", "4" or "unknown".
func (c Chunk) RangeLabel() string {
	first, last, ok := c.PageRange()
	switch {
	case !ok:
		return "unknown"
	case first == last:
		return fmt.Sprintf("%d", first)
	default:
		return fmt.Sprintf("%d-%d", first, last)
	}
}

// Pack groups blocks into chunks whose encoded size is at most ceiling.
//
// Packing is greedy and forward-only: blocks are appended to the current
// chunk until the next block would push it past the ceiling, at which point
// the chunk is closed and the block opens a new one. A chunk of exactly
// ceiling bytes is accepted. A block larger than the ceiling is never split
// or dropped; it becomes a chunk of its own and is flagged Oversized.
func Pack(blocks []Block, ceiling int) ([]Chunk, error) {
	if len(blocks) == 0 {
		return nil, ErrNoBlocks
	}
	if ceiling <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCeiling, ceiling)
	}

	var chunks []Chunk
	var cur Chunk

	flush := func() {
		if len(cur.Blocks) > 0 {
			chunks = append(chunks, cur)
		}
		cur = Chunk{}
	}

	for _, b := range blocks {
		size := b.Size()
		if len(cur.Blocks) > 0 && cur.Size+size > ceiling {
			flush()
		}
		cur.Blocks = append(cur.Blocks, b)
		cur.Size += size
		if size > ceiling {
			cur.Oversized = true
			flush()
		}
	}
	flush()

	return chunks, nil
}

// OversizedBlockWarning reports a block that alone exceeds the ceiling. The
// chunk is still produced, but the wiki may reject it on save.
type OversizedBlockWarning struct {
	ChunkIndex int // 1-based
	PageNumber int
	Size       int
	Ceiling    int
}

func (w OversizedBlockWarning) String() string {
	page := "unknown page"
	if w.PageNumber != UnknownPage {
		page = fmt.Sprintf("page %d", w.PageNumber)
	}
	return fmt.Sprintf("%s is %s, over the %s ceiling (chunk %d)",
		page, formatBytes(w.Size), formatBytes(w.Ceiling), w.ChunkIndex)
}

// Warnings lists one OversizedBlockWarning per oversized chunk.
func Warnings(chunks []Chunk, ceiling int) []OversizedBlockWarning {
	var warnings []OversizedBlockWarning
	for i, c := range chunks {
		if !c.Oversized {
			continue
		}
		warnings = append(warnings, OversizedBlockWarning{
			ChunkIndex: i + 1,
			PageNumber: c.Blocks[0].PageNumber,
			Size:       c.Size,
			Ceiling:    ceiling,
		})
	}
	return warnings
}

func formatBytes(n int) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case n >= MB:
		return fmt.Sprintf("%.1f MB", float64(n)/float64(MB))
	case n >= KB:
		return fmt.Sprintf("%.1f KB", float64(n)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
