package transclude

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// RefTagSummary is the edit summary of a variant-reading conversion.
const RefTagSummary = "Bot: Converted variant readings to ref tags."

// VariantNotePrefix opens every generated footnote ("manuscript:").
const VariantNotePrefix = "བྲིས་མར། "

var variantReading = regexp.MustCompile(`\(([^,)]+),([^)]+)\)`)

// ConvertVariantReadings rewrites "(variant,reading)" as
// "reading<ref>prefix variant</ref>", keeping the reading inline and moving
// the manuscript variant into a footnote.
func ConvertVariantReadings(text string) string {
	return variantReading.ReplaceAllStringFunc(text, func(m string) string {
		sub := variantReading.FindStringSubmatch(m)
		variant := strings.TrimSpace(sub[1])
		reading := strings.TrimSpace(sub[2])
		return reading + "<ref>" + VariantNotePrefix + variant + "</ref>"
	})
}

// RefTagRequest names the main page whose variant readings are converted.
type RefTagRequest struct {
	MainTitle string
	DryRun    bool
}

// RefTagResult reports a variant-reading conversion.
type RefTagResult struct {
	MainTitle string      `json:"main_title"`
	Outcome   LinkOutcome `json:"outcome"`
	Notes     int         `json:"notes_converted"`
	Preview   string      `json:"preview,omitempty"`
}

const previewLimit = 2000

// AddRefTags converts the variant readings on a main page into footnotes.
func (l *Linker) AddRefTags(ctx context.Context, req RefTagRequest) (*RefTagResult, error) {
	res := &RefTagResult{MainTitle: req.MainTitle}

	text, exists, err := l.store.FetchPageText(ctx, req.MainTitle)
	if err != nil {
		return res, fmt.Errorf("fetching %q: %w", req.MainTitle, err)
	}
	if !exists {
		return res, &NotFoundError{Title: req.MainTitle, Kind: "main page"}
	}

	updated := ConvertVariantReadings(text)
	if updated == text {
		res.Outcome = LinkUnchanged
		return res, nil
	}
	res.Notes = len(variantReading.FindAllStringIndex(text, -1))

	if req.DryRun {
		res.Outcome = LinkPlanned
		res.Preview = truncateRunes(updated, previewLimit)
		return res, nil
	}
	if err := l.store.SavePage(ctx, req.MainTitle, updated, RefTagSummary); err != nil {
		return res, fmt.Errorf("saving %q: %w", req.MainTitle, err)
	}
	l.logger.Info("Converted variant readings", "page", req.MainTitle, "notes", res.Notes)
	res.Outcome = LinkSaved
	return res, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
