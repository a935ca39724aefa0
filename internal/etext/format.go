package etext

import (
	"fmt"
	"regexp"
	"strings"
)

// ProofreadLevel is the ProofreadPage quality written by the bot ("proofread").
const ProofreadLevel = 3

var htmlTag = regexp.MustCompile(`<[^>]+>`)

// QualityTag renders the pagequality header of a Page: page.
func QualityTag(user string) string {
	return fmt.Sprintf(`<noinclude><pagequality level="%d" user="%s" /></noinclude>`, ProofreadLevel, user)
}

// FormatProofread wraps page text in the ProofreadPage layout used for
// uploaded e-text.
func FormatProofread(text, user string) string {
	return QualityTag(user) + "\n" + text + "\n<noinclude></noinclude>"
}

// FormatOrientation strips markup from existing page text and wraps it in the
// margin div, marking the page proofread. Empty pages get a non-breaking space
// so the div keeps its height.
func FormatOrientation(text, user string) string {
	body := StripTags(text)
	if body == "" {
		body = "&nbsp;"
	}
	return QualityTag(user) + "\n" +
		`<div style="margin-left: 3em; margin-right: 3em;">` + body + "</div>" +
		"<noinclude></noinclude>"
}

// StripTags removes HTML-style tags and surrounding whitespace.
func StripTags(text string) string {
	return strings.TrimSpace(htmlTag.ReplaceAllString(strings.TrimSpace(text), ""))
}

// PrepareMainContent renders pages as "== Page N ==" sections, each
// transcluding Page:<file>/N above its text. Pages without text are left out
// and returned in skipped.
func PrepareMainContent(pages []PageText, fileName string) (content string, skipped []int) {
	sections := make([]string, 0, len(pages))
	for _, p := range pages {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			skipped = append(skipped, p.Number)
			continue
		}
		sections = append(sections, fmt.Sprintf("== Page %d ==\n{{Page:%s/%d}}\n%s\n", p.Number, fileName, p.Number, text))
	}
	return strings.TrimSpace(strings.Join(sections, "\n")), skipped
}
