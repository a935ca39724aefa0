package transclude

import (
	"fmt"
	"strings"
)

// NotFoundError means a page the operation depends on does not exist. It is
// returned before anything is written.
type NotFoundError struct {
	Title string
	Kind  string // "parent", "main page", "index"
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q does not exist; nothing was written", e.Kind, e.Title)
}

// SubpageSaveError reports the first subpage that could not be saved.
// Subpages before it stay saved; the parent is left untouched.
type SubpageSaveError struct {
	Index int // 1-based
	Title string
	Saved []string
	Err   error
}

func (e *SubpageSaveError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "saving subpage %d (%s) failed: %v", e.Index, e.Title, e.Err)
	sb.WriteString("\nThe parent page was not rewritten.")
	if len(e.Saved) > 0 {
		fmt.Fprintf(&sb, "\nAlready saved and left in place: %s", strings.Join(e.Saved, ", "))
	}
	return sb.String()
}

func (e *SubpageSaveError) Unwrap() error { return e.Err }

// ParentSaveError is a partial success: every subpage was saved but the
// parent could not be rewritten to transclude them.
type ParentSaveError struct {
	Parent   string
	Subpages []string
	Document string
	Err      error
}

func (e *ParentSaveError) Error() string {
	return fmt.Sprintf(`rewriting parent %q failed after saving %d subpages: %v

The content is reachable through the subpages (%s).
To finish by hand, replace the parent text with:
%s`, e.Parent, len(e.Subpages), e.Err, strings.Join(e.Subpages, ", "), e.Document)
}

func (e *ParentSaveError) Unwrap() error { return e.Err }
