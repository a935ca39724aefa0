package wiki

import (
	"errors"
	"fmt"
	"strings"
)

// API error codes the client reacts to
const (
	CodeContentTooLarge = "contenttoolarge"
	CodeMissingTitle    = "missingtitle"
	CodeBadToken        = "badtoken"
)

// APIError is an error object returned by the MediaWiki action API.
type APIError struct {
	Code string
	Info string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error [%s]: %s", e.Code, e.Info)
}

// ValidationError represents a content or input validation failure with recovery guidance
type ValidationError struct {
	Field      string
	Value      string
	Message    string
	Suggestion string
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Validation failed for %s: %s", e.Field, e.Message))
	if e.Value != "" {
		displayValue := e.Value
		if len(displayValue) > 100 {
			displayValue = displayValue[:100] + "..."
		}
		sb.WriteString(fmt.Sprintf("\n\nProvided value: %q", displayValue))
	}
	if e.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("\n\nTo fix this:\n%s", e.Suggestion))
	}
	return sb.String()
}

// ContentTooLargeError indicates content exceeds the wiki's page size limit
type ContentTooLargeError struct {
	ActualSize int
	MaxSize    int
	PageTitle  string
}

func (e *ContentTooLargeError) Error() string {
	return fmt.Sprintf(`Content too large: edit to %q is %s (max: %s)

To fix this:
1. Split the page into subpages and transclude them from the parent
   (wikisource_split_page does this automatically).
2. Lower WIKISOURCE_SPLIT_CEILING if split subpages are still rejected.`,
		e.PageTitle,
		formatBytes(e.ActualSize),
		formatBytes(e.MaxSize),
	)
}

// AuthenticationError indicates authentication failures with recovery steps
type AuthenticationError struct {
	Operation string
	Reason    string
}

func (e *AuthenticationError) Error() string {
	var suggestion string
	switch {
	case strings.Contains(e.Reason, "credentials"):
		suggestion = `Check your credentials:
1. Verify MEDIAWIKI_USERNAME is in format "YourUser@BotName"
2. Verify MEDIAWIKI_PASSWORD is the bot password (not your user password)
3. Create a bot password at Special:BotPasswords on your wiki`

	case strings.Contains(e.Reason, "permission"):
		suggestion = `Your bot account lacks required permissions.
To fix:
1. Go to Special:BotPasswords on your wiki
2. Edit your bot password grants
3. Ensure 'Edit existing pages' and 'Create, edit, and move pages' are enabled`

	default:
		suggestion = `Check your wiki connection and credentials.
1. Verify MEDIAWIKI_URL points to a valid wiki API
2. Test the URL in a browser: <URL>?action=query&meta=siteinfo&format=json`
	}

	return fmt.Sprintf(`Authentication failed for %s: %s

%s`, e.Operation, e.Reason, suggestion)
}

// PageNotFoundError provides helpful suggestions for missing pages
type PageNotFoundError struct {
	Title string
}

func (e *PageNotFoundError) Error() string {
	return fmt.Sprintf(`Page not found: %s

Possible causes:
1. The page title is misspelled
2. The page was deleted or moved
3. The Index or Page: namespace prefix is missing`, e.Title)
}

// IsPageNotFound reports whether err is a missing-page error.
func IsPageNotFound(err error) bool {
	var nf *PageNotFoundError
	if errors.As(err, &nf) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == CodeMissingTitle
}

// IsContentTooLarge reports whether err means the page text was rejected for
// its size, either by the local check or by the wiki.
func IsContentTooLarge(err error) bool {
	var tooLarge *ContentTooLargeError
	if errors.As(err, &tooLarge) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == CodeContentTooLarge
}

// formatBytes formats byte count as human-readable string
func formatBytes(bytes int) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

// ValidateContentSize checks if content is within size limits
func ValidateContentSize(content, title string, maxSize int) error {
	if len(content) > maxSize {
		return &ContentTooLargeError{
			ActualSize: len(content),
			MaxSize:    maxSize,
			PageTitle:  title,
		}
	}
	return nil
}
