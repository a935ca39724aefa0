package wiki

// Limits and defaults
const (
	DefaultLimit = 50
	MaxLimit     = 500

	// MaxEditSize matches MediaWiki's default $wgMaxArticleSize of 2 MiB.
	MaxEditSize = 2 * 1024 * 1024
)

// Wikisource namespace IDs (ProofreadPage extension)
const (
	NamespaceMain  = 0
	NamespacePage  = 104
	NamespaceIndex = 106
)

// ========== Page Content Types ==========

type GetPageArgs struct {
	Title string `json:"title" jsonschema:"required,description=Page title to retrieve"`
}

type PageContent struct {
	Title     string `json:"title"`
	PageID    int    `json:"page_id"`
	Content   string `json:"content"`
	Revision  int    `json:"revision_id"`
	Timestamp string `json:"timestamp"`
}

// ========== List Pages Types ==========

type ListPagesArgs struct {
	Prefix       string `json:"prefix,omitempty" jsonschema:"description=Filter pages starting with this prefix (without namespace)"`
	Namespace    int    `json:"namespace,omitempty" jsonschema:"description=Namespace ID (0=main, 104=Page, 106=Index)"`
	Limit        int    `json:"limit,omitempty" jsonschema:"description=Maximum pages to return (default 50, max 500)"`
	ContinueFrom string `json:"continue_from,omitempty" jsonschema:"description=Continue token for pagination"`
}

type ListPagesResult struct {
	Pages        []PageSummary `json:"pages"`
	HasMore      bool          `json:"has_more"`
	ContinueFrom string        `json:"continue_from,omitempty"`
}

type PageSummary struct {
	PageID int    `json:"page_id"`
	Title  string `json:"title"`
}

// ========== Edit Types ==========

type EditPageArgs struct {
	Title   string `json:"title" jsonschema:"required,description=Page title to edit or create"`
	Content string `json:"content" jsonschema:"required,description=New page content in wikitext format"`
	Summary string `json:"summary,omitempty" jsonschema:"description=Edit summary explaining the change"`
	Minor   bool   `json:"minor,omitempty" jsonschema:"description=Mark as minor edit"`
	Bot     bool   `json:"bot,omitempty" jsonschema:"description=Mark as bot edit (requires bot flag)"`

	// CreateOnly fails with articleexists when the page already exists.
	CreateOnly bool `json:"create_only,omitempty"`
	// NoCreate fails with missingtitle when the page does not exist.
	NoCreate bool `json:"no_create,omitempty"`
}

type EditResult struct {
	Success    bool   `json:"success"`
	Title      string `json:"title"`
	PageID     int    `json:"page_id"`
	RevisionID int    `json:"revision_id"`
	NewPage    bool   `json:"new_page"`
	NoChange   bool   `json:"no_change,omitempty"`
	Message    string `json:"message"`
}
