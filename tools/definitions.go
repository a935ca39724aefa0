package tools

// AllTools contains all tool specifications for the Wikisource MCP server.
// Tool descriptions follow a structured format for optimal LLM tool selection:
// - USE WHEN: Natural language triggers
// - NOT FOR: Disambiguation from similar tools
// - PARAMETERS: Key arguments with defaults
// - RETURNS: What the tool returns
var AllTools = []ToolSpec{
	// ==========================================================================
	// SPLIT TOOLS
	// ==========================================================================
	{
		Name:     "wikisource_plan_split",
		Method:   "PlanSplit",
		Title:    "Plan Page Split",
		Category: "split",
		Description: `Preview how an oversized main page would be split into subpages. Saves nothing.

USE WHEN: User asks "is this page too big", "how would X be split", "preview the split of X".

NOT FOR: Performing the split (use wikisource_split_page).

PARAMETERS:
- title: Main page title (required)
- ceiling: Max subpage size in bytes (default 1887436)

RETURNS: Planned subpages with titles, page ranges and sizes, the transclusion document, and warnings for single pages over the ceiling.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wikisource_split_page",
		Method:   "SplitPage",
		Title:    "Split Page Into Subpages",
		Category: "split",
		Description: `Split an oversized main page into numbered subpages (Title/1, Title/2, ...) at page-marker boundaries, then replace the main page with transclusions of them.

USE WHEN: A main page is too large to save, or user says "split X into subpages".

NOT FOR: Previewing (use wikisource_plan_split or dry_run=true).

PARAMETERS:
- title: Main page title (required)
- ceiling: Max subpage size in bytes (default 1887436)
- dry_run: Plan only (default false)

RETURNS: Stage reached, subpages saved, transclusion document and oversized-page warnings.

WARNING: Overwrites the main page and any existing subpages with the same titles. A main page that already transcludes its subpages is skipped.`,
		Destructive: true,
		OpenWorld:   true,
	},

	// ==========================================================================
	// LINK TOOLS
	// ==========================================================================
	{
		Name:     "wikisource_link_pages",
		Method:   "LinkPages",
		Title:    "Link Page Markers",
		Category: "links",
		Description: `Turn bare "Page no: N" markers on a main page into [[Page:<file>/N|Page no: N]] links.

USE WHEN: User says "link the page numbers", "convert Page no markers".

NOT FOR: Footnotes for variant readings (use wikisource_add_ref_tags).

PARAMETERS:
- index_title: Index page, e.g. "Index:Book.pdf" (required)
- main_title: Main page (default: index file name without extension)
- ceiling: Subpage ceiling if the converted page must be split
- dry_run: Report without saving (default false)

RETURNS: Outcome (skipped, unchanged, planned, saved, split) and markers converted. Pages that already carry links are skipped. If the converted page is too large to save, it is split into subpages instead.`,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wikisource_add_ref_tags",
		Method:   "AddRefTags",
		Title:    "Add Variant Footnotes",
		Category: "links",
		Description: `Rewrite "(variant,reading)" notes on a main page as reading<ref>variant</ref> footnotes.

USE WHEN: User says "convert the bracket notes to references", "add ref tags".

PARAMETERS:
- main_title: Main page (required)
- dry_run: Preview the first 2000 characters without saving

RETURNS: Outcome and number of notes converted.`,
		Idempotent: true,
		OpenWorld:  true,
	},

	// ==========================================================================
	// INDEX TOOLS
	// ==========================================================================
	{
		Name:     "wikisource_list_index_pages",
		Method:   "ListIndexPages",
		Title:    "List Index Pages",
		Category: "index",
		Description: `List the Page: pages of an Index in page order.

USE WHEN: User asks "which pages does Index:X have", "what is the last page of X".

PARAMETERS:
- index_title: Index page (required)

RETURNS: Page titles, count, first and last page number.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wikisource_create_main_page",
		Method:   "CreateMainPage",
		Title:    "Create Main Page From Index",
		Category: "index",
		Description: `Create a mainspace page that transcludes an Index with <pages index="..." from=.. to=.. />.

USE WHEN: User says "publish Index:X", "create the main page for X".

NOT FOR: Main pages built from e-text (use wikisource_create_extended_main_page).

PARAMETERS:
- index_title: Index page (required)
- main_title: Main page (default: index file name without extension)
- from: First page (default 1)
- to: Last page (default: last page found)
- dry_run: Build content only

RETURNS: Content and whether it was saved. An existing main page is left alone.`,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wikisource_format_orientation",
		Method:   "FormatOrientation",
		Title:    "Format Page Orientation",
		Category: "index",
		Description: `Strip markup from every Page: page of an Index, wrap the text in a margin div and mark it proofread.

USE WHEN: User says "add margins to the pages of X", "style the pages of Index:X".

PARAMETERS:
- index_title: Index page (required)
- dry_run: List pages only

RETURNS: Per-page status. Nothing is changed when the main page already exists.`,
		Destructive: true,
		OpenWorld:   true,
	},

	// ==========================================================================
	// E-TEXT TOOLS
	// ==========================================================================
	{
		Name:     "wikisource_upload_etext",
		Method:   "UploadEText",
		Title:    "Upload E-text",
		Category: "etext",
		Description: `Upload OCR/e-text into the Page: pages of an Index, one "Page no: N" section per page, marked proofread. Parenthesised notes are removed.

USE WHEN: User says "upload the text file for Index:X", "fill the pages from this OCR".

PARAMETERS:
- index_title: Index page (required)
- text: Inline e-text, or
- text_file: Path to a local e-text file
- dry_run: Match pages only

Targets are the pages the Index lists; a fresh Index that lists none gets every numbered page created.

RETURNS: Per-page status (saved, planned, missing, failed) with counts.`,
		Destructive: true,
		OpenWorld:   true,
	},
	{
		Name:     "wikisource_create_extended_main_page",
		Method:   "CreateExtended",
		Title:    "Create Main Page From E-text",
		Category: "etext",
		Description: `Create a main page with one "== Page N ==" section per page of e-text, each transcluding its Page: page.

USE WHEN: User wants a main page that carries the text itself rather than a <pages> tag.

PARAMETERS:
- index_title: Index page (required)
- main_title: Main page (default: index file name without extension)
- text or text_file: The e-text (required)
- overwrite: Replace an existing main page with content (default false)
- dry_run: Build content only

RETURNS: Content and whether it was saved.`,
		OpenWorld: true,
	},

	// ==========================================================================
	// WIKIPEDIA TOOLS
	// ==========================================================================
	{
		Name:     "wikipedia_create_article",
		Method:   "CreateArticle",
		Title:    "Create Wikipedia Article",
		Category: "wikipedia",
		Description: `Create a new Wikipedia article. An existing article is never overwritten; the call reports it as skipped.

USE WHEN: User says "create a Wikipedia article for X", "write the article about this text".

PARAMETERS:
- title: Article title (required)
- content: Full wikitext (required)
- summary: Edit summary (default "Created via script")
- minor: Mark as minor edit
- dry_run: Check only

RETURNS: Action taken (created, planned, skipped) and the reason for a skip.`,
		OpenWorld: true,
	},
	{
		Name:     "wikipedia_edit_article",
		Method:   "EditArticle",
		Title:    "Edit Wikipedia Article",
		Category: "wikipedia",
		Description: `Replace the text of an existing Wikipedia article. A missing article is never created; unchanged content is not saved.

USE WHEN: User says "update the Wikipedia article X", "replace the article text".

PARAMETERS:
- title: Article title (required)
- content: Full wikitext (required)
- summary: Edit summary (default "Edit via script")
- minor: Mark as minor edit
- dry_run: Check only

RETURNS: Action taken (edited, planned, skipped) with the size of the replaced text.`,
		Destructive: true,
		Idempotent:  true,
		OpenWorld:   true,
	},
	{
		Name:     "wikipedia_publish_article",
		Method:   "PublishArticle",
		Title:    "Publish Wikipedia Article",
		Category: "wikipedia",
		Description: `Create a Wikipedia article, or edit it when it already exists.

USE WHEN: User wants the article to end up with this text whether or not it exists yet.

PARAMETERS:
- title: Article title (required)
- content: Full wikitext (required)
- summary: Edit summary
- minor: Mark as minor edit
- dry_run: Check only

RETURNS: Action taken (created, edited, planned, skipped).`,
		Destructive: true,
		Idempotent:  true,
		OpenWorld:   true,
	},

	// ==========================================================================
	// WIKIDATA TOOLS
	// ==========================================================================
	{
		Name:     "wikidata_lookup_work",
		Method:   "LookupWork",
		Title:    "Look Up BDRC Work on Wikidata",
		Category: "wikidata",
		Description: `Find the Wikidata item for a BDRC work ID (property P2477) and read its label, description, aliases and selected claims.

USE WHEN: User asks "what is the Wikidata item for WA0RK0529", "get the title and type of this BDRC work".

PARAMETERS:
- work_id: BDRC work ID (required)
- language: Language of label, description and aliases (default en)
- properties: Property IDs to read, e.g. ["P31", "P1476"]

RETURNS: found=false when Wikidata has no item; otherwise the QID and fields. Item-valued claims give QIDs.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
}

// ToolsByCategory returns the tools in one category.
func ToolsByCategory(category string) []ToolSpec {
	var out []ToolSpec
	for _, spec := range AllTools {
		if spec.Category == category {
			out = append(out, spec)
		}
	}
	return out
}
