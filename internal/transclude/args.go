package transclude

// PlanSplitArgs contains parameters for previewing a split
type PlanSplitArgs struct {
	Title   string `json:"title" jsonschema:"required" jsonschema_description:"Main page to split, e.g. 'Some Book'"`
	Ceiling int    `json:"ceiling,omitempty" jsonschema_description:"Maximum subpage size in bytes (default 1887436)"`
}

// SplitPageArgs contains parameters for splitting a main page
type SplitPageArgs struct {
	Title   string `json:"title" jsonschema:"required" jsonschema_description:"Main page to split into numbered subpages"`
	Ceiling int    `json:"ceiling,omitempty" jsonschema_description:"Maximum subpage size in bytes (default 1887436)"`
	DryRun  bool   `json:"dry_run,omitempty" jsonschema_description:"Plan the split without saving anything"`
}

// SplitPageResult is the result of a split or split preview
type SplitPageResult struct {
	Split *SplitResult `json:"split"`
}

// LinkPagesArgs contains parameters for page-link conversion
type LinkPagesArgs struct {
	IndexTitle string `json:"index_title" jsonschema:"required" jsonschema_description:"Index page, e.g. 'Index:Some Book.pdf'"`
	MainTitle  string `json:"main_title,omitempty" jsonschema_description:"Main page to convert (default: index file name without extension)"`
	Ceiling    int    `json:"ceiling,omitempty" jsonschema_description:"Subpage size ceiling in bytes used if the page has to be split"`
	DryRun     bool   `json:"dry_run,omitempty" jsonschema_description:"Report what would change without saving"`
}

// LinkPagesResult is the result of page-link conversion
type LinkPagesResult struct {
	Link *LinkResult `json:"link"`
}

// AddRefTagsArgs contains parameters for variant-reading conversion
type AddRefTagsArgs struct {
	MainTitle string `json:"main_title" jsonschema:"required" jsonschema_description:"Main page whose (variant,reading) notes become footnotes"`
	DryRun    bool   `json:"dry_run,omitempty" jsonschema_description:"Preview the converted text without saving"`
}

// AddRefTagsResult is the result of variant-reading conversion
type AddRefTagsResult struct {
	RefTags *RefTagResult `json:"ref_tags"`
}

// CreateMainPageArgs contains parameters for creating a <pages> main page
type CreateMainPageArgs struct {
	IndexTitle string `json:"index_title" jsonschema:"required" jsonschema_description:"Index page, e.g. 'Index:Some Book.pdf'"`
	MainTitle  string `json:"main_title,omitempty" jsonschema_description:"Main page title (default: index file name without extension)"`
	From       int    `json:"from,omitempty" jsonschema_description:"First page to transclude (default 1)"`
	To         int    `json:"to,omitempty" jsonschema_description:"Last page to transclude (default: last page of the index)"`
	DryRun     bool   `json:"dry_run,omitempty" jsonschema_description:"Build the content without saving"`
}

// CreateMainPageResult is the result of main page creation
type CreateMainPageResult struct {
	MainPage *MainPageResult `json:"main_page"`
}

// FormatOrientationArgs contains parameters for restyling an index's pages
type FormatOrientationArgs struct {
	IndexTitle string `json:"index_title" jsonschema:"required" jsonschema_description:"Index page whose Page: pages get the margin styling"`
	DryRun     bool   `json:"dry_run,omitempty" jsonschema_description:"List the pages without saving"`
}

// FormatOrientationResult is the result of restyling
type FormatOrientationResult struct {
	Orientation *OrientationResult `json:"orientation"`
}

// CreateExtendedArgs contains parameters for an e-text main page
type CreateExtendedArgs struct {
	IndexTitle string `json:"index_title" jsonschema:"required" jsonschema_description:"Index page the text belongs to"`
	MainTitle  string `json:"main_title,omitempty" jsonschema_description:"Main page title (default: index file name without extension)"`
	Text       string `json:"text,omitempty" jsonschema_description:"E-text with 'Page no: N' header lines"`
	TextFile   string `json:"text_file,omitempty" jsonschema_description:"Path to a local e-text file (used when text is empty)"`
	Overwrite  bool   `json:"overwrite,omitempty" jsonschema_description:"Replace an existing main page that has content"`
	DryRun     bool   `json:"dry_run,omitempty" jsonschema_description:"Build the content without saving"`
}

// CreateExtendedResult is the result of e-text main page creation
type CreateExtendedResult struct {
	MainPage *MainPageResult `json:"main_page"`
}

// UploadETextArgs contains parameters for uploading e-text to Page: pages
type UploadETextArgs struct {
	IndexTitle string `json:"index_title" jsonschema:"required" jsonschema_description:"Index page whose Page: pages receive the text"`
	Text       string `json:"text,omitempty" jsonschema_description:"E-text with 'Page no: N' header lines"`
	TextFile   string `json:"text_file,omitempty" jsonschema_description:"Path to a local e-text file (used when text is empty)"`
	DryRun     bool   `json:"dry_run,omitempty" jsonschema_description:"Match pages without saving"`
}

// UploadETextResult is the result of an e-text upload
type UploadETextResult struct {
	Upload *UploadResult `json:"upload"`
}

// ListIndexPagesArgs contains parameters for listing an index's pages
type ListIndexPagesArgs struct {
	IndexTitle string `json:"index_title" jsonschema:"required" jsonschema_description:"Index page, e.g. 'Index:Some Book.pdf'"`
}

// ListIndexPagesResult lists Page: titles in page order
type ListIndexPagesResult struct {
	IndexTitle string   `json:"index_title"`
	Pages      []string `json:"pages"`
	Count      int      `json:"count"`
	FirstPage  int      `json:"first_page,omitempty"`
	LastPage   int      `json:"last_page,omitempty"`
}
