// Package mcp exposes the document access layer as MCP tools.
package mcp

// All page numbers crossing this boundary are 1-based and ranges are
// inclusive; the access layer underneath works 0-indexed, half-open.

// InfoInput defines the input parameters for the pdf_info tool.
type InfoInput struct {
	// Path is the PDF file path, absolute or relative to the server.
	Path string `json:"path" jsonschema:"required,description=Path to the PDF file"`
}

// InfoOutput contains document metadata and the table of contents.
type InfoOutput struct {
	Path     string `json:"path"`
	Pages    int    `json:"pages"`
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Creator  string `json:"creator,omitempty"`
	Created  string `json:"created,omitempty"`
	HasText  bool   `json:"has_text"`
	// Warning is set for scanned documents without an extractable text layer.
	Warning string     `json:"warning,omitempty"`
	TOC     []TOCEntry `json:"toc"`
}

// TOCEntry is one table-of-contents row. Pages are 1-based inclusive.
type TOCEntry struct {
	Title     string `json:"title"`
	Level     int    `json:"level"`
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page"`
}

// ReadPagesInput defines the input parameters for the pdf_read_pages tool.
type ReadPagesInput struct {
	Path string `json:"path" jsonschema:"required,description=Path to the PDF file"`
	// StartPage is the first page to read (1-based).
	StartPage int `json:"start_page" jsonschema:"required,minimum=1,description=First page to read (1-based)"`
	// EndPage is the last page to read, inclusive. Defaults to StartPage.
	EndPage int `json:"end_page,omitempty" jsonschema:"minimum=1,description=Last page to read inclusive; at most 10 pages per call"`
}

// ReadPagesOutput contains the extracted text of the requested pages.
type ReadPagesOutput struct {
	Path      string `json:"path"`
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page"`
	Pages     []Page `json:"pages"`
}

// Page is the extracted text of one page. Scanned pages have empty text.
type Page struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// ReadSectionInput defines the input parameters for the pdf_read_section tool.
type ReadSectionInput struct {
	Path string `json:"path" jsonschema:"required,description=Path to the PDF file"`
	// Section is a free-text section name matched against the TOC.
	Section string `json:"section" jsonschema:"required,description=Section name or title to read (fuzzy matched against the table of contents)"`
}

// ReadSectionOutput contains the pages of the resolved section.
type ReadSectionOutput struct {
	Path  string  `json:"path"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
	// StartPage and EndPage give the full resolved span even when Pages was
	// truncated.
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page"`
	Truncated bool   `json:"truncated"`
	Notice    string `json:"notice,omitempty"`
	Pages     []Page `json:"pages"`
}

// PageImagesInput defines the input parameters for the pdf_get_page_images tool.
type PageImagesInput struct {
	Path string `json:"path" jsonschema:"required,description=Path to the PDF file"`
	Page int    `json:"page" jsonschema:"required,minimum=1,description=Page to extract images from (1-based)"`
}

// PageImagesOutput contains the images embedded on one page.
type PageImagesOutput struct {
	Path   string  `json:"path"`
	Page   int     `json:"page"`
	Images []Image `json:"images"`
	// Skipped counts images dropped as too small or undecodable.
	Skipped int    `json:"skipped"`
	Message string `json:"message,omitempty"`
}

// Image is one extracted image, base64-encoded. Width and Height are 0 when
// the encoded form could not be decoded.
type Image struct {
	Index    int    `json:"index"`
	MIMEType string `json:"mime_type"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Data     string `json:"data_base64"`
}

// SearchInput defines the input parameters for the pdf_search tool.
type SearchInput struct {
	Path  string `json:"path" jsonschema:"required,description=Path to the PDF file"`
	Query string `json:"query" jsonschema:"required,description=Text to search for (case-insensitive)"`
	// MaxHits caps the returned hits.
	MaxHits int `json:"max_hits,omitempty" jsonschema:"minimum=1,maximum=100,default=10,description=Maximum number of hits to return"`
}

// SearchOutput contains ranked search hits with context snippets.
type SearchOutput struct {
	Path  string `json:"path"`
	Query string `json:"query"`
	// TotalHits and PagesWithHits cover the whole document, before the cap.
	TotalHits     int    `json:"total_hits"`
	PagesWithHits int    `json:"pages_with_hits"`
	Hits          []Hit  `json:"hits"`
	Message       string `json:"message,omitempty"`
}

// Hit is one search result with surrounding context.
type Hit struct {
	Page    int     `json:"page"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
	Terms   int     `json:"terms_matched"`
}

// SaveSummaryInput defines the input parameters for the save_summary tool.
type SaveSummaryInput struct {
	Path string `json:"path" jsonschema:"required,description=Path to the PDF file the summary describes"`
	// Summary is the markdown summary text to persist.
	Summary string `json:"summary" jsonschema:"required,description=Markdown summary text to save"`
}

// SaveSummaryOutput reports where the summary was written.
type SaveSummaryOutput struct {
	SummaryPath string `json:"summary_path"`
	Bytes       int    `json:"bytes_written"`
}

// ConvertInput defines the input parameters for the convert_md_to_pdf tool.
type ConvertInput struct {
	// MarkdownPath is the markdown file to render.
	MarkdownPath string `json:"markdown_path" jsonschema:"required,description=Path to the markdown file to convert"`
}

// ConvertOutput reports the rendered PDF location.
type ConvertOutput struct {
	PDFPath string `json:"pdf_path"`
}
