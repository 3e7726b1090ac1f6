// Package document owns parsed PDF handles and the bounded cache that shares
// them across tool calls. A handle is read-only after creation; everything
// derived from it (page text, outline, images) is extracted lazily.
package document

// Metadata holds the document information dictionary fields worth surfacing.
type Metadata struct {
	Title        string
	Author       string
	Subject      string
	Creator      string
	CreationDate string
}

// OutlineItem is one entry of the document's built-in outline, flattened in
// document order. Level 0 is a top-level bookmark; Page is 0-indexed.
type OutlineItem struct {
	Title string
	Level int
	Page  int
}

// PageImage is one raster image embedded on a page, as encoded bytes.
// Width and Height are 0 when the encoded form could not be decoded by the
// standard image decoders.
type PageImage struct {
	Data     []byte
	Format   string
	MIMEType string
	Width    int
	Height   int
}
