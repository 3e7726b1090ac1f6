package document

import "errors"

// Error kinds surfaced by the access layer. Handlers map these to distinct
// failure codes so callers can tell a bad path from a bad page range.
var (
	// ErrNotFound means the path does not resolve to a file.
	ErrNotFound = errors.New("document not found")
	// ErrUnreadable means the file exists but cannot be parsed as a PDF
	// (corrupt, wrong format, unsupported encryption).
	ErrUnreadable = errors.New("document unreadable")
	// ErrOutOfRange means a page index or page window is invalid.
	ErrOutOfRange = errors.New("page out of range")
	// ErrNoMatch means a section query scored below the acceptance threshold.
	ErrNoMatch = errors.New("no matching section")
)
