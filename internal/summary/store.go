// Package summary persists per-document markdown summaries under a dedicated
// directory, named after the source document.
package summary

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDir is where summaries land when no directory is configured,
// relative to the process working directory.
const DefaultDir = "Summaries"

// Store writes summaries to a single directory, creating it on first use.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, or DefaultDir when empty.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	return &Store{dir: dir}
}

// PathFor derives the summary file path for a document:
// "report.pdf" maps to "<dir>/report_summary.md".
func (s *Store) PathFor(documentPath string) string {
	stem := strings.TrimSuffix(filepath.Base(documentPath), filepath.Ext(documentPath))
	return filepath.Join(s.dir, stem+"_summary.md")
}

// Save writes the summary text for a document, overwriting any previous one,
// and returns the path written.
func (s *Store) Save(documentPath, text string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating summary directory: %w", err)
	}
	out := s.PathFor(documentPath)
	if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("writing summary: %w", err)
	}
	return out, nil
}
