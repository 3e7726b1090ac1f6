// Package toc derives a normalized table of contents from a parsed document
// and resolves free-text section queries against it.
package toc

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/bull/pdf-reader-mcp/internal/document"
)

// Entry is one normalized outline node. StartPage is 0-indexed inclusive,
// EndPage exclusive. EndPage is always computed from the sequence, never
// taken from the parser: it is the start page of the next entry at the same
// or a shallower level, or the document page count when no such entry exists.
type Entry struct {
	Title      string // trimmed, case preserved for display
	MatchTitle string // normalized copy used for matching
	Level      int    // depth in the hierarchy, 0 = top level
	StartPage  int
	EndPage    int
}

// Source is the slice of a document handle the extractor needs.
type Source interface {
	PageCount() int
	RawOutline() []document.OutlineItem
	PageText(page int) (string, error)
}

// Build derives the table of contents for a document. It prefers the
// document's built-in outline, falls back to a heuristic heading scan over
// page text, and as a last resort returns a single whole-document entry, so
// it never fails: a TOC-less document still supports section reads in a
// degraded form.
func Build(src Source) []Entry {
	entries := fromOutline(src)
	if len(entries) == 0 {
		entries = fromHeadings(src)
	}
	if len(entries) == 0 {
		entries = []Entry{{
			Title:      "Document",
			MatchTitle: Normalize("Document"),
			Level:      0,
			StartPage:  0,
		}}
	}
	computeEndPages(entries, src.PageCount())
	return entries
}

// fromOutline normalizes the parser-provided outline. Level jumps deeper
// than parent+1 are smoothed so the end-page computation stays sound on
// malformed outlines.
func fromOutline(src Source) []Entry {
	items := src.RawOutline()
	if len(items) == 0 {
		return nil
	}

	entries := make([]Entry, 0, len(items))
	prevLevel := -1
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" || item.Page < 0 || item.Page >= src.PageCount() {
			continue
		}
		level := item.Level
		if level < 0 || prevLevel < 0 {
			level = 0
		} else if level > prevLevel+1 {
			level = prevLevel + 1
		}
		prevLevel = level
		entries = append(entries, Entry{
			Title:      title,
			MatchTitle: Normalize(title),
			Level:      level,
			StartPage:  item.Page,
		})
	}
	return entries
}

var (
	numberedHeadingRE  = regexp.MustCompile(`^\d+(?:\.\d+)*[.)]?\s+\S`)
	uppercaseHeadingRE = regexp.MustCompile(`^[A-Z][A-Z0-9\s:&\-]{4,}$`)
)

var headingPrefixes = []string{"chapter ", "section ", "part ", "appendix "}

// fromHeadings synthesizes a TOC by scanning page text for heading-like
// lines: numbered section headers, short all-caps lines, and conventional
// chapter/section prefixes.
func fromHeadings(src Source) []Entry {
	var entries []Entry
	for page := 0; page < src.PageCount(); page++ {
		text, err := src.PageText(page)
		if err != nil || text == "" {
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if !isLikelyHeading(line) {
				continue
			}
			entries = append(entries, Entry{
				Title:      line,
				MatchTitle: Normalize(line),
				Level:      headingLevel(line),
				StartPage:  page,
			})
		}
	}
	return entries
}

func isLikelyHeading(line string) bool {
	if len(line) < 3 || len(line) > 120 {
		return false
	}
	if numberedHeadingRE.MatchString(line) {
		return true
	}
	if uppercaseHeadingRE.MatchString(line) && line == strings.ToUpper(line) {
		return true
	}
	lower := strings.ToLower(line)
	for _, prefix := range headingPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// headingLevel infers depth from section numbering: "3.2 Results" is one
// level below "3 Results". Unnumbered headings are top level.
func headingLevel(line string) int {
	if !numberedHeadingRE.MatchString(line) {
		return 0
	}
	numbering := strings.TrimRight(strings.SplitN(line, " ", 2)[0], ".)")
	return strings.Count(numbering, ".")
}

// computeEndPages applies the boundary invariant: the end page of entry i is
// the start page of the next entry at level <= level(i), or the document
// page count. Out-of-order starts from malformed outlines are clamped so the
// range never inverts.
func computeEndPages(entries []Entry, pageCount int) {
	for i := range entries {
		end := pageCount
		for j := i + 1; j < len(entries); j++ {
			if entries[j].Level <= entries[i].Level {
				end = entries[j].StartPage
				break
			}
		}
		if end < entries[i].StartPage {
			end = entries[i].StartPage
		}
		if end > pageCount {
			end = pageCount
		}
		entries[i].EndPage = end
	}
}

var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	numberingRE  = regexp.MustCompile(`(?i)^(?:\d+(?:\.\d+)*[.)]?|[IVXLCDM]+[.)]|[A-Z][.)])\s+`)
)

// Normalize produces the matching form of a title or query: case-folded,
// whitespace collapsed, leading numbering ("3.2", "IV.", "A.") stripped.
func Normalize(s string) string {
	s = cases.Fold().String(s)
	s = strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
	s = numberingRE.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
