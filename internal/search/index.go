// Package search implements case-insensitive text search over the extracted
// pages of one document, with context snippets around each hit.
package search

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultSnippetRadius is how many bytes of context surround a hit on either
// side. Snippets never cross page boundaries.
const DefaultSnippetRadius = 100

// Relevance tiers: a verbatim phrase hit outranks a window containing every
// query term, which outranks a lone term. Partial coverage adds a fraction so
// windows matching more terms sort first within the lowest tier.
const (
	scoreExactPhrase = 3.0
	scoreAllTerms    = 2.0
	scoreAnyTerm     = 1.0
)

// Hit is one search result. Page is 0-indexed; Offset is the byte offset of
// the match within that page's extracted text as stored, not within the
// case-lowered copy the matching runs on.
type Hit struct {
	Page    int
	Offset  int
	Snippet string
	Score   float64
	Terms   int // distinct query terms present in the snippet window
}

// Stats summarizes a search across the whole document, before any hit cap.
type Stats struct {
	TotalHits int
	Pages     int // distinct pages with at least one hit
}

type pageEntry struct {
	text  string
	lower string
	// orig[i] is the byte offset in text of the rune that produced lower[i].
	// Lowercasing can change a rune's byte length, so matches found in lower
	// must be translated through this table before touching text. One extra
	// entry maps len(lower) to len(text).
	orig []int
}

func newPageEntry(text string) pageEntry {
	var b strings.Builder
	b.Grow(len(text))
	orig := make([]int, 0, len(text)+1)
	for i, r := range text {
		lr := unicode.ToLower(r)
		for j := 0; j < utf8.RuneLen(lr); j++ {
			orig = append(orig, i)
		}
		b.WriteRune(lr)
	}
	orig = append(orig, len(text))
	return pageEntry{text: text, lower: b.String(), orig: orig}
}

// Index holds the searchable form of a document's pages. Building it forces
// text extraction for every page once; the index itself is immutable and safe
// for concurrent use.
type Index struct {
	radius int
	pages  []pageEntry
}

// NewIndex builds an index over the given page texts, in page order.
func NewIndex(pageTexts []string, snippetRadius int) *Index {
	if snippetRadius <= 0 {
		snippetRadius = DefaultSnippetRadius
	}
	idx := &Index{radius: snippetRadius, pages: make([]pageEntry, 0, len(pageTexts))}
	for _, t := range pageTexts {
		idx.pages = append(idx.pages, newPageEntry(t))
	}
	return idx
}

// Search returns up to maxHits hits ranked by score, then page, then offset.
// An empty or whitespace query, and a query with no occurrences, both return
// zero hits without error. maxHits <= 0 means no cap. Stats always reflect
// the uncapped result.
func (idx *Index) Search(query string, maxHits int) ([]Hit, Stats) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, Stats{}
	}
	terms := strings.Fields(q)
	phrase := strings.Join(terms, " ")

	var hits []Hit
	pagesWithHits := 0
	for pageNum, pg := range idx.pages {
		pageHits := idx.searchPage(pageNum, pg, phrase, terms)
		if len(pageHits) > 0 {
			pagesWithHits++
		}
		hits = append(hits, pageHits...)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Page != hits[j].Page {
			return hits[i].Page < hits[j].Page
		}
		return hits[i].Offset < hits[j].Offset
	})

	stats := Stats{TotalHits: len(hits), Pages: pagesWithHits}
	if maxHits > 0 && len(hits) > maxHits {
		hits = hits[:maxHits]
	}
	return hits, stats
}

func (idx *Index) searchPage(pageNum int, pg pageEntry, phrase string, terms []string) []Hit {
	var hits []Hit
	var phraseSpans [][2]int

	for _, off := range allOccurrences(pg.lower, phrase) {
		phraseSpans = append(phraseSpans, [2]int{off, off + len(phrase)})
		hits = append(hits, Hit{
			Page:    pageNum,
			Offset:  pg.orig[off],
			Snippet: idx.snippet(pg, off, len(phrase)),
			Score:   scoreExactPhrase,
			Terms:   len(terms),
		})
	}
	if len(terms) <= 1 {
		// Single-term query: the phrase pass already found every occurrence.
		return hits
	}

	for _, term := range terms {
		for _, off := range allOccurrences(pg.lower, term) {
			// Term occurrences inside a phrase match are already reported.
			if withinSpans(phraseSpans, off) {
				continue
			}
			start, end := idx.window(len(pg.lower), off, len(term))
			matched := termsInWindow(pg.lower[start:end], terms)
			score := scoreAnyTerm + float64(matched-1)/float64(len(terms))
			if matched == len(terms) {
				score = scoreAllTerms
			}
			hits = append(hits, Hit{
				Page:    pageNum,
				Offset:  pg.orig[off],
				Snippet: idx.snippet(pg, off, len(term)),
				Score:   score,
				Terms:   matched,
			})
		}
	}
	return hits
}

func withinSpans(spans [][2]int, off int) bool {
	for _, s := range spans {
		if off >= s[0] && off < s[1] {
			return true
		}
	}
	return false
}

func allOccurrences(haystack, needle string) []int {
	if needle == "" {
		return nil
	}
	var offsets []int
	from := 0
	for {
		i := strings.Index(haystack[from:], needle)
		if i < 0 {
			return offsets
		}
		offsets = append(offsets, from+i)
		from += i + len(needle)
	}
}

func termsInWindow(window string, terms []string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(window, t) {
			n++
		}
	}
	return n
}

func (idx *Index) window(textLen, off, matchLen int) (int, int) {
	start := off - idx.radius
	if start < 0 {
		start = 0
	}
	end := off + matchLen + idx.radius
	if end > textLen {
		end = textLen
	}
	return start, end
}

// snippet cuts the context window around a match, flattens internal
// whitespace, and marks elided page text with ellipses. The match position is
// in the lowered text; it is translated to the original before slicing, and
// the window edges are snapped to rune boundaries.
func (idx *Index) snippet(pg pageEntry, off, matchLen int) string {
	start := pg.orig[off] - idx.radius
	if start < 0 {
		start = 0
	}
	end := pg.orig[off+matchLen] + idx.radius
	if end > len(pg.text) {
		end = len(pg.text)
	}
	for start < len(pg.text) && !utf8.RuneStart(pg.text[start]) {
		start++
	}
	for end < len(pg.text) && !utf8.RuneStart(pg.text[end]) {
		end++
	}

	s := strings.Join(strings.Fields(pg.text[start:end]), " ")
	if start > 0 {
		s = "..." + s
	}
	if end < len(pg.text) {
		s += "..."
	}
	return s
}
