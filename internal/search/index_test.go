package search

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchVerbatimHit(t *testing.T) {
	idx := NewIndex([]string{
		"nothing of interest here",
		"the gradient descent step converges quickly in practice",
	}, 0)

	hits, stats := idx.Search("gradient descent", 10)
	require.NotEmpty(t, hits)
	assert.Equal(t, 1, hits[0].Page)
	assert.Equal(t, scoreExactPhrase, hits[0].Score)
	assert.Contains(t, strings.ToLower(hits[0].Snippet), "gradient descent")
	assert.Equal(t, 1, stats.Pages)
}

func TestSearchCaseInsensitive(t *testing.T) {
	idx := NewIndex([]string{"The QUICK Brown Fox"}, 0)

	hits, _ := idx.Search("quick brown", 10)
	require.NotEmpty(t, hits)
	assert.Equal(t, 0, hits[0].Page)
	// Snippet preserves the original casing.
	assert.Contains(t, hits[0].Snippet, "QUICK Brown")
}

func TestSearchAbsentQueryIsEmptySuccess(t *testing.T) {
	idx := NewIndex([]string{"some text", "more text"}, 0)

	hits, stats := idx.Search("zebra", 10)
	assert.Empty(t, hits)
	assert.Equal(t, Stats{}, stats)
}

func TestSearchEmptyQuery(t *testing.T) {
	idx := NewIndex([]string{"some text"}, 0)

	hits, stats := idx.Search("   ", 10)
	assert.Empty(t, hits)
	assert.Equal(t, 0, stats.TotalHits)
}

func TestSearchRanking(t *testing.T) {
	idx := NewIndex([]string{
		"alpha appears alone on this page without its partner anywhere nearby at all",
		"alpha beta appear together verbatim right here",
	}, 0)

	hits, _ := idx.Search("alpha beta", 0)
	require.NotEmpty(t, hits)

	// The verbatim phrase on page 1 outranks the lone term on page 0.
	assert.Equal(t, 1, hits[0].Page)
	assert.Equal(t, scoreExactPhrase, hits[0].Score)
	for _, h := range hits[1:] {
		assert.LessOrEqual(t, h.Score, hits[0].Score)
	}
}

func TestSearchTieOrderByPageThenOffset(t *testing.T) {
	idx := NewIndex([]string{
		"needle early, then another needle later on the same page",
		"a needle on the second page too",
	}, 0)

	hits, stats := idx.Search("needle", 0)
	require.Len(t, hits, 3)
	assert.Equal(t, 3, stats.TotalHits)
	assert.Equal(t, 2, stats.Pages)

	assert.Equal(t, 0, hits[0].Page)
	assert.Equal(t, 0, hits[1].Page)
	assert.Less(t, hits[0].Offset, hits[1].Offset)
	assert.Equal(t, 1, hits[2].Page)
}

func TestSearchMaxHitsCapKeepsStats(t *testing.T) {
	pages := make([]string, 5)
	for i := range pages {
		pages[i] = "token here and token there and token again"
	}
	idx := NewIndex(pages, 0)

	hits, stats := idx.Search("token", 4)
	assert.Len(t, hits, 4)
	assert.Equal(t, 15, stats.TotalHits)
	assert.Equal(t, 5, stats.Pages)
}

func TestSnippetClippedAtPageBounds(t *testing.T) {
	text := "match at the very start of the page"
	idx := NewIndex([]string{text}, 100)

	hits, _ := idx.Search("match", 1)
	require.Len(t, hits, 1)
	// The whole page is shorter than the radius, so nothing is elided.
	assert.Equal(t, text, hits[0].Snippet)
	assert.NotContains(t, hits[0].Snippet, "...")
}

func TestSnippetEllipsesAndFlattening(t *testing.T) {
	long := strings.Repeat("filler words before the target ", 20) +
		"needle\nwith a line\nbreak after" +
		strings.Repeat(" trailing filler to push past the radius", 20)
	idx := NewIndex([]string{long}, 30)

	hits, _ := idx.Search("needle", 1)
	require.Len(t, hits, 1)
	assert.True(t, strings.HasPrefix(hits[0].Snippet, "..."))
	assert.True(t, strings.HasSuffix(hits[0].Snippet, "..."))
	assert.NotContains(t, hits[0].Snippet, "\n")
	assert.Contains(t, hits[0].Snippet, "needle")
}

func TestSearchMultiByteText(t *testing.T) {
	// Lowercasing shifts byte lengths both ways here: İ (2 bytes) lowers to
	// i (1 byte), Ⱥ (2 bytes) lowers to ⱥ (3 bytes). Offsets and snippets
	// must still index the original page text.
	pages := []string{
		strings.Repeat("İ", 300) + " target word",
		strings.Repeat("Ⱥ", 300) + " target word",
		"Ce café est très agréable, naturellement",
	}
	idx := NewIndex(pages, 0)

	hits, stats := idx.Search("target", 0)
	require.Len(t, hits, 2)
	assert.Equal(t, 2, stats.Pages)
	for _, h := range hits {
		assert.Contains(t, h.Snippet, "target")
		assert.True(t, utf8.ValidString(h.Snippet), "page %d snippet", h.Page)
		assert.True(t, strings.HasPrefix(pages[h.Page][h.Offset:], "target"),
			"offset %d does not point at the match on page %d", h.Offset, h.Page)
	}

	hits, _ = idx.Search("CAFÉ", 0)
	require.Len(t, hits, 1)
	assert.Equal(t, 2, hits[0].Page)
	assert.Contains(t, hits[0].Snippet, "café")
	assert.True(t, strings.HasPrefix(pages[2][hits[0].Offset:], "café"))
}

func TestSearchPartialTermCoverage(t *testing.T) {
	idx := NewIndex([]string{
		"alpha and beta sit close together but not adjacent",
	}, 0)

	hits, _ := idx.Search("alpha beta", 0)
	require.NotEmpty(t, hits)
	// No verbatim phrase, but both terms fall inside the snippet window.
	assert.Equal(t, scoreAllTerms, hits[0].Score)
	assert.Equal(t, 2, hits[0].Terms)
}
