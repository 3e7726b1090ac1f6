package toc

import (
	"fmt"
	"strings"

	"github.com/bull/pdf-reader-mcp/internal/document"
)

// DefaultThreshold is the minimum score a candidate must reach to count as a
// match. Chosen so that a single shared significant token ("results" against
// "Experimental Results") still matches, while unrelated titles do not.
const DefaultThreshold = 0.35

// Scoring tiers. An exact normalized match always wins; substring containment
// beats token overlap beats raw edit similarity.
const (
	containmentBase   = 0.7
	containmentScale  = 0.3
	tokenOverlapScale = 0.7
	editScale         = 0.5
)

const scoreEpsilon = 1e-9

// ResolverConfig tunes section matching. The zero value uses DefaultThreshold.
type ResolverConfig struct {
	Threshold float64
}

func (c ResolverConfig) threshold() float64 {
	if c.Threshold <= 0 {
		return DefaultThreshold
	}
	return c.Threshold
}

// Match is a resolved section query.
type Match struct {
	Entry Entry
	Index int
	Score float64
}

// Resolve finds the TOC entry best matching a free-text query. Every entry is
// scored; ties go to the shallower entry, then the earlier one. Scores below
// the threshold return ErrNoMatch rather than a bad guess.
func Resolve(entries []Entry, query string, cfg ResolverConfig) (Match, error) {
	normalized := Normalize(query)
	if normalized == "" || len(entries) == 0 {
		return Match{}, fmt.Errorf("%w: %q", document.ErrNoMatch, query)
	}

	best := Match{Index: -1, Score: -1}
	for i, entry := range entries {
		s := score(normalized, entry.MatchTitle)
		if s > best.Score+scoreEpsilon {
			best = Match{Entry: entry, Index: i, Score: s}
			continue
		}
		// Equal score: prefer the shallower entry. Earlier-wins falls out of
		// iteration order.
		if s > best.Score-scoreEpsilon && entry.Level < best.Entry.Level {
			best = Match{Entry: entry, Index: i, Score: s}
		}
	}

	if best.Index < 0 || best.Score < cfg.threshold() {
		return Match{}, fmt.Errorf("%w: %q", document.ErrNoMatch, query)
	}
	return best, nil
}

// score rates how well a normalized query matches a normalized title,
// in [0, 1]. The tiers are disjoint by construction: exact = 1.0,
// containment lands in [0.7, 1.0), token overlap in (0, 0.7], edit
// similarity in (0, 0.5).
func score(query, title string) float64 {
	if title == "" {
		return 0
	}
	if query == title {
		return 1.0
	}

	s := 0.0
	if strings.Contains(title, query) || strings.Contains(query, title) {
		shorter, longer := len(query), len(title)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		s = containmentBase + containmentScale*float64(shorter)/float64(longer)
	}
	if ts := tokenOverlap(query, title) * tokenOverlapScale; ts > s {
		s = ts
	}
	if es := editSimilarity(query, title) * editScale; es > s {
		s = es
	}
	return s
}

// tokenOverlap is the Jaccard index of the two token sets.
func tokenOverlap(a, b string) float64 {
	as := tokenSet(a)
	bs := tokenSet(b)
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}
	common := 0
	for t := range as {
		if bs[t] {
			common++
		}
	}
	union := len(as) + len(bs) - common
	return float64(common) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(s) {
		set[t] = true
	}
	return set
}

// editSimilarity is 1 - levenshtein/maxlen, over runes.
func editSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
