package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// NormalizeTitle reduces a title to a caseless, punctuation-free form for
// comparison. Articles and release-year suffixes are preserved; only case
// and non-alphanumeric runs are collapsed.
func NormalizeTitle(title string) string {
	folded := foldCaser.String(strings.TrimSpace(title))
	var b strings.Builder
	prevSpace := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
			prevSpace = false
		default:
			if !prevSpace && b.Len() > 0 {
				b.WriteByte(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// LevenshteinDistance computes the edit distance between two strings using
// single-character insertions, deletions, and substitutions.
func LevenshteinDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// SimilarityRatio converts edit distance into a similarity score in [0, 1],
// where 1 means identical and 0 means no character overlap at all.
// Both inputs being empty counts as identical.
func SimilarityRatio(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	distance := LevenshteinDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}

// TitleSimilarity compares two titles after normalization.
func TitleSimilarity(a, b string) float64 {
	return SimilarityRatio(NormalizeTitle(a), NormalizeTitle(b))
}
