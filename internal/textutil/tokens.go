package textutil

import (
	"regexp"
	"strings"
)

// tokenSplitPattern matches non-alphanumeric character sequences for tokenization.
var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// minTokenLength is the shortest token kept by Tokenize. Tokens at or below
// stop-word size carry no signal for plot comparison.
const minTokenLength = 4

// Tokenize splits text into lowercase tokens, filtering short tokens.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	raw := tokenSplitPattern.Split(lowered, -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		token = strings.TrimSpace(token)
		if len(token) < minTokenLength {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// TokenSet converts text into a set of unique tokens.
func TokenSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

// SetFromTerms builds a token set from pre-split terms such as keyword lists.
// Each term is lowercased and trimmed; empty terms are dropped. Unlike
// Tokenize, no length filter applies because keywords are curated.
func SetFromTerms(terms []string) map[string]struct{} {
	if len(terms) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		set[term] = struct{}{}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

// OverlapRatio computes the fraction of shared tokens between two sets,
// dividing the intersection size by the smaller set size (floored at one).
// Either set being empty yields 0.
func OverlapRatio(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	shared := 0
	for token := range small {
		if _, ok := large[token]; ok {
			shared++
		}
	}
	denom := min(len(a), len(b))
	if denom < 1 {
		denom = 1
	}
	return float64(shared) / float64(denom)
}
