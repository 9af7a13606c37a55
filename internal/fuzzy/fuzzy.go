// Package fuzzy offers "did you mean" corrections using edit distance
// against the words that appear in the catalog.
package fuzzy

import (
	"sort"
	"strings"

	"github.com/lox/storefront-search/internal/types"
)

// MaxDistance is the largest edit distance still offered as a correction
const MaxDistance = 2

// Distance returns the Levenshtein edit distance between a and b,
// counting insertions, deletions and substitutions of runes as 1 each.
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	m, n := len(ra), len(rb)

	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}

	for i := 0; i <= m; i++ {
		for j := 0; j <= n; j++ {
			switch {
			case i == 0:
				dp[i][j] = j
			case j == 0:
				dp[i][j] = i
			case ra[i-1] == rb[j-1]:
				dp[i][j] = dp[i-1][j-1]
			default:
				dp[i][j] = 1 + min(dp[i-1][j], dp[i][j-1], dp[i-1][j-1])
			}
		}
	}
	return dp[m][n]
}

// Vocabulary returns the distinct lowercased whitespace tokens of every
// product's name, description, category, brand and tags, sorted.
func Vocabulary(catalog []types.Product) []string {
	seen := make(map[string]struct{})
	for _, p := range catalog {
		fields := append([]string{p.Name, p.Description, p.Category, p.Brand}, p.Tags...)
		for _, field := range fields {
			for _, tok := range strings.Fields(strings.ToLower(field)) {
				seen[tok] = struct{}{}
			}
		}
	}

	vocab := make([]string, 0, len(seen))
	for tok := range seen {
		vocab = append(vocab, tok)
	}
	sort.Strings(vocab)
	return vocab
}

// DidYouMean returns the vocabulary word closest to query if it is within
// MaxDistance edits. Among equally close words the first in sorted order wins.
func DidYouMean(query string, catalog []types.Product) (string, bool) {
	return Closest(query, Vocabulary(catalog))
}

// Closest finds the nearest word in a sorted vocabulary
func Closest(query string, vocab []string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return "", false
	}

	best := ""
	bestDistance := MaxDistance + 1
	for _, word := range vocab {
		d := Distance(q, word)
		if d < bestDistance {
			best, bestDistance = word, d
		}
	}

	if bestDistance > MaxDistance {
		return "", false
	}
	return best, true
}
