// Package suggest produces ranked completions for a partially typed query.
package suggest

import (
	"strings"

	"github.com/lox/storefront-search/internal/types"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// DefaultLimit is used when a non-positive limit is requested
const DefaultLimit = 10

// Fixed per-source weights. They only order candidates; they say nothing about text similarity.
const (
	ScoreHistory  = 10
	ScoreProduct  = 8
	ScoreCategory = 6
	ScoreBrand    = 5
)

// Per-source caps
const (
	maxHistory    = 3
	maxProducts   = 3
	maxCategories = 2
	maxBrands     = 2
)

// Generate returns up to limit suggestions for query drawn from past searches,
// product names, categories and brands, highest score first. Ties keep source order.
func Generate(query string, catalog []types.Product, history []types.SearchQuery, limit int) []types.SearchSuggestion {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []types.SearchSuggestion{}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	var out []types.SearchSuggestion
	out = append(out, fromHistory(q, history)...)
	out = append(out, fromProducts(q, catalog)...)
	out = append(out, fromCategories(q, catalog)...)
	out = append(out, fromBrands(q, catalog)...)

	slices.SortStableFunc(out, func(a, b types.SearchSuggestion) int {
		return b.Score - a.Score
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func fromHistory(q string, history []types.SearchQuery) []types.SearchSuggestion {
	var out []types.SearchSuggestion
	// repeats older than the dedupe window are separate entries; suggest each text once
	seen := make(map[string]bool)
	for _, h := range history {
		if len(out) == maxHistory {
			break
		}
		lower := strings.ToLower(h.Query)
		if !strings.Contains(lower, q) || seen[lower] {
			continue
		}
		seen[lower] = true
		out = append(out, types.SearchSuggestion{
			Text:  h.Query,
			Type:  types.SuggestionQuery,
			Score: ScoreHistory,
		})
	}
	return out
}

func fromProducts(q string, catalog []types.Product) []types.SearchSuggestion {
	var out []types.SearchSuggestion
	for _, p := range catalog {
		if len(out) == maxProducts {
			break
		}
		if !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		out = append(out, types.SearchSuggestion{
			Text:  p.Name,
			Type:  types.SuggestionProduct,
			Score: ScoreProduct,
		})
	}
	return out
}

func fromCategories(q string, catalog []types.Product) []types.SearchSuggestion {
	categories := lo.Uniq(lo.FilterMap(catalog, func(p types.Product, _ int) (string, bool) {
		return p.Category, p.Category != "" && strings.Contains(strings.ToLower(p.Category), q)
	}))

	var out []types.SearchSuggestion
	for _, c := range lo.Subset(categories, 0, maxCategories) {
		count := lo.CountBy(catalog, func(p types.Product) bool { return p.Category == c })
		out = append(out, types.SearchSuggestion{
			Text:  c,
			Type:  types.SuggestionCategory,
			Count: &count,
			Score: ScoreCategory,
		})
	}
	return out
}

func fromBrands(q string, catalog []types.Product) []types.SearchSuggestion {
	brands := lo.Uniq(lo.FilterMap(catalog, func(p types.Product, _ int) (string, bool) {
		return p.Brand, p.Brand != "" && strings.Contains(strings.ToLower(p.Brand), q)
	}))

	var out []types.SearchSuggestion
	for _, b := range lo.Subset(brands, 0, maxBrands) {
		count := lo.CountBy(catalog, func(p types.Product) bool { return p.Brand == b })
		out = append(out, types.SearchSuggestion{
			Text:  b,
			Type:  types.SuggestionBrand,
			Count: &count,
			Score: ScoreBrand,
		})
	}
	return out
}
