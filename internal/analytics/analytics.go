// Package analytics rolls the search history up into dashboard figures.
package analytics

import (
	"strings"

	"github.com/lox/storefront-search/internal/trending"
	"github.com/lox/storefront-search/internal/types"
	"github.com/samber/lo"
)

const (
	// TopQueries is the length of the most searched list
	TopQueries = 10
	// RecentQueries is the length of the recent searches list
	RecentQueries = 10
	// PlaceholderClickThroughRate is reported for any non-empty history.
	// Clicks are not tracked, so this is not a measured value.
	PlaceholderClickThroughRate = 80.0
)

// Compute aggregates the full history. It only reads its input.
func Compute(history types.SearchHistory) types.SearchAnalytics {
	queries := history.Queries

	result := types.SearchAnalytics{
		TotalSearches:  len(queries),
		MostSearched:   trending.Popular(history, TopQueries),
		RecentSearches: make([]string, 0, min(RecentQueries, len(queries))),
		Categories:     make(map[string]int),
		Types:          make(map[types.QueryType]int, len(types.AllQueryTypes)),
	}
	for _, t := range types.AllQueryTypes {
		result.Types[t] = 0
	}

	result.UniqueQueries = len(lo.Uniq(lo.Map(queries, func(q types.SearchQuery, _ int) string {
		return strings.ToLower(strings.TrimSpace(q.Query))
	})))

	total := 0
	for i, q := range queries {
		total += q.ResultsCount
		if q.ResultsCount == 0 {
			result.EmptySearches++
		}
		if i < RecentQueries {
			result.RecentSearches = append(result.RecentSearches, q.Query)
		}
		if q.Filters != nil && q.Filters.Category != nil && *q.Filters.Category != "" {
			result.Categories[*q.Filters.Category]++
		}
		if q.Type != "" {
			result.Types[q.Type]++
		}
	}

	if len(queries) > 0 {
		result.AverageResults = float64(total) / float64(len(queries))
		result.ClickThroughRate = PlaceholderClickThroughRate
	}
	return result
}
