package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/lox/storefront-search/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(query string, qt types.QueryType, results int, category string) types.SearchQuery {
	q := types.SearchQuery{
		ID:           query,
		Query:        query,
		Type:         qt,
		ResultsCount: results,
		Timestamp:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	if category != "" {
		q.Filters = &types.SearchFilters{Category: &category}
	}
	return q
}

func TestComputeEmpty(t *testing.T) {
	got := Compute(types.SearchHistory{MaxSize: 50})

	assert.Equal(t, 0, got.TotalSearches)
	assert.Equal(t, 0, got.UniqueQueries)
	assert.Equal(t, 0.0, got.AverageResults)
	assert.Equal(t, 0.0, got.ClickThroughRate)
	assert.Empty(t, got.MostSearched)
	assert.Empty(t, got.RecentSearches)
	assert.Empty(t, got.Categories)
	assert.Equal(t, map[types.QueryType]int{
		types.QueryTypeText: 0, types.QueryTypeVoice: 0, types.QueryTypeBarcode: 0, types.QueryTypeVisual: 0,
	}, got.Types)
}

func TestCompute(t *testing.T) {
	history := types.SearchHistory{MaxSize: 50, Queries: []types.SearchQuery{
		entry("Shoes", types.QueryTypeText, 4, "shoes"),
		entry("hat", types.QueryTypeVoice, 0, ""),
		entry("shoes", types.QueryTypeText, 2, "shoes"),
		entry("scarf", types.QueryTypeBarcode, 0, "accessories"),
	}}

	got := Compute(history)

	assert.Equal(t, 4, got.TotalSearches)
	assert.Equal(t, 3, got.UniqueQueries)
	assert.InDelta(t, 1.5, got.AverageResults, 1e-9)
	assert.Equal(t, 2, got.EmptySearches)
	assert.Equal(t, PlaceholderClickThroughRate, got.ClickThroughRate)
	assert.Equal(t, []string{"Shoes", "hat", "shoes", "scarf"}, got.RecentSearches)
	assert.Equal(t, map[string]int{"shoes": 2, "accessories": 1}, got.Categories)
	assert.Equal(t, 2, got.Types[types.QueryTypeText])
	assert.Equal(t, 1, got.Types[types.QueryTypeVoice])
	assert.Equal(t, 1, got.Types[types.QueryTypeBarcode])
	assert.Equal(t, 0, got.Types[types.QueryTypeVisual])

	require.NotEmpty(t, got.MostSearched)
	assert.Equal(t, "shoes", got.MostSearched[0].Query)
	assert.Equal(t, 2, got.MostSearched[0].Count)
}

func TestComputeCapsLists(t *testing.T) {
	var queries []types.SearchQuery
	for i := 0; i < 15; i++ {
		queries = append(queries, entry(fmt.Sprintf("query %d", i), types.QueryTypeText, 1, ""))
	}

	got := Compute(types.SearchHistory{MaxSize: 50, Queries: queries})

	assert.Len(t, got.MostSearched, TopQueries)
	assert.Len(t, got.RecentSearches, RecentQueries)
	assert.Equal(t, "query 0", got.RecentSearches[0])
	assert.Equal(t, 15, got.UniqueQueries)
}
