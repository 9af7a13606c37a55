package trending

import (
	"testing"
	"time"

	"github.com/lox/storefront-search/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 3, 12, 0, 0, 0, time.UTC)

func at(query string, ago time.Duration) types.SearchQuery {
	return types.SearchQuery{Query: query, Timestamp: now.Add(-ago)}
}

func TestEmptyHistory(t *testing.T) {
	var h types.SearchHistory
	assert.Empty(t, Popular(h, 5))
	assert.Empty(t, Trending(h, now, 5))
}

func TestPopular(t *testing.T) {
	h := types.SearchHistory{Queries: []types.SearchQuery{
		at("Shoe", time.Hour),
		at("hat", 2*time.Hour),
		at("shoe", 72*time.Hour),
		at("bag", 3*time.Hour),
		at("HAT", 4*time.Hour),
		at("shoe", 5*time.Hour),
	}}

	got := Popular(h, 2)
	require.Len(t, got, 2)
	assert.Equal(t, types.TrendingSearch{Query: "shoe", Count: 3, Trend: types.TrendStable}, got[0])
	assert.Equal(t, types.TrendingSearch{Query: "hat", Count: 2, Trend: types.TrendStable}, got[1])

	assert.Len(t, Popular(h, 10), 3)
}

func TestTrending(t *testing.T) {
	h := types.SearchHistory{Queries: []types.SearchQuery{
		// new in the last 24h
		at("sandals", 1*time.Hour),
		at("sandals", 2*time.Hour),
		at("sandals", 3*time.Hour),
		// 2 now vs 1 before: +100%
		at("shoe", 1*time.Hour),
		at("shoe", 5*time.Hour),
		at("shoe", 30*time.Hour),
		// 1 now vs 2 before: -50%
		at("hat", 6*time.Hour),
		at("hat", 26*time.Hour),
		at("hat", 40*time.Hour),
		// older than 48h only counts nowhere
		at("scarf", 50*time.Hour),
	}}

	got := Trending(h, now, 10)
	require.Len(t, got, 3)

	assert.Equal(t, "sandals", got[0].Query)
	assert.Equal(t, 3, got[0].Count)
	assert.Equal(t, types.TrendUp, got[0].Trend)
	assert.Equal(t, 100.0, got[0].Percentage)

	assert.Equal(t, "shoe", got[1].Query)
	assert.Equal(t, types.TrendUp, got[1].Trend)
	assert.InDelta(t, 100.0, got[1].Percentage, 0.0001)

	assert.Equal(t, "hat", got[2].Query)
	assert.Equal(t, types.TrendDown, got[2].Trend)
	assert.InDelta(t, -50.0, got[2].Percentage, 0.0001)

	assert.Len(t, Trending(h, now, 1), 1)
}

func TestTrendingStableBand(t *testing.T) {
	var queries []types.SearchQuery
	for i := 0; i < 10; i++ {
		queries = append(queries, at("shoe", 30*time.Hour))
	}
	for i := 0; i < 11; i++ {
		queries = append(queries, at("shoe", time.Hour))
	}

	got := Trending(types.SearchHistory{Queries: queries}, now, 5)
	require.Len(t, got, 1)
	assert.Equal(t, types.TrendStable, got[0].Trend)
	assert.InDelta(t, 10.0, got[0].Percentage, 0.0001)
}
