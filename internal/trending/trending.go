// Package trending derives popularity and momentum views from the search history.
package trending

import (
	"strings"
	"time"

	"github.com/lox/storefront-search/internal/types"
	"golang.org/x/exp/slices"
)

const (
	// Window is the length of each comparison period
	Window = 24 * time.Hour
	// StableBand is the percentage change within which a query counts as stable
	StableBand = 10.0
)

type queryCount struct {
	query string
	count int
}

// countQueries counts normalized queries, keeping first-seen order for ties
func countQueries(queries []types.SearchQuery, keep func(types.SearchQuery) bool) []queryCount {
	index := make(map[string]int)
	var counts []queryCount
	for _, q := range queries {
		if keep != nil && !keep(q) {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(q.Query))
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			counts[i].count++
			continue
		}
		index[key] = len(counts)
		counts = append(counts, queryCount{query: key, count: 1})
	}
	slices.SortStableFunc(counts, func(a, b queryCount) int {
		return b.count - a.count
	})
	return counts
}

// Popular returns the all-time most frequent queries. It does not compute deltas.
func Popular(history types.SearchHistory, limit int) []types.TrendingSearch {
	limit = max(limit, 0)
	counts := countQueries(history.Queries, nil)
	out := make([]types.TrendingSearch, 0, min(limit, len(counts)))
	for _, c := range counts {
		if len(out) >= limit {
			break
		}
		out = append(out, types.TrendingSearch{
			Query:      c.query,
			Count:      c.count,
			Trend:      types.TrendStable,
			Percentage: 0,
		})
	}
	return out
}

// Trending compares the last 24 hours against the 24 hours before and
// classifies each recent query as up, down or stable.
func Trending(history types.SearchHistory, now time.Time, limit int) []types.TrendingSearch {
	limit = max(limit, 0)
	dayAgo := now.Add(-Window)
	twoDaysAgo := now.Add(-2 * Window)

	recent := countQueries(history.Queries, func(q types.SearchQuery) bool {
		return q.Timestamp.After(dayAgo)
	})
	previous := make(map[string]int)
	for _, c := range countQueries(history.Queries, func(q types.SearchQuery) bool {
		return q.Timestamp.After(twoDaysAgo) && !q.Timestamp.After(dayAgo)
	}) {
		previous[c.query] = c.count
	}

	out := make([]types.TrendingSearch, 0, min(limit, len(recent)))
	for _, c := range recent {
		if len(out) >= limit {
			break
		}
		out = append(out, classify(c.query, c.count, previous[c.query]))
	}
	return out
}

func classify(query string, count24, count48 int) types.TrendingSearch {
	if count48 == 0 {
		return types.TrendingSearch{Query: query, Count: count24, Trend: types.TrendUp, Percentage: 100}
	}

	pct := float64(count24-count48) / float64(count48) * 100
	trend := types.TrendStable
	switch {
	case pct > StableBand:
		trend = types.TrendUp
	case pct < -StableBand:
		trend = types.TrendDown
	}
	return types.TrendingSearch{Query: query, Count: count24, Trend: trend, Percentage: pct}
}
