// Package filter narrows and orders a product list by text and structured filters.
package filter

import (
	"strings"

	"github.com/lox/storefront-search/internal/types"
	"golang.org/x/exp/slices"
)

// MatchesText reports whether the product's searchable text contains query.
// A blank query matches everything.
func MatchesText(p types.Product, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(p.SearchBody(), q)
}

// Text keeps the products matching query, preserving order
func Text(products []types.Product, query string) []types.Product {
	out := make([]types.Product, 0, len(products))
	for _, p := range products {
		if MatchesText(p, query) {
			out = append(out, p)
		}
	}
	return out
}

// Matches reports whether p passes every structured filter that is set.
// Filter values are not validated: nonsensical bounds simply match nothing.
func Matches(p types.Product, f *types.SearchFilters) bool {
	if f == nil {
		return true
	}
	if f.Category != nil && p.Category != *f.Category {
		return false
	}
	if f.PriceMin != nil && p.Price.LessThan(*f.PriceMin) {
		return false
	}
	if f.PriceMax != nil && p.Price.GreaterThan(*f.PriceMax) {
		return false
	}
	if f.Rating != nil && p.RatingOrZero() < *f.Rating {
		return false
	}
	if f.InStock && p.Stock <= 0 {
		return false
	}
	if f.Discount && !p.HasDiscount() {
		return false
	}
	if len(f.Brands) > 0 && p.Brand != "" && !slices.Contains(f.Brands, p.Brand) {
		return false
	}
	return true
}

// Apply keeps the products passing the structured filters, preserving order
func Apply(products []types.Product, f *types.SearchFilters) []types.Product {
	out := make([]types.Product, 0, len(products))
	for _, p := range products {
		if Matches(p, f) {
			out = append(out, p)
		}
	}
	return out
}

// Sort orders products in place. Relevance and unknown orders keep the current order.
func Sort(products []types.Product, by types.SortBy) {
	var cmp func(a, b types.Product) int
	switch by {
	case types.SortPriceLow:
		cmp = func(a, b types.Product) int { return a.Price.Cmp(b.Price) }
	case types.SortPriceHigh:
		cmp = func(a, b types.Product) int { return b.Price.Cmp(a.Price) }
	case types.SortRating:
		cmp = func(a, b types.Product) int { return compareFloat(b.RatingOrZero(), a.RatingOrZero()) }
	case types.SortNewest:
		cmp = func(a, b types.Product) int { return b.CreatedOrEpoch().Compare(a.CreatedOrEpoch()) }
	case types.SortPopular:
		cmp = func(a, b types.Product) int { return b.SalesOrZero() - a.SalesOrZero() }
	default:
		return
	}
	slices.SortStableFunc(products, cmp)
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
