package mcp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lox/storefront-search/internal/types"
)

func writeProduct(sb *strings.Builder, p types.Product) {
	fmt.Fprintf(sb, "%s - %s\n", p.Name, p.Price.StringFixed(2))
	fmt.Fprintf(sb, "  ID: %s\n", p.ID)
	if p.Category != "" {
		fmt.Fprintf(sb, "  Category: %s\n", p.Category)
	}
	if p.Brand != "" {
		fmt.Fprintf(sb, "  Brand: %s\n", p.Brand)
	}
	if p.Rating != nil {
		fmt.Fprintf(sb, "  Rating: %.1f\n", *p.Rating)
	}
	fmt.Fprintf(sb, "  Stock: %d\n", p.Stock)
	if p.HasDiscount() {
		fmt.Fprintf(sb, "  Discount: %.0f%%\n", *p.Discount)
	}
	if p.Description != "" {
		fmt.Fprintf(sb, "  Description: %s\n", p.Description)
	}
	sb.WriteString("\n")
}

func writeSuggestions(sb *strings.Builder, suggestions []types.SearchSuggestion) {
	for _, s := range suggestions {
		if s.Count != nil {
			fmt.Fprintf(sb, "  %-30s %-9s (%d)\n", s.Text, s.Type, *s.Count)
			continue
		}
		fmt.Fprintf(sb, "  %-30s %s\n", s.Text, s.Type)
	}
}

func formatTrending(title string, searches []types.TrendingSearch) string {
	if len(searches) == 0 {
		return title + "\n\nNo searches yet\n"
	}

	var sb strings.Builder
	sb.WriteString(title + "\n\n")
	for _, t := range searches {
		fmt.Fprintf(&sb, "%-30s %4d  %-6s %+.0f%%\n", t.Query, t.Count, t.Trend, t.Percentage)
	}
	return sb.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
