package suggest

import (
	"testing"

	"github.com/lox/storefront-search/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() []types.Product {
	return []types.Product{
		{ID: "1", Name: "Red Shoe", Category: "shoes", Brand: "Shoeco", Price: decimal.NewFromInt(100)},
		{ID: "2", Name: "Blue Shoe", Category: "shoes", Brand: "Shoeco", Price: decimal.NewFromInt(50)},
		{ID: "3", Name: "Shoe Polish", Category: "shoe care", Brand: "", Price: decimal.NewFromInt(5)},
		{ID: "4", Name: "Shoelace", Category: "shoe care", Brand: "Laceworks", Price: decimal.NewFromInt(2)},
		{ID: "5", Name: "Hat", Category: "hats", Brand: "Shoeless Joe", Price: decimal.NewFromInt(20)},
	}
}

func testHistory() []types.SearchQuery {
	return []types.SearchQuery{
		{Query: "shoe"},
		{Query: "Shoe"},
		{Query: "red shoes"},
		{Query: "hat"},
		{Query: "shoe polish"},
		{Query: "old shoe"},
	}
}

func TestGenerateBlankQuery(t *testing.T) {
	for _, q := range []string{"", "   "} {
		got := Generate(q, testCatalog(), testHistory(), 5)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestGenerateGroupsAndOrder(t *testing.T) {
	got := Generate("shoe", testCatalog(), testHistory(), 20)

	var texts []string
	var kinds []types.SuggestionType
	for _, s := range got {
		texts = append(texts, s.Text)
		kinds = append(kinds, s.Type)
	}

	assert.Equal(t, []string{
		"shoe", "red shoes", "shoe polish",
		"Red Shoe", "Blue Shoe", "Shoe Polish",
		"shoes", "shoe care",
		"Shoeco", "Shoeless Joe",
	}, texts)
	assert.Equal(t, []types.SuggestionType{
		types.SuggestionQuery, types.SuggestionQuery, types.SuggestionQuery,
		types.SuggestionProduct, types.SuggestionProduct, types.SuggestionProduct,
		types.SuggestionCategory, types.SuggestionCategory,
		types.SuggestionBrand, types.SuggestionBrand,
	}, kinds)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestGenerateCounts(t *testing.T) {
	got := Generate("shoe", testCatalog(), nil, 20)

	counts := make(map[string]int)
	for _, s := range got {
		if s.Count != nil {
			counts[s.Text] = *s.Count
		}
	}
	assert.Equal(t, 2, counts["shoes"])
	assert.Equal(t, 2, counts["shoe care"])
	assert.Equal(t, 2, counts["Shoeco"])
	assert.Equal(t, 1, counts["Shoeless Joe"])
}

func TestGenerateLimit(t *testing.T) {
	got := Generate("shoe", testCatalog(), testHistory(), 4)
	require.Len(t, got, 4)
	assert.Equal(t, types.SuggestionProduct, got[3].Type)

	got = Generate("shoe", testCatalog(), testHistory(), 0)
	assert.Len(t, got, DefaultLimit)
}

func TestGenerateNoMatches(t *testing.T) {
	got := Generate("zzz", testCatalog(), testHistory(), 10)
	assert.Empty(t, got)
}
