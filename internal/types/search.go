package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// QueryType is the input method a search was issued with
type QueryType string

const (
	QueryTypeText    QueryType = "text"
	QueryTypeVoice   QueryType = "voice"
	QueryTypeBarcode QueryType = "barcode"
	QueryTypeVisual  QueryType = "visual"
)

// AllQueryTypes lists every query type in display order
var AllQueryTypes = []QueryType{QueryTypeText, QueryTypeVoice, QueryTypeBarcode, QueryTypeVisual}

// Valid reports whether t is one of AllQueryTypes
func (t QueryType) Valid() bool {
	for _, known := range AllQueryTypes {
		if t == known {
			return true
		}
	}
	return false
}

// SortBy selects the ordering applied to a filtered result set
type SortBy string

const (
	SortRelevance SortBy = "relevance"
	SortPriceLow  SortBy = "price-low"
	SortPriceHigh SortBy = "price-high"
	SortRating    SortBy = "rating"
	SortNewest    SortBy = "newest"
	SortPopular   SortBy = "popular"
)

// AllSortOrders lists every sort order
var AllSortOrders = []SortBy{SortRelevance, SortPriceLow, SortPriceHigh, SortRating, SortNewest, SortPopular}

// Valid reports whether s is one of AllSortOrders
func (s SortBy) Valid() bool {
	for _, known := range AllSortOrders {
		if s == known {
			return true
		}
	}
	return false
}

// SearchFilters is the structured filter state active for a search.
// Nil pointers and false booleans mean the filter is not applied.
type SearchFilters struct {
	Category *string          `json:"category,omitempty"`
	PriceMin *decimal.Decimal `json:"priceMin,omitempty"`
	PriceMax *decimal.Decimal `json:"priceMax,omitempty"`
	Rating   *float64         `json:"rating,omitempty"`
	InStock  bool             `json:"inStock,omitempty"`
	Discount bool             `json:"discount,omitempty"`
	Brands   []string         `json:"brands,omitempty"`
	SortBy   SortBy           `json:"sortBy,omitempty"`
}

// SearchQuery is one executed search as recorded in the history
type SearchQuery struct {
	ID           string         `json:"id"`
	Query        string         `json:"query"`
	Type         QueryType      `json:"type"`
	Filters      *SearchFilters `json:"filters,omitempty"`
	ResultsCount int            `json:"resultsCount"`
	Timestamp    time.Time      `json:"timestamp"`
}

// SearchHistory is the persisted, newest-first log of searches
type SearchHistory struct {
	Queries []SearchQuery `json:"queries"`
	MaxSize int           `json:"maxSize"`
}

// SuggestionType is the source a suggestion was drawn from
type SuggestionType string

const (
	SuggestionQuery    SuggestionType = "query"
	SuggestionProduct  SuggestionType = "product"
	SuggestionCategory SuggestionType = "category"
	SuggestionBrand    SuggestionType = "brand"
)

// SearchSuggestion is a ranked completion candidate for a partial query
type SearchSuggestion struct {
	Text  string         `json:"text"`
	Type  SuggestionType `json:"type"`
	Count *int           `json:"count,omitempty"`
	Score int            `json:"score"`
}

// Trend classifies the momentum of a query
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// TrendingSearch is a query with its occurrence count and momentum
type TrendingSearch struct {
	Query      string  `json:"query"`
	Count      int     `json:"count"`
	Trend      Trend   `json:"trend"`
	Percentage float64 `json:"percentage"`
}

// SearchAnalytics is the aggregate dashboard view over the history
type SearchAnalytics struct {
	TotalSearches    int               `json:"totalSearches"`
	UniqueQueries    int               `json:"uniqueQueries"`
	AverageResults   float64           `json:"averageResults"`
	MostSearched     []TrendingSearch  `json:"mostSearched"`
	RecentSearches   []string          `json:"recentSearches"`
	Categories       map[string]int    `json:"categories"`
	Types            map[QueryType]int `json:"types"`
	EmptySearches    int               `json:"emptySearches"`
	ClickThroughRate float64           `json:"clickThroughRate"`
}

// SearchResult is the outcome of running a query against a catalog
type SearchResult struct {
	Products    []Product          `json:"products"`
	Total       int                `json:"total"`
	Query       string             `json:"query"`
	Filters     *SearchFilters     `json:"filters,omitempty"`
	Suggestions []SearchSuggestion `json:"suggestions"`
	DidYouMean  *string            `json:"didYouMean,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
}

// HistoryExport is the document produced by export and accepted by import
type HistoryExport struct {
	History    SearchHistory   `json:"history"`
	Analytics  SearchAnalytics `json:"analytics"`
	ExportedAt time.Time       `json:"exportedAt"`
}
