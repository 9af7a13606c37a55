// Package search ties the history store, suggestions, fuzzy matching and
// the filter engine together into the storefront search flow.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/storefront-search/internal/analytics"
	"github.com/lox/storefront-search/internal/filter"
	"github.com/lox/storefront-search/internal/fuzzy"
	"github.com/lox/storefront-search/internal/history"
	"github.com/lox/storefront-search/internal/metrics"
	"github.com/lox/storefront-search/internal/suggest"
	"github.com/lox/storefront-search/internal/trending"
	"github.com/lox/storefront-search/internal/types"
)

// engineOptions defines the tunables of an Engine
type engineOptions struct {
	suggestionLimit int
	now             func() time.Time
	metrics         *metrics.SearchMetrics
}

// EngineOption is a function that modifies engineOptions
type EngineOption func(*engineOptions)

// WithSuggestionLimit sets how many suggestions a search result carries
func WithSuggestionLimit(limit int) EngineOption {
	return func(opts *engineOptions) {
		opts.suggestionLimit = limit
	}
}

// WithClock overrides the time source used for timestamps and trend windows
func WithClock(now func() time.Time) EngineOption {
	return func(opts *engineOptions) {
		opts.now = now
	}
}

// WithMetrics records engine activity to prometheus
func WithMetrics(m *metrics.SearchMetrics) EngineOption {
	return func(opts *engineOptions) {
		opts.metrics = m
	}
}

// Engine runs searches against a caller-supplied catalog and keeps the
// search history in the given store.
type Engine struct {
	store  *history.Store
	logger *log.Logger
	opts   engineOptions
}

// NewEngine creates an engine around an explicit history store
func NewEngine(store *history.Store, logger *log.Logger, opts ...EngineOption) *Engine {
	options := engineOptions{
		suggestionLimit: suggest.DefaultLimit,
		now:             store.Now,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Engine{store: store, logger: logger, opts: options}
}

// Store returns the history store the engine records into
func (e *Engine) Store() *history.Store {
	return e.store
}

// Search filters and sorts the catalog for query without recording it.
// The catalog is never modified.
func (e *Engine) Search(ctx context.Context, query string, catalog []types.Product, filters *types.SearchFilters) types.SearchResult {
	return e.search(ctx, query, types.QueryTypeText, catalog, filters)
}

// Execute is the submit flow: the search runs first and a non-blank query
// is then recorded to history with its result count. A failed history
// write is logged and does not affect the result.
func (e *Engine) Execute(ctx context.Context, query string, queryType types.QueryType, catalog []types.Product, filters *types.SearchFilters) types.SearchResult {
	result := e.search(ctx, query, queryType, catalog, filters)
	if strings.TrimSpace(query) == "" {
		return result
	}
	if err := e.store.Add(ctx, query, queryType, result.Total, filters); err != nil {
		e.logger.Warn("Failed to record search", "query", query, "error", err)
	}
	return result
}

func (e *Engine) search(ctx context.Context, query string, queryType types.QueryType, catalog []types.Product, filters *types.SearchFilters) types.SearchResult {
	startTime := time.Now()

	products := filter.Apply(filter.Text(catalog, query), filters)
	if filters != nil {
		filter.Sort(products, filters.SortBy)
	}

	result := types.SearchResult{
		Products:    products,
		Total:       len(products),
		Query:       query,
		Filters:     filters,
		Suggestions: e.Suggest(ctx, query, catalog, e.opts.suggestionLimit),
		Timestamp:   e.opts.now(),
	}

	if len(products) == 0 {
		if word, ok := fuzzy.DidYouMean(query, catalog); ok {
			result.DidYouMean = &word
			e.opts.metrics.RecordDidYouMean()
		}
	}

	e.opts.metrics.RecordSearch(queryType, result.Total, time.Since(startTime))
	e.logger.Debug("Search completed",
		"query", query,
		"type", queryType,
		"results", result.Total,
		"suggestions", len(result.Suggestions),
		"did_you_mean", result.DidYouMean != nil,
		"duration", time.Since(startTime))

	return result
}

// Suggest returns typeahead suggestions for a partial query
func (e *Engine) Suggest(ctx context.Context, query string, catalog []types.Product, limit int) []types.SearchSuggestion {
	if strings.TrimSpace(query) == "" {
		return []types.SearchSuggestion{}
	}
	suggestions := suggest.Generate(query, catalog, e.store.Load(ctx).Queries, limit)
	e.opts.metrics.RecordSuggestions(len(suggestions))
	return suggestions
}

// Popular returns the all-time most frequent queries
func (e *Engine) Popular(ctx context.Context, limit int) []types.TrendingSearch {
	return trending.Popular(e.store.Load(ctx), limit)
}

// Trending compares the last 24 hours of searches with the 24 hours before
func (e *Engine) Trending(ctx context.Context, limit int) []types.TrendingSearch {
	return trending.Trending(e.store.Load(ctx), e.opts.now(), limit)
}

// Analytics rolls up the full history
func (e *Engine) Analytics(ctx context.Context) types.SearchAnalytics {
	return analytics.Compute(e.store.Load(ctx))
}

// Export serializes the history with its analytics as an indented JSON document
func (e *Engine) Export(ctx context.Context) ([]byte, error) {
	h := e.store.Load(ctx)
	doc := types.HistoryExport{
		History:    h,
		Analytics:  analytics.Compute(h),
		ExportedAt: e.opts.now(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode history export: %w", err)
	}
	return data, nil
}

// Import replaces the history with the one in an exported document. It
// reports false, leaving the history untouched, when the document is not
// JSON, has no history.queries array, or cannot be saved.
func (e *Engine) Import(ctx context.Context, data []byte) bool {
	var doc struct {
		History map[string]json.RawMessage `json:"history"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		e.logger.Warn("Rejected history import", "error", err)
		return false
	}
	var queries []json.RawMessage
	if raw, ok := doc.History["queries"]; !ok || json.Unmarshal(raw, &queries) != nil || queries == nil {
		e.logger.Warn("Rejected history import", "error", "history.queries must be an array")
		return false
	}

	var imported struct {
		History types.SearchHistory `json:"history"`
	}
	if err := json.Unmarshal(data, &imported); err != nil {
		e.logger.Warn("Rejected history import", "error", err)
		return false
	}

	h := imported.History
	if h.MaxSize <= 0 {
		h.MaxSize = e.store.Load(ctx).MaxSize
	}
	if len(h.Queries) > h.MaxSize {
		h.Queries = h.Queries[:h.MaxSize]
	}

	if err := e.store.Save(ctx, h); err != nil {
		e.logger.Warn("Failed to save imported history", "error", err)
		return false
	}
	e.logger.Info("Imported search history", "queries", len(h.Queries))
	return true
}
