package mcp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/lox/storefront-search/internal/search"
	"github.com/lox/storefront-search/internal/types"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/shopspring/decimal"
)

// CatalogSource supplies the products searched by the tools
type CatalogSource interface {
	Products(ctx context.Context) ([]types.Product, error)
}

type Server struct {
	engine  *search.Engine
	catalog CatalogSource
	logger  *log.Logger
}

func New(engine *search.Engine, catalog CatalogSource, logger *log.Logger) *Server {
	return &Server{
		engine:  engine,
		catalog: catalog,
		logger:  logger,
	}
}

// MCPServer builds the MCP server with every tool registered
func (s *Server) MCPServer() *server.MCPServer {
	mcpServer := server.NewMCPServer(
		"Storefront Search",
		"1.0.0",
	)

	mcpServer.AddTool(mcp.NewTool("search_products",
		mcp.WithDescription("Search the product catalog and record the search in history"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query - what you're looking for. May be empty to browse with filters."),
		),
		mcp.WithString("category",
			mcp.Description("Only products in this exact category"),
		),
		mcp.WithString("price_min",
			mcp.Description("Minimum price, inclusive"),
		),
		mcp.WithString("price_max",
			mcp.Description("Maximum price, inclusive"),
		),
		mcp.WithString("rating",
			mcp.Description("Minimum rating"),
		),
		mcp.WithBoolean("in_stock",
			mcp.Description("Only products with stock"),
		),
		mcp.WithBoolean("discount",
			mcp.Description("Only discounted products"),
		),
		mcp.WithString("brands",
			mcp.Description("Comma separated list of allowed brands"),
		),
		mcp.WithString("sort_by",
			mcp.Description("Sort order (relevance, price-low, price-high, rating, newest, popular)"),
		),
		mcp.WithString("type",
			mcp.Description("Query type (text, voice, barcode, visual). Defaults to text."),
		),
		mcp.WithString("limit",
			mcp.Description("Maximum number of products to show (default: 20)"),
		),
	), s.searchProductsHandler)

	mcpServer.AddTool(mcp.NewTool("suggest",
		mcp.WithDescription("Typeahead suggestions for a partial query from history, products, categories and brands"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Partial query"),
		),
		mcp.WithString("limit",
			mcp.Description("Maximum number of suggestions (default: 10)"),
		),
	), s.suggestHandler)

	mcpServer.AddTool(mcp.NewTool("popular_searches",
		mcp.WithDescription("All-time most frequent searches"),
		mcp.WithString("limit",
			mcp.Description("Maximum number of results to return (default: 10)"),
		),
	), s.popularHandler)

	mcpServer.AddTool(mcp.NewTool("trending_searches",
		mcp.WithDescription("Searches of the last 24 hours compared with the 24 hours before"),
		mcp.WithString("limit",
			mcp.Description("Maximum number of results to return (default: 10)"),
		),
	), s.trendingHandler)

	mcpServer.AddTool(mcp.NewTool("search_analytics",
		mcp.WithDescription("Aggregate statistics over the search history"),
	), s.analyticsHandler)

	mcpServer.AddTool(mcp.NewTool("search_history",
		mcp.WithDescription("List recent searches, newest first"),
		mcp.WithString("limit",
			mcp.Description("Maximum number of results to return (default: 20)"),
		),
	), s.historyHandler)

	mcpServer.AddTool(mcp.NewTool("remove_search",
		mcp.WithDescription("Remove one search from history"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Search id as shown by search_history"),
		),
	), s.removeHandler)

	mcpServer.AddTool(mcp.NewTool("clear_search_history",
		mcp.WithDescription("Remove every search from history"),
	), s.clearHandler)

	return mcpServer
}

func (s *Server) Run() error {
	// Start the stdio server
	if err := server.ServeStdio(s.MCPServer()); err != nil {
		return err
	}

	return nil
}

func (s *Server) searchProductsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments

	query, ok := args["query"].(string)
	if !ok {
		return nil, errors.New("query must be a string")
	}

	limit, err := intArgument(args, "limit", 20)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	filters, err := filtersFromArguments(args)
	if err != nil {
		return nil, err
	}

	queryType := types.QueryTypeText
	if v, _ := args["type"].(string); v != "" {
		queryType = types.QueryType(v)
		if !queryType.Valid() {
			return nil, fmt.Errorf("type must be one of %v", types.AllQueryTypes)
		}
	}

	products, err := s.catalog.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	result := s.engine.Execute(ctx, query, queryType, products, filters)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d products for %q\n\n", result.Total, result.Query)
	for i, p := range result.Products {
		if i >= limit {
			fmt.Fprintf(&sb, "... and %d more\n\n", result.Total-limit)
			break
		}
		writeProduct(&sb, p)
	}
	if result.DidYouMean != nil {
		fmt.Fprintf(&sb, "Did you mean: %s\n\n", *result.DidYouMean)
	}
	if len(result.Suggestions) > 0 {
		sb.WriteString("Suggestions:\n")
		writeSuggestions(&sb, result.Suggestions)
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) suggestHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, ok := request.Params.Arguments["query"].(string)
	if !ok {
		return nil, errors.New("query must be a string")
	}

	limit, err := intArgument(request.Params.Arguments, "limit", 10)
	if err != nil {
		return nil, err
	}

	products, err := s.catalog.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	suggestions := s.engine.Suggest(ctx, query, products, limit)
	if len(suggestions) == 0 {
		return mcp.NewToolResultText("No suggestions\n"), nil
	}

	var sb strings.Builder
	writeSuggestions(&sb, suggestions)
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) popularHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit, err := intArgument(request.Params.Arguments, "limit", 10)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(formatTrending("Popular Searches", s.engine.Popular(ctx, limit))), nil
}

func (s *Server) trendingHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit, err := intArgument(request.Params.Arguments, "limit", 10)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(formatTrending("Trending Searches (last 24 hours)", s.engine.Trending(ctx, limit))), nil
}

func (s *Server) analyticsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a := s.engine.Analytics(ctx)

	var sb strings.Builder
	sb.WriteString("Search Analytics\n\n")
	fmt.Fprintf(&sb, "%-22s %d\n", "Total searches:", a.TotalSearches)
	fmt.Fprintf(&sb, "%-22s %d\n", "Unique queries:", a.UniqueQueries)
	fmt.Fprintf(&sb, "%-22s %.1f\n", "Average results:", a.AverageResults)
	fmt.Fprintf(&sb, "%-22s %d\n", "Empty searches:", a.EmptySearches)
	fmt.Fprintf(&sb, "%-22s %.0f%% (placeholder)\n", "Click-through rate:", a.ClickThroughRate)

	sb.WriteString("\nBy type:\n")
	for _, t := range types.AllQueryTypes {
		fmt.Fprintf(&sb, "  %-10s %d\n", t, a.Types[t])
	}

	if len(a.Categories) > 0 {
		sb.WriteString("\nBy category:\n")
		for _, c := range sortedKeys(a.Categories) {
			fmt.Fprintf(&sb, "  %-30s %d\n", c, a.Categories[c])
		}
	}

	if len(a.MostSearched) > 0 {
		sb.WriteString("\nMost searched:\n")
		for _, m := range a.MostSearched {
			fmt.Fprintf(&sb, "  %-30s %d\n", m.Query, m.Count)
		}
	}

	if len(a.RecentSearches) > 0 {
		sb.WriteString("\nRecent:\n")
		for _, r := range a.RecentSearches {
			fmt.Fprintf(&sb, "  %s\n", r)
		}
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) historyHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit, err := intArgument(request.Params.Arguments, "limit", 20)
	if err != nil {
		return nil, err
	}

	recent := s.engine.Store().Recent(ctx, limit)
	if len(recent) == 0 {
		return mcp.NewToolResultText("No searches in history\n"), nil
	}

	var sb strings.Builder
	for _, q := range recent {
		fmt.Fprintf(&sb, "%s: %s (%s, %d results)\n", q.Timestamp.Format("2006-01-02 15:04:05"), q.Query, q.Type, q.ResultsCount)
		fmt.Fprintf(&sb, "  ID: %s\n", q.ID)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) removeHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := request.Params.Arguments["id"].(string)
	if !ok || id == "" {
		return nil, errors.New("id must be a non-empty string")
	}
	if err := s.engine.Store().Remove(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to remove search: %w", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed search %s\n", id)), nil
}

func (s *Server) clearHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.engine.Store().Clear(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear search history: %w", err)
	}
	return mcp.NewToolResultText("Search history cleared\n"), nil
}

func filtersFromArguments(args map[string]interface{}) (*types.SearchFilters, error) {
	var filters types.SearchFilters
	set := false

	if v, _ := args["category"].(string); v != "" {
		filters.Category = &v
		set = true
	}
	for name, dst := range map[string]**decimal.Decimal{"price_min": &filters.PriceMin, "price_max": &filters.PriceMax} {
		d, ok, err := decimalArgument(args, name)
		if err != nil {
			return nil, err
		}
		if ok {
			*dst = &d
			set = true
		}
	}
	if v, ok := args["rating"]; ok && v != "" {
		rating, err := floatValue(v)
		if err != nil {
			return nil, fmt.Errorf("rating must be a number: %w", err)
		}
		filters.Rating = &rating
		set = true
	}
	if v, ok := args["in_stock"].(bool); ok && v {
		filters.InStock = true
		set = true
	}
	if v, ok := args["discount"].(bool); ok && v {
		filters.Discount = true
		set = true
	}
	if v, _ := args["brands"].(string); v != "" {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				filters.Brands = append(filters.Brands, b)
			}
		}
		set = len(filters.Brands) > 0 || set
	}
	if v, _ := args["sort_by"].(string); v != "" {
		filters.SortBy = types.SortBy(v)
		if !filters.SortBy.Valid() {
			return nil, fmt.Errorf("sort_by must be one of %v", types.AllSortOrders)
		}
		set = true
	}

	if !set {
		return nil, nil
	}
	return &filters, nil
}

func intArgument(args map[string]interface{}, name string, def int) (int, error) {
	val, ok := args[name]
	if !ok {
		return def, nil
	}
	switch v := val.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		if v == "" {
			return def, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", name, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number or string", name)
	}
}

func decimalArgument(args map[string]interface{}, name string) (decimal.Decimal, bool, error) {
	val, ok := args[name]
	if !ok {
		return decimal.Decimal{}, false, nil
	}
	switch v := val.(type) {
	case int:
		return decimal.NewFromInt(int64(v)), true, nil
	case float64:
		return decimal.NewFromFloat(v), true, nil
	case string:
		if v == "" {
			return decimal.Decimal{}, false, nil
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Decimal{}, false, fmt.Errorf("%s must be a valid number: %w", name, err)
		}
		return d, true, nil
	default:
		return decimal.Decimal{}, false, fmt.Errorf("%s must be a number or string", name)
	}
}

func floatValue(val interface{}) (float64, error) {
	switch v := val.(type) {
	case int:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, errors.New("unsupported type")
	}
}
