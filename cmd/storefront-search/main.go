package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/lox/storefront-search/internal/catalog"
	"github.com/lox/storefront-search/internal/commands"
	"github.com/lox/storefront-search/internal/search"
	"github.com/lox/storefront-search/internal/types"
	"github.com/lox/storefront-search/internal/voice"
	"github.com/shopspring/decimal"
)

type CLI struct {
	commands.CommonConfig

	Query    string   `arg:"" optional:"" help:"Search query - what you're looking for"`
	Category string   `help:"Only products in this exact category"`
	PriceMin string   `help:"Minimum price, inclusive"`
	PriceMax string   `help:"Maximum price, inclusive"`
	Rating   float64  `help:"Minimum rating" default:"0"`
	InStock  bool     `help:"Only products in stock" default:"false"`
	Discount bool     `help:"Only discounted products" default:"false"`
	Brands   []string `help:"Allowed brands (comma separated)"`
	SortBy   string   `help:"Sort order" default:"relevance" enum:"relevance,price-low,price-high,rating,newest,popular"`
	Type     string   `help:"Query type recorded in history" default:"text" enum:"text,voice,barcode,visual"`
	Voice    string   `help:"Take the query from a voice recognizer instead of the argument (stdin, unsupported)"`
	Catalog  []string `help:"Search these catalog files instead of the imported catalog" type:"existingfile"`
	Limit    int      `help:"Maximum number of products to print" default:"20"`
	JSON     bool     `help:"Print the full search result as JSON" default:"false"`
	NoRecord bool     `help:"Do not record the search in history" default:"false"`
}

func (c *CLI) Run() error {
	ctx := context.Background()
	logger := c.NewLogger()

	storage, err := commands.SetupStorage(c.CommonConfig, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", "error", err)
	}
	defer storage.Close()

	engine := search.NewEngine(commands.NewHistoryStore(c.CommonConfig, storage, logger), logger)

	query, queryType, err := c.resolveQuery(ctx)
	if err != nil {
		return err
	}

	products, err := c.loadCatalog(ctx, storage, logger)
	if err != nil {
		return err
	}

	filters, err := c.filters()
	if err != nil {
		return err
	}

	var result types.SearchResult
	if c.NoRecord {
		result = engine.Search(ctx, query, products, filters)
	} else {
		result = engine.Execute(ctx, query, queryType, products, filters)
	}

	if c.JSON {
		b, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Println(string(b))
		return nil
	}

	printResult(result, c.Limit)
	return nil
}

// resolveQuery returns the query text and the type it is recorded as
func (c *CLI) resolveQuery(ctx context.Context) (string, types.QueryType, error) {
	if c.Voice == "" {
		return c.Query, types.QueryType(c.Type), nil
	}

	registry := voice.NewRegistry()
	registry.Register(voice.NewLineRecognizer("stdin", os.Stdin))
	registry.Register(voice.Unsupported{})

	rec, ok := registry.Get(c.Voice)
	if !ok {
		return "", "", fmt.Errorf("unknown voice recognizer %q (available: %v)", c.Voice, registry.List())
	}

	text, err := voice.Listen(ctx, rec)
	if err != nil {
		return "", "", fmt.Errorf("voice search failed: %w", err)
	}
	return text, types.QueryTypeVoice, nil
}

func (c *CLI) loadCatalog(ctx context.Context, storage *commands.Storage, logger *log.Logger) ([]types.Product, error) {
	if len(c.Catalog) > 0 {
		return catalog.NewLoader(logger).LoadFiles(ctx, c.Catalog, catalog.Config{Concurrency: 4})
	}
	products, err := storage.DB.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if len(products) == 0 {
		logger.Warn("Catalog is empty, import one with storefront-catalog-import")
	}
	return products, nil
}

func (c *CLI) filters() (*types.SearchFilters, error) {
	filters := &types.SearchFilters{
		InStock:  c.InStock,
		Discount: c.Discount,
		Brands:   c.Brands,
		SortBy:   types.SortBy(c.SortBy),
	}
	if c.Category != "" {
		filters.Category = &c.Category
	}
	if c.PriceMin != "" {
		d, err := decimal.NewFromString(c.PriceMin)
		if err != nil {
			return nil, fmt.Errorf("invalid --price-min: %w", err)
		}
		filters.PriceMin = &d
	}
	if c.PriceMax != "" {
		d, err := decimal.NewFromString(c.PriceMax)
		if err != nil {
			return nil, fmt.Errorf("invalid --price-max: %w", err)
		}
		filters.PriceMax = &d
	}
	if c.Rating > 0 {
		filters.Rating = &c.Rating
	}
	return filters, nil
}

func printResult(result types.SearchResult, limit int) {
	if result.Total == 0 {
		fmt.Println("No products found")
	} else {
		fmt.Printf("Found %d products:\n\n", result.Total)
	}

	for i, p := range result.Products {
		if limit > 0 && i >= limit {
			fmt.Printf("... and %d more\n\n", result.Total-limit)
			break
		}
		printProduct(p)
	}

	if result.DidYouMean != nil {
		fmt.Printf("Did you mean: %s\n\n", *result.DidYouMean)
	}

	if len(result.Suggestions) > 0 {
		fmt.Println("Suggestions:")
		for _, s := range result.Suggestions {
			if s.Count != nil {
				fmt.Printf("  %s (%s, %d)\n", s.Text, s.Type, *s.Count)
				continue
			}
			fmt.Printf("  %s (%s)\n", s.Text, s.Type)
		}
	}
}

// printProduct prints the details of a product
func printProduct(p types.Product) {
	fmt.Printf("%s - %s\n", p.Name, p.Price.StringFixed(2))
	if p.Category != "" {
		fmt.Printf("  Category: %s\n", p.Category)
	}
	if p.Brand != "" {
		fmt.Printf("  Brand: %s\n", p.Brand)
	}
	if p.Rating != nil {
		fmt.Printf("  Rating: %.1f\n", *p.Rating)
	}
	fmt.Printf("  Stock: %d\n", p.Stock)
	if p.HasDiscount() {
		fmt.Printf("  Discount: %.0f%%\n", *p.Discount)
	}
	if len(p.Tags) > 0 {
		fmt.Printf("  Tags: %v\n", p.Tags)
	}
	fmt.Println()
}

func main() {
	commands.LoadEnv()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("storefront-search"),
		kong.Description("Search the storefront catalog and record the search in history"),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
