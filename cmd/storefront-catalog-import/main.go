package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lox/storefront-search/internal/catalog"
	"github.com/lox/storefront-search/internal/commands"
)

type CLI struct {
	commands.CommonConfig

	Files       []string `arg:"" help:"Catalog files (JSON array or JSON lines)" type:"existingfile"`
	Concurrency int      `help:"Number of files to parse concurrently" default:"4"`
	NoProgress  bool     `help:"Disable progress bar" default:"false"`
	Replace     bool     `help:"Remove the existing catalog before importing" default:"false"`
	DryRun      bool     `help:"Print parsed products and exit (no import)" default:"false"`
}

func (c *CLI) Run() error {
	logger := c.NewLogger()

	storage, err := commands.SetupStorage(c.CommonConfig, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", "error", err)
	}
	defer storage.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	products, err := catalog.NewLoader(logger).LoadFiles(ctx, c.Files, catalog.Config{
		Concurrency: c.Concurrency,
		Progress:    !c.NoProgress,
	})
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	if c.DryRun {
		logger.Info("Dry run: displaying parsed products", "count", len(products))
		for _, p := range products {
			b, err := json.MarshalIndent(p, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode product: %w", err)
			}
			fmt.Println(string(b))
		}
		return nil
	}

	if c.Replace {
		if err := storage.DB.DeleteProducts(ctx); err != nil {
			return fmt.Errorf("failed to clear catalog: %w", err)
		}
	}

	if err := storage.DB.StoreProducts(ctx, products); err != nil {
		return fmt.Errorf("failed to store products: %w", err)
	}

	total, err := storage.DB.CountProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}

	categories, err := storage.DB.GetCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}

	fmt.Printf("Imported %d products (%d in catalog)\n\n", len(products), total)
	for _, cat := range categories {
		fmt.Printf("%-30s %d products\n", cat.Category, cat.Count)
	}
	return nil
}

func main() {
	commands.LoadEnv()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("storefront-catalog-import"),
		kong.Description("Import product catalog files into the storefront database"),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
