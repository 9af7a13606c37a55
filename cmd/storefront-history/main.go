package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/lox/storefront-search/internal/commands"
	"github.com/lox/storefront-search/internal/history"
	"github.com/lox/storefront-search/internal/search"
	"github.com/lox/storefront-search/internal/types"
)

type CLI struct {
	commands.CommonConfig

	List      ListCmd      `cmd:"" help:"List recent searches, newest first"`
	Remove    RemoveCmd    `cmd:"" help:"Remove one search by id"`
	Clear     ClearCmd     `cmd:"" help:"Remove every search"`
	Popular   PopularCmd   `cmd:"" help:"Show the all-time most frequent searches"`
	Trending  TrendingCmd  `cmd:"" help:"Show searches trending over the last 24 hours"`
	Analytics AnalyticsCmd `cmd:"" help:"Show aggregate search statistics"`
	Export    ExportCmd    `cmd:"" help:"Export history and analytics as JSON"`
	Import    ImportCmd    `cmd:"" help:"Replace history with an exported JSON document"`
	Watch     WatchCmd     `cmd:"" help:"Print history changes made by other processes"`
}

// env holds what every sub-command needs
type env struct {
	logger  *log.Logger
	loc     *time.Location
	storage *commands.Storage
	store   *history.Store
	engine  *search.Engine
}

func setup(config *commands.CommonConfig) *env {
	logger := config.NewLogger()
	loc := config.Location(logger)

	storage, err := commands.SetupStorage(*config, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", "error", err)
	}

	store := commands.NewHistoryStore(*config, storage, logger)
	return &env{
		logger:  logger,
		loc:     loc,
		storage: storage,
		store:   store,
		engine:  search.NewEngine(store, logger),
	}
}

func (e *env) Close() {
	if err := e.storage.Close(); err != nil {
		e.logger.Error("Failed to close database", "error", err)
	}
}

type ListCmd struct {
	Limit int `help:"Maximum number of searches to show" default:"20"`
}

func (c *ListCmd) Run(config *commands.CommonConfig) error {
	e := setup(config)
	defer e.Close()

	recent := e.store.Recent(context.Background(), c.Limit)
	if len(recent) == 0 {
		fmt.Println("No searches in history")
		return nil
	}
	for _, q := range recent {
		printQuery(q, e.loc)
	}
	return nil
}

type RemoveCmd struct {
	ID string `arg:"" help:"Search id as shown by list"`
}

func (c *RemoveCmd) Run(config *commands.CommonConfig) error {
	e := setup(config)
	defer e.Close()

	if err := e.store.Remove(context.Background(), c.ID); err != nil {
		return err
	}
	fmt.Printf("Removed search %s\n", c.ID)
	return nil
}

type ClearCmd struct{}

func (c *ClearCmd) Run(config *commands.CommonConfig) error {
	e := setup(config)
	defer e.Close()

	if err := e.store.Clear(context.Background()); err != nil {
		return err
	}
	fmt.Println("Search history cleared")
	return nil
}

type PopularCmd struct {
	Limit int `help:"Maximum number of searches to show" default:"10"`
}

func (c *PopularCmd) Run(config *commands.CommonConfig) error {
	e := setup(config)
	defer e.Close()

	printTrending(e.engine.Popular(context.Background(), c.Limit))
	return nil
}

type TrendingCmd struct {
	Limit int `help:"Maximum number of searches to show" default:"10"`
}

func (c *TrendingCmd) Run(config *commands.CommonConfig) error {
	e := setup(config)
	defer e.Close()

	printTrending(e.engine.Trending(context.Background(), c.Limit))
	return nil
}

type AnalyticsCmd struct{}

func (c *AnalyticsCmd) Run(config *commands.CommonConfig) error {
	e := setup(config)
	defer e.Close()

	a := e.engine.Analytics(context.Background())

	fmt.Printf("%-22s %d\n", "Total searches:", a.TotalSearches)
	fmt.Printf("%-22s %d\n", "Unique queries:", a.UniqueQueries)
	fmt.Printf("%-22s %.1f\n", "Average results:", a.AverageResults)
	fmt.Printf("%-22s %d\n", "Empty searches:", a.EmptySearches)
	fmt.Printf("%-22s %.0f%% (placeholder, clicks are not tracked)\n", "Click-through rate:", a.ClickThroughRate)

	fmt.Println("\nBy type:")
	for _, t := range types.AllQueryTypes {
		fmt.Printf("  %-10s %d\n", t, a.Types[t])
	}

	if len(a.Categories) > 0 {
		fmt.Println("\nBy category:")
		categories := make([]string, 0, len(a.Categories))
		for category := range a.Categories {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			fmt.Printf("  %-30s %d\n", category, a.Categories[category])
		}
	}

	if len(a.MostSearched) > 0 {
		fmt.Println("\nMost searched:")
		printTrending(a.MostSearched)
	}
	return nil
}

type ExportCmd struct {
	Output string `help:"Write to this file instead of stdout" short:"o"`
}

func (c *ExportCmd) Run(config *commands.CommonConfig) error {
	e := setup(config)
	defer e.Close()

	data, err := e.engine.Export(context.Background())
	if err != nil {
		return err
	}

	if c.Output == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(c.Output, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	e.logger.Info("Exported search history", "path", c.Output)
	return nil
}

type ImportCmd struct {
	File string `arg:"" help:"Exported JSON document, or - for stdin"`
}

func (c *ImportCmd) Run(config *commands.CommonConfig) error {
	e := setup(config)
	defer e.Close()

	var data []byte
	var err error
	if c.File == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(c.File)
	}
	if err != nil {
		return fmt.Errorf("failed to read import: %w", err)
	}

	if !e.engine.Import(context.Background(), data) {
		return fmt.Errorf("%s is not a valid search history export", c.File)
	}
	fmt.Println("Search history imported")
	return nil
}

type WatchCmd struct{}

func (c *WatchCmd) Run(config *commands.CommonConfig) error {
	e := setup(config)
	defer e.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := history.NewWatcher(e.store, e.storage.WatchFiles...)
	if err != nil {
		return err
	}

	unsubscribe := e.store.Subscribe(func(h types.SearchHistory) {
		if len(h.Queries) == 0 {
			fmt.Println("History cleared")
			return
		}
		fmt.Printf("History changed: %d searches, latest:\n", len(h.Queries))
		printQuery(h.Queries[0], e.loc)
	})
	defer unsubscribe()

	e.logger.Info("Watching search history", "files", e.storage.WatchFiles)
	return watcher.Run(ctx)
}

func printQuery(q types.SearchQuery, loc *time.Location) {
	fmt.Printf("%s: %s\n", q.Timestamp.In(loc).Format("2006-01-02 15:04:05"), q.Query)
	fmt.Printf("  ID: %s\n", q.ID)
	fmt.Printf("  Type: %s, Results: %d\n", q.Type, q.ResultsCount)
	if f := q.Filters; f != nil && f.Category != nil {
		fmt.Printf("  Category: %s\n", *f.Category)
	}
}

func printTrending(searches []types.TrendingSearch) {
	if len(searches) == 0 {
		fmt.Println("No searches yet")
		return
	}
	for _, t := range searches {
		fmt.Printf("%-30s %4d  %-6s %+.0f%%\n", t.Query, t.Count, t.Trend, t.Percentage)
	}
}

func main() {
	commands.LoadEnv()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("storefront-history"),
		kong.Description("Inspect and manage the storefront search history"),
		kong.UsageOnError(),
	)

	err := ctx.Run(&cli.CommonConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
