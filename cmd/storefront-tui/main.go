package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/lox/storefront-search/internal/commands"
	"github.com/lox/storefront-search/internal/search"
)

func main() {
	commands.LoadEnv()

	type CLI struct {
		commands.CommonConfig
	}

	var cli CLI
	kong.Parse(&cli,
		kong.Name("storefront-tui"),
		kong.Description("A TUI for searching the storefront catalog."),
		kong.UsageOnError(),
	)

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:  log.InfoLevel,
		Prefix: "tui",
	})

	parsedLevel, err := log.ParseLevel(cli.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level specified, defaulting to info", "error", err, "specifiedLevel", cli.LogLevel)
		parsedLevel = log.InfoLevel
	}
	logger.SetLevel(parsedLevel)

	logger.Info("Loading database", "data_dir", cli.DataDir, "storage", cli.Storage)

	storage, err := commands.SetupStorage(cli.CommonConfig, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", "error", err)
	}
	defer func() {
		if err := storage.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	products, err := storage.DB.Products(context.Background())
	if err != nil {
		logger.Fatal("Failed to load catalog", "error", err)
	}

	engine := search.NewEngine(commands.NewHistoryStore(cli.CommonConfig, storage, logger), logger)

	p := tea.NewProgram(initialModel(engine, products), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
