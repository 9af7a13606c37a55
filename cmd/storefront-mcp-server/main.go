package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lox/storefront-search/internal/commands"
	"github.com/lox/storefront-search/internal/mcp"
	"github.com/lox/storefront-search/internal/metrics"
	"github.com/lox/storefront-search/internal/search"
)

type CLI struct {
	commands.CommonConfig

	MetricsAddr string `help:"Serve prometheus metrics on this address (e.g. :9090)" env:"STOREFRONT_METRICS_ADDR"`
}

func (c *CLI) Run() error {
	// stdout carries the MCP protocol, so logs go to stderr only
	logger := c.NewLogger()

	storage, err := commands.SetupStorage(c.CommonConfig, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", "error", err)
	}
	defer storage.Close()

	opts := []search.EngineOption{}
	if c.MetricsAddr != "" {
		opts = append(opts, search.WithMetrics(metrics.NewSearchMetrics("storefront-mcp-server")))

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			logger.Info("Serving metrics", "addr", c.MetricsAddr)
			if err := http.ListenAndServe(c.MetricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	store := commands.NewHistoryStore(c.CommonConfig, storage, logger)
	engine := search.NewEngine(store, logger, opts...)

	return mcp.New(engine, storage.DB, logger).Run()
}

func main() {
	commands.LoadEnv()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("storefront-mcp-server"),
		kong.Description("MCP server exposing storefront search, suggestions and search analytics"),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
