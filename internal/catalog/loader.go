// Package catalog loads product catalogs from JSON files.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/storefront-search/internal/types"
	"golang.org/x/sync/errgroup"
)

// Config controls how catalog files are loaded
type Config struct {
	Concurrency int
	Progress    bool
	// Reporter replaces the default progress output when set
	Reporter Progress
}

// Loader parses catalog files concurrently
type Loader struct {
	logger *log.Logger
}

// NewLoader creates a new catalog loader
func NewLoader(logger *log.Logger) *Loader {
	return &Loader{logger: logger}
}

// LoadFiles parses every file and merges the products in file order.
// A product id seen again in a later file replaces the earlier record in place.
func (l *Loader) LoadFiles(ctx context.Context, paths []string, config Config) ([]types.Product, error) {
	startTime := time.Now()

	var progress Progress
	switch {
	case config.Reporter != nil:
		progress = config.Reporter
	case config.Progress:
		progress = NewBarProgress(len(paths))
	default:
		progress = NewNoopProgress()
	}
	defer progress.Close()
	var progressMu sync.Mutex

	perFile := make([][]types.Product, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(config.Concurrency, 1))

	for i, path := range paths {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			parseStart := time.Now()
			products, err := ParseFile(path)
			if err != nil {
				l.logger.Error("Failed to parse catalog file", "path", path, "error", err)
				return fmt.Errorf("failed to parse catalog file: %w", err)
			}
			l.logger.Debug("Parsed catalog file",
				"path", path,
				"products", len(products),
				"duration", time.Since(parseStart))

			perFile[i] = products

			progressMu.Lock()
			err = progress.FileDone(path, len(products))
			progressMu.Unlock()
			if err != nil {
				return fmt.Errorf("error updating progress: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			l.logger.Info("Catalog loading interrupted by user")
		}
		return nil, err
	}

	merged := Merge(perFile...)
	l.logger.Info("Loaded catalog",
		"files", len(paths),
		"products", len(merged),
		"duration", time.Since(startTime))
	return merged, nil
}

// Merge concatenates product lists, replacing earlier records that share an id
func Merge(lists ...[]types.Product) []types.Product {
	index := make(map[string]int)
	merged := []types.Product{}
	for _, list := range lists {
		for _, p := range list {
			if i, ok := index[p.ID]; ok {
				merged[i] = p
				continue
			}
			index[p.ID] = len(merged)
			merged = append(merged, p)
		}
	}
	return merged
}
