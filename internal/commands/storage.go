package commands

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/lox/storefront-search/internal/blob"
	"github.com/lox/storefront-search/internal/db"
	"github.com/lox/storefront-search/internal/history"
)

// Storage bundles the catalog database with the blob storage holding the history
type Storage struct {
	DB   *db.DB
	Blob blob.Storage

	// WatchFiles are the files a change to the history shows up in
	WatchFiles []string
}

// Close releases the database
func (s *Storage) Close() error {
	return s.DB.Close()
}

// SetupStorage opens the database and the configured history storage
func SetupStorage(config CommonConfig, logger *log.Logger) (*Storage, error) {
	database, err := db.New(config.DataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	switch config.Storage {
	case "file":
		fs, err := blob.NewFileStorage(filepath.Join(config.DataDir, "blobs"), logger)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to initialize file storage: %w", err)
		}
		return &Storage{
			DB:         database,
			Blob:       fs,
			WatchFiles: []string{fs.Path(history.DefaultKey)},
		}, nil
	case "sqlite", "":
		return &Storage{
			DB:         database,
			Blob:       database,
			WatchFiles: []string{database.Path(), database.Path() + "-wal"},
		}, nil
	default:
		database.Close()
		return nil, fmt.Errorf("unknown storage %q", config.Storage)
	}
}

// NewHistoryStore creates the history store over the configured storage
func NewHistoryStore(config CommonConfig, storage *Storage, logger *log.Logger) *history.Store {
	opts := []history.Option{}
	if config.HistorySize > 0 {
		opts = append(opts, history.WithMaxSize(config.HistorySize))
	}
	return history.New(storage.Blob, logger, opts...)
}
