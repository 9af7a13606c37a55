package commands

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// CommonConfig contains configuration common to all commands
type CommonConfig struct {
	// DataDir is the path to the data directory
	DataDir string `help:"Path to data directory" default:"./data" env:"STOREFRONT_DATA_DIR"`
	// Timezone is the timezone search timestamps are displayed in
	Timezone string `help:"Timezone to display search timestamps in" default:"UTC" env:"STOREFRONT_TIMEZONE"`
	// LogLevel is the logging level to use
	LogLevel string `help:"Log level (debug, info, warn, error)" default:"warn" enum:"debug,info,warn,error" env:"STOREFRONT_LOG_LEVEL"`
	// Storage selects where the search history blob is kept
	Storage string `help:"Search history storage (sqlite, file)" default:"sqlite" enum:"sqlite,file" env:"STOREFRONT_STORAGE"`
	// HistorySize is the maximum number of searches kept
	HistorySize int `help:"Maximum number of searches kept in history" default:"50" env:"STOREFRONT_HISTORY_SIZE"`
}

// LoadEnv loads a .env file from the working directory if there is one,
// so that env-backed flags can be set there. It must run before kong.Parse.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("Failed to load .env file", "error", err)
	}
}

// NewLogger creates the stderr logger at the configured level
func (c CommonConfig) NewLogger() *log.Logger {
	logger := log.New(os.Stderr)

	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		logger.Fatal("Invalid log level", "error", err)
	}
	logger.SetLevel(level)

	return logger
}

// Location loads the display timezone
func (c CommonConfig) Location(logger *log.Logger) *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		logger.Fatal("Failed to load timezone", "error", err)
	}
	return loc
}
