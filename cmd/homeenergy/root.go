package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"homeenergy/internal/config"
	"homeenergy/internal/database"
	"homeenergy/internal/logging"
)

var (
	cfgFile string
	dbPath  string
)

var rootCmd = &cobra.Command{
	Use:   "homeenergy",
	Short: "Ingest, cost and analyze household energy telemetry",
	Long: `homeenergy collects domestic energy data from meter, power-monitor and
sensor exports into a local SQLite database, normalizes it onto a half-hourly
grid, prices it against time-of-use tariffs and detects sauna sessions from
temperature streams.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (default from config, falling back to ./energy.db)")
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// loadConfig loads the configuration file
func loadConfig() (*config.Config, error) {
	return config.Load(getConfigPath())
}

// getDBPath returns the database file path, preferring the flag
func getDBPath(cfg *config.Config) string {
	if dbPath != "" {
		return dbPath
	}
	return cfg.GetDatabasePath()
}

// openDB opens the database connection
func openDB(cfg *config.Config) (*database.DB, error) {
	path := getDBPath(cfg)

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	return database.New(path)
}

// newLogger builds the process logger from config
func newLogger(cfg *config.Config) *zap.SugaredLogger {
	return logging.New(cfg.GetLogLevel())
}

// parseDate parses a date string in either YYYY-MM-DD format or relative format (e.g., "7d")
func parseDate(dateStr string) (time.Time, error) {
	// Try absolute date format first
	t, err := time.Parse("2006-01-02", dateStr)
	if err == nil {
		return t, nil
	}

	// Try relative format (e.g., "7d" for 7 days ago)
	if len(dateStr) > 1 && dateStr[len(dateStr)-1] == 'd' {
		daysStr := dateStr[:len(dateStr)-1]
		var days int
		if _, err := fmt.Sscanf(daysStr, "%d", &days); err == nil {
			return time.Now().AddDate(0, 0, -days), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date format: %s (use YYYY-MM-DD or Nd for N days ago)", dateStr)
}

// parseRange converts optional --since/--until strings into time bounds,
// leaving zero values for unset flags
func parseRange(since, until string) (time.Time, time.Time, error) {
	var from, to time.Time
	if since != "" {
		t, err := parseDate(since)
		if err != nil {
			return from, to, fmt.Errorf("parsing --since date: %w", err)
		}
		from = t
	}
	if until != "" {
		t, err := parseDate(until)
		if err != nil {
			return from, to, fmt.Errorf("parsing --until date: %w", err)
		}
		to = t
	}
	return from, to, nil
}
