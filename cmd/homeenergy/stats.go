package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	stats, err := db.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("gathering stats: %w", err)
	}

	fmt.Printf("Interval readings: %s", humanize.Comma(int64(stats.Readings.Count)))
	if stats.Readings.Count > 0 {
		fmt.Printf(" (%s → %s)", stats.Readings.Earliest, stats.Readings.Latest)
	}
	fmt.Println()

	for source, count := range stats.ReadingsBySource {
		fmt.Printf("  %-20s %s\n", source, humanize.Comma(int64(count)))
	}

	fmt.Printf("Temperature readings: %s", humanize.Comma(int64(stats.Temperatures.Count)))
	if stats.Temperatures.Count > 0 {
		fmt.Printf(" (%s → %s)", stats.Temperatures.Earliest, stats.Temperatures.Latest)
	}
	fmt.Println()

	fmt.Printf("Sessions: %d\n", stats.Sessions)
	fmt.Printf("Tariffs: %d\n", stats.Tariffs)
	return nil
}
