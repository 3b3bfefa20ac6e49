package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"homeenergy/internal/report"
)

var (
	reportSince  string
	reportUntil  string
	reportSource string
	reportDays   int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize consumption, cost and sessions",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportSince, "since", "", "start of range (YYYY-MM-DD or relative like 7d)")
	reportCmd.Flags().StringVar(&reportUntil, "until", "", "end of range (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportSource, "source", "", "restrict to one source")
	reportCmd.Flags().IntVar(&reportDays, "days", 7, "default window when --since is not given")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	from, to, err := parseRange(reportSince, reportUntil)
	if err != nil {
		return err
	}
	if from.IsZero() {
		from, to = report.DefaultWindow(reportDays)
	} else if to.IsZero() {
		_, to = report.DefaultWindow(0)
	}

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	readings, err := db.ListReadings(ctx, reportSource, from, to)
	if err != nil {
		return fmt.Errorf("listing readings: %w", err)
	}
	sessionRows, err := db.ListSessions(ctx, "", from, to)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	if len(readings) == 0 && len(sessionRows) == 0 {
		fmt.Println("No data in range")
		return nil
	}

	summary := report.Build(readings, sessionRows)
	fmt.Print(summary.Render())
	return nil
}
