package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"homeenergy/internal/tariff"
)

var costsAll bool

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Compute costs for stored readings",
	Long: `Fills in cost_pence for readings that don't have one, using the rate in
force at each interval's start. With --all, recomputes every reading's cost;
use this after editing the tariff set, since normal runs only fill gaps.`,
	RunE: runCosts,
}

func init() {
	costsCmd.Flags().BoolVar(&costsAll, "all", false, "recompute costs for all readings, not just uncosted ones")
	rootCmd.AddCommand(costsCmd)
}

func runCosts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := newLogger(cfg)
	defer log.Sync()

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	tariffs, err := db.LoadTariffs(ctx)
	if err != nil {
		return fmt.Errorf("loading tariffs: %w", err)
	}
	if len(tariffs) == 0 {
		return fmt.Errorf("no tariffs stored (run 'homeenergy tariffs load' first)")
	}

	resolver, err := tariff.NewResolver(tariffs)
	if err != nil {
		return fmt.Errorf("building resolver: %w", err)
	}

	result, err := tariff.NewCalculator(db, resolver, log).Run(ctx, costsAll)
	if err != nil {
		return fmt.Errorf("computing costs: %w", err)
	}

	fmt.Printf("✓ Updated %d readings", result.Updated)
	if result.Skipped > 0 {
		fmt.Printf(", skipped %d outside tariff coverage", result.Skipped)
	}
	fmt.Println()
	return nil
}
