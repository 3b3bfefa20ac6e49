package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"homeenergy/internal/tariff"
)

var tariffsCmd = &cobra.Command{
	Use:   "tariffs",
	Short: "Manage the time-of-use tariff set",
}

var tariffsLoadCmd = &cobra.Command{
	Use:   "load [file]",
	Short: "Load tariffs from a YAML rate table",
	Long: `Validates and stores a declarative tariff file. Each named tariff replaces
any previous definition wholesale. A file with gaps or overlapping rate bands
is rejected entirely; nothing is partially applied.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTariffsLoad,
}

var tariffsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored tariffs",
	RunE:  runTariffsList,
}

func init() {
	tariffsCmd.AddCommand(tariffsLoadCmd)
	tariffsCmd.AddCommand(tariffsListCmd)
	rootCmd.AddCommand(tariffsCmd)
}

func runTariffsLoad(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	path := cfg.GetTariffFile()
	if len(args) == 1 {
		path = args[0]
	}

	tariffs, err := tariff.LoadFile(path)
	if err != nil {
		return fmt.Errorf("loading tariff file: %w", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.ReplaceTariffs(context.Background(), tariffs); err != nil {
		return fmt.Errorf("storing tariffs: %w", err)
	}

	fmt.Printf("✓ Loaded %d tariffs from %s\n", len(tariffs), path)
	return nil
}

func runTariffsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	tariffs, err := db.LoadTariffs(context.Background())
	if err != nil {
		return fmt.Errorf("listing tariffs: %w", err)
	}

	if len(tariffs) == 0 {
		fmt.Println("No tariffs stored")
		return nil
	}

	for _, t := range tariffs {
		validTo := "current"
		if t.ValidTo != nil {
			validTo = t.ValidTo.Format("2006-01-02")
		}
		fmt.Printf("%s (%s → %s)\n", t.Name, t.ValidFrom.Format("2006-01-02"), validTo)
		for _, rate := range t.Rates {
			days := rate.Days
			if days == "" || days == "*" {
				days = "all days"
			}
			fmt.Printf("  %s-%s  %5.2fp/kWh  (%s)\n", rate.StartTime, rate.EndTime, rate.RatePencePerKWh, days)
		}
	}

	return nil
}
