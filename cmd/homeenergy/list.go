package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"homeenergy/internal/report"
)

var (
	listSource string
	listSince  string
	listUntil  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored interval readings",
	Long:  `Displays stored half-hourly readings with their computed costs.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listSource, "source", "", "filter by source (meter, monitor, cloud)")
	listCmd.Flags().StringVar(&listSince, "since", "", "start of range (YYYY-MM-DD or relative like 7d)")
	listCmd.Flags().StringVar(&listUntil, "until", "", "end of range (YYYY-MM-DD)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	from, to, err := parseRange(listSince, listUntil)
	if err != nil {
		return err
	}
	if from.IsZero() {
		from, to = report.DefaultWindow(7)
	} else if to.IsZero() {
		_, to = report.DefaultWindow(0)
	}

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	data, err := db.ListReadings(context.Background(), listSource, from, to)
	if err != nil {
		return fmt.Errorf("listing readings: %w", err)
	}

	if len(data) == 0 {
		fmt.Println("No readings found in range")
		return nil
	}

	fmt.Printf("%-10s  %-16s  %10s  %10s\n", "Source", "Interval start", "kWh", "Cost")
	fmt.Println("----------------------------------------------------------")

	var totalKWh, totalPence float64
	uncosted := 0
	for _, record := range data {
		cost := "-"
		if record.CostPence != nil {
			cost = fmt.Sprintf("%.1fp", *record.CostPence)
			totalPence += *record.CostPence
		} else {
			uncosted++
		}
		fmt.Printf("%-10s  %-16s  %10.3f  %10s\n",
			record.Source,
			record.IntervalStart.Format("2006-01-02 15:04"),
			record.ConsumptionKWh,
			cost)
		totalKWh += record.ConsumptionKWh
	}

	fmt.Println("----------------------------------------------------------")
	fmt.Printf("Total: %.2f kWh, £%.2f (%d records)\n", totalKWh, totalPence/100, len(data))
	if uncosted > 0 {
		fmt.Printf("%d readings have no cost yet (run 'homeenergy costs')\n", uncosted)
	}
	return nil
}
