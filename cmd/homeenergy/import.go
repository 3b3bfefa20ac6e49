package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"homeenergy/internal/collect"
	"homeenergy/internal/config"
	"homeenergy/internal/database"
	"homeenergy/internal/normalize"
	"homeenergy/internal/tariff"
	"homeenergy/pkg/models"
)

var (
	importFile    string
	importSensor  string
	importNoCosts bool
)

var importCmd = &cobra.Command{
	Use:   "import [source]",
	Short: "Import an export file for a source",
	Long: `Parses a source export file, normalizes it onto the half-hourly grid and
stores it. Re-importing an overlapping range is safe: windows already present
are overwritten, never duplicated.

Available sources: meter, monitor, cloud, temps, weather`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "export file to import (required)")
	importCmd.Flags().StringVar(&importSensor, "sensor", "", "sensor id for temperature imports (default from config)")
	importCmd.Flags().BoolVar(&importNoCosts, "no-costs", false, "skip computing costs for newly imported readings")
	importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Import started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	source := args[0]

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

	file, err := os.Open(importFile)
	if err != nil {
		return fmt.Errorf("opening export file: %w", err)
	}
	defer file.Close()

	ctx := context.Background()

	switch source {
	case collect.SourceMeter, collect.SourceMonitor, collect.SourceCloud:
		return importElectricity(ctx, cfg, db, source, file, log)
	case "temps":
		sensor := importSensor
		if sensor == "" {
			sensor = cfg.GetSessionSensor()
		}
		readings, parseSkipped, err := collect.ParseTemperatureTable(file, sensor)
		if err != nil {
			return err
		}
		return importTemperatures(ctx, db, "temps/"+sensor, readings, parseSkipped)
	case "weather":
		readings, parseSkipped, err := collect.ParseWeatherCSV(file)
		if err != nil {
			return err
		}
		return importTemperatures(ctx, db, "weather", readings, parseSkipped)
	default:
		return fmt.Errorf("unknown source: %s (available: meter, monitor, cloud, temps, weather)", source)
	}
}

// importElectricity parses, normalizes and upserts one electricity source,
// then advances the source's cursor and fills in costs for new rows.
func importElectricity(ctx context.Context, cfg *config.Config, db *database.DB, source string, file *os.File, log *zap.SugaredLogger) error {
	var samples []normalize.Sample
	var parseSkipped int
	var err error

	switch source {
	case collect.SourceMeter:
		samples, parseSkipped, err = collect.ParseMeterCSV(file)
	case collect.SourceMonitor:
		samples, parseSkipped, err = collect.ParseMonitorCSV(file)
	case collect.SourceCloud:
		samples, parseSkipped, err = collect.ParseCloudJSON(file)
	}
	if err != nil {
		return fmt.Errorf("parsing %s export: %w", source, err)
	}
	if len(samples) == 0 {
		fmt.Println("No samples found in file")
		return nil
	}

	if since, ok, err := db.Cursor(ctx, source); err != nil {
		return err
	} else if ok {
		log.Infow("incremental import", "source", source, "cursor", since)
	} else {
		log.Infow("no cursor yet, full import", "source", source, "default_lookback_days", cfg.GetImportDays())
	}

	readings := normalize.Normalize(source, samples)

	result, err := db.UpsertReadings(ctx, readings)
	if err != nil {
		return fmt.Errorf("storing readings: %w", err)
	}

	// The cursor only moves after the batch has committed.
	latest := readings[len(readings)-1].IntervalStart
	if err := db.AdvanceCursor(ctx, source, latest); err != nil {
		return err
	}

	reportBatch(result, parseSkipped)

	if !importNoCosts {
		tariffs, err := db.LoadTariffs(ctx)
		if err != nil {
			return err
		}
		if len(tariffs) == 0 {
			fmt.Println("No tariffs loaded, skipping cost calculation (run 'homeenergy tariffs load')")
			return nil
		}
		resolver, err := tariff.NewResolver(tariffs)
		if err != nil {
			return err
		}
		costs, err := tariff.NewCalculator(db, resolver, log).Run(ctx, false)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Costed %d readings (%d outside tariff coverage)\n", costs.Updated, costs.Skipped)
	}

	return nil
}

// importTemperatures stores sensor readings and advances the cursor.
func importTemperatures(ctx context.Context, db *database.DB, cursorKey string, readings []models.TemperatureReading, parseSkipped int) error {
	if len(readings) == 0 {
		fmt.Println("No readings found in file")
		return nil
	}

	result, err := db.InsertTemperatures(ctx, readings)
	if err != nil {
		return fmt.Errorf("storing temperatures: %w", err)
	}

	latest := readings[0].Timestamp
	for i := range readings {
		if readings[i].Timestamp.After(latest) {
			latest = readings[i].Timestamp
		}
	}
	if err := db.AdvanceCursor(ctx, cursorKey, latest); err != nil {
		return err
	}

	reportBatch(result, parseSkipped)
	return nil
}

// reportBatch prints a batch summary including the first offending keys.
func reportBatch(result *database.BatchResult, parseSkipped int) {
	fmt.Printf("✓ Imported %d rows, skipped %d (run %s)\n", result.Imported, result.Skipped+parseSkipped, result.RunID)
	for _, rowErr := range result.Errors {
		fmt.Printf("  - %v\n", rowErr)
	}
}
