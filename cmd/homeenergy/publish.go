package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"homeenergy/internal/publisher"
)

var (
	publishSource   string
	publishLimit    int
	publishSessions bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish stored readings to the MQTT broker",
	Long:  `Reads interval readings not yet published and sends them to the configured MQTT broker, marking each as published on success.`,
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishSource, "source", "", "only publish readings for this source")
	publishCmd.Flags().IntVar(&publishLimit, "limit", 0, "limit number of records to publish (0 = no limit)")
	publishCmd.Flags().BoolVar(&publishSessions, "sessions", false, "also publish sessions from the last 7 days")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Publish started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if !cfg.MQTT.Enabled {
		return fmt.Errorf("MQTT is not enabled in config")
	}

	pub, err := publisher.New(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	data, err := db.ListUnpublishedReadings(ctx, publishSource)
	if err != nil {
		return fmt.Errorf("listing unpublished readings: %w", err)
	}

	if len(data) == 0 && !publishSessions {
		fmt.Println("No unpublished readings found")
		return nil
	}

	if publishLimit > 0 && len(data) > publishLimit {
		data = data[:publishLimit]
		fmt.Printf("Limiting to %d records (--limit flag)\n", publishLimit)
	}

	if len(data) > 0 {
		fmt.Printf("Publishing %d readings...\n", len(data))
	}
	published := 0
	for i, record := range data {
		fmt.Printf("[%d/%d] Publishing %s %s (%.2f kWh)... ", i+1, len(data),
			record.Source, record.IntervalStart.Format("2006-01-02 15:04"), record.ConsumptionKWh)
		if err := pub.PublishReading(record); err != nil {
			fmt.Printf("FAILED: %v\n", err)
			continue
		}

		if err := db.MarkReadingPublished(ctx, record.ID); err != nil {
			fmt.Printf("✓ (warning: failed to mark as published: %v)\n", err)
		} else {
			fmt.Printf("✓\n")
		}
		published++
	}

	if len(data) > 0 {
		fmt.Printf("Successfully published %d/%d readings\n", published, len(data))
	}

	if publishSessions {
		// Session topics are retained per sensor, so re-publishing a window
		// just refreshes what the broker holds.
		from := time.Now().AddDate(0, 0, -7)
		list, err := db.ListSessions(ctx, "", from, time.Time{})
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		for _, session := range list {
			if err := pub.PublishSession(session); err != nil {
				fmt.Printf("FAILED to publish session %s: %v\n", session.StartTime.Format("2006-01-02 15:04"), err)
				continue
			}
		}
		fmt.Printf("Published %d sessions\n", len(list))
	}

	return nil
}
