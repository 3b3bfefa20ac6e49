package database

import (
	"context"
	"database/sql"
	"fmt"
)

// TableStats summarizes one time-series table.
type TableStats struct {
	Count    int
	Earliest string
	Latest   string
}

// Stats holds row counts and time extents for the stored data.
type Stats struct {
	Readings         TableStats
	ReadingsBySource map[string]int
	Temperatures     TableStats
	Sessions         int
	Tariffs          int
}

// Stats reports row counts and extents across the store.
func (db *DB) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ReadingsBySource: make(map[string]int)}

	var earliest, latest sql.NullString
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(interval_start), MAX(interval_start) FROM electricity_readings`,
	).Scan(&stats.Readings.Count, &earliest, &latest)
	if err != nil {
		return nil, fmt.Errorf("counting readings: %w", err)
	}
	stats.Readings.Earliest = earliest.String
	stats.Readings.Latest = latest.String

	rows, err := db.conn.QueryContext(ctx,
		`SELECT source, COUNT(*) FROM electricity_readings GROUP BY source`,
	)
	if err != nil {
		return nil, fmt.Errorf("counting readings by source: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("scanning source count: %w", err)
		}
		stats.ReadingsBySource[source] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(timestamp), MAX(timestamp) FROM temperature_readings`,
	).Scan(&stats.Temperatures.Count, &earliest, &latest)
	if err != nil {
		return nil, fmt.Errorf("counting temperatures: %w", err)
	}
	stats.Temperatures.Earliest = earliest.String
	stats.Temperatures.Latest = latest.String

	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM thermal_sessions`).Scan(&stats.Sessions); err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM tariffs`).Scan(&stats.Tariffs); err != nil {
		return nil, fmt.Errorf("counting tariffs: %w", err)
	}

	return stats, nil
}
