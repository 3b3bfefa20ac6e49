package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"homeenergy/pkg/models"
)

// InsertTemperatures writes a batch of temperature readings in one
// transaction. Sensor samples are immutable facts, so duplicate
// (sensor_id, timestamp) keys are ignored rather than overwritten.
func (db *DB) InsertTemperatures(ctx context.Context, readings []models.TemperatureReading) (*BatchResult, error) {
	result := &BatchResult{RunID: uuid.NewString()}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR IGNORE INTO temperature_readings (sensor_id, timestamp, temperature_c)
	VALUES (?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range readings {
		reading := &readings[i]
		if reading.SensorID == "" {
			result.recordError(&ValidationError{
				Key:    reading.Timestamp.Format(timeFormat),
				Reason: "empty sensor id",
			})
			continue
		}

		res, err := stmt.ExecContext(ctx, reading.SensorID, encodeTime(reading.Timestamp), reading.TemperatureC)
		if err != nil {
			return nil, fmt.Errorf("inserting temperature: %w", err)
		}

		if n, err := res.RowsAffected(); err == nil && n == 0 {
			result.Skipped++
		} else {
			result.Imported++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing batch: %w", err)
	}

	return result, nil
}

// TemperaturesForSensor retrieves a sensor's readings in a time range,
// ordered by timestamp ascending. Zero from/to values leave that bound open.
func (db *DB) TemperaturesForSensor(ctx context.Context, sensorID string, from, to time.Time) ([]models.TemperatureReading, error) {
	query := `SELECT sensor_id, timestamp, temperature_c FROM temperature_readings WHERE sensor_id = ?`
	args := []any{sensorID}

	if !from.IsZero() {
		query += ` AND timestamp >= ?`
		args = append(args, encodeTime(from))
	}
	if !to.IsZero() {
		query += ` AND timestamp <= ?`
		args = append(args, encodeTime(to))
	}
	query += ` ORDER BY timestamp ASC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying temperatures: %w", err)
	}
	defer rows.Close()

	var results []models.TemperatureReading
	for rows.Next() {
		var reading models.TemperatureReading
		var tsStr string
		if err := rows.Scan(&reading.SensorID, &tsStr, &reading.TemperatureC); err != nil {
			return nil, fmt.Errorf("scanning temperature: %w", err)
		}
		if reading.Timestamp, err = decodeTime(tsStr); err != nil {
			return nil, err
		}
		results = append(results, reading)
	}

	return results, rows.Err()
}
