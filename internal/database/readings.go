package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"homeenergy/pkg/models"
)

// maxReportedKeys caps how many offending row keys a BatchResult carries.
const maxReportedKeys = 10

// ValidationError marks a single malformed sample. The offending row is
// skipped and counted; the rest of the batch proceeds.
type ValidationError struct {
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid sample %s: %s", e.Key, e.Reason)
}

// BatchResult summarizes one import batch.
type BatchResult struct {
	RunID    string
	Imported int
	Skipped  int
	Errors   []*ValidationError // first maxReportedKeys offenders
}

func (r *BatchResult) recordError(err *ValidationError) {
	r.Skipped++
	if len(r.Errors) < maxReportedKeys {
		r.Errors = append(r.Errors, err)
	}
}

// validateReading checks a single reading before it is written.
func validateReading(reading *models.IntervalReading) *ValidationError {
	key := fmt.Sprintf("%s@%s", reading.Source, reading.IntervalStart.Format(timeFormat))
	if reading.Source == "" {
		return &ValidationError{Key: key, Reason: "empty source"}
	}
	if reading.ConsumptionKWh < 0 {
		return &ValidationError{Key: key, Reason: "negative consumption"}
	}
	if !reading.IntervalEnd.After(reading.IntervalStart) {
		return &ValidationError{Key: key, Reason: "interval end not after start"}
	}
	return nil
}

// UpsertReadings writes a batch of interval readings in one transaction.
// Re-imported windows overwrite in place (last write wins); the unique key
// (source, interval_start) guarantees no duplicates. Malformed rows are
// skipped and reported, valid rows still commit.
func (db *DB) UpsertReadings(ctx context.Context, readings []models.IntervalReading) (*BatchResult, error) {
	result := &BatchResult{RunID: uuid.NewString()}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Insert-or-overwrite in a single statement so a concurrent run never
	// observes the row half-written. cost_pence is cleared on overwrite:
	// new consumption invalidates a previously computed cost.
	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO electricity_readings (source, interval_start, interval_end, consumption_kwh, cost_pence)
	VALUES (?, ?, ?, ?, NULL)
	ON CONFLICT(source, interval_start) DO UPDATE SET
		interval_end = excluded.interval_end,
		consumption_kwh = excluded.consumption_kwh,
		cost_pence = NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for i := range readings {
		reading := &readings[i]
		if verr := validateReading(reading); verr != nil {
			result.recordError(verr)
			continue
		}

		_, err := stmt.ExecContext(ctx,
			reading.Source,
			encodeTime(reading.IntervalStart),
			encodeTime(reading.IntervalEnd),
			reading.ConsumptionKWh,
		)
		if err != nil {
			return nil, fmt.Errorf("upserting reading: %w", err)
		}
		result.Imported++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing batch: %w", err)
	}

	return result, nil
}

const readingColumns = `id, source, interval_start, interval_end, consumption_kwh, cost_pence, published`

// scanReading scans one electricity_readings row
func scanReading(rows *sql.Rows) (models.IntervalReading, error) {
	var reading models.IntervalReading
	var startStr, endStr string
	var cost sql.NullFloat64
	var published int

	if err := rows.Scan(&reading.ID, &reading.Source, &startStr, &endStr, &reading.ConsumptionKWh, &cost, &published); err != nil {
		return reading, fmt.Errorf("scanning reading: %w", err)
	}

	var err error
	if reading.IntervalStart, err = decodeTime(startStr); err != nil {
		return reading, err
	}
	if reading.IntervalEnd, err = decodeTime(endStr); err != nil {
		return reading, err
	}
	if cost.Valid {
		reading.CostPence = &cost.Float64
	}
	reading.Published = published != 0

	return reading, nil
}

func (db *DB) queryReadings(ctx context.Context, query string, args ...any) ([]models.IntervalReading, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close()

	var results []models.IntervalReading
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, reading)
	}

	return results, rows.Err()
}

// ListReadings retrieves readings for a time range, optionally filtered by
// source, ordered by interval start.
func (db *DB) ListReadings(ctx context.Context, source string, from, to time.Time) ([]models.IntervalReading, error) {
	query := `SELECT ` + readingColumns + ` FROM electricity_readings WHERE interval_start >= ? AND interval_start < ?`
	args := []any{encodeTime(from), encodeTime(to)}
	if source != "" {
		query += ` AND source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY interval_start ASC`

	return db.queryReadings(ctx, query, args...)
}

// ReadingsWithoutCost retrieves every reading with no computed cost yet.
func (db *DB) ReadingsWithoutCost(ctx context.Context) ([]models.IntervalReading, error) {
	query := `SELECT ` + readingColumns + ` FROM electricity_readings WHERE cost_pence IS NULL ORDER BY interval_start ASC`
	return db.queryReadings(ctx, query)
}

// AllReadings retrieves every reading, for full cost recomputes.
func (db *DB) AllReadings(ctx context.Context) ([]models.IntervalReading, error) {
	query := `SELECT ` + readingColumns + ` FROM electricity_readings ORDER BY interval_start ASC`
	return db.queryReadings(ctx, query)
}

// CostUpdate assigns a computed cost to a reading.
type CostUpdate struct {
	ReadingID int
	CostPence float64
}

// SetCosts applies cost updates in one transaction.
func (db *DB) SetCosts(ctx context.Context, updates []CostUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE electricity_readings SET cost_pence = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("preparing cost update: %w", err)
	}
	defer stmt.Close()

	for _, update := range updates {
		if _, err := stmt.ExecContext(ctx, update.CostPence, update.ReadingID); err != nil {
			return fmt.Errorf("updating cost for reading %d: %w", update.ReadingID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cost updates: %w", err)
	}

	return nil
}

// ListUnpublishedReadings retrieves readings not yet sent to the broker.
func (db *DB) ListUnpublishedReadings(ctx context.Context, source string) ([]models.IntervalReading, error) {
	query := `SELECT ` + readingColumns + ` FROM electricity_readings WHERE published = 0`
	args := []any{}
	if source != "" {
		query += ` AND source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY interval_start ASC`

	return db.queryReadings(ctx, query, args...)
}

// MarkReadingPublished marks a reading as published
func (db *DB) MarkReadingPublished(ctx context.Context, id int) error {
	if _, err := db.conn.ExecContext(ctx, `UPDATE electricity_readings SET published = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("marking reading as published: %w", err)
	}
	return nil
}
