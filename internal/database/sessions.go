package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"homeenergy/pkg/models"
)

// ReplaceSessions deletes every session for the sensor whose start falls in
// [from, to] and inserts the freshly detected set, in one transaction.
// Detection runs replace their range wholesale, never append. Zero bounds
// leave that side of the range open.
func (db *DB) ReplaceSessions(ctx context.Context, sensorID string, from, to time.Time, sessions []models.ThermalSession) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `DELETE FROM thermal_sessions WHERE sensor_id = ?`
	args := []any{sensorID}
	if !from.IsZero() {
		query += ` AND start_time >= ?`
		args = append(args, encodeTime(from))
	}
	if !to.IsZero() {
		query += ` AND start_time <= ?`
		args = append(args, encodeTime(to))
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting sessions: %w", err)
	}
	deleted, _ := res.RowsAffected()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO thermal_sessions (sensor_id, start_time, end_time, duration_minutes, peak_temperature_c, estimated_kwh)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range sessions {
		session := &sessions[i]
		var estimated any
		if session.EstimatedKWh != nil {
			estimated = *session.EstimatedKWh
		}
		_, err := stmt.ExecContext(ctx,
			sensorID,
			encodeTime(session.StartTime),
			encodeTime(session.EndTime),
			session.DurationMinutes,
			session.PeakTemperatureC,
			estimated,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing sessions: %w", err)
	}

	return int(deleted), nil
}

// ListSessions retrieves sessions ordered by start time. An empty sensorID
// matches all sensors; zero bounds leave the range open.
func (db *DB) ListSessions(ctx context.Context, sensorID string, from, to time.Time) ([]models.ThermalSession, error) {
	query := `
	SELECT id, sensor_id, start_time, end_time, duration_minutes, peak_temperature_c, estimated_kwh
	FROM thermal_sessions WHERE 1=1`
	args := []any{}

	if sensorID != "" {
		query += ` AND sensor_id = ?`
		args = append(args, sensorID)
	}
	if !from.IsZero() {
		query += ` AND start_time >= ?`
		args = append(args, encodeTime(from))
	}
	if !to.IsZero() {
		query += ` AND start_time <= ?`
		args = append(args, encodeTime(to))
	}
	query += ` ORDER BY start_time ASC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.ThermalSession
	for rows.Next() {
		var session models.ThermalSession
		var startStr, endStr string
		var estimated sql.NullFloat64

		if err := rows.Scan(&session.ID, &session.SensorID, &startStr, &endStr, &session.DurationMinutes, &session.PeakTemperatureC, &estimated); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if session.StartTime, err = decodeTime(startStr); err != nil {
			return nil, err
		}
		if session.EndTime, err = decodeTime(endStr); err != nil {
			return nil, err
		}
		if estimated.Valid {
			session.EstimatedKWh = &estimated.Float64
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}
