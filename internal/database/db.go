package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// timeFormat is the canonical timestamp encoding for every table. RFC3339
// keeps the zone offset, which the interval grid and tariff resolution
// depend on.
const timeFormat = time.RFC3339

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// FromConn wraps an existing connection without touching the schema.
// Used by tests that supply a mock connection.
func FromConn(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS electricity_readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		interval_start TEXT NOT NULL,
		interval_end TEXT NOT NULL,
		consumption_kwh REAL NOT NULL,
		cost_pence REAL,
		published INTEGER DEFAULT 0,
		UNIQUE(source, interval_start)
	);
	CREATE TABLE IF NOT EXISTS temperature_readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sensor_id TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		temperature_c REAL NOT NULL,
		UNIQUE(sensor_id, timestamp)
	);
	CREATE TABLE IF NOT EXISTS tariffs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		valid_from TEXT NOT NULL,
		valid_to TEXT
	);
	CREATE TABLE IF NOT EXISTS tariff_rates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tariff_id INTEGER NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		rate_pence_per_kwh REAL NOT NULL,
		days TEXT DEFAULT '*',
		FOREIGN KEY (tariff_id) REFERENCES tariffs(id)
	);
	CREATE TABLE IF NOT EXISTS thermal_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sensor_id TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL,
		peak_temperature_c REAL NOT NULL,
		estimated_kwh REAL
	);
	CREATE TABLE IF NOT EXISTS import_cursors (
		source TEXT PRIMARY KEY,
		last_imported_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_elec_interval ON electricity_readings(interval_start);
	CREATE INDEX IF NOT EXISTS idx_elec_source ON electricity_readings(source, interval_start);
	CREATE INDEX IF NOT EXISTS idx_elec_published ON electricity_readings(published);
	CREATE INDEX IF NOT EXISTS idx_temp_sensor ON temperature_readings(sensor_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_session_start ON thermal_sessions(sensor_id, start_time);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// encodeTime formats a timestamp for storage
func encodeTime(t time.Time) string {
	return t.Format(timeFormat)
}

// decodeTime parses a stored timestamp
func decodeTime(s string) (time.Time, error) {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored timestamp %q: %w", s, err)
	}
	return t, nil
}
