package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Cursor returns the per-source watermark: the last successfully imported
// timestamp. The second return is false when the source has never been
// imported, which callers treat as a full-backfill signal.
func (db *DB) Cursor(ctx context.Context, source string) (time.Time, bool, error) {
	var tsStr string
	err := db.conn.QueryRowContext(ctx,
		`SELECT last_imported_at FROM import_cursors WHERE source = ?`, source,
	).Scan(&tsStr)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("querying cursor: %w", err)
	}

	ts, err := decodeTime(tsStr)
	if err != nil {
		return time.Time{}, false, err
	}
	return ts, true, nil
}

// AdvanceCursor moves a source's watermark forward. Call only after the
// import batch for that source has committed. A timestamp at or behind the
// current watermark leaves it unchanged, so re-importing an old export never
// rewinds the cursor.
func (db *DB) AdvanceCursor(ctx context.Context, source string, ts time.Time) error {
	current, ok, err := db.Cursor(ctx, source)
	if err != nil {
		return err
	}
	if ok && !ts.After(current) {
		return nil
	}

	_, err = db.conn.ExecContext(ctx, `
	INSERT INTO import_cursors (source, last_imported_at)
	VALUES (?, ?)
	ON CONFLICT(source) DO UPDATE SET last_imported_at = excluded.last_imported_at
	`, source, encodeTime(ts))
	if err != nil {
		return fmt.Errorf("advancing cursor for %s: %w", source, err)
	}
	return nil
}
