package database

import (
	"context"
	"database/sql"
	"fmt"

	"homeenergy/pkg/models"
)

// ReplaceTariffs stores a tariff set wholesale. Each named tariff replaces
// any previous definition together with all of its rate bands, in one
// transaction: a tariff is never partially edited in place.
func (db *DB) ReplaceTariffs(ctx context.Context, tariffs []models.Tariff) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range tariffs {
		tariff := &tariffs[i]

		var validTo any
		if tariff.ValidTo != nil {
			validTo = encodeTime(*tariff.ValidTo)
		}

		_, err := tx.ExecContext(ctx, `
		INSERT INTO tariffs (name, valid_from, valid_to)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			valid_from = excluded.valid_from,
			valid_to = excluded.valid_to
		`, tariff.Name, encodeTime(tariff.ValidFrom), validTo)
		if err != nil {
			return fmt.Errorf("upserting tariff %q: %w", tariff.Name, err)
		}

		// LastInsertId is meaningless on the conflict-update path, so read
		// the id back by name.
		var tariffID int64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM tariffs WHERE name = ?`, tariff.Name).Scan(&tariffID); err != nil {
			return fmt.Errorf("resolving tariff id for %q: %w", tariff.Name, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM tariff_rates WHERE tariff_id = ?`, tariffID); err != nil {
			return fmt.Errorf("clearing rates for tariff %q: %w", tariff.Name, err)
		}

		for _, rate := range tariff.Rates {
			days := rate.Days
			if days == "" {
				days = "*"
			}
			_, err := tx.ExecContext(ctx, `
			INSERT INTO tariff_rates (tariff_id, start_time, end_time, rate_pence_per_kwh, days)
			VALUES (?, ?, ?, ?, ?)
			`, tariffID, rate.StartTime, rate.EndTime, rate.RatePencePerKWh, days)
			if err != nil {
				return fmt.Errorf("inserting rate for tariff %q: %w", tariff.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tariffs: %w", err)
	}

	return nil
}

// LoadTariffs retrieves every stored tariff with its rate bands.
func (db *DB) LoadTariffs(ctx context.Context) ([]models.Tariff, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, valid_from, valid_to FROM tariffs ORDER BY valid_from ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying tariffs: %w", err)
	}
	defer rows.Close()

	var tariffs []models.Tariff
	for rows.Next() {
		var tariff models.Tariff
		var fromStr string
		var toStr sql.NullString

		if err := rows.Scan(&tariff.ID, &tariff.Name, &fromStr, &toStr); err != nil {
			return nil, fmt.Errorf("scanning tariff: %w", err)
		}
		if tariff.ValidFrom, err = decodeTime(fromStr); err != nil {
			return nil, err
		}
		if toStr.Valid && toStr.String != "" {
			to, err := decodeTime(toStr.String)
			if err != nil {
				return nil, err
			}
			tariff.ValidTo = &to
		}
		tariffs = append(tariffs, tariff)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tariffs {
		rateRows, err := db.conn.QueryContext(ctx, `
		SELECT start_time, end_time, rate_pence_per_kwh, days
		FROM tariff_rates WHERE tariff_id = ? ORDER BY start_time ASC
		`, tariffs[i].ID)
		if err != nil {
			return nil, fmt.Errorf("querying rates for tariff %q: %w", tariffs[i].Name, err)
		}

		for rateRows.Next() {
			var rate models.TariffRate
			if err := rateRows.Scan(&rate.StartTime, &rate.EndTime, &rate.RatePencePerKWh, &rate.Days); err != nil {
				rateRows.Close()
				return nil, fmt.Errorf("scanning rate: %w", err)
			}
			tariffs[i].Rates = append(tariffs[i].Rates, rate)
		}
		if err := rateRows.Err(); err != nil {
			rateRows.Close()
			return nil, err
		}
		rateRows.Close()
	}

	return tariffs, nil
}
