package tariff

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"homeenergy/internal/database"
	"homeenergy/internal/logging"
	"homeenergy/pkg/models"
)

func newMockCalculator(t *testing.T, tariffs []models.Tariff) (*Calculator, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	resolver, err := NewResolver(tariffs)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return NewCalculator(database.FromConn(conn), resolver, logging.Nop()), mock
}

func TestCalculatorRun_FillsMissingCosts(t *testing.T) {
	t.Parallel()

	flat := models.Tariff{
		Name:      "flat",
		ValidFrom: date(2026, 1, 1),
		Rates: []models.TariffRate{
			{StartTime: "00:00", EndTime: "00:00", RatePencePerKWh: 28.1},
		},
	}
	calc, mock := newMockCalculator(t, []models.Tariff{flat})

	covered := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	uncovered := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "source", "interval_start", "interval_end", "consumption_kwh", "cost_pence", "published"}).
		AddRow(1, "meter", covered.Format(time.RFC3339), covered.Add(30*time.Minute).Format(time.RFC3339), 0.5, nil, 0).
		AddRow(2, "meter", uncovered.Format(time.RFC3339), uncovered.Add(30*time.Minute).Format(time.RFC3339), 0.5, nil, 0)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE cost_pence IS NULL")).WillReturnRows(rows)

	mock.ExpectBegin()
	prepared := mock.ExpectPrepare(regexp.QuoteMeta("UPDATE electricity_readings SET cost_pence = ? WHERE id = ?"))
	prepared.ExpectExec().WithArgs(0.5*28.1, 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := calc.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Updated != 1 {
		t.Errorf("updated: want 1, got %d", result.Updated)
	}
	if result.Skipped != 1 {
		t.Errorf("skipped: want 1, got %d", result.Skipped)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestCalculatorRun_RecomputeAll(t *testing.T) {
	t.Parallel()

	flat := models.Tariff{
		Name:      "flat",
		ValidFrom: date(2026, 1, 1),
		Rates: []models.TariffRate{
			{StartTime: "00:00", EndTime: "00:00", RatePencePerKWh: 20.0},
		},
	}
	calc, mock := newMockCalculator(t, []models.Tariff{flat})

	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "source", "interval_start", "interval_end", "consumption_kwh", "cost_pence", "published"}).
		AddRow(1, "meter", start.Format(time.RFC3339), start.Add(30*time.Minute).Format(time.RFC3339), 1.0, 99.9, 0)

	// Recompute fetches every reading, costed or not.
	mock.ExpectQuery(regexp.QuoteMeta("FROM electricity_readings ORDER BY interval_start")).WillReturnRows(rows)

	mock.ExpectBegin()
	prepared := mock.ExpectPrepare(regexp.QuoteMeta("UPDATE electricity_readings SET cost_pence = ? WHERE id = ?"))
	prepared.ExpectExec().WithArgs(20.0, 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := calc.Run(context.Background(), true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Updated != 1 || result.Skipped != 0 {
		t.Errorf("want 1 updated, 0 skipped, got %d/%d", result.Updated, result.Skipped)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestCalculatorRun_NothingToDo(t *testing.T) {
	t.Parallel()

	flat := models.Tariff{
		Name:      "flat",
		ValidFrom: date(2026, 1, 1),
		Rates: []models.TariffRate{
			{StartTime: "00:00", EndTime: "00:00", RatePencePerKWh: 20.0},
		},
	}
	calc, mock := newMockCalculator(t, []models.Tariff{flat})

	mock.ExpectQuery(regexp.QuoteMeta("WHERE cost_pence IS NULL")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "source", "interval_start", "interval_end", "consumption_kwh", "cost_pence", "published"}))

	result, err := calc.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Updated != 0 || result.Skipped != 0 {
		t.Errorf("want empty result, got %+v", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}
