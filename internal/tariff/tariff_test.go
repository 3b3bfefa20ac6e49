package tariff

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"homeenergy/pkg/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dayNight is a typical economy tariff: cheap overnight band wrapping
// midnight, standard rate the rest of the day.
func dayNight(validFrom time.Time) models.Tariff {
	return models.Tariff{
		Name:      "economy",
		ValidFrom: validFrom,
		Rates: []models.TariffRate{
			{StartTime: "23:00", EndTime: "07:00", RatePencePerKWh: 9.5},
			{StartTime: "07:00", EndTime: "23:00", RatePencePerKWh: 28.1},
		},
	}
}

func TestRateFor_WrapAroundBand(t *testing.T) {
	resolver, err := NewResolver([]models.Tariff{dayNight(date(2026, 1, 1))})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	cases := []struct {
		hour, min int
		want      float64
	}{
		{23, 30, 9.5},  // before midnight
		{6, 30, 9.5},   // after midnight
		{6, 59, 9.5},   // last minute of the night band
		{7, 0, 28.1},   // band boundary belongs to the day band
		{12, 0, 28.1},  // midday
		{22, 59, 28.1}, // last minute of the day band
	}
	for _, tc := range cases {
		instant := time.Date(2026, 3, 10, tc.hour, tc.min, 0, 0, time.UTC)
		rate, err := resolver.RateFor(instant)
		if err != nil {
			t.Fatalf("RateFor(%02d:%02d): %v", tc.hour, tc.min, err)
		}
		if rate != tc.want {
			t.Errorf("RateFor(%02d:%02d): want %v, got %v", tc.hour, tc.min, tc.want, rate)
		}
	}
}

func TestRateFor_Totality(t *testing.T) {
	resolver, err := NewResolver([]models.Tariff{dayNight(date(2026, 1, 1))})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	// Every half-hour boundary of a week must resolve to exactly one rate.
	start := date(2026, 3, 9)
	for i := 0; i < 7*48; i++ {
		instant := start.Add(time.Duration(i) * 30 * time.Minute)
		if _, err := resolver.RateFor(instant); err != nil {
			t.Fatalf("RateFor(%s): %v", instant, err)
		}
	}
}

func TestRateFor_LatestValidFromWins(t *testing.T) {
	old := dayNight(date(2025, 1, 1))
	newer := models.Tariff{
		Name:      "flat",
		ValidFrom: date(2026, 1, 1),
		Rates: []models.TariffRate{
			{StartTime: "00:00", EndTime: "00:00", RatePencePerKWh: 24.0},
		},
	}
	resolver, err := NewResolver([]models.Tariff{old, newer})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	rate, err := resolver.RateFor(time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("RateFor: %v", err)
	}
	if rate != 24.0 {
		t.Errorf("newer tariff should shadow older: want 24.0, got %v", rate)
	}

	rate, err = resolver.RateFor(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("RateFor: %v", err)
	}
	if rate != 28.1 {
		t.Errorf("older tariff still applies before the handover: want 28.1, got %v", rate)
	}
}

func TestRateFor_NoTariff(t *testing.T) {
	resolver, err := NewResolver([]models.Tariff{dayNight(date(2026, 1, 1))})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	_, err = resolver.RateFor(date(2025, 6, 1))
	var noTariff *NoTariffError
	if !errors.As(err, &noTariff) {
		t.Fatalf("want NoTariffError before valid_from, got %v", err)
	}
}

func TestRateFor_ValidToExcluded(t *testing.T) {
	validTo := date(2026, 6, 1)
	tariff := dayNight(date(2026, 1, 1))
	tariff.ValidTo = &validTo
	resolver, err := NewResolver([]models.Tariff{tariff})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	if _, err := resolver.RateFor(date(2026, 5, 31)); err != nil {
		t.Fatalf("inside window: %v", err)
	}
	_, err = resolver.RateFor(validTo)
	var noTariff *NoTariffError
	if !errors.As(err, &noTariff) {
		t.Fatalf("valid_to is exclusive, want NoTariffError at the boundary, got %v", err)
	}
}

func TestRateFor_DayFilters(t *testing.T) {
	tariff := models.Tariff{
		Name:      "split-week",
		ValidFrom: date(2026, 1, 1),
		Rates: []models.TariffRate{
			{StartTime: "00:00", EndTime: "00:00", RatePencePerKWh: 30.0, Days: "weekdays"},
			{StartTime: "00:00", EndTime: "00:00", RatePencePerKWh: 20.0, Days: "weekends"},
		},
	}
	resolver, err := NewResolver([]models.Tariff{tariff})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	monday := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	saturday := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	if rate, _ := resolver.RateFor(monday); rate != 30.0 {
		t.Errorf("Monday: want 30.0, got %v", rate)
	}
	if rate, _ := resolver.RateFor(saturday); rate != 20.0 {
		t.Errorf("Saturday: want 20.0, got %v", rate)
	}
}

func TestValidate_GapRejected(t *testing.T) {
	tariff := models.Tariff{
		Name:      "gappy",
		ValidFrom: date(2026, 1, 1),
		Rates: []models.TariffRate{
			{StartTime: "00:00", EndTime: "07:00", RatePencePerKWh: 10},
			{StartTime: "08:00", EndTime: "00:00", RatePencePerKWh: 20},
		},
	}

	err := Validate([]models.Tariff{tariff})
	var cfgErr *TariffConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("want TariffConfigError for a gap, got %v", err)
	}
}

func TestValidate_OverlapRejected(t *testing.T) {
	tariff := models.Tariff{
		Name:      "overlapping",
		ValidFrom: date(2026, 1, 1),
		Rates: []models.TariffRate{
			{StartTime: "00:00", EndTime: "08:00", RatePencePerKWh: 10},
			{StartTime: "07:00", EndTime: "00:00", RatePencePerKWh: 20},
		},
	}

	err := Validate([]models.Tariff{tariff})
	var cfgErr *TariffConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("want TariffConfigError for an overlap, got %v", err)
	}
}

func TestValidate_MidnightEndIsNotAWrap(t *testing.T) {
	// Bands ending at "24:00" partition the day together with a
	// midnight-starting band; neither wraps.
	tariff := models.Tariff{
		Name:      "economy",
		ValidFrom: date(2026, 1, 1),
		Rates: []models.TariffRate{
			{StartTime: "00:00", EndTime: "07:00", RatePencePerKWh: 9.5},
			{StartTime: "07:00", EndTime: "24:00", RatePencePerKWh: 28.1},
		},
	}

	if err := Validate([]models.Tariff{tariff}); err != nil {
		t.Fatalf("midnight-ending band should validate: %v", err)
	}

	resolver, err := NewResolver([]models.Tariff{tariff})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	cases := []struct {
		hour, min int
		want      float64
	}{
		{0, 0, 9.5},
		{6, 59, 9.5},
		{7, 0, 28.1},
		{23, 59, 28.1},
	}
	for _, tc := range cases {
		instant := time.Date(2026, 3, 10, tc.hour, tc.min, 0, 0, time.UTC)
		rate, err := resolver.RateFor(instant)
		if err != nil {
			t.Fatalf("RateFor(%02d:%02d): %v", tc.hour, tc.min, err)
		}
		if rate != tc.want {
			t.Errorf("RateFor(%02d:%02d): want %v, got %v", tc.hour, tc.min, tc.want, rate)
		}
	}
}

func TestValidate_WrappingBandCoversBothSidesOfMidnight(t *testing.T) {
	if err := Validate([]models.Tariff{dayNight(date(2026, 1, 1))}); err != nil {
		t.Fatalf("wrap-around tariff should validate: %v", err)
	}
}

func TestValidate_UnknownDayFilter(t *testing.T) {
	tariff := models.Tariff{
		Name:      "bad-days",
		ValidFrom: date(2026, 1, 1),
		Rates: []models.TariffRate{
			{StartTime: "00:00", EndTime: "00:00", RatePencePerKWh: 10, Days: "tuesdays"},
		},
	}

	err := Validate([]models.Tariff{tariff})
	var cfgErr *TariffConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("want TariffConfigError for unknown day filter, got %v", err)
	}
}

func TestValidate_NoRates(t *testing.T) {
	err := Validate([]models.Tariff{{Name: "empty", ValidFrom: date(2026, 1, 1)}})
	var cfgErr *TariffConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("want TariffConfigError for empty rate list, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tariffs.yaml")
	content := `tariffs:
  - name: economy
    valid_from: "2026-01-01"
    rates:
      - start: "23:00"
        end: "07:00"
        rate: 9.5
      - start: "07:00"
        end: "23:00"
        rate: 28.1
  - name: flat
    valid_from: "2026-06-01"
    valid_to: "2027-06-01"
    rates:
      - start: "00:00"
        end: "00:00"
        rate: 24.0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tariffs, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(tariffs) != 2 {
		t.Fatalf("want 2 tariffs, got %d", len(tariffs))
	}
	if tariffs[0].Name != "economy" || len(tariffs[0].Rates) != 2 {
		t.Errorf("unexpected first tariff: %+v", tariffs[0])
	}
	if tariffs[1].ValidTo == nil || !tariffs[1].ValidTo.Equal(date(2027, 6, 1)) {
		t.Errorf("valid_to not parsed: %+v", tariffs[1].ValidTo)
	}
}

func TestLoadFile_InvalidRejectedWhole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tariffs.yaml")
	content := `tariffs:
  - name: good
    valid_from: "2026-01-01"
    rates:
      - start: "00:00"
        end: "00:00"
        rate: 24.0
  - name: broken
    valid_from: "2026-01-01"
    rates:
      - start: "00:00"
        end: "12:00"
        rate: 10.0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tariffs, err := LoadFile(path)
	var cfgErr *TariffConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("want TariffConfigError, got %v", err)
	}
	if tariffs != nil {
		t.Fatalf("a failed load must return nothing, got %d tariffs", len(tariffs))
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"07:30", 450, false},
		{"23:59", 1439, false},
		{"24:00", 1440, false},
		{"25:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
	}
	for _, tc := range cases {
		got, err := parseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseClock(%q): want error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseClock(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseClock(%q): want %d, got %d", tc.in, tc.want, got)
		}
	}
}
