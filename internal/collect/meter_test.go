package collect

import (
	"strings"
	"testing"
	"time"
)

func TestParseMeterCSV(t *testing.T) {
	input := `interval_start,interval_end,consumption_kwh
2026-03-10T10:00:00Z,2026-03-10T10:30:00Z,0.512
2026-03-10T10:30:00Z,2026-03-10T11:00:00Z,0.498
`
	samples, skipped, err := ParseMeterCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseMeterCSV: %v", err)
	}
	if skipped != 0 {
		t.Errorf("want 0 skipped, got %d", skipped)
	}
	if len(samples) != 2 {
		t.Fatalf("want 2 samples, got %d", len(samples))
	}
	want := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	if !samples[0].Timestamp.Equal(want) || samples[0].KWh != 0.512 {
		t.Errorf("unexpected first sample: %+v", samples[0])
	}
	if samples[0].Width != 30*time.Minute {
		t.Errorf("width: want 30m, got %v", samples[0].Width)
	}
}

func TestParseMeterCSV_SkipsMalformedRows(t *testing.T) {
	input := `interval_start,interval_end,consumption_kwh
2026-03-10T10:00:00Z,2026-03-10T10:30:00Z,0.512
not-a-timestamp,2026-03-10T11:00:00Z,0.498
2026-03-10T11:00:00Z,2026-03-10T11:30:00Z,not-a-number
2026-03-10T12:00:00Z,2026-03-10T11:30:00Z,0.3
2026-03-10T12:00:00Z,2026-03-10T12:30:00Z,0.3
`
	samples, skipped, err := ParseMeterCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseMeterCSV: %v", err)
	}
	if len(samples) != 2 {
		t.Errorf("want 2 good samples, got %d", len(samples))
	}
	if skipped != 3 {
		t.Errorf("want 3 skipped, got %d", skipped)
	}
}

func TestParseMeterCSV_MissingColumn(t *testing.T) {
	input := `start,end,kwh
2026-03-10T10:00:00Z,2026-03-10T10:30:00Z,0.512
`
	if _, _, err := ParseMeterCSV(strings.NewReader(input)); err == nil {
		t.Fatal("want error for missing columns")
	}
}

func TestParseMonitorCSV(t *testing.T) {
	// Real exports carry many metric columns; only two matter.
	input := `timestamp,total_act_energy,total_act_ret_energy,avg_voltage
1767873600,8.333,0.0,239.8
1767873660,9.167,0.0,240.1
`
	samples, skipped, err := ParseMonitorCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseMonitorCSV: %v", err)
	}
	if skipped != 0 {
		t.Errorf("want 0 skipped, got %d", skipped)
	}
	if len(samples) != 2 {
		t.Fatalf("want 2 samples, got %d", len(samples))
	}
	if !samples[0].Timestamp.Equal(time.Unix(1767873600, 0).UTC()) {
		t.Errorf("timestamp: got %v", samples[0].Timestamp)
	}
	if samples[0].KWh != 8.333/1000.0 {
		t.Errorf("Wh not converted to kWh: got %v", samples[0].KWh)
	}
	if samples[0].Width != time.Minute {
		t.Errorf("width: want 1m, got %v", samples[0].Width)
	}
}

func TestParseMonitorCSV_SkipsMalformedRows(t *testing.T) {
	input := `timestamp,total_act_energy
1767873600,8.333
garbage,9.167
1767873720,not-a-number
`
	samples, skipped, err := ParseMonitorCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseMonitorCSV: %v", err)
	}
	if len(samples) != 1 || skipped != 2 {
		t.Errorf("want 1 sample and 2 skipped, got %d/%d", len(samples), skipped)
	}
}

func TestParseCloudJSON(t *testing.T) {
	input := `{"data": [
		{"timestamp": "2026-03-10T10:00:00Z", "consumption_kwh": 1.2},
		{"timestamp": "2026-03-10T11:00:00Z", "consumption_kwh": 0.9},
		{"timestamp": "bogus", "consumption_kwh": 0.5}
	]}`

	samples, skipped, err := ParseCloudJSON(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCloudJSON: %v", err)
	}
	if len(samples) != 2 || skipped != 1 {
		t.Fatalf("want 2 samples and 1 skipped, got %d/%d", len(samples), skipped)
	}
	if samples[0].Width != time.Hour {
		t.Errorf("width: want 1h, got %v", samples[0].Width)
	}
	if samples[0].KWh != 1.2 {
		t.Errorf("kWh: want 1.2, got %v", samples[0].KWh)
	}
}

func TestParseCloudJSON_Invalid(t *testing.T) {
	if _, _, err := ParseCloudJSON(strings.NewReader("not json")); err == nil {
		t.Fatal("want error for invalid JSON")
	}
}
