package collect

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"homeenergy/internal/normalize"
)

// SourceMonitor is the local power monitor on the studio sub-circuit.
const SourceMonitor = "monitor"

// ParseMonitorCSV reads a power-monitor history export: per-minute rows
// with a unix `timestamp` column and a `total_act_energy` column holding the
// watt-hours consumed in that minute. Extra columns (power, voltage,
// current metrics) are ignored. Returns samples in kWh plus the skipped
// row count.
func ParseMonitorCSV(r io.Reader) ([]normalize.Sample, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("reading monitor CSV header: %w", err)
	}
	cols, err := columnIndex(header, "timestamp", "total_act_energy")
	if err != nil {
		return nil, 0, err
	}

	var samples []normalize.Sample
	skipped := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		if len(record) <= cols["timestamp"] || len(record) <= cols["total_act_energy"] {
			skipped++
			continue
		}

		unix, err1 := strconv.ParseInt(strings.TrimSpace(record[cols["timestamp"]]), 10, 64)
		wh, err2 := parseFloat(record[cols["total_act_energy"]])
		if err1 != nil || err2 != nil {
			skipped++
			continue
		}

		samples = append(samples, normalize.Sample{
			Timestamp: time.Unix(unix, 0).UTC(),
			KWh:       wh / 1000.0,
			Width:     time.Minute,
		})
	}

	return samples, skipped, nil
}

// columnIndex maps required header names to their positions.
func columnIndex(header []string, names ...string) (map[string]int, error) {
	index := make(map[string]int, len(names))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}

	result := make(map[string]int, len(names))
	for _, name := range names {
		pos, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q in CSV header", name)
		}
		result[name] = pos
	}
	return result, nil
}

// parseFloat trims and parses a numeric field.
func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
