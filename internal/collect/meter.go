// Package collect parses source file exports into samples for the
// normalizer. Parsers do no network I/O; authentication, retry and
// rate-limiting live with whatever produced the file. Malformed rows are
// skipped and counted, never fatal to the file.
package collect

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"homeenergy/internal/normalize"
)

// SourceMeter is the whole-house smart meter export.
const SourceMeter = "meter"

// ParseMeterCSV reads a smart-meter export: a header row then
// interval_start,interval_end,consumption_kwh records with RFC3339
// timestamps, natively half-hourly. Returns the samples and the count of
// skipped malformed rows.
func ParseMeterCSV(r io.Reader) ([]normalize.Sample, int, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("reading meter CSV header: %w", err)
	}
	cols, err := columnIndex(header, "interval_start", "interval_end", "consumption_kwh")
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

		start, err1 := time.Parse(time.RFC3339, record[cols["interval_start"]])
		end, err2 := time.Parse(time.RFC3339, record[cols["interval_end"]])
		kwh, err3 := parseFloat(record[cols["consumption_kwh"]])
		if err1 != nil || err2 != nil || err3 != nil || !end.After(start) {
			skipped++
			continue
		}

		samples = append(samples, normalize.Sample{
			Timestamp: start,
			KWh:       kwh,
			Width:     end.Sub(start),
		})
	}

	return samples, skipped, nil
}
