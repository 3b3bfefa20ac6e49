package collect

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"homeenergy/pkg/models"
)

// SensorOutdoor is the synthetic sensor id for outdoor weather points.
const SensorOutdoor = "outside_temperature"

// ParseWeatherCSV reads an hourly weather export: a header row then
// timestamp,temperature_c records with RFC3339 timestamps. Points land in
// the temperature store under the outdoor sensor id for correlation with
// consumption.
func ParseWeatherCSV(r io.Reader) ([]models.TemperatureReading, int, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("reading weather CSV header: %w", err)
	}
	cols, err := columnIndex(header, "timestamp", "temperature_c")
	if err != nil {
		return nil, 0, err
	}

	var readings []models.TemperatureReading
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

		ts, err1 := time.Parse(time.RFC3339, record[cols["timestamp"]])
		temp, err2 := parseFloat(record[cols["temperature_c"]])
		if err1 != nil || err2 != nil {
			skipped++
			continue
		}

		readings = append(readings, models.TemperatureReading{
			SensorID:     SensorOutdoor,
			Timestamp:    ts.UTC(),
			TemperatureC: temp,
		})
	}

	return readings, skipped, nil
}
