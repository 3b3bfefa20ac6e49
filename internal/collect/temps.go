package collect

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"time"

	"homeenergy/pkg/models"
)

// SensorSauna is the sauna's own temperature sensor.
const SensorSauna = "sauna"

// tableRow matches one data row of a sauna-controller table export, e.g.
//
//	│ 2026-01-01 05:32:15 │              0°C │
var tableRow = regexp.MustCompile(`│\s*(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2})\s*│\s*(-?\d+)°C\s*│`)

// ParseTemperatureTable reads a sauna-controller export in its box-drawing
// table format. Lines that are not data rows (borders, headers) are simply
// ignored; data rows that fail to parse count as skipped.
func ParseTemperatureTable(r io.Reader, sensorID string) ([]models.TemperatureReading, int, error) {
	var readings []models.TemperatureReading
	skipped := 0

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		match := tableRow.FindStringSubmatch(scanner.Text())
		if match == nil {
			continue
		}

		ts, err1 := time.Parse("2006-01-02 15:04:05", match[1])
		temp, err2 := strconv.ParseFloat(match[2], 64)
		if err1 != nil || err2 != nil {
			skipped++
			continue
		}

		readings = append(readings, models.TemperatureReading{
			SensorID:     sensorID,
			Timestamp:    ts.UTC(),
			TemperatureC: temp,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("reading temperature export: %w", err)
	}

	return readings, skipped, nil
}
