package collect

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"homeenergy/internal/normalize"
)

// SourceCloud is the vendor cloud's hourly aggregated export.
const SourceCloud = "cloud"

// cloudPoint is one hourly datapoint in a cloud export file.
type cloudPoint struct {
	Timestamp      string  `json:"timestamp"`
	ConsumptionKWh float64 `json:"consumption_kwh"`
}

type cloudExport struct {
	Data []cloudPoint `json:"data"`
}

// ParseCloudJSON reads a cloud power export: {"data": [{"timestamp": ...,
// "consumption_kwh": ...}, ...]} with hourly points. The normalizer later
// splits each hour evenly across its two half-hour buckets. Returns samples
// plus the skipped point count.
func ParseCloudJSON(r io.Reader) ([]normalize.Sample, int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("reading cloud export: %w", err)
	}

	var export cloudExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, 0, fmt.Errorf("parsing cloud export: %w", err)
	}

	var samples []normalize.Sample
	skipped := 0

	for _, point := range export.Data {
		ts, err := time.Parse(time.RFC3339, point.Timestamp)
		if err != nil {
			skipped++
			continue
		}
		samples = append(samples, normalize.Sample{
			Timestamp: ts,
			KWh:       point.ConsumptionKWh,
			Width:     time.Hour,
		})
	}

	return samples, skipped, nil
}
