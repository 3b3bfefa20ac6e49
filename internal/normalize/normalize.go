// Package normalize converts source-native samples of any granularity into
// the canonical 30-minute interval grid. Total energy is conserved under
// aggregation; intervals with partial sample coverage are emitted anyway and
// documented as a known source of undercount.
package normalize

import (
	"sort"
	"time"

	"homeenergy/pkg/models"
)

// IntervalWidth is the canonical interval every persisted reading covers.
const IntervalWidth = 30 * time.Minute

// Sample is one source-native measurement: KWh of energy consumed in the
// Width-wide window starting at Timestamp.
type Sample struct {
	Timestamp time.Time
	KWh       float64
	Width     time.Duration
}

// bucketStart floors a timestamp onto the 30-minute grid. The result is in
// UTC so samples carrying mixed zone representations of the same instant
// land in the same bucket.
func bucketStart(t time.Time) time.Time {
	return t.Truncate(IntervalWidth).UTC()
}

// Normalize regrids samples for one source onto the canonical grid:
//
//   - width == 30m: pass through on the aligned boundary
//   - width < 30m: floor-bucket and sum; buckets inside the covered span
//     with no samples are emitted at zero rather than silently dropped
//   - width > 30m: split evenly across the covered buckets (the defined
//     policy; no finer profile is inferred)
//
// Output order follows interval start. Re-emitting previously imported
// intervals is safe: the store upserts, so overlapping import runs reconcile
// to the latest run's values.
func Normalize(source string, samples []Sample) []models.IntervalReading {
	if len(samples) == 0 {
		return nil
	}

	buckets := make(map[time.Time]float64)
	var subFirst, subLast time.Time

	for _, sample := range samples {
		switch {
		case sample.Width == IntervalWidth:
			buckets[bucketStart(sample.Timestamp)] += sample.KWh

		case sample.Width < IntervalWidth:
			start := bucketStart(sample.Timestamp)
			buckets[start] += sample.KWh
			if subFirst.IsZero() || start.Before(subFirst) {
				subFirst = start
			}
			if start.After(subLast) {
				subLast = start
			}

		default:
			// Spread over every bucket the source interval covers.
			n := int(sample.Width / IntervalWidth)
			if sample.Width%IntervalWidth != 0 {
				n++
			}
			share := sample.KWh / float64(n)
			start := bucketStart(sample.Timestamp)
			for i := 0; i < n; i++ {
				buckets[start.Add(time.Duration(i)*IntervalWidth)] += share
			}
		}
	}

	// Only the span covered by fine-grained samples gets explicit zero
	// intervals for its empty buckets: there a silent bucket means the
	// monitor recorded nothing. Coarser samples pass through as-is; a
	// missing interval in those files is an outage, and a fabricated zero
	// would overwrite real data from an earlier import.
	if !subFirst.IsZero() {
		for start := subFirst; !start.After(subLast); start = start.Add(IntervalWidth) {
			if _, ok := buckets[start]; !ok {
				buckets[start] = 0
			}
		}
	}

	starts := make([]time.Time, 0, len(buckets))
	for start := range buckets {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	readings := make([]models.IntervalReading, 0, len(starts))
	for _, start := range starts {
		readings = append(readings, models.IntervalReading{
			Source:         source,
			IntervalStart:  start,
			IntervalEnd:    start.Add(IntervalWidth),
			ConsumptionKWh: buckets[start],
		})
	}

	return readings
}
