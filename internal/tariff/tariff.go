// Package tariff resolves time-of-use electricity rates and applies them to
// stored interval readings.
package tariff

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"homeenergy/pkg/models"
)

const minutesPerDay = 24 * 60

// TariffConfigError rejects a rate table whose bands do not partition the
// day. Nothing from a failed load is applied.
type TariffConfigError struct {
	Tariff string
	Reason string
}

func (e *TariffConfigError) Error() string {
	return fmt.Sprintf("tariff %q misconfigured: %s", e.Tariff, e.Reason)
}

// NoTariffError means no tariff's validity window covers the instant.
type NoTariffError struct {
	Instant time.Time
}

func (e *NoTariffError) Error() string {
	return fmt.Sprintf("no tariff covers %s", e.Instant.Format(time.RFC3339))
}

// TariffGapError means the matched tariff has no band for the instant's
// time of day. A validated tariff set never produces this.
type TariffGapError struct {
	Tariff  string
	Instant time.Time
}

func (e *TariffGapError) Error() string {
	return fmt.Sprintf("tariff %q has no rate band covering %s", e.Tariff, e.Instant.Format(time.RFC3339))
}

// TariffOverlapError means more than one band matched the instant. A
// validated tariff set never produces this.
type TariffOverlapError struct {
	Tariff  string
	Instant time.Time
}

func (e *TariffOverlapError) Error() string {
	return fmt.Sprintf("tariff %q has overlapping rate bands at %s", e.Tariff, e.Instant.Format(time.RFC3339))
}

// tariffFile is the declarative YAML rate table.
type tariffFile struct {
	Tariffs []struct {
		Name      string              `yaml:"name"`
		ValidFrom string              `yaml:"valid_from"`
		ValidTo   string              `yaml:"valid_to,omitempty"`
		Rates     []models.TariffRate `yaml:"rates"`
	} `yaml:"tariffs"`
}

// LoadFile parses and validates a tariff YAML file. Validation failures
// reject the whole file.
func LoadFile(path string) ([]models.Tariff, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tariff file: %w", err)
	}

	var file tariffFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing tariff file: %w", err)
	}

	tariffs := make([]models.Tariff, 0, len(file.Tariffs))
	for _, entry := range file.Tariffs {
		validFrom, err := parseInstant(entry.ValidFrom)
		if err != nil {
			return nil, fmt.Errorf("tariff %q: parsing valid_from: %w", entry.Name, err)
		}

		tariff := models.Tariff{
			Name:      entry.Name,
			ValidFrom: validFrom,
			Rates:     entry.Rates,
		}
		if entry.ValidTo != "" {
			validTo, err := parseInstant(entry.ValidTo)
			if err != nil {
				return nil, fmt.Errorf("tariff %q: parsing valid_to: %w", entry.Name, err)
			}
			tariff.ValidTo = &validTo
		}

		tariffs = append(tariffs, tariff)
	}

	if err := Validate(tariffs); err != nil {
		return nil, err
	}

	return tariffs, nil
}

// parseInstant accepts a date or a full RFC3339 timestamp.
func parseInstant(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// parseClock converts "HH:MM" into minutes since midnight. "24:00" maps to
// 1440 so a band may end at midnight without being read as wrapping.
func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return h*60 + m, nil
}

// dayMatches reports whether a band's day filter covers the weekday.
func dayMatches(days string, weekday time.Weekday) bool {
	switch days {
	case "", "*":
		return true
	case "weekdays":
		return weekday != time.Saturday && weekday != time.Sunday
	case "weekends":
		return weekday == time.Saturday || weekday == time.Sunday
	default:
		return false
	}
}

// segment is a non-wrapping half-open clock range in minutes.
type segment struct {
	start, end int
}

// bandSegments expands a band into plain segments, splitting a wrapping
// band (start > end) at midnight.
func bandSegments(rate *models.TariffRate) ([]segment, error) {
	start, err := parseClock(rate.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseClock(rate.EndTime)
	if err != nil {
		return nil, err
	}

	if start < end {
		return []segment{{start, end}}, nil
	}
	if start == end {
		// A band like 00:00-00:00 covers the whole day.
		return []segment{{0, minutesPerDay}}, nil
	}
	return []segment{{start, minutesPerDay}, {0, end}}, nil
}

// Validate checks every tariff's bands: for each day class the applicable
// bands must cover the full 24 hours exactly once. Both gaps and overlaps
// fail the load.
func Validate(tariffs []models.Tariff) error {
	for i := range tariffs {
		tariff := &tariffs[i]
		if len(tariff.Rates) == 0 {
			return &TariffConfigError{Tariff: tariff.Name, Reason: "no rate bands"}
		}

		for _, day := range []time.Weekday{time.Monday, time.Saturday} {
			if err := validateDayClass(tariff, day); err != nil {
				return err
			}
		}

		for _, rate := range tariff.Rates {
			switch rate.Days {
			case "", "*", "weekdays", "weekends":
			default:
				return &TariffConfigError{
					Tariff: tariff.Name,
					Reason: fmt.Sprintf("unknown day filter %q", rate.Days),
				}
			}
		}
	}
	return nil
}

// validateDayClass checks band coverage for one representative weekday.
func validateDayClass(tariff *models.Tariff, weekday time.Weekday) error {
	var segments []segment
	for i := range tariff.Rates {
		rate := &tariff.Rates[i]
		if !dayMatches(rate.Days, weekday) {
			continue
		}
		expanded, err := bandSegments(rate)
		if err != nil {
			return &TariffConfigError{Tariff: tariff.Name, Reason: err.Error()}
		}
		segments = append(segments, expanded...)
	}

	class := "weekdays"
	if weekday == time.Saturday {
		class = "weekends"
	}

	if len(segments) == 0 {
		return &TariffConfigError{
			Tariff: tariff.Name,
			Reason: fmt.Sprintf("no bands apply on %s", class),
		}
	}

	sort.Slice(segments, func(i, j int) bool { return segments[i].start < segments[j].start })

	cursor := 0
	for _, seg := range segments {
		if seg.start < cursor {
			return &TariffConfigError{
				Tariff: tariff.Name,
				Reason: fmt.Sprintf("overlapping bands at %02d:%02d on %s", seg.start/60, seg.start%60, class),
			}
		}
		if seg.start > cursor {
			return &TariffConfigError{
				Tariff: tariff.Name,
				Reason: fmt.Sprintf("gap in coverage at %02d:%02d on %s", cursor/60, cursor%60, class),
			}
		}
		cursor = seg.end
	}
	if cursor != minutesPerDay {
		return &TariffConfigError{
			Tariff: tariff.Name,
			Reason: fmt.Sprintf("gap in coverage at %02d:%02d on %s", cursor/60, cursor%60, class),
		}
	}

	return nil
}

// Resolver answers rate lookups against a loaded tariff set. Resolution
// depends only on the instant and the loaded set.
type Resolver struct {
	tariffs []models.Tariff
}

// NewResolver validates the set and builds a resolver over it.
func NewResolver(tariffs []models.Tariff) (*Resolver, error) {
	if err := Validate(tariffs); err != nil {
		return nil, err
	}
	return &Resolver{tariffs: tariffs}, nil
}

// RateFor returns the pence/kWh rate applicable at the instant.
func (r *Resolver) RateFor(instant time.Time) (float64, error) {
	// Latest valid_from wins, so a superseding tariff shadows history
	// without deleting it.
	var active *models.Tariff
	for i := range r.tariffs {
		tariff := &r.tariffs[i]
		if instant.Before(tariff.ValidFrom) {
			continue
		}
		if tariff.ValidTo != nil && !instant.Before(*tariff.ValidTo) {
			continue
		}
		if active == nil || tariff.ValidFrom.After(active.ValidFrom) {
			active = tariff
		}
	}
	if active == nil {
		return 0, &NoTariffError{Instant: instant}
	}

	clock := instant.Hour()*60 + instant.Minute()
	weekday := instant.Weekday()

	var matched *models.TariffRate
	for i := range active.Rates {
		rate := &active.Rates[i]
		if !dayMatches(rate.Days, weekday) {
			continue
		}
		ok, err := clockInBand(clock, rate)
		if err != nil {
			return 0, &TariffConfigError{Tariff: active.Name, Reason: err.Error()}
		}
		if !ok {
			continue
		}
		if matched != nil {
			return 0, &TariffOverlapError{Tariff: active.Name, Instant: instant}
		}
		matched = rate
	}
	if matched == nil {
		return 0, &TariffGapError{Tariff: active.Name, Instant: instant}
	}

	return matched.RatePencePerKWh, nil
}

// clockInBand reports half-open containment, with wrap-around semantics for
// bands whose start is after their end (e.g. 23:00-07:00).
func clockInBand(clock int, rate *models.TariffRate) (bool, error) {
	start, err := parseClock(rate.StartTime)
	if err != nil {
		return false, err
	}
	end, err := parseClock(rate.EndTime)
	if err != nil {
		return false, err
	}

	if start < end {
		return clock >= start && clock < end, nil
	}
	if start == end {
		return true, nil
	}
	return clock >= start || clock < end, nil
}
