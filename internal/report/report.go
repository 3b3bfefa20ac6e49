// Package report aggregates stored readings and sessions into
// human-readable summaries.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"homeenergy/pkg/models"
)

// DayTotal is one day's consumption and cost.
type DayTotal struct {
	Date      string // YYYY-MM-DD
	KWh       float64
	CostPence float64
	Costed    int // readings contributing to CostPence
	Readings  int
}

// Summary aggregates a reporting window.
type Summary struct {
	Days        []DayTotal
	BySource    map[string]float64
	TotalKWh    float64
	TotalPence  float64
	Uncosted    int // readings without a computed cost
	SessionRows []models.ThermalSession
}

// Build aggregates readings into per-day totals. Readings without a cost
// still count toward consumption; their missing cost is surfaced as the
// Uncosted count rather than silently treated as zero.
func Build(readings []models.IntervalReading, sessions []models.ThermalSession) *Summary {
	summary := &Summary{BySource: make(map[string]float64), SessionRows: sessions}
	byDay := make(map[string]*DayTotal)

	for i := range readings {
		reading := &readings[i]
		date := reading.IntervalStart.Format("2006-01-02")

		day, ok := byDay[date]
		if !ok {
			day = &DayTotal{Date: date}
			byDay[date] = day
		}

		day.KWh += reading.ConsumptionKWh
		day.Readings++
		if reading.CostPence != nil {
			day.CostPence += *reading.CostPence
			day.Costed++
			summary.TotalPence += *reading.CostPence
		} else {
			summary.Uncosted++
		}

		summary.BySource[reading.Source] += reading.ConsumptionKWh
		summary.TotalKWh += reading.ConsumptionKWh
	}

	for _, day := range byDay {
		summary.Days = append(summary.Days, *day)
	}
	sort.Slice(summary.Days, func(i, j int) bool { return summary.Days[i].Date < summary.Days[j].Date })

	return summary
}

// Render formats the summary as a text table.
func (s *Summary) Render() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%-12s  %10s  %12s\n", "Date", "kWh", "Cost"))
	b.WriteString(strings.Repeat("-", 40) + "\n")
	for _, day := range s.Days {
		marker := ""
		if day.Costed < day.Readings {
			marker = " *"
		}
		b.WriteString(fmt.Sprintf("%-12s  %10.2f  %11.1fp%s\n", day.Date, day.KWh, day.CostPence, marker))
	}
	b.WriteString(strings.Repeat("-", 40) + "\n")
	b.WriteString(fmt.Sprintf("Total: %.2f kWh, £%.2f across %s days\n",
		s.TotalKWh, s.TotalPence/100, humanize.Comma(int64(len(s.Days)))))

	if s.Uncosted > 0 {
		b.WriteString(fmt.Sprintf("Note: %s readings have no cost yet, * marks affected days (run 'homeenergy costs')\n",
			humanize.Comma(int64(s.Uncosted))))
	}

	if len(s.BySource) > 0 {
		b.WriteString("\nBy source:\n")
		sources := make([]string, 0, len(s.BySource))
		for source := range s.BySource {
			sources = append(sources, source)
		}
		sort.Strings(sources)
		for _, source := range sources {
			b.WriteString(fmt.Sprintf("  %-20s %10.2f kWh\n", source, s.BySource[source]))
		}
	}

	if len(s.SessionRows) > 0 {
		b.WriteString(fmt.Sprintf("\nSessions (%d):\n", len(s.SessionRows)))
		for _, session := range s.SessionRows {
			b.WriteString(fmt.Sprintf("  %s  %4dm  peak %.0f°C  (%s)\n",
				session.StartTime.Format("2006-01-02 15:04"),
				session.DurationMinutes,
				session.PeakTemperatureC,
				humanize.Time(session.StartTime)))
		}
	}

	return b.String()
}

// DefaultWindow returns the reporting window used when the caller gives no
// bounds: the last n days ending now.
func DefaultWindow(n int) (time.Time, time.Time) {
	now := time.Now()
	return now.AddDate(0, 0, -n), now
}
